package core

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawroom/server/internal/domain"
)

// checkInvariants asserts the structural invariants of the Directory:
// no empty rooms, exactly one host per room, unique names per room,
// and a reverse index consistent with room membership.
func checkInvariants(t *testing.T, dir *Directory) {
	t.Helper()
	dir.mu.Lock()
	defer dir.mu.Unlock()

	for id, room := range dir.rooms {
		require.NotEmpty(t, room.Users, "room %s exists with zero users", id)

		hosts := 0
		names := make(map[string]bool)
		for _, u := range room.Users {
			if u.IsHost {
				hosts++
			}
			require.False(t, names[u.Username], "room %s has duplicate name %q", id, u.Username)
			names[u.Username] = true
		}
		require.Equal(t, 1, hosts, "room %s has %d hosts", id, hosts)
	}

	for conn, roomID := range dir.byConn {
		room, ok := dir.rooms[roomID]
		require.True(t, ok, "reverse index points conn %s at missing room %s", conn, roomID)
		_, u := room.UserByConn(conn)
		require.NotNil(t, u, "reverse index points conn %s at room %s that lacks it", conn, roomID)
	}

	for id, room := range dir.rooms {
		for _, u := range room.Users {
			require.Equal(t, id, dir.byConn[u.ConnID],
				"member %s of room %s is missing from the reverse index", u.Username, id)
		}
	}
}

func newTestMembership() (*Membership, *Directory) {
	dir := NewDirectory()
	return NewMembership(dir), dir
}

func TestCreateRoom(t *testing.T) {
	m, dir := newTestMembership()

	view := m.CreateRoom("Alice", "conn-1")

	require.Len(t, view.Users, 1)
	assert.Equal(t, "Alice", view.Users[0].Username)
	assert.True(t, view.Users[0].IsHost)
	assert.Equal(t, domain.StatusWaiting, view.Game.Status)
	assert.Equal(t, domain.DefaultTurnSeconds, view.Game.TimeLeft)
	assert.Equal(t, 1, dir.RoomCount())
	checkInvariants(t, dir)
}

func TestJoinRoom(t *testing.T) {
	m, dir := newTestMembership()
	created := m.CreateRoom("Alice", "conn-1")

	view, user, err := m.JoinRoom(created.ID, "Bob", "conn-2")
	require.NoError(t, err)

	assert.Equal(t, "Bob", user.Username)
	assert.False(t, user.IsHost)
	require.Len(t, view.Users, 2)
	assert.Equal(t, "Alice", view.Users[0].Username, "join order must be preserved")
	assert.Equal(t, "Bob", view.Users[1].Username)
	checkInvariants(t, dir)
}

func TestJoinUnknownRoomIsPure(t *testing.T) {
	m, dir := newTestMembership()
	m.CreateRoom("Alice", "conn-1")

	_, _, err := m.JoinRoom("no-such-room", "Bob", "conn-2")
	require.ErrorIs(t, err, ErrRoomNotFound)

	assert.Equal(t, 1, dir.RoomCount())
	_, ok := m.RoomOf("conn-2")
	assert.False(t, ok, "failed join must not touch the reverse index")
	checkInvariants(t, dir)
}

func TestJoinDuplicateNameIsPure(t *testing.T) {
	m, dir := newTestMembership()
	created := m.CreateRoom("Alice", "conn-1")

	_, _, err := m.JoinRoom(created.ID, "Alice", "conn-2")
	require.ErrorIs(t, err, ErrNameTaken)

	view, ok := m.RoomOf("conn-1")
	require.True(t, ok)
	assert.Len(t, view.Users, 1, "member list must be unchanged after conflict")
	_, ok = m.RoomOf("conn-2")
	assert.False(t, ok)
	checkInvariants(t, dir)
}

func TestDuplicateNameIsCaseSensitive(t *testing.T) {
	m, dir := newTestMembership()
	created := m.CreateRoom("Alice", "conn-1")

	_, _, err := m.JoinRoom(created.ID, "alice", "conn-2")
	require.NoError(t, err, "names differing in case are distinct")
	checkInvariants(t, dir)
}

func TestLeavePromotesEarliestRemainingJoiner(t *testing.T) {
	m, dir := newTestMembership()
	created := m.CreateRoom("Alice", "conn-1")
	_, _, err := m.JoinRoom(created.ID, "Bob", "conn-2")
	require.NoError(t, err)
	_, _, err = m.JoinRoom(created.ID, "Cara", "conn-3")
	require.NoError(t, err)

	res, ok := m.Leave("conn-1")
	require.True(t, ok)
	assert.False(t, res.RoomDeleted())
	require.Len(t, res.Remaining, 2)
	assert.Equal(t, "Bob", res.Remaining[0].Username)
	assert.True(t, res.Remaining[0].IsHost, "earliest remaining joiner inherits host")
	assert.False(t, res.Remaining[1].IsHost)
	checkInvariants(t, dir)
}

func TestNonHostLeaveKeepsHost(t *testing.T) {
	m, dir := newTestMembership()
	created := m.CreateRoom("Alice", "conn-1")
	_, _, err := m.JoinRoom(created.ID, "Bob", "conn-2")
	require.NoError(t, err)

	res, ok := m.Leave("conn-2")
	require.True(t, ok)
	require.Len(t, res.Remaining, 1)
	assert.Equal(t, "Alice", res.Remaining[0].Username)
	assert.True(t, res.Remaining[0].IsHost)
	checkInvariants(t, dir)
}

func TestLastLeaveDeletesRoom(t *testing.T) {
	m, dir := newTestMembership()
	created := m.CreateRoom("Alice", "conn-1")

	res, ok := m.Leave("conn-1")
	require.True(t, ok)
	assert.True(t, res.RoomDeleted())
	assert.Empty(t, res.Remaining)
	assert.Equal(t, 0, dir.RoomCount())

	// The id is gone for good; a later join must not resurrect it.
	_, _, err := m.JoinRoom(created.ID, "Bob", "conn-2")
	require.ErrorIs(t, err, ErrRoomNotFound)
	checkInvariants(t, dir)
}

func TestLeaveUnknownConnIsNoop(t *testing.T) {
	m, dir := newTestMembership()
	m.CreateRoom("Alice", "conn-1")

	_, ok := m.Leave("never-joined")
	assert.False(t, ok)

	// Idempotent under duplicate invocation: an explicit leave
	// followed by the disconnect for the same connection.
	_, ok = m.Leave("conn-1")
	require.True(t, ok)
	_, ok = m.Leave("conn-1")
	assert.False(t, ok)
	checkInvariants(t, dir)
}

func TestSnapshotsDoNotAliasLiveState(t *testing.T) {
	m, _ := newTestMembership()
	created := m.CreateRoom("Alice", "conn-1")

	created.Users[0].Username = "Mallory"

	view, ok := m.RoomOf("conn-1")
	require.True(t, ok)
	assert.Equal(t, "Alice", view.Users[0].Username)
}

// TestLobbyLifecycleScenario walks the canonical session: Alice
// creates, Bob joins, Alice leaves (Bob promoted), Bob leaves (room
// deleted).
func TestLobbyLifecycleScenario(t *testing.T) {
	m, dir := newTestMembership()

	created := m.CreateRoom("Alice", "conn-a")
	require.Len(t, created.Users, 1)
	require.True(t, created.Users[0].IsHost)

	joined, bob, err := m.JoinRoom(created.ID, "Bob", "conn-b")
	require.NoError(t, err)
	require.Len(t, joined.Users, 2)
	assert.False(t, bob.IsHost)

	res, ok := m.Leave("conn-a")
	require.True(t, ok)
	require.Len(t, res.Remaining, 1)
	assert.Equal(t, "Bob", res.Remaining[0].Username)
	assert.True(t, res.Remaining[0].IsHost)

	res, ok = m.Leave("conn-b")
	require.True(t, ok)
	assert.True(t, res.RoomDeleted())
	assert.Equal(t, 0, dir.RoomCount())
	checkInvariants(t, dir)
}

// TestRandomInterleavings drives a deterministic random mix of
// create/join/leave across simulated connections and checks the
// invariants after every single operation.
func TestRandomInterleavings(t *testing.T) {
	m, dir := newTestMembership()
	rng := rand.New(rand.NewSource(42))

	const conns = 16
	inRoom := make(map[domain.ConnID]bool)

	pickConn := func() domain.ConnID {
		return domain.ConnID(fmt.Sprintf("conn-%d", rng.Intn(conns)))
	}
	pickRoom := func() (domain.RoomID, bool) {
		rooms := dir.List()
		if len(rooms) == 0 {
			return "", false
		}
		return rooms[rng.Intn(len(rooms))].ID, true
	}

	for i := 0; i < 2000; i++ {
		conn := pickConn()
		name := fmt.Sprintf("user-%s-%d", conn, i)

		switch rng.Intn(3) {
		case 0:
			if !inRoom[conn] {
				m.CreateRoom(name, conn)
				inRoom[conn] = true
			}
		case 1:
			if roomID, ok := pickRoom(); ok && !inRoom[conn] {
				if _, _, err := m.JoinRoom(roomID, name, conn); err == nil {
					inRoom[conn] = true
				}
			}
		case 2:
			m.Leave(conn)
			inRoom[conn] = false
		}

		checkInvariants(t, dir)
	}
}

// TestConcurrentJoinLeave hammers one room from many goroutines.
// Run with -race; membership must serialize every mutation.
func TestConcurrentJoinLeave(t *testing.T) {
	m, dir := newTestMembership()
	created := m.CreateRoom("host", "conn-host")

	const workers = 24
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := domain.ConnID(fmt.Sprintf("conn-%d", i))
			name := fmt.Sprintf("user-%d", i)
			if _, _, err := m.JoinRoom(created.ID, name, conn); err != nil {
				return
			}
			if i%2 == 0 {
				m.Leave(conn)
			}
		}(i)
	}
	wg.Wait()

	checkInvariants(t, dir)

	view, ok := m.RoomOf("conn-host")
	require.True(t, ok)
	assert.Equal(t, 1+workers/2, len(view.Users))
}

// TestConcurrentDuplicateJoins sends the same display name from many
// connections at once; exactly one may win.
func TestConcurrentDuplicateJoins(t *testing.T) {
	m, dir := newTestMembership()
	created := m.CreateRoom("host", "conn-host")

	const attempts = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := domain.ConnID(fmt.Sprintf("conn-%d", i))
			if _, _, err := m.JoinRoom(created.ID, "Shadow", conn); err == nil {
				wins <- struct{}{}
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	assert.Equal(t, 1, len(wins), "exactly one duplicate join may commit")
	checkInvariants(t, dir)
}
