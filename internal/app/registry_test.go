package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drawroom/server/internal/core"
)

type fakeSender struct {
	frames []core.Frame
	closed bool
}

func (f *fakeSender) TrySend(b core.Frame) error { f.frames = append(f.frames, b); return nil }
func (f *fakeSender) Close()                     { f.closed = true }

func TestRegistryBindGetUnbind(t *testing.T) {
	r := NewRegistry()
	s := &fakeSender{}

	r.Bind("conn-1", s, nil)
	got, ok := r.Get("conn-1")
	require.True(t, ok)
	assert.Same(t, s, got.(*fakeSender))
	assert.Equal(t, 1, r.Count())

	r.Unbind("conn-1")
	_, ok = r.Get("conn-1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Count())
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	r.Bind("conn-1", &fakeSender{}, cancel)

	require.True(t, r.Cancel("conn-1"))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	assert.False(t, r.Cancel("conn-2"))
}

func TestRegistryCancelWithoutFunc(t *testing.T) {
	r := NewRegistry()
	r.Bind("conn-1", &fakeSender{}, nil)
	assert.True(t, r.Cancel("conn-1"), "bound entry without cancel func is still reported")
}
