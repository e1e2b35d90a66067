package core

// Frame is a raw outbound payload.
type Frame []byte

// Sender abstracts one client's messaging transport.
// Owned by the adapter; the adapter must Close() it.
type Sender interface {
	TrySend(Frame) error
	Close()
}
