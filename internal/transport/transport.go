// Package transport defines the external messaging contract: the minimum
// shape of the pairing/send/receive collaborator the core depends on.
// Concrete implementations live in subpackages.
package transport

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps any pairing or send failure of the external transport.
var ErrUnavailable = errors.New("transport: unavailable")

// State is the connection state reported by the transport.
type State string

const (
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateLoggedOut    State = "logged_out"
)

// Message is one inbound message delivered by the transport.
type Message struct {
	// From is the platform identifier of the sender (chat scope).
	From string
	Body string
	// FromMe marks messages sent by the paired identity itself.
	FromMe bool
	// PushName is the sender's self-reported display name.
	PushName  string
	Timestamp time.Time
}

// Callbacks are installed at dial time. All callbacks are invoked from the
// transport's own delivery goroutines; within one client they are serialized.
type Callbacks struct {
	// OnQRCode fires for every pairing QR payload emission.
	OnQRCode func(code string)
	// OnMessage fires for every inbound message once connected.
	OnMessage func(msg Message)
	// OnStateChange fires on connect/disconnect/logout transitions.
	OnStateChange func(state State)
}

// Options configures one dial attempt.
type Options struct {
	// WorkingDir is the identity-isolated directory holding device state.
	WorkingDir string
	// DisplayName is advertised as the device name during pairing.
	DisplayName string
	// ReducedCompatibility selects the fallback transport profile used for
	// the single pairing retry after a failed first attempt.
	ReducedCompatibility bool
}

// Client is an active paired messaging identity.
type Client interface {
	// SendText delivers a plain text message. Best-effort, at-most-once.
	SendText(ctx context.Context, target, text string) error
	// SendImage delivers an image read from a local source path with an
	// optional caption.
	SendImage(ctx context.Context, target, source, filename, caption string) error
	// IsLoggedIn reports whether the identity holds valid pairing state.
	IsLoggedIn() bool
	// IsSavedContact reports whether the given user exists in the paired
	// account's contact store.
	IsSavedContact(ctx context.Context, userID string) (bool, error)
	// Disconnect closes the underlying connection. Best-effort.
	Disconnect()
}

// Dialer establishes transport sessions bound to isolated working
// directories.
type Dialer interface {
	Dial(ctx context.Context, identityID string, opts Options, cb Callbacks) (Client, error)
}
