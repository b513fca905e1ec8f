package orchestrator

import (
	"errors"
	"time"
)

var (
	// ErrCapacityExceeded rejects provisioning beyond the configured pool size.
	ErrCapacityExceeded = errors.New("orchestrator: identity capacity exceeded")
	// ErrIdentityNotFound marks lookups for unknown session ids.
	ErrIdentityNotFound = errors.New("orchestrator: identity not found")
	// ErrQRUnavailable means no QR payload is currently retrievable for the
	// identity, either because none was emitted or the window expired.
	ErrQRUnavailable = errors.New("orchestrator: qr unavailable")
)

// PairingState tracks one identity's lifecycle position.
type PairingState string

const (
	PairingUnpaired     PairingState = "unpaired"
	PairingAwaitingScan PairingState = "awaiting_scan"
	PairingConnected    PairingState = "connected"
	PairingDisconnected PairingState = "disconnected"
)

// Identity is the durable record of one registered messaging identity. The QR
// payload itself is ephemeral runtime state and never serialized here.
type Identity struct {
	SessionID    string       `json:"sessionId"`
	OwnerUserID  string       `json:"ownerUserId"`
	DisplayName  string       `json:"displayName"`
	WorkingDir   string       `json:"workingDir"`
	PairingState PairingState `json:"pairingState"`
	CreatedAt    time.Time    `json:"createdAt"`
	LastActiveAt time.Time    `json:"lastActiveAt"`
}
