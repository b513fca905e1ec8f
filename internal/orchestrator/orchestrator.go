// Package orchestrator runs the bounded pool of independent messaging
// identities. Each identity owns an isolated working directory holding its
// own dialog sessions, tickets, and transport device state; identities share
// only the replies configuration.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/ebdaasoft/whatsdesk/internal/config"
	"github.com/ebdaasoft/whatsdesk/internal/dialog"
	"github.com/ebdaasoft/whatsdesk/internal/filter"
	"github.com/ebdaasoft/whatsdesk/internal/replies"
	"github.com/ebdaasoft/whatsdesk/internal/router"
	"github.com/ebdaasoft/whatsdesk/internal/store"
	"github.com/ebdaasoft/whatsdesk/internal/ticket"
	"github.com/ebdaasoft/whatsdesk/internal/transport"
)

// runtime is the live half of one identity: the transport client plus the
// identity-scoped conversation machinery.
type runtime struct {
	identity Identity
	client   transport.Client
	router   *router.Router
	filter   *filter.Filter
	sessions *dialog.Store
	tickets  *ticket.Store

	qr          string
	qrExpiresAt time.Time
}

// Orchestrator provisions, pairs, and retires identities, enforcing the pool
// capacity bound before any side effect.
type Orchestrator struct {
	logger *slog.Logger
	cfg    config.PoolConfig
	root   string
	dialer transport.Dialer
	config *replies.Service

	mu         sync.Mutex
	identities map[string]*runtime
	doc        *store.Document[[]Identity]

	cron *cron.Cron
}

// New creates an Orchestrator and loads the persisted identity roster. Live
// connections are not re-established here; call StartAll for that.
func New(log *slog.Logger, cfg config.Config, dialer transport.Dialer, cfgSvc *replies.Service) (*Orchestrator, error) {
	if log == nil {
		log = slog.Default()
	}
	o := &Orchestrator{
		logger:     log.With(slog.String("component", "orchestrator")),
		cfg:        cfg.Pool,
		root:       cfg.Data.Root,
		dialer:     dialer,
		config:     cfgSvc,
		identities: make(map[string]*runtime),
		doc:        store.NewDocument[[]Identity](filepath.Join(cfg.Data.Root, "identities.json")),
		cron:       cron.New(),
	}
	saved, err := o.doc.Load()
	if err != nil {
		if !store.IsNotExist(err) {
			return nil, err
		}
		saved = nil
	}
	for _, id := range saved {
		// Persisted state can only claim a live connection from a previous
		// process; demote it until Pair proves otherwise.
		if id.PairingState == PairingConnected || id.PairingState == PairingAwaitingScan {
			id.PairingState = PairingDisconnected
		}
		o.identities[id.SessionID] = o.newRuntime(id)
	}
	return o, nil
}

func (o *Orchestrator) newRuntime(id Identity) *runtime {
	log := o.logger.With(slog.String("identity", id.SessionID))
	rt := &runtime{identity: id}
	rt.sessions = dialog.NewStore(log, id.WorkingDir,
		time.Duration(o.cfg.SessionTimeoutMinutes)*time.Minute)
	rt.tickets = ticket.NewStore(log, filepath.Join(id.WorkingDir, "tickets.json"))
	rt.filter = filter.New(log, o.config.FilterConfig, contactProbe{rt})
	rt.router = router.New(log, o.config, rt.sessions, rt.tickets, nil)
	return rt
}

// contactProbe defers the saved-contact lookup to whatever client the runtime
// holds at call time, so the filter survives re-pairing.
type contactProbe struct{ rt *runtime }

func (p contactProbe) IsSavedContact(ctx context.Context, userID string) (bool, error) {
	if p.rt.client == nil {
		return false, transport.ErrUnavailable
	}
	return p.rt.client.IsSavedContact(ctx, userID)
}

// Provision registers a new identity. The capacity check happens before any
// directory or record is created, so a rejected call leaves no trace.
func (o *Orchestrator) Provision(ownerUserID, displayName string) (Identity, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.identities) >= o.cfg.MaxIdentities {
		return Identity{}, ErrCapacityExceeded
	}
	now := time.Now().UTC()
	id := Identity{
		SessionID:    uuid.NewString(),
		OwnerUserID:  ownerUserID,
		DisplayName:  displayName,
		PairingState: PairingUnpaired,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	id.WorkingDir = filepath.Join(o.root, "identities", id.SessionID)
	if err := os.MkdirAll(id.WorkingDir, 0o755); err != nil {
		return Identity{}, err
	}
	o.identities[id.SessionID] = o.newRuntime(id)
	o.persistLocked()
	o.logger.Info("identity provisioned",
		slog.String("session_id", id.SessionID),
		slog.String("owner", ownerUserID),
		slog.Int("pool_size", len(o.identities)))
	return id, nil
}

// Pair connects the identity to the platform. An unpaired identity emits QR
// payloads retrievable through QR until the scan succeeds. On a failed first
// attempt exactly one retry runs with the reduced-compatibility profile;
// after that the transport error is terminal for this call.
func (o *Orchestrator) Pair(ctx context.Context, sessionID string) error {
	o.mu.Lock()
	rt, ok := o.identities[sessionID]
	o.mu.Unlock()
	if !ok {
		return ErrIdentityNotFound
	}

	cb := transport.Callbacks{
		OnQRCode:      func(code string) { o.onQRCode(sessionID, code) },
		OnMessage:     func(msg transport.Message) { o.onMessage(sessionID, msg) },
		OnStateChange: func(state transport.State) { o.onStateChange(sessionID, state) },
	}
	opts := transport.Options{
		WorkingDir:  rt.identity.WorkingDir,
		DisplayName: rt.identity.DisplayName,
	}
	client, err := o.dialer.Dial(ctx, sessionID, opts, cb)
	if err != nil {
		o.logger.Warn("pairing attempt failed, retrying with reduced compatibility",
			slog.String("session_id", sessionID), slog.Any("error", err))
		opts.ReducedCompatibility = true
		client, err = o.dialer.Dial(ctx, sessionID, opts, cb)
		if err != nil {
			o.logger.Error("pairing failed",
				slog.String("session_id", sessionID), slog.Any("error", err))
			return err
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	rt, ok = o.identities[sessionID]
	if !ok {
		// Stopped while dialing.
		client.Disconnect()
		return ErrIdentityNotFound
	}
	rt.client = client
	rt.router.SetNotifier(ticket.NewNotifier(o.logger, client, o.notifyTargets))
	if client.IsLoggedIn() {
		rt.identity.PairingState = PairingConnected
	} else {
		rt.identity.PairingState = PairingAwaitingScan
	}
	rt.identity.LastActiveAt = time.Now().UTC()
	o.persistLocked()
	return nil
}

func (o *Orchestrator) notifyTargets() (string, []string) {
	settings := o.config.Settings()
	return settings.BroadcastTarget, settings.AdminNumbers
}

func (o *Orchestrator) onQRCode(sessionID, code string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rt, ok := o.identities[sessionID]
	if !ok {
		return
	}
	rt.qr = code
	rt.qrExpiresAt = time.Now().Add(time.Duration(o.cfg.QRWindowSeconds) * time.Second)
	rt.identity.PairingState = PairingAwaitingScan
	// Mirror to a file inside the working dir so a restart mid-pairing can
	// still surface the last payload to an operator.
	path := filepath.Join(rt.identity.WorkingDir, "qr.txt")
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		o.logger.Warn("qr mirror failed",
			slog.String("session_id", sessionID), slog.Any("error", err))
	}
	o.persistLocked()
}

func (o *Orchestrator) onStateChange(sessionID string, state transport.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rt, ok := o.identities[sessionID]
	if !ok {
		return
	}
	switch state {
	case transport.StateConnected:
		rt.identity.PairingState = PairingConnected
		rt.identity.LastActiveAt = time.Now().UTC()
		rt.qr = ""
		rt.qrExpiresAt = time.Time{}
		os.Remove(filepath.Join(rt.identity.WorkingDir, "qr.txt"))
	case transport.StateDisconnected:
		rt.identity.PairingState = PairingDisconnected
	case transport.StateLoggedOut:
		// The phone revoked the link; the device state is useless now.
		rt.identity.PairingState = PairingUnpaired
	}
	o.logger.Info("identity state changed",
		slog.String("session_id", sessionID),
		slog.String("state", string(rt.identity.PairingState)))
	o.persistLocked()
}

func (o *Orchestrator) onMessage(sessionID string, msg transport.Message) {
	if msg.FromMe {
		return
	}
	o.mu.Lock()
	rt, ok := o.identities[sessionID]
	var client transport.Client
	if ok {
		client = rt.client
		rt.identity.LastActiveAt = time.Now().UTC()
	}
	o.mu.Unlock()
	if !ok || client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	decision := rt.filter.Evaluate(ctx, msg.From, msg.Body)
	if !decision.Accept {
		o.logger.Debug("message filtered",
			slog.String("session_id", sessionID),
			slog.String("rule", decision.Rule))
		return
	}
	if !o.config.Settings().AutoReply {
		return
	}

	reply := rt.router.Handle(ctx, msg.From, msg.PushName, msg.Body)
	if reply.Text != "" {
		if err := client.SendText(ctx, msg.From, reply.Text); err != nil {
			o.logger.Warn("reply send failed",
				slog.String("session_id", sessionID), slog.Any("error", err))
		}
	}
	if reply.ImagePath != "" {
		if err := client.SendImage(ctx, msg.From, reply.ImagePath, filepath.Base(reply.ImagePath), reply.ImageCaption); err != nil {
			o.logger.Warn("image send failed",
				slog.String("session_id", sessionID),
				slog.String("path", reply.ImagePath), slog.Any("error", err))
		}
	}
}

// QR returns the identity's current pairing payload. Payloads expire after
// the configured window even if the transport has not rotated them yet.
func (o *Orchestrator) QR(sessionID string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rt, ok := o.identities[sessionID]
	if !ok {
		return "", ErrIdentityNotFound
	}
	if rt.qr == "" || time.Now().After(rt.qrExpiresAt) {
		return "", ErrQRUnavailable
	}
	return rt.qr, nil
}

// Get returns the durable record for one identity.
func (o *Orchestrator) Get(sessionID string) (Identity, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rt, ok := o.identities[sessionID]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return rt.identity, nil
}

// Export snapshots every registered identity, ordered by creation time.
func (o *Orchestrator) Export() []Identity {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.exportLocked()
}

func (o *Orchestrator) exportLocked() []Identity {
	out := make([]Identity, 0, len(o.identities))
	for _, rt := range o.identities {
		out = append(out, rt.identity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// FilterStats reports the inbound-filter counters for one identity.
func (o *Orchestrator) FilterStats(sessionID string) (filter.Stats, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	rt, ok := o.identities[sessionID]
	if !ok {
		return filter.Stats{}, ErrIdentityNotFound
	}
	return rt.filter.Snapshot(), nil
}

// ticketStores snapshots every identity's ticket store, ordered like Export.
func (o *Orchestrator) ticketStores() []*ticket.Store {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := o.exportLocked()
	stores := make([]*ticket.Store, 0, len(ids))
	for _, id := range ids {
		stores = append(stores, o.identities[id.SessionID].tickets)
	}
	return stores
}

// ListTickets aggregates tickets across every identity, optionally filtered
// by status, ordered by creation time.
func (o *Orchestrator) ListTickets(status ticket.Status) []ticket.Ticket {
	out := []ticket.Ticket{}
	for _, s := range o.ticketStores() {
		out = append(out, s.List(status)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// GetTicket finds a ticket by exact id across every identity.
func (o *Orchestrator) GetTicket(id string) (ticket.Ticket, error) {
	for _, s := range o.ticketStores() {
		t, err := s.Get(id)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ticket.ErrNotFound) {
			return ticket.Ticket{}, err
		}
	}
	return ticket.Ticket{}, ticket.ErrNotFound
}

// UpdateTicketStatus transitions a ticket's lifecycle state wherever it
// lives. Ticket ids are globally unique, so at most one store matches.
func (o *Orchestrator) UpdateTicketStatus(id string, status ticket.Status) (ticket.Ticket, error) {
	if !ticket.ValidStatus(status) {
		return ticket.Ticket{}, ticket.ErrValidation
	}
	for _, s := range o.ticketStores() {
		t, err := s.UpdateStatus(id, status)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ticket.ErrNotFound) {
			return ticket.Ticket{}, err
		}
	}
	return ticket.Ticket{}, ticket.ErrNotFound
}

// AppendTicketMessage appends one thread entry to a ticket wherever it lives.
func (o *Orchestrator) AppendTicketMessage(id, text string, fromUser bool) (ticket.Ticket, error) {
	for _, s := range o.ticketStores() {
		t, err := s.AppendMessage(id, text, fromUser)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ticket.ErrNotFound) {
			return ticket.Ticket{}, err
		}
	}
	return ticket.Ticket{}, ticket.ErrNotFound
}

// Stop disconnects the identity and removes it from the pool. Disconnection
// is best-effort; removal is unconditional, freeing the capacity slot even
// when the transport is wedged. The working directory stays on disk until
// the stale sweep reclaims it.
func (o *Orchestrator) Stop(sessionID string) error {
	o.mu.Lock()
	rt, ok := o.identities[sessionID]
	if !ok {
		o.mu.Unlock()
		return ErrIdentityNotFound
	}
	delete(o.identities, sessionID)
	o.persistLocked()
	o.mu.Unlock()

	if rt.client != nil {
		rt.client.Disconnect()
	}
	o.logger.Info("identity stopped", slog.String("session_id", sessionID))
	return nil
}

// StartAll re-pairs every persisted identity. Failures are logged per
// identity and do not block the rest of the pool.
func (o *Orchestrator) StartAll(ctx context.Context) {
	for _, id := range o.Export() {
		if err := o.Pair(ctx, id.SessionID); err != nil {
			o.logger.Error("identity restart failed",
				slog.String("session_id", id.SessionID), slog.Any("error", err))
		}
	}
}

// StopAll disconnects every identity without removing it from the roster.
// Used on process shutdown and by the bulk-stop admin operation.
func (o *Orchestrator) StopAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rt := range o.identities {
		if rt.client != nil {
			rt.client.Disconnect()
			rt.identity.PairingState = PairingDisconnected
		}
	}
	o.persistLocked()
}

// SweepSessions evicts idle dialog sessions across every identity and
// returns the total eviction count.
func (o *Orchestrator) SweepSessions() int {
	o.mu.Lock()
	stores := make([]*dialog.Store, 0, len(o.identities))
	for _, rt := range o.identities {
		stores = append(stores, rt.sessions)
	}
	o.mu.Unlock()
	total := 0
	for _, s := range stores {
		total += s.Sweep()
	}
	return total
}

// SweepStale reclaims working directories untouched longer than the
// configured threshold, regardless of pool membership: orphaned directories
// are deleted outright, and long-idle registered identities are retired
// first and then deleted.
func (o *Orchestrator) SweepStale() int {
	base := filepath.Join(o.root, "identities")
	entries, err := os.ReadDir(base)
	if err != nil {
		return 0
	}
	cutoff := time.Now().UTC().Add(-time.Duration(o.cfg.StaleIdentityDays) * 24 * time.Hour)

	o.mu.Lock()
	stale := make(map[string]bool, len(o.identities))
	for id, rt := range o.identities {
		stale[id] = rt.identity.LastActiveAt.Before(cutoff)
	}
	o.mu.Unlock()

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		isStale, registered := stale[name]
		if registered {
			if !isStale {
				continue
			}
			if err := o.Stop(name); err != nil {
				continue
			}
		} else {
			info, err := entry.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
		}
		path := filepath.Join(base, name)
		if err := os.RemoveAll(path); err != nil {
			o.logger.Warn("stale dir removal failed",
				slog.String("path", path), slog.Any("error", err))
			continue
		}
		removed++
	}
	if removed > 0 {
		o.logger.Info("stale identity dirs removed", slog.Int("count", removed))
	}
	return removed
}

// StartMaintenance schedules the periodic session eviction and stale-dir
// sweeps.
func (o *Orchestrator) StartMaintenance() error {
	if _, err := o.cron.AddFunc("@every 5m", func() {
		if n := o.SweepSessions(); n > 0 {
			o.logger.Info("idle dialog sessions evicted", slog.Int("count", n))
		}
	}); err != nil {
		return err
	}
	if _, err := o.cron.AddFunc("@every 12h", func() { o.SweepStale() }); err != nil {
		return err
	}
	o.cron.Start()
	return nil
}

// StopMaintenance halts the scheduled sweeps.
func (o *Orchestrator) StopMaintenance() {
	o.cron.Stop()
}

func (o *Orchestrator) persistLocked() {
	if err := o.doc.Save(o.exportLocked()); err != nil {
		o.logger.Error("identity roster save failed", slog.Any("error", err))
	}
}
