package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/mcoot/matchlobby/internal/dependencies/clock"
	"github.com/mcoot/matchlobby/internal/dependencies/random"
	"github.com/mcoot/matchlobby/internal/model"
)

// Errors
var (
	ErrBrokerStopped  = fmt.Errorf("broker stopped: %w", model.ErrUnavailable)
	ErrUnknownCommand = errors.New("unknown command")
	errCommandPanic   = errors.New("command panicked")
)

// JoinPolicy decides what happens when a join targets a match whose second
// slot is already taken
type JoinPolicy int

const (
	// JoinPolicyRejectFull fails the join with model.ErrMatchFull
	JoinPolicyRejectFull JoinPolicy = iota
	// JoinPolicyLastWriteWins replaces the current second player
	JoinPolicyLastWriteWins
)

// String returns the policy name used in config and logs
func (p JoinPolicy) String() string {
	switch p {
	case JoinPolicyRejectFull:
		return "reject_full"
	case JoinPolicyLastWriteWins:
		return "last_write_wins"
	default:
		return fmt.Sprintf("join_policy(%d)", int(p))
	}
}

// Config holds broker settings
type Config struct {
	// QueueSize bounds the command queue; producers block when it is full
	QueueSize  int
	JoinPolicy JoinPolicy
}

// DefaultConfig returns the default broker configuration
func DefaultConfig() Config {
	return Config{
		QueueSize:  1024,
		JoinPolicy: JoinPolicyRejectFull,
	}
}

// PairingRecorder receives the pairing produced by each successful join.
// Record is called from the broker loop and must not block.
type PairingRecorder interface {
	Record(p model.Pairing)
}

// Broker is the single owner of the identity and match registries. Every
// command is executed to completion by one consumer goroutine before the next
// one starts, so the registries need no locks.
type Broker struct {
	cfg        Config
	identities *IdentityRegistry
	matches    *MatchRegistry
	recorder   PairingRecorder
	clock      clock.Clock
	random     random.Random
	logger     *slog.Logger

	queue   chan envelope
	done    chan struct{}
	exited  chan struct{}
	started atomic.Bool

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a Broker. recorder may be nil.
func New(
	cfg Config,
	clock clock.Clock,
	random random.Random,
	recorder PairingRecorder,
	logger *slog.Logger,
) *Broker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Broker{
		cfg:        cfg,
		identities: NewIdentityRegistry(),
		matches:    NewMatchRegistry(),
		recorder:   recorder,
		clock:      clock,
		random:     random,
		logger:     logger.With(slog.String("component", "broker")),
		queue:      make(chan envelope, cfg.QueueSize),
		done:       make(chan struct{}),
		exited:     make(chan struct{}),
	}
}

// Start launches the command loop. Calling Start more than once is a no-op.
func (b *Broker) Start() {
	b.startOnce.Do(func() {
		b.started.Store(true)
		go b.run()
	})
}

// Stop terminates the command loop and waits for it to exit. Queued commands
// that have not started are abandoned and their askers get ErrBrokerStopped.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		if b.started.Load() {
			<-b.exited
		}
	})
}

func (b *Broker) run() {
	defer close(b.exited)
	b.logger.Info("broker started",
		slog.Int("queue_size", b.cfg.QueueSize),
		slog.String("join_policy", b.cfg.JoinPolicy.String()))

	for {
		select {
		case env := <-b.queue:
			b.dispatch(env)
		case <-b.done:
			b.logger.Info("broker stopped",
				slog.Int("identities", b.identities.Len()),
				slog.Int("matches", b.matches.Len()),
				slog.Int("abandoned_commands", len(b.queue)))
			return
		}
	}
}

func (b *Broker) dispatch(env envelope) {
	value, err := b.safeExecute(env.cmd)
	if env.reply != nil {
		env.reply <- result{value: value, err: err}
		return
	}
	if err != nil {
		b.logger.Debug("notify command failed",
			slog.String("command", nameOf(env.cmd)),
			slog.String("error", err.Error()))
	}
}

// safeExecute keeps a faulty command from taking down the loop
func (b *Broker) safeExecute(cmd Command) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic recovered in broker",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())))
			value, err = nil, errCommandPanic
		}
	}()
	return b.execute(cmd)
}

func (b *Broker) execute(cmd Command) (any, error) {
	switch c := cmd.(type) {
	case Connect:
		return b.connect(c), nil
	case Disconnect:
		b.disconnect(c)
		return nil, nil
	case CreateMatch:
		return b.createMatch(c)
	case JoinMatch:
		return b.joinMatch(c)
	case ListMatches:
		return b.listMatches(), nil
	case Stats:
		return b.stats(), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

// Command bus

func (b *Broker) enqueue(ctx context.Context, env envelope) error {
	select {
	case <-b.done:
		return ErrBrokerStopped
	default:
	}

	select {
	case b.queue <- env:
		return nil
	case <-b.done:
		return ErrBrokerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notify enqueues cmd without waiting for it to run. The only errors are
// failures to enqueue.
func (b *Broker) Notify(ctx context.Context, cmd Command) error {
	return b.enqueue(ctx, envelope{cmd: cmd})
}

// Ask enqueues cmd and waits for its result. Only the calling goroutine is
// suspended; the broker keeps serving other callers.
func (b *Broker) Ask(ctx context.Context, cmd Command) (any, error) {
	reply := make(chan result, 1)
	if err := b.enqueue(ctx, envelope{cmd: cmd, reply: reply}); err != nil {
		return nil, err
	}

	select {
	case res := <-reply:
		return res.value, res.err
	case <-b.done:
		return nil, ErrBrokerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Typed helpers

// Connect registers an identity and returns the confirmed {id, name}
func (b *Broker) Connect(ctx context.Context, id model.IdentityID, name string, outbound model.Outbound) (model.ClientIdentity, error) {
	v, err := b.Ask(ctx, Connect{ID: id, Name: name, Outbound: outbound})
	if err != nil {
		return model.ClientIdentity{}, err
	}
	return v.(model.ClientIdentity), nil
}

// Disconnect removes an identity in notify mode
func (b *Broker) Disconnect(ctx context.Context, id model.IdentityID) error {
	return b.Notify(ctx, Disconnect{ID: id})
}

// CreateMatch opens a match for userID and returns its id
func (b *Broker) CreateMatch(ctx context.Context, userID model.IdentityID) (model.MatchID, error) {
	v, err := b.Ask(ctx, CreateMatch{UserID: userID})
	if err != nil {
		return "", err
	}
	return v.(model.MatchID), nil
}

// JoinMatch places userID in matchID and returns the resulting match view
func (b *Broker) JoinMatch(ctx context.Context, matchID model.MatchID, userID model.IdentityID) (model.ClientMatch, error) {
	v, err := b.Ask(ctx, JoinMatch{MatchID: matchID, UserID: userID})
	if err != nil {
		return model.ClientMatch{}, err
	}
	return v.(model.ClientMatch), nil
}

// ListMatches returns the currently available matches in creation order
func (b *Broker) ListMatches(ctx context.Context) ([]model.ClientMatch, error) {
	v, err := b.Ask(ctx, ListMatches{})
	if err != nil {
		return nil, err
	}
	return v.([]model.ClientMatch), nil
}

// Stats returns registry counters
func (b *Broker) Stats(ctx context.Context) (Snapshot, error) {
	v, err := b.Ask(ctx, Stats{})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// Command handlers. These run only on the broker loop.

func (b *Broker) connect(c Connect) model.ClientIdentity {
	identity := model.Identity{
		ID:          c.ID,
		DisplayName: c.Name,
		Outbound:    c.Outbound,
		ConnectedAt: b.clock.Now(),
	}
	b.identities.Put(identity)

	b.logger.Info("identity connected",
		slog.String("identity_id", string(c.ID)),
		slog.String("name", c.Name),
		slog.Int("identities", b.identities.Len()))

	return identity.ToClient()
}

func (b *Broker) disconnect(c Disconnect) {
	identity, ok := b.identities.Remove(c.ID)
	if !ok {
		b.logger.Warn("disconnect for unknown identity",
			slog.String("identity_id", string(c.ID)))
		return
	}

	// Drop every match that no longer has a connected participant
	removed := b.matches.RemoveWhere(func(m *model.Match) bool {
		for _, p := range m.Participants() {
			if b.identities.Has(p) {
				return false
			}
		}
		return true
	})

	b.logger.Info("identity disconnected",
		slog.String("identity_id", string(c.ID)),
		slog.String("name", identity.DisplayName),
		slog.Duration("connection_duration", b.clock.Since(identity.ConnectedAt)),
		slog.Int("pruned_matches", len(removed)))
}

func (b *Broker) createMatch(c CreateMatch) (model.MatchID, error) {
	if !b.identities.Has(c.UserID) {
		return "", model.ErrNoSuchUser
	}

	var id model.MatchID
	for {
		id = model.MatchID(b.random.UUID())
		if !b.matches.Has(id) {
			break
		}
	}

	b.matches.Insert(id, c.UserID, b.clock.Now())

	b.logger.Info("match created",
		slog.String("match_id", string(id)),
		slog.String("identity_id", string(c.UserID)))

	return id, nil
}

func (b *Broker) joinMatch(c JoinMatch) (model.ClientMatch, error) {
	m, ok := b.matches.Get(c.MatchID)
	if !ok {
		return model.ClientMatch{}, model.ErrNoSuchMatch
	}

	joiner, ok := b.identities.Get(c.UserID)
	if !ok {
		return model.ClientMatch{}, model.ErrNoSuchUser
	}

	if m.Player1 == c.UserID {
		return model.ClientMatch{}, model.ErrOwnMatch
	}

	if !m.IsOpen() {
		if *m.Player2 == c.UserID {
			// Repeat join by the current second player changes nothing
			return b.view(m), nil
		}
		if b.cfg.JoinPolicy != JoinPolicyLastWriteWins {
			return model.ClientMatch{}, model.ErrMatchFull
		}
		b.logger.Info("match second player replaced",
			slog.String("match_id", string(m.ID)),
			slog.String("previous_identity_id", string(*m.Player2)))
	}

	now := b.clock.Now()
	player2 := c.UserID
	m.Player2 = &player2
	m.UpdatedAt = now

	creator, creatorConnected := b.identities.Get(m.Player1)
	if creatorConnected && creator.Outbound != nil {
		delivered := creator.Outbound.Deliver(model.Notification{
			Type:      model.NotificationMatchJoined,
			Timestamp: now,
			MatchID:   m.ID,
			Payload:   model.MatchJoinedPayload{Opponent: joiner.ToClient()},
		})
		if !delivered {
			b.logger.Warn("match joined notification dropped",
				slog.String("match_id", string(m.ID)),
				slog.String("identity_id", string(m.Player1)))
		}
	}

	if b.recorder != nil {
		b.recorder.Record(model.Pairing{
			MatchID:   m.ID,
			Player1:   model.ClientIdentity{ID: m.Player1, Name: creator.DisplayName},
			Player2:   joiner.ToClient(),
			CreatedAt: m.CreatedAt,
			PairedAt:  now,
		})
	}

	b.logger.Info("match joined",
		slog.String("match_id", string(m.ID)),
		slog.String("identity_id", string(c.UserID)))

	return b.view(m), nil
}

func (b *Broker) listMatches() []model.ClientMatch {
	views := []model.ClientMatch{}
	for _, m := range b.matches.Ordered() {
		if !m.IsOpen() || !b.identities.Has(m.Player1) {
			continue
		}
		views = append(views, b.view(m))
	}
	return views
}

func (b *Broker) stats() Snapshot {
	open := 0
	for _, m := range b.matches.Ordered() {
		if m.IsOpen() {
			open++
		}
	}
	return Snapshot{
		Identities:  b.identities.Len(),
		Matches:     b.matches.Len(),
		OpenMatches: open,
		QueueDepth:  len(b.queue),
	}
}

// view projects a match, resolving display names from the identity registry.
// A disconnected participant resolves to an empty name.
func (b *Broker) view(m *model.Match) model.ClientMatch {
	v := model.ClientMatch{ID: m.ID}
	if p1, ok := b.identities.Get(m.Player1); ok {
		v.Player1 = p1.DisplayName
	}
	if m.Player2 != nil {
		name := ""
		if p2, ok := b.identities.Get(*m.Player2); ok {
			name = p2.DisplayName
		}
		v.Player2 = &name
	}
	return v
}
