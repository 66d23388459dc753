// Package arbitrator owns the authoritative modification counters. It decides
// which writes are accepted, remembers which session may fill each reserved
// counter, broadcasts accepted writes and brings new peers up to date.
package arbitrator

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/syncstore/internal/server/storage"
	"github.com/iudanet/syncstore/pkg/api"
)

// Config tunes the arbitrator.
type Config struct {
	// ReservationTTL bounds how long a reserved counter waits for its filler
	ReservationTTL time.Duration
	// CatchUpTimeout bounds each GetValueRequest sent during catch-up
	CatchUpTimeout time.Duration
	// CatchUpParallelism limits concurrent catch-up requests
	CatchUpParallelism int
}

// DefaultConfig returns the default arbitrator configuration.
func DefaultConfig() Config {
	return Config{
		ReservationTTL:     30 * time.Second,
		CatchUpTimeout:     5 * time.Second,
		CatchUpParallelism: 8,
	}
}

type valueKey struct {
	database string
	value    string
}

type slotKey struct {
	valueKey
	counter uint32
}

type reservation struct {
	at      time.Time
	session string
}

type lastValue struct {
	typ     string
	data    []byte
	counter uint32
}

type counterUpdate struct {
	valueKey
	next uint32
}

// Arbitrator serializes all counter decisions under one lock. Messages
// caused by a decision are queued on the sessions while the lock is held, so
// every session observes decisions in the order they were made.
type Arbitrator struct {
	store    storage.CounterStorage
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
	sessions map[string]Session
	counters map[string]map[string]uint32
	delayed  map[slotKey]reservation
	last     map[valueKey]lastValue
	hosts    map[string]string
	deleting map[string]string // база → сессия, запросившая удаление
	cfg      Config
	mu       sync.Mutex
}

// New creates an arbitrator. store may be nil for a purely in-memory arbitrator.
func New(store storage.CounterStorage, metrics *Metrics, cfg Config, logger *slog.Logger) *Arbitrator {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	defaults := DefaultConfig()
	if cfg.ReservationTTL <= 0 {
		cfg.ReservationTTL = defaults.ReservationTTL
	}
	if cfg.CatchUpTimeout <= 0 {
		cfg.CatchUpTimeout = defaults.CatchUpTimeout
	}
	if cfg.CatchUpParallelism <= 0 {
		cfg.CatchUpParallelism = defaults.CatchUpParallelism
	}
	return &Arbitrator{
		store:    store,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]Session),
		counters: make(map[string]map[string]uint32),
		delayed:  make(map[slotKey]reservation),
		last:     make(map[valueKey]lastValue),
		hosts:    make(map[string]string),
		deleting: make(map[string]string),
		cfg:      cfg,
	}
}

// Load restores counters and hosts from the store.
func (a *Arbitrator) Load(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	counters, err := a.store.LoadCounters(ctx)
	if err != nil {
		return err
	}
	hosts, err := a.store.LoadHosts(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for db, values := range counters {
		a.counters[db] = maps.Clone(values)
	}
	maps.Copy(a.hosts, hosts)
	a.logger.Info("arbitrator state loaded", "databases", len(counters), "hosts", len(hosts))
	return nil
}

// Join registers a session.
func (a *Arbitrator) Join(s Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[s.ID()] = s
	a.metrics.sessions.Set(float64(len(a.sessions)))
	a.logger.Info("session joined", "session_id", s.ID(), "peer_id", s.PeerID())
}

// Leave unregisters a session and releases every counter reserved for it.
func (a *Arbitrator) Leave(ctx context.Context, sessionID string) {
	a.mu.Lock()
	delete(a.sessions, sessionID)
	a.metrics.sessions.Set(float64(len(a.sessions)))

	var owned []slotKey
	for key, r := range a.delayed {
		if r.session == sessionID {
			owned = append(owned, key)
		}
	}
	deleted := a.gapFill(owned)
	a.mu.Unlock()

	a.logger.Info("session left", "session_id", sessionID, "released", len(owned))
	a.forget(ctx, deleted)
}

// Expire releases reservations older than the reservation TTL.
func (a *Arbitrator) Expire(ctx context.Context) int {
	a.mu.Lock()
	deadline := a.now().Add(-a.cfg.ReservationTTL)
	var expired []slotKey
	for key, r := range a.delayed {
		if r.at.Before(deadline) {
			expired = append(expired, key)
		}
	}
	deleted := a.gapFill(expired)
	a.mu.Unlock()

	if len(expired) > 0 {
		a.logger.Warn("reservations expired", "count", len(expired))
	}
	a.forget(ctx, deleted)
	return len(expired)
}

// Run expires reservations periodically until ctx is done.
func (a *Arbitrator) Run(ctx context.Context) {
	ticker := time.NewTicker(max(a.cfg.ReservationTTL/2, 10*time.Millisecond))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Expire(ctx)
		}
	}
}

// SessionCount returns the number of connected sessions.
func (a *Arbitrator) SessionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

// Counter returns the next counter the arbitrator hands out for a value.
func (a *Arbitrator) Counter(databaseID, valueID string) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next(databaseID, valueID)
}

// Handle processes one inbound message of s.
func (a *Arbitrator) Handle(ctx context.Context, s Session, msg api.Message, requestID uint16) {
	switch m := msg.(type) {
	case api.SetValueRequest:
		a.SetValue(ctx, s, m, requestID)
	case api.LockValueRequest:
		a.LockValue(ctx, s, m, requestID)
	case api.SetValueMessage:
		a.Fill(ctx, s, m)
	case api.DeleteDatabaseMessage:
		a.DeleteDatabase(ctx, s, m)
	case api.HostRequest:
		a.Host(ctx, s, m, requestID)
	default:
		a.logger.Warn("unexpected message", "session_id", s.ID(), "kind", msg.Kind())
	}
}

// SetValue decides an optimistic write. The write is accepted when it
// carries exactly the next counter; otherwise that counter is reserved for
// the session, which fills it later with a SetValueMessage.
func (a *Arbitrator) SetValue(ctx context.Context, s Session, req api.SetValueRequest, requestID uint16) {
	key := valueKey{database: req.DatabaseID, value: req.ValueID}

	a.mu.Lock()
	expected := a.take(key)
	if req.Counter == expected {
		a.remember(key, expected, req.Type, req.Value)
		a.broadcast(s.ID(), api.SetValueMessage{
			DatabaseID: req.DatabaseID,
			ValueID:    req.ValueID,
			Type:       req.Type,
			Value:      req.Value,
			Counter:    expected,
		})
		a.metrics.writesAccepted.Inc()
	} else {
		a.reserve(key, expected, s.ID())
		a.metrics.writesRejected.Inc()
		a.logger.Debug("write rejected", "session_id", s.ID(), "database_id", req.DatabaseID,
			"value_id", req.ValueID, "counter", req.Counter, "expected", expected)
	}
	a.reply(s, requestID, api.SetValueReply{ExpectedCounter: expected})
	a.mu.Unlock()

	a.persist(ctx, counterUpdate{valueKey: key, next: expected + 1})
}

// LockValue reserves the next counter for the session; the session fills
// it once its exclusive write has run.
func (a *Arbitrator) LockValue(ctx context.Context, s Session, req api.LockValueRequest, requestID uint16) {
	key := valueKey{database: req.DatabaseID, value: req.ValueID}

	a.mu.Lock()
	expected := a.take(key)
	a.reserve(key, expected, s.ID())
	a.reply(s, requestID, api.LockValueReply{ExpectedCounter: expected})
	a.mu.Unlock()

	a.logger.Debug("lock granted", "session_id", s.ID(), "database_id", req.DatabaseID,
		"value_id", req.ValueID, "counter", req.Counter, "expected", expected)
	a.persist(ctx, counterUpdate{valueKey: key, next: expected + 1})
}

// Fill broadcasts a replayed write if the counter it carries is reserved for
// the sending session. Stale or duplicate fillers are dropped.
func (a *Arbitrator) Fill(ctx context.Context, s Session, msg api.SetValueMessage) {
	key := slotKey{valueKey: valueKey{database: msg.DatabaseID, value: msg.ValueID}, counter: msg.Counter}

	a.mu.Lock()
	r, ok := a.delayed[key]
	if !ok || r.session != s.ID() {
		a.mu.Unlock()
		a.logger.Warn("dropping filler without reservation", "session_id", s.ID(),
			"database_id", msg.DatabaseID, "value_id", msg.ValueID, "counter", msg.Counter)
		return
	}
	delete(a.delayed, key)
	if !msg.Skip {
		a.remember(key.valueKey, msg.Counter, msg.Type, msg.Value)
	}
	a.broadcast(s.ID(), msg)
	a.metrics.fillers.Inc()
	deleted := a.finishDelete(msg.DatabaseID)
	a.mu.Unlock()

	a.forget(ctx, deleted)
}

// DeleteDatabase drops a database once no reserved counter of it is pending.
func (a *Arbitrator) DeleteDatabase(ctx context.Context, s Session, msg api.DeleteDatabaseMessage) {
	a.mu.Lock()
	a.deleting[msg.DatabaseID] = s.ID()
	deleted := a.finishDelete(msg.DatabaseID)
	a.mu.Unlock()

	if len(deleted) == 0 {
		a.logger.Info("database deletion deferred", "database_id", msg.DatabaseID)
	}
	a.forget(ctx, deleted)
}

// Host resolves the host peer of a database. The first peer to ask becomes
// host; a host whose peer is offline is replaced by the asker.
func (a *Arbitrator) Host(ctx context.Context, s Session, req api.HostRequest, requestID uint16) {
	a.mu.Lock()
	host := a.hosts[req.DatabaseID]
	elected := host == "" || !a.online(host)
	if elected {
		host = s.PeerID()
		a.hosts[req.DatabaseID] = host
	}
	a.reply(s, requestID, api.HostReply{
		DatabaseID: req.DatabaseID,
		HostPeerID: host,
		Counters:   maps.Clone(a.counters[req.DatabaseID]),
	})
	a.mu.Unlock()

	if !elected {
		return
	}
	a.logger.Info("host elected", "database_id", req.DatabaseID, "peer_id", host)
	if a.store != nil {
		if err := a.store.SaveHost(ctx, req.DatabaseID, host); err != nil {
			a.logger.Error("failed to save host", "database_id", req.DatabaseID, "error", err)
		}
	}
}

// CatchUp asks every other session for the values it is up to date with and
// forwards the newest answer per value to s. Values nobody vouched for are
// sent from the last accepted write when the arbitrator still knows it.
func (a *Arbitrator) CatchUp(ctx context.Context, s Session) int {
	a.mu.Lock()
	counters := make(map[string]map[string]uint32, len(a.counters))
	for db, values := range a.counters {
		counters[db] = maps.Clone(values)
	}
	var others []Session
	for id, other := range a.sessions {
		if id != s.ID() {
			others = append(others, other)
		}
	}
	a.mu.Unlock()

	sent := 0
	for _, db := range slices.Sorted(maps.Keys(counters)) {
		best := a.collect(ctx, db, counters[db], others)

		a.mu.Lock()
		for valueID, next := range counters[db] {
			if _, ok := best[valueID]; ok {
				continue
			}
			lv, ok := a.last[valueKey{database: db, value: valueID}]
			if ok && lv.counter+1 == next {
				best[valueID] = api.SetValueMessage{DatabaseID: db, ValueID: valueID, Type: lv.typ, Value: lv.data, Counter: lv.counter}
			}
		}
		a.mu.Unlock()

		for _, valueID := range slices.Sorted(maps.Keys(best)) {
			if err := s.Send(best[valueID]); err != nil {
				a.logger.Warn("failed to send catch-up value", "session_id", s.ID(), "error", err)
				return sent
			}
			sent++
		}
	}

	a.metrics.catchUpValues.Add(float64(sent))
	a.logger.Info("catch-up finished", "session_id", s.ID(), "values", sent)
	return sent
}

func (a *Arbitrator) collect(ctx context.Context, db string, counters map[string]uint32, peers []Session) map[string]api.SetValueMessage {
	best := make(map[string]api.SetValueMessage)
	if len(peers) == 0 || len(counters) == 0 {
		return best
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(a.cfg.CatchUpParallelism)
	req := api.GetValueRequest{DatabaseID: db, Counters: counters}

	for _, peer := range peers {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, a.cfg.CatchUpTimeout)
			defer cancel()

			reply, err := peer.Call(callCtx, req)
			if err != nil {
				// Молчащий пир не мешает остальным
				a.logger.Warn("catch-up request failed", "session_id", peer.ID(), "database_id", db, "error", err)
				return nil
			}
			values, ok := reply.(api.GetValueReply)
			if !ok {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, v := range values.Values {
				want, known := counters[v.ValueID]
				if v.DatabaseID != db || v.Skip || !known || v.Counter >= want {
					continue
				}
				if cur, ok := best[v.ValueID]; !ok || v.Counter > cur.Counter {
					best[v.ValueID] = v
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return best
}

// take hands out the next counter of a value; must be called with a.mu held
func (a *Arbitrator) take(key valueKey) uint32 {
	values := a.counters[key.database]
	if values == nil {
		values = make(map[string]uint32)
		a.counters[key.database] = values
	}
	expected := max(values[key.value], 1)
	values[key.value] = expected + 1
	return expected
}

// next must be called with a.mu held
func (a *Arbitrator) next(databaseID, valueID string) uint32 {
	return max(a.counters[databaseID][valueID], 1)
}

func (a *Arbitrator) reserve(key valueKey, counter uint32, sessionID string) {
	a.delayed[slotKey{valueKey: key, counter: counter}] = reservation{session: sessionID, at: a.now()}
}

func (a *Arbitrator) remember(key valueKey, counter uint32, typ string, data []byte) {
	if cur, ok := a.last[key]; ok && cur.counter > counter {
		return
	}
	a.last[key] = lastValue{typ: typ, data: data, counter: counter}
}

func (a *Arbitrator) online(peerID string) bool {
	for _, s := range a.sessions {
		if s.PeerID() == peerID {
			return true
		}
	}
	return false
}

func (a *Arbitrator) reply(s Session, requestID uint16, msg api.Message) {
	if err := s.Reply(requestID, msg); err != nil {
		a.logger.Warn("failed to reply", "session_id", s.ID(), "kind", msg.Kind(), "error", err)
	}
}

// broadcast must be called with a.mu held
func (a *Arbitrator) broadcast(except string, msg api.Message) {
	for id, s := range a.sessions {
		if id == except {
			continue
		}
		if err := s.Send(msg); err != nil {
			a.logger.Warn("failed to broadcast", "session_id", id, "kind", msg.Kind(), "error", err)
		}
	}
}

// gapFill releases reserved counters with the last known bytes of their
// value so that peers waiting on them do not stall. Values whose bytes the
// arbitrator does not hold, for example after a restart, are released with
// a Skip message. It returns the databases whose deferred deletion
// completed. Must be called with a.mu held.
func (a *Arbitrator) gapFill(keys []slotKey) []string {
	slices.SortFunc(keys, func(x, y slotKey) int {
		return cmp.Or(
			cmp.Compare(x.database, y.database),
			cmp.Compare(x.value, y.value),
			cmp.Compare(x.counter, y.counter),
		)
	})

	var deleted []string
	for _, key := range keys {
		delete(a.delayed, key)
		msg := api.SetValueMessage{DatabaseID: key.database, ValueID: key.value, Counter: key.counter}
		if lv, ok := a.last[key.valueKey]; ok {
			msg.Type, msg.Value = lv.typ, lv.data
		} else {
			msg.Skip = true
		}
		a.broadcast("", msg)
		a.metrics.gapFills.Inc()
		deleted = append(deleted, a.finishDelete(key.database)...)
	}
	return deleted
}

// finishDelete drops a database marked for deletion once it has no
// reservations left. Must be called with a.mu held.
func (a *Arbitrator) finishDelete(databaseID string) []string {
	origin, marked := a.deleting[databaseID]
	if !marked {
		return nil
	}
	for key := range a.delayed {
		if key.database == databaseID {
			return nil
		}
	}

	delete(a.deleting, databaseID)
	delete(a.counters, databaseID)
	delete(a.hosts, databaseID)
	for key := range a.last {
		if key.database == databaseID {
			delete(a.last, key)
		}
	}
	a.broadcast(origin, api.DeleteDatabaseMessage{DatabaseID: databaseID})
	a.logger.Info("database deleted", "database_id", databaseID)
	return []string{databaseID}
}

func (a *Arbitrator) persist(ctx context.Context, u counterUpdate) {
	if a.store == nil {
		return
	}
	if err := a.store.SaveCounter(ctx, u.database, u.value, u.next); err != nil {
		a.logger.Error("failed to save counter", "database_id", u.database, "value_id", u.value, "error", err)
	}
}

func (a *Arbitrator) forget(ctx context.Context, databases []string) {
	if a.store == nil {
		return
	}
	for _, db := range databases {
		if err := a.store.DeleteDatabase(ctx, db); err != nil && !errors.Is(err, storage.ErrDatabaseNotFound) {
			a.logger.Error("failed to delete database state", "database_id", db, "error", err)
		}
	}
}
