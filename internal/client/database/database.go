// Package database implements a synchronised namespace of typed values.
//
// Every value carries two counters: the last counter the server confirmed
// and the next counter this peer expects to use. Local writes are applied
// immediately and sent with the predicted counter; writes the server rejects
// wait in a per-value queue and are replayed once the counter they were
// given is reached.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/iudanet/syncstore/internal/callback"
	"github.com/iudanet/syncstore/internal/workqueue"
	"github.com/iudanet/syncstore/pkg/api"
)

// Options configures a database.
type Options struct {
	Sender    Sender
	Persister Persister
	Resolver  Resolver
	Pool      *workqueue.Pool
	Logger    *slog.Logger

	Synchronised bool
	Persistent   bool
}

type lateValue struct {
	typ  string
	data []byte
}

// pendingWrite is a write waiting for the counter the server reserved for it.
type pendingWrite struct {
	redo      func(base []byte) ([]byte, error) // nil для записи готовых байт
	onConfirm func(data []byte)
	onFail    func(err error)
	typ       string
	data      []byte
	required  uint32
	exclusive bool // redo выполняется не больше одного раза
}

func (p *pendingWrite) confirm(data []byte) {
	if p.onConfirm != nil {
		p.onConfirm(data)
	}
}

func (p *pendingWrite) fail(err error) {
	if p.onFail != nil {
		p.onFail(err)
	}
}

// ticket describes how a local write is going to be synchronised.
type ticket struct {
	counter uint32
	sync    bool
	offline bool
}

// Database is a namespace of value slots.
type Database struct {
	sender    Sender
	persister Persister
	resolver  Resolver
	pool      *workqueue.Pool
	logger    *slog.Logger
	callbacks *callback.Registry[string]

	values       map[string]slot
	late         map[string]lateValue
	queues       map[string]*workqueue.Serial
	types        map[string]string
	base         map[string][]byte
	local        map[string]uint32
	confirmed    map[string]uint32
	inflight     map[string]int
	pending      map[string][]*pendingWrite
	syncRequired map[string]bool
	loaded       map[string]bool

	id           string
	mu           sync.Mutex
	deleted      bool
	synchronised atomic.Bool
	persistent   atomic.Bool
}

// New creates an empty database.
func New(id string, opts Options) *Database {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Pool == nil {
		opts.Pool = workqueue.NewPool(4, opts.Logger)
	}
	logger := opts.Logger.With("database_id", id)

	d := &Database{
		id:           id,
		sender:       opts.Sender,
		persister:    opts.Persister,
		resolver:     opts.Resolver,
		pool:         opts.Pool,
		logger:       logger,
		callbacks:    callback.NewRegistry[string](logger),
		values:       make(map[string]slot),
		late:         make(map[string]lateValue),
		queues:       make(map[string]*workqueue.Serial),
		types:        make(map[string]string),
		base:         make(map[string][]byte),
		local:        make(map[string]uint32),
		confirmed:    make(map[string]uint32),
		inflight:     make(map[string]int),
		pending:      make(map[string][]*pendingWrite),
		syncRequired: make(map[string]bool),
		loaded:       make(map[string]bool),
	}
	if d.resolver == nil {
		d.resolver = selfResolver{d: d}
	}
	d.synchronised.Store(opts.Synchronised)
	d.persistent.Store(opts.Persistent)
	return d
}

type selfResolver struct {
	d *Database
}

func (r selfResolver) Lookup(id string) (*Database, bool) {
	if id != r.d.id || r.d.Deleted() {
		return nil, false
	}
	return r.d, true
}

// ID returns the database id.
func (d *Database) ID() string {
	return d.id
}

// Synchronised reports whether writes are sent to the server.
func (d *Database) Synchronised() bool {
	return d.synchronised.Load()
}

// SetSynchronised toggles synchronisation with the server.
func (d *Database) SetSynchronised(on bool) {
	d.synchronised.Store(on)
}

// Persistent reports whether values are saved through the persister.
func (d *Database) Persistent() bool {
	return d.persistent.Load() && d.persister != nil
}

// SetPersistent toggles persistence.
func (d *Database) SetPersistent(on bool) {
	d.persistent.Store(on)
}

// Deleted reports whether the database was destroyed.
func (d *Database) Deleted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deleted
}

// Counters returns the next counter this peer expects to use for a value
// and the last counter confirmed by the server.
func (d *Database) Counters(valueID string) (local, confirmed uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next(valueID), d.confirmed[valueID]
}

// ValueIDs returns the ids of all known values, typed or not.
func (d *Database) ValueIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.values)+len(d.late))
	for id := range d.values {
		ids = append(ids, id)
	}
	for id := range d.late {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Raw returns the serialized current value and its type descriptor.
func (d *Database) Raw(valueID string) ([]byte, string, bool) {
	return d.currentBytes(valueID)
}

// PendingCount returns the number of writes waiting for replay.
func (d *Database) PendingCount(valueID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending[valueID])
}

// NeedsSync returns the ids of values written without confirmation.
func (d *Database) NeedsSync() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.syncRequired))
	for id := range d.syncRequired {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AddCallback registers fn for changes of a value.
func AddCallback[T any](d *Database, valueID, name string, fn func(T) error, opts callback.Options) bool {
	return callback.Add(d.callbacks, valueID, name, fn, opts)
}

// RemoveCallbacks removes the callbacks named name of a value; an empty
// name removes all of them.
func (d *Database) RemoveCallbacks(valueID, name string) int {
	return d.callbacks.Remove(valueID, name)
}

// InvokeCallbacks calls the callbacks of a value with its current value.
func (d *Database) InvokeCallbacks(valueID string) int {
	data, _, ok := d.currentBytes(valueID)
	if !ok {
		return 0
	}
	return d.callbacks.Invoke(valueID, data)
}

// Load restores the values stored by the persister. Values without a typed
// slot stay raw until their first typed access. A database that was never
// stored gets an empty namespace.
func (d *Database) Load(ctx context.Context) (int, error) {
	if d.persister == nil {
		return 0, nil
	}
	exists, err := d.persister.Exists(ctx, d.id)
	if err != nil {
		return 0, fmt.Errorf("failed to check database %s: %w", d.id, err)
	}
	if !exists {
		if err := d.persister.CreateNamespace(ctx, d.id); err != nil {
			return 0, fmt.Errorf("failed to create database %s: %w", d.id, err)
		}
		return 0, nil
	}

	records, err := d.persister.LoadAll(ctx, d.id)
	if err != nil {
		return 0, fmt.Errorf("failed to load database %s: %w", d.id, err)
	}

	type restore struct {
		s    slot
		data []byte
	}
	var typed []restore

	d.mu.Lock()
	for _, rec := range records {
		d.loaded[rec.ValueID] = true
		if rec.SyncRequired {
			d.syncRequired[rec.ValueID] = true
		}
		if _, ok := d.types[rec.ValueID]; !ok {
			d.types[rec.ValueID] = rec.Type
		}
		if s, ok := d.values[rec.ValueID]; ok {
			typed = append(typed, restore{s: s, data: rec.Data})
			continue
		}
		d.late[rec.ValueID] = lateValue{data: rec.Data, typ: rec.Type}
	}
	d.mu.Unlock()

	for _, r := range typed {
		if err := r.s.store(d, r.data, true); err != nil {
			d.logger.Error("failed to restore value", "value_id", r.s.id(), "error", err)
		}
	}
	d.logger.Debug("database loaded", "values", len(records))
	return len(records), nil
}

// ApplyRemote applies an authoritative update. Updates not newer than the
// last applied counter are ignored. A Skip update only advances the counter.
func (d *Database) ApplyRemote(msg api.SetValueMessage) {
	id := msg.ValueID

	d.mu.Lock()
	if d.deleted || msg.Counter <= d.confirmed[id] {
		d.mu.Unlock()
		d.logger.Debug("ignoring stale update", "value_id", id, "counter", msg.Counter)
		return
	}
	d.confirmed[id] = msg.Counter
	d.local[id] = max(d.local[id], msg.Counter+1)
	if msg.Skip {
		d.mu.Unlock()
		d.replay(id)
		return
	}
	d.base[id] = msg.Value
	if known := d.types[id]; known == "" {
		d.types[id] = msg.Type
	}
	s, typed := d.values[id]
	if !typed {
		d.late[id] = lateValue{data: msg.Value, typ: msg.Type}
	}
	d.mu.Unlock()

	switch {
	case !typed:
		d.schedule(id, func() { d.sideEffects(id, msg.Type, msg.Value, false) })
	case msg.Type != "" && msg.Type != s.typeName():
		d.logger.Error("remote value has another type", "value_id", id, "type", msg.Type, "local_type", s.typeName())
	default:
		if err := s.store(d, msg.Value, false); err != nil {
			d.logger.Error("failed to apply remote value", "value_id", id, "counter", msg.Counter, "error", err)
		}
	}

	d.replay(id)
}

// AnswerGetValue lists the values whose next counter equals the requested
// one and that have no write in flight.
func (d *Database) AnswerGetValue(req api.GetValueRequest) api.GetValueReply {
	d.mu.Lock()
	defer d.mu.Unlock()

	reply := api.GetValueReply{Values: []api.SetValueMessage{}}
	if d.deleted {
		return reply
	}
	for id, counter := range req.Counters {
		confirmed := d.confirmed[id]
		base, known := d.base[id]
		if !known || confirmed == 0 || d.next(id) != counter || d.inflight[id] > 0 || len(d.pending[id]) > 0 {
			continue
		}
		reply.Values = append(reply.Values, api.SetValueMessage{
			DatabaseID: d.id,
			ValueID:    id,
			Type:       d.types[id],
			Value:      base,
			Counter:    confirmed,
		})
	}
	sort.Slice(reply.Values, func(i, j int) bool { return reply.Values[i].ValueID < reply.Values[j].ValueID })
	return reply
}

// HostResolved pushes the values written without confirmation. The host also
// pushes loaded values the server holds no counter for.
func (d *Database) HostResolved(reply api.HostReply, isHost bool) int {
	d.mu.Lock()
	ids := make(map[string]bool, len(d.syncRequired))
	for id := range d.syncRequired {
		ids[id] = true
	}
	if isHost {
		for id := range d.loaded {
			if _, known := reply.Counters[id]; !known {
				ids[id] = true
			}
		}
		// Остальные значения сервер уже знает
		clear(d.loaded)
	}
	for id := range ids {
		// Предсказываем счетчик сервера, чтобы запись была принята сразу
		if c := reply.Counters[id]; c > d.next(id) {
			d.local[id] = c
		}
		delete(d.loaded, id)
	}
	d.mu.Unlock()

	pushed := 0
	for _, id := range slices.Sorted(maps.Keys(ids)) {
		if d.push(id) {
			pushed++
		}
	}
	if pushed > 0 {
		d.logger.Info("pushed offline writes", "count", pushed, "host", isHost)
	}
	return pushed
}

// Disconnected drops the queued replays: their reserved counters are
// released by the server when the session ends. Values are marked for
// resending and exclusive writes fail with ErrNotConnected.
func (d *Database) Disconnected() {
	d.mu.Lock()
	var failed []*pendingWrite
	var marked []string
	for id, queue := range d.pending {
		for _, pw := range queue {
			if pw.exclusive {
				failed = append(failed, pw)
			}
		}
		d.syncRequired[id] = true
		marked = append(marked, id)
	}
	clear(d.pending)
	for id := range d.local {
		d.local[id] = d.confirmed[id] + 1
	}
	d.mu.Unlock()

	for _, pw := range failed {
		pw.fail(ErrNotConnected)
	}
	for _, id := range marked {
		d.schedule(id, func() { d.persistCurrent(id, true) })
	}
}

// Destroy deletes every value, counter, callback and persisted row.
func (d *Database) Destroy(ctx context.Context) error {
	d.mu.Lock()
	if d.deleted {
		d.mu.Unlock()
		return nil
	}
	d.deleted = true
	var failed []*pendingWrite
	for _, queue := range d.pending {
		failed = append(failed, queue...)
	}
	clear(d.values)
	clear(d.late)
	clear(d.types)
	clear(d.base)
	clear(d.local)
	clear(d.confirmed)
	clear(d.inflight)
	clear(d.pending)
	clear(d.syncRequired)
	clear(d.loaded)
	d.mu.Unlock()

	d.callbacks.Clear()
	for _, pw := range failed {
		pw.fail(ErrDatabaseDeleted)
	}

	if d.persister != nil {
		if err := d.persister.DeleteNamespace(ctx, d.id); err != nil {
			return fmt.Errorf("failed to delete namespace %s: %w", d.id, err)
		}
	}
	d.logger.Info("database deleted")
	return nil
}

// next must be called with d.mu held
func (d *Database) next(id string) uint32 {
	return max(d.local[id], d.confirmed[id]+1)
}

func (d *Database) schedule(id string, task func()) {
	d.mu.Lock()
	q, ok := d.queues[id]
	if !ok {
		q = workqueue.NewSerial(d.pool)
		d.queues[id] = q
	}
	d.mu.Unlock()
	q.Enqueue(task)
}

// beginWrite reserves the predicted counter for a local write. s is the slot
// performing the write, nil for raw values.
func (d *Database) beginWrite(id string, s slot) (ticket, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.deleted || (s != nil && d.values[id] != s) {
		return ticket{}, ErrDatabaseDeleted
	}
	if !d.synchronised.Load() || d.sender == nil {
		return ticket{}, nil
	}
	if !d.sender.Connected() {
		d.syncRequired[id] = true
		return ticket{offline: true}, nil
	}
	counter := d.next(id)
	d.local[id] = counter + 1
	d.inflight[id]++
	return ticket{counter: counter, sync: true}, nil
}

// beginLock reserves the predicted counter for a lock request
func (d *Database) beginLock(id string, s slot) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.deleted || d.values[id] != s {
		return 0, ErrDatabaseDeleted
	}
	if !d.sender.Connected() {
		return 0, ErrNotConnected
	}
	counter := d.next(id)
	d.local[id] = counter + 1
	d.inflight[id]++
	return counter, nil
}

// release must be called with d.mu held
func (d *Database) release(id string) {
	if d.inflight[id] > 1 {
		d.inflight[id]--
		return
	}
	delete(d.inflight, id)
}

func (d *Database) afterWrite(id string, t ticket, pw *pendingWrite) {
	d.sideEffects(id, pw.typ, pw.data, t.offline)
	if t.sync {
		d.sendSet(id, t.counter, pw)
	}
}

func (d *Database) sideEffects(id, typ string, data []byte, syncRequired bool) {
	d.callbacks.Invoke(id, data)
	d.persist(id, typ, data, syncRequired)
}

func (d *Database) persist(id, typ string, data []byte, syncRequired bool) {
	if !d.Persistent() || d.Deleted() {
		return
	}
	d.persister.Save(d.id, id, data, typ, syncRequired)
}

func (d *Database) persistCurrent(id string, syncRequired bool) {
	data, typ, ok := d.currentBytes(id)
	if !ok {
		return
	}
	d.persist(id, typ, data, syncRequired)
}

func (d *Database) currentBytes(id string) ([]byte, string, bool) {
	d.mu.Lock()
	s, typed := d.values[id]
	lv, isLate := d.late[id]
	d.mu.Unlock()

	switch {
	case typed:
		data, err := s.current()
		if err != nil {
			d.logger.Error("failed to encode value", "value_id", id, "error", err)
			return nil, "", false
		}
		return data, s.typeName(), true
	case isLate:
		return lv.data, lv.typ, true
	}
	return nil, "", false
}

func (d *Database) sendSet(id string, counter uint32, pw *pendingWrite) {
	req := api.SetValueRequest{
		DatabaseID: d.id,
		ValueID:    id,
		Type:       pw.typ,
		Value:      pw.data,
		Counter:    counter,
	}
	err := d.sender.Request(req, func(reply api.Message) {
		d.onSetReply(id, counter, pw, reply)
	})
	if err != nil {
		d.logger.Warn("failed to send write", "value_id", id, "counter", counter, "error", err)
		d.onSetReply(id, counter, pw, nil)
	}
}

func (d *Database) onSetReply(id string, predicted uint32, pw *pendingWrite, reply api.Message) {
	r, ok := reply.(api.SetValueReply)
	if !ok {
		d.lost(id)
		pw.fail(ErrTimeout)
		return
	}

	d.mu.Lock()
	if d.deleted {
		d.mu.Unlock()
		return
	}
	d.release(id)

	if r.ExpectedCounter != predicted {
		pw.required = r.ExpectedCounter
		d.local[id] = max(d.local[id], r.ExpectedCounter+1)
		d.enqueue(id, pw)
		d.mu.Unlock()
		d.logger.Debug("write rejected", "value_id", id, "counter", predicted, "expected", r.ExpectedCounter)
		d.replay(id)
		return
	}

	if predicted > d.confirmed[id] {
		d.confirmed[id] = predicted
		d.base[id] = pw.data
	}
	d.local[id] = max(d.local[id], predicted+1)
	idle := d.inflight[id] == 0
	if idle {
		delete(d.syncRequired, id)
	}
	latest := d.confirmed[id] == predicted
	s, typed := d.values[id]
	d.mu.Unlock()

	// Удаленные обновления могли перезаписать слот до подтверждения
	if idle && latest && typed {
		if err := s.store(d, pw.data, true); err != nil {
			d.logger.Error("failed to restore confirmed value", "value_id", id, "error", err)
		}
	}
	pw.confirm(pw.data)
	d.replay(id)
}

func (d *Database) onLockReply(id string, pw *pendingWrite, reply api.Message) {
	r, ok := reply.(api.LockValueReply)

	d.mu.Lock()
	if d.deleted {
		d.mu.Unlock()
		pw.fail(ErrDatabaseDeleted)
		return
	}
	d.release(id)
	if !ok {
		if d.inflight[id] == 0 && len(d.pending[id]) == 0 {
			d.local[id] = d.confirmed[id] + 1
		}
		d.mu.Unlock()
		d.logger.Warn("lock request not answered", "value_id", id)
		pw.fail(ErrTimeout)
		return
	}
	pw.required = r.ExpectedCounter
	d.local[id] = max(d.local[id], r.ExpectedCounter+1)
	d.enqueue(id, pw)
	d.mu.Unlock()

	d.replay(id)
}

// lost handles a write whose reply never arrived
func (d *Database) lost(id string) {
	d.mu.Lock()
	if d.deleted {
		d.mu.Unlock()
		return
	}
	d.release(id)
	d.syncRequired[id] = true
	if d.inflight[id] == 0 && len(d.pending[id]) == 0 {
		d.local[id] = d.confirmed[id] + 1
	}
	d.mu.Unlock()

	d.logger.Warn("write not confirmed, marked for resend", "value_id", id)
	d.schedule(id, func() { d.persistCurrent(id, true) })
}

// enqueue keeps the queue ordered by required counter; must be called with d.mu held
func (d *Database) enqueue(id string, pw *pendingWrite) {
	queue := d.pending[id]
	i := sort.Search(len(queue), func(i int) bool { return queue[i].required > pw.required })
	d.pending[id] = slices.Insert(queue, i, pw)
}

// head pops the first queued write if its counter has been reached
func (d *Database) head(id string) (pw *pendingWrite, base []byte, stale, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	queue := d.pending[id]
	if d.deleted || len(queue) == 0 || queue[0].required > d.confirmed[id]+1 {
		return nil, nil, false, false
	}
	pw = queue[0]
	if len(queue) == 1 {
		delete(d.pending, id)
	} else {
		d.pending[id] = queue[1:]
	}
	return pw, d.base[id], pw.required <= d.confirmed[id], true
}

// commit records data as the value at counter if that counter is still next
func (d *Database) commit(id string, counter uint32, data []byte) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.confirmed[id]+1 != counter {
		return d.base[id], false
	}
	d.confirmed[id] = counter
	d.base[id] = data
	d.local[id] = max(d.local[id], counter+1)
	return nil, true
}

// replay runs every queued write whose counter has been reached, in order.
func (d *Database) replay(id string) {
	for {
		pw, base, stale, ok := d.head(id)
		if !ok {
			return
		}
		if stale {
			d.supersede(id, pw, base)
			continue
		}

		data := pw.data
		if pw.redo != nil {
			var err error
			if data, err = pw.redo(base); err != nil {
				d.logger.Error("failed to replay write", "value_id", id, "counter", pw.required, "error", err)
				d.sendFiller(id, pw.typ, base, pw.required)
				pw.fail(err)
				continue
			}
		}

		if newer, ok := d.commit(id, pw.required, data); !ok {
			d.resubmit(id, pw, newer, data)
			continue
		}
		d.sendFiller(id, pw.typ, data, pw.required)
		d.applyLocal(id, pw.typ, data)
		pw.confirm(data)
	}
}

// supersede handles a queued write whose counter was overtaken by a newer
// accepted write.
func (d *Database) supersede(id string, pw *pendingWrite, base []byte) {
	if pw.redo == nil && pw.exclusive {
		d.resubmit(id, pw, base, pw.data)
		return
	}
	if pw.redo == nil {
		// Готовые байты проиграли более новой записи
		d.sendFiller(id, pw.typ, base, pw.required)
		pw.confirm(base)
		return
	}
	data, err := pw.redo(base)
	if err != nil {
		d.logger.Error("failed to replay write", "value_id", id, "counter", pw.required, "error", err)
		d.sendFiller(id, pw.typ, base, pw.required)
		pw.fail(err)
		return
	}
	d.resubmit(id, pw, base, data)
}

// resubmit releases the overtaken counter and sends data again as a new
// write. The callbacks of pw move to the new write, so an exclusive write
// reports its result only once the resubmission is accepted.
func (d *Database) resubmit(id string, pw *pendingWrite, base, data []byte) {
	d.sendFiller(id, pw.typ, base, pw.required)
	d.logger.Debug("resubmitting overtaken write", "value_id", id, "counter", pw.required)

	next := &pendingWrite{
		redo:      pw.redo,
		onConfirm: pw.onConfirm,
		onFail:    pw.onFail,
		typ:       pw.typ,
		data:      data,
		exclusive: pw.exclusive,
	}
	if pw.exclusive {
		// Функция уже выполнена: дальше отправляются только байты
		next.redo = nil
	}

	d.applyLocal(id, pw.typ, data)
	t, err := d.beginWrite(id, nil)
	switch {
	case err != nil:
		next.fail(err)
	case t.offline:
		next.fail(ErrNotConnected)
	case !t.sync:
		next.confirm(data)
	default:
		d.schedule(id, func() { d.sendSet(id, t.counter, next) })
	}
}

func (d *Database) sendFiller(id, typ string, data []byte, counter uint32) {
	if d.sender == nil {
		return
	}
	msg := api.SetValueMessage{
		DatabaseID: d.id,
		ValueID:    id,
		Type:       typ,
		Value:      data,
		Counter:    counter,
	}
	if data == nil {
		d.mu.Lock()
		_, known := d.base[id]
		d.mu.Unlock()
		if !known {
			// Байты значения неизвестны: только освобождаем счетчик
			msg.Type, msg.Skip = "", true
		}
	}
	if err := d.sender.Send(msg); err != nil {
		d.logger.Warn("failed to send replayed write", "value_id", id, "counter", counter, "error", err)
		d.mu.Lock()
		d.syncRequired[id] = true
		d.mu.Unlock()
	}
}

func (d *Database) applyLocal(id, typ string, data []byte) {
	d.mu.Lock()
	s, typed := d.values[id]
	if !typed {
		d.late[id] = lateValue{data: data, typ: typ}
	}
	d.mu.Unlock()

	if !typed {
		d.schedule(id, func() { d.sideEffects(id, typ, data, false) })
		return
	}
	if err := s.store(d, data, false); err != nil {
		d.logger.Error("failed to apply value", "value_id", id, "error", err)
	}
}

// push resends the current value of id as a new write
func (d *Database) push(id string) bool {
	d.mu.Lock()
	s, typed := d.values[id]
	lv, isLate := d.late[id]
	d.mu.Unlock()

	if typed {
		return s.resend(d)
	}
	if !isLate {
		return false
	}
	t, err := d.beginWrite(id, nil)
	if err != nil || !t.sync {
		return false
	}
	pw := &pendingWrite{typ: lv.typ, data: lv.data}
	d.schedule(id, func() {
		d.persist(id, lv.typ, lv.data, false)
		d.sendSet(id, t.counter, pw)
	})
	return true
}
