package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/iudanet/syncstore/internal/crypto"
	"github.com/iudanet/syncstore/internal/models"
)

// PersisterOptions configures a Persister.
type PersisterOptions struct {
	Logger *slog.Logger
	// Key seals stored values with AES-GCM when set
	Key           []byte
	FlushInterval time.Duration
}

// Persister batches value writes in memory and flushes them to the backend
// in the background. Several writes of one value between flushes collapse
// into the last one.
type Persister struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
	pending map[string]map[string]models.StoredValue
	stop    chan struct{}
	done    chan struct{}
	key     []byte
	mu      sync.Mutex
	flushMu sync.Mutex // порядок сбросов и удалений
	once    sync.Once
}

// NewPersister creates a persister and starts its flush loop.
func NewPersister(backend Backend, opts PersisterOptions) *Persister {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 100 * time.Millisecond
	}
	p := &Persister{
		backend: backend,
		logger:  opts.Logger,
		now:     time.Now,
		pending: make(map[string]map[string]models.StoredValue),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		key:     opts.Key,
	}
	go p.loop(opts.FlushInterval)
	return p
}

// Save queues a value for storage.
func (p *Persister) Save(namespace, valueID string, data []byte, typ string, syncRequired bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	values := p.pending[namespace]
	if values == nil {
		values = make(map[string]models.StoredValue)
		p.pending[namespace] = values
	}
	values[valueID] = models.StoredValue{
		ValueID:      valueID,
		Type:         typ,
		Data:         slices.Clone(data),
		SyncRequired: syncRequired,
		UpdatedAt:    p.now().UTC(),
	}
}

// Flush writes every queued value to the backend.
func (p *Persister) Flush(ctx context.Context) error {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	p.mu.Lock()
	batch := p.pending
	p.pending = make(map[string]map[string]models.StoredValue)
	p.mu.Unlock()

	var errs []error
	for _, namespace := range slices.Sorted(maps.Keys(batch)) {
		values := batch[namespace]
		if err := p.write(ctx, namespace, values); err != nil {
			p.requeue(namespace, values)
			errs = append(errs, fmt.Errorf("failed to flush namespace %s: %w", namespace, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Persister) write(ctx context.Context, namespace string, values map[string]models.StoredValue) error {
	records := make([]models.StoredValue, 0, len(values))
	for _, id := range slices.Sorted(maps.Keys(values)) {
		rec := values[id]
		if p.key != nil {
			sealed, err := crypto.Seal(rec.Data, p.key)
			if err != nil {
				return err
			}
			rec.Data = sealed
		}
		records = append(records, rec)
	}
	return p.backend.SaveValues(ctx, namespace, records)
}

// requeue returns a failed batch unless newer writes replaced its values
func (p *Persister) requeue(namespace string, values map[string]models.StoredValue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	current := p.pending[namespace]
	if current == nil {
		current = make(map[string]models.StoredValue, len(values))
		p.pending[namespace] = current
	}
	for id, v := range values {
		if _, newer := current[id]; !newer {
			current[id] = v
		}
	}
}

// LoadAll returns the stored values of the namespace, including values still queued.
func (p *Persister) LoadAll(ctx context.Context, namespace string) ([]models.StoredValue, error) {
	if err := p.Flush(ctx); err != nil {
		return nil, err
	}

	records, err := p.backend.LoadAll(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to load namespace %s: %w", namespace, err)
	}
	if p.key == nil {
		return records, nil
	}
	for i := range records {
		data, err := crypto.Open(records[i].Data, p.key)
		if err != nil {
			return nil, fmt.Errorf("failed to open value %s: %w", records[i].ValueID, err)
		}
		records[i].Data = data
	}
	return records, nil
}

// CreateNamespace creates an empty namespace.
func (p *Persister) CreateNamespace(ctx context.Context, namespace string) error {
	return p.backend.CreateNamespace(ctx, namespace)
}

// Exists reports whether the namespace exists or has queued values.
func (p *Persister) Exists(ctx context.Context, namespace string) (bool, error) {
	p.mu.Lock()
	_, queued := p.pending[namespace]
	p.mu.Unlock()
	if queued {
		return true, nil
	}
	return p.backend.Exists(ctx, namespace)
}

// DeleteNamespace drops the namespace together with its queued values.
// Deleting a namespace that was never stored is not an error.
func (p *Persister) DeleteNamespace(ctx context.Context, namespace string) error {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	p.mu.Lock()
	delete(p.pending, namespace)
	p.mu.Unlock()

	err := p.backend.DeleteNamespace(ctx, namespace)
	if err != nil && !errors.Is(err, ErrNamespaceNotFound) {
		return err
	}
	return nil
}

// Close stops the flush loop and writes what is still queued.
func (p *Persister) Close(ctx context.Context) error {
	p.once.Do(func() { close(p.stop) })
	<-p.done
	return p.Flush(ctx)
}

func (p *Persister) loop(interval time.Duration) {
	defer close(p.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if err := p.Flush(context.Background()); err != nil {
				p.logger.Error("failed to flush values", "error", err)
			}
		}
	}
}
