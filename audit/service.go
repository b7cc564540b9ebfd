package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/gjtracker/model"
	"github.com/kasuganosora/gjtracker/tracker"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Log records tracker changes and lists the most recent ones, newest first.
type Log interface {
	Record(ch tracker.Change)
	Recent(ctx context.Context, limit int) ([]model.AuditLog, error)
}

// entryFor converts a change into its audit row.
func entryFor(ch tracker.Change) *model.AuditLog {
	payload, _ := json.Marshal(ch)
	at := ch.At
	if at.IsZero() {
		at = time.Now()
	}
	return &model.AuditLog{
		Action:    string(ch.Kind),
		ItemID:    ch.ItemID,
		ActorID:   ch.ActorID,
		FromLevel: ch.From,
		ToLevel:   ch.To,
		Detail:    ch.Detail,
		Payload:   datatypes.JSON(payload),
		CreatedAt: at,
	}
}

const (
	defaultQueue    = 1024
	defaultBatch    = 100
	defaultInterval = 2 * time.Second
)

// Service writes audit rows through gorm from a background worker. Rows are
// batched and written when the batch fills, on a timer, on Flush and on Stop.
type Service struct {
	db       *gorm.DB
	ch       chan *model.AuditLog
	flushCh  chan chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *zap.Logger

	batch    int
	interval time.Duration
}

// Option tunes a Service.
type Option func(*Service)

// WithBatch sets the batch size and the timer interval.
func WithBatch(size int, interval time.Duration) Option {
	return func(s *Service) {
		if size > 0 {
			s.batch = size
		}
		if interval > 0 {
			s.interval = interval
		}
	}
}

// New starts a Service writing to db.
func New(db *gorm.DB, logger *zap.Logger, opts ...Option) *Service {
	svc := &Service{
		db:       db,
		ch:       make(chan *model.AuditLog, defaultQueue),
		flushCh:  make(chan chan struct{}),
		stopCh:   make(chan struct{}),
		logger:   logger,
		batch:    defaultBatch,
		interval: defaultInterval,
	}
	for _, o := range opts {
		o(svc)
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Record queues a change. It never blocks: when the queue is full the entry
// is dropped with a warning.
func (svc *Service) Record(ch tracker.Change) {
	select {
	case svc.ch <- entryFor(ch):
	default:
		svc.logger.Warn("audit queue full, dropping entry",
			zap.String("action", string(ch.Kind)))
	}
}

// Flush writes every queued row before returning. It is a no-op once the
// service has stopped.
func (svc *Service) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case svc.flushCh <- done:
	case <-svc.stopCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recent flushes the queue, then returns up to limit rows, newest first.
func (svc *Service) Recent(ctx context.Context, limit int) ([]model.AuditLog, error) {
	if limit <= 0 {
		return []model.AuditLog{}, nil
	}
	if err := svc.Flush(ctx); err != nil {
		return nil, err
	}
	var logs []model.AuditLog
	err := svc.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// Stop writes what is queued and ends the worker. It returns early with the
// context error if ctx ends first; the worker still finishes in background.
func (svc *Service) Stop(ctx context.Context) error {
	svc.stopOnce.Do(func() { close(svc.stopCh) })
	done := make(chan struct{})
	go func() {
		svc.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(svc.interval)
	defer ticker.Stop()

	pending := make([]*model.AuditLog, 0, svc.batch)
	write := func() {
		if len(pending) == 0 {
			return
		}
		if err := svc.db.CreateInBatches(pending, svc.batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Error(err), zap.Int("entries", len(pending)))
		}
		pending = pending[:0]
	}
	drain := func() {
		for {
			select {
			case e := <-svc.ch:
				pending = append(pending, e)
			default:
				write()
				return
			}
		}
	}

	for {
		select {
		case e := <-svc.ch:
			pending = append(pending, e)
			if len(pending) >= svc.batch {
				write()
			}
		case <-ticker.C:
			write()
		case done := <-svc.flushCh:
			drain()
			close(done)
		case <-svc.stopCh:
			drain()
			return
		}
	}
}
