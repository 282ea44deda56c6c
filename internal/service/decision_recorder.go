package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/guttosm/packing-service/internal/metrics"
	"github.com/guttosm/packing-service/internal/repository"
)

// DecisionRecorder accepts decision records for asynchronous persistence.
type DecisionRecorder interface {
	Record(record *model.DecisionRecord) bool
}

// DecisionRecorderConfig holds configuration for the async decision recorder.
type DecisionRecorderConfig struct {
	// BufferSize is the size of the record channel buffer.
	BufferSize int
	// NumWorkers is the number of worker goroutines writing records.
	NumWorkers int
	// BatchSize caps how many queued records a worker writes at once.
	BatchSize int
	// WriteTimeout bounds a single batch write.
	WriteTimeout time.Duration
}

// DefaultDecisionRecorderConfig returns sensible defaults for the recorder.
func DefaultDecisionRecorderConfig() DecisionRecorderConfig {
	return DecisionRecorderConfig{
		BufferSize:   1000,
		NumWorkers:   2,
		BatchSize:    50,
		WriteTimeout: 5 * time.Second,
	}
}

// AsyncDecisionRecorder writes decision records from a bounded buffer using a
// fixed worker pool. Records are dropped when the buffer is full so a slow
// store never holds up a packing request.
type AsyncDecisionRecorder struct {
	repo         repository.DecisionLogRepositoryInterface
	recordCh     chan *model.DecisionRecord
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	batchSize    int
	writeTimeout time.Duration

	enqueued int64
	dropped  int64
	written  int64
	errors   int64
}

// NewAsyncDecisionRecorder starts a recorder writing to repo.
// It returns nil when repo is nil.
func NewAsyncDecisionRecorder(repo repository.DecisionLogRepositoryInterface, cfg DecisionRecorderConfig) *AsyncDecisionRecorder {
	if repo == nil {
		return nil
	}
	defaults := DefaultDecisionRecorderConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = defaults.NumWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}

	r := &AsyncDecisionRecorder{
		repo:         repo,
		recordCh:     make(chan *model.DecisionRecord, cfg.BufferSize),
		stopCh:       make(chan struct{}),
		batchSize:    cfg.BatchSize,
		writeTimeout: cfg.WriteTimeout,
	}

	for i := 0; i < cfg.NumWorkers; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	return r
}

func (r *AsyncDecisionRecorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordCh:
			r.writeBatch(r.collect(record))
		case <-r.stopCh:
			for {
				select {
				case record := <-r.recordCh:
					r.writeBatch(r.collect(record))
				default:
					return
				}
			}
		}
	}
}

// collect gathers first plus whatever is already queued, up to the batch size.
func (r *AsyncDecisionRecorder) collect(first *model.DecisionRecord) []*model.DecisionRecord {
	batch := make([]*model.DecisionRecord, 0, r.batchSize)
	batch = append(batch, first)
	for len(batch) < r.batchSize {
		select {
		case record := <-r.recordCh:
			batch = append(batch, record)
		default:
			return batch
		}
	}
	return batch
}

func (r *AsyncDecisionRecorder) writeBatch(batch []*model.DecisionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.repo.CreateMany(ctx, batch); err != nil {
		atomic.AddInt64(&r.errors, int64(len(batch)))
		log.Warn().Err(err).Int("records", len(batch)).Msg("Failed to write decision records")
		return
	}
	atomic.AddInt64(&r.written, int64(len(batch)))
}

// Record enqueues a record. It returns false when the record was dropped.
func (r *AsyncDecisionRecorder) Record(record *model.DecisionRecord) bool {
	if r == nil || record == nil {
		return false
	}

	select {
	case <-r.stopCh:
		atomic.AddInt64(&r.dropped, 1)
		metrics.RecordDecisionLogDropped()
		return false
	default:
	}

	select {
	case r.recordCh <- record:
		atomic.AddInt64(&r.enqueued, 1)
		return true
	default:
		atomic.AddInt64(&r.dropped, 1)
		metrics.RecordDecisionLogDropped()
		return false
	}
}

// Stop drains the buffer and waits for the workers to exit.
func (r *AsyncDecisionRecorder) Stop() {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.wg.Wait()
	})
}

// Stats returns enqueued, dropped, written and failed record counts.
func (r *AsyncDecisionRecorder) Stats() (enqueued, dropped, written, errors int64) {
	return atomic.LoadInt64(&r.enqueued),
		atomic.LoadInt64(&r.dropped),
		atomic.LoadInt64(&r.written),
		atomic.LoadInt64(&r.errors)
}
