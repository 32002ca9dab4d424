package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/localnerve/chapterviewer/internal/types"
)

// ErrClosed is reported by saves requested after Close.
var ErrClosed = errors.New("state store closed")

var (
	saveFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chapterviewer_state_save_failures_total",
		Help: "Record saves that failed after all retries.",
	}, []string{"kind"})
	saveRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chapterviewer_state_save_retries_total",
		Help: "Record save attempts that were retried.",
	}, []string{"kind"})
)

type saveJob struct {
	kind types.Kind
	data json.RawMessage
	done chan struct{}
	err  error
}

func (j *saveJob) finish(err error) {
	j.err = err
	close(j.done)
}

// Pending is the outcome of the saves a mutation queued. The zero value (and
// a Pending for a mutation that changed nothing) completes immediately.
type Pending struct {
	jobs []*saveJob
}

// Done reports whether every save has finished.
func (p Pending) Done() bool {
	for _, j := range p.jobs {
		select {
		case <-j.done:
		default:
			return false
		}
	}
	return true
}

// Wait blocks until every save finished or ctx ends. It returns the joined
// save errors, or ctx's error if it ended first.
func (p Pending) Wait(ctx context.Context) error {
	var errs []error
	for _, j := range p.jobs {
		select {
		case <-j.done:
			if j.err != nil {
				errs = append(errs, j.err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Join(errs...)
}

func failedPending(kind types.Kind, err error) Pending {
	j := &saveJob{kind: kind, done: make(chan struct{})}
	j.finish(err)
	return Pending{jobs: []*saveJob{j}}
}

// saveSlot holds the newest unsaved snapshot of one kind. A save carries the
// whole record, so a snapshot queued while another waits replaces it and the
// waiters of both share its result.
type saveSlot struct {
	mu   sync.Mutex
	next *saveJob
	wake chan struct{}
}

// enqueueLocked schedules a save of data and never blocks. Callers hold s.mu
// so a newer snapshot of a kind always replaces an older one.
func (s *Store) enqueueLocked(kind types.Kind, data json.RawMessage) *saveJob {
	s.qmu.RLock()
	defer s.qmu.RUnlock()
	if s.closed {
		j := &saveJob{kind: kind, done: make(chan struct{})}
		j.finish(ErrClosed)
		return j
	}

	slot := s.slots[kind]
	slot.mu.Lock()
	j := slot.next
	if j == nil {
		j = &saveJob{kind: kind, done: make(chan struct{})}
		slot.next = j
	}
	j.data = data
	slot.mu.Unlock()

	select {
	case slot.wake <- struct{}{}:
	default:
	}
	return j
}

// take removes the waiting snapshot, nil when there is none.
func (slot *saveSlot) take() *saveJob {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	j := slot.next
	slot.next = nil
	return j
}

func (s *Store) startWorkers() {
	for _, kind := range types.Kinds() {
		slot := &saveSlot{wake: make(chan struct{}, 1)}
		s.slots[kind] = slot
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			for range slot.wake {
				if j := slot.take(); j != nil {
					j.finish(s.save(j))
				}
			}
			if j := slot.take(); j != nil {
				j.finish(s.save(j))
			}
		}()
	}
}

func (s *Store) save(j *saveJob) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.RetryInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		if attempt > 0 {
			saveRetries.WithLabelValues(j.kind.String()).Inc()
		}
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SaveTimeout)
		defer cancel()
		return s.backend.Save(ctx, j.kind, j.data)
	}

	err := backoff.Retry(op, backoff.WithMaxRetries(policy, s.cfg.MaxRetries))
	if err != nil {
		saveFailures.WithLabelValues(j.kind.String()).Inc()
		log.Printf("Failed to save %s after %d attempts: %v", j.kind, attempt, err)
		return fmt.Errorf("save %s: %w", j.kind, err)
	}
	return nil
}

// Close stops accepting saves and waits for the last snapshot of each kind to
// be saved, or for ctx to end.
func (s *Store) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.qmu.Lock()
		s.closed = true
		for _, slot := range s.slots {
			close(slot.wake)
		}
		s.qmu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for pending saves: %w", ctx.Err())
	}
}

// defaultSaveTimeout bounds one backend save attempt.
const defaultSaveTimeout = 10 * time.Second
