// Package audit persists recognition events without ever blocking the
// recognition path. Events flow through a buffered channel into a single
// writer goroutine; when the buffer is full the event is dropped and
// counted, because a recognition answer is worth more than its audit trail.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/recall/internal/database"
	"github.com/kozaktomas/recall/internal/recognition"
)

// writeTimeout bounds one event insert.
const writeTimeout = 5 * time.Second

// Recorder implements recognition.AuditSink on an EventRepository.
type Recorder struct {
	repo    database.EventRepository
	queue   chan recognition.Event
	dropped atomic.Int64
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewRecorder starts a recorder with the given queue capacity.
func NewRecorder(repo database.EventRepository, capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 256
	}
	r := &Recorder{
		repo:  repo,
		queue: make(chan recognition.Event, capacity),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// RecordRecognition enqueues an event. It never blocks: if the queue is
// full or the recorder is already closed, the event is dropped.
func (r *Recorder) RecordRecognition(ev recognition.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.countDrop()
		return
	}
	select {
	case r.queue <- ev:
	default:
		r.countDrop()
	}
}

// Close stops accepting events and waits for the queue to drain.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Recorder) countDrop() {
	if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
		log.Printf("dropped %d recognition events so far", n)
	}
}

// Dropped returns how many events were lost to a full queue.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for ev := range r.queue {
		r.write(ev)
	}
}

func (r *Recorder) write(ev recognition.Event) {
	candidates, err := json.Marshal(ev.Candidates)
	if err != nil {
		candidates = []byte("[]")
	}

	record := &database.RecognitionEvent{
		PatientID:       ev.PatientID,
		Status:          string(ev.Status),
		WinnerPersonID:  ev.WinnerPersonID,
		ConfidenceScore: ev.ConfidenceScore,
		ConfidenceBand:  string(ev.ConfidenceBand),
		FaceDetected:    ev.FaceDetected,
		UsedTieBreak:    ev.UsedTieBreak,
		CandidatesJSON:  candidates,
		ElapsedMs:       ev.Elapsed.Milliseconds(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.repo.Insert(ctx, record); err != nil {
		log.Printf("failed to store recognition event: %v", err)
	}
}
