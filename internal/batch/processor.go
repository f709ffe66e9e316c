// Package batch fans submitted telegram lines out to the parsing pipeline
// under a bounded worker pool, enforcing a per-batch timeout and
// per-message failure isolation.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"telegram_parser/internal/assembler"
	"telegram_parser/internal/extractors"
	"telegram_parser/internal/telegram"
)

// Status is the batch lifecycle state. Completed and failed are terminal.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Submission errors, rejected before processing starts.
var (
	ErrEmptyBatch       = errors.New("batch has no messages")
	ErrTooManyMessages  = errors.New("batch exceeds the configured message limit")
	ErrDuplicateBatchID = errors.New("batch id already submitted")
)

// Config holds batch processor settings.
type Config struct {
	Workers     int           // bounded worker pool size
	Timeout     time.Duration // wall-clock limit per batch
	MaxMessages int           // oversized input is rejected up front
}

// DefaultConfig returns settings suitable for local development.
func DefaultConfig() Config {
	return Config{
		Workers:     4,
		Timeout:     60 * time.Second,
		MaxMessages: 10_000,
	}
}

// Snapshot is an immutable view of a batch's progress, safe to poll.
// Invariants: Processed <= Total and Valid+Invalid == Processed.
type Snapshot struct {
	ID           string     `json:"id"`
	Status       Status     `json:"status"`
	Total        int        `json:"total"`
	Processed    int        `json:"processed"`
	Valid        int        `json:"valid"`
	Invalid      int        `json:"invalid"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
}

type batchState struct {
	snap Snapshot
	done chan struct{}
}

// Processor runs batches through tokenise -> extract -> assemble.
type Processor struct {
	cfg      Config
	registry *extractors.Registry
	asm      *assembler.Assembler

	mu      sync.Mutex
	batches map[string]*batchState

	onMessage func(*telegram.ParsedMessage)
}

// New creates a processor over the given registry and assembler.
func New(cfg Config, registry *extractors.Registry, asm *assembler.Assembler) *Processor {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultConfig().MaxMessages
	}
	return &Processor{
		cfg:      cfg,
		registry: registry,
		asm:      asm,
		batches:  make(map[string]*batchState),
	}
}

// OnMessageParsed sets the audit callback, invoked once per processed
// message. Set it before the first Submit.
func (p *Processor) OnMessageParsed(fn func(*telegram.ParsedMessage)) {
	p.onMessage = fn
}

// Handle lets callers poll and await one submitted batch.
type Handle struct {
	p    *Processor
	id   string
	done chan struct{}
}

// ID returns the batch identifier.
func (h *Handle) ID() string { return h.id }

// Snapshot returns the current batch progress.
func (h *Handle) Snapshot() Snapshot {
	snap, _ := h.p.Snapshot(h.id)
	return snap
}

// Wait blocks until the batch reaches a terminal status.
func (h *Handle) Wait() Snapshot {
	<-h.done
	return h.Snapshot()
}

// Submit validates and starts processing of a batch. Empty and oversized
// input are rejected before any message is touched. Processing continues
// in the background; poll or Wait on the returned handle.
func (p *Processor) Submit(ctx context.Context, batchID string, lines []string, source telegram.Source) (*Handle, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(lines) > p.cfg.MaxMessages {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyMessages, len(lines), p.cfg.MaxMessages)
	}

	st := &batchState{
		snap: Snapshot{
			ID:        batchID,
			Status:    StatusProcessing,
			Total:     len(lines),
			StartTime: time.Now(),
		},
		done: make(chan struct{}),
	}

	p.mu.Lock()
	if _, exists := p.batches[batchID]; exists {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateBatchID, batchID)
	}
	p.batches[batchID] = st
	p.mu.Unlock()

	go p.run(ctx, st, batchID, lines, source)

	return &Handle{p: p, id: batchID, done: st.done}, nil
}

// run processes the batch lines under the worker pool. Each message's
// effect is applied atomically; a single message failure never aborts the
// batch. On timeout the already-processed counters freeze and the batch
// fails with an explicit reason.
func (p *Processor) run(ctx context.Context, st *batchState, batchID string, lines []string, source telegram.Source) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, line := range lines {
		if gctx.Err() != nil {
			break
		}
		i, line := i, line
		g.Go(func() error {
			// Abandon cooperatively: a message is either fully applied
			// and counted, or not started at all.
			if gctx.Err() != nil {
				return nil
			}

			raw := telegram.RawMessage{
				ID:      fmt.Sprintf("%s/%d", batchID, i+1),
				Text:    line,
				Source:  source,
				BatchID: batchID,
			}
			msg := p.registry.Dispatch(raw)
			p.asm.Apply(msg)
			if p.onMessage != nil {
				p.onMessage(msg)
			}

			p.mu.Lock()
			st.snap.Processed++
			if msg.IsValid() {
				st.snap.Valid++
			} else {
				st.snap.Invalid++
			}
			p.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	now := time.Now()
	p.mu.Lock()
	st.snap.EndTime = &now
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		st.snap.Status = StatusFailed
		st.snap.ErrorMessage = fmt.Sprintf("batch timeout exceeded after %s", p.cfg.Timeout)
	case ctx.Err() != nil:
		st.snap.Status = StatusFailed
		st.snap.ErrorMessage = ctx.Err().Error()
	default:
		st.snap.Status = StatusCompleted
	}
	p.mu.Unlock()

	close(st.done)
}

// Snapshot returns the progress of a batch by id.
func (p *Processor) Snapshot(batchID string) (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.batches[batchID]
	if !ok {
		return Snapshot{}, false
	}
	return st.snap, true
}
