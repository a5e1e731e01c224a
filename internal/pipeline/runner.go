package pipeline

import (
	"context"
	"errors"
	"sync"

	appLog "icsweek/internal/log"
)

// ErrSuperseded is returned for a request replaced by a newer one before
// its output was written.
var ErrSuperseded = errors.New("superseded by a newer request")

// Runner serializes document generation with last-request-wins semantics:
// submitting a request cancels any in-flight one, and only the most recent
// request may write its output.
type Runner struct {
	p *Pipeline

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc

	writeMu sync.Mutex
}

// NewRunner wraps p.
func NewRunner(p *Pipeline) *Runner {
	return &Runner{p: p}
}

// Submit runs req, cancelling whatever was running before it. It blocks
// until req is written, fails, or is superseded.
func (r *Runner) Submit(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.seq++
	id := r.seq
	r.cancel = cancel
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.seq == id {
			r.cancel = nil
		}
		r.mu.Unlock()
	}()

	res, err := r.p.Build(ctx, req)
	if err != nil {
		if r.stale(id) {
			appLog.Debug("request superseded during build", "id", id)
			return nil, ErrSuperseded
		}
		return nil, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if r.stale(id) {
		appLog.Debug("request superseded before write", "id", id)
		return nil, ErrSuperseded
	}
	if err := r.p.Write(res); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Runner) stale(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq != id
}
