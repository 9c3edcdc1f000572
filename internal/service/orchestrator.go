package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	apperrors "github.com/nicholasgasior/markitdown-api/pkg/errors"
)

// ConversionRequest is one upload handed to the orchestrator.
type ConversionRequest struct {
	Format   Format
	Filename string
	Data     []byte
}

type taskResult struct {
	res *Result
	err error
}

type task struct {
	req ConversionRequest
	// Buffered so a worker can always deliver, even when the waiter has
	// already given up on a timed-out request.
	result chan taskResult
}

// Orchestrator runs conversions on a fixed pool of workers with a bounded
// queue. A request that finds the queue full is rejected immediately, and a
// request whose conversion exceeds the timeout is answered without waiting
// for the worker.
type Orchestrator struct {
	backend Backend
	tasks   chan *task
	timeout time.Duration
	logger  *slog.Logger

	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewOrchestrator starts the worker pool. workers is the number of
// concurrent conversions, queueSize the number of requests allowed to wait
// beyond those.
func NewOrchestrator(backend Backend, workers, queueSize int, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := &Orchestrator{
		backend: backend,
		tasks:   make(chan *task, queueSize),
		timeout: timeout,
		logger:  logger,
		quit:    make(chan struct{}),
	}

	o.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go o.worker(i)
	}

	return o
}

// Convert queues the request and waits for its result. It returns
// ServiceBusy when the queue is full, ConversionTimeout when the conversion
// exceeds the configured timeout, and ConversionFailed when the backend
// reports an error or panics.
func (o *Orchestrator) Convert(ctx context.Context, req ConversionRequest) (*Result, error) {
	t := &task{req: req, result: make(chan taskResult, 1)}

	select {
	case o.tasks <- t:
		o.logger.Debug("conversion queued",
			"filename", req.Filename,
			"format", req.Format.String(),
			"bytes", len(req.Data),
		)
	default:
		o.logger.Warn("conversion rejected, queue full",
			"filename", req.Filename,
			"format", req.Format.String(),
		)
		return nil, apperrors.NewServiceBusy("Server is busy, please try again later")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	select {
	case r := <-t.result:
		return r.res, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			o.logger.Warn("conversion timed out",
				"filename", req.Filename,
				"format", req.Format.String(),
				"timeout", o.timeout.String(),
			)
			return nil, apperrors.NewConversionTimeout(fmt.Sprintf("Conversion timed out after %s", o.timeout))
		}
		return nil, ctx.Err()
	}
}

// Close stops the workers. Conversions already running finish; callers
// should have stopped submitting before closing.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.quit)
	})
	o.wg.Wait()
}

func (o *Orchestrator) worker(id int) {
	defer o.wg.Done()

	for {
		select {
		case <-o.quit:
			return
		case t := <-o.tasks:
			start := time.Now()
			o.logger.Debug("conversion started",
				"worker", id,
				"filename", t.req.Filename,
				"format", t.req.Format.String(),
			)

			r := o.run(t.req)
			t.result <- r

			outcome := "succeeded"
			if r.err != nil {
				outcome = "failed"
			}
			o.logger.Debug("conversion finished",
				"worker", id,
				"filename", t.req.Filename,
				"outcome", outcome,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
	}
}

// run executes one conversion, turning backend errors and panics into
// ConversionFailed results. A panic is contained here so it can never take
// down the worker or the process.
func (o *Orchestrator) run(req ConversionRequest) (tr taskResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("conversion backend panicked",
				"filename", req.Filename,
				"format", req.Format.String(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			tr = taskResult{err: apperrors.NewConversionFailed(
				"The conversion backend failed unexpectedly",
				fmt.Errorf("panic: %v", r),
			)}
		}
	}()

	res, err := o.backend.Convert(req.Data, req.Format, req.Filename)
	if err != nil {
		return taskResult{err: apperrors.NewConversionFailed(err.Error(), err)}
	}
	return taskResult{res: res}
}
