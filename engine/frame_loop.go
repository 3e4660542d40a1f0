package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrLoopStopped is returned by Run when the loop was stopped with Stop
var ErrLoopStopped = errors.New("frame loop stopped")

// FrameFunc is called once per frame with the time since the loop started
type FrameFunc func(now time.Duration)

// FrameLoop is the single owner goroutine of game state
// Frames, posted tasks (timer callbacks, input, async results) all run on it,
// interleaving only between callbacks
type FrameLoop struct {
	interval time.Duration
	clock    TimeProvider
	tasks    chan func()
	log      *zap.Logger

	start  time.Time
	frames atomic.Uint64

	running  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewFrameLoop creates a loop ticking at interval with a task queue of queueSize
func NewFrameLoop(interval time.Duration, clock TimeProvider, queueSize int) *FrameLoop {
	if clock == nil {
		clock = NewMonotonicTimeProvider()
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &FrameLoop{
		interval: interval,
		clock:    clock,
		tasks:    make(chan func(), queueSize),
		log:      zap.NewNop(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SetLogger sets the loop logger, must be called before Run
func (l *FrameLoop) SetLogger(log *zap.Logger) {
	if log != nil {
		l.log = log
	}
}

// Post queues fn to run on the loop goroutine
// Returns false once the loop has exited; fn is then dropped
func (l *FrameLoop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Frames returns the number of frames rendered so far
func (l *FrameLoop) Frames() uint64 {
	return l.frames.Load()
}

// Run blocks, dispatching tasks and frames until ctx is cancelled or Stop is called
func (l *FrameLoop) Run(ctx context.Context, frame FrameFunc) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("frame loop already running")
	}
	defer close(l.done)

	l.start = l.clock.Now()
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	// First frame establishes the time base
	frame(0)
	l.frames.Add(1)

	for {
		select {
		case <-ctx.Done():
			l.drop()
			return ctx.Err()

		case <-l.stopChan:
			l.drop()
			return ErrLoopStopped

		case fn := <-l.tasks:
			fn()

		case <-ticker.C:
			frame(l.clock.Now().Sub(l.start))
			l.frames.Add(1)
		}
	}
}

// Stop ends Run from any goroutine
func (l *FrameLoop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
}

// Done is closed when Run returns
func (l *FrameLoop) Done() <-chan struct{} {
	return l.done
}

// drop discards queued tasks so nothing mutates state after teardown
func (l *FrameLoop) drop() {
	n := 0
	for {
		select {
		case <-l.tasks:
			n++
		default:
			if n > 0 {
				l.log.Debug("dropped queued tasks at teardown", zap.Int("count", n))
			}
			return
		}
	}
}
