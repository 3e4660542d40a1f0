package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	taskPending int32 = iota
	taskQueued
	taskDone
	taskCancelled
)

type timerTask struct {
	id    uint64
	timer *time.Timer
	state atomic.Int32
}

// TimerScheduler runs delayed callbacks on the owner goroutine
// time.AfterFunc only posts the callback; post is usually FrameLoop.Post
type TimerScheduler struct {
	post func(func()) bool

	mu     sync.Mutex
	nextID uint64
	tasks  map[uint64]*timerTask
	closed bool
}

// NewTimerScheduler creates a scheduler that delivers through post
func NewTimerScheduler(post func(func()) bool) *TimerScheduler {
	return &TimerScheduler{
		post:  post,
		tasks: make(map[uint64]*timerTask),
	}
}

// Schedule runs fn after delay unless cancelled first
func (s *TimerScheduler) Schedule(fn func(), delay time.Duration) func() bool {
	task := &timerTask{}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() bool { return false }
	}
	s.nextID++
	task.id = s.nextID
	s.tasks[task.id] = task

	run := func() {
		if task.state.CompareAndSwap(taskQueued, taskDone) {
			s.forget(task.id)
			fn()
		}
	}
	task.timer = time.AfterFunc(delay, func() {
		if !task.state.CompareAndSwap(taskPending, taskQueued) {
			return
		}
		if !s.post(run) {
			task.state.Store(taskCancelled)
			s.forget(task.id)
		}
	})
	s.mu.Unlock()

	return func() bool { return s.cancel(task) }
}

func (s *TimerScheduler) cancel(task *timerTask) bool {
	for {
		st := task.state.Load()
		if st == taskDone || st == taskCancelled {
			return false
		}
		if task.state.CompareAndSwap(st, taskCancelled) {
			task.timer.Stop()
			s.forget(task.id)
			return true
		}
	}
}

func (s *TimerScheduler) forget(id uint64) {
	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
}

// Pending returns the number of callbacks not yet run or cancelled
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Close cancels every outstanding callback and rejects new ones
func (s *TimerScheduler) Close() int {
	s.mu.Lock()
	s.closed = true
	tasks := make([]*timerTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	n := 0
	for _, t := range tasks {
		if s.cancel(t) {
			n++
		}
	}
	return n
}
