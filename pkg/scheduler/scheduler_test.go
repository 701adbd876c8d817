package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsTasks(t *testing.T) {
	s := New(nil)
	var runs int64
	s.Every(10*time.Millisecond, "counter", func(ctx context.Context) error {
		atomic.AddInt64(&runs, 1)
		return nil
	})

	s.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	assert.Greater(t, atomic.LoadInt64(&runs), int64(1))
}

func TestSchedulerSurvivesTaskErrors(t *testing.T) {
	s := New(nil)
	var runs int64
	s.Every(10*time.Millisecond, "failing", func(ctx context.Context) error {
		atomic.AddInt64(&runs, 1)
		return errors.New("boom")
	})

	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	// Errors are logged, not fatal: the task keeps being rescheduled.
	assert.Greater(t, atomic.LoadInt64(&runs), int64(1))
}

func TestSchedulerStopBeforeStart(t *testing.T) {
	s := New(nil)
	s.Stop()
}

func TestSchedulerStopCancelsContext(t *testing.T) {
	s := New(nil)
	done := make(chan struct{})
	var once int32
	s.Every(5*time.Millisecond, "watcher", func(ctx context.Context) error {
		if atomic.CompareAndSwapInt32(&once, 0, 1) {
			go func() {
				<-ctx.Done()
				close(done)
			}()
		}
		return nil
	})

	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task context was not cancelled on Stop")
	}
}
