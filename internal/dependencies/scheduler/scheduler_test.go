package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRunsTask(t *testing.T) {
	s := New()
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule("room-1", 10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	assert.False(t, s.Pending("room-1"))
}

func TestCancelSuppressesTask(t *testing.T) {
	s := New()
	defer s.Stop()

	var ran atomic.Bool
	s.Schedule("room-1", 20*time.Millisecond, func() { ran.Store(true) })
	require.True(t, s.Pending("room-1"))

	assert.True(t, s.Cancel("room-1"))
	assert.False(t, s.Cancel("room-1"))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestScheduleReplacesExistingTask(t *testing.T) {
	s := New()
	defer s.Stop()

	var first, second atomic.Bool
	done := make(chan struct{})
	s.Schedule("room-1", 20*time.Millisecond, func() { first.Store(true) })
	s.Schedule("room-1", 30*time.Millisecond, func() {
		second.Store(true)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("replacement task did not run")
	}
	assert.False(t, first.Load())
	assert.True(t, second.Load())
}

func TestKeysAreIndependent(t *testing.T) {
	s := New()
	defer s.Stop()

	s.Schedule("room-1", time.Hour, func() {})
	s.Schedule("room-2", time.Hour, func() {})

	s.Cancel("room-1")
	assert.False(t, s.Pending("room-1"))
	assert.True(t, s.Pending("room-2"))
}

func TestStopRejectsNewTasks(t *testing.T) {
	s := New()
	s.Schedule("room-1", time.Hour, func() {})
	s.Stop()

	assert.False(t, s.Pending("room-1"))
	s.Schedule("room-2", time.Millisecond, func() {})
	assert.False(t, s.Pending("room-2"))
}
