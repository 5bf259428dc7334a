package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTurnClock_Fires(t *testing.T) {
	c := NewTurnClock()
	fired := make(chan struct{})

	c.Arm(20*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("Clock never fired")
	}
}

func TestTurnClock_DisarmPreventsFire(t *testing.T) {
	c := NewTurnClock()
	var fires int32

	c.Arm(20*time.Millisecond, func() { atomic.AddInt32(&fires, 1) })
	c.Disarm()

	time.Sleep(100 * time.Millisecond)
	if n := atomic.LoadInt32(&fires); n != 0 {
		t.Errorf("Disarmed clock fired %d times", n)
	}
}

func TestTurnClock_RearmCancelsPrevious(t *testing.T) {
	c := NewTurnClock()
	var first, second int32

	c.Arm(20*time.Millisecond, func() { atomic.AddInt32(&first, 1) })
	c.Arm(40*time.Millisecond, func() { atomic.AddInt32(&second, 1) })

	time.Sleep(150 * time.Millisecond)
	if n := atomic.LoadInt32(&first); n != 0 {
		t.Errorf("Replaced timer fired %d times", n)
	}
	if n := atomic.LoadInt32(&second); n != 1 {
		t.Errorf("Expected the replacement timer to fire once, got %d", n)
	}
}

func TestTurnClock_DisarmIsIdempotent(t *testing.T) {
	c := NewTurnClock()
	c.Disarm()
	c.Disarm()

	c.Arm(20*time.Millisecond, func() {})
	c.Disarm()
	c.Disarm()
}
