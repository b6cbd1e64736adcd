package breaker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCircuitBreaker_Initial(t *testing.T) {
	cb := New(nil)

	if cb.State() != Closed {
		t.Errorf("expected initial state Closed, got %v", cb.State())
	}

	if err := cb.Allow(); err != nil {
		t.Errorf("expected Allow() to succeed, got %v", err)
	}
}

func TestCircuitBreaker_OpenAfterErrors(t *testing.T) {
	config := &Config{
		MaxConsecutiveFailures: 3,
		ResetTimeout:           1 * time.Second,
		SuccessThreshold:       2,
	}
	cb := New(config)

	for i := 0; i < 3; i++ {
		cb.RecordError()
	}

	if cb.State() != Open {
		t.Errorf("expected state Open after 3 errors, got %v", cb.State())
	}

	err := cb.Allow()
	if err != ErrOpen {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}

func TestCircuitBreaker_ResetToHalfOpen(t *testing.T) {
	config := &Config{
		MaxConsecutiveFailures: 2,
		ResetTimeout:           50 * time.Millisecond,
		SuccessThreshold:       1,
	}
	cb := New(config)

	cb.RecordError()
	cb.RecordError()

	if cb.State() != Open {
		t.Fatalf("expected circuit to be open")
	}

	time.Sleep(100 * time.Millisecond)

	if err := cb.Allow(); err != nil {
		t.Errorf("expected Allow() to succeed after timeout, got %v", err)
	}

	if cb.State() != HalfOpen {
		t.Errorf("expected state HalfOpen, got %v", cb.State())
	}
}

func TestCircuitBreaker_CloseFromHalfOpen(t *testing.T) {
	config := &Config{
		MaxConsecutiveFailures: 2,
		ResetTimeout:           50 * time.Millisecond,
		SuccessThreshold:       2,
	}
	cb := New(config)

	cb.RecordError()
	cb.RecordError()

	time.Sleep(100 * time.Millisecond)
	cb.Allow()

	cb.RecordSuccess()
	cb.RecordSuccess()

	if cb.State() != Closed {
		t.Errorf("expected state Closed after successes, got %v", cb.State())
	}
}

func TestCircuitBreaker_OpenFromHalfOpen(t *testing.T) {
	config := &Config{
		MaxConsecutiveFailures: 2,
		ResetTimeout:           50 * time.Millisecond,
		SuccessThreshold:       2,
	}
	cb := New(config)

	cb.RecordError()
	cb.RecordError()

	time.Sleep(100 * time.Millisecond)
	cb.Allow()

	if cb.State() != HalfOpen {
		t.Fatalf("expected state HalfOpen")
	}

	cb.RecordError()

	if cb.State() != Open {
		t.Errorf("expected state Open after error in half-open, got %v", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	config := &Config{
		MaxConsecutiveFailures: 2,
		ResetTimeout:           1 * time.Second,
		SuccessThreshold:       2,
	}
	cb := New(config)

	cb.RecordError()
	cb.RecordError()

	if cb.State() != Open {
		t.Fatalf("expected circuit to be open")
	}

	cb.Reset()

	if cb.State() != Closed {
		t.Errorf("expected state Closed after reset, got %v", cb.State())
	}

	if err := cb.Allow(); err != nil {
		t.Errorf("expected Allow() to succeed after reset, got %v", err)
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := New(&Config{
		MaxConsecutiveFailures: 2,
		ResetTimeout:           1 * time.Second,
		SuccessThreshold:       1,
	})

	err := cb.Execute(func() error { return nil })
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	testErr := errors.New("test error")
	for i := 0; i < 2; i++ {
		err = cb.Execute(func() error { return testErr })
		if err != testErr {
			t.Errorf("expected test error, got %v", err)
		}
	}

	err = cb.Execute(func() error { return nil })
	if err != ErrOpen {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var changes []struct{ from, to State }

	config := &Config{
		MaxConsecutiveFailures: 2,
		ResetTimeout:           50 * time.Millisecond,
		SuccessThreshold:       1,
		OnStateChange: func(from, to State) {
			changes = append(changes, struct{ from, to State }{from, to})
		},
	}
	cb := New(config)

	cb.RecordError()
	cb.RecordError()

	time.Sleep(100 * time.Millisecond)
	cb.Allow()

	cb.RecordSuccess()

	if len(changes) != 3 {
		t.Errorf("expected 3 state changes, got %d", len(changes))
	}

	expected := []struct{ from, to State }{
		{Closed, Open},
		{Open, HalfOpen},
		{HalfOpen, Closed},
	}

	for i, change := range changes {
		if change.from != expected[i].from || change.to != expected[i].to {
			t.Errorf("change %d: expected %v->%v, got %v->%v",
				i, expected[i].from, expected[i].to, change.from, change.to)
		}
	}
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := New(&Config{
		MaxConsecutiveFailures: 100,
		ResetTimeout:           1 * time.Second,
		SuccessThreshold:       10,
	})

	var wg sync.WaitGroup
	var ops atomic.Int64

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cb.Allow()
				if j%2 == 0 {
					cb.RecordSuccess()
				} else {
					cb.RecordError()
				}
				ops.Add(1)
			}
		}()
	}

	wg.Wait()

	if ops.Load() != 1000 {
		t.Errorf("expected 1000 operations, got %d", ops.Load())
	}
}

func TestCircuitBreaker_Metrics(t *testing.T) {
	cb := New(&Config{
		MaxConsecutiveFailures: 5,
		ResetTimeout:           1 * time.Second,
		SuccessThreshold:       2,
	})

	cb.RecordError()
	cb.RecordError()
	cb.RecordSuccess()

	metrics := cb.Metrics()

	if metrics.State != Closed {
		t.Errorf("expected state Closed, got %v", metrics.State)
	}

	if metrics.ErrorCount != 0 {
		t.Errorf("expected error count 0, got %d", metrics.ErrorCount)
	}
}

func BenchmarkCircuitBreaker_Allow_Closed(b *testing.B) {
	cb := New(nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cb.Allow()
	}
}

func BenchmarkCircuitBreaker_Execute(b *testing.B) {
	cb := New(nil)
	fn := func() error { return nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cb.Execute(fn)
	}
}
