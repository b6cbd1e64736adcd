package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTopic_DeliversToAllSubscribers(t *testing.T) {
	topic := NewTopic[int]()
	defer topic.Close()

	var a, b atomic.Int32
	topic.Subscribe(func(v int) { a.Add(int32(v)) })
	topic.Subscribe(func(v int) { b.Add(int32(v)) })

	topic.Publish(1)
	topic.Publish(2)

	deadline := time.Now().Add(time.Second)
	for (a.Load() != 3 || b.Load() != 3) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if a.Load() != 3 {
		t.Errorf("expected subscriber a to see sum 3, got %d", a.Load())
	}
	if b.Load() != 3 {
		t.Errorf("expected subscriber b to see sum 3, got %d", b.Load())
	}
}

func TestTopic_UnsubscribeStopsDelivery(t *testing.T) {
	topic := NewTopic[int]()
	defer topic.Close()

	var count atomic.Int32
	sub := topic.Subscribe(func(v int) { count.Add(1) })
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	topic.Publish(1)
	time.Sleep(20 * time.Millisecond)

	if count.Load() != 0 {
		t.Errorf("expected no delivery after Unsubscribe, got %d", count.Load())
	}
}

func TestTopic_PublishAfterCloseIsNoop(t *testing.T) {
	topic := NewTopic[int]()
	topic.Close()
	topic.Close() // idempotent

	topic.Subscribe(func(v int) { t.Error("handler should never run on a closed topic") })
	topic.Publish(1)
	time.Sleep(10 * time.Millisecond)
}

func TestTopic_DropsOnFullBuffer(t *testing.T) {
	topic := NewTopic[int]()
	defer topic.Close()

	release := make(chan struct{})
	topic.SubscribeBuffered(func(v int) { <-release }, 1)

	// First value fills the handler goroutine; second fills the buffer;
	// the rest must be dropped rather than block Publish.
	for i := 0; i < 10; i++ {
		topic.Publish(i)
	}
	close(release)
}

func TestNotifier_DeliversSynchronouslyInOrder(t *testing.T) {
	notifier := NewNotifier[int]()
	defer notifier.Close()

	var order []int
	var mu sync.Mutex
	for i := 0; i < 3; i++ {
		i := i
		notifier.Subscribe(func(v int) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	notifier.Notify(42)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("expected 3 synchronous invocations, got %d", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Errorf("expected subscriber %d to run at position %d, got order %v", i, i, order)
		}
	}
}

func TestNotifier_MutationVisibleAfterNotifyReturns(t *testing.T) {
	type flag struct{ cancel bool }
	notifier := NewNotifier[*flag]()
	defer notifier.Close()

	notifier.Subscribe(func(f *flag) { f.cancel = true })

	f := &flag{}
	notifier.Notify(f)

	if !f.cancel {
		t.Error("expected subscriber mutation to be visible once Notify returns")
	}
}

func TestNotifier_PanicDoesNotStopLaterSubscribers(t *testing.T) {
	notifier := NewNotifier[int]()
	defer notifier.Close()

	var ran atomic.Bool
	notifier.Subscribe(func(v int) { panic("boom") })
	notifier.Subscribe(func(v int) { ran.Store(true) })

	notifier.Notify(1)

	if !ran.Load() {
		t.Error("expected the second subscriber to still run after the first panicked")
	}
}
