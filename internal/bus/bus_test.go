package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var received atomic.Int32
	var wg sync.WaitGroup

	err := bus.Subscribe(context.Background(), TopicSearchCompleted, func(ctx context.Context, event Event) error {
		received.Add(1)
		wg.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	wg.Add(3)
	for i := 0; i < 3; i++ {
		err := bus.Publish(context.Background(), TopicSearchCompleted,
			NewEvent(TopicSearchCompleted, "test", nil))
		if err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for events")
	}

	if got := received.Load(); got != 3 {
		t.Errorf("Received %d events, want 3", got)
	}
}

func TestMemoryBus_MultipleSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var count1, count2 atomic.Int32
	var wg sync.WaitGroup

	bus.Subscribe(context.Background(), TopicBusinessDiscovered, func(ctx context.Context, event Event) error {
		count1.Add(1)
		wg.Done()
		return nil
	})
	bus.Subscribe(context.Background(), TopicBusinessDiscovered, func(ctx context.Context, event Event) error {
		count2.Add(1)
		wg.Done()
		return nil
	})

	wg.Add(2)
	if err := bus.Publish(context.Background(), TopicBusinessDiscovered,
		NewEvent(TopicBusinessDiscovered, "test", nil)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for events")
	}

	if count1.Load() != 1 || count2.Load() != 1 {
		t.Errorf("counts = %d, %d; want 1, 1", count1.Load(), count2.Load())
	}
}

func TestMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	// Publishing without subscribers is not an error.
	if err := bus.Publish(context.Background(), TopicSearchCompleted,
		NewEvent(TopicSearchCompleted, "test", nil)); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}

func TestMemoryBus_Closed(t *testing.T) {
	bus := NewMemoryBus()
	bus.Close()

	if err := bus.Publish(context.Background(), TopicSearchCompleted, Event{}); err == nil {
		t.Error("expected error publishing to closed bus")
	}
	if err := bus.Subscribe(context.Background(), TopicSearchCompleted, nil); err == nil {
		t.Error("expected error subscribing to closed bus")
	}
}

func TestNewEvent(t *testing.T) {
	before := time.Now().Unix()
	event := NewEvent(TopicSearchCompleted, "search", map[string]any{"search_id": 1})

	if event.ID == "" {
		t.Error("expected a generated event ID")
	}
	if event.Type != TopicSearchCompleted {
		t.Errorf("Type = %s, want %s", event.Type, TopicSearchCompleted)
	}
	if event.Source != "search" {
		t.Errorf("Source = %s, want search", event.Source)
	}
	if event.Timestamp < before {
		t.Errorf("Timestamp = %d, want >= %d", event.Timestamp, before)
	}
}

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"localhost:9092", 1},
		{"broker1:9092,broker2:9092", 2},
		{" broker1:9092 , , broker2:9092 ", 2},
	}

	for _, tt := range tests {
		if got := ParseBrokers(tt.input); len(got) != tt.want {
			t.Errorf("ParseBrokers(%q) = %v, want %d brokers", tt.input, got, tt.want)
		}
	}
}
