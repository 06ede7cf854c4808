package events

import (
	"testing"
	"time"
)

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(Event{Type: TypeCatalogChanged, VideoID: "abc"})

	select {
	case event := <-ch:
		if event.Type != TypeCatalogChanged {
			t.Errorf("Expected %s, got %s", TypeCatalogChanged, event.Type)
		}
		if event.VideoID != "abc" {
			t.Errorf("Expected video id abc, got %s", event.VideoID)
		}
		if event.Timestamp.IsZero() {
			t.Error("Expected timestamp to be set")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestHub_MultipleSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch1, cancel1 := hub.Subscribe()
	defer cancel1()
	ch2, cancel2 := hub.Subscribe()
	defer cancel2()

	hub.Publish(Event{Type: TypeCatalogChanged})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("Subscriber %d did not receive event", i)
		}
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, cancel := hub.Subscribe()
	cancel()

	// channel is closed after cancel
	if _, ok := <-ch; ok {
		t.Error("Expected closed channel after cancel")
	}

	// publishing after cancel must not panic
	hub.Publish(Event{Type: TypeCatalogChanged})
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, cancel := hub.Subscribe()
	defer cancel()

	// overflow the buffer; publish must never block
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish(Event{Type: TypeCatalogChanged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			if received == 0 || received > subscriberBuffer {
				t.Errorf("Expected between 1 and %d buffered events, got %d", subscriberBuffer, received)
			}
			return
		}
	}
}
