package events

import (
	"testing"
	"time"

	"github.com/zeroaltitude/vestige/pkg/types"
)

func TestBroadcaster_DeliversToSubscriber(t *testing.T) {
	b := NewBroadcaster()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Publish(types.Event{Variant: types.EvMemoryCreated, MemoryID: "m1"})

	select {
	case e := <-ch:
		if e.MemoryID != "m1" {
			t.Errorf("expected memory_id m1, got %q", e.MemoryID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestBroadcaster_PublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	done := make(chan struct{})
	go func() {
		b.Publish(types.Event{Variant: types.EvHeartbeat})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}

func TestBroadcaster_DropsOldestWhenSubscriberFull(t *testing.T) {
	b := NewBroadcaster()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	for i := 0; i < channelCapacity+10; i++ {
		b.Publish(types.Event{Variant: types.EvHeartbeat, Detail: "fill"})
	}

	if len(ch) != channelCapacity {
		t.Errorf("expected channel to stay at capacity %d, got %d", channelCapacity, len(ch))
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch, unsubscribe := b.Subscribe()
	unsubscribe()

	_, ok := <-ch
	if ok {
		t.Errorf("expected channel to be closed after unsubscribe")
	}
}

func TestBroadcaster_MultipleSubscribersEachReceive(t *testing.T) {
	b := NewBroadcaster()
	ch1, unsub1 := b.Subscribe()
	ch2, unsub2 := b.Subscribe()
	defer unsub1()
	defer unsub2()

	b.Publish(types.Event{Variant: types.EvMemoryDeleted, MemoryID: "m2"})

	for _, ch := range []<-chan types.Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.MemoryID != "m2" {
				t.Errorf("expected memory_id m2, got %q", e.MemoryID)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for published event on one of the subscribers")
		}
	}
}
