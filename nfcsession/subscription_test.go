package nfcsession

import (
	"testing"
	"time"
)

func TestSubscription_DeliversInOrder(t *testing.T) {
	sub := NewSubscription(4)
	sub.Publish(Event{Kind: EventDiscoverTag, Tag: &TagDescriptor{ID: "01"}})
	sub.Publish(Event{Kind: EventSessionClosed})

	ev, ok := sub.Next()
	if !ok || ev.Kind != EventDiscoverTag || ev.Tag.ID != "01" {
		t.Errorf("first event = %+v, %v", ev, ok)
	}
	ev, ok = sub.Next()
	if !ok || ev.Kind != EventSessionClosed {
		t.Errorf("second event = %+v, %v", ev, ok)
	}
}

func TestSubscription_FullBufferDrops(t *testing.T) {
	sub := NewSubscription(1)
	if !sub.Publish(Event{Kind: EventSessionClosed}) {
		t.Fatal("first publish should be queued")
	}
	if sub.Publish(Event{Kind: EventSessionClosed}) {
		t.Error("publish into a full buffer should not block or queue")
	}
}

func TestSubscription_CloseSkipsBufferedEvents(t *testing.T) {
	sub := NewSubscription(4)
	sub.Publish(Event{Kind: EventSessionClosed})
	sub.Close()
	sub.Close()

	if sub.Publish(Event{Kind: EventSessionClosed}) {
		t.Error("publish after Close should be dropped")
	}
	if _, ok := sub.Next(); ok {
		t.Error("Next should report closed even with buffered events")
	}
}

func TestSubscription_CloseUnblocksNext(t *testing.T) {
	sub := NewSubscription(0)
	done := make(chan bool)
	go func() {
		_, ok := sub.Next()
		done <- ok
	}()

	sub.Close()
	select {
	case ok := <-done:
		if ok {
			t.Error("Next returned an event after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Close")
	}
}

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster()
	a, c := &recordingNotifier{}, &recordingNotifier{}
	b.Attach("a", a)
	b.Attach("c", c)

	b.Notify(NoticeInProgress)
	b.TagDiscovered(TagDescriptor{ID: "04AABBCC"})
	b.StateChanged(StatePending)

	for name, n := range map[string]*recordingNotifier{"a": a, "c": c} {
		if len(n.Notices()) != 1 || len(n.Tags()) != 1 || len(n.States()) != 1 {
			t.Errorf("view %s missed events", name)
		}
	}

	last, ok := b.LastNotice()
	if !ok || last != NoticeInProgress {
		t.Errorf("LastNotice() = %+v, %v", last, ok)
	}

	b.Detach("a")
	b.Notify(NoticeReadError)
	if len(a.Notices()) != 1 {
		t.Error("detached view should not receive notices")
	}
	if len(c.Notices()) != 2 {
		t.Error("attached view should keep receiving notices")
	}
	if b.Views() != 1 {
		t.Errorf("Views() = %d, want 1", b.Views())
	}
}
