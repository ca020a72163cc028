package events

import (
	"fmt"
	"testing"
	"time"
)

func TestNilBusIsNoOp(t *testing.T) {
	var b *Bus

	// Must not panic.
	b.Publish(Event{Source: SourceAdvisor, Kind: KindMessageAnalyzed})

	if got := b.Recent(10); got != nil {
		t.Errorf("Recent on nil bus = %v, want nil", got)
	}
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount on nil bus = %d, want 0", got)
	}
}

func TestPublishSingleSubscriber(t *testing.T) {
	b := New()
	ch := b.Subscribe(1)
	defer b.Unsubscribe(ch)

	sent := Event{Source: SourceClassifier, Kind: KindModelRetrained}
	b.Publish(sent)

	select {
	case got := <-ch:
		if got.Source != sent.Source || got.Kind != sent.Kind {
			t.Errorf("received (%q, %q), want (%q, %q)", got.Source, got.Kind, sent.Source, sent.Kind)
		}
		if got.Timestamp.IsZero() {
			t.Error("publish should stamp a zero timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishDropsWhenSubscriberFull(t *testing.T) {
	b := New()
	ch := b.Subscribe(1)
	defer b.Unsubscribe(ch)

	// Second publish must not block even though nothing drains ch.
	done := make(chan struct{})
	go func() {
		b.Publish(Event{Kind: "first"})
		b.Publish(Event{Kind: "second"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	if got := <-ch; got.Kind != "first" {
		t.Errorf("buffered event = %q, want first", got.Kind)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch := b.Subscribe(1)

	b.Unsubscribe(ch)
	if _, open := <-ch; open {
		t.Error("channel should be closed after Unsubscribe")
	}
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount = %d, want 0", got)
	}

	// Double unsubscribe is a no-op.
	b.Unsubscribe(ch)
}

func TestRecentOrderedOldestFirst(t *testing.T) {
	b := New()
	for i := 0; i < 5; i++ {
		b.Publish(Event{Kind: fmt.Sprintf("e%d", i)})
	}

	got := b.Recent(3)
	if len(got) != 3 {
		t.Fatalf("len(Recent(3)) = %d, want 3", len(got))
	}
	for i, want := range []string{"e2", "e3", "e4"} {
		if got[i].Kind != want {
			t.Errorf("Recent[%d].Kind = %q, want %q", i, got[i].Kind, want)
		}
	}
}

func TestRecentSurvivesRingWrap(t *testing.T) {
	b := New()
	total := ringSize + 10
	for i := 0; i < total; i++ {
		b.Publish(Event{Kind: fmt.Sprintf("e%d", i)})
	}

	got := b.Recent(ringSize)
	if len(got) != ringSize {
		t.Fatalf("len = %d, want %d", len(got), ringSize)
	}
	if first := got[0].Kind; first != fmt.Sprintf("e%d", total-ringSize) {
		t.Errorf("oldest kept event = %q, want e%d", first, total-ringSize)
	}
	if last := got[len(got)-1].Kind; last != fmt.Sprintf("e%d", total-1) {
		t.Errorf("newest kept event = %q, want e%d", last, total-1)
	}
}

func TestRecentZeroOrNegative(t *testing.T) {
	b := New()
	b.Publish(Event{Kind: "e"})

	if got := b.Recent(0); got != nil {
		t.Errorf("Recent(0) = %v, want nil", got)
	}
	if got := b.Recent(-1); got != nil {
		t.Errorf("Recent(-1) = %v, want nil", got)
	}
}
