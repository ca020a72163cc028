// Package events provides a publish/subscribe event bus for operational
// observability. Events flow from components (advisor engine, classifier)
// to subscribers (stats surface, future metrics collector). The bus is
// nil-safe: calling Publish on a nil *Bus is a no-op, so components do
// not need guard checks.
package events

import (
	"sync"
	"time"
)

// Source constants identify which component published an event.
const (
	// SourceAdvisor identifies events from the advisor engine pipeline.
	SourceAdvisor = "advisor"
	// SourceClassifier identifies events from the feedback classifier.
	SourceClassifier = "classifier"
	// SourceSessions identifies events from the session store.
	SourceSessions = "sessions"
)

// Kind constants describe the type of event within a source.
const (
	// KindMessageAnalyzed signals a message passed through the analyzer.
	// Data: conversation_id, query_type, emotional_state, urgency.
	KindMessageAnalyzed = "message_analyzed"
	// KindResponseGenerated signals a handler produced a response.
	// Data: conversation_id, response_type, priority.
	KindResponseGenerated = "response_generated"
	// KindIntentMismatch signals the classifier's predicted intent
	// disagreed with the rule-based query type.
	// Data: rule_label, predicted_label, confidence.
	KindIntentMismatch = "intent_mismatch"
	// KindFeedbackRecorded signals a feedback event was stored.
	// Data: label, quality, total.
	KindFeedbackRecorded = "feedback_recorded"
	// KindModelRetrained signals the classifier rebuilt its index.
	// Data: examples, retrains.
	KindModelRetrained = "model_retrained"
	// KindSessionCreated signals a new conversation session.
	// Data: user_id, conversation_id.
	KindSessionCreated = "session_created"
)

// Event represents a single operational event published by a component.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"ts"`
	// Source identifies the component that published the event.
	Source string `json:"source"`
	// Kind describes the type of event within the source.
	Kind string `json:"kind"`
	// Data holds event-specific key/value pairs.
	Data map[string]any `json:"data,omitempty"`
}

// Bus is a non-blocking broadcast event bus. Subscribers receive events
// on buffered channels; slow subscribers miss events rather than
// blocking publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	// recvToSend maps the receive-only channel returned by Subscribe
	// back to the bidirectional channel stored in subs. This allows
	// Unsubscribe to accept <-chan Event (the caller's view) without
	// an illegal type conversion.
	recvToSend map[<-chan Event]chan Event

	// recent is a fixed-size ring of the latest events for the debug
	// surface. Guarded by mu.
	recent []Event
	next   int
	filled bool
}

// ringSize bounds the recent-event history kept for debugging.
const ringSize = 128

// New creates a new event bus ready for use.
func New() *Bus {
	return &Bus{
		subs:       make(map[chan Event]struct{}),
		recvToSend: make(map[<-chan Event]chan Event),
		recent:     make([]Event, ringSize),
	}
}

// Publish sends an event to all subscribers. Non-blocking: if a
// subscriber's channel is full, the event is dropped for that
// subscriber. Safe to call on a nil receiver (no-op).
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.Lock()
	b.recent[b.next] = e
	b.next = (b.next + 1) % ringSize
	if b.next == 0 {
		b.filled = true
	}
	b.mu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is full — drop the event rather than block.
		}
	}
}

// Recent returns up to n of the most recently published events, oldest
// first. Safe to call on a nil receiver (returns nil).
func (b *Bus) Recent(n int) []Event {
	if b == nil || n <= 0 {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	var ordered []Event
	if b.filled {
		ordered = append(ordered, b.recent[b.next:]...)
	}
	ordered = append(ordered, b.recent[:b.next]...)

	if len(ordered) > n {
		ordered = ordered[len(ordered)-n:]
	}
	out := make([]Event, len(ordered))
	copy(out, ordered)
	return out
}

// Subscribe returns a channel that receives published events. The
// caller must eventually call Unsubscribe to avoid resource leaks.
// bufSize controls the channel buffer.
func (b *Bus) Subscribe(bufSize int) <-chan Event {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	b.recvToSend[ch] = ch
	return ch
}

// Unsubscribe removes a subscription and closes the channel. Safe to
// call with a channel that is already unsubscribed (no-op).
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sendCh, ok := b.recvToSend[ch]
	if !ok {
		return
	}
	delete(b.subs, sendCh)
	delete(b.recvToSend, ch)
	close(sendCh)
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
