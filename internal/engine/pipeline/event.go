package pipeline

import (
	"log/slog"
	"sync"

	"github.com/smashed/core/internal/engine/buffer"
)

// ChangeSpan describes one contiguous region of the buffer that changed as
// part of a commit: the byte offset the change starts at, how many bytes of
// old content it replaced, and the new text that now occupies that span.
type ChangeSpan struct {
	StartByte ByteOffset
	OldLen    ByteOffset
	NewText   string
}

// EditEvent is published once per commit, after the rope, cursors, undo
// tree, and swap log have all been updated. Revision numbers are strictly
// monotonic and events are delivered in commit order per buffer.
type EditEvent struct {
	Revision buffer.RevisionID
	Origin   Origin
	Changes  []ChangeSpan
}

// subscriber is one broadcast destination: a bounded channel plus a flag
// recording whether it has ever lagged (dropped an event because its
// channel was full).
type subscriber struct {
	ch     chan EditEvent
	lagged bool
}

// Broadcaster delivers EditEvents to any number of subscribers over bounded
// channels. A subscriber whose channel is full when a new event is
// published does not block the publisher: it is marked lagged and the
// event is dropped for it. A lagged subscriber must call Lagged to clear
// the flag and then resync from a full snapshot; Broadcaster has no notion
// of "replay from here" -- that is the subscriber's responsibility, per the
// spec's bounded-channel backpressure model (the buffer never blocks on a
// slow or hostile subscriber).
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	bufLen int
	logger *slog.Logger
}

// NewBroadcaster creates a Broadcaster whose subscriber channels have
// capacity bufLen (spec default: 1024).
func NewBroadcaster(bufLen int, logger *slog.Logger) *Broadcaster {
	if bufLen <= 0 {
		bufLen = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subs:   make(map[int]*subscriber),
		bufLen: bufLen,
		logger: logger,
	}
}

// subscription is a handle returned by Subscribe. Receive drains the
// channel; Lagged reports (and clears) whether an event was dropped since
// the last call; Close unregisters the subscription.
type subscription struct {
	b  *Broadcaster
	id int
	ch chan EditEvent
}

// Receiver is the read side of a subscription.
type Receiver interface {
	// Events returns the channel to range/select over.
	Events() <-chan EditEvent
	// Lagged reports and clears whether an event was dropped for this
	// subscriber since the last call. A subscriber observing a dropped
	// event must treat its view as stale and resync from a full
	// snapshot rather than assume it saw every EditEvent in order.
	Lagged() bool
	// Close unregisters the subscription; no further events are
	// delivered after Close returns.
	Close()
}

// Subscribe registers a new subscriber and returns its Receiver.
func (b *Broadcaster) Subscribe() Receiver {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := &subscriber{ch: make(chan EditEvent, b.bufLen)}
	b.subs[id] = sub

	return &subscription{b: b, id: id, ch: sub.ch}
}

func (s *subscription) Events() <-chan EditEvent {
	return s.ch
}

func (s *subscription) Lagged() bool {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	sub, ok := s.b.subs[s.id]
	if !ok {
		return false
	}
	lagged := sub.lagged
	sub.lagged = false
	return lagged
}

func (s *subscription) Close() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	delete(s.b.subs, s.id)
}

// Publish delivers ev to every live subscriber without blocking. A
// subscriber whose channel is full is marked lagged and the event is
// dropped for it only; other subscribers are unaffected.
func (b *Broadcaster) Publish(ev EditEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			sub.lagged = true
			b.logger.Warn("pipeline: subscriber lagged, dropping event",
				"subscriber_id", id, "revision", ev.Revision)
		}
	}
}

// SubscriberCount returns the number of currently registered subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
