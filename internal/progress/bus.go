package progress

import "sync"

// Bus fans events out to any number of subscribers. Publishing never
// blocks: a subscriber that falls behind its buffer loses events rather
// than stalling transfer workers.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

var _ Reporter = (*Bus)(nil)

// Report implements Reporter by publishing to every subscriber.
func (b *Bus) Report(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a new subscriber with the given buffer size and
// returns its channel plus a cancel func. Cancel closes the channel and
// unregisters; it is safe to call once concurrent publishes are in flight.
func (b *Bus) Subscribe(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 1
	}
	ch := make(chan Event, buf)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
