package eventbus

import "sync"

// ringBuffer is a bounded FIFO queue. When full, the oldest event is dropped
// to make room for the new one.
type ringBuffer struct {
	mu       sync.Mutex
	events   []envelope
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int
	dropped  int64
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &ringBuffer{
		events:   make([]envelope, capacity),
		capacity: capacity,
	}
}

// enqueue adds an event and reports whether an older one was evicted.
func (b *ringBuffer) enqueue(event envelope) (evicted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count >= b.capacity {
		b.events[b.tail] = envelope{}
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
		evicted = true
	}

	b.events[b.head] = event
	b.head = (b.head + 1) % b.capacity
	b.count++
	return evicted
}

// dequeue removes the oldest event.
func (b *ringBuffer) dequeue() (envelope, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return envelope{}, false
	}
	event := b.events[b.tail]
	b.events[b.tail] = envelope{}
	b.tail = (b.tail + 1) % b.capacity
	b.count--
	return event, true
}

func (b *ringBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *ringBuffer) droppedCount() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
