package messages

import "sync"

// Collector batches system-emitted GPU update messages into one queue per
// frame. Systems that run in parallel within a phase write into their own
// Buffer and call Collector.Merge once, rather than contending on a shared
// slice — the same per-thread-buffer-then-merge shape the teacher uses for
// parallel behavior output (game/parallel.go's intents slice) and for
// windowed telemetry (telemetry/collector.go).
type Collector struct {
	mu    sync.Mutex
	queue []Message
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{queue: make([]Message, 0, 1024)}
}

// Buffer is a per-system scratch queue. Systems append to their own Buffer
// during a phase, then hand it to Collector.Merge at the phase boundary.
type Buffer struct {
	messages []Message
}

// NewBuffer creates an empty per-system buffer.
func NewBuffer() *Buffer {
	return &Buffer{messages: make([]Message, 0, 64)}
}

// Push appends a message to the buffer.
func (b *Buffer) Push(m Message) {
	b.messages = append(b.messages, m)
}

// Reset clears the buffer for reuse without releasing capacity.
func (b *Buffer) Reset() {
	b.messages = b.messages[:0]
}

// Messages returns the buffer's current contents without draining them,
// for callers (tests, the single-threaded Combat phase) that need to
// inspect what was queued this frame.
func (b *Buffer) Messages() []Message {
	return b.messages
}

// Drain returns the buffer's contents and resets it for reuse, mirroring
// Collector.Drain for callers that own a Buffer directly rather than going
// through a Collector (e.g. a test driving one system in isolation).
func (b *Buffer) Drain() []Message {
	out := b.messages
	b.messages = b.messages[:0]
	return out
}

// Merge drains src into the collector's global queue under a single lock.
func (c *Collector) Merge(src *Buffer) {
	if len(src.messages) == 0 {
		return
	}
	c.mu.Lock()
	c.queue = append(c.queue, src.messages...)
	c.mu.Unlock()
	src.Reset()
}

// Push appends directly to the global queue (for single-threaded callers,
// e.g. the chained Combat phase which never parallelizes).
func (c *Collector) Push(m Message) {
	c.mu.Lock()
	c.queue = append(c.queue, m)
	c.mu.Unlock()
}

// Drain returns the collected messages and resets the queue for the next
// frame.
func (c *Collector) Drain() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.queue
	c.queue = make([]Message, 0, cap(out))
	return out
}
