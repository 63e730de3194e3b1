package mqtt

import "log"

// queued stores a serialized message for replay once the broker is back.
type queued struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ring is a fixed-capacity FIFO holding messages while the broker is
// unreachable. Not safe for concurrent use; RealPublisher locks around it.
type ring struct {
	buf     []queued
	tail    int // oldest element
	count   int
	dropped bool // a message was overwritten since the last drain
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]queued, capacity)}
}

func (r *ring) push(m queued) {
	if r.count == len(r.buf) {
		if !r.dropped {
			log.Printf("mqtt: offline buffer full (%d messages), dropping oldest", len(r.buf))
			r.dropped = true
		}
		r.buf[r.tail] = m
		r.tail = (r.tail + 1) % len(r.buf)
		return
	}
	r.buf[(r.tail+r.count)%len(r.buf)] = m
	r.count++
}

func (r *ring) drain() []queued {
	if r.count == 0 {
		return nil
	}
	out := make([]queued, r.count)
	for i := range out {
		out[i] = r.buf[(r.tail+i)%len(r.buf)]
	}
	r.tail = 0
	r.count = 0
	r.dropped = false
	return out
}

func (r *ring) len() int { return r.count }
