package ascii

import "fmt"

// PendingResult is one transcoded frame tagged with its output index. Arrival
// order is arbitrary; the index is authoritative.
type PendingResult struct {
	Index  int
	Worker int
	Frame  TextFrame
	Failed bool
}

// EmitFunc receives frames in strict ascending index order.
type EmitFunc func(index int, frame TextFrame) error

// Reassembler restores strict index order from results that complete in
// arbitrary order. Results that arrive ahead of the next expected index are
// parked in a buffer whose size is bounded by the gap between the fastest and
// slowest workers, never by the total frame count.
type Reassembler struct {
	next    int
	pending map[int]TextFrame
	emit    EmitFunc
}

// NewReassembler returns a reassembler that starts emitting at index 0.
func NewReassembler(emit EmitFunc) *Reassembler {
	return &Reassembler{
		pending: make(map[int]TextFrame),
		emit:    emit,
	}
}

// Push accepts one result. When it fills the current gap, it and any parked
// successors are emitted immediately.
func (r *Reassembler) Push(res PendingResult) error {
	if res.Index < r.next {
		return fmt.Errorf("frame %d arrived after index %d was emitted", res.Index, r.next)
	}

	if res.Index != r.next {
		r.pending[res.Index] = res.Frame
		return nil
	}

	if err := r.emit(r.next, res.Frame); err != nil {
		return err
	}
	r.next++

	for {
		frame, ok := r.pending[r.next]
		if !ok {
			return nil
		}
		delete(r.pending, r.next)
		if err := r.emit(r.next, frame); err != nil {
			return err
		}
		r.next++
	}
}

// Emitted returns how many frames have been emitted so far.
func (r *Reassembler) Emitted() int {
	return r.next
}

// Buffered returns how many frames are parked waiting on a lower index.
func (r *Reassembler) Buffered() int {
	return len(r.pending)
}

// Drained reports whether every accepted frame has been emitted.
func (r *Reassembler) Drained() bool {
	return len(r.pending) == 0
}
