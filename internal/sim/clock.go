package sim

import "container/heap"

// EventKind orders simultaneous events: visits dispatch before
// monitoring checks, monitoring checks before decision reviews.
type EventKind int

const (
	EventVisit EventKind = iota
	EventMonitoring
	EventDecision
)

// Event is one scheduled dispatch for a patient.
type Event struct {
	Day     int
	Kind    EventKind
	Patient int // index into the engine's patient slice
	seq     uint64
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Day != h[j].Day {
		return h[i].Day < h[j].Day
	}
	if h[i].Kind != h[j].Kind {
		return h[i].Kind < h[j].Kind
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Clock is the discrete-event queue. Dispatch order is fully
// deterministic: day, then kind priority, then insertion order.
type Clock struct {
	events eventHeap
	seq    uint64
}

func NewClock() *Clock {
	c := &Clock{}
	heap.Init(&c.events)
	return c
}

func (c *Clock) Schedule(day int, kind EventKind, patient int) {
	c.seq++
	heap.Push(&c.events, &Event{Day: day, Kind: kind, Patient: patient, seq: c.seq})
}

// Next pops the earliest event, or returns false when the queue is
// drained.
func (c *Clock) Next() (*Event, bool) {
	if c.events.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&c.events).(*Event), true
}

func (c *Clock) Len() int { return c.events.Len() }
