// Package queue implements a fixed-capacity FIFO of element references.
//
// Queue is not safe for concurrent use. Callers sharing a queue across
// goroutines must serialize every call themselves; Manager does this for
// named message queues.
package queue

// State is the fill level of a queue.
type State int

const (
	Empty State = iota
	Partial
	Full
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Partial:
		return "partial"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// Queue is a bounded circular queue of *T. It stores the pointers it is
// given and never copies or reads the values behind them.
type Queue[T any] struct {
	items []*T
	head  int // oldest element
	tail  int // next free slot
	count int
}

// New allocates a queue with exactly capacity slots.
func New[T any](capacity int) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, opErr("new", InvalidCapacity)
	}
	return &Queue[T]{items: make([]*T, capacity)}, nil
}

// Destroy hands every stored element, oldest first, to cleanup (when not
// nil), releases the storage and sets *qp to nil. It is a no-op when qp or
// *qp is nil, so destroying twice is safe.
func Destroy[T any](qp **Queue[T], cleanup func(*T)) {
	if qp == nil || *qp == nil {
		return
	}
	q := *qp
	for i := 0; i < q.count; i++ {
		idx := (q.head + i) % len(q.items)
		if cleanup != nil {
			cleanup(q.items[idx])
		}
		q.items[idx] = nil
	}
	q.items = nil
	q.head, q.tail, q.count = 0, 0, 0
	*qp = nil
}

// Insert appends item at the tail.
func (q *Queue[T]) Insert(item *T) error {
	if q == nil {
		return opErr("insert", UninitializedQueue)
	}
	if item == nil {
		return opErr("insert", UninitializedItem)
	}
	if q.count == len(q.items) {
		return opErr("insert", Overflow)
	}
	q.items[q.tail] = item
	q.tail = (q.tail + 1) % len(q.items)
	q.count++
	return nil
}

// Remove takes the oldest element off the queue.
func (q *Queue[T]) Remove() (*T, error) {
	if q == nil {
		return nil, opErr("remove", UninitializedQueue)
	}
	if q.count == 0 {
		return nil, opErr("remove", Underflow)
	}
	return q.pop(), nil
}

// RemoveInto is Remove for callers that supply the destination. A nil dst
// is rejected before the queue is touched so a dequeued element is never
// dropped on the floor.
func (q *Queue[T]) RemoveInto(dst **T) error {
	if q == nil {
		return opErr("remove", UninitializedQueue)
	}
	if dst == nil {
		return opErr("remove", UninitializedItem)
	}
	if q.count == 0 {
		return opErr("remove", Underflow)
	}
	*dst = q.pop()
	return nil
}

func (q *Queue[T]) pop() *T {
	item := q.items[q.head]
	q.items[q.head] = nil
	q.head = (q.head + 1) % len(q.items)
	q.count--
	return item
}

// Capacity returns the fixed number of slots, or 0 for a nil queue.
func (q *Queue[T]) Capacity() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Size returns the number of stored elements, or 0 for a nil queue.
func (q *Queue[T]) Size() int {
	if q == nil {
		return 0
	}
	return q.count
}

// State reports Empty, Partial or Full. A nil queue is Empty.
func (q *Queue[T]) State() State {
	switch {
	case q.Size() == 0:
		return Empty
	case q.count == len(q.items):
		return Full
	default:
		return Partial
	}
}

// IsEmpty reports whether the queue holds no elements.
func (q *Queue[T]) IsEmpty() bool { return q.State() == Empty }

// IsFull reports whether every slot is taken.
func (q *Queue[T]) IsFull() bool { return q.State() == Full }
