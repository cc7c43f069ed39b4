package shadow

// Queue is a FIFO of shadow-source slot indices holding each index at most once.
type Queue struct {
	items   []int
	members map[int]struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{members: make(map[int]struct{})}
}

// Push appends id unless already queued and returns its position.
func (q *Queue) Push(id int) int {
	if _, ok := q.members[id]; ok {
		return q.Position(id)
	}
	q.items = append(q.items, id)
	q.members[id] = struct{}{}
	return len(q.items) - 1
}

// Position returns the position of id, or -1.
func (q *Queue) Position(id int) int {
	if _, ok := q.members[id]; !ok {
		return -1
	}
	for i, v := range q.items {
		if v == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is queued.
func (q *Queue) Contains(id int) bool {
	_, ok := q.members[id]
	return ok
}

// Remove drops id while preserving the order of the rest.
func (q *Queue) Remove(id int) bool {
	pos := q.Position(id)
	if pos < 0 {
		return false
	}
	q.items = append(q.items[:pos], q.items[pos+1:]...)
	delete(q.members, id)
	return true
}

// Peek returns the first n ids without removing them.
func (q *Queue) Peek(n int) []int {
	n = min(n, len(q.items))
	return q.items[:n]
}

// PopFront removes and returns the first n ids.
func (q *Queue) PopFront(n int) []int {
	n = min(n, len(q.items))
	popped := make([]int, n)
	copy(popped, q.items[:n])
	for _, id := range popped {
		delete(q.members, id)
	}
	q.items = append(q.items[:0], q.items[n:]...)
	return popped
}

// Len returns the number of queued ids.
func (q *Queue) Len() int { return len(q.items) }

// Items returns a copy of the queue in order.
func (q *Queue) Items() []int {
	out := make([]int, len(q.items))
	copy(out, q.items)
	return out
}
