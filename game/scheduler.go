package game

import "container/heap"

// TaskID identifies a scheduled task. The zero value is never issued.
type TaskID uint64

type task struct {
	id     TaskID
	due    float64
	seq    uint64
	action func()
	index  int
}

type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Scheduler runs delayed actions on simulation time. Tasks due at the same
// instant run in the order they were scheduled.
type Scheduler struct {
	now     float64
	seq     uint64
	queue   taskQueue
	pending map[TaskID]*task
}

// NewScheduler creates an empty scheduler at time zero
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[TaskID]*task)}
}

// Now returns the current simulation time in ms
func (s *Scheduler) Now() float64 {
	return s.now
}

// After schedules action to run once delay ms have elapsed
func (s *Scheduler) After(delay float64, action func()) TaskID {
	if delay < 0 {
		delay = 0
	}
	s.seq++
	t := &task{id: TaskID(s.seq), due: s.now + delay, seq: s.seq, action: action}
	heap.Push(&s.queue, t)
	s.pending[t.id] = t
	return t.id
}

// Cancel removes a pending task. Cancelling an unknown or finished task is a no-op.
func (s *Scheduler) Cancel(id TaskID) bool {
	t, ok := s.pending[id]
	if !ok {
		return false
	}
	delete(s.pending, id)
	heap.Remove(&s.queue, t.index)
	return true
}

// Pending reports whether id is still waiting to run
func (s *Scheduler) Pending(id TaskID) bool {
	_, ok := s.pending[id]
	return ok
}

// Len returns the number of pending tasks
func (s *Scheduler) Len() int {
	return len(s.queue)
}

// Advance moves the clock forward by dt and runs every task that became
// due, including ones scheduled by tasks run during this call. Each task
// runs with the clock at its own due time, so tasks it schedules are timed
// from that instant.
func (s *Scheduler) Advance(dt float64) {
	end := s.now
	if dt > 0 {
		end += dt
	}
	for len(s.queue) > 0 && s.queue[0].due <= end {
		t := heap.Pop(&s.queue).(*task)
		delete(s.pending, t.id)
		if t.due > s.now {
			s.now = t.due
		}
		t.action()
	}
	s.now = end
}

// Clear drops every pending task
func (s *Scheduler) Clear() {
	s.queue = s.queue[:0]
	clear(s.pending)
}
