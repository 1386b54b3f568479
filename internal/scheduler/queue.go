package scheduler

import "container/list"

// Queue is a FIFO-by-InputIndex list of tasks with an integer priority.
// Priority 0 means paused: the queue is never chosen as a dispatch
// candidate (spec §4.7 Queue).
type Queue struct {
	Priority int
	tasks    *list.List // of *Task, oldest (lowest InputIndex) at Front
}

func newQueue(priority int) *Queue {
	return &Queue{Priority: priority, tasks: list.New()}
}

func (q *Queue) push(t *Task) {
	q.tasks.PushBack(t)
}

// candidate returns the oldest task that is not yet complete, dropping
// completed tasks from the front as it scans, per spec §4.7 step 1-2.
func (q *Queue) candidate() *Task {
	for e := q.tasks.Front(); e != nil; {
		next := e.Next()
		t := e.Value.(*Task)
		if t.isComplete() {
			q.tasks.Remove(e)
			e = next
			continue
		}
		return t
	}
	return nil
}
