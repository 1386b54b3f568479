// Package scheduler implements TaskQueue/Scheduler: a multi-queue
// prioritized FIFO of one-line commands, dispatched one at a time per
// tick into a CommandInterpreter, with WAITONRUN/WAITONCONF gating on
// already-running tasks (spec §4.7).
//
// Grounded on pkg/tasks.TaskManager's stop-channel-guarded single-task
// model, generalized from "one replaceable task" to "N prioritized
// queues, FIFO within each".
package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/milk-org/fps/internal/fpslimits"
)

// Dispatcher runs one command line and reports back which of
// CmdOK/CmdFail/CmdNotFound applies, plus WaitOnRun/WaitOnConf if the
// command spawned a gated operation. The CommandInterpreter is the only
// production implementation.
type Dispatcher interface {
	Dispatch(cmdString string) StatusBits
}

// GateChecker answers whether a running task's wait condition has
// cleared, by FPS name (spec §4.7 step 3).
type GateChecker interface {
	RunWaitDone(fpsName string) bool  // STATUS.CMDRUN cleared
	ConfWaitDone(fpsName string) bool // SIGNAL.CHECKED cleared
}

// Scheduler owns NB_QUEUES_MAX queues and the FIFO binder state that
// directive lines (setqindex, setqprio, waitonrunON/OFF, ...) mutate.
type Scheduler struct {
	mu deadlock.Mutex

	queues []*Queue

	curQueueID    int
	waitOnRun     bool
	waitOnConf    bool
	inputCounter  int64
	dispatcher    Dispatcher
	gates         GateChecker
}

// New builds a Scheduler with nbQueues queues (queue 0 defaulting to
// priority 10, the rest to priority 1, per spec §4.7: "Queue 0 is the
// main queue, conventionally priority 10").
func New(nbQueues int, dispatcher Dispatcher, gates GateChecker) *Scheduler {
	if nbQueues <= 0 {
		nbQueues = fpslimits.NBQueuesMaxDefault
	}
	s := &Scheduler{
		queues:     make([]*Queue, nbQueues),
		dispatcher: dispatcher,
		gates:      gates,
	}
	for i := range s.queues {
		prio := 1
		if i == 0 {
			prio = 10
		}
		s.queues[i] = newQueue(prio)
	}
	return s
}

// ApplyLine feeds one FIFO/console line into the scheduler: a recognized
// directive mutates binder state and returns true; anything else is
// submitted as a task on the current queue with the current wait flags
// and returns false (spec §4.7 Submission).
func (s *Scheduler) ApplyLine(line string) (isDirective bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true, nil // blank line: silently dropped, per spec §6 FIFO protocol
	}

	switch fields[0] {
	case "setqindex":
		n, perr := parseQueueArg(fields, len(s.queues))
		if perr != nil {
			return true, perr
		}
		s.curQueueID = n
		return true, nil

	case "setqprio":
		if len(fields) != 2 {
			return true, fmt.Errorf("scheduler: setqprio takes 1 argument")
		}
		prio, perr := strconv.Atoi(fields[1])
		if perr != nil {
			return true, fmt.Errorf("scheduler: setqprio: %w", perr)
		}
		s.queues[s.curQueueID].Priority = prio
		return true, nil

	case "waitonrunON":
		s.waitOnRun = true
		return true, nil
	case "waitonrunOFF":
		s.waitOnRun = false
		return true, nil
	case "waitonconfON":
		s.waitOnConf = true
		return true, nil
	case "waitonconfOFF":
		s.waitOnConf = false
		return true, nil

	case "taskcntzero":
		s.inputCounter = 0
		return true, nil
	}

	s.submitLocked(line)
	return false, nil
}

func parseQueueArg(fields []string, nbQueues int) (int, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("scheduler: setqindex takes 1 argument")
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("scheduler: setqindex: %w", err)
	}
	if n < 0 || n >= nbQueues {
		return 0, fmt.Errorf("scheduler: queue index %d out of range [0,%d)", n, nbQueues)
	}
	return n, nil
}

// Submit enqueues cmdString onto the current queue under the current
// WAITONRUN/WAITONCONF binder state. Exposed directly for the console
// command path, which bypasses FIFO directive parsing.
func (s *Scheduler) Submit(cmdString string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitLocked(cmdString)
}

func (s *Scheduler) submitLocked(cmdString string) {
	s.inputCounter++
	var flags StatusBits
	if s.waitOnRun {
		flags |= WaitOnRun
	}
	if s.waitOnConf {
		flags |= WaitOnConf
	}
	t := &Task{
		CmdString:   cmdString,
		QueueID:     s.curQueueID,
		InputIndex:  s.inputCounter,
		Status:      Active,
		Flags:       flags,
		FPSResolved: fpsNameFromCmd(cmdString),
	}
	s.queues[s.curQueueID].push(t)
}

func fpsNameFromCmd(cmdString string) string {
	fields := strings.Fields(cmdString)
	if len(fields) < 2 {
		return ""
	}
	path := fields[1]
	if dot := strings.IndexByte(path, '.'); dot >= 0 {
		return path[:dot]
	}
	return path
}

// Tick runs one pass of the scheduling algorithm (spec §4.7): resolve
// each queue's candidate, mark already-running candidates complete once
// their gate clears, then dispatch at most one new task — the candidate
// from the highest-priority queue (ties broken by lowest queue id) whose
// priority is > 0.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bestQueue *Queue
	var bestTask *Task
	bestPriority := 0
	bestQueueID := -1

	for id, q := range s.queues {
		t := q.candidate()
		if t == nil {
			continue
		}
		if t.Status.Has(Running) {
			if s.gateCleared(t) {
				t.Status = t.Status.Clear(Running).Clear(Active)
				t.CompletionTime = time.Now()
				// rescan this queue for the next candidate, per spec step 3
				t = q.candidate()
				if t == nil {
					continue
				}
			} else {
				continue // still waiting on its gate
			}
		}
		if t.Status.Has(Running) {
			continue // a freshly-surfaced candidate that is itself running
		}
		if q.Priority > bestPriority || (q.Priority == bestPriority && bestQueueID == -1) {
			bestQueue = q
			bestTask = t
			bestPriority = q.Priority
			bestQueueID = id
		}
	}

	if bestTask == nil || bestQueue == nil || bestPriority <= 0 {
		return
	}

	result := s.dispatcher.Dispatch(bestTask.CmdString)
	bestTask.Status = bestTask.Status.Set(Running) | result
	bestTask.ActivationTime = time.Now()

	if bestTask.Flags == 0 {
		// no gate requested: the task completes as soon as it dispatches
		bestTask.Status = bestTask.Status.Clear(Running).Clear(Active)
		bestTask.CompletionTime = bestTask.ActivationTime
	}
}

func (s StatusBits) Set(bit StatusBits) StatusBits   { return s | bit }
func (s StatusBits) Clear(bit StatusBits) StatusBits { return s &^ bit }

func (s *Scheduler) gateCleared(t *Task) bool {
	if s.gates == nil {
		return true
	}
	ok := true
	if t.Flags.Has(WaitOnRun) {
		ok = ok && s.gates.RunWaitDone(t.FPSResolved)
	}
	if t.Flags.Has(WaitOnConf) {
		ok = ok && s.gates.ConfWaitDone(t.FPSResolved)
	}
	return ok
}

// SetQueuePriority sets an arbitrary queue's priority directly, for the
// CommandInterpreter's "queueprio" command (distinct from the "setqprio"
// FIFO directive, which only ever touches the binder's *current* queue).
func (s *Scheduler) SetQueuePriority(id, priority int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.queues) {
		return
	}
	s.queues[id].Priority = priority
}

// QueueSnapshot reports a queue's priority, for diagnostics/UI.
func (s *Scheduler) QueueSnapshot(id int) (priority int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.queues) {
		return 0, false
	}
	return s.queues[id].Priority, true
}
