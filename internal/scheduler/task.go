package scheduler

import "time"

// StatusBits is the OR-able set of bits carried on a Task and returned by
// a Dispatcher, mirroring the CMDOK/CMDFAIL/CMDNOTFOUND vocabulary the
// CommandInterpreter reports back (spec §4.7, §4.8).
type StatusBits uint32

const (
	Active StatusBits = 1 << iota
	Running
	WaitOnRun
	WaitOnConf
	CmdOK
	CmdFail
	CmdNotFound
)

func (s StatusBits) Has(bit StatusBits) bool { return s&bit != 0 }

// Task is one submitted command line plus its scheduling bookkeeping
// (spec §4.7 Task).
type Task struct {
	CmdString      string
	QueueID        int
	InputIndex     int64
	Status         StatusBits
	Flags          StatusBits // WaitOnRun / WaitOnConf requested at submission
	FPSResolved    string     // <fps_name> prefix of CmdString's path argument, if any
	CreationTime   time.Time
	ActivationTime time.Time
	CompletionTime time.Time
}

func (t *Task) isComplete() bool {
	return !t.Status.Has(Active)
}
