// Package fpslimits holds the compile-time-constant bounds shared by every
// process that cooperates on a Function Parameter Store: conf, run, and
// control. Centralising them here (rather than scattering magic numbers
// through fpsstore/fpsparam/argbind) keeps the three binaries in lockstep
// on file layout.
package fpslimits

const (
	// KWLevelsMax is the maximum number of segments in a keyword path.
	KWLevelsMax = 10

	// KWFullMax bounds the dotted "full" keyword string.
	KWFullMax = 200

	// DescrMax bounds a parameter's description text.
	DescrMax = 200

	// FPSNameMax bounds an FPS name (and therefore its shm filename stem).
	FPSNameMax = 100

	// ParamStrMax bounds a string-kind parameter's value/companion slots.
	ParamStrMax = 200

	// NBParamMaxDefault is the default fixed parameter-array capacity.
	NBParamMaxDefault = 100

	// CmdLineMax bounds a single FIFO/console command line.
	CmdLineMax = 1024

	// LogMsgMax bounds one message-log entry's free text.
	LogMsgMax = 256

	// MsgLogCapacity bounds the number of messages retained on the FPS header.
	MsgLogCapacity = 16

	// NBQueuesMaxDefault is the default number of scheduler queues.
	NBQueuesMaxDefault = 4

	// DefaultConfWaitUs is the conf loop's default check-loop delay, in
	// microseconds.
	DefaultConfWaitUs = 1000

	// ConfWUpdateTimeoutSteps bounds confwupdate's wait, per spec §5 ("<= 1s").
	ConfWUpdateTimeoutSteps = 10000 // 100us steps -> 1s

	// RunWaitTimeoutSteps bounds runwait's wait, per spec §5 ("<= 10^3 s").
	RunWaitTimeoutSteps = 100000 // 10ms steps -> 1000s

	// KeywordTreeNodeCapacity bounds the in-memory keyword tree arena.
	KeywordTreeNodeCapacity = 65536

	// TaskBufferCapacity bounds the total number of live tasks across all
	// queues.
	TaskBufferCapacity = 4096
)
