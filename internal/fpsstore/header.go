package fpsstore

import "github.com/milk-org/fps/internal/fpslimits"

// Signal is the header's SIGNAL bitset (§3 Header, §4.5/§4.7).
type Signal uint32

const (
	SignalUpdate Signal = 1 << iota
	SignalChecked
	SignalConfRun
)

func (s Signal) Has(bit Signal) bool { return s&bit != 0 }
func (s Signal) Set(bit Signal) Signal   { return s | bit }
func (s Signal) Clear(bit Signal) Signal { return s &^ bit }

// Status is the header's STATUS bitset.
type Status uint32

const (
	StatusConf Status = 1 << iota
	StatusRun
	StatusCmdConf
	StatusCmdRun
	StatusCheckOK
)

func (s Status) Has(bit Status) bool { return s&bit != 0 }
func (s Status) Set(bit Status) Status   { return s | bit }
func (s Status) Clear(bit Status) Status { return s &^ bit }

// Message is one entry of the header's bounded message log.
type Message struct {
	ParamIndex int
	Code       int
	Text       string
}

// Header is the FPS metadata block held at offset 0 of the shared-memory
// file (spec §3, §6).
type Header struct {
	Name         string
	NBParamMax   int
	FPSDirectory string
	SourceFile   string
	SourceLine   int

	Signal Signal
	Status Status

	ConfPID int32
	RunPID  int32

	ConfWaitUs int64

	Messages   []Message
	ConfErrCnt int

	NameIndex []string // decomposed top-level keyword segments, stored in the header record; KeywordTree scans do not fill it
}

// NewHeader builds a zeroed header for a freshly created FPS file, per
// spec §3 Lifecycle "Create": zeroed flags, default 1ms check-loop delay.
func NewHeader(name, fpsDirectory string, nbParamMax int) *Header {
	return &Header{
		Name:         name,
		NBParamMax:   nbParamMax,
		FPSDirectory: fpsDirectory,
		ConfWaitUs:   fpslimits.DefaultConfWaitUs,
		Messages:     make([]Message, 0, fpslimits.MsgLogCapacity),
	}
}

// AppendMessage records one validation/diagnostic message, dropping the
// newest entry once the bounded capacity is reached (spec §7: "overflow
// drops newest").
func (h *Header) AppendMessage(paramIndex, code int, text string) {
	if len(text) > fpslimits.LogMsgMax {
		text = text[:fpslimits.LogMsgMax]
	}
	if len(h.Messages) >= fpslimits.MsgLogCapacity {
		return
	}
	h.Messages = append(h.Messages, Message{ParamIndex: paramIndex, Code: code, Text: text})
}

// ClearMessages resets the message log and error count, as Validator does
// at the start of every pass (spec §4.4).
func (h *Header) ClearMessages() {
	h.Messages = h.Messages[:0]
	h.ConfErrCnt = 0
}
