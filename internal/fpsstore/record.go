package fpsstore

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/milk-org/fps/internal/fpslimits"
	"github.com/milk-org/fps/internal/fpsparam"
	"github.com/milk-org/fps/internal/fpsvalue"
)

// This file implements the fixed-width binary encoding that backs the
// shared-memory file layout described in spec §6: a Header record at
// offset 0 followed by a flat array of Parameter records. Go cannot
// reinterpret arbitrary mmap'd bytes as pointer-bearing structs the way
// the C original does, so each mutating method on FPS re-encodes the
// affected record and copies it into the mmap'd byte slice — the mmap
// buffer remains the single source of truth that every connected process
// reads from.

const (
	nameField       = fpslimits.FPSNameMax + 1
	dirField        = 256
	fileField       = 256
	msgTextField    = fpslimits.LogMsgMax
	nameIdxField    = 32
	nameIdxCapacity = 64

	headerFixedSize = nameField + 4 + dirField + fileField + 4 /*sourceline*/ +
		4 /*signal*/ + 4 /*status*/ + 4 /*confpid*/ + 4 /*runpid*/ + 8 /*confwaitus*/ +
		4 /*conferrcnt*/ + 4 /*msgcount*/
	msgRecordSize   = 4 + 4 + msgTextField
	headerRecordSize = headerFixedSize + msgRecordSize*fpslimits.MsgLogCapacity +
		4 /*nameidxcount*/ + nameIdxField*nameIdxCapacity

	kwFullField   = fpslimits.KWFullMax + 1
	descrField    = fpslimits.DescrMax + 1
	strField      = fpslimits.ParamStrMax + 1
	streamFileFld = 256
	elemTypeFld   = 32

	paramRecordSize = 1 /*kind*/ + 8 /*flags*/ + kwFullField + descrField +
		8*4 /*current/min/max/feedback*/ + strField*2 + 4 /*pid*/ + 8*2 /*sec/nsec*/ +
		8 /*update counter*/ +
		4 /*streamid*/ + streamFileFld + 4 /*sourceline*/ + elemTypeFld + 8*3 /*shape*/ + 2 /*elemmask*/ +
		4*3 /*fpsref child counts*/
)

func putFixedString(buf []byte, s string) {
	for i := range buf {
		buf[i] = 0
	}
	n := copy(buf, s)
	_ = n
}

func getFixedString(buf []byte) string {
	i := 0
	for i < len(buf) && buf[i] != 0 {
		i++
	}
	return string(buf[:i])
}

// EncodeHeader writes h into a headerRecordSize-byte buffer.
func EncodeHeader(h *Header) []byte {
	buf := make([]byte, headerRecordSize)
	off := 0
	putFixedString(buf[off:off+nameField], h.Name)
	off += nameField
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.NBParamMax))
	off += 4
	putFixedString(buf[off:off+dirField], h.FPSDirectory)
	off += dirField
	putFixedString(buf[off:off+fileField], h.SourceFile)
	off += fileField
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.SourceLine))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.Signal))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.Status))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.ConfPID))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.RunPID))
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], uint64(h.ConfWaitUs))
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], uint32(h.ConfErrCnt))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(h.Messages)))
	off += 4
	for i := 0; i < fpslimits.MsgLogCapacity; i++ {
		var m Message
		if i < len(h.Messages) {
			m = h.Messages[i]
		}
		binary.LittleEndian.PutUint32(buf[off:], uint32(m.ParamIndex))
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], uint32(m.Code))
		off += 4
		putFixedString(buf[off:off+msgTextField], m.Text)
		off += msgTextField
	}
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(h.NameIndex)))
	off += 4
	for i := 0; i < nameIdxCapacity; i++ {
		var s string
		if i < len(h.NameIndex) {
			s = h.NameIndex[i]
		}
		putFixedString(buf[off:off+nameIdxField], s)
		off += nameIdxField
	}
	return buf
}

// DecodeHeader reconstructs a Header from a headerRecordSize-byte buffer.
func DecodeHeader(buf []byte) *Header {
	h := &Header{}
	off := 0
	h.Name = getFixedString(buf[off : off+nameField])
	off += nameField
	h.NBParamMax = int(int32(binary.LittleEndian.Uint32(buf[off:])))
	off += 4
	h.FPSDirectory = getFixedString(buf[off : off+dirField])
	off += dirField
	h.SourceFile = getFixedString(buf[off : off+fileField])
	off += fileField
	h.SourceLine = int(int32(binary.LittleEndian.Uint32(buf[off:])))
	off += 4
	h.Signal = Signal(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	h.Status = Status(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	h.ConfPID = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	h.RunPID = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	h.ConfWaitUs = int64(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	h.ConfErrCnt = int(int32(binary.LittleEndian.Uint32(buf[off:])))
	off += 4
	msgCount := int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	h.Messages = make([]Message, 0, fpslimits.MsgLogCapacity)
	for i := 0; i < fpslimits.MsgLogCapacity; i++ {
		pidx := int(int32(binary.LittleEndian.Uint32(buf[off:])))
		off += 4
		code := int(int32(binary.LittleEndian.Uint32(buf[off:])))
		off += 4
		text := getFixedString(buf[off : off+msgTextField])
		off += msgTextField
		if i < msgCount {
			h.Messages = append(h.Messages, Message{ParamIndex: pidx, Code: code, Text: text})
		}
	}
	nameIdxCount := int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	h.NameIndex = make([]string, 0, nameIdxCount)
	for i := 0; i < nameIdxCapacity; i++ {
		s := getFixedString(buf[off : off+nameIdxField])
		off += nameIdxField
		if i < nameIdxCount {
			h.NameIndex = append(h.NameIndex, s)
		}
	}
	return h
}

// EncodeParameter writes p into a paramRecordSize-byte buffer.
func EncodeParameter(p *fpsparam.Parameter) []byte {
	buf := make([]byte, paramRecordSize)
	off := 0
	buf[off] = byte(p.Kind)
	off++
	binary.LittleEndian.PutUint64(buf[off:], uint64(p.Flags))
	off += 8
	putFixedString(buf[off:off+kwFullField], p.KeywordFull)
	off += kwFullField
	putFixedString(buf[off:off+descrField], p.Description)
	off += descrField
	binary.LittleEndian.PutUint64(buf[off:], floatBits(p.Value.Current))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], floatBits(p.Value.Min))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], floatBits(p.Value.Max))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], floatBits(p.Value.Feedback))
	off += 8
	putFixedString(buf[off:off+strField], p.Value.Str)
	off += strField
	putFixedString(buf[off:off+strField], p.Value.StrCompanion)
	off += strField
	binary.LittleEndian.PutUint32(buf[off:], uint32(p.Value.PidValue))
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], uint64(p.Value.Sec))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(p.Value.Nsec))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], p.UpdateCounter)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], uint32(p.Stream.StreamID))
	off += 4
	putFixedString(buf[off:off+streamFileFld], p.Stream.SourceFile)
	off += streamFileFld
	binary.LittleEndian.PutUint32(buf[off:], uint32(p.Stream.SourceLine))
	off += 4
	putFixedString(buf[off:off+elemTypeFld], p.Stream.ElementType)
	off += elemTypeFld
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint64(buf[off:], uint64(p.Stream.Shape[i]))
		off += 8
	}
	binary.LittleEndian.PutUint16(buf[off:], p.Stream.ElementMask)
	off += 2
	binary.LittleEndian.PutUint32(buf[off:], uint32(p.FpsRef.ChildMax))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(p.FpsRef.ChildActive))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(p.FpsRef.ChildUsed))
	off += 4
	return buf
}

// DecodeParameter reconstructs a Parameter from a paramRecordSize-byte
// buffer.
func DecodeParameter(buf []byte) *fpsparam.Parameter {
	p := fpsparam.NewParameter()
	off := 0
	p.Kind = fpsvalue.Kind(buf[off])
	off++
	p.Flags = fpsparam.Flags(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	p.KeywordFull = getFixedString(buf[off : off+kwFullField])
	off += kwFullField
	if p.KeywordFull != "" {
		p.KeywordPath = strings.Split(p.KeywordFull, ".")
	}
	p.Description = getFixedString(buf[off : off+descrField])
	off += descrField
	p.Value.Current = floatFromBits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	p.Value.Min = floatFromBits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	p.Value.Max = floatFromBits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	p.Value.Feedback = floatFromBits(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	p.Value.Str = getFixedString(buf[off : off+strField])
	off += strField
	p.Value.StrCompanion = getFixedString(buf[off : off+strField])
	off += strField
	p.Value.PidValue = int32(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	p.Value.Sec = int64(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	p.Value.Nsec = int64(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	p.UpdateCounter = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	p.Stream.StreamID = int(int32(binary.LittleEndian.Uint32(buf[off:])))
	off += 4
	p.Stream.SourceFile = getFixedString(buf[off : off+streamFileFld])
	off += streamFileFld
	p.Stream.SourceLine = int(int32(binary.LittleEndian.Uint32(buf[off:])))
	off += 4
	p.Stream.ElementType = getFixedString(buf[off : off+elemTypeFld])
	off += elemTypeFld
	for i := 0; i < 3; i++ {
		p.Stream.Shape[i] = int64(binary.LittleEndian.Uint64(buf[off:]))
		off += 8
	}
	p.Stream.ElementMask = binary.LittleEndian.Uint16(buf[off:])
	off += 2
	p.FpsRef.ChildMax = int(int32(binary.LittleEndian.Uint32(buf[off:])))
	off += 4
	p.FpsRef.ChildActive = int(int32(binary.LittleEndian.Uint32(buf[off:])))
	off += 4
	p.FpsRef.ChildUsed = int(int32(binary.LittleEndian.Uint32(buf[off:])))
	off += 4
	return p
}

func floatBits(f float64) uint64     { return math.Float64bits(f) }
func floatFromBits(b uint64) float64 { return math.Float64frombits(b) }
