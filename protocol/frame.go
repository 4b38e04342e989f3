// Package protocol is the framed wire format used by the register
// bridge. Frames follow the Klipper layout:
//
//	[len][0x10|seq][payload ...][crc16 hi][crc16 lo][0x7E]
//
// Payloads are a command id followed by its arguments, all VLQ encoded.
package protocol

import "errors"

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F
)

var (
	// ErrNeedMore means the data holds the start of a frame but not all
	// of it.
	ErrNeedMore = errors.New("protocol: incomplete frame")

	// ErrBadFrame means the data does not start with a valid frame. The
	// caller should skip to the next sync byte.
	ErrBadFrame = errors.New("protocol: bad frame")

	// ErrFrameTooLarge is returned when a payload does not fit a frame.
	ErrFrameTooLarge = errors.New("protocol: frame too large")
)

// NextSeq returns the sequence byte following seq.
func NextSeq(seq uint8) uint8 {
	return (seq+1)&MessageSeqMask | MessageDest
}

// EncodeFrame writes one frame with sequence seq whose payload is
// produced by body.
func EncodeFrame(output OutputBuffer, seq uint8, body func(OutputBuffer)) error {
	start := output.CurPosition()
	output.Output([]byte{0, seq&MessageSeqMask | MessageDest})
	if body != nil {
		body(output)
	}

	n := len(output.DataSince(start)) + MessageTrailerSize
	if n > MessageLengthMax {
		return ErrFrameTooLarge
	}
	output.Update(start, uint8(n))

	crc := CRC16(output.DataSince(start))
	output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
	return nil
}

// DecodeFrame parses the frame at the start of data. It returns the
// sequence byte, the payload (aliasing data) and the number of bytes the
// frame occupies. Leading sync bytes are skipped and counted.
func DecodeFrame(data []byte) (seq uint8, payload []byte, n int, err error) {
	skip := 0
	for skip < len(data) && data[skip] == MessageValueSync {
		skip++
	}
	data = data[skip:]

	if len(data) < MessageLengthMin {
		if len(data) > 0 && (data[0] < MessageLengthMin || data[0] > MessageLengthMax) {
			return 0, nil, skip, ErrBadFrame
		}
		return 0, nil, skip, ErrNeedMore
	}
	length := int(data[0])
	if length < MessageLengthMin || length > MessageLengthMax {
		return 0, nil, skip, ErrBadFrame
	}
	seq = data[1]
	if seq&^MessageSeqMask != MessageDest {
		return 0, nil, skip, ErrBadFrame
	}
	if len(data) < length {
		return 0, nil, skip, ErrNeedMore
	}
	if data[length-1] != MessageValueSync {
		return 0, nil, skip, ErrBadFrame
	}
	crc := uint16(data[length-3])<<8 | uint16(data[length-2])
	if crc != CRC16(data[:length-MessageTrailerSize]) {
		return 0, nil, skip, ErrBadFrame
	}
	return seq, data[MessageHeaderSize : length-MessageTrailerSize], skip + length, nil
}

// Resync returns how many bytes to drop after ErrBadFrame: everything up
// to and including the next sync byte, or all of data if there is none.
func Resync(data []byte) int {
	for i, b := range data {
		if b == MessageValueSync {
			return i + 1
		}
	}
	return len(data)
}
