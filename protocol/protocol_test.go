package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestCRC16KnownValues(t *testing.T) {
	if got := CRC16(nil); got != 0xFFFF {
		t.Errorf("CRC16(nil) = %#04x, want 0xFFFF", got)
	}
	// CRC-16/MCRF4XX check value.
	if got := CRC16([]byte("123456789")); got != 0x6F91 {
		t.Errorf("CRC16(check) = %#04x, want 0x6F91", got)
	}
	if CRC16([]byte{1, 2, 3}) == CRC16([]byte{1, 2, 4}) {
		t.Error("CRC16 collision on single byte change")
	}
}

func TestVLQRoundTrip(t *testing.T) {
	values := []uint32{
		0, 1, 95, 96, 127, 128, 1000, 65535, 1 << 20,
		0x4000_0400, 0x4002_3840, 0x7FFF_FFFF, 0x8000_0000, 0xFFFF_FFFF,
	}
	for _, v := range values {
		out := NewScratchOutput()
		EncodeVLQUint(out, v)
		data := out.Result()
		if len(data) > 5 {
			t.Errorf("%#x encoded in %d bytes", v, len(data))
		}
		got, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("decode %#x: %v", v, err)
			continue
		}
		if got != v || len(data) != 0 {
			t.Errorf("round trip %#x = %#x, %d left", v, got, len(data))
		}
	}
}

func TestVLQSigned(t *testing.T) {
	for _, v := range []int32{-1, -32, -33, -1000, -(1 << 30)} {
		out := NewScratchOutput()
		EncodeVLQInt(out, v)
		data := out.Result()
		got, err := DecodeVLQInt(&data)
		if err != nil || got != v {
			t.Errorf("round trip %d = %d, %v", v, got, err)
		}
	}
}

func TestVLQDecodeErrors(t *testing.T) {
	empty := []byte{}
	if _, err := DecodeVLQUint(&empty); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("empty: %v", err)
	}
	short := []byte{0x81}
	if _, err := DecodeVLQUint(&short); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("truncated: %v", err)
	}
	long := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQUint(&long); !errors.Is(err, ErrInvalidVLQ) {
		t.Errorf("overlong: %v", err)
	}
}

func encode(t *testing.T, seq uint8, payload ...byte) []byte {
	t.Helper()
	out := NewScratchOutput()
	if err := EncodeFrame(out, seq, func(o OutputBuffer) { o.Output(payload) }); err != nil {
		t.Fatal(err)
	}
	return append([]byte(nil), out.Result()...)
}

func TestFrameRoundTrip(t *testing.T) {
	frame := encode(t, 0x13, 1, 2, 3)
	if frame[0] != 8 || frame[1] != 0x13 || frame[len(frame)-1] != MessageValueSync {
		t.Fatalf("frame = % x", frame)
	}

	seq, payload, n, err := DecodeFrame(append([]byte{MessageValueSync}, frame...))
	if err != nil {
		t.Fatal(err)
	}
	if seq != 0x13 || !bytes.Equal(payload, []byte{1, 2, 3}) || n != len(frame)+1 {
		t.Errorf("decoded seq=%#x payload=% x n=%d", seq, payload, n)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	good := encode(t, 0x10, 9)

	if _, _, _, err := DecodeFrame(good[:4]); !errors.Is(err, ErrNeedMore) {
		t.Errorf("short: %v", err)
	}

	corrupt := append([]byte(nil), good...)
	corrupt[2] ^= 0xFF
	if _, _, _, err := DecodeFrame(corrupt); !errors.Is(err, ErrBadFrame) {
		t.Errorf("crc: %v", err)
	}

	badDest := append([]byte(nil), good...)
	badDest[1] = 0x20
	if _, _, _, err := DecodeFrame(badDest); !errors.Is(err, ErrBadFrame) {
		t.Errorf("dest: %v", err)
	}

	if _, _, _, err := DecodeFrame([]byte{200, 0x10}); !errors.Is(err, ErrBadFrame) {
		t.Errorf("length: %v", err)
	}

	out := NewScratchOutput()
	err := EncodeFrame(out, 0x10, func(o OutputBuffer) { o.Output(make([]byte, MessagePayloadMax+1)) })
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("oversize: %v", err)
	}
}

func TestResync(t *testing.T) {
	if n := Resync([]byte{1, 2, MessageValueSync, 4}); n != 3 {
		t.Errorf("Resync = %d, want 3", n)
	}
	if n := Resync([]byte{1, 2}); n != 2 {
		t.Errorf("Resync without sync = %d, want 2", n)
	}
}

func TestFifoBufferWrap(t *testing.T) {
	f := NewFifoBuffer(8)
	if n := f.Write([]byte{1, 2, 3, 4, 5, 6}); n != 6 {
		t.Fatalf("wrote %d", n)
	}
	f.Pop(4)
	if n := f.Write([]byte{7, 8, 9, 10, 11}); n != 5 {
		t.Fatalf("wrote %d after pop", n)
	}
	if f.Free() != 0 {
		t.Errorf("Free() = %d", f.Free())
	}
	if got := f.Data(); !bytes.Equal(got, []byte{5, 6, 7, 8, 9, 10, 11}) {
		t.Errorf("Data() = %v", got)
	}
	f.Pop(100)
	if f.Available() != 0 {
		t.Errorf("Available() = %d after over-pop", f.Available())
	}
}
