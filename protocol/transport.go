package protocol

// CommandHandler executes one command. It consumes the command's
// arguments from data and writes its reply, if any, to reply.
type CommandHandler func(cmdID uint16, data *[]byte, reply OutputBuffer)

// Transport is the device side of the link. It validates incoming frames,
// runs their commands in sequence order and answers every frame with one
// reply frame carrying the next expected sequence. A frame with the wrong
// sequence is answered with an empty frame, which the host treats as a
// NAK.
type Transport struct {
	output       OutputBuffer
	handler      CommandHandler
	expected     uint8
	synchronized bool
	reply        ScratchOutput
	onReset      func()
}

// NewTransport returns a Transport writing replies to output.
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		output:       output,
		handler:      handler,
		expected:     MessageDest,
		synchronized: true,
	}
}

// SetResetCallback registers fn to run when the host restarts its
// sequence numbering.
func (t *Transport) SetResetCallback(fn func()) {
	t.onReset = fn
}

// Receive consumes every complete frame in input.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()
	total := len(data)

	for len(data) > 0 {
		if !t.synchronized {
			n := Resync(data)
			found := n > 0 && data[n-1] == MessageValueSync
			data = data[n:]
			if !found {
				break
			}
			t.synchronized = true
			continue
		}

		seq, payload, n, err := DecodeFrame(data)
		if err == ErrNeedMore {
			data = data[n:]
			break
		}
		if err != nil {
			data = data[n:]
			t.synchronized = false
			continue
		}
		data = data[n:]

		if seq == MessageDest && t.expected != MessageDest {
			t.expected = MessageDest
			if t.onReset != nil {
				t.onReset()
			}
		}

		t.reply.Reset()
		if seq == t.expected {
			t.expected = NextSeq(seq)
			t.dispatch(payload)
		}
		body := t.reply.Result()
		if len(body) > MessagePayloadMax {
			// Replies that overflow a frame are dropped whole.
			body = nil
		}
		EncodeFrame(t.output, t.expected, func(o OutputBuffer) { o.Output(body) })
	}

	input.Pop(total - len(data))
}

func (t *Transport) dispatch(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.synchronized = false
		}
	}()

	for len(payload) > 0 {
		cmdID, err := DecodeVLQUint(&payload)
		if err != nil {
			return
		}
		if t.handler != nil {
			t.handler(uint16(cmdID), &payload, &t.reply)
		}
	}
}
