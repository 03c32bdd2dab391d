// File: codec/codec.go
// Package codec moves typed values over message channels using msgpack.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package codec

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rohankumardubey/xnio-core/api"
	"github.com/rohankumardubey/xnio-core/buffers"
	"github.com/rohankumardubey/xnio-core/channels"
)

// Encode serializes v to msgpack bytes.
func Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode deserializes msgpack bytes into v.
func Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// receiveBufSize bounds one received message.
const receiveBufSize = 1 << 20

// MessageCodec sends and receives typed values over a message channel,
// blocking on readiness.
type MessageCodec struct {
	channel api.MessageChannel
}

// NewMessageCodec creates a codec over channel.
func NewMessageCodec(channel api.MessageChannel) *MessageCodec {
	return &MessageCodec{channel: channel}
}

// Send encodes v and sends it as one message.
func (c *MessageCodec) Send(v any) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	return channels.SendBlocking(c.channel, buffers.Wrap(data))
}

// Receive blocks for one message and decodes it into v.
func (c *MessageCodec) Receive(v any) error {
	buf := buffers.New(receiveBufSize)
	n, err := channels.ReceiveBlocking(c.channel, buf)
	if err != nil {
		return err
	}
	return Decode(buf.Flip().Bytes()[:n], v)
}

// DecodingHandler adapts a typed callback to the framed message handler
// contract. Decode failures and channel errors go to OnError.
type DecodingHandler[T any] struct {
	OnMessage func(value *T)
	OnEOF     func()
	OnError   func(err error)
}

var _ channels.MessageHandler = (*DecodingHandler[int])(nil)

// HandleMessage decodes the payload and dispatches the typed callback.
func (h *DecodingHandler[T]) HandleMessage(message *buffers.Buffer) {
	var value T
	if err := Decode(message.Bytes(), &value); err != nil {
		if h.OnError != nil {
			h.OnError(err)
		}
		return
	}
	if h.OnMessage != nil {
		h.OnMessage(&value)
	}
}

// HandleEOF forwards the end-of-input signal.
func (h *DecodingHandler[T]) HandleEOF() {
	if h.OnEOF != nil {
		h.OnEOF()
	}
}

// HandleError forwards channel and framing failures.
func (h *DecodingHandler[T]) HandleError(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}
