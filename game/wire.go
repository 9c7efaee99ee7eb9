package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// Message is one decoded envelope whose payload is decoded lazily.
type Message struct {
	Event  string
	data   []byte
	decode func([]byte, interface{}) error
	codec  Codec
}

// NewMessage builds a message around an already encoded payload.
func NewMessage(event string, data []byte, codec Codec) Message {
	return Message{Event: event, data: data, decode: codec.unmarshal, codec: codec}
}

// HasData reports whether the envelope carried a payload.
func (m Message) HasData() bool {
	return len(m.data) > 0
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v interface{}) error {
	if !m.HasData() {
		return errors.New("missing payload")
	}
	return m.decode(m.data, v)
}

// Value decodes the payload into generic values, so it can be re-encoded
// with either codec. Whole numbers come back as int64 from both codecs,
// except msgpack unsigned values above math.MaxInt64.
func (m Message) Value() (interface{}, error) {
	if !m.HasData() {
		return nil, nil
	}
	if m.codec == nil || m.codec.Binary() {
		var v interface{}
		if err := m.decode(m.data, &v); err != nil {
			return nil, err
		}
		return normalizeNumbers(v), nil
	}
	dec := json.NewDecoder(bytes.NewReader(m.data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		if t <= math.MaxInt64 {
			return int64(t)
		}
		return t
	case map[string]interface{}:
		for k, x := range t {
			t[k] = normalizeNumbers(x)
		}
		return t
	case []interface{}:
		for i, x := range t {
			t[i] = normalizeNumbers(x)
		}
		return t
	}
	return v
}

// Codec turns events into wire frames and back.
type Codec interface {
	Encode(event string, data interface{}) ([]byte, error)
	Decode(raw []byte) (Message, error)
	// Binary reports whether frames must travel as binary websocket messages.
	Binary() bool
	unmarshal([]byte, interface{}) error
}

// JSONCodec encodes envelopes as {"t": event, "d": payload} text.
var JSONCodec Codec = jsonCodec{}

// MsgpackCodec encodes the same envelope with msgpack.
var MsgpackCodec Codec = msgpackCodec{}

type jsonEnvelope struct {
	T string      `json:"t"`
	D interface{} `json:"d,omitempty"`
}

type jsonInEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

type jsonCodec struct{}

func (jsonCodec) Encode(event string, data interface{}) ([]byte, error) {
	return json.Marshal(jsonEnvelope{T: event, D: data})
}

func (c jsonCodec) Decode(raw []byte) (Message, error) {
	var env jsonInEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("decode json envelope: %w", err)
	}
	if env.T == "" {
		return Message{}, errors.New("decode json envelope: missing event name")
	}
	data := []byte(env.D)
	if bytes.Equal(data, []byte("null")) {
		data = nil
	}
	return NewMessage(env.T, data, c), nil
}

func (jsonCodec) Binary() bool { return false }

func (jsonCodec) unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

type msgpackEnvelope struct {
	T string      `msgpack:"t"`
	D interface{} `msgpack:"d"`
}

type msgpackInEnvelope struct {
	T string             `msgpack:"t"`
	D msgpack.RawMessage `msgpack:"d"`
}

type msgpackCodec struct{}

func (msgpackCodec) Encode(event string, data interface{}) ([]byte, error) {
	return msgpack.Marshal(msgpackEnvelope{T: event, D: data})
}

func (c msgpackCodec) Decode(raw []byte) (Message, error) {
	var env msgpackInEnvelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("decode msgpack envelope: %w", err)
	}
	if env.T == "" {
		return Message{}, errors.New("decode msgpack envelope: missing event name")
	}
	data := []byte(env.D)
	// 0xc0 is msgpack nil.
	if len(data) == 1 && data[0] == 0xc0 {
		data = nil
	}
	return NewMessage(env.T, data, c), nil
}

func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) unmarshal(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}
