// Package comms is the framing used between clients and the server: every
// message is a head, a colon separated list of fields whose first field is
// the message type, and a JSON body.
package comms

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Head says what a message is.
type Head string

// Fields splits the head. There is always at least one field.
func (h Head) Fields() []string {
	return strings.Split(string(h), ":")
}

// Message is one framed message.
type Message struct {
	Head Head            `json:"head"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Type is the first field of the head.
func (m Message) Type() string {
	return m.Head.Fields()[0]
}

// Encode makes a message with a JSON body.
func Encode(head string, v interface{}) (Message, error) {
	if v == nil {
		return Message{Head: Head(head)}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", head, err)
	}
	return Message{Head: Head(head), Data: data}, nil
}

// Decode reads a message body.
func Decode(msg Message, v interface{}) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("message %s has no body", msg.Head)
	}
	return json.Unmarshal(msg.Data, v)
}

// Encoder writes messages to a stream. It is safe to use from more than one
// goroutine.
type Encoder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

// Send writes a message that's already encoded.
func (e *Encoder) Send(msg Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(msg)
}

// Encode encodes and writes in one go.
func (e *Encoder) Encode(head string, v interface{}) error {
	msg, err := Encode(head, v)
	if err != nil {
		return err
	}
	return e.Send(msg)
}

// Decoder reads messages from a stream.
type Decoder struct {
	dec *json.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

func (d *Decoder) Decode() (Message, error) {
	var msg Message
	if err := d.dec.Decode(&msg); err != nil {
		return Message{}, err
	}
	if msg.Head == "" {
		return Message{}, fmt.Errorf("message with no head")
	}
	return msg, nil
}
