// File: messages.go
package switchboard

import (
	"bytes"

	"google.golang.org/protobuf/proto"
)

// --- Reserved Identifiers ---

const (
	// IdentAsyncCheck is sent by the Environment to poll a component for
	// completed background work. It carries no payload.
	IdentAsyncCheck = "async-check"
	// IdentRequestDependency asks the Environment for the Pid of a dependency.
	// Payload: RequestDependency.
	IdentRequestDependency = "request-dependency"
	// IdentDependencyLookup answers IdentRequestDependency.
	// Payload: DependencyLookup.
	IdentDependencyLookup = "dependency-lookup"
	// IdentDependencies is sent once to the main component at startup.
	// Payload: Dependencies.
	IdentDependencies = "dependencies"
)

// --- Message Envelope ---

// Message is the only thing components exchange. Sender is always filled in
// by the Environment; Recipient may be PidSender on outgoing messages and is
// resolved before delivery.
type Message struct {
	Identifier string
	Sender     Pid
	Recipient  Pid
	Payload    []byte
	Encoding   Encoding
}

// EmptyMessage builds a message without payload.
func EmptyMessage(recipient Pid, identifier string) Message {
	return Message{
		Identifier: identifier,
		Recipient:  recipient,
	}
}

// NewMessage builds a message whose payload is data encoded as JSON.
func NewMessage(recipient Pid, identifier string, data interface{}) (Message, error) {
	buf, err := encodeJSON(data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Identifier: identifier,
		Recipient:  recipient,
		Payload:    buf,
		Encoding:   EncodingJSON,
	}, nil
}

// MustMessage is like NewMessage but panics if data cannot be encoded.
// Intended for payload types known to be serializable.
func MustMessage(recipient Pid, identifier string, data interface{}) Message {
	msg, err := NewMessage(recipient, identifier, data)
	if err != nil {
		panic(err)
	}
	return msg
}

// NewProtoMessage builds a message whose payload is a protobuf message.
func NewProtoMessage(recipient Pid, identifier string, data proto.Message) (Message, error) {
	buf, err := encodeProto(data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Identifier: identifier,
		Recipient:  recipient,
		Payload:    buf,
		Encoding:   EncodingProto,
	}, nil
}

// Decode unmarshals a JSON payload into v.
func (m Message) Decode(v interface{}) error {
	return decodeJSON(&m, v)
}

// DecodeProto unmarshals a protobuf payload into pm.
func (m Message) DecodeProto(pm proto.Message) error {
	return decodeProto(&m, pm)
}

// Reply builds a JSON message addressed back to whoever sent m.
func (m Message) Reply(identifier string, data interface{}) (Message, error) {
	return NewMessage(PidSender, identifier, data)
}

// Clone returns a copy of m that does not share its payload buffer.
func (m Message) Clone() Message {
	if m.Payload != nil {
		m.Payload = bytes.Clone(m.Payload)
	}
	return m
}

// IsAsyncCheck reports whether m is a poll sent by the Environment.
func (m Message) IsAsyncCheck() bool {
	return m.Identifier == IdentAsyncCheck
}

// --- Environment Protocol Payloads ---

// RequestDependency is the payload of IdentRequestDependency.
type RequestDependency struct {
	ID string `json:"id"`
}

// DependencyLookup is the payload of IdentDependencyLookup. Pid is nil when no
// dependency is registered under ID; that is a normal negative result.
type DependencyLookup struct {
	ID  string `json:"id"`
	Pid *Pid   `json:"pid,omitempty"`
}

// Dependencies is the payload of IdentDependencies: the full registry.
type Dependencies map[Id]Pid
