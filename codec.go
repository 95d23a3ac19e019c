// File: codec.go
package switchboard

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Encoding tells the receiving component how a payload was serialized.
type Encoding uint8

const (
	EncodingNone Encoding = iota
	EncodingJSON
	EncodingProto
)

func (e Encoding) String() string {
	switch e {
	case EncodingNone:
		return "none"
	case EncodingJSON:
		return "json"
	case EncodingProto:
		return "proto"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

func encodeJSON(data interface{}) ([]byte, error) {
	buf, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("switchboard: encode json payload: %w", err)
	}
	return buf, nil
}

func encodeProto(data proto.Message) ([]byte, error) {
	buf, err := proto.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("switchboard: encode proto payload: %w", err)
	}
	return buf, nil
}

func checkEncoding(msg *Message, want Encoding) error {
	if msg.Encoding == EncodingNone || msg.Payload == nil {
		return ErrNoPayload
	}
	if msg.Encoding != want {
		return fmt.Errorf("%w: %q carries %s, want %s", ErrPayloadEncoding, msg.Identifier, msg.Encoding, want)
	}
	return nil
}

func decodeJSON(msg *Message, v interface{}) error {
	if err := checkEncoding(msg, EncodingJSON); err != nil {
		return err
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("switchboard: decode %q payload: %w", msg.Identifier, err)
	}
	return nil
}

func decodeProto(msg *Message, m proto.Message) error {
	if err := checkEncoding(msg, EncodingProto); err != nil {
		return err
	}
	if err := proto.Unmarshal(msg.Payload, m); err != nil {
		return fmt.Errorf("switchboard: decode %q payload: %w", msg.Identifier, err)
	}
	return nil
}
