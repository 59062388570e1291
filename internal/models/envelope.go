package models

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var (
	ErrNoMessage = errors.New("no Pub/Sub message received")
	ErrNoData    = errors.New("no data in Pub/Sub message")
	// ErrDataNotString is returned when data is present but is not a JSON
	// string. It is a decode failure, not a malformed request.
	ErrDataNotString = errors.New("message data is not a string")
)

// PushEnvelope is the body Pub/Sub POSTs to a push endpoint.
type PushEnvelope struct {
	Message      *PushMessage `json:"message"`
	Subscription string       `json:"subscription"`
}

type PushMessage struct {
	Data        string            `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId"`
	PublishTime string            `json:"publishTime"`
}

// DecodeEnvelope reads a push envelope from r. Keys are matched exactly.
// It returns ErrNoMessage when the body is not a single JSON object or carries
// no message, ErrNoData when the message has no data and ErrDataNotString
// when data has the wrong type. The remaining fields are filled best-effort
// and never fail the decode.
func DecodeEnvelope(r io.Reader) (*PushEnvelope, error) {
	dec := json.NewDecoder(r)

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoMessage, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after envelope", ErrNoMessage)
	}

	var msgFields map[string]json.RawMessage
	raw, ok := fields["message"]
	if !ok || json.Unmarshal(raw, &msgFields) != nil || msgFields == nil {
		return nil, ErrNoMessage
	}

	rawData, ok := msgFields["data"]
	if !ok || isNull(rawData) {
		return nil, ErrNoData
	}
	var data string
	if err := json.Unmarshal(rawData, &data); err != nil {
		return nil, ErrDataNotString
	}
	if data == "" {
		return nil, ErrNoData
	}

	msg := &PushMessage{
		Data:        data,
		Attributes:  attributes(msgFields["attributes"]),
		MessageID:   firstString(msgFields["messageId"], msgFields["message_id"]),
		PublishTime: firstString(msgFields["publishTime"], msgFields["publish_time"]),
	}
	return &PushEnvelope{
		Message:      msg,
		Subscription: firstString(fields["subscription"]),
	}, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// scalarString returns a JSON string unquoted and any other non-null value as
// its raw JSON text.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func firstString(raws ...json.RawMessage) string {
	for _, raw := range raws {
		if s := scalarString(raw); s != "" {
			return s
		}
	}
	return ""
}

func attributes(raw json.RawMessage) map[string]string {
	var values map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &values) != nil || len(values) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(values))
	for k, v := range values {
		attrs[k] = scalarString(v)
	}
	return attrs
}

// DecodeData base64-decodes the message data into UTF-8 text.
func (m *PushMessage) DecodeData() (string, error) {
	raw, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		return "", fmt.Errorf("decode base64 data: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", errors.New("decoded data is not valid UTF-8")
	}
	return string(raw), nil
}
