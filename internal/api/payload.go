package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shohag/pubsubsink/internal/config"
	"github.com/shohag/pubsubsink/internal/models"
)

var errNotJSON = errors.New("decoded data is not a valid JSON document")

// checkPayload applies the payload format on the ingest side. JSON payloads
// are rejected before they reach the store.
func checkPayload(format config.PayloadFormat, text string) error {
	if format == config.PayloadJSON && !json.Valid([]byte(text)) {
		return errNotJSON
	}
	return nil
}

// renderMessages shapes stored rows for the read endpoint: {id, data} objects
// for text payloads, the parsed documents alone for JSON payloads.
func renderMessages(format config.PayloadFormat, msgs []models.Message) (interface{}, error) {
	if format != config.PayloadJSON {
		if msgs == nil {
			msgs = []models.Message{}
		}
		return msgs, nil
	}

	docs := make([]json.RawMessage, 0, len(msgs))
	for _, msg := range msgs {
		if !json.Valid([]byte(msg.Data)) {
			return nil, fmt.Errorf("message %d: stored data is not valid JSON", msg.ID)
		}
		docs = append(docs, json.RawMessage(msg.Data))
	}
	return docs, nil
}
