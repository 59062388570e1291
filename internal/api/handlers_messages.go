package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shohag/pubsubsink/internal/config"
	"github.com/shohag/pubsubsink/internal/metrics"
	"github.com/shohag/pubsubsink/internal/storage"
)

type MessageHandler struct {
	store   storage.Storage
	format  config.PayloadFormat
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewMessageHandler(store storage.Storage, format config.PayloadFormat, m *metrics.Metrics, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{store: store, format: format, metrics: m, log: log}
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.store.ListMessages(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list messages")
		h.metrics.ReadRequests.WithLabelValues(metrics.OutcomeError).Inc()
		writeInternalError(w, err)
		return
	}

	body, err := renderMessages(h.format, msgs)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to render messages")
		h.metrics.ReadRequests.WithLabelValues(metrics.OutcomeError).Inc()
		writeInternalError(w, err)
		return
	}

	h.metrics.ReadRequests.WithLabelValues(metrics.OutcomeOK).Inc()
	writeJSON(w, http.StatusOK, body)
}
