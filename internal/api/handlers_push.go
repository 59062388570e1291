package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shohag/pubsubsink/internal/config"
	"github.com/shohag/pubsubsink/internal/metrics"
	"github.com/shohag/pubsubsink/internal/models"
	"github.com/shohag/pubsubsink/internal/storage"
)

type PushHandler struct {
	store        storage.Storage
	format       config.PayloadFormat
	maxBodyBytes int64
	metrics      *metrics.Metrics
	log          zerolog.Logger
}

func NewPushHandler(store storage.Storage, format config.PayloadFormat, maxBodyBytes int64, m *metrics.Metrics, log zerolog.Logger) *PushHandler {
	return &PushHandler{
		store:        store,
		format:       format,
		maxBodyBytes: maxBodyBytes,
		metrics:      m,
		log:          log,
	}
}

type pushResponse struct {
	Status string `json:"status"`
}

// Receive handles one Pub/Sub push delivery. Every valid push is stored,
// redeliveries included.
func (h *PushHandler) Receive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	env, err := models.DecodeEnvelope(r.Body)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNoData):
		h.log.Warn().Str("request_id", middleware.GetReqID(r.Context())).Msg("no data in push message")
		h.metrics.PushRequests.WithLabelValues(metrics.OutcomeNoData).Inc()
		writeBadRequest(w, models.ErrNoData)
		return
	case errors.Is(err, models.ErrNoMessage):
		h.log.Warn().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("no push message received")
		h.metrics.PushRequests.WithLabelValues(metrics.OutcomeNoMessage).Inc()
		writeBadRequest(w, models.ErrNoMessage)
		return
	default:
		h.fail(w, r, "", err)
		return
	}

	text, err := env.Message.DecodeData()
	if err != nil {
		h.fail(w, r, env.Message.MessageID, err)
		return
	}
	if err := checkPayload(h.format, text); err != nil {
		h.fail(w, r, env.Message.MessageID, err)
		return
	}

	h.log.Info().
		Str("message_id", env.Message.MessageID).
		Str("data", text).
		Msg("received message")

	msg := &models.Message{Data: text}
	if err := h.store.CreateMessage(r.Context(), msg); err != nil {
		h.fail(w, r, env.Message.MessageID, err)
		return
	}

	h.metrics.PushRequests.WithLabelValues(metrics.OutcomeStored).Inc()
	h.metrics.PayloadBytes.Observe(float64(len(text)))
	h.log.Info().
		Int64("id", msg.ID).
		Str("message_id", env.Message.MessageID).
		Str("subscription", env.Subscription).
		Str("publish_time", env.Message.PublishTime).
		Int("size", len(text)).
		Msg("message stored")

	writeJSON(w, http.StatusOK, pushResponse{Status: "Message received"})
}

func (h *PushHandler) fail(w http.ResponseWriter, r *http.Request, messageID string, err error) {
	h.log.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("message_id", messageID).
		Msg("failed to process push message")
	h.metrics.PushRequests.WithLabelValues(metrics.OutcomeError).Inc()
	writeInternalError(w, err)
}
