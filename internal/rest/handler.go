package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chatrelay/internal/model"
)

// errStreamDone stops the upstream read loop once a terminal frame has been
// written; already-flushed frames cannot be unsent.
var errStreamDone = errors.New("stream done")

type Handler struct {
	provider  LLMProvider
	validator Validator
	log       *logrus.Logger
	env       string
	startTime time.Time
}

func New(provider LLMProvider, validator Validator, log *logrus.Logger, env string) *Handler {
	return &Handler{
		provider:  provider,
		validator: validator,
		log:       log,
		env:       env,
		startTime: time.Now(),
	}
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	logger := h.log.WithField("handler", "Generate")

	req, ok := h.decodeChatRequest(w, r, logger)
	if !ok {
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	result, err := h.provider.Generate(r.Context(), req.Message)
	if err != nil {
		logger.Error(fmt.Sprintf("upstream generate failed: %v", err))
		h.writeError(w, h.errorText(err), http.StatusInternalServerError, model.CodeInternalError)
		return
	}

	h.writeJSON(w, model.GenerateResponse{
		Message:   result.Text,
		SessionID: sessionID,
	}, http.StatusOK)
}

func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	logger := h.log.WithField("handler", "Stream")

	req, ok := h.decodeChatRequest(w, r, logger)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("response writer does not support flushing")
		h.writeError(w, "streaming unsupported", http.StatusInternalServerError, model.CodeInternalError)
		return
	}

	// From here on the error channel is an SSE frame, not a JSON status.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	messageID := newMessageID()
	logger = logger.WithField("message_id", messageID)

	sw := &streamWriter{w: w, flusher: flusher}
	shell := model.Message{
		ID:        messageID,
		Content:   "",
		Sender:    model.SenderAssistant,
		Timestamp: time.Now().UnixMilli(),
		Status:    model.StatusStreaming,
	}
	if err := sw.writeFrame("message", shell); err != nil {
		logger.Warn(fmt.Sprintf("client gone before first frame: %v", err))
		return
	}

	terminal := false
	err := h.provider.Stream(r.Context(), req.Message, func(ev model.StreamEvent) error {
		if !ev.Type.Valid() {
			logger.Warn(fmt.Sprintf("skipping unknown upstream event type %q", ev.Type))
			return nil
		}

		if ev.Type == model.EventError {
			text := ev.Error
			if text == "" {
				text = "upstream stream error"
			}
			if werr := h.writeErrorFrame(sw, h.errorText(errors.New(text))); werr != nil {
				return fmt.Errorf("failed to write error frame: %w", werr)
			}
			terminal = true
			return errStreamDone
		}

		frame := model.StreamEvent{Type: ev.Type, Content: ev.Content, MessageID: messageID}
		if werr := sw.writeFrame(string(ev.Type), frame); werr != nil {
			return fmt.Errorf("failed to write frame: %w", werr)
		}
		if ev.Type == model.EventFinish {
			terminal = true
			return errStreamDone
		}
		return nil
	})

	if terminal {
		return
	}

	if err != nil && !errors.Is(err, errStreamDone) {
		logger.Error(fmt.Sprintf("upstream stream failed: %v", err))
		if werr := h.writeErrorFrame(sw, h.errorText(err)); werr != nil {
			logger.Warn(fmt.Sprintf("client gone while reporting stream error: %v", werr))
		}
		return
	}

	// Upstream exhausted without a terminal tag; close the sequence so the
	// client still sees exactly one terminal frame.
	if werr := sw.writeFrame(string(model.EventFinish), model.StreamEvent{Type: model.EventFinish, MessageID: messageID}); werr != nil {
		logger.Warn(fmt.Sprintf("client gone before synthesized finish: %v", werr))
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, model.HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UnixMilli(),
		Uptime:      time.Since(h.startTime).Seconds(),
		Environment: h.env,
	}, http.StatusOK)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, "Not Found", http.StatusNotFound, model.CodeNotFound)
}

// decodeChatRequest is the shared validation pipeline of the single-shot and
// streaming paths. It reports failure to the client itself and returns false.
func (h *Handler) decodeChatRequest(w http.ResponseWriter, r *http.Request, logger *logrus.Entry) (*model.ChatRequest, bool) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest, model.CodeInvalidRequest)
		return nil, false
	}

	if err := h.validator.ValidateChatRequest(&req); err != nil {
		logger.Error(fmt.Sprintf("request validation failed: %v", err))
		h.writeError(w, err.Error(), http.StatusBadRequest, model.CodeInvalidRequest)
		return nil, false
	}

	return &req, true
}

// errorText hides upstream failure details outside development.
func (h *Handler) errorText(err error) string {
	if h.env == "production" {
		return "Internal Server Error"
	}
	return err.Error()
}

func (h *Handler) writeErrorFrame(sw *streamWriter, text string) error {
	return sw.writeFrame(string(model.EventError), model.ErrorResponse{
		Error:     text,
		Code:      model.CodeInternalError,
		Timestamp: time.Now().UnixMilli(),
	})
}

// ----------------------------- helpers -----------------------------

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, statusCode int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UnixMilli(),
	})
}

type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *streamWriter) writeFrame(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func newMessageID() string {
	return fmt.Sprintf("msg-%d-%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}
