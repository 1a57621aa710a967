// Package api provides HTTP handlers for the courier server REST API and the
// server-sent-events stream.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/coregx/courier"
	"github.com/coregx/courier/model"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	lifecycle    *courier.Lifecycle
	registry     *courier.Registry
	authn        courier.Authenticator
	logger       courier.Logger
	streamBuffer int
}

// NewHandler creates a new API handler. streamBuffer sizes the per-connection
// send queue for the event stream; values below 1 fall back to 16.
func NewHandler(
	lifecycle *courier.Lifecycle,
	registry *courier.Registry,
	authn courier.Authenticator,
	logger courier.Logger,
	streamBuffer int,
) *Handler {
	if streamBuffer < 1 {
		streamBuffer = 16
	}
	return &Handler{
		lifecycle:    lifecycle,
		registry:     registry,
		authn:        authn,
		logger:       logger,
		streamBuffer: streamBuffer,
	}
}

// Router builds the HTTP route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/messages", h.HandleCreateMessage).Methods(http.MethodPost)
	v1.HandleFunc("/messages", h.HandleListMessages).Methods(http.MethodGet)
	v1.HandleFunc("/messages/unread-count", h.HandleUnreadCount).Methods(http.MethodGet)
	v1.HandleFunc("/messages/{id:[0-9]+}", h.HandleGetMessage).Methods(http.MethodGet)
	v1.HandleFunc("/messages/{id:[0-9]+}/status", h.HandleSetStatus).Methods(http.MethodPut)
	v1.HandleFunc("/messages/{id:[0-9]+}/reply", h.HandleReply).Methods(http.MethodPost)
	v1.HandleFunc("/stream", h.HandleStream).Methods(http.MethodGet)
	v1.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	return r
}

// CreateMessageRequest represents a message creation request.
type CreateMessageRequest struct {
	RecipientID string `json:"recipientID"`
	Channel     string `json:"channel,omitempty"`
	SenderName  string `json:"senderName,omitempty"`
	SenderEmail string `json:"senderEmail,omitempty"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Type        string `json:"type,omitempty"`
	Priority    string `json:"priority,omitempty"`
	BookingID   int64  `json:"bookingID,omitempty"`
}

// SetStatusRequest represents a status transition request.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// ReplyMessageRequest represents a reply request.
type ReplyMessageRequest struct {
	SenderName  string `json:"senderName,omitempty"`
	SenderEmail string `json:"senderEmail,omitempty"`
	Content     string `json:"content"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// HandleCreateMessage handles POST /api/v1/messages
func (h *Handler) HandleCreateMessage(w http.ResponseWriter, r *http.Request) {
	ident, err := h.identify(r)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return
	}

	msg, err := h.lifecycle.Create(r.Context(), ident, courier.CreateRequest{
		RecipientID: req.RecipientID,
		Channel:     req.Channel,
		SenderName:  req.SenderName,
		SenderEmail: req.SenderEmail,
		Subject:     req.Subject,
		Body:        req.Body,
		Type:        model.MessageType(req.Type),
		Priority:    model.Priority(req.Priority),
		BookingID:   req.BookingID,
	})
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	h.respondSuccess(w, http.StatusCreated, msg, "Message created successfully")
}

// HandleListMessages handles GET /api/v1/messages
func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	ident, err := h.identify(r)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	bookingID, _ := strconv.ParseInt(query.Get("bookingID"), 10, 64)

	messages, err := h.lifecycle.List(r.Context(), ident, courier.Filter{
		RecipientID: query.Get("recipientID"),
		Channel:     query.Get("channel"),
		Status:      model.Status(query.Get("status")),
		Type:        model.MessageType(query.Get("type")),
		BookingID:   bookingID,
		Limit:       limit,
	})
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	h.respondSuccess(w, http.StatusOK, messages, "")
}

// HandleUnreadCount handles GET /api/v1/messages/unread-count
func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ident, err := h.identify(r)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	count, err := h.lifecycle.CountUnread(r.Context(), ident)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	h.respondSuccess(w, http.StatusOK, map[string]int{"unreadCount": count}, "")
}

// HandleGetMessage handles GET /api/v1/messages/:id
func (h *Handler) HandleGetMessage(w http.ResponseWriter, r *http.Request) {
	ident, err := h.identify(r)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	id, err := messageID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid message ID", "INVALID_ID")
		return
	}

	msg, err := h.lifecycle.Get(r.Context(), ident, id)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	h.respondSuccess(w, http.StatusOK, msg, "")
}

// HandleSetStatus handles PUT /api/v1/messages/:id/status
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ident, err := h.identify(r)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	id, err := messageID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid message ID", "INVALID_ID")
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return
	}

	msg, err := h.lifecycle.SetStatus(r.Context(), ident, id, req.Status)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	h.respondSuccess(w, http.StatusOK, msg, "Status updated successfully")
}

// HandleReply handles POST /api/v1/messages/:id/reply
func (h *Handler) HandleReply(w http.ResponseWriter, r *http.Request) {
	ident, err := h.identify(r)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	id, err := messageID(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid message ID", "INVALID_ID")
		return
	}

	var req ReplyMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return
	}

	reply, err := h.lifecycle.Reply(r.Context(), ident, id, courier.ReplyRequest{
		SenderName:  req.SenderName,
		SenderEmail: req.SenderEmail,
		Content:     req.Content,
	})
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	h.respondSuccess(w, http.StatusCreated, reply, "Reply sent successfully")
}

// HandleStream handles GET /api/v1/stream
//
// Opens a text/event-stream connection subscribed to one channel (default: the
// caller's own account channel). The first frame is always the open event;
// message and status-changed frames follow as they are published. A full send
// queue drops frames for this connection only.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ident, err := h.identify(r)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = ident.AccountID
	}
	if !ident.CanSubscribe(channel) {
		h.respondError(w, http.StatusForbidden, "Not allowed to subscribe to this channel", courier.ErrCodeAuthorization)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Streaming unsupported", "STREAM_ERROR")
		return
	}

	frames := make(chan model.Envelope, h.streamBuffer)
	send := func(env model.Envelope) error {
		select {
		case frames <- env:
			return nil
		default:
			return courier.NewError(courier.ErrCodeDelivery, "send queue full")
		}
	}

	// One subscriber entry per connection, so the same account may hold
	// several streams on the same channel.
	subscriberID := ident.AccountID + "-" + uuid.NewString()
	unsubscribe, err := h.registry.Subscribe(channel, subscriberID, send)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	open, err := model.NewEnvelope(model.EventOpen, map[string]bool{"ok": true})
	if err != nil {
		h.logger.Errorf("Failed to build open frame: %v", err)
		return
	}
	if _, err := w.Write(open.Frame()); err != nil {
		return
	}
	flusher.Flush()

	h.logger.Debugf("Stream opened: channel=%s, subscriber=%s", channel, subscriberID)

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debugf("Stream closed: channel=%s, subscriber=%s", channel, subscriberID)
			return
		case env := <-frames:
			if _, err := w.Write(env.Frame()); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// HandleHealth handles GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"channels":  len(h.registry.Channels()),
	}

	h.respondSuccess(w, http.StatusOK, health, "")
}

// identify resolves the caller identity from the Authorization header or,
// for EventSource clients that cannot set headers, the token query parameter.
func (h *Handler) identify(r *http.Request) (courier.Identity, error) {
	token := ""
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		token = after
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return h.authn.Authenticate(r.Context(), token)
}

// messageID extracts the numeric message ID from the route.
func messageID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// respondFailure maps a courier error onto an HTTP status and error body.
func (h *Handler) respondFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case courier.IsAuthentication(err):
		status = http.StatusUnauthorized
	case courier.IsAuthorization(err):
		status = http.StatusForbidden
	case courier.IsNotFound(err):
		status = http.StatusNotFound
	case courier.IsValidation(err):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Errorf("Request failed: %v", err)
	}

	code := ""
	var courierErr *courier.Error
	if errors.As(err, &courierErr) {
		code = courierErr.Code
	}
	h.respondError(w, status, err.Error(), code)
}

// respondError sends an error response.
func (h *Handler) respondError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondSuccess sends a success response.
func (h *Handler) respondSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}
