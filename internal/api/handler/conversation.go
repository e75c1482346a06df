package handler

import (
	"net/http"

	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service"
)

var errInvalidConversationID = apperr.InvalidArg("Invalid conversation ID")

// ConversationHandler handles buyer/farmer chat
type ConversationHandler struct {
	conversationService *service.ConversationService
	fail                api.ErrorWriter
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversationService *service.ConversationService, fail api.ErrorWriter) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService, fail: fail}
}

type conversationsResponse struct {
	Conversations []models.ConversationSummary `json:"conversations"`
}

type conversationResponse struct {
	Conversation *models.ConversationDetail `json:"conversation"`
}

type messageResponse struct {
	Message *models.Message `json:"message"`
}

// ListConversations lists the caller's threads, latest activity first
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.conversationService.ListConversations(r.Context(), caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if conversations == nil {
		conversations = []models.ConversationSummary{}
	}
	api.RespondJSON(w, http.StatusOK, conversationsResponse{Conversations: conversations})
}

// GetConversation returns a thread with its messages
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", errInvalidConversationID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	detail, err := h.conversationService.GetConversation(r.Context(), id, caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, conversationResponse{Conversation: detail})
}

// GetOrCreateConversation answers 201 on first contact and 200 after
func (h *ConversationHandler) GetOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req models.ConversationRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	detail, created, err := h.conversationService.GetOrCreateConversation(r.Context(), caller(r).UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	api.RespondJSON(w, status, conversationResponse{Conversation: detail})
}

// SendMessage appends a message to a thread
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", errInvalidConversationID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.MessageRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	msg, err := h.conversationService.SendMessage(r.Context(), id, caller(r).UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusCreated, messageResponse{Message: msg})
}

// MarkAsRead clears the caller's unread counter for the whole thread
func (h *ConversationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", errInvalidConversationID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	detail, err := h.conversationService.MarkAsRead(r.Context(), id, caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, conversationResponse{Conversation: detail})
}

// MarkMessageAsRead records a read receipt for one message
func (h *ConversationHandler) MarkMessageAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", errInvalidConversationID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	messageID, err := api.PathID(r, "mid", apperr.ErrMessageNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	detail, err := h.conversationService.MarkMessageAsRead(r.Context(), id, messageID, caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, conversationResponse{Conversation: detail})
}
