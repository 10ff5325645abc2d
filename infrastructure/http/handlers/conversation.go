package handlers

import (
	"cryptochat/domain"
	"cryptochat/infrastructure/http/respond"
	"cryptochat/services"
	"log/slog"
	"net/http"
)

type directRequest struct {
	UserID string `json:"user_id"`
}

type groupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

type messageRequest struct {
	Content string `json:"content"`
}

type messagePage struct {
	Messages   []domain.Message `json:"messages"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

type unreadCount struct {
	ConversationID string `json:"conversation_id"`
	Unread         int    `json:"unread"`
}

// ConversationHandler exposes conversations and their messages.
type ConversationHandler struct {
	chat services.IChatService
	log  *slog.Logger
}

func NewConversationHandler(chat services.IChatService, log *slog.Logger) *ConversationHandler {
	return &ConversationHandler{chat: chat, log: log}
}

func (h *ConversationHandler) Register(mux *http.ServeMux, protect Protect) {
	mux.Handle("GET /conversations", protect(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /conversations/direct", protect(http.HandlerFunc(h.handleDirect)))
	mux.Handle("POST /conversations/group", protect(http.HandlerFunc(h.handleGroup)))
	mux.Handle("GET /conversations/{id}/messages", protect(http.HandlerFunc(h.handleMessages)))
	mux.Handle("POST /conversations/{id}/messages", protect(http.HandlerFunc(h.handleSend)))
	mux.Handle("POST /conversations/{id}/read", protect(http.HandlerFunc(h.handleRead)))
	mux.Handle("GET /conversations/{id}/unread", protect(http.HandlerFunc(h.handleUnread)))
}

func (h *ConversationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	summaries, err := h.chat.ListConversations(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "conversations", summaries)
}

func (h *ConversationHandler) handleDirect(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	var req directRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	conversation, err := h.chat.StartConversation(r.Context(), userID, req.UserID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "conversation ready", conversation)
}

func (h *ConversationHandler) handleGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	var req groupRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	conversation, err := h.chat.CreateGroupConversation(r.Context(), userID, req.Name, req.MemberIDs)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusCreated, "group created", conversation)
}

// handleMessages pages through the conversation when limit or cursor is
// given and returns the whole history otherwise.
func (h *ConversationHandler) handleMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	conversationID := r.PathValue("id")
	query := r.URL.Query()
	if !query.Has("limit") && !query.Has("cursor") {
		messages, err := h.chat.ListMessages(r.Context(), userID, conversationID)
		if err != nil {
			writeError(w, h.log, r, err)
			return
		}
		respond.JSON(w, h.log, http.StatusOK, "messages", messagePage{Messages: messages})
		return
	}

	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	var cursor *string
	if query.Has("cursor") {
		c := query.Get("cursor")
		cursor = &c
	}
	messages, next, err := h.chat.ListMessagesPage(r.Context(), userID, conversationID, cursor, limit)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "messages", messagePage{Messages: messages, NextCursor: next})
}

func (h *ConversationHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	message, err := h.chat.SendMessage(r.Context(), userID, r.PathValue("id"), req.Content)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusCreated, "message sent", message)
}

func (h *ConversationHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	if err := h.chat.MarkRead(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "conversation marked as read", nil)
}

func (h *ConversationHandler) handleUnread(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, h.log, r)
	if !ok {
		return
	}
	conversationID := r.PathValue("id")
	count, err := h.chat.CountUnread(r.Context(), userID, conversationID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	respond.JSON(w, h.log, http.StatusOK, "unread", unreadCount{ConversationID: conversationID, Unread: count})
}
