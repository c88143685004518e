package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/apperr"
	"github.com/skillshare/backend/internal/middleware"
)

const defaultHeartbeat = 25 * time.Second

type CreateRoomRequest struct {
	ParticipantID uuid.UUID  `json:"participant_id"`
	BookingID     *uuid.UUID `json:"booking_id,omitempty"`
	SkillID       *uuid.UUID `json:"skill_id,omitempty"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type Handler struct {
	svc       Service
	fanout    Fanout
	log       *slog.Logger
	Heartbeat time.Duration
}

func NewHandler(svc Service, fanout Fanout, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, fanout: fanout, log: log, Heartbeat: defaultHeartbeat}
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		apperr.Write(w, h.log, apperr.ErrUnauthorized)
		return
	}
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, h.log, apperr.Invalid("invalid JSON"))
		return
	}
	room, err := h.svc.CreateRoom(r.Context(), caller, CreateRoomInput{
		ParticipantID: req.ParticipantID,
		BookingID:     req.BookingID,
		SkillID:       req.SkillID,
	})
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		apperr.Write(w, h.log, apperr.ErrUnauthorized)
		return
	}
	rooms, err := h.svc.ListRooms(r.Context(), caller)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	caller, roomID, ok := h.roomRequest(w, r)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, h.log, apperr.Invalid("invalid JSON"))
		return
	}
	msg, err := h.svc.SendMessage(r.Context(), roomID, caller, req.Content, req.Type)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	caller, roomID, ok := h.roomRequest(w, r)
	if !ok {
		return
	}
	msgs, err := h.svc.ListMessages(r.Context(), roomID, caller)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handler) UpdateMessageStatus(w http.ResponseWriter, r *http.Request) {
	caller, roomID, ok := h.roomRequest(w, r)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		apperr.Write(w, h.log, apperr.Invalid("invalid message id"))
		return
	}
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, h.log, apperr.Invalid("invalid JSON"))
		return
	}
	msg, err := h.svc.UpdateMessageStatus(r.Context(), roomID, messageID, caller, req.Status)
	if err != nil {
		apperr.Write(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// Stream holds a Server-Sent Events connection open and forwards the
// caller's chat events until the client disconnects.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		apperr.Write(w, h.log, apperr.ErrUnauthorized)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		apperr.Write(w, h.log, fmt.Errorf("streaming unsupported by response writer"))
		return
	}
	events, unsub, err := h.fanout.Subscribe(r.Context(), caller)
	if err != nil {
		apperr.Write(w, h.log, fmt.Errorf("subscribe chat events: %w", err))
		return
	}
	defer unsub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Error("marshal chat event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
			flusher.Flush()
		}
	}
}

func (h *Handler) roomRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	caller, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		apperr.Write(w, h.log, apperr.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apperr.Write(w, h.log, apperr.Invalid("invalid room id"))
		return uuid.Nil, uuid.Nil, false
	}
	return caller, roomID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
