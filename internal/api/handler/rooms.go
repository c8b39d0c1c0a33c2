package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/partyrooms/internal/api/apierr"
	"github.com/mcoot/partyrooms/internal/api/request"
	"github.com/mcoot/partyrooms/internal/api/response"
	"github.com/mcoot/partyrooms/internal/gateway"
	"github.com/mcoot/partyrooms/internal/model"
)

// RoomService is the room surface the HTTP handlers need
type RoomService interface {
	CreateRoom(ctx context.Context, settings model.RoomSettings) (*model.RoomView, model.ClaimToken, error)
	GetRoom(ctx context.Context, code string) (*model.RoomView, error)
	ListRooms(ctx context.Context) ([]model.RoomView, error)
}

// RoomHandler handles room endpoints
type RoomHandler struct {
	rooms  RoomService
	logger *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms RoomService, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{rooms: rooms, logger: logger}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	room, token, err := h.rooms.CreateRoom(r.Context(), req.Settings())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateRoomResponse{Room: *room, ClaimToken: token})
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.GetRoom(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, room)
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListRooms(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomListFromViews(rooms))
}

func (h *RoomHandler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, gateway.ErrLoopStopped) {
		WriteError(w, apierr.NewUnavailableError())
		return
	}
	if apierr.Status(err) >= http.StatusInternalServerError {
		h.logger.Error("room request failed", slog.String("error", err.Error()))
	}
	WriteError(w, err)
}
