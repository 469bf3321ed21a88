package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"staybook/internal/reservations/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	locks service.LockService
	rooms service.RoomService
	log   *logger.Logger
}

func NewReservationHandler(locks service.LockService, rooms service.RoomService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		locks: locks,
		rooms: rooms,
		log:   log,
	}
}

func (h *ReservationHandler) Hold(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		h.writeError(w, "Hold", apperrors.InvalidInput("room id must be a number"))
		return
	}

	var req model.HoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Hold", apperrors.InvalidInput("Invalid request body"))
		return
	}

	start, err := httputil.ParseDate("start_date", req.StartDate)
	if err != nil {
		h.writeError(w, "Hold", err)
		return
	}
	end, err := httputil.ParseDate("end_date", req.EndDate)
	if err != nil {
		h.writeError(w, "Hold", err)
		return
	}

	lock, err := h.locks.Hold(r.Context(), req.RequestID, roomID, start, end)
	if err != nil {
		h.writeError(w, "Hold", err)
		return
	}

	if err := httputil.WriteSuccess(w, lock); err != nil {
		h.log.Error("failed to write success response", "handler", "Hold", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Confirm", apperrors.InvalidInput("Invalid request body"))
		return
	}

	lock, err := h.locks.Confirm(r.Context(), req.RequestID)
	if err != nil {
		h.writeError(w, "Confirm", err)
		return
	}

	if err := httputil.WriteSuccess(w, lock); err != nil {
		h.log.Error("failed to write success response", "handler", "Confirm", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Release(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Release", apperrors.InvalidInput("Invalid request body"))
		return
	}

	lock, err := h.locks.Release(r.Context(), req.RequestID)
	if err != nil {
		h.writeError(w, "Release", err)
		return
	}

	if err := httputil.WriteSuccess(w, lock); err != nil {
		h.log.Error("failed to write success response", "handler", "Release", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) GetByRequestID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	lock, err := h.locks.Get(r.Context(), ps.ByName("request_id"))
	if err != nil {
		h.writeError(w, "GetByRequestID", err)
		return
	}

	if err := httputil.WriteSuccess(w, lock); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByRequestID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) ListRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListRooms", err)
		return
	}

	rooms, total, err := h.rooms.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "ListRooms", err)
		return
	}

	if err := httputil.WritePaginated(w, rooms, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListRooms", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) RecommendedRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rooms, err := h.rooms.Recommended(r.Context())
	if err != nil {
		h.writeError(w, "RecommendedRooms", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "RecommendedRooms", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) PopularRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			h.writeError(w, "PopularRooms", apperrors.InvalidInput("invalid limit parameter: "+s))
			return
		}
		limit = v
	}

	rooms, err := h.rooms.Popular(r.Context(), limit)
	if err != nil {
		h.writeError(w, "PopularRooms", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "PopularRooms", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/rooms/id/:id/hold", h.Hold)
	router.POST("/api/v1/reservations/confirm", h.Confirm)
	router.POST("/api/v1/reservations/release", h.Release)
	router.GET("/api/v1/reservations/id/:request_id", h.GetByRequestID)
	router.GET("/api/v1/rooms", h.ListRooms)
	router.GET("/api/v1/rooms/recommended", h.RecommendedRooms)
	router.GET("/api/v1/stats/rooms/popular", h.PopularRooms)
}
