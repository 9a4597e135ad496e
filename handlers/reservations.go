package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/library/service"
	"github.com/kevinaaaquil/library/utils"
	"go.uber.org/zap"
)

type ReservationsHandler struct {
	Reservations *service.Reservations
	Validate     *Validator
	Logger       *zap.Logger
}

type createReservationRequest struct {
	BookID      string `json:"bookId" validate:"required"`
	FullName    string `json:"fullName" validate:"required,min=1,max=100"`
	Phone       string `json:"phone" validate:"required,min=5,max=20"`
	Subdivision string `json:"subdivision" validate:"required,min=1,max=100"`
	Comment     string `json:"comment" validate:"max=500"`
}

// Create serves POST /reservations.
func (h *ReservationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	trimAll(&req.BookID, &req.FullName, &req.Phone, &req.Subdivision, &req.Comment)
	if err := h.Validate.Validate(&req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	view, err := h.Reservations.Create(r.Context(), service.CreateReservationInput{
		BookID:      req.BookID,
		FullName:    req.FullName,
		Phone:       req.Phone,
		Subdivision: req.Subdivision,
		Comment:     req.Comment,
	})
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservation(*view))
}

type listReservationsQuery struct {
	Page     int    `json:"page" validate:"min=1,max=100000"`
	PageSize int    `json:"pageSize" validate:"min=1,max=100"`
	Status   string `json:"status" validate:"omitempty,oneof=pending confirmed rejected cancelled returned"`
}

type reservationListResponse struct {
	Items []reservationResponse `json:"items"`
	utils.PaginationMeta
}

// List serves GET /reservations.
func (h *ReservationsHandler) List(w http.ResponseWriter, r *http.Request) {
	qr := newQueryReader(r, "page", "pageSize", "status")
	q := listReservationsQuery{
		Page:     qr.Int("page", 1),
		PageSize: qr.Int("pageSize", 20),
		Status:   qr.String("status"),
	}
	if err := qr.Err(h.Validate, &q); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	page, err := h.Reservations.List(r.Context(), q.Page, q.PageSize, q.Status)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	items := make([]reservationResponse, 0, len(page.Items))
	for _, v := range page.Items {
		items = append(items, toReservation(v))
	}
	writeJSON(w, http.StatusOK, reservationListResponse{Items: items, PaginationMeta: page.PaginationMeta})
}

// Get serves GET /reservations/{id}.
func (h *ReservationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.Reservations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservation(*view))
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed rejected cancelled returned"`
}

// UpdateStatus serves PATCH /reservations/{id}/status.
func (h *ReservationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	req.Status = strings.TrimSpace(req.Status)
	if err := h.Validate.Validate(&req); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	view, err := h.Reservations.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservation(*view))
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
