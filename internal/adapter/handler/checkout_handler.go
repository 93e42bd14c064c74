package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/adapter/leadclient"
	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/core/service"
)

type checkoutResponse struct {
	LeadID        string               `json:"leadId"`
	Total         int64                `json:"total"`
	ItemCount     int                  `json:"itemCount"`
	CheckoutState domain.CheckoutState `json:"checkoutState"`
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var contact domain.Contact
	if err := decodeJSON(r, &contact); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sf := storefront(r)
	lead, err := sf.Checkout.Submit(r.Context(), contact)
	if err != nil {
		status := http.StatusBadGateway
		message := "order could not be submitted, please try again"

		switch {
		case errors.Is(err, service.ErrSubmissionInFlight):
			status = http.StatusConflict
			message = "submission already in progress"
		case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrInvalidContact):
			status = http.StatusUnprocessableEntity
			message = err.Error()
		default:
			h.logger.Warn("checkout failed", zap.String("session_id", sf.ID), zap.Error(err))
		}

		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		LeadID:        lead.ID,
		Total:         lead.Total,
		ItemCount:     lead.ItemCount,
		CheckoutState: sf.Checkout.State(),
	})
}

func (h *HTTPHandler) IngestLead(w http.ResponseWriter, r *http.Request) {
	var payload leadclient.Payload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	lead, err := payload.Lead()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.leads.Ingest(r.Context(), lead); err != nil {
		status := http.StatusInternalServerError
		message := "internal error"

		if errors.Is(err, domain.ErrDuplicateLead) {
			status = http.StatusConflict
			message = "duplicate lead"
		} else if errors.Is(err, service.ErrInvalidLead) {
			status = http.StatusBadRequest
			message = "invalid lead"
		} else {
			h.logger.Error("lead ingestion failed", zap.String("lead_id", lead.ID), zap.Error(err))
		}

		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusCreated, apiResponse{Success: true, Message: lead.ID})
}

func (h *HTTPHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := h.leads.Get(r.Context(), chi.URLParam(r, "leadId"))
	if err != nil {
		h.logger.Error("lead lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if lead == nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	writeJSON(w, http.StatusOK, leadclient.NewPayload(*lead))
}
