package handler

import (
	"net/http"

	"github.com/nzoschke/apartments/internal/ctxkeys"
	"github.com/nzoschke/apartments/internal/render"
	"github.com/nzoschke/apartments/internal/service"
)

// apartmentHandler serves listings. Routes gate writes to realtors and admins.
type apartmentHandler struct {
	apartmentService *service.ApartmentService
}

func NewApartmentHandler(apartmentService *service.ApartmentService) *apartmentHandler {
	return &apartmentHandler{
		apartmentService: apartmentService,
	}
}

func (h *apartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	apartments, err := h.apartmentService.List(user.IsClient())
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, apartments)
}

func (h *apartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var fields service.ApartmentFields
	err := decodeJSON(w, r, &fields)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	apartment, err := h.apartmentService.Create(fields, ctxkeys.User(r.Context()))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, apartment)
}

func (h *apartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var fields service.ApartmentFields
	err := decodeJSON(w, r, &fields)
	if err != nil {
		render.Error(w, r, err)
		return
	}

	apartment, err := h.apartmentService.Update(r.PathValue("id"), fields, ctxkeys.User(r.Context()))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, apartment)
}

func (h *apartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.apartmentService.Delete(r.PathValue("id"))
	if err != nil {
		render.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
