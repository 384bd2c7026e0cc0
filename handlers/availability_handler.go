package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-matchups/services"
)

type AvailabilityHandler struct {
	availabilityService services.AvailabilityService
}

func NewAvailabilityHandler(as services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: as}
}

func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	availability, err := h.availabilityService.Get(r.Context(), actorFromRequest(r), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"availability": availability}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AvailabilityHandler) Put(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.PutAvailabilityInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	availability, err := h.availabilityService.Put(r.Context(), actorFromRequest(r), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"availability": availability}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
