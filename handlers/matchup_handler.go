package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-matchups/services"
)

type MatchupHandler struct {
	matchupService services.MatchupService
}

func NewMatchupHandler(ms services.MatchupService) *MatchupHandler {
	return &MatchupHandler{matchupService: ms}
}

// Generate handles POST /tournaments/{tournamentID}/matchups.
func (h *MatchupHandler) Generate(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchupService.Generate(r.Context(), actorFromRequest(r), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchupHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RecordResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.matchupService.RecordResult(r.Context(), actorFromRequest(r), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchupHandler) ClearResults(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.matchupService.ClearResults(r.Context(), actorFromRequest(r), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchupHandler) Standings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.matchupService.Standings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type spinInput struct {
	TieGroup *int `json:"tie_group,omitempty"`
}

// Spin handles POST /tournaments/{tournamentID}/wheel. Without a tie group
// every participant is on the wheel.
func (h *MatchupHandler) Spin(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input spinInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.matchupService.Spin(r.Context(), tournamentID, input.TieGroup)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"spin": outcome}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type spinNamesInput struct {
	Entrants []string `json:"entrants"`
}

// SpinNames handles POST /wheel, a wheel over any list of names.
func (h *MatchupHandler) SpinNames(w http.ResponseWriter, r *http.Request) {
	var input spinNamesInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.matchupService.SpinNames(r.Context(), input.Entrants)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"spin": outcome}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
