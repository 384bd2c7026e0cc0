package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-matchups/services"
	"github.com/Dosada05/tournament-matchups/storage"
)

// multipartOverhead leaves room for the form boundaries around the image.
const multipartOverhead = 1 << 20

type ParticipantHandler struct {
	participantService services.ParticipantService
}

func NewParticipantHandler(ps services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participantService: ps}
}

// Join handles POST /tournaments/{tournamentID}/participants. Anyone may
// join; a token only links the entry to the caller's account.
func (h *ParticipantHandler) Join(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.JoinInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.participantService.Join(r.Context(), actorFromRequest(r), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Remove handles DELETE /tournaments/{tournamentID}/participants/{name}.
func (h *ParticipantHandler) Remove(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	name, err := getNameFromURL(r, "name")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.participantService.Remove(r.Context(), actorFromRequest(r), tournamentID, name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadAvatar handles POST /tournaments/{tournamentID}/participants/{name}/avatar
// with the image in the "avatar" form field.
func (h *ParticipantHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	name, err := getNameFromURL(r, "name")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(storage.MaxImageBytes); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			mapServiceErrorToHTTP(w, r, services.ErrFileTooLarge)
			return
		}
		badRequestResponse(w, r, errors.New("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, errors.New("avatar file is required"))
		return
	}
	defer file.Close()

	participant, err := h.participantService.UploadAvatar(r.Context(), tournamentID, name, services.AvatarInput{
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
