package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/Dosada05/tournament-matchups/middleware"
	"github.com/Dosada05/tournament-matchups/models"
	"github.com/Dosada05/tournament-matchups/services"
)

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
}

func NewAuthHandler(authService services.AuthService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   []byte(jwtSecret),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	problems := make(map[string]string)
	if strings.TrimSpace(input.Email) == "" {
		problems["email"] = "must be provided"
	}
	if input.Password == "" {
		problems["password"] = "must be provided"
	}
	if len(problems) > 0 {
		failedValidationResponse(w, r, problems)
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	now := time.Now()
	token, err := middleware.IssueToken(h.jwtSecret, user, now)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	response := jsonResponse{
		"user":       user,
		"token":      token,
		"expires_at": now.Add(middleware.TokenTTL).UTC(),
	}
	if err := writeJSON(w, status, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
