package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"jamjob-backend/internal/apperr"
	"jamjob-backend/internal/models"
	"jamjob-backend/internal/services"
)

type UserHandler struct {
	accounts  *services.AccountService
	log       logrus.FieldLogger
	freeQuota int
}

func NewUserHandler(accounts *services.AccountService, log logrus.FieldLogger, freeQuota int) *UserHandler {
	return &UserHandler{accounts: accounts, log: log, freeQuota: freeQuota}
}

type userResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userStatusResponse struct {
	User           *models.User `json:"user"`
	RemainingPosts int          `json:"remainingPosts"`
}

// --- POST /api/users ---

func (h *UserHandler) CreateOAuthUser(w http.ResponseWriter, r *http.Request) {
	var req services.OAuthProfile
	if err := decodeJSON(w, r, "Users.CreateOAuthUser", &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	user, created, err := h.accounts.CreateOrGetOAuthUser(r.Context(), req)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if !created {
		writeJSON(w, http.StatusConflict, userResponse{Message: "User already exists", User: user})
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{Message: "User created successfully", User: user})
}

// --- POST /api/signup ---

func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := decodeJSON(w, r, "Users.SignUp", &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	user, err := h.accounts.SignUpWithPassword(r.Context(), req.Email, req.Password)
	if apperr.IsCode(err, apperr.CodeConflict) {
		// Signup has always answered a taken email with 400.
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: apperr.Message(err)})
		return
	}
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// --- GET /api/users/{email} ---

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetUser(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, userStatusResponse{
		User:           user,
		RemainingPosts: user.RemainingPosts(h.freeQuota),
	})
}
