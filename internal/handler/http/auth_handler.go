package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"max=30"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignInResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"max=30"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=customer admin"`
}

type UserHandler struct {
	service  user.Service
	validate *validator.Validate
}

func NewUserHandler(s user.Service) *UserHandler {
	return &UserHandler{service: s, validate: newValidator()}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/signup", h.handleSignUp)
	router.Post("/auth/signin", h.handleSignIn)
	router.Post("/auth/password-reset", h.handleRequestPasswordReset)
	router.Post("/auth/password-reset/confirm", h.handleConfirmPasswordReset)
}

// RegisterAuthenticatedRoutes expects an authenticated router.
func (h *UserHandler) RegisterAuthenticatedRoutes(router chi.Router) {
	router.Post("/auth/signout", h.handleSignOut)
	router.Get("/auth/me", h.handleMe)
	router.Put("/me", h.handleUpdateProfile)
}

func (h *UserHandler) RegisterAdminRoutes(router chi.Router) {
	router.Get("/admin/users", h.handleListUsers)
	router.Put("/admin/users/{userID}/role", h.handleSetRole)
}

func (h *UserHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.Name, req.Phone)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create user")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	u, token, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err, "Failed to sign in")
		return
	}

	respondWithJSON(w, http.StatusOK, SignInResponse{Token: token, User: u})
}

func (h *UserHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SignOut(r.Context(), tokenFrom(r.Context())); err != nil {
		respondWithServiceError(w, err, "Failed to sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRequestPasswordReset always answers 202 so the endpoint does not
// reveal which emails are registered.
func (h *UserHandler) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		log.Error().Err(err).Msg("Failed to process password reset request")
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *UserHandler) handleConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		respondWithServiceError(w, err, "Failed to reset password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetByID(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		respondWithServiceError(w, err, "Failed to get user")
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), claimsFrom(r.Context()).UserID(), req.Name, req.Phone)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update profile")
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to list users")
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "userID")
	if !ok {
		return
	}

	var req SetRoleRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.service.SetRole(r.Context(), id, user.Role(req.Role)); err != nil {
		respondWithServiceError(w, err, "Failed to update role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
