package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/vedran77/notes/internal/service"
	"github.com/vedran77/notes/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      zerolog.Logger
}

func NewAuthHandler(authService *service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input service.SignupInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateSignup(input.Username, input.Email, input.Password); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	user, err := h.authService.Signup(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, "USERNAME_TAKEN", "Username is already taken")
		default:
			writeInternal(w, h.logger, "signup", err)
		}
		return
	}

	h.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	writeJSON(w, http.StatusCreated, messageResponse{Message: "User registered successfully"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := validator.ValidateLogin(input.Username, input.Password); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	token, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		} else {
			writeInternal(w, h.logger, "login", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Logout only confirms the token was valid. Tokens are stateless and stay
// usable until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}
