package handlers

import (
	"net/http"

	"churchadmin/internal/models"
	"churchadmin/internal/security"
	"churchadmin/internal/service"
)

// AuthHandler handles staff sign-in, sessions and OAuth
type AuthHandler struct {
	authService          *service.AuthService
	csrf                 *security.CSRFGenerator
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	appBaseURL           string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, csrf *security.CSRFGenerator, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL, appBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		csrf:                 csrf,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		appBaseURL:           appBaseURL,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	CSRFToken string       `json:"csrf_token"`
}

// Login checks credentials and starts a session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err, "Error during login")
		return
	}

	http.SetCookie(w, security.NewSessionCookie(r, session.ID, session.ExpiresAt))
	h.respondSession(w, http.StatusOK, session.ID, user)
}

// Register creates the first administrator. Once any staff account exists
// new staff are added by an administrator instead.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	open, err := h.authService.NeedsBootstrap()
	if err != nil {
		respondServiceError(w, err, "Error checking registration")
		return
	}
	if !open {
		respondWithError(w, http.StatusForbidden, "Registration is closed. Ask an administrator for an account.", "", nil)
		return
	}

	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.authService.Register(req.Email, req.Password, req.Name); err != nil {
		respondServiceError(w, err, "Error registering user")
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err, "Error signing in new user")
		return
	}
	http.SetCookie(w, security.NewSessionCookie(r, session.ID, session.ExpiresAt))
	h.respondSession(w, http.StatusCreated, session.ID, user)
}

// Logout ends the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := security.SessionIDFromRequest(r); sessionID != "" {
		if err := h.authService.Logout(sessionID); err != nil {
			respondServiceError(w, err, "Error during logout")
			return
		}
	}
	http.SetCookie(w, security.ClearSessionCookie(r))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user and the CSRF token for the session
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.respondSession(w, http.StatusOK, security.SessionIDFromRequest(r), GetUserFromContext(r.Context()))
}

// ChangePassword replaces the signed-in user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user := GetUserFromContext(r.Context())
	if err := h.authService.ChangePassword(user.ID, req.Current, req.New); err != nil {
		respondServiceError(w, err, "Error changing password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Providers lists the OAuth providers that are configured
func (h *AuthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.oauthProviderViews())
}

func (h *AuthHandler) respondSession(w http.ResponseWriter, status int, sessionID string, user *models.User) {
	token, err := h.csrf.GenerateToken(sessionID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}
	respondJSON(w, status, sessionResponse{User: user, CSRFToken: token})
}
