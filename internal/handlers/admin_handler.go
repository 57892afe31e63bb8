package handlers

import (
	"fmt"
	"net/http"
	"time"

	"churchadmin/internal/service"
)

// AdminHandler handles staff account management and backups
type AdminHandler struct {
	authService   *service.AuthService
	backupService *service.BackupService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *service.AuthService, backupService *service.BackupService) *AdminHandler {
	return &AdminHandler{
		authService:   authService,
		backupService: backupService,
	}
}

type staffRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

// ListUsers returns every staff account
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers()
	if err != nil {
		respondServiceError(w, err, "Error listing users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// CreateUser adds a staff account with a generated temporary password.
// The password is returned once so it can be handed over when email is off.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, tempPassword, err := h.authService.CreateStaffUser(r.Context(), req.Email, req.Name, req.IsAdmin)
	if err != nil {
		respondServiceError(w, err, "Error creating user")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"user":               user,
		"temporary_password": tempPassword,
	})
}

// UpdateUser changes a staff member's profile and admin flag
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req staffRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.UpdateUser(id, req.Email, req.Name, req.IsAdmin)
	if err != nil {
		respondServiceError(w, err, "Error updating user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DeleteUser removes a staff account
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}

	actor := GetUserFromContext(r.Context())
	if err := h.authService.DeleteUser(actor.ID, id); err != nil {
		respondServiceError(w, err, "Error deleting user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportBackup streams a full JSON backup as a download
func (h *AdminHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("churchadmin-backup-%s.json", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := h.backupService.ExportToWriter(w); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error exporting backup", err)
	}
}
