package handlers

import (
	"net/http"

	"churchadmin/internal/models"
	"churchadmin/internal/repository"
	"churchadmin/internal/service"
)

// CoordinatorHandler handles module coordinator grants
type CoordinatorHandler struct {
	coordinatorService *service.CoordinatorService
}

// NewCoordinatorHandler creates a new coordinator handler
func NewCoordinatorHandler(coordinatorService *service.CoordinatorService) *CoordinatorHandler {
	return &CoordinatorHandler{coordinatorService: coordinatorService}
}

func (h *CoordinatorHandler) ListCoordinators(w http.ResponseWriter, r *http.Request) {
	personID, ok := queryID(w, r, "person_id")
	if !ok {
		return
	}
	grants, err := h.coordinatorService.ListCoordinators(repository.CoordinatorFilter{
		PersonID: personID,
		Module:   models.Module(r.URL.Query().Get("module")),
	})
	if err != nil {
		respondServiceError(w, err, "Error listing coordinators")
		return
	}
	respondJSON(w, http.StatusOK, grants)
}

func (h *CoordinatorHandler) CreateCoordinator(w http.ResponseWriter, r *http.Request) {
	var in service.CoordinatorInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.coordinatorService.CreateCoordinator(in)
	if err != nil {
		respondServiceError(w, err, "Error creating coordinator")
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *CoordinatorHandler) GetCoordinator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.coordinatorService.GetCoordinator(id)
	if err != nil {
		respondServiceError(w, err, "Error getting coordinator")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *CoordinatorHandler) UpdateCoordinator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.CoordinatorInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.coordinatorService.UpdateCoordinator(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating coordinator")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *CoordinatorHandler) DeleteCoordinator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	if err := h.coordinatorService.DeleteCoordinator(id); err != nil {
		respondServiceError(w, err, "Error deleting coordinator")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckScope answers whether a person may act on a module or one of its resources
func (h *CoordinatorHandler) CheckScope(w http.ResponseWriter, r *http.Request) {
	personID, ok := queryID(w, r, "person_id")
	if !ok {
		return
	}
	resourceID, ok := queryID(w, r, "resource_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	module := models.Module(q.Get("module"))
	allowed, err := h.coordinatorService.CheckScope(personID, module, q.Get("resource_type"), resourceID)
	if err != nil {
		respondServiceError(w, err, "Error checking coordinator scope")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"module": module, "allowed": allowed})
}
