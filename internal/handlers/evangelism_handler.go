package handlers

import (
	"net/http"

	"churchadmin/internal/models"
	"churchadmin/internal/service"
)

// EvangelismHandler handles evangelism groups and their prospects
type EvangelismHandler struct {
	evangelismService *service.EvangelismService
}

// NewEvangelismHandler creates a new evangelism handler
func NewEvangelismHandler(evangelismService *service.EvangelismService) *EvangelismHandler {
	return &EvangelismHandler{evangelismService: evangelismService}
}

func activeOnly(r *http.Request) bool {
	return r.URL.Query().Get("active") == "true"
}

// ListGroups returns groups; active=true hides inactive ones
func (h *EvangelismHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.evangelismService.ListGroups(activeOnly(r))
	if err != nil {
		respondServiceError(w, err, "Error listing groups")
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

func (h *EvangelismHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var in service.GroupInput
	if !decodeJSON(w, r, &in) {
		return
	}
	g, err := h.evangelismService.CreateGroup(in)
	if err != nil {
		respondServiceError(w, err, "Error creating group")
		return
	}
	respondJSON(w, http.StatusCreated, g)
}

func (h *EvangelismHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	g, err := h.evangelismService.GetGroup(id)
	if err != nil {
		respondServiceError(w, err, "Error getting group")
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (h *EvangelismHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.GroupInput
	if !decodeJSON(w, r, &in) {
		return
	}
	g, err := h.evangelismService.UpdateGroup(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating group")
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (h *EvangelismHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	if err := h.evangelismService.DeleteGroup(id); err != nil {
		respondServiceError(w, err, "Error deleting group")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pipeline returns per-stage prospect counts for every group
func (h *EvangelismHandler) Pipeline(w http.ResponseWriter, r *http.Request) {
	pipelines, err := h.evangelismService.Pipeline(activeOnly(r))
	if err != nil {
		respondServiceError(w, err, "Error building pipeline")
		return
	}
	respondJSON(w, http.StatusOK, pipelines)
}

// ListProspects returns a group's prospects, optionally at one stage
func (h *EvangelismHandler) ListProspects(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	prospects, err := h.evangelismService.ListProspects(groupID, models.ProspectStage(r.URL.Query().Get("stage")))
	if err != nil {
		respondServiceError(w, err, "Error listing prospects")
		return
	}
	respondJSON(w, http.StatusOK, prospects)
}

// CreateProspect adds a prospect to the group in the path
func (h *EvangelismHandler) CreateProspect(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.ProspectInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.GroupID = groupID
	p, err := h.evangelismService.CreateProspect(in)
	if err != nil {
		respondServiceError(w, err, "Error creating prospect")
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *EvangelismHandler) GetProspect(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.evangelismService.GetProspect(id)
	if err != nil {
		respondServiceError(w, err, "Error getting prospect")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *EvangelismHandler) UpdateProspect(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.ProspectInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.evangelismService.UpdateProspect(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating prospect")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *EvangelismHandler) DeleteProspect(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	if err := h.evangelismService.DeleteProspect(id); err != nil {
		respondServiceError(w, err, "Error deleting prospect")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConvertProspect creates a visitor record for the prospect
func (h *EvangelismHandler) ConvertProspect(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	prospect, person, err := h.evangelismService.ConvertProspect(id)
	if err != nil {
		respondServiceError(w, err, "Error converting prospect")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"prospect": prospect,
		"person":   person,
	})
}
