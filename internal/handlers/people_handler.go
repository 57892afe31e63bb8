package handlers

import (
	"net/http"

	"churchadmin/internal/models"
	"churchadmin/internal/repository"
	"churchadmin/internal/service"
)

// PeopleHandler handles persons, families, clusters and branches
type PeopleHandler struct {
	peopleService *service.PeopleService
	lessonService *service.LessonService
}

// NewPeopleHandler creates a new people handler
func NewPeopleHandler(peopleService *service.PeopleService, lessonService *service.LessonService) *PeopleHandler {
	return &PeopleHandler{
		peopleService: peopleService,
		lessonService: lessonService,
	}
}

// ListPeople returns people filtered by q, status, family, cluster and branch
func (h *PeopleHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f := repository.PersonFilter{
		Query:  query.Get("q"),
		Status: models.PersonStatus(query.Get("status")),
	}
	var ok bool
	if f.FamilyID, ok = queryID(w, r, "family_id"); !ok {
		return
	}
	if f.ClusterID, ok = queryID(w, r, "cluster_id"); !ok {
		return
	}
	if f.BranchID, ok = queryID(w, r, "branch_id"); !ok {
		return
	}

	people, err := h.peopleService.ListPeople(f)
	if err != nil {
		respondServiceError(w, err, "Error listing people")
		return
	}
	respondJSON(w, http.StatusOK, people)
}

// CreatePerson adds a person
func (h *PeopleHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var in service.PersonInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.peopleService.CreatePerson(in)
	if err != nil {
		respondServiceError(w, err, "Error creating person")
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// GetPerson returns one person
func (h *PeopleHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.peopleService.GetPerson(id)
	if err != nil {
		respondServiceError(w, err, "Error getting person")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// UpdatePerson replaces a person's editable fields
func (h *PeopleHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.PersonInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.peopleService.UpdatePerson(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating person")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DeletePerson removes a person
func (h *PeopleHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	if err := h.peopleService.DeletePerson(id); err != nil {
		respondServiceError(w, err, "Error deleting person")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFamily moves a person into a family, or out of one when family_id is null
func (h *PeopleHandler) SetFamily(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		FamilyID *int64 `json:"family_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.peopleService.SetFamilyMember(id, req.FamilyID)
	if err != nil {
		respondServiceError(w, err, "Error setting family")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// LessonSummary returns one person's curriculum progress
func (h *PeopleHandler) LessonSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.lessonService.PersonSummary(id)
	if err != nil {
		respondServiceError(w, err, "Error building lesson summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// Families

func (h *PeopleHandler) ListFamilies(w http.ResponseWriter, r *http.Request) {
	families, err := h.peopleService.ListFamilies()
	if err != nil {
		respondServiceError(w, err, "Error listing families")
		return
	}
	respondJSON(w, http.StatusOK, families)
}

func (h *PeopleHandler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	var in service.FamilyInput
	if !decodeJSON(w, r, &in) {
		return
	}
	f, err := h.peopleService.CreateFamily(in)
	if err != nil {
		respondServiceError(w, err, "Error creating family")
		return
	}
	respondJSON(w, http.StatusCreated, f)
}

// GetFamily returns a family with its members
func (h *PeopleHandler) GetFamily(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, err := h.peopleService.GetFamily(id)
	if err != nil {
		respondServiceError(w, err, "Error getting family")
		return
	}
	respondJSON(w, http.StatusOK, f)
}

func (h *PeopleHandler) UpdateFamily(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.FamilyInput
	if !decodeJSON(w, r, &in) {
		return
	}
	f, err := h.peopleService.UpdateFamily(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating family")
		return
	}
	respondJSON(w, http.StatusOK, f)
}

func (h *PeopleHandler) DeleteFamily(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	if err := h.peopleService.DeleteFamily(id); err != nil {
		respondServiceError(w, err, "Error deleting family")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clusters

// ListClusters returns clusters with member and family counts
func (h *PeopleHandler) ListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.peopleService.ListClusters()
	if err != nil {
		respondServiceError(w, err, "Error listing clusters")
		return
	}
	respondJSON(w, http.StatusOK, clusters)
}

func (h *PeopleHandler) CreateCluster(w http.ResponseWriter, r *http.Request) {
	var in service.ClusterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.peopleService.CreateCluster(in)
	if err != nil {
		respondServiceError(w, err, "Error creating cluster")
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *PeopleHandler) GetCluster(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.peopleService.GetCluster(id)
	if err != nil {
		respondServiceError(w, err, "Error getting cluster")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *PeopleHandler) UpdateCluster(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.ClusterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.peopleService.UpdateCluster(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating cluster")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *PeopleHandler) DeleteCluster(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfirm(w, r) {
		return
	}
	if err := h.peopleService.DeleteCluster(id); err != nil {
		respondServiceError(w, err, "Error deleting cluster")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Branches

func (h *PeopleHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.peopleService.ListBranches()
	if err != nil {
		respondServiceError(w, err, "Error listing branches")
		return
	}
	respondJSON(w, http.StatusOK, branches)
}

func (h *PeopleHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var in service.BranchInput
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.peopleService.CreateBranch(in)
	if err != nil {
		respondServiceError(w, err, "Error creating branch")
		return
	}
	respondJSON(w, http.StatusCreated, b)
}
