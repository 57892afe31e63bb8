package handlers

import (
	"net/http"

	"churchadmin/internal/models"
	"churchadmin/internal/progress"
	"churchadmin/internal/service"
)

// LessonHandler handles the lesson catalog, assignments and progress
type LessonHandler struct {
	lessonService *service.LessonService
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(lessonService *service.LessonService) *LessonHandler {
	return &LessonHandler{lessonService: lessonService}
}

// ListLessons returns the catalog; current=true keeps the current curriculum only
func (h *LessonHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessonService.ListLessons(r.URL.Query().Get("current") == "true")
	if err != nil {
		respondServiceError(w, err, "Error listing lessons")
		return
	}
	respondJSON(w, http.StatusOK, lessons)
}

func (h *LessonHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var in service.LessonInput
	if !decodeJSON(w, r, &in) {
		return
	}
	l, err := h.lessonService.CreateLesson(in)
	if err != nil {
		respondServiceError(w, err, "Error creating lesson")
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

// GetLesson returns a lesson with its content rendered to HTML
func (h *LessonHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	l, err := h.lessonService.GetLesson(id)
	if err != nil {
		respondServiceError(w, err, "Error getting lesson")
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (h *LessonHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.LessonUpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	l, err := h.lessonService.UpdateLesson(id, in)
	if err != nil {
		respondServiceError(w, err, "Error updating lesson")
		return
	}
	respondJSON(w, http.StatusOK, l)
}

// SupersedeLesson publishes a new version of a lesson
func (h *LessonHandler) SupersedeLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.SupersedeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	l, err := h.lessonService.SupersedeLesson(id, in)
	if err != nil {
		respondServiceError(w, err, "Error superseding lesson")
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

// AssignToPeople assigns the lesson in the path to many people
func (h *LessonHandler) AssignToPeople(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		PersonIDs []int64 `json:"person_ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	results, err := h.lessonService.AssignLessonToPeople(id, req.PersonIDs, assignedBy(r))
	if err != nil {
		respondServiceError(w, err, "Error assigning lesson")
		return
	}
	respondAssignResults(w, results)
}

// AssignToPerson assigns many lessons to the person in the path
func (h *LessonHandler) AssignToPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		LessonIDs []int64 `json:"lesson_ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	results, err := h.lessonService.AssignLessonsToPerson(id, req.LessonIDs, assignedBy(r))
	if err != nil {
		respondServiceError(w, err, "Error assigning lessons")
		return
	}
	respondAssignResults(w, results)
}

// respondAssignResults answers 200 when every item succeeded and 207 otherwise
func respondAssignResults(w http.ResponseWriter, results []service.AssignResult) {
	status := http.StatusOK
	if !service.AllAssigned(results) {
		status = http.StatusMultiStatus
	}
	respondJSON(w, status, map[string]interface{}{"results": results})
}

func assignedBy(r *http.Request) *int64 {
	if user := GetUserFromContext(r.Context()); user != nil {
		return &user.ID
	}
	return nil
}

// ListProgress returns progress records, optionally for one person and/or lesson
func (h *LessonHandler) ListProgress(w http.ResponseWriter, r *http.Request) {
	personID, ok := queryID(w, r, "person_id")
	if !ok {
		return
	}
	lessonID, ok := queryID(w, r, "lesson_id")
	if !ok {
		return
	}
	records, err := h.lessonService.ListProgress(personID, lessonID)
	if err != nil {
		respondServiceError(w, err, "Error listing progress")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (h *LessonHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lp, err := h.lessonService.GetProgress(id)
	if err != nil {
		respondServiceError(w, err, "Error getting progress")
		return
	}
	respondJSON(w, http.StatusOK, lp)
}

// UpdateProgress applies a status, commitment or notes change
func (h *LessonHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status           *models.ProgressStatus `json:"status"`
		CommitmentSigned *bool                  `json:"commitment_signed"`
		Notes            *string                `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var lp *models.LessonProgress
	var err error
	if req.Status != nil {
		if lp, err = h.lessonService.UpdateProgressStatus(r.Context(), id, *req.Status); err != nil {
			respondServiceError(w, err, "Error updating progress status")
			return
		}
	}
	if req.CommitmentSigned != nil {
		if lp, err = h.lessonService.SetCommitment(id, *req.CommitmentSigned); err != nil {
			respondServiceError(w, err, "Error updating commitment")
			return
		}
	}
	if req.Notes != nil {
		if lp, err = h.lessonService.UpdateProgressNotes(id, *req.Notes); err != nil {
			respondServiceError(w, err, "Error updating notes")
			return
		}
	}
	if lp == nil {
		if lp, err = h.lessonService.GetProgress(id); err != nil {
			respondServiceError(w, err, "Error getting progress")
			return
		}
	}
	respondJSON(w, http.StatusOK, lp)
}

// CompleteProgress marks a record completed with an optional note
func (h *LessonHandler) CompleteProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	lp, err := h.lessonService.CompleteProgress(r.Context(), id, req.Note)
	if err != nil {
		respondServiceError(w, err, "Error completing progress")
		return
	}
	respondJSON(w, http.StatusOK, lp)
}

// Summaries returns one curriculum summary per person, filtered by q and ordered by sort
func (h *LessonHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	summaries, err := h.lessonService.Summaries(query.Get("q"), progress.SortKey(query.Get("sort")))
	if err != nil {
		respondServiceError(w, err, "Error building summaries")
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}
