package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"churchadmin/internal/models"
)

// ErrNothingSelected is returned before any request when a bulk call has no items
var ErrNothingSelected = errors.New("select at least one item")

// LessonsAPI covers the lesson catalog
type LessonsAPI struct {
	c *Client
}

// List returns the catalog; currentOnly keeps the current curriculum
func (a *LessonsAPI) List(ctx context.Context, currentOnly bool) ([]models.Lesson, error) {
	query := url.Values{}
	if currentOnly {
		query.Set("current", "true")
	}
	var lessons []models.Lesson
	if err := a.c.do(ctx, http.MethodGet, "/api/lessons", query, nil, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (a *LessonsAPI) Get(ctx context.Context, id int64) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := a.c.do(ctx, http.MethodGet, idPath("/api/lessons/%d", id), nil, nil, &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// AssignResult is the outcome of one item of a bulk assignment
type AssignResult struct {
	ItemID   int64                  `json:"item_id"`
	Progress *models.LessonProgress `json:"progress,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// AssignToPeople assigns a lesson to each person. A partial failure is not an
// error; inspect the per-item results.
func (a *LessonsAPI) AssignToPeople(ctx context.Context, lessonID int64, personIDs []int64) ([]AssignResult, error) {
	if len(personIDs) == 0 {
		return nil, ErrNothingSelected
	}
	var resp struct {
		Results []AssignResult `json:"results"`
	}
	body := map[string][]int64{"person_ids": personIDs}
	if err := a.c.do(ctx, http.MethodPost, idPath("/api/lessons/%d/assign", lessonID), nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ProgressAPI covers lesson progress records and summaries
type ProgressAPI struct {
	c *Client
}

// List returns progress records, optionally for one person
func (a *ProgressAPI) List(ctx context.Context, personID *int64) ([]models.LessonProgress, error) {
	query := url.Values{}
	if personID != nil {
		query.Set("person_id", formatID(*personID))
	}
	var records []models.LessonProgress
	if err := a.c.do(ctx, http.MethodGet, "/api/lessons/progress", query, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Complete marks a record completed
func (a *ProgressAPI) Complete(ctx context.Context, id int64, note string) (*models.LessonProgress, error) {
	var lp models.LessonProgress
	body := map[string]string{"note": note}
	if err := a.c.do(ctx, http.MethodPost, idPath("/api/lessons/progress/%d/complete", id), nil, body, &lp); err != nil {
		return nil, err
	}
	return &lp, nil
}

// Summaries returns per-person curriculum summaries filtered by q and ordered by sort
func (a *ProgressAPI) Summaries(ctx context.Context, q, sort string) ([]models.PersonSummary, error) {
	query := url.Values{}
	if q != "" {
		query.Set("q", q)
	}
	if sort != "" {
		query.Set("sort", sort)
	}
	var summaries []models.PersonSummary
	if err := a.c.do(ctx, http.MethodGet, "/api/lessons/progress/summary", query, nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}
