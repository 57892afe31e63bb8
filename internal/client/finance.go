package client

import (
	"context"
	"net/http"
	"net/url"

	"churchadmin/internal/models"
	"churchadmin/internal/service"
)

// FinanceAPI covers pledges and the finance dashboard
type FinanceAPI struct {
	c *Client
}

// Stats returns dashboard figures for a period; an empty period means this month
func (a *FinanceAPI) Stats(ctx context.Context, period, start, end string) (*service.FinanceStats, error) {
	query := url.Values{}
	for name, v := range map[string]string{"period": period, "start": start, "end": end} {
		if v != "" {
			query.Set(name, v)
		}
	}
	var stats service.FinanceStats
	if err := a.c.do(ctx, http.MethodGet, "/api/finance/stats", query, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Pledges lists pledges with their totals, optionally with one status
func (a *FinanceAPI) Pledges(ctx context.Context, status models.PledgeStatus) ([]models.Pledge, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}
	var pledges []models.Pledge
	if err := a.c.do(ctx, http.MethodGet, "/api/finance/pledges", query, nil, &pledges); err != nil {
		return nil, err
	}
	return pledges, nil
}

// AddContribution records a payment toward a pledge. A non-positive amount
// is refused before any request is sent.
func (a *FinanceAPI) AddContribution(ctx context.Context, pledgeID int64, amount float64, date, note string) (*models.PledgeContribution, *models.Pledge, error) {
	if amount <= 0 {
		return nil, nil, &APIError{Message: "Enter a positive contribution amount"}
	}

	var resp struct {
		Contribution *models.PledgeContribution `json:"contribution"`
		Pledge       *models.Pledge             `json:"pledge"`
	}
	body := service.ContributionInput{Amount: amount, Date: date, Note: note}
	if err := a.c.do(ctx, http.MethodPost, idPath("/api/finance/pledges/%d/contributions", pledgeID), nil, body, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Contribution, resp.Pledge, nil
}
