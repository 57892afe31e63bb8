// Package finance derives display totals from donation, offering and pledge records.
// Figures computed here are period-scoped views; the per-pledge totals stored by the
// service remain the authoritative balances.
package finance

import (
	"math"

	"churchadmin/internal/models"
	"churchadmin/internal/reportperiod"
)

// AmountSummary aggregates a set of amounts
type AmountSummary struct {
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

func (s *AmountSummary) add(amount float64) {
	s.Total += amount
	s.Count++
}

func (s *AmountSummary) finish() {
	s.Total = Round(s.Total)
	if s.Count > 0 {
		s.Average = Round(s.Total / float64(s.Count))
	}
}

// PledgeView combines all-time pledge totals with the contributions received in a period.
// OutstandingInPeriod is max(0, TotalPledged - ReceivedInPeriod) and is a period view only.
type PledgeView struct {
	TotalPledged        float64 `json:"total_pledged"`
	ReceivedAllTime     float64 `json:"received_all_time"`
	OutstandingAllTime  float64 `json:"outstanding_all_time"`
	ReceivedInPeriod    float64 `json:"received_in_period"`
	OutstandingInPeriod float64 `json:"outstanding_in_period"`
	ActivePledges       int     `json:"active_pledges"`
}

// Round rounds to whole cents
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// OutstandingBalance returns pledged minus received, clamped at zero
func OutstandingBalance(pledged, received float64) float64 {
	return Round(math.Max(0, pledged-received))
}

// SummarizeDonations totals donations dated inside r
func SummarizeDonations(donations []models.Donation, r reportperiod.DateRange) AmountSummary {
	var s AmountSummary
	for _, d := range donations {
		if r.Contains(d.Date) {
			s.add(d.Amount)
		}
	}
	s.finish()
	return s
}

// SummarizeOfferings totals offerings whose service date is inside r
func SummarizeOfferings(offerings []models.Offering, r reportperiod.DateRange) AmountSummary {
	var s AmountSummary
	for _, o := range offerings {
		if r.Contains(o.ServiceDate) {
			s.add(o.Amount)
		}
	}
	s.finish()
	return s
}

// SumContributions totals the contributions dated inside r
func SumContributions(contributions []models.PledgeContribution, r reportperiod.DateRange) float64 {
	var total float64
	for _, c := range contributions {
		if r.Contains(c.Date) {
			total += c.Amount
		}
	}
	return Round(total)
}

// PledgeTotals recomputes a pledge's authoritative received amount and balance from all its contributions
func PledgeTotals(p models.Pledge, contributions []models.PledgeContribution) models.Pledge {
	var received float64
	for _, c := range contributions {
		if c.PledgeID == p.ID {
			received += c.Amount
		}
	}
	p.AmountReceived = Round(received)
	p.Balance = OutstandingBalance(p.AmountPledged, p.AmountReceived)
	return p
}

// BuildPledgeView derives the pledge metrics tile. Cancelled pledges are left out.
func BuildPledgeView(pledges []models.Pledge, contributions []models.PledgeContribution, r reportperiod.DateRange) PledgeView {
	var v PledgeView
	included := make(map[int64]bool, len(pledges))
	for _, p := range pledges {
		if p.Status == models.PledgeCancelled {
			continue
		}
		included[p.ID] = true
		v.TotalPledged += p.AmountPledged
		v.ReceivedAllTime += p.AmountReceived
		if p.Status == models.PledgeActive {
			v.ActivePledges++
		}
	}

	var inPeriod []models.PledgeContribution
	for _, c := range contributions {
		if included[c.PledgeID] {
			inPeriod = append(inPeriod, c)
		}
	}

	v.TotalPledged = Round(v.TotalPledged)
	v.ReceivedAllTime = Round(v.ReceivedAllTime)
	v.OutstandingAllTime = OutstandingBalance(v.TotalPledged, v.ReceivedAllTime)
	v.ReceivedInPeriod = SumContributions(inPeriod, r)
	v.OutstandingInPeriod = OutstandingBalance(v.TotalPledged, v.ReceivedInPeriod)
	return v
}
