package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"churchadmin/internal/models"
	"churchadmin/internal/reportperiod"
)

var june = reportperiod.DateRange{Start: "2024-06-01", End: "2024-06-30"}

func TestOutstandingBalance(t *testing.T) {
	tests := []struct {
		name              string
		pledged, received float64
		want              float64
	}{
		{name: "partially paid", pledged: 1000, received: 250.5, want: 749.5},
		{name: "fully paid", pledged: 500, received: 500, want: 0},
		{name: "overpaid clamps to zero", pledged: 500, received: 620, want: 0},
		{name: "nothing received", pledged: 75.25, received: 0, want: 75.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutstandingBalance(tt.pledged, tt.received))
		})
	}
}

func TestSummarizeDonations(t *testing.T) {
	donations := []models.Donation{
		{Amount: 100, Date: "2024-06-01"},
		{Amount: 50.5, Date: "2024-06-30"},
		{Amount: 999, Date: "2024-07-01"},
	}

	s := SummarizeDonations(donations, june)

	assert.Equal(t, 150.5, s.Total)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 75.25, s.Average)
}

func TestSummarizeOfferingsEmpty(t *testing.T) {
	s := SummarizeOfferings(nil, june)
	assert.Equal(t, AmountSummary{}, s)
}

func TestPledgeTotals(t *testing.T) {
	p := models.Pledge{ID: 1, AmountPledged: 300}
	contributions := []models.PledgeContribution{
		{PledgeID: 1, Amount: 100},
		{PledgeID: 1, Amount: 250},
		{PledgeID: 2, Amount: 40},
	}

	got := PledgeTotals(p, contributions)

	assert.Equal(t, 350.0, got.AmountReceived)
	assert.Equal(t, 0.0, got.Balance)
}

func TestBuildPledgeView(t *testing.T) {
	pledges := []models.Pledge{
		{ID: 1, AmountPledged: 1200, AmountReceived: 400, Status: models.PledgeActive},
		{ID: 2, AmountPledged: 300, AmountReceived: 300, Status: models.PledgeFulfilled},
		{ID: 3, AmountPledged: 5000, AmountReceived: 0, Status: models.PledgeCancelled},
	}
	contributions := []models.PledgeContribution{
		{PledgeID: 1, Amount: 100, Date: "2024-05-20"},
		{PledgeID: 1, Amount: 300, Date: "2024-06-05"},
		{PledgeID: 2, Amount: 300, Date: "2024-06-10"},
		{PledgeID: 3, Amount: 80, Date: "2024-06-11"},
	}

	v := BuildPledgeView(pledges, contributions, june)

	assert.Equal(t, 1500.0, v.TotalPledged)
	assert.Equal(t, 700.0, v.ReceivedAllTime)
	assert.Equal(t, 800.0, v.OutstandingAllTime)
	assert.Equal(t, 600.0, v.ReceivedInPeriod)
	assert.Equal(t, 900.0, v.OutstandingInPeriod)
	assert.Equal(t, 1, v.ActivePledges)
}
