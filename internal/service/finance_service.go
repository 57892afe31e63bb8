package service

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"churchadmin/internal/debounce"
	"churchadmin/internal/finance"
	"churchadmin/internal/models"
	"churchadmin/internal/reportperiod"
	"churchadmin/internal/repository"
	"churchadmin/internal/validation"
)

// PeriodViewLabel marks figures that are scoped to the selected period
const PeriodViewLabel = "period view"

// DonationInput is the writable part of a donation
type DonationInput struct {
	DonorID   *int64               `json:"donor_id"`
	DonorName string               `json:"donor_name" validate:"max=150"`
	Amount    float64              `json:"amount" validate:"gt=0"`
	Method    models.PaymentMethod `json:"method" validate:"required,oneof=CASH CHECK BANK_TRANSFER CARD ONLINE"`
	Purpose   string               `json:"purpose" validate:"max=150"`
	Date      string               `json:"date" validate:"required,date"`
	Notes     string               `json:"notes"`
}

// OfferingInput is the writable part of an offering
type OfferingInput struct {
	ServiceDate string               `json:"service_date" validate:"required,date"`
	ServiceName string               `json:"service_name" validate:"required,max=150"`
	Amount      float64              `json:"amount" validate:"gt=0"`
	Method      models.PaymentMethod `json:"method" validate:"required,oneof=CASH CHECK BANK_TRANSFER CARD ONLINE"`
	Notes       string               `json:"notes"`
}

// PledgeInput is the writable part of a pledge
type PledgeInput struct {
	PledgerID     *int64              `json:"pledger_id"`
	PledgerName   string              `json:"pledger_name" validate:"max=150"`
	Title         string              `json:"title" validate:"required,max=200"`
	AmountPledged float64             `json:"amount_pledged" validate:"gt=0"`
	StartDate     string              `json:"start_date" validate:"required,date"`
	EndDate       string              `json:"end_date" validate:"omitempty,date"`
	Status        models.PledgeStatus `json:"status" validate:"omitempty,oneof=ACTIVE FULFILLED CANCELLED"`
}

// ContributionInput is one payment toward a pledge
type ContributionInput struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date" validate:"required,date"`
	Note   string  `json:"note"`
}

// StatsQuery selects the period of a finance stats request
type StatsQuery struct {
	Period string
	Start  string
	End    string
}

func (q StatsQuery) isDefault() bool {
	return reportperiod.Parse(q.Period) == reportperiod.ThisMonth
}

// FinanceStats is the finance dashboard tile set for one period
type FinanceStats struct {
	Period          reportperiod.Period    `json:"period"`
	Label           string                 `json:"label"`
	Range           reportperiod.DateRange `json:"range"`
	Days            int                    `json:"days"`
	Donations       finance.AmountSummary  `json:"donations"`
	Offerings       finance.AmountSummary  `json:"offerings"`
	Pledges         finance.PledgeView     `json:"pledges"`
	PledgeViewLabel string                 `json:"pledge_view_label"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// FinanceService handles donations, offerings, pledges and finance stats.
// Stats for the default period are cached and recomputed shortly after the
// last finance mutation.
type FinanceService struct {
	repo       *repository.FinanceRepository
	personRepo *repository.PersonRepository
	refresh    *debounce.Debouncer
	now        func() time.Time

	mu      sync.Mutex
	cached  *FinanceStats
	version uint64 // bumped by every mutation
}

// NewFinanceService creates a new finance service. statsDelay is the quiet period
// after a mutation before cached stats are rebuilt.
func NewFinanceService(repo *repository.FinanceRepository, personRepo *repository.PersonRepository, statsDelay time.Duration) *FinanceService {
	return &FinanceService{
		repo:       repo,
		personRepo: personRepo,
		refresh:    debounce.New(statsDelay),
		now:        time.Now,
	}
}

// Close cancels any pending stats refresh
func (s *FinanceService) Close() {
	s.refresh.Stop()
}

// Stats computes the dashboard figures for a period. The default period is
// served from the cache when it is still valid.
func (s *FinanceService) Stats(q StatsQuery) (*FinanceStats, error) {
	if !q.isDefault() {
		return s.computeStats(q)
	}

	today := reportperiod.Resolve(reportperiod.ThisMonth, "", "", s.now())
	s.mu.Lock()
	cached := s.cached
	s.mu.Unlock()
	if cached != nil && cached.Range == today {
		snapshot := *cached
		return &snapshot, nil
	}
	// Rebuilding now makes the scheduled refresh redundant
	if s.refresh.Pending() {
		s.refresh.Cancel()
	}
	return s.rebuildCache()
}

// rebuildCache computes the default stats and caches them unless a mutation
// landed while they were being computed
func (s *FinanceService) rebuildCache() (*FinanceStats, error) {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	stats, err := s.computeStats(StatsQuery{})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.version == version {
		s.cached = stats
	}
	s.mu.Unlock()
	snapshot := *stats
	return &snapshot, nil
}

// changed drops the cached stats and schedules a rebuild
func (s *FinanceService) changed() {
	s.mu.Lock()
	s.cached = nil
	s.version++
	s.mu.Unlock()

	s.refresh.Trigger(func() {
		if _, err := s.rebuildCache(); err != nil {
			log.Printf("Error refreshing finance stats: %v", err)
		}
	})
}

func (s *FinanceService) computeStats(q StatsQuery) (*FinanceStats, error) {
	now := s.now()
	period := reportperiod.Parse(q.Period)
	r := reportperiod.Resolve(period, q.Start, q.End, now)
	filter := repository.DateFilter{Start: r.Start, End: r.End}

	donations, err := s.repo.ListDonations(filter)
	if err != nil {
		return nil, err
	}
	offerings, err := s.repo.ListOfferings(filter)
	if err != nil {
		return nil, err
	}
	pledges, contributions, err := s.pledgesWithTotals("")
	if err != nil {
		return nil, err
	}

	return &FinanceStats{
		Period:          period,
		Label:           reportperiod.Label(period, q.Start, q.End, now),
		Range:           r,
		Days:            r.Days(),
		Donations:       finance.SummarizeDonations(donations, r),
		Offerings:       finance.SummarizeOfferings(offerings, r),
		Pledges:         finance.BuildPledgeView(pledges, contributions, r),
		PledgeViewLabel: PeriodViewLabel,
		GeneratedAt:     now,
	}, nil
}

// Donations

// CreateDonation records a donation. A donor linked to a person takes the
// person's name when none is given; otherwise the donor is Anonymous.
func (s *FinanceService) CreateDonation(in DonationInput) (*models.Donation, error) {
	d, err := s.donationFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateDonation(d); err != nil {
		return nil, err
	}
	s.changed()
	return d, nil
}

// GetDonation retrieves a donation by ID
func (s *FinanceService) GetDonation(id int64) (*models.Donation, error) {
	d, err := s.repo.GetDonation(id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDonationNotFound
	}
	return d, nil
}

// ListDonations returns donations between optional inclusive dates
func (s *FinanceService) ListDonations(start, end string) ([]models.Donation, error) {
	f, err := dateFilter(start, end)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDonations(f)
}

// UpdateDonation replaces the editable fields of a donation
func (s *FinanceService) UpdateDonation(id int64, in DonationInput) (*models.Donation, error) {
	existing, err := s.GetDonation(id)
	if err != nil {
		return nil, err
	}
	d, err := s.donationFromInput(in)
	if err != nil {
		return nil, err
	}
	d.ID = existing.ID
	d.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateDonation(d); err != nil {
		return nil, err
	}
	s.changed()
	return d, nil
}

// DeleteDonation removes a donation
func (s *FinanceService) DeleteDonation(id int64) error {
	if _, err := s.GetDonation(id); err != nil {
		return err
	}
	if err := s.repo.DeleteDonation(id); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *FinanceService) donationFromInput(in DonationInput) (*models.Donation, error) {
	in.DonorName = strings.TrimSpace(in.DonorName)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	name, err := s.partyName(in.DonorID, in.DonorName, "donor_id")
	if err != nil {
		return nil, err
	}
	return &models.Donation{
		DonorID:   in.DonorID,
		DonorName: name,
		Amount:    finance.Round(in.Amount),
		Method:    in.Method,
		Purpose:   strings.TrimSpace(in.Purpose),
		Date:      in.Date,
		Notes:     strings.TrimSpace(in.Notes),
	}, nil
}

// partyName resolves the display name of a donor or pledger
func (s *FinanceService) partyName(personID *int64, name, field string) (string, error) {
	if personID == nil {
		if name == "" {
			return "Anonymous", nil
		}
		return name, nil
	}
	p, err := s.personRepo.GetByID(*personID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", validation.Single(field, "Select a valid person.")
	}
	if name == "" {
		return p.FullName(), nil
	}
	return name, nil
}

// Offerings

// CreateOffering records a service offering
func (s *FinanceService) CreateOffering(in OfferingInput) (*models.Offering, error) {
	o, err := offeringFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateOffering(o); err != nil {
		return nil, err
	}
	s.changed()
	return o, nil
}

// GetOffering retrieves an offering by ID
func (s *FinanceService) GetOffering(id int64) (*models.Offering, error) {
	o, err := s.repo.GetOffering(id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOfferingNotFound
	}
	return o, nil
}

// ListOfferings returns offerings between optional inclusive dates
func (s *FinanceService) ListOfferings(start, end string) ([]models.Offering, error) {
	f, err := dateFilter(start, end)
	if err != nil {
		return nil, err
	}
	return s.repo.ListOfferings(f)
}

// UpdateOffering replaces the editable fields of an offering
func (s *FinanceService) UpdateOffering(id int64, in OfferingInput) (*models.Offering, error) {
	existing, err := s.GetOffering(id)
	if err != nil {
		return nil, err
	}
	o, err := offeringFromInput(in)
	if err != nil {
		return nil, err
	}
	o.ID = existing.ID
	o.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateOffering(o); err != nil {
		return nil, err
	}
	s.changed()
	return o, nil
}

// DeleteOffering removes an offering
func (s *FinanceService) DeleteOffering(id int64) error {
	if _, err := s.GetOffering(id); err != nil {
		return err
	}
	if err := s.repo.DeleteOffering(id); err != nil {
		return err
	}
	s.changed()
	return nil
}

func offeringFromInput(in OfferingInput) (*models.Offering, error) {
	in.ServiceName = strings.TrimSpace(in.ServiceName)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return &models.Offering{
		ServiceDate: in.ServiceDate,
		ServiceName: in.ServiceName,
		Amount:      finance.Round(in.Amount),
		Method:      in.Method,
		Notes:       strings.TrimSpace(in.Notes),
	}, nil
}

// Pledges

// CreatePledge records a pledge. New pledges are ACTIVE unless stated otherwise.
func (s *FinanceService) CreatePledge(in PledgeInput) (*models.Pledge, error) {
	p, err := s.pledgeFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreatePledge(p); err != nil {
		return nil, err
	}
	s.changed()
	result := finance.PledgeTotals(*p, nil)
	return &result, nil
}

// GetPledge retrieves a pledge with its received amount and balance
func (s *FinanceService) GetPledge(id int64) (*models.Pledge, error) {
	p, err := s.repo.GetPledge(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPledgeNotFound
	}
	contributions, err := s.repo.ListContributions(&p.ID)
	if err != nil {
		return nil, err
	}
	result := finance.PledgeTotals(*p, contributions)
	return &result, nil
}

// ListPledges returns pledges with their totals, optionally filtered by status
func (s *FinanceService) ListPledges(status models.PledgeStatus) ([]models.Pledge, error) {
	if status != "" && !status.Valid() {
		return nil, validation.Single("status", "Select one of: ACTIVE FULFILLED CANCELLED.")
	}
	pledges, _, err := s.pledgesWithTotals(status)
	return pledges, err
}

func (s *FinanceService) pledgesWithTotals(status models.PledgeStatus) ([]models.Pledge, []models.PledgeContribution, error) {
	pledges, err := s.repo.ListPledges(status)
	if err != nil {
		return nil, nil, err
	}
	contributions, err := s.repo.ListContributions(nil)
	if err != nil {
		return nil, nil, err
	}
	for i := range pledges {
		pledges[i] = finance.PledgeTotals(pledges[i], contributions)
	}
	return pledges, contributions, nil
}

// UpdatePledge replaces the editable fields of a pledge
func (s *FinanceService) UpdatePledge(id int64, in PledgeInput) (*models.Pledge, error) {
	existing, err := s.repo.GetPledge(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrPledgeNotFound
	}
	if in.Status == "" {
		in.Status = existing.Status
	}

	p, err := s.pledgeFromInput(in)
	if err != nil {
		return nil, err
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdatePledge(p); err != nil {
		return nil, err
	}
	s.changed()
	return s.GetPledge(id)
}

// DeletePledge removes a pledge and its contributions
func (s *FinanceService) DeletePledge(id int64) error {
	if _, err := s.GetPledge(id); err != nil {
		return err
	}
	if err := s.repo.DeletePledge(id); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *FinanceService) pledgeFromInput(in PledgeInput) (*models.Pledge, error) {
	in.PledgerName = strings.TrimSpace(in.PledgerName)
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.EndDate != "" && in.EndDate < in.StartDate {
		return nil, validation.Single("end_date", "End date cannot be before the start date.")
	}
	if in.Status == "" {
		in.Status = models.PledgeActive
	}
	name, err := s.partyName(in.PledgerID, in.PledgerName, "pledger_id")
	if err != nil {
		return nil, err
	}
	return &models.Pledge{
		PledgerID:     in.PledgerID,
		PledgerName:   name,
		Title:         in.Title,
		AmountPledged: finance.Round(in.AmountPledged),
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Status:        in.Status,
	}, nil
}

// Contributions

// AddContribution records a payment toward a pledge and returns the pledge
// with its updated totals.
func (s *FinanceService) AddContribution(pledgeID int64, in ContributionInput) (*models.PledgeContribution, *models.Pledge, error) {
	fe := validation.FieldErrors{}
	if in.Amount <= 0 {
		fe.Add("amount", "Enter a positive contribution amount")
	}
	if err := validation.Struct(in); err != nil {
		var verrs validation.FieldErrors
		if !errors.As(err, &verrs) {
			return nil, nil, err
		}
		for field, msgs := range verrs {
			for _, m := range msgs {
				fe.Add(field, m)
			}
		}
	}
	if err := fe.OrNil(); err != nil {
		return nil, nil, err
	}

	pledge, err := s.repo.GetPledge(pledgeID)
	if err != nil {
		return nil, nil, err
	}
	if pledge == nil {
		return nil, nil, ErrPledgeNotFound
	}
	if pledge.Status == models.PledgeCancelled {
		return nil, nil, validation.Single("pledge", "Contributions cannot be added to a cancelled pledge.")
	}

	c := &models.PledgeContribution{
		PledgeID: pledgeID,
		Amount:   finance.Round(in.Amount),
		Date:     in.Date,
		Note:     strings.TrimSpace(in.Note),
	}
	if err := s.repo.AddContribution(c); err != nil {
		return nil, nil, err
	}
	s.changed()

	updated, err := s.GetPledge(pledgeID)
	if err != nil {
		return nil, nil, err
	}
	return c, updated, nil
}

// ListContributions returns a pledge's contributions in date order
func (s *FinanceService) ListContributions(pledgeID int64) ([]models.PledgeContribution, error) {
	if _, err := s.GetPledge(pledgeID); err != nil {
		return nil, err
	}
	return s.repo.ListContributions(&pledgeID)
}

// DeleteContribution removes a contribution and returns its pledge with updated totals
func (s *FinanceService) DeleteContribution(id int64) (*models.Pledge, error) {
	c, err := s.repo.GetContribution(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrContributionNotFound
	}
	if err := s.repo.DeleteContribution(id); err != nil {
		return nil, err
	}
	s.changed()
	return s.GetPledge(c.PledgeID)
}

func dateFilter(start, end string) (repository.DateFilter, error) {
	fe := validation.FieldErrors{}
	if start != "" && !validation.IsDate(start) {
		fe.Add("start", "Enter a valid date (YYYY-MM-DD).")
	}
	if end != "" && !validation.IsDate(end) {
		fe.Add("end", "Enter a valid date (YYYY-MM-DD).")
	}
	return repository.DateFilter{Start: start, End: end}, fe.OrNil()
}
