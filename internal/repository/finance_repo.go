package repository

import (
	"database/sql"
	"fmt"
	"time"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

// DateFilter bounds a listing by inclusive YYYY-MM-DD dates; empty bounds are open
type DateFilter struct {
	Start string
	End   string
}

func (f DateFilter) conds(column string) ([]string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.Start != "" {
		conds = append(conds, column+" >= ?")
		args = append(args, f.Start)
	}
	if f.End != "" {
		conds = append(conds, column+" <= ?")
		args = append(args, f.End)
	}
	return conds, args
}

// FinanceRepository handles donations, offerings, pledges and pledge contributions
type FinanceRepository struct {
	db *database.DB
}

// NewFinanceRepository creates a new finance repository
func NewFinanceRepository(db *database.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

// Donations

const donationColumns = `id, donor_id, donor_name, amount, method, purpose, donation_date, notes, created_at, updated_at`

func scanDonation(row rowScanner) (*models.Donation, error) {
	var d models.Donation
	var donorID sql.NullInt64
	var method string
	if err := row.Scan(&d.ID, &donorID, &d.DonorName, &d.Amount, &method, &d.Purpose, &d.Date, &d.Notes, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.DonorID = idPtr(donorID)
	d.Method = models.PaymentMethod(method)
	return &d, nil
}

// CreateDonation inserts a donation
func (r *FinanceRepository) CreateDonation(d *models.Donation) error {
	query := `
		INSERT INTO donations (donor_id, donor_name, amount, method, purpose, donation_date, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, nullableID(d.DonorID), d.DonorName, d.Amount, string(d.Method), d.Purpose, d.Date, d.Notes)
	if err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}
	now := time.Now()
	d.ID = id
	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

// GetDonation retrieves a donation by ID
func (r *FinanceRepository) GetDonation(id int64) (*models.Donation, error) {
	d, err := scanDonation(r.db.QueryRow("SELECT "+donationColumns+" FROM donations WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}
	return d, nil
}

// ListDonations returns donations in the date filter, newest first
func (r *FinanceRepository) ListDonations(f DateFilter) ([]models.Donation, error) {
	conds, args := f.conds("donation_date")
	rows, err := r.db.Query("SELECT "+donationColumns+" FROM donations"+whereClause(conds)+" ORDER BY donation_date DESC, id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query donations: %w", err)
	}
	defer rows.Close()

	donations := []models.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		donations = append(donations, *d)
	}
	return donations, rows.Err()
}

// UpdateDonation writes a donation's editable fields
func (r *FinanceRepository) UpdateDonation(d *models.Donation) error {
	query := `
		UPDATE donations
		SET donor_id = ?, donor_name = ?, amount = ?, method = ?, purpose = ?, donation_date = ?, notes = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, nullableID(d.DonorID), d.DonorName, d.Amount, string(d.Method), d.Purpose, d.Date, d.Notes, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update donation: %w", err)
	}
	d.UpdatedAt = time.Now()
	return nil
}

// DeleteDonation removes a donation
func (r *FinanceRepository) DeleteDonation(id int64) error {
	if _, err := r.db.Exec("DELETE FROM donations WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete donation: %w", err)
	}
	return nil
}

// Offerings

const offeringColumns = `id, service_date, service_name, amount, method, notes, created_at, updated_at`

func scanOffering(row rowScanner) (*models.Offering, error) {
	var o models.Offering
	var method string
	if err := row.Scan(&o.ID, &o.ServiceDate, &o.ServiceName, &o.Amount, &method, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Method = models.PaymentMethod(method)
	return &o, nil
}

// CreateOffering inserts an offering
func (r *FinanceRepository) CreateOffering(o *models.Offering) error {
	query := "INSERT INTO offerings (service_date, service_name, amount, method, notes) VALUES (?, ?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, o.ServiceDate, o.ServiceName, o.Amount, string(o.Method), o.Notes)
	if err != nil {
		return fmt.Errorf("failed to create offering: %w", err)
	}
	now := time.Now()
	o.ID = id
	o.CreatedAt = now
	o.UpdatedAt = now
	return nil
}

// GetOffering retrieves an offering by ID
func (r *FinanceRepository) GetOffering(id int64) (*models.Offering, error) {
	o, err := scanOffering(r.db.QueryRow("SELECT "+offeringColumns+" FROM offerings WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offering: %w", err)
	}
	return o, nil
}

// ListOfferings returns offerings in the date filter, newest first
func (r *FinanceRepository) ListOfferings(f DateFilter) ([]models.Offering, error) {
	conds, args := f.conds("service_date")
	rows, err := r.db.Query("SELECT "+offeringColumns+" FROM offerings"+whereClause(conds)+" ORDER BY service_date DESC, id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query offerings: %w", err)
	}
	defer rows.Close()

	offerings := []models.Offering{}
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offering: %w", err)
		}
		offerings = append(offerings, *o)
	}
	return offerings, rows.Err()
}

// UpdateOffering writes an offering's editable fields
func (r *FinanceRepository) UpdateOffering(o *models.Offering) error {
	query := `
		UPDATE offerings
		SET service_date = ?, service_name = ?, amount = ?, method = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, o.ServiceDate, o.ServiceName, o.Amount, string(o.Method), o.Notes, o.ID); err != nil {
		return fmt.Errorf("failed to update offering: %w", err)
	}
	o.UpdatedAt = time.Now()
	return nil
}

// DeleteOffering removes an offering
func (r *FinanceRepository) DeleteOffering(id int64) error {
	if _, err := r.db.Exec("DELETE FROM offerings WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete offering: %w", err)
	}
	return nil
}

// Pledges

const pledgeColumns = `id, pledger_id, pledger_name, title, amount_pledged, start_date, end_date, status, created_at, updated_at`

func scanPledge(row rowScanner) (*models.Pledge, error) {
	var p models.Pledge
	var pledgerID sql.NullInt64
	var status string
	if err := row.Scan(&p.ID, &pledgerID, &p.PledgerName, &p.Title, &p.AmountPledged, &p.StartDate, &p.EndDate, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.PledgerID = idPtr(pledgerID)
	p.Status = models.PledgeStatus(status)
	return &p, nil
}

// CreatePledge inserts a pledge. Received and balance are derived, never stored.
func (r *FinanceRepository) CreatePledge(p *models.Pledge) error {
	query := `
		INSERT INTO pledges (pledger_id, pledger_name, title, amount_pledged, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, nullableID(p.PledgerID), p.PledgerName, p.Title, p.AmountPledged, p.StartDate, p.EndDate, string(p.Status))
	if err != nil {
		return fmt.Errorf("failed to create pledge: %w", err)
	}
	now := time.Now()
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetPledge retrieves a pledge by ID
func (r *FinanceRepository) GetPledge(id int64) (*models.Pledge, error) {
	p, err := scanPledge(r.db.QueryRow("SELECT "+pledgeColumns+" FROM pledges WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pledge: %w", err)
	}
	return p, nil
}

// ListPledges returns pledges, optionally filtered by status, newest start first
func (r *FinanceRepository) ListPledges(status models.PledgeStatus) ([]models.Pledge, error) {
	query := "SELECT " + pledgeColumns + " FROM pledges"
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY start_date DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pledges: %w", err)
	}
	defer rows.Close()

	pledges := []models.Pledge{}
	for rows.Next() {
		p, err := scanPledge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pledge: %w", err)
		}
		pledges = append(pledges, *p)
	}
	return pledges, rows.Err()
}

// UpdatePledge writes a pledge's editable fields
func (r *FinanceRepository) UpdatePledge(p *models.Pledge) error {
	query := `
		UPDATE pledges
		SET pledger_id = ?, pledger_name = ?, title = ?, amount_pledged = ?, start_date = ?, end_date = ?, status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, nullableID(p.PledgerID), p.PledgerName, p.Title, p.AmountPledged, p.StartDate, p.EndDate, string(p.Status), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update pledge: %w", err)
	}
	p.UpdatedAt = time.Now()
	return nil
}

// DeletePledge removes a pledge and its contributions
func (r *FinanceRepository) DeletePledge(id int64) error {
	if _, err := r.db.Exec("DELETE FROM pledges WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete pledge: %w", err)
	}
	return nil
}

// Contributions

const contributionColumns = `id, pledge_id, amount, contribution_date, note, created_at`

func scanContribution(row rowScanner) (*models.PledgeContribution, error) {
	var c models.PledgeContribution
	if err := row.Scan(&c.ID, &c.PledgeID, &c.Amount, &c.Date, &c.Note, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// AddContribution records a payment toward a pledge
func (r *FinanceRepository) AddContribution(c *models.PledgeContribution) error {
	query := "INSERT INTO pledge_contributions (pledge_id, amount, contribution_date, note) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, c.PledgeID, c.Amount, c.Date, c.Note)
	if err != nil {
		return fmt.Errorf("failed to add contribution: %w", err)
	}
	c.ID = id
	c.CreatedAt = time.Now()
	return nil
}

// GetContribution retrieves a contribution by ID
func (r *FinanceRepository) GetContribution(id int64) (*models.PledgeContribution, error) {
	c, err := scanContribution(r.db.QueryRow("SELECT "+contributionColumns+" FROM pledge_contributions WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contribution: %w", err)
	}
	return c, nil
}

// ListContributions returns contributions, all of them when pledgeID is nil
func (r *FinanceRepository) ListContributions(pledgeID *int64) ([]models.PledgeContribution, error) {
	query := "SELECT " + contributionColumns + " FROM pledge_contributions"
	var args []interface{}
	if pledgeID != nil {
		query += " WHERE pledge_id = ?"
		args = append(args, *pledgeID)
	}
	query += " ORDER BY contribution_date, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributions: %w", err)
	}
	defer rows.Close()

	contributions := []models.PledgeContribution{}
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		contributions = append(contributions, *c)
	}
	return contributions, rows.Err()
}

// DeleteContribution removes a contribution
func (r *FinanceRepository) DeleteContribution(id int64) error {
	if _, err := r.db.Exec("DELETE FROM pledge_contributions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete contribution: %w", err)
	}
	return nil
}
