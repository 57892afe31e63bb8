package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

// ErrAlreadyConverted is returned when converting a prospect twice
var ErrAlreadyConverted = errors.New("prospect already converted")

const prospectColumns = `id, group_id, name, contact, invited_by_id, stage, converted_person_id, created_at, updated_at`

// EvangelismRepository handles evangelism groups and their prospects
type EvangelismRepository struct {
	db *database.DB
}

// NewEvangelismRepository creates a new evangelism repository
func NewEvangelismRepository(db *database.DB) *EvangelismRepository {
	return &EvangelismRepository{db: db}
}

func scanGroup(row rowScanner) (*models.EvangelismGroup, error) {
	var g models.EvangelismGroup
	var leaderID sql.NullInt64
	if err := row.Scan(&g.ID, &g.Name, &leaderID, &g.MeetingDay, &g.Location, &g.IsActive, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.LeaderID = idPtr(leaderID)
	return &g, nil
}

func scanProspect(row rowScanner) (*models.Prospect, error) {
	var p models.Prospect
	var stage string
	var invitedBy, converted sql.NullInt64
	if err := row.Scan(&p.ID, &p.GroupID, &p.Name, &p.Contact, &invitedBy, &stage, &converted, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Stage = models.ProspectStage(stage)
	p.InvitedByID = idPtr(invitedBy)
	p.ConvertedPersonID = idPtr(converted)
	return &p, nil
}

// CreateGroup inserts an evangelism group
func (r *EvangelismRepository) CreateGroup(g *models.EvangelismGroup) error {
	query := "INSERT INTO evangelism_groups (name, leader_id, meeting_day, location, is_active) VALUES (?, ?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, g.Name, nullableID(g.LeaderID), g.MeetingDay, g.Location, g.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	now := time.Now()
	g.ID = id
	g.CreatedAt = now
	g.UpdatedAt = now
	return nil
}

// GetGroup retrieves a group by ID
func (r *EvangelismRepository) GetGroup(id int64) (*models.EvangelismGroup, error) {
	query := "SELECT id, name, leader_id, meeting_day, location, is_active, created_at, updated_at FROM evangelism_groups WHERE id = ?"
	g, err := scanGroup(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// ListGroups returns groups ordered by name, optionally only active ones
func (r *EvangelismRepository) ListGroups(activeOnly bool) ([]models.EvangelismGroup, error) {
	query := "SELECT id, name, leader_id, meeting_day, location, is_active, created_at, updated_at FROM evangelism_groups"
	var args []interface{}
	if activeOnly {
		query += " WHERE is_active = ?"
		args = append(args, true)
	}
	query += " ORDER BY name, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := []models.EvangelismGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

// UpdateGroup writes a group's editable fields
func (r *EvangelismRepository) UpdateGroup(g *models.EvangelismGroup) error {
	query := `
		UPDATE evangelism_groups
		SET name = ?, leader_id = ?, meeting_day = ?, location = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, g.Name, nullableID(g.LeaderID), g.MeetingDay, g.Location, g.IsActive, g.ID); err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	g.UpdatedAt = time.Now()
	return nil
}

// DeleteGroup removes a group and its prospects
func (r *EvangelismRepository) DeleteGroup(id int64) error {
	if _, err := r.db.Exec("DELETE FROM evangelism_groups WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// StageCounts returns prospect counts per stage for a group
func (r *EvangelismRepository) StageCounts(groupID int64) (map[models.ProspectStage]int, error) {
	rows, err := r.db.Query("SELECT stage, COUNT(*) FROM prospects WHERE group_id = ? GROUP BY stage", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to count prospects: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ProspectStage]int)
	for rows.Next() {
		var stage string
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("failed to scan stage count: %w", err)
		}
		counts[models.ProspectStage(stage)] = n
	}
	return counts, rows.Err()
}

// CreateProspect inserts a prospect
func (r *EvangelismRepository) CreateProspect(p *models.Prospect) error {
	query := "INSERT INTO prospects (group_id, name, contact, invited_by_id, stage) VALUES (?, ?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, p.GroupID, p.Name, p.Contact, nullableID(p.InvitedByID), string(p.Stage))
	if err != nil {
		return fmt.Errorf("failed to create prospect: %w", err)
	}
	now := time.Now()
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetProspect retrieves a prospect by ID
func (r *EvangelismRepository) GetProspect(id int64) (*models.Prospect, error) {
	p, err := scanProspect(r.db.QueryRow("SELECT "+prospectColumns+" FROM prospects WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prospect: %w", err)
	}
	return p, nil
}

// ListProspects returns a group's prospects, optionally filtered by stage
func (r *EvangelismRepository) ListProspects(groupID int64, stage models.ProspectStage) ([]models.Prospect, error) {
	query := "SELECT " + prospectColumns + " FROM prospects WHERE group_id = ?"
	args := []interface{}{groupID}
	if stage != "" {
		query += " AND stage = ?"
		args = append(args, string(stage))
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prospects: %w", err)
	}
	defer rows.Close()

	prospects := []models.Prospect{}
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prospect: %w", err)
		}
		prospects = append(prospects, *p)
	}
	return prospects, rows.Err()
}

// UpdateProspect writes a prospect's editable fields
func (r *EvangelismRepository) UpdateProspect(p *models.Prospect) error {
	query := `
		UPDATE prospects
		SET name = ?, contact = ?, invited_by_id = ?, stage = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, p.Name, p.Contact, nullableID(p.InvitedByID), string(p.Stage), p.ID); err != nil {
		return fmt.Errorf("failed to update prospect: %w", err)
	}
	p.UpdatedAt = time.Now()
	return nil
}

// DeleteProspect removes a prospect
func (r *EvangelismRepository) DeleteProspect(id int64) error {
	if _, err := r.db.Exec("DELETE FROM prospects WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete prospect: %w", err)
	}
	return nil
}

// ConvertProspect creates a VISITOR person from the prospect and marks it
// CONVERTED in one transaction. It returns nil, nil, nil when the prospect does not exist.
func (r *EvangelismRepository) ConvertProspect(prospectID int64) (*models.Prospect, *models.Person, error) {
	var prospect *models.Prospect
	var person *models.Person

	err := r.db.InTx(func(tx *database.Tx) error {
		p, err := scanProspect(tx.QueryRow("SELECT "+prospectColumns+" FROM prospects WHERE id = ?", prospectID))
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get prospect: %w", err)
		}
		if p.ConvertedPersonID != nil {
			return ErrAlreadyConverted
		}

		first, last := splitName(p.Name)
		created := &models.Person{
			FirstName: first,
			LastName:  last,
			Phone:     p.Contact,
			Status:    models.PersonVisitor,
		}
		if strings.Contains(p.Contact, "@") {
			created.Phone = ""
			created.Email = p.Contact
		}
		if err := createPerson(tx, created); err != nil {
			return err
		}

		query := `
			UPDATE prospects
			SET stage = ?, converted_person_id = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`
		if _, err := tx.Exec(query, string(models.StageConverted), created.ID, prospectID); err != nil {
			return fmt.Errorf("failed to mark prospect converted: %w", err)
		}

		p.Stage = models.StageConverted
		p.ConvertedPersonID = &created.ID
		p.UpdatedAt = time.Now()
		prospect, person = p, created
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return prospect, person, nil
}

// splitName puts the last word in the last name
func splitName(full string) (string, string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}
