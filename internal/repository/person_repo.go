package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

const personColumns = `id, first_name, last_name, email, phone, gender, birth_date, status, family_id, cluster_id, branch_id, created_at, updated_at`

// PersonFilter narrows a person listing; zero values are ignored
type PersonFilter struct {
	Query     string
	Status    models.PersonStatus
	FamilyID  *int64
	ClusterID *int64
	BranchID  *int64
}

// PersonRepository handles database operations for people
type PersonRepository struct {
	db *database.DB
}

// NewPersonRepository creates a new person repository
func NewPersonRepository(db *database.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

func scanPerson(row rowScanner) (*models.Person, error) {
	var p models.Person
	var status string
	var familyID, clusterID, branchID sql.NullInt64
	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&p.Gender,
		&p.BirthDate,
		&status,
		&familyID,
		&clusterID,
		&branchID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = models.PersonStatus(status)
	p.FamilyID = idPtr(familyID)
	p.ClusterID = idPtr(clusterID)
	p.BranchID = idPtr(branchID)
	return &p, nil
}

// Create inserts a person and fills in its ID and timestamps
func (r *PersonRepository) Create(p *models.Person) error {
	return createPerson(r.db, p)
}

func createPerson(q database.DBTX, p *models.Person) error {
	query := `
		INSERT INTO persons (first_name, last_name, email, phone, gender, birth_date, status, family_id, cluster_id, branch_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := q.ExecReturningID(query,
		p.FirstName, p.LastName, p.Email, p.Phone, p.Gender, p.BirthDate, string(p.Status),
		nullableID(p.FamilyID), nullableID(p.ClusterID), nullableID(p.BranchID),
	)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}

	now := time.Now()
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetByID retrieves a person by ID
func (r *PersonRepository) GetByID(id int64) (*models.Person, error) {
	p, err := scanPerson(r.db.QueryRow("SELECT "+personColumns+" FROM persons WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return p, nil
}

// List returns people matching the filter ordered by last then first name
func (r *PersonRepository) List(f PersonFilter) ([]models.Person, error) {
	var conds []string
	var args []interface{}

	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := likePattern(q)
		conds = append(conds, "(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.FamilyID != nil {
		conds = append(conds, "family_id = ?")
		args = append(args, *f.FamilyID)
	}
	if f.ClusterID != nil {
		conds = append(conds, "cluster_id = ?")
		args = append(args, *f.ClusterID)
	}
	if f.BranchID != nil {
		conds = append(conds, "branch_id = ?")
		args = append(args, *f.BranchID)
	}

	query := "SELECT " + personColumns + " FROM persons" + whereClause(conds) + " ORDER BY last_name, first_name, id"
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer rows.Close()

	people := []models.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

// Update writes every editable field of p
func (r *PersonRepository) Update(p *models.Person) error {
	query := `
		UPDATE persons
		SET first_name = ?, last_name = ?, email = ?, phone = ?, gender = ?, birth_date = ?, status = ?,
			family_id = ?, cluster_id = ?, branch_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		p.FirstName, p.LastName, p.Email, p.Phone, p.Gender, p.BirthDate, string(p.Status),
		nullableID(p.FamilyID), nullableID(p.ClusterID), nullableID(p.BranchID), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	p.UpdatedAt = time.Now()
	return nil
}

// Delete removes a person; progress records cascade
func (r *PersonRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM persons WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return nil
}

// Exists reports whether a person with id is present
func (r *PersonRepository) Exists(id int64) (bool, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM persons WHERE id = ?", id).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check person: %w", err)
	}
	return count > 0, nil
}
