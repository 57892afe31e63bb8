package repository

import (
	"database/sql"
	"fmt"
	"time"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

// FamilyRepository handles database operations for households
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

func scanFamily(row rowScanner) (*models.Family, error) {
	var f models.Family
	var clusterID sql.NullInt64
	if err := row.Scan(&f.ID, &f.Name, &f.Address, &clusterID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.ClusterID = idPtr(clusterID)
	return &f, nil
}

// Create inserts a family
func (r *FamilyRepository) Create(f *models.Family) error {
	query := "INSERT INTO families (name, address, cluster_id) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(query, f.Name, f.Address, nullableID(f.ClusterID))
	if err != nil {
		return fmt.Errorf("failed to create family: %w", err)
	}
	now := time.Now()
	f.ID = id
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

// GetByID retrieves a family by ID
func (r *FamilyRepository) GetByID(id int64) (*models.Family, error) {
	query := "SELECT id, name, address, cluster_id, created_at, updated_at FROM families WHERE id = ?"
	f, err := scanFamily(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return f, nil
}

// List returns all families ordered by name
func (r *FamilyRepository) List() ([]models.Family, error) {
	rows, err := r.db.Query("SELECT id, name, address, cluster_id, created_at, updated_at FROM families ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	defer rows.Close()

	families := []models.Family{}
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, *f)
	}
	return families, rows.Err()
}

// Update writes a family's editable fields
func (r *FamilyRepository) Update(f *models.Family) error {
	query := "UPDATE families SET name = ?, address = ?, cluster_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, f.Name, f.Address, nullableID(f.ClusterID), f.ID); err != nil {
		return fmt.Errorf("failed to update family: %w", err)
	}
	f.UpdatedAt = time.Now()
	return nil
}

// Delete removes a family; members keep their records with no family
func (r *FamilyRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM families WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	return nil
}

// SetMember assigns a person to a family, or clears it when familyID is nil
func (r *FamilyRepository) SetMember(personID int64, familyID *int64) error {
	query := "UPDATE persons SET family_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	result, err := r.db.Exec(query, nullableID(familyID), personID)
	if err != nil {
		return fmt.Errorf("failed to set family member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read member result: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
