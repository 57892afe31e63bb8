package repository

import (
	"database/sql"
	"fmt"
	"time"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

const coordinatorColumns = `id, person_id, module, level, resource_type, resource_id, created_at`

// CoordinatorFilter narrows a coordinator listing
type CoordinatorFilter struct {
	PersonID *int64
	Module   models.Module
}

// CoordinatorRepository handles module coordinator grants
type CoordinatorRepository struct {
	db *database.DB
}

// NewCoordinatorRepository creates a new coordinator repository
func NewCoordinatorRepository(db *database.DB) *CoordinatorRepository {
	return &CoordinatorRepository{db: db}
}

func scanCoordinator(row rowScanner) (*models.ModuleCoordinator, error) {
	var c models.ModuleCoordinator
	var module, level string
	var resourceID sql.NullInt64
	if err := row.Scan(&c.ID, &c.PersonID, &module, &level, &c.ResourceType, &resourceID, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Module = models.Module(module)
	c.Level = models.CoordinatorLevel(level)
	c.ResourceID = idPtr(resourceID)
	return &c, nil
}

// Create inserts a coordinator grant
func (r *CoordinatorRepository) Create(c *models.ModuleCoordinator) error {
	query := `
		INSERT INTO module_coordinators (person_id, module, level, resource_type, resource_id)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, c.PersonID, string(c.Module), string(c.Level), c.ResourceType, nullableID(c.ResourceID))
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	c.ID = id
	c.CreatedAt = time.Now()
	return nil
}

// GetByID retrieves a grant by ID
func (r *CoordinatorRepository) GetByID(id int64) (*models.ModuleCoordinator, error) {
	c, err := scanCoordinator(r.db.QueryRow("SELECT "+coordinatorColumns+" FROM module_coordinators WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coordinator: %w", err)
	}
	return c, nil
}

// List returns grants matching the filter
func (r *CoordinatorRepository) List(f CoordinatorFilter) ([]models.ModuleCoordinator, error) {
	var conds []string
	var args []interface{}
	if f.PersonID != nil {
		conds = append(conds, "person_id = ?")
		args = append(args, *f.PersonID)
	}
	if f.Module != "" {
		conds = append(conds, "module = ?")
		args = append(args, string(f.Module))
	}

	rows, err := r.db.Query("SELECT "+coordinatorColumns+" FROM module_coordinators"+whereClause(conds)+" ORDER BY module, id", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query coordinators: %w", err)
	}
	defer rows.Close()

	grants := []models.ModuleCoordinator{}
	for rows.Next() {
		c, err := scanCoordinator(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coordinator: %w", err)
		}
		grants = append(grants, *c)
	}
	return grants, rows.Err()
}

// Update changes a grant's level and scope
func (r *CoordinatorRepository) Update(c *models.ModuleCoordinator) error {
	query := "UPDATE module_coordinators SET module = ?, level = ?, resource_type = ?, resource_id = ? WHERE id = ?"
	if _, err := r.db.Exec(query, string(c.Module), string(c.Level), c.ResourceType, nullableID(c.ResourceID), c.ID); err != nil {
		return fmt.Errorf("failed to update coordinator: %w", err)
	}
	return nil
}

// Delete revokes a grant
func (r *CoordinatorRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM module_coordinators WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete coordinator: %w", err)
	}
	return nil
}
