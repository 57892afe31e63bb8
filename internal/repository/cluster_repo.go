package repository

import (
	"database/sql"
	"fmt"
	"time"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

// ClusterRepository handles clusters and branches
type ClusterRepository struct {
	db *database.DB
}

// NewClusterRepository creates a new cluster repository
func NewClusterRepository(db *database.DB) *ClusterRepository {
	return &ClusterRepository{db: db}
}

func scanCluster(row rowScanner) (*models.Cluster, error) {
	var c models.Cluster
	var coordinatorID sql.NullInt64
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &coordinatorID, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CoordinatorID = idPtr(coordinatorID)
	return &c, nil
}

// Create inserts a cluster; codes are unique
func (r *ClusterRepository) Create(c *models.Cluster) error {
	query := "INSERT INTO clusters (code, name, coordinator_id, description) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, c.Code, c.Name, nullableID(c.CoordinatorID), c.Description)
	if r.db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create cluster: %w", err)
	}
	now := time.Now()
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetByID retrieves a cluster by ID
func (r *ClusterRepository) GetByID(id int64) (*models.Cluster, error) {
	query := "SELECT id, code, name, coordinator_id, description, created_at, updated_at FROM clusters WHERE id = ?"
	c, err := scanCluster(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cluster: %w", err)
	}
	return c, nil
}

// ListSummaries returns every cluster with member and family counts
func (r *ClusterRepository) ListSummaries() ([]models.ClusterSummary, error) {
	query := `
		SELECT c.id, c.code, c.name, c.coordinator_id, c.description, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM persons p WHERE p.cluster_id = c.id),
			(SELECT COUNT(*) FROM families f WHERE f.cluster_id = c.id)
		FROM clusters c
		ORDER BY c.code
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query clusters: %w", err)
	}
	defer rows.Close()

	summaries := []models.ClusterSummary{}
	for rows.Next() {
		var s models.ClusterSummary
		var coordinatorID sql.NullInt64
		if err := rows.Scan(
			&s.ID, &s.Code, &s.Name, &coordinatorID, &s.Description, &s.CreatedAt, &s.UpdatedAt,
			&s.MemberCount, &s.FamilyCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		s.CoordinatorID = idPtr(coordinatorID)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Update writes a cluster's editable fields
func (r *ClusterRepository) Update(c *models.Cluster) error {
	query := `
		UPDATE clusters
		SET code = ?, name = ?, coordinator_id = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, c.Code, c.Name, nullableID(c.CoordinatorID), c.Description, c.ID)
	if r.db.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update cluster: %w", err)
	}
	c.UpdatedAt = time.Now()
	return nil
}

// Delete removes a cluster; people and families are detached
func (r *ClusterRepository) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM clusters WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete cluster: %w", err)
	}
	return nil
}

// CreateBranch inserts a branch
func (r *ClusterRepository) CreateBranch(b *models.Branch) error {
	id, err := r.db.ExecReturningID("INSERT INTO branches (name, address) VALUES (?, ?)", b.Name, b.Address)
	if err != nil {
		return fmt.Errorf("failed to create branch: %w", err)
	}
	b.ID = id
	b.CreatedAt = time.Now()
	return nil
}

// ListBranches returns every branch ordered by name
func (r *ClusterRepository) ListBranches() ([]models.Branch, error) {
	rows, err := r.db.Query("SELECT id, name, address, created_at FROM branches ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query branches: %w", err)
	}
	defer rows.Close()

	branches := []models.Branch{}
	for rows.Next() {
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// GetBranch retrieves a branch by ID
func (r *ClusterRepository) GetBranch(id int64) (*models.Branch, error) {
	var b models.Branch
	err := r.db.QueryRow("SELECT id, name, address, created_at FROM branches WHERE id = ?", id).
		Scan(&b.ID, &b.Name, &b.Address, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get branch: %w", err)
	}
	return &b, nil
}
