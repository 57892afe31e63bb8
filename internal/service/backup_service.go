package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
	"churchadmin/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// ErrDatabaseNotEmpty is returned when importing into a database that already holds records
var ErrDatabaseNotEmpty = errors.New("target database is not empty")

// BackupData represents the complete database backup structure
type BackupData struct {
	Version        string                      `json:"version"`
	ExportedAt     time.Time                   `json:"exported_at"`
	DatabaseType   string                      `json:"database_type"`
	Users          []UserBackup                `json:"users"`
	Branches       []models.Branch             `json:"branches"`
	Clusters       []models.Cluster            `json:"clusters"`
	Families       []models.Family             `json:"families"`
	Persons        []models.Person             `json:"persons"`
	Groups         []models.EvangelismGroup    `json:"evangelism_groups"`
	Prospects      []models.Prospect           `json:"prospects"`
	Lessons        []models.Lesson             `json:"lessons"`
	Progress       []models.LessonProgress     `json:"lesson_progress"`
	SessionReports []models.SessionReport      `json:"session_reports"`
	Donations      []models.Donation           `json:"donations"`
	Offerings      []models.Offering           `json:"offerings"`
	Pledges        []models.Pledge             `json:"pledges"`
	Contributions  []models.PledgeContribution `json:"pledge_contributions"`
	Coordinators   []models.ModuleCoordinator  `json:"module_coordinators"`
	Events         []models.Event              `json:"events"`
}

// UserBackup represents a user record for backup. Unlike models.User it
// carries the password hash and OAuth subject.
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Counts summarizes how many records of each kind a backup holds
func (b *BackupData) Counts() map[string]int {
	return map[string]int{
		"users":                len(b.Users),
		"branches":             len(b.Branches),
		"clusters":             len(b.Clusters),
		"families":             len(b.Families),
		"persons":              len(b.Persons),
		"evangelism_groups":    len(b.Groups),
		"prospects":            len(b.Prospects),
		"lessons":              len(b.Lessons),
		"lesson_progress":      len(b.Progress),
		"session_reports":      len(b.SessionReports),
		"donations":            len(b.Donations),
		"offerings":            len(b.Offerings),
		"pledges":              len(b.Pledges),
		"pledge_contributions": len(b.Contributions),
		"module_coordinators":  len(b.Coordinators),
		"events":               len(b.Events),
	}
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.collect()
	if err != nil {
		return err
	}
	if err := writeBackup(file, backup); err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %v", backup.Counts())
	return nil
}

// ExportToWriter exports the database to an io.Writer (useful for HTTP responses)
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup, err := s.collect()
	if err != nil {
		return err
	}
	return writeBackup(w, backup)
}

func writeBackup(w io.Writer, backup *BackupData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a backup into an empty database in one transaction.
// Record IDs are preserved so references between records stay intact.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	empty, err := s.isEmpty()
	if err != nil {
		return err
	}
	if !empty {
		return ErrDatabaseNotEmpty
	}

	steps := []struct {
		table string
		run   func(database.DBTX, *BackupData) error
	}{
		{"users", importUsers},
		{"branches", importBranches},
		{"clusters", importClusters},
		{"families", importFamilies},
		{"persons", importPersons},
		{"evangelism_groups", importGroups},
		{"prospects", importProspects},
		{"lessons", importLessons},
		{"lesson_progress", importProgress},
		{"session_reports", importSessionReports},
		{"donations", importDonations},
		{"offerings", importOfferings},
		{"pledges", importPledges},
		{"pledge_contributions", importContributions},
		{"module_coordinators", importCoordinators},
		{"events", importEvents},
	}
	err = s.db.InTx(func(tx *database.Tx) error {
		for _, step := range steps {
			if err := step.run(tx, &backup); err != nil {
				return fmt.Errorf("failed to import %s: %w", step.table, err)
			}
			if err := tx.ResetSequence(step.table); err != nil {
				return fmt.Errorf("failed to reset %s sequence: %w", step.table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("Database import completed successfully: %v", backup.Counts())
	return nil
}

// clearOrder lists every table children first, so deletes never trip a foreign key
var clearOrder = []string{
	"sessions",
	"pledge_contributions",
	"pledges",
	"offerings",
	"donations",
	"session_reports",
	"lesson_progress",
	"module_coordinators",
	"events",
	"prospects",
	"evangelism_groups",
	"lessons",
	"persons",
	"families",
	"clusters",
	"branches",
	"users",
}

// Clear deletes every record, sessions included, in one transaction
func (s *BackupService) Clear() error {
	return s.db.InTx(func(tx *database.Tx) error {
		for _, table := range clearOrder {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// ReadBackup decodes a backup file without touching the database
func ReadBackup(inputPath string) (*BackupData, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	var backup BackupData
	if err := json.NewDecoder(file).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	return &backup, nil
}

func (s *BackupService) isEmpty() (bool, error) {
	for _, table := range []string{"users", "persons", "lessons"} {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return false, fmt.Errorf("failed to count %s: %w", table, err)
		}
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}

func (s *BackupService) collect() (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now(),
		DatabaseType: "universal",
	}

	users, err := repository.NewUserRepository(s.db).GetAllUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:            u.ID,
			Email:         u.Email,
			PasswordHash:  u.PasswordHash,
			Name:          u.Name,
			OAuthProvider: u.OAuthProvider,
			OAuthSubject:  u.OAuthSubject,
			IsAdmin:       u.IsAdmin,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		})
	}

	clusterRepo := repository.NewClusterRepository(s.db)
	if backup.Branches, err = clusterRepo.ListBranches(); err != nil {
		return nil, fmt.Errorf("failed to export branches: %w", err)
	}
	summaries, err := clusterRepo.ListSummaries()
	if err != nil {
		return nil, fmt.Errorf("failed to export clusters: %w", err)
	}
	for _, c := range summaries {
		backup.Clusters = append(backup.Clusters, c.Cluster)
	}
	if backup.Families, err = repository.NewFamilyRepository(s.db).List(); err != nil {
		return nil, fmt.Errorf("failed to export families: %w", err)
	}
	if backup.Persons, err = repository.NewPersonRepository(s.db).List(repository.PersonFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export persons: %w", err)
	}

	evangelismRepo := repository.NewEvangelismRepository(s.db)
	if backup.Groups, err = evangelismRepo.ListGroups(false); err != nil {
		return nil, fmt.Errorf("failed to export groups: %w", err)
	}
	for _, g := range backup.Groups {
		prospects, err := evangelismRepo.ListProspects(g.ID, "")
		if err != nil {
			return nil, fmt.Errorf("failed to export prospects: %w", err)
		}
		backup.Prospects = append(backup.Prospects, prospects...)
	}

	if backup.Lessons, err = repository.NewLessonRepository(s.db).List(false); err != nil {
		return nil, fmt.Errorf("failed to export lessons: %w", err)
	}
	if backup.Progress, err = repository.NewProgressRepository(s.db).ListAll(); err != nil {
		return nil, fmt.Errorf("failed to export progress: %w", err)
	}
	if backup.SessionReports, err = repository.NewSessionReportRepository(s.db).List(repository.SessionReportFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export session reports: %w", err)
	}

	financeRepo := repository.NewFinanceRepository(s.db)
	if backup.Donations, err = financeRepo.ListDonations(repository.DateFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export donations: %w", err)
	}
	if backup.Offerings, err = financeRepo.ListOfferings(repository.DateFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export offerings: %w", err)
	}
	if backup.Pledges, err = financeRepo.ListPledges(""); err != nil {
		return nil, fmt.Errorf("failed to export pledges: %w", err)
	}
	if backup.Contributions, err = financeRepo.ListContributions(nil); err != nil {
		return nil, fmt.Errorf("failed to export contributions: %w", err)
	}

	if backup.Coordinators, err = repository.NewCoordinatorRepository(s.db).List(repository.CoordinatorFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export coordinators: %w", err)
	}
	if backup.Events, err = repository.NewEventRepository(s.db).List(nil); err != nil {
		return nil, fmt.Errorf("failed to export events: %w", err)
	}
	return backup, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func importUsers(q database.DBTX, b *BackupData) error {
	query := `INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, u := range b.Users {
		if _, err := q.Exec(query, u.ID, u.Email, u.PasswordHash, u.Name, nullIfEmpty(u.OAuthProvider), nullIfEmpty(u.OAuthSubject), u.IsAdmin, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	return nil
}

func importBranches(q database.DBTX, b *BackupData) error {
	for _, br := range b.Branches {
		if _, err := q.Exec("INSERT INTO branches (id, name, address, created_at) VALUES (?, ?, ?, ?)", br.ID, br.Name, br.Address, br.CreatedAt); err != nil {
			return fmt.Errorf("branch %d: %w", br.ID, err)
		}
	}
	return nil
}

func importClusters(q database.DBTX, b *BackupData) error {
	query := "INSERT INTO clusters (id, code, name, coordinator_id, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	for _, c := range b.Clusters {
		if _, err := q.Exec(query, c.ID, c.Code, c.Name, nullID(c.CoordinatorID), c.Description, c.CreatedAt, c.UpdatedAt); err != nil {
			return fmt.Errorf("cluster %d: %w", c.ID, err)
		}
	}
	return nil
}

func importFamilies(q database.DBTX, b *BackupData) error {
	query := "INSERT INTO families (id, name, address, cluster_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"
	for _, f := range b.Families {
		if _, err := q.Exec(query, f.ID, f.Name, f.Address, nullID(f.ClusterID), f.CreatedAt, f.UpdatedAt); err != nil {
			return fmt.Errorf("family %d: %w", f.ID, err)
		}
	}
	return nil
}

func importPersons(q database.DBTX, b *BackupData) error {
	query := `INSERT INTO persons (id, first_name, last_name, email, phone, gender, birth_date, status, family_id, cluster_id, branch_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, p := range b.Persons {
		_, err := q.Exec(query, p.ID, p.FirstName, p.LastName, p.Email, p.Phone, p.Gender, p.BirthDate, string(p.Status),
			nullID(p.FamilyID), nullID(p.ClusterID), nullID(p.BranchID), p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("person %d: %w", p.ID, err)
		}
	}
	return nil
}

func importGroups(q database.DBTX, b *BackupData) error {
	query := "INSERT INTO evangelism_groups (id, name, leader_id, meeting_day, location, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	for _, g := range b.Groups {
		if _, err := q.Exec(query, g.ID, g.Name, nullID(g.LeaderID), g.MeetingDay, g.Location, g.IsActive, g.CreatedAt, g.UpdatedAt); err != nil {
			return fmt.Errorf("group %d: %w", g.ID, err)
		}
	}
	return nil
}

func importProspects(q database.DBTX, b *BackupData) error {
	query := `INSERT INTO prospects (id, group_id, name, contact, invited_by_id, stage, converted_person_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, p := range b.Prospects {
		_, err := q.Exec(query, p.ID, p.GroupID, p.Name, p.Contact, nullID(p.InvitedByID), string(p.Stage), nullID(p.ConvertedPersonID), p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("prospect %d: %w", p.ID, err)
		}
	}
	return nil
}

func importLessons(q database.DBTX, b *BackupData) error {
	query := `INSERT INTO lessons (id, lesson_order, title, version_label, content, is_latest, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, l := range b.Lessons {
		if _, err := q.Exec(query, l.ID, l.Order, l.Title, l.VersionLabel, l.Content, l.IsLatest, l.IsActive, l.CreatedAt, l.UpdatedAt); err != nil {
			return fmt.Errorf("lesson %d: %w", l.ID, err)
		}
	}
	return nil
}

func importProgress(q database.DBTX, b *BackupData) error {
	query := `INSERT INTO lesson_progress (id, person_id, lesson_id, status, commitment_signed, notes, assigned_by, assigned_at, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, lp := range b.Progress {
		_, err := q.Exec(query, lp.ID, lp.Person.ID, lp.Lesson.ID, string(lp.Status), lp.CommitmentSigned, lp.Notes,
			nullID(lp.AssignedBy), lp.AssignedAt, nullTime(lp.CompletedAt), lp.UpdatedAt)
		if err != nil {
			return fmt.Errorf("progress %d: %w", lp.ID, err)
		}
	}
	return nil
}

func importSessionReports(q database.DBTX, b *BackupData) error {
	query := `INSERT INTO session_reports (id, lesson_id, student_id, teacher_id, session_date, session_start, score, next_session_date, remarks, progress_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, sr := range b.SessionReports {
		var score interface{}
		if sr.Score != nil {
			score = *sr.Score
		}
		_, err := q.Exec(query, sr.ID, sr.Lesson.ID, sr.Student.ID, sr.Teacher.ID, sr.SessionDate, sr.SessionStart, score,
			sr.NextSessionDate, sr.Remarks, nullID(sr.ProgressID), sr.CreatedAt, sr.UpdatedAt)
		if err != nil {
			return fmt.Errorf("session report %d: %w", sr.ID, err)
		}
	}
	return nil
}

func importDonations(q database.DBTX, b *BackupData) error {
	query := `INSERT INTO donations (id, donor_id, donor_name, amount, method, purpose, donation_date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, d := range b.Donations {
		_, err := q.Exec(query, d.ID, nullID(d.DonorID), d.DonorName, d.Amount, string(d.Method), d.Purpose, d.Date, d.Notes, d.CreatedAt, d.UpdatedAt)
		if err != nil {
			return fmt.Errorf("donation %d: %w", d.ID, err)
		}
	}
	return nil
}

func importOfferings(q database.DBTX, b *BackupData) error {
	query := "INSERT INTO offerings (id, service_date, service_name, amount, method, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	for _, o := range b.Offerings {
		if _, err := q.Exec(query, o.ID, o.ServiceDate, o.ServiceName, o.Amount, string(o.Method), o.Notes, o.CreatedAt, o.UpdatedAt); err != nil {
			return fmt.Errorf("offering %d: %w", o.ID, err)
		}
	}
	return nil
}

func importPledges(q database.DBTX, b *BackupData) error {
	query := `INSERT INTO pledges (id, pledger_id, pledger_name, title, amount_pledged, start_date, end_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, p := range b.Pledges {
		_, err := q.Exec(query, p.ID, nullID(p.PledgerID), p.PledgerName, p.Title, p.AmountPledged, p.StartDate, p.EndDate, string(p.Status), p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("pledge %d: %w", p.ID, err)
		}
	}
	return nil
}

func importContributions(q database.DBTX, b *BackupData) error {
	query := "INSERT INTO pledge_contributions (id, pledge_id, amount, contribution_date, note, created_at) VALUES (?, ?, ?, ?, ?, ?)"
	for _, c := range b.Contributions {
		if _, err := q.Exec(query, c.ID, c.PledgeID, c.Amount, c.Date, c.Note, c.CreatedAt); err != nil {
			return fmt.Errorf("contribution %d: %w", c.ID, err)
		}
	}
	return nil
}

func importCoordinators(q database.DBTX, b *BackupData) error {
	query := "INSERT INTO module_coordinators (id, person_id, module, level, resource_type, resource_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	for _, c := range b.Coordinators {
		_, err := q.Exec(query, c.ID, c.PersonID, string(c.Module), string(c.Level), c.ResourceType, nullID(c.ResourceID), c.CreatedAt)
		if err != nil {
			return fmt.Errorf("coordinator %d: %w", c.ID, err)
		}
	}
	return nil
}

func importEvents(q database.DBTX, b *BackupData) error {
	query := `INSERT INTO events (id, title, description, start_at, end_at, location, is_recurring, recurrence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, e := range b.Events {
		var pattern interface{}
		if e.Recurrence != nil {
			data, err := json.Marshal(e.Recurrence)
			if err != nil {
				return fmt.Errorf("event %d recurrence: %w", e.ID, err)
			}
			pattern = string(data)
		}
		_, err := q.Exec(query, e.ID, e.Title, e.Description, e.StartAt, nullTime(e.EndAt), e.Location, e.IsRecurring, pattern, e.CreatedAt, e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("event %d: %w", e.ID, err)
		}
	}
	return nil
}
