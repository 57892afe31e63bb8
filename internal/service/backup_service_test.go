package service

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churchadmin/internal/models"
	"churchadmin/internal/recurrence"
	"churchadmin/internal/repository"
)

func seedBackupData(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()

	staff, err := env.authService().Register("admin@church.org", "password123", "Admin")
	require.NoError(t, err)

	people := env.peopleService()
	branch, err := people.CreateBranch(BranchInput{Name: "Main Campus"})
	require.NoError(t, err)
	cluster, err := people.CreateCluster(ClusterInput{Code: "WEST", Name: "West"})
	require.NoError(t, err)
	family, err := people.CreateFamily(FamilyInput{Name: "The Jacobs", ClusterID: &cluster.ID})
	require.NoError(t, err)
	student, err := people.CreatePerson(PersonInput{FirstName: "Rhoda", LastName: "Jacob", FamilyID: &family.ID, ClusterID: &cluster.ID, BranchID: &branch.ID})
	require.NoError(t, err)
	teacher := env.person(t, "Aquila", "Pontus")

	evangelism := NewEvangelismService(env.evangelism, env.persons)
	group, err := evangelism.CreateGroup(GroupInput{Name: "Street Team", LeaderID: &teacher})
	require.NoError(t, err)
	_, err = evangelism.CreateProspect(ProspectInput{GroupID: group.ID, Name: "Eutychus Troas"})
	require.NoError(t, err)

	lessons := env.lessonService()
	lessonID := env.lesson(t, 1, "Salvation")
	results, err := lessons.AssignLessonToPeople(lessonID, []int64{student.ID}, &staff.ID)
	require.NoError(t, err)
	_, err = lessons.CompleteProgress(ctx, results[0].Progress.ID, "done")
	require.NoError(t, err)
	_, err = env.reportService().CreateReport(SessionReportInput{LessonID: lessonID, StudentID: student.ID, TeacherID: teacher, SessionDate: "2024-03-10", Score: ptr(90)})
	require.NoError(t, err)

	finance := env.financeService(t)
	_, err = finance.CreateDonation(DonationInput{DonorID: &student.ID, Amount: 25, Method: models.MethodCash, Date: "2024-03-10"})
	require.NoError(t, err)
	_, err = finance.CreateOffering(OfferingInput{ServiceDate: "2024-03-10", ServiceName: "Sunday", Amount: 120, Method: models.MethodCash})
	require.NoError(t, err)
	pledge, err := finance.CreatePledge(PledgeInput{PledgerID: &student.ID, Title: "Roof", AmountPledged: 100, StartDate: "2024-01-01"})
	require.NoError(t, err)
	_, _, err = finance.AddContribution(pledge.ID, ContributionInput{Amount: 40, Date: "2024-02-01"})
	require.NoError(t, err)

	coordinators := NewCoordinatorService(env.coordinators, env.persons, env.clusters, env.evangelism, env.lessons)
	_, err = coordinators.CreateCoordinator(CoordinatorInput{PersonID: teacher, Module: models.ModuleClusters, ResourceType: ResourceCluster, ResourceID: &cluster.ID})
	require.NoError(t, err)

	start := time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC)
	_, err = NewEventService(env.events).CreateEvent(EventInput{Title: "Sunday Service", StartAt: &start, IsRecurring: true, Recurrence: &recurrence.WeeklyPattern{ExcludedDates: []string{"2024-03-31"}}})
	require.NoError(t, err)
}

func TestBackupRoundTrip(t *testing.T) {
	src := newTestEnv(t)
	seedBackupData(t, src)

	var buf bytes.Buffer
	require.NoError(t, NewBackupService(src.db).ExportToWriter(&buf))

	var exported BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &exported))
	assert.Equal(t, BackupVersion, exported.Version)
	for table, n := range exported.Counts() {
		assert.Positive(t, n, "expected %s to be exported", table)
	}
	require.Len(t, exported.Users, 1)
	assert.NotEmpty(t, exported.Users[0].PasswordHash)

	dst := newTestEnv(t)
	require.NoError(t, NewBackupService(dst.db).ImportFromReader(bytes.NewReader(buf.Bytes())))

	var again bytes.Buffer
	require.NoError(t, NewBackupService(dst.db).ExportToWriter(&again))
	var restored BackupData
	require.NoError(t, json.Unmarshal(again.Bytes(), &restored))
	assert.Equal(t, exported.Counts(), restored.Counts())

	// imported IDs stay stable and the restored data is usable
	_, _, err := dst.authService().Login("admin@church.org", "password123")
	require.NoError(t, err)

	var student int64
	for _, p := range exported.Persons {
		if p.FirstName == "Rhoda" {
			student = p.ID
		}
	}
	require.NotZero(t, student)
	summary, err := dst.lessonService().PersonSummary(student)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CompletedCount)

	pledges, err := dst.financeService(t).ListPledges("")
	require.NoError(t, err)
	require.Len(t, pledges, 1)
	assert.Equal(t, 40.0, pledges[0].AmountReceived)

	people, err := dst.peopleService().ListPeople(repository.PersonFilter{})
	require.NoError(t, err)
	assert.Len(t, people, 2)

	// new records get fresh IDs past the imported ones
	newID := dst.person(t, "New", "Comer")
	for _, p := range exported.Persons {
		assert.NotEqual(t, p.ID, newID)
	}
}

func TestBackupImportRequiresEmptyDatabase(t *testing.T) {
	src := newTestEnv(t)
	seedBackupData(t, src)

	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, NewBackupService(src.db).Export(path))

	err := NewBackupService(src.db).Import(path)
	assert.ErrorIs(t, err, ErrDatabaseNotEmpty)

	err = NewBackupService(newTestEnv(t).db).ImportFromReader(bytes.NewReader([]byte("{not json")))
	assert.Error(t, err)
}

func TestBackupClearThenImport(t *testing.T) {
	env := newTestEnv(t)
	seedBackupData(t, env)
	backups := NewBackupService(env.db)

	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, backups.Export(path))

	read, err := ReadBackup(path)
	require.NoError(t, err)
	assert.Equal(t, 2, read.Counts()["persons"])

	require.NoError(t, backups.Clear())
	for _, table := range clearOrder {
		var n int
		require.NoError(t, env.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, "%s should be empty", table)
	}

	require.NoError(t, backups.Import(path))
	people, err := env.peopleService().ListPeople(repository.PersonFilter{})
	require.NoError(t, err)
	assert.Len(t, people, 2)
}
