package service

import (
	"strings"

	"churchadmin/internal/models"
	"churchadmin/internal/repository"
	"churchadmin/internal/validation"
)

// Resource types a coordinator grant may be tied to
const (
	ResourceCluster         = "CLUSTER"
	ResourceEvangelismGroup = "EVANGELISM_GROUP"
	ResourceLesson          = "LESSON"
)

// CoordinatorInput is the writable part of a coordinator grant.
// Leaving ResourceID empty makes the grant module-wide.
type CoordinatorInput struct {
	PersonID     int64                   `json:"person_id" validate:"required"`
	Module       models.Module           `json:"module" validate:"required,oneof=FINANCE EVANGELISM LESSONS PEOPLE CLUSTERS EVENTS SUNDAY_SCHOOL"`
	Level        models.CoordinatorLevel `json:"level" validate:"omitempty,oneof=COORDINATOR SENIOR_COORDINATOR TEACHER"`
	ResourceType string                  `json:"resource_type" validate:"omitempty,oneof=CLUSTER EVANGELISM_GROUP LESSON"`
	ResourceID   *int64                  `json:"resource_id"`
}

// CoordinatorService manages module coordinator grants
type CoordinatorService struct {
	repo           *repository.CoordinatorRepository
	personRepo     *repository.PersonRepository
	clusterRepo    *repository.ClusterRepository
	evangelismRepo *repository.EvangelismRepository
	lessonRepo     *repository.LessonRepository
}

// NewCoordinatorService creates a new coordinator service
func NewCoordinatorService(
	repo *repository.CoordinatorRepository,
	personRepo *repository.PersonRepository,
	clusterRepo *repository.ClusterRepository,
	evangelismRepo *repository.EvangelismRepository,
	lessonRepo *repository.LessonRepository,
) *CoordinatorService {
	return &CoordinatorService{
		repo:           repo,
		personRepo:     personRepo,
		clusterRepo:    clusterRepo,
		evangelismRepo: evangelismRepo,
		lessonRepo:     lessonRepo,
	}
}

// CreateCoordinator grants a person scope over a module or one of its resources
func (s *CoordinatorService) CreateCoordinator(in CoordinatorInput) (*models.ModuleCoordinator, error) {
	c, err := s.coordinatorFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCoordinator retrieves a grant by ID
func (s *CoordinatorService) GetCoordinator(id int64) (*models.ModuleCoordinator, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCoordinatorNotFound
	}
	return c, nil
}

// ListCoordinators returns grants, optionally for one person or one module
func (s *CoordinatorService) ListCoordinators(f repository.CoordinatorFilter) ([]models.ModuleCoordinator, error) {
	if f.Module != "" && !f.Module.Valid() {
		return nil, validation.Single("module", "Select a valid module.")
	}
	return s.repo.List(f)
}

// UpdateCoordinator changes a grant's module, level and scope. The person is fixed.
func (s *CoordinatorService) UpdateCoordinator(id int64, in CoordinatorInput) (*models.ModuleCoordinator, error) {
	existing, err := s.GetCoordinator(id)
	if err != nil {
		return nil, err
	}
	in.PersonID = existing.PersonID

	c, err := s.coordinatorFromInput(in)
	if err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCoordinator revokes a grant
func (s *CoordinatorService) DeleteCoordinator(id int64) error {
	if _, err := s.GetCoordinator(id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

// CheckScope reports whether a person's grants cover the module, and the
// resource when one is given
func (s *CoordinatorService) CheckScope(personID *int64, module models.Module, resourceType string, resourceID *int64) (bool, error) {
	fe := validation.FieldErrors{}
	if personID == nil {
		fe.Add("person_id", "This field is required.")
	}
	if !module.Valid() {
		fe.Add("module", "Select a valid module.")
	}
	if err := fe.OrNil(); err != nil {
		return false, err
	}

	grants, err := s.repo.List(repository.CoordinatorFilter{PersonID: personID, Module: module})
	if err != nil {
		return false, err
	}
	return HasScope(grants, module, strings.ToUpper(resourceType), resourceID), nil
}

// HasScope reports whether any of the person's grants covers the module, and
// the resource when one is given. A module-wide grant covers every resource.
func HasScope(grants []models.ModuleCoordinator, module models.Module, resourceType string, resourceID *int64) bool {
	for _, g := range grants {
		if g.Module != module {
			continue
		}
		if g.IsModuleWide() {
			return true
		}
		if resourceID != nil && g.ResourceType == resourceType && *g.ResourceID == *resourceID {
			return true
		}
	}
	return false
}

func (s *CoordinatorService) coordinatorFromInput(in CoordinatorInput) (*models.ModuleCoordinator, error) {
	in.ResourceType = strings.ToUpper(strings.TrimSpace(in.ResourceType))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Level == "" {
		in.Level = models.LevelCoordinator
	}

	fe := validation.FieldErrors{}
	ok, err := s.personRepo.Exists(in.PersonID)
	if err != nil {
		return nil, err
	}
	if !ok {
		fe.Add("person_id", "Select a valid person.")
	}

	switch {
	case in.ResourceID == nil:
		in.ResourceType = ""
	case in.ResourceType == "":
		fe.Add("resource_type", "Select the type of resource this grant covers.")
	default:
		found, err := s.resourceExists(in.ResourceType, *in.ResourceID)
		if err != nil {
			return nil, err
		}
		if !found {
			fe.Add("resource_id", "Select a valid resource.")
		}
	}
	if err := fe.OrNil(); err != nil {
		return nil, err
	}

	return &models.ModuleCoordinator{
		PersonID:     in.PersonID,
		Module:       in.Module,
		Level:        in.Level,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
	}, nil
}

func (s *CoordinatorService) resourceExists(resourceType string, id int64) (bool, error) {
	switch resourceType {
	case ResourceCluster:
		c, err := s.clusterRepo.GetByID(id)
		return c != nil, err
	case ResourceEvangelismGroup:
		g, err := s.evangelismRepo.GetGroup(id)
		return g != nil, err
	case ResourceLesson:
		l, err := s.lessonRepo.GetByID(id)
		return l != nil, err
	}
	return false, nil
}
