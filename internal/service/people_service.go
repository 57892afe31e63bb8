package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"churchadmin/internal/models"
	"churchadmin/internal/repository"
	"churchadmin/internal/validation"
)

// PersonInput is the writable part of a person record
type PersonInput struct {
	FirstName string              `json:"first_name" validate:"required,max=100"`
	LastName  string              `json:"last_name" validate:"required,max=100"`
	Email     string              `json:"email" validate:"omitempty,email"`
	Phone     string              `json:"phone" validate:"max=50"`
	Gender    string              `json:"gender" validate:"max=20"`
	BirthDate string              `json:"birth_date" validate:"omitempty,date"`
	Status    models.PersonStatus `json:"status" validate:"omitempty,oneof=MEMBER VISITOR INACTIVE"`
	FamilyID  *int64              `json:"family_id"`
	ClusterID *int64              `json:"cluster_id"`
	BranchID  *int64              `json:"branch_id"`
}

// FamilyInput is the writable part of a family record
type FamilyInput struct {
	Name      string `json:"name" validate:"required,max=150"`
	Address   string `json:"address" validate:"max=255"`
	ClusterID *int64 `json:"cluster_id"`
}

// ClusterInput is the writable part of a cluster record
type ClusterInput struct {
	Code          string `json:"code" validate:"required,max=20"`
	Name          string `json:"name" validate:"required,max=150"`
	CoordinatorID *int64 `json:"coordinator_id"`
	Description   string `json:"description"`
}

// BranchInput is the writable part of a branch record
type BranchInput struct {
	Name    string `json:"name" validate:"required,max=150"`
	Address string `json:"address" validate:"max=255"`
}

// PeopleService handles people, families, clusters and branches
type PeopleService struct {
	personRepo  *repository.PersonRepository
	familyRepo  *repository.FamilyRepository
	clusterRepo *repository.ClusterRepository
}

// NewPeopleService creates a new people service
func NewPeopleService(personRepo *repository.PersonRepository, familyRepo *repository.FamilyRepository, clusterRepo *repository.ClusterRepository) *PeopleService {
	return &PeopleService{
		personRepo:  personRepo,
		familyRepo:  familyRepo,
		clusterRepo: clusterRepo,
	}
}

// CreatePerson validates and stores a new person. Status defaults to MEMBER.
func (s *PeopleService) CreatePerson(in PersonInput) (*models.Person, error) {
	p, err := s.personFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.personRepo.Create(p); err != nil {
		return nil, fmt.Errorf("failed to create person: %w", err)
	}
	return p, nil
}

// GetPerson retrieves a person by ID
func (s *PeopleService) GetPerson(id int64) (*models.Person, error) {
	p, err := s.personRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPersonNotFound
	}
	return p, nil
}

// ListPeople returns people matching the filter
func (s *PeopleService) ListPeople(f repository.PersonFilter) ([]models.Person, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, validation.Single("status", "Select one of: MEMBER VISITOR INACTIVE.")
	}
	return s.personRepo.List(f)
}

// UpdatePerson replaces the editable fields of a person
func (s *PeopleService) UpdatePerson(id int64, in PersonInput) (*models.Person, error) {
	existing, err := s.GetPerson(id)
	if err != nil {
		return nil, err
	}

	p, err := s.personFromInput(in)
	if err != nil {
		return nil, err
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt

	if err := s.personRepo.Update(p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePerson removes a person
func (s *PeopleService) DeletePerson(id int64) error {
	if _, err := s.GetPerson(id); err != nil {
		return err
	}
	return s.personRepo.Delete(id)
}

func (s *PeopleService) personFromInput(in PersonInput) (*models.Person, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = models.PersonMember
	}
	if err := s.checkReferences(in.FamilyID, in.ClusterID, in.BranchID); err != nil {
		return nil, err
	}

	return &models.Person{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     strings.TrimSpace(in.Phone),
		Gender:    strings.TrimSpace(in.Gender),
		BirthDate: in.BirthDate,
		Status:    in.Status,
		FamilyID:  in.FamilyID,
		ClusterID: in.ClusterID,
		BranchID:  in.BranchID,
	}, nil
}

// checkReferences reports every dangling family, cluster or branch reference as a field error
func (s *PeopleService) checkReferences(familyID, clusterID, branchID *int64) error {
	fe := validation.FieldErrors{}

	if familyID != nil {
		f, err := s.familyRepo.GetByID(*familyID)
		if err != nil {
			return err
		}
		if f == nil {
			fe.Add("family_id", "Select a valid family.")
		}
	}
	if clusterID != nil {
		if err := s.checkCluster(fe, "cluster_id", *clusterID); err != nil {
			return err
		}
	}
	if branchID != nil {
		b, err := s.clusterRepo.GetBranch(*branchID)
		if err != nil {
			return err
		}
		if b == nil {
			fe.Add("branch_id", "Select a valid branch.")
		}
	}
	return fe.OrNil()
}

func (s *PeopleService) checkCluster(fe validation.FieldErrors, field string, id int64) error {
	c, err := s.clusterRepo.GetByID(id)
	if err != nil {
		return err
	}
	if c == nil {
		fe.Add(field, "Select a valid cluster.")
	}
	return nil
}

func (s *PeopleService) checkPerson(fe validation.FieldErrors, field string, id int64) error {
	ok, err := s.personRepo.Exists(id)
	if err != nil {
		return err
	}
	if !ok {
		fe.Add(field, "Select a valid person.")
	}
	return nil
}

// CreateFamily stores a new family
func (s *PeopleService) CreateFamily(in FamilyInput) (*models.Family, error) {
	f, err := s.familyFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.familyRepo.Create(f); err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}
	return f, nil
}

// GetFamily retrieves a family with its members
func (s *PeopleService) GetFamily(id int64) (*models.FamilyWithMembers, error) {
	f, err := s.familyRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrFamilyNotFound
	}

	members, err := s.personRepo.List(repository.PersonFilter{FamilyID: &f.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to get family members: %w", err)
	}
	return &models.FamilyWithMembers{Family: *f, Members: members}, nil
}

// ListFamilies returns every family
func (s *PeopleService) ListFamilies() ([]models.Family, error) {
	return s.familyRepo.List()
}

// UpdateFamily replaces the editable fields of a family
func (s *PeopleService) UpdateFamily(id int64, in FamilyInput) (*models.Family, error) {
	existing, err := s.familyRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrFamilyNotFound
	}

	f, err := s.familyFromInput(in)
	if err != nil {
		return nil, err
	}
	f.ID = existing.ID
	f.CreatedAt = existing.CreatedAt
	if err := s.familyRepo.Update(f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFamily removes a family; its members are kept
func (s *PeopleService) DeleteFamily(id int64) error {
	f, err := s.familyRepo.GetByID(id)
	if err != nil {
		return err
	}
	if f == nil {
		return ErrFamilyNotFound
	}
	return s.familyRepo.Delete(id)
}

// SetFamilyMember moves a person into a family, or out of any family when familyID is nil
func (s *PeopleService) SetFamilyMember(personID int64, familyID *int64) (*models.Person, error) {
	if familyID != nil {
		f, err := s.familyRepo.GetByID(*familyID)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, ErrFamilyNotFound
		}
	}

	err := s.familyRepo.SetMember(personID, familyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPersonNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetPerson(personID)
}

func (s *PeopleService) familyFromInput(in FamilyInput) (*models.Family, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	fe := validation.FieldErrors{}
	if in.ClusterID != nil {
		if err := s.checkCluster(fe, "cluster_id", *in.ClusterID); err != nil {
			return nil, err
		}
	}
	if err := fe.OrNil(); err != nil {
		return nil, err
	}
	return &models.Family{Name: in.Name, Address: strings.TrimSpace(in.Address), ClusterID: in.ClusterID}, nil
}

// CreateCluster stores a new cluster. Codes are stored upper-case and must be unique.
func (s *PeopleService) CreateCluster(in ClusterInput) (*models.Cluster, error) {
	c, err := s.clusterFromInput(in)
	if err != nil {
		return nil, err
	}
	err = s.clusterRepo.Create(c)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrDuplicateCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster: %w", err)
	}
	return c, nil
}

// GetCluster retrieves a cluster by ID
func (s *PeopleService) GetCluster(id int64) (*models.Cluster, error) {
	c, err := s.clusterRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrClusterNotFound
	}
	return c, nil
}

// ListClusters returns every cluster with its headcounts
func (s *PeopleService) ListClusters() ([]models.ClusterSummary, error) {
	return s.clusterRepo.ListSummaries()
}

// UpdateCluster replaces the editable fields of a cluster
func (s *PeopleService) UpdateCluster(id int64, in ClusterInput) (*models.Cluster, error) {
	existing, err := s.GetCluster(id)
	if err != nil {
		return nil, err
	}

	c, err := s.clusterFromInput(in)
	if err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt

	err = s.clusterRepo.Update(c)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrDuplicateCode
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCluster removes a cluster
func (s *PeopleService) DeleteCluster(id int64) error {
	if _, err := s.GetCluster(id); err != nil {
		return err
	}
	return s.clusterRepo.Delete(id)
}

func (s *PeopleService) clusterFromInput(in ClusterInput) (*models.Cluster, error) {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	fe := validation.FieldErrors{}
	if in.CoordinatorID != nil {
		if err := s.checkPerson(fe, "coordinator_id", *in.CoordinatorID); err != nil {
			return nil, err
		}
	}
	if err := fe.OrNil(); err != nil {
		return nil, err
	}
	return &models.Cluster{
		Code:          in.Code,
		Name:          in.Name,
		CoordinatorID: in.CoordinatorID,
		Description:   strings.TrimSpace(in.Description),
	}, nil
}

// CreateBranch stores a new branch
func (s *PeopleService) CreateBranch(in BranchInput) (*models.Branch, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	b := &models.Branch{Name: in.Name, Address: strings.TrimSpace(in.Address)}
	if err := s.clusterRepo.CreateBranch(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBranches returns every branch
func (s *PeopleService) ListBranches() ([]models.Branch, error) {
	return s.clusterRepo.ListBranches()
}
