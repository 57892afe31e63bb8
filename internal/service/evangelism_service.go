package service

import (
	"errors"
	"fmt"
	"strings"

	"churchadmin/internal/models"
	"churchadmin/internal/repository"
	"churchadmin/internal/validation"
)

// GroupInput is the writable part of an evangelism group
type GroupInput struct {
	Name       string `json:"name" validate:"required,max=150"`
	LeaderID   *int64 `json:"leader_id"`
	MeetingDay string `json:"meeting_day" validate:"max=20"`
	Location   string `json:"location" validate:"max=255"`
	IsActive   *bool  `json:"is_active"`
}

// ProspectInput is the writable part of a prospect
type ProspectInput struct {
	GroupID     int64                `json:"group_id" validate:"required"`
	Name        string               `json:"name" validate:"required,max=150"`
	Contact     string               `json:"contact" validate:"max=255"`
	InvitedByID *int64               `json:"invited_by_id"`
	Stage       models.ProspectStage `json:"stage" validate:"omitempty,oneof=INVITED ATTENDED CONVERTED DROPPED"`
}

// EvangelismService handles evangelism groups and their prospect pipeline
type EvangelismService struct {
	repo       *repository.EvangelismRepository
	personRepo *repository.PersonRepository
}

// NewEvangelismService creates a new evangelism service
func NewEvangelismService(repo *repository.EvangelismRepository, personRepo *repository.PersonRepository) *EvangelismService {
	return &EvangelismService{repo: repo, personRepo: personRepo}
}

// CreateGroup stores a new group. Groups are active unless stated otherwise.
func (s *EvangelismService) CreateGroup(in GroupInput) (*models.EvangelismGroup, error) {
	g, err := s.groupFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateGroup(g); err != nil {
		return nil, err
	}
	return g, nil
}

// GetGroup retrieves a group by ID
func (s *EvangelismService) GetGroup(id int64) (*models.EvangelismGroup, error) {
	g, err := s.repo.GetGroup(id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

// ListGroups returns groups, optionally only the active ones
func (s *EvangelismService) ListGroups(activeOnly bool) ([]models.EvangelismGroup, error) {
	return s.repo.ListGroups(activeOnly)
}

// UpdateGroup replaces the editable fields of a group
func (s *EvangelismService) UpdateGroup(id int64, in GroupInput) (*models.EvangelismGroup, error) {
	existing, err := s.GetGroup(id)
	if err != nil {
		return nil, err
	}
	g, err := s.groupFromInput(in)
	if err != nil {
		return nil, err
	}
	if in.IsActive == nil {
		g.IsActive = existing.IsActive
	}
	g.ID = existing.ID
	g.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateGroup(g); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGroup removes a group and its prospects
func (s *EvangelismService) DeleteGroup(id int64) error {
	if _, err := s.GetGroup(id); err != nil {
		return err
	}
	return s.repo.DeleteGroup(id)
}

// Pipeline counts prospects per stage for every group. Stages with no
// prospects are reported as zero.
func (s *EvangelismService) Pipeline(activeOnly bool) ([]models.GroupPipeline, error) {
	groups, err := s.repo.ListGroups(activeOnly)
	if err != nil {
		return nil, err
	}

	pipelines := make([]models.GroupPipeline, 0, len(groups))
	for _, g := range groups {
		counts, err := s.repo.StageCounts(g.ID)
		if err != nil {
			return nil, err
		}
		p := models.GroupPipeline{Group: g, Stages: make(map[models.ProspectStage]int)}
		for _, stage := range []models.ProspectStage{models.StageInvited, models.StageAttended, models.StageConverted, models.StageDropped} {
			p.Stages[stage] = counts[stage]
			p.Total += counts[stage]
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, nil
}

func (s *EvangelismService) groupFromInput(in GroupInput) (*models.EvangelismGroup, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkPeople(map[string]*int64{"leader_id": in.LeaderID}); err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &models.EvangelismGroup{
		Name:       in.Name,
		LeaderID:   in.LeaderID,
		MeetingDay: strings.TrimSpace(in.MeetingDay),
		Location:   strings.TrimSpace(in.Location),
		IsActive:   active,
	}, nil
}

// CreateProspect adds a prospect to a group. New prospects start INVITED.
func (s *EvangelismService) CreateProspect(in ProspectInput) (*models.Prospect, error) {
	if in.Stage == "" {
		in.Stage = models.StageInvited
	}
	p, err := s.prospectFromInput(in, false)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateProspect(p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProspect retrieves a prospect by ID
func (s *EvangelismService) GetProspect(id int64) (*models.Prospect, error) {
	p, err := s.repo.GetProspect(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProspectNotFound
	}
	return p, nil
}

// ListProspects returns a group's prospects, optionally at one stage
func (s *EvangelismService) ListProspects(groupID int64, stage models.ProspectStage) ([]models.Prospect, error) {
	if stage != "" && !stage.Valid() {
		return nil, validation.Single("stage", "Select one of: INVITED ATTENDED CONVERTED DROPPED.")
	}
	if _, err := s.GetGroup(groupID); err != nil {
		return nil, err
	}
	return s.repo.ListProspects(groupID, stage)
}

// UpdateProspect replaces the editable fields of a prospect. The group of a
// prospect never changes and a converted prospect keeps its stage.
func (s *EvangelismService) UpdateProspect(id int64, in ProspectInput) (*models.Prospect, error) {
	existing, err := s.GetProspect(id)
	if err != nil {
		return nil, err
	}
	in.GroupID = existing.GroupID
	if in.Stage == "" {
		in.Stage = existing.Stage
	}

	converted := existing.ConvertedPersonID != nil
	p, err := s.prospectFromInput(in, converted)
	if err != nil {
		return nil, err
	}
	p.ID = existing.ID
	p.ConvertedPersonID = existing.ConvertedPersonID
	p.CreatedAt = existing.CreatedAt
	if converted {
		p.Stage = models.StageConverted
	}

	if err := s.repo.UpdateProspect(p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProspect removes a prospect
func (s *EvangelismService) DeleteProspect(id int64) error {
	if _, err := s.GetProspect(id); err != nil {
		return err
	}
	return s.repo.DeleteProspect(id)
}

// ConvertProspect creates a VISITOR person for the prospect and links it
func (s *EvangelismService) ConvertProspect(id int64) (*models.Prospect, *models.Person, error) {
	prospect, person, err := s.repo.ConvertProspect(id)
	if errors.Is(err, repository.ErrAlreadyConverted) {
		return nil, nil, ErrAlreadyConverted
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to convert prospect: %w", err)
	}
	if prospect == nil {
		return nil, nil, ErrProspectNotFound
	}
	return prospect, person, nil
}

func (s *EvangelismService) prospectFromInput(in ProspectInput, converted bool) (*models.Prospect, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	// CONVERTED is only reachable through ConvertProspect, which creates the person
	if in.Stage == models.StageConverted && !converted {
		return nil, validation.Single("stage", "Use the convert action to mark a prospect converted.")
	}

	g, err := s.repo.GetGroup(in.GroupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, validation.Single("group_id", "Select a valid group.")
	}
	if err := s.checkPeople(map[string]*int64{"invited_by_id": in.InvitedByID}); err != nil {
		return nil, err
	}

	return &models.Prospect{
		GroupID:     in.GroupID,
		Name:        in.Name,
		Contact:     strings.TrimSpace(in.Contact),
		InvitedByID: in.InvitedByID,
		Stage:       in.Stage,
	}, nil
}

// checkPeople reports a field error for every set ID that does not name a person
func (s *EvangelismService) checkPeople(refs map[string]*int64) error {
	fe := validation.FieldErrors{}
	for field, id := range refs {
		if id == nil {
			continue
		}
		ok, err := s.personRepo.Exists(*id)
		if err != nil {
			return err
		}
		if !ok {
			fe.Add(field, "Select a valid person.")
		}
	}
	return fe.OrNil()
}
