package models

import "time"

// ProspectStage tracks a visitor through the evangelism pipeline
type ProspectStage string

const (
	StageInvited   ProspectStage = "INVITED"
	StageAttended  ProspectStage = "ATTENDED"
	StageConverted ProspectStage = "CONVERTED"
	StageDropped   ProspectStage = "DROPPED"
)

// Valid reports whether s is a known stage
func (s ProspectStage) Valid() bool {
	switch s {
	case StageInvited, StageAttended, StageConverted, StageDropped:
		return true
	}
	return false
}

// EvangelismGroup is a Bible-study or outreach group
type EvangelismGroup struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	LeaderID   *int64    `json:"leader_id,omitempty"`
	MeetingDay string    `json:"meeting_day,omitempty"`
	Location   string    `json:"location,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Prospect is a visitor tracked by an evangelism group
type Prospect struct {
	ID                int64         `json:"id"`
	GroupID           int64         `json:"group_id"`
	Name              string        `json:"name"`
	Contact           string        `json:"contact,omitempty"`
	InvitedByID       *int64        `json:"invited_by_id,omitempty"`
	Stage             ProspectStage `json:"stage"`
	ConvertedPersonID *int64        `json:"converted_person_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// GroupPipeline counts prospects per stage for one group
type GroupPipeline struct {
	Group  EvangelismGroup       `json:"group"`
	Stages map[ProspectStage]int `json:"stages"`
	Total  int                   `json:"total"`
}
