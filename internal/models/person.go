package models

import (
	"strings"
	"time"
)

// PersonStatus is the membership state of a person record
type PersonStatus string

const (
	PersonMember   PersonStatus = "MEMBER"
	PersonVisitor  PersonStatus = "VISITOR"
	PersonInactive PersonStatus = "INACTIVE"
)

// Valid reports whether s is a known status
func (s PersonStatus) Valid() bool {
	switch s {
	case PersonMember, PersonVisitor, PersonInactive:
		return true
	}
	return false
}

// Person is a member or visitor of the church
type Person struct {
	ID        int64        `json:"id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Gender    string       `json:"gender,omitempty"`
	BirthDate string       `json:"birth_date,omitempty"` // YYYY-MM-DD
	Status    PersonStatus `json:"status"`
	FamilyID  *int64       `json:"family_id,omitempty"`
	ClusterID *int64       `json:"cluster_id,omitempty"`
	BranchID  *int64       `json:"branch_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// FullName joins first and last name
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Ref returns the lightweight reference embedded in other records
func (p Person) Ref() PersonRef {
	return PersonRef{ID: p.ID, Name: p.FullName()}
}

// PersonRef identifies a person inside another record
type PersonRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Family groups people living in one household
type Family struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	ClusterID *int64    `json:"cluster_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FamilyWithMembers combines a family with its members
type FamilyWithMembers struct {
	Family  Family   `json:"family"`
	Members []Person `json:"members"`
}

// Cluster is a geographic grouping of members and families with a coordinator
type Cluster struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	CoordinatorID *int64    `json:"coordinator_id,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ClusterSummary extends a cluster with headcounts
type ClusterSummary struct {
	Cluster
	MemberCount int `json:"member_count"`
	FamilyCount int `json:"family_count"`
}

// Branch is a physical church location
type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
