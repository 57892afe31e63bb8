package models

import "time"

// Module is a functional area of the dashboard
type Module string

const (
	ModuleFinance      Module = "FINANCE"
	ModuleEvangelism   Module = "EVANGELISM"
	ModuleLessons      Module = "LESSONS"
	ModulePeople       Module = "PEOPLE"
	ModuleClusters     Module = "CLUSTERS"
	ModuleEvents       Module = "EVENTS"
	ModuleSundaySchool Module = "SUNDAY_SCHOOL"
)

// Valid reports whether m is a known module
func (m Module) Valid() bool {
	switch m {
	case ModuleFinance, ModuleEvangelism, ModuleLessons, ModulePeople, ModuleClusters, ModuleEvents, ModuleSundaySchool:
		return true
	}
	return false
}

// CoordinatorLevel is the rank of a module coordinator
type CoordinatorLevel string

const (
	LevelCoordinator       CoordinatorLevel = "COORDINATOR"
	LevelSeniorCoordinator CoordinatorLevel = "SENIOR_COORDINATOR"
	LevelTeacher           CoordinatorLevel = "TEACHER"
)

// Valid reports whether l is a known level
func (l CoordinatorLevel) Valid() bool {
	switch l {
	case LevelCoordinator, LevelSeniorCoordinator, LevelTeacher:
		return true
	}
	return false
}

// ModuleCoordinator grants a person scope over one module.
// A nil ResourceID means the grant covers the whole module.
type ModuleCoordinator struct {
	ID           int64            `json:"id"`
	PersonID     int64            `json:"person_id"`
	Module       Module           `json:"module"`
	Level        CoordinatorLevel `json:"level"`
	ResourceType string           `json:"resource_type,omitempty"`
	ResourceID   *int64           `json:"resource_id,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// IsModuleWide reports whether the grant is not tied to a single resource
func (c ModuleCoordinator) IsModuleWide() bool {
	return c.ResourceID == nil
}
