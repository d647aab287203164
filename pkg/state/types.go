package state

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Talent is a person whose time can be allocated to projects.
// The dashboard only counts talents; the remaining fields are carried for
// presentation.
type Talent struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Role   string `json:"role,omitempty" yaml:"role,omitempty"`
	Email  string `json:"email,omitempty" yaml:"email,omitempty"`
	AreaID string `json:"area_id,omitempty" yaml:"area_id,omitempty"`
}

// ProjectStatus is the lifecycle state of a project.
// Values outside the known set are allowed and receive no special handling.
type ProjectStatus string

const (
	// ProjectStatusUpcoming marks a project that has not started yet
	ProjectStatusUpcoming ProjectStatus = "upcoming"

	// ProjectStatusInProgress marks a project with active work
	ProjectStatusInProgress ProjectStatus = "in_progress"

	// ProjectStatusCompleted marks a delivered project (paid or not)
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Project is a unit of client work with a deadline and a budget.
type Project struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	ClientID  string        `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	Status    ProjectStatus `json:"status" yaml:"status"`
	StartDate string        `json:"start_date,omitempty" yaml:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string        `json:"end_date,omitempty" yaml:"end_date,omitempty"`     // YYYY-MM-DD, empty = no deadline
	Budget    float64       `json:"budget,omitempty" yaml:"budget,omitempty"`         // Missing budget reads as 0
	IsPaid    bool          `json:"is_paid" yaml:"is_paid"`
	Color     string        `json:"color,omitempty" yaml:"color,omitempty"` // #rrggbb
}

// Allocation records a talent occupying a date range for a project.
// Both dates are inclusive calendar days.
type Allocation struct {
	ID        string `json:"id" yaml:"id"`
	TalentID  string `json:"talent_id" yaml:"talent_id"`
	ProjectID string `json:"project_id" yaml:"project_id"`
	StartDate string `json:"start_date" yaml:"start_date"`
	EndDate   string `json:"end_date" yaml:"end_date"`
	Notes     string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Area groups talents by discipline (design, engineering, ...).
type Area struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Client is the customer a project is delivered for.
type Client struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`
}

// User is the signed-in account held under auth.user.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
}

// RecordID returns the talent's ID.
func (t Talent) RecordID() string { return t.ID }

// RecordID returns the project's ID.
func (p Project) RecordID() string { return p.ID }

// RecordID returns the allocation's ID.
func (a Allocation) RecordID() string { return a.ID }

// RecordID returns the area's ID.
func (a Area) RecordID() string { return a.ID }

// RecordID returns the client's ID.
func (c Client) RecordID() string { return c.ID }

// Known reports whether the status is one the dashboard treats specially.
func (ps ProjectStatus) Known() bool {
	switch ps {
	case ProjectStatusUpcoming, ProjectStatusInProgress, ProjectStatusCompleted:
		return true
	default:
		return false
	}
}

// Validate checks if the Talent has valid field values.
func (t Talent) Validate() error {
	if !isValidUUID(t.ID) {
		return fmt.Errorf("invalid talent ID: not a valid UUID")
	}
	if t.Name == "" {
		return fmt.Errorf("talent name cannot be empty")
	}
	if t.AreaID != "" && !isValidUUID(t.AreaID) {
		return fmt.Errorf("invalid area_id: not a valid UUID")
	}
	return nil
}

// Validate checks if the Project has valid field values.
// Unknown statuses are accepted; an empty status is not.
func (p Project) Validate() error {
	if !isValidUUID(p.ID) {
		return fmt.Errorf("invalid project ID: not a valid UUID")
	}
	if p.Name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if p.Status == "" {
		return fmt.Errorf("project status cannot be empty")
	}
	if p.ClientID != "" && !isValidUUID(p.ClientID) {
		return fmt.Errorf("invalid client_id: not a valid UUID")
	}
	if p.Budget < 0 {
		return fmt.Errorf("invalid budget: must be >= 0, got %.2f", p.Budget)
	}
	if err := validateColor(p.Color); err != nil {
		return err
	}
	return nil
}

// Validate checks if the Allocation has valid field values.
// Date syntax is checked where the dates are used, not here.
func (a Allocation) Validate() error {
	if !isValidUUID(a.ID) {
		return fmt.Errorf("invalid allocation ID: not a valid UUID")
	}
	if !isValidUUID(a.TalentID) {
		return fmt.Errorf("invalid talent_id: not a valid UUID")
	}
	if !isValidUUID(a.ProjectID) {
		return fmt.Errorf("invalid project_id: not a valid UUID")
	}
	if a.StartDate == "" || a.EndDate == "" {
		return fmt.Errorf("allocation requires both start_date and end_date")
	}
	return nil
}

// Validate checks if the Area has valid field values.
func (a Area) Validate() error {
	if !isValidUUID(a.ID) {
		return fmt.Errorf("invalid area ID: not a valid UUID")
	}
	if a.Name == "" {
		return fmt.Errorf("area name cannot be empty")
	}
	return validateColor(a.Color)
}

// Validate checks if the Client has valid field values.
func (c Client) Validate() error {
	if !isValidUUID(c.ID) {
		return fmt.Errorf("invalid client ID: not a valid UUID")
	}
	if c.Name == "" {
		return fmt.Errorf("client name cannot be empty")
	}
	return nil
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validateColor(c string) error {
	if c != "" && !hexColor.MatchString(c) {
		return fmt.Errorf("invalid color %q: expected #rrggbb", c)
	}
	return nil
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
