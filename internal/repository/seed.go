package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/dyluth/roster/pkg/state"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Seed is the contents of a seed file: records to load into a workspace.
//
// IDs may be omitted and are generated on load. Reference fields
// (area_id, client_id, talent_id, project_id) accept either an ID or the
// name of a record declared in the same file.
type Seed struct {
	Areas       []state.Area       `yaml:"areas,omitempty"`
	Clients     []state.Client     `yaml:"clients,omitempty"`
	Talents     []state.Talent     `yaml:"talents,omitempty"`
	Projects    []state.Project    `yaml:"projects,omitempty"`
	Allocations []state.Allocation `yaml:"allocations,omitempty"`
}

// Len returns the total number of records in the seed.
func (s *Seed) Len() int {
	return len(s.Areas) + len(s.Clients) + len(s.Talents) + len(s.Projects) + len(s.Allocations)
}

// LoadSeedFile reads and parses a seed file, assigns missing IDs, resolves
// name references and validates every record.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seed.assignIDs()
	if err := seed.resolveReferences(); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}

	return &seed, nil
}

// Validate checks every record in the seed.
func (s *Seed) Validate() error {
	for i, r := range s.Areas {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("areas[%d]: %w", i, err)
		}
	}
	for i, r := range s.Clients {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("clients[%d]: %w", i, err)
		}
	}
	for i, r := range s.Talents {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("talents[%d]: %w", i, err)
		}
	}
	for i, r := range s.Projects {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("projects[%d]: %w", i, err)
		}
	}
	for i, r := range s.Allocations {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("allocations[%d]: %w", i, err)
		}
	}
	return nil
}

func (s *Seed) assignIDs() {
	newID := func(id *string) {
		if *id == "" {
			*id = uuid.New().String()
		}
	}
	for i := range s.Areas {
		newID(&s.Areas[i].ID)
	}
	for i := range s.Clients {
		newID(&s.Clients[i].ID)
	}
	for i := range s.Talents {
		newID(&s.Talents[i].ID)
	}
	for i := range s.Projects {
		newID(&s.Projects[i].ID)
	}
	for i := range s.Allocations {
		newID(&s.Allocations[i].ID)
	}
}

func (s *Seed) resolveReferences() error {
	areas := make(map[string]string, len(s.Areas))
	for _, a := range s.Areas {
		areas[a.Name] = a.ID
	}
	clients := make(map[string]string, len(s.Clients))
	for _, c := range s.Clients {
		clients[c.Name] = c.ID
	}
	talents := make(map[string]string, len(s.Talents))
	for _, t := range s.Talents {
		talents[t.Name] = t.ID
	}
	projects := make(map[string]string, len(s.Projects))
	for _, p := range s.Projects {
		projects[p.Name] = p.ID
	}

	for i := range s.Talents {
		if err := resolve(&s.Talents[i].AreaID, areas, "area"); err != nil {
			return fmt.Errorf("talents[%d]: %w", i, err)
		}
	}
	for i := range s.Projects {
		if err := resolve(&s.Projects[i].ClientID, clients, "client"); err != nil {
			return fmt.Errorf("projects[%d]: %w", i, err)
		}
	}
	for i := range s.Allocations {
		if err := resolve(&s.Allocations[i].TalentID, talents, "talent"); err != nil {
			return fmt.Errorf("allocations[%d]: %w", i, err)
		}
		if err := resolve(&s.Allocations[i].ProjectID, projects, "project"); err != nil {
			return fmt.Errorf("allocations[%d]: %w", i, err)
		}
	}
	return nil
}

// resolve replaces a name reference with the named record's ID.
// Empty values and values that already parse as UUIDs are left alone.
func resolve(ref *string, byName map[string]string, kind string) error {
	if *ref == "" {
		return nil
	}
	if _, err := uuid.Parse(*ref); err == nil {
		return nil
	}
	id, ok := byName[*ref]
	if !ok {
		return fmt.Errorf("unknown %s %q", kind, *ref)
	}
	*ref = id
	return nil
}

// ApplySeed writes every record of the seed, referenced collections first.
// Returns the number of records written.
func ApplySeed(ctx context.Context, c *Client, seed *Seed) (int, error) {
	n := 0
	for _, r := range seed.Areas {
		if err := Put(ctx, c, Areas, r); err != nil {
			return n, err
		}
		n++
	}
	for _, r := range seed.Clients {
		if err := Put(ctx, c, Clients, r); err != nil {
			return n, err
		}
		n++
	}
	for _, r := range seed.Talents {
		if err := Put(ctx, c, Talents, r); err != nil {
			return n, err
		}
		n++
	}
	for _, r := range seed.Projects {
		if err := Put(ctx, c, Projects, r); err != nil {
			return n, err
		}
		n++
	}
	for _, r := range seed.Allocations {
		if err := Put(ctx, c, Allocations, r); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
