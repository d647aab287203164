package dashboard

import (
	"sort"
	"strings"

	"github.com/dyluth/roster/pkg/state"
)

// LegendKind says what a legend entry colors.
type LegendKind string

const (
	LegendKindArea    LegendKind = "area"
	LegendKindProject LegendKind = "project"
)

// LegendEntry is one swatch of the color legend.
type LegendEntry struct {
	Kind  LegendKind `json:"kind"`
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Color string     `json:"color"`
}

// ColorLegend returns the colors used on the planning board: areas first,
// then projects, each group sorted by name. Records without a color are left
// out.
func (s *Service) ColorLegend() []LegendEntry {
	areas, _ := state.Get(s.store, state.Areas)
	projects, _ := state.Get(s.store, state.Projects)

	var areaEntries, projectEntries []LegendEntry
	for _, a := range areas {
		if a.Color != "" {
			areaEntries = append(areaEntries, LegendEntry{Kind: LegendKindArea, ID: a.ID, Name: a.Name, Color: a.Color})
		}
	}
	for _, p := range projects {
		if p.Color != "" {
			projectEntries = append(projectEntries, LegendEntry{Kind: LegendKindProject, ID: p.ID, Name: p.Name, Color: p.Color})
		}
	}

	byName := func(entries []LegendEntry) {
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})
	}
	byName(areaEntries)
	byName(projectEntries)

	return append(areaEntries, projectEntries...)
}
