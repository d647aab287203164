package dashboard

import (
	"strings"
	"testing"

	"github.com/dyluth/roster/pkg/state"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	store, svc, _ := setupTestService(t, now)

	require.NoError(t, state.Set(store, state.Talents, talents(2)))
	require.NoError(t, state.Set(store, state.Projects, []state.Project{
		project("active", state.ProjectStatusInProgress, "2026-10-25"),
		{ID: uuid.New().String(), Name: "owed", Status: state.ProjectStatusCompleted, Budget: 1250.5},
	}))

	c := NewCollector(svc, "acme")

	expected := `
# HELP roster_talents Number of talents.
# TYPE roster_talents gauge
roster_talents{workspace="acme"} 2
# HELP roster_active_projects Number of projects in progress.
# TYPE roster_active_projects gauge
roster_active_projects{workspace="acme"} 1
# HELP roster_upcoming_deadlines Projects due within the deadline window.
# TYPE roster_upcoming_deadlines gauge
roster_upcoming_deadlines{workspace="acme"} 1
# HELP roster_unpaid_budget Total budget of completed, unpaid projects.
# TYPE roster_unpaid_budget gauge
roster_unpaid_budget{workspace="acme"} 1250.5
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"roster_talents", "roster_active_projects", "roster_upcoming_deadlines", "roster_unpaid_budget")
	require.NoError(t, err)

	require.Equal(t, 6, testutil.CollectAndCount(c))
}
