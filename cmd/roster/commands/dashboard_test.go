package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
areas:
  - name: Engineering
    color: "#0055ff"
talents:
  - name: Ada
    area_id: Engineering
  - name: Grace
projects:
  - name: Atlas
    status: in_progress
    end_date: "2026-11-01"
    budget: 12000
    color: "#ff8800"
  - name: Beacon
    status: completed
    budget: 100
allocations:
  - talent_id: Ada
    project_id: Atlas
    start_date: "2026-10-01"
    end_date: "2026-10-31"
  - talent_id: Grace
    project_id: Atlas
    start_date: "2026-10-01"
    end_date: "2026-10-15"
`

type dashboardJSON struct {
	Workspace string `json:"workspace"`
	Metrics   struct {
		TalentCount        int `json:"talent_count"`
		ActiveProjectCount int `json:"active_project_count"`
		Utilization        int `json:"utilization"`
		UpcomingDeadlines  []struct {
			Name string `json:"name"`
		} `json:"upcoming_deadlines"`
		Unpaid struct {
			Count       int     `json:"count"`
			TotalBudget float64 `json:"total_budget"`
		} `json:"unpaid"`
	} `json:"metrics"`
	Legend []struct {
		Name string `json:"name"`
	} `json:"legend"`
}

func TestSeedThenDashboard(t *testing.T) {
	mr := miniredis.RunT(t)
	redisURL := "redis://" + mr.Addr()

	seedPath := filepath.Join(t.TempDir(), "seed.yml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seedYAML), 0644))

	_, err := runRoster(t, "seed", seedPath, "--redis-url", redisURL, "--workspace", "cli")
	require.NoError(t, err)

	out, err := runRoster(t, "dashboard", "--redis-url", redisURL, "--workspace", "cli",
		"--as-of", "2026-10-18", "-o", "json")
	require.NoError(t, err)

	var got dashboardJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "cli", got.Workspace)
	assert.Equal(t, 2, got.Metrics.TalentCount)
	assert.Equal(t, 1, got.Metrics.ActiveProjectCount)
	assert.Equal(t, 74, got.Metrics.Utilization) // (31 + 15) / (2 * 31)
	require.Len(t, got.Metrics.UpcomingDeadlines, 1)
	assert.Equal(t, "Atlas", got.Metrics.UpcomingDeadlines[0].Name)
	assert.Equal(t, 1, got.Metrics.Unpaid.Count)
	assert.Equal(t, 100.0, got.Metrics.Unpaid.TotalBudget)
	assert.Len(t, got.Legend, 2)

	t.Run("table output", func(t *testing.T) {
		out, err := runRoster(t, "dashboard", "--redis-url", redisURL, "--workspace", "cli", "--as-of", "2026-10-18")
		require.NoError(t, err)
		assert.Contains(t, out, "Dashboard for workspace 'cli' (as of 2026-10-18)")
		assert.Contains(t, out, "74%")
		assert.Contains(t, out, "Beacon")
	})

	t.Run("workspaces are isolated", func(t *testing.T) {
		out, err := runRoster(t, "dashboard", "--redis-url", redisURL, "--workspace", "other", "--as-of", "2026-10-18", "-o", "json")
		require.NoError(t, err)

		var empty dashboardJSON
		require.NoError(t, json.Unmarshal([]byte(out), &empty))
		assert.Zero(t, empty.Metrics.TalentCount)
	})

	t.Run("config file supplies settings", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "roster.yml")
		require.NoError(t, os.WriteFile(cfgPath, []byte(`version: "1.0"
workspace: cli
redis:
  url: `+redisURL+`
dashboard:
  deadline_window_days: 5
`), 0644))

		out, err := runRoster(t, "dashboard", "--config", cfgPath, "--as-of", "2026-10-18", "-o", "json")
		require.NoError(t, err)

		var got dashboardJSON
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 2, got.Metrics.TalentCount)
		assert.Empty(t, got.Metrics.UpcomingDeadlines)
	})
}

func TestDashboardErrors(t *testing.T) {
	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := runRoster(t, "dashboard", "--redis-url", "redis://"+addr)
		require.Error(t, err)
		assert.Equal(t, "redis unreachable", err.Error())
	})

	t.Run("bad as-of", func(t *testing.T) {
		mr := miniredis.RunT(t)
		_, err := runRoster(t, "dashboard", "--redis-url", "redis://"+mr.Addr(), "--as-of", "someday")
		require.Error(t, err)
		assert.Equal(t, "invalid --as-of value", err.Error())
	})

	t.Run("bad seed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.yml")
		require.NoError(t, os.WriteFile(path, []byte("talents:\n  - name: \"\"\n"), 0644))

		_, err := runRoster(t, "seed", path)
		require.Error(t, err)
		assert.Equal(t, "invalid seed file", err.Error())
	})
}
