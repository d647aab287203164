package state

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name     string
	newValue any
	oldValue any
}

// recorder collects callback invocations in order
type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) fn(name string) Subscriber {
	return func(newValue, oldValue any) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, call{name: name, newValue: newValue, oldValue: oldValue})
		return nil
	}
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.name
	}
	return out
}

// setupTestStore creates a store whose errors are captured instead of logged
func setupTestStore(t *testing.T) (*Store, *[]error) {
	t.Helper()
	var reported []error
	s := New(WithErrorSink(func(err error) {
		reported = append(reported, err)
	}))
	return s, &reported
}

func TestNew(t *testing.T) {
	t.Run("builds default tree", func(t *testing.T) {
		s, _ := setupTestStore(t)

		for _, key := range []Path{PathTalents, PathProjects, PathAllocations, PathAreas, PathClients, PathAuth, PathUI} {
			_, ok := s.Get(key)
			assert.True(t, ok, "missing top-level key %s", key)
		}

		page, ok := Get(s, UICurrentPage)
		require.True(t, ok)
		assert.Equal(t, "dashboard", page)

		talents, ok := Get(s, Talents)
		require.True(t, ok)
		assert.Empty(t, talents)
	})

	t.Run("instances are isolated", func(t *testing.T) {
		a, _ := setupTestStore(t)
		b, _ := setupTestStore(t)

		require.NoError(t, Set(a, UICurrentPage, "projects"))

		page, _ := Get(b, UICurrentPage)
		assert.Equal(t, "dashboard", page)
	})
}

func TestGet(t *testing.T) {
	s, _ := setupTestStore(t)

	t.Run("resolves nested path", func(t *testing.T) {
		v, ok := s.Get("ui.filters.status")
		require.True(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("missing leaf", func(t *testing.T) {
		v, ok := s.Get("ui.nope")
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("missing intermediate segment", func(t *testing.T) {
		_, ok := s.Get("ui.nope.deeper")
		assert.False(t, ok)
	})

	t.Run("intermediate is not a container", func(t *testing.T) {
		_, ok := s.Get("ui.currentPage.length")
		assert.False(t, ok)
	})

	t.Run("unknown top-level key", func(t *testing.T) {
		_, ok := s.Get("settings")
		assert.False(t, ok)
	})

	t.Run("returned containers are copies", func(t *testing.T) {
		v, ok := s.Get(PathUI)
		require.True(t, ok)
		ui := v.(map[string]any)
		ui["currentPage"] = "mutated"

		page, _ := Get(s, UICurrentPage)
		assert.Equal(t, "dashboard", page)
	})

	t.Run("returned collections are copies", func(t *testing.T) {
		written := []Talent{{ID: uuid.New().String(), Name: "Ada"}}
		require.NoError(t, Set(s, Talents, written))
		written[0].Name = "changed after Set"

		got, ok := Get(s, Talents)
		require.True(t, ok)
		got[0].Name = "changed after Get"

		again, _ := Get(s, Talents)
		assert.Equal(t, "Ada", again[0].Name)
	})
}

func TestSetRoundTrip(t *testing.T) {
	s, _ := setupTestStore(t)

	projects := []Project{{ID: uuid.New().String(), Name: "Atlas", Status: ProjectStatusInProgress}}

	tests := []struct {
		path  Path
		value any
	}{
		{"ui.currentPage", "talents"},
		{"ui.sidebarOpen", false},
		{"ui.filters.area", "design"},
		{"auth.session", "token-123"},
		{"auth.user", &User{ID: "u1", Email: "a@example.com"}},
		{PathProjects, projects},
	}

	for _, tt := range tests {
		t.Run(string(tt.path), func(t *testing.T) {
			require.NoError(t, s.Set(tt.path, tt.value))

			got, ok := s.Get(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestSetErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    Path
		segment string
	}{
		{"missing parent", "ui.panels.left", "panels"},
		{"parent is a leaf", "ui.currentPage.title", "currentPage"},
		{"parent is a collection", "projects.0", "projects"},
		{"unknown top-level key", "settings", "settings"},
		{"unknown top-level key nested", "settings.theme", "settings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setupTestStore(t)
			rec := &recorder{}
			s.Subscribe(tt.path, rec.fn("exact"))
			s.Subscribe(tt.path.Top(), rec.fn("top"))

			err := s.Set(tt.path, "x")
			require.Error(t, err)

			var kpe *KeyPathError
			require.True(t, errors.As(err, &kpe))
			assert.Equal(t, tt.path, kpe.Path)
			assert.Equal(t, tt.segment, kpe.Segment)
			assert.Empty(t, rec.names(), "failed writes must not notify")
		})
	}

	t.Run("empty segment", func(t *testing.T) {
		s, _ := setupTestStore(t)
		err := s.Set("ui..currentPage", "x")

		var kpe *KeyPathError
		require.True(t, errors.As(err, &kpe))
		assert.Contains(t, err.Error(), "empty segment")
	})

	t.Run("does not create structure", func(t *testing.T) {
		s, _ := setupTestStore(t)
		_ = s.Set("ui.panels.left", "x")

		_, ok := s.Get("ui.panels")
		assert.False(t, ok)
	})
}

func TestSubscribeOrdering(t *testing.T) {
	s, _ := setupTestStore(t)
	rec := &recorder{}

	s.Subscribe(PathProjects, rec.fn("A"))
	s.Subscribe(PathProjects, rec.fn("B"))

	old, _ := Get(s, Projects)
	next := []Project{{ID: uuid.New().String(), Name: "Beacon", Status: ProjectStatusUpcoming}}
	require.NoError(t, Set(s, Projects, next))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, []string{"A", "B"}, rec.names())
	for _, c := range rec.calls {
		assert.Equal(t, next, c.newValue)
		assert.Equal(t, old, c.oldValue)
	}
}

func TestSubscribeOnlyMatchingKey(t *testing.T) {
	s, _ := setupTestStore(t)
	rec := &recorder{}

	s.Subscribe(PathTalents, rec.fn("talents"))
	s.Subscribe("ui.sidebarOpen", rec.fn("sidebar"))

	require.NoError(t, Set(s, UICurrentPage, "projects"))
	assert.Empty(t, rec.names())
}

func TestNestedCascade(t *testing.T) {
	s, _ := setupTestStore(t)
	rec := &recorder{}

	s.Subscribe("ui.currentPage", rec.fn("page"))
	s.Subscribe(PathUI, rec.fn("ui"))

	require.NoError(t, s.Set("ui.currentPage", "x"))

	require.Equal(t, []string{"page", "ui"}, rec.names())

	page := rec.calls[0]
	assert.Equal(t, "x", page.newValue)
	assert.Equal(t, "dashboard", page.oldValue)

	ui := rec.calls[1]
	uiMap, ok := ui.newValue.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", uiMap["currentPage"])
	assert.Nil(t, ui.oldValue)

	t.Run("deep path cascades to top-level only", func(t *testing.T) {
		s, _ := setupTestStore(t)
		rec := &recorder{}
		s.Subscribe(PathUI, rec.fn("ui"))
		s.Subscribe("ui.filters", rec.fn("filters"))

		require.NoError(t, Set(s, UIFilterStatus, "completed"))
		assert.Equal(t, []string{"ui"}, rec.names())
	})

	t.Run("top-level write does not cascade", func(t *testing.T) {
		s, _ := setupTestStore(t)
		rec := &recorder{}
		s.Subscribe(PathTalents, rec.fn("talents"))

		require.NoError(t, Set(s, Talents, []Talent{}))
		assert.Equal(t, []string{"talents"}, rec.names())
	})
}

func TestUnsubscribe(t *testing.T) {
	t.Run("removes exactly one callback", func(t *testing.T) {
		s, _ := setupTestStore(t)
		rec := &recorder{}

		s.Subscribe(PathUI, rec.fn("A"))
		subB := s.Subscribe(PathUI, rec.fn("B"))
		s.Subscribe(PathUI, rec.fn("C"))

		require.NoError(t, subB.Close())
		require.NoError(t, Set(s, UICurrentPage, "x"))

		assert.Equal(t, []string{"A", "C"}, rec.names())
	})

	t.Run("second close is a no-op", func(t *testing.T) {
		s, _ := setupTestStore(t)
		rec := &recorder{}

		subA := s.Subscribe(PathTalents, rec.fn("A"))
		s.Subscribe(PathTalents, rec.fn("B"))

		require.NoError(t, subA.Close())
		require.NoError(t, subA.Close())
		assert.Equal(t, 1, s.SubscriberCount(PathTalents))

		require.NoError(t, Set(s, Talents, []Talent{}))
		assert.Equal(t, []string{"B"}, rec.names())
	})

	t.Run("same function subscribed twice is removed once", func(t *testing.T) {
		s, _ := setupTestStore(t)
		rec := &recorder{}
		fn := rec.fn("same")

		first := s.Subscribe(PathAreas, fn)
		s.Subscribe(PathAreas, fn)

		require.NoError(t, first.Close())
		require.NoError(t, Set(s, Areas, []Area{}))
		assert.Equal(t, []string{"same"}, rec.names())
	})

	t.Run("last close empties the registry entry", func(t *testing.T) {
		s, _ := setupTestStore(t)
		sub := s.Subscribe(PathClients, func(any, any) error { return nil })

		require.NoError(t, sub.Close())
		assert.Equal(t, 0, s.SubscriberCount(PathClients))
		_, exists := s.subs[PathClients]
		assert.False(t, exists)
	})

	t.Run("other keys untouched", func(t *testing.T) {
		s, _ := setupTestStore(t)
		s.Subscribe(PathTalents, func(any, any) error { return nil })
		sub := s.Subscribe(PathProjects, func(any, any) error { return nil })

		require.NoError(t, sub.Close())
		assert.Equal(t, 1, s.SubscriberCount(PathTalents))
	})
}

func TestSubscriberFailures(t *testing.T) {
	t.Run("error is reported and remaining callbacks run", func(t *testing.T) {
		s, reported := setupTestStore(t)
		rec := &recorder{}
		boom := fmt.Errorf("render failed")

		s.Subscribe(PathProjects, func(any, any) error { return boom })
		s.Subscribe(PathProjects, rec.fn("after"))

		err := Set(s, Projects, []Project{})
		require.NoError(t, err, "callback failures never reach the caller")

		assert.Equal(t, []string{"after"}, rec.names())
		require.Len(t, *reported, 1)

		var cbErr *SubscriberCallbackError
		require.True(t, errors.As((*reported)[0], &cbErr))
		assert.Equal(t, PathProjects, cbErr.Key)
		assert.ErrorIs(t, (*reported)[0], boom)
	})

	t.Run("panic is recovered and reported", func(t *testing.T) {
		s, reported := setupTestStore(t)
		rec := &recorder{}

		s.Subscribe("ui.currentPage", func(any, any) error { panic("nil widget") })
		s.Subscribe("ui.currentPage", rec.fn("after"))
		s.Subscribe(PathUI, rec.fn("ui"))

		require.NotPanics(t, func() {
			require.NoError(t, Set(s, UICurrentPage, "x"))
		})

		assert.Equal(t, []string{"after", "ui"}, rec.names())
		require.Len(t, *reported, 1)

		var cbErr *SubscriberCallbackError
		require.True(t, errors.As((*reported)[0], &cbErr))
		assert.Equal(t, "nil widget", cbErr.Panic)
		assert.Contains(t, cbErr.Error(), "panicked")
	})
}

func TestCallbackMayUseStore(t *testing.T) {
	s, _ := setupTestStore(t)

	s.Subscribe("ui.selectedProject", func(newValue, _ any) error {
		if newValue.(string) != "" {
			return Set(s, UICurrentPage, "project")
		}
		return nil
	})

	require.NoError(t, Set(s, UISelectedProject, "p-1"))

	page, _ := Get(s, UICurrentPage)
	assert.Equal(t, "project", page)
}

func TestConcurrentAccess(t *testing.T) {
	s, _ := setupTestStore(t)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sub := s.Subscribe(PathUI, func(any, any) error { return nil })
			_ = Set(s, UICurrentPage, fmt.Sprintf("page-%d", i))
			_, _ = Get(s, UICurrentPage)
			_ = sub.Close()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, s.SubscriberCount(PathUI))
}

func TestConcurrentContainerSet(t *testing.T) {
	s, errs := setupTestStore(t)
	filtersPath := Path("ui.filters")

	var delivered atomic.Int64
	sub := s.Subscribe(filtersPath, func(newValue, _ any) error {
		m, ok := newValue.(map[string]any)
		if !ok {
			return fmt.Errorf("unexpected filters value %T", newValue)
		}
		for k := range m {
			m[k] = "seen"
		}
		delivered.Add(1)
		return nil
	})
	defer sub.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			filters := map[string]any{"area": "", "status": ""}
			for j := 0; j < 20; j++ {
				filters[fmt.Sprintf("extra-%d", j)] = j
			}
			assert.NoError(t, s.Set(filtersPath, filters))
		}(i)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, Set(s, UIFilterArea, fmt.Sprintf("area-%d", i)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(50), delivered.Load())
	assert.Empty(t, *errs)

	area, ok := Get(s, UIFilterArea)
	require.True(t, ok)
	assert.NotEqual(t, "seen", area)
}
