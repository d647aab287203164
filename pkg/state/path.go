package state

import "strings"

// Path addresses a value in the state tree by dot-separated segments.
type Path string

// Top-level keys of the state tree.
const (
	PathTalents     Path = "talents"
	PathProjects    Path = "projects"
	PathAllocations Path = "allocations"
	PathAreas       Path = "areas"
	PathClients     Path = "clients"
	PathAuth        Path = "auth"
	PathUI          Path = "ui"
)

// Collections lists the top-level keys that hold record slices, in load order.
var Collections = []Path{PathTalents, PathProjects, PathAllocations, PathAreas, PathClients}

// topLevel is the fixed set of keys the root container accepts on Set.
var topLevel = map[string]struct{}{
	string(PathTalents):     {},
	string(PathProjects):    {},
	string(PathAllocations): {},
	string(PathAreas):       {},
	string(PathClients):     {},
	string(PathAuth):        {},
	string(PathUI):          {},
}

// Segments splits the path on dots.
func (p Path) Segments() []string {
	return strings.Split(string(p), ".")
}

// Top returns the first segment of the path.
func (p Path) Top() Path {
	top, _, _ := strings.Cut(string(p), ".")
	return Path(top)
}

// Nested reports whether the path has more than one segment.
func (p Path) Nested() bool {
	return strings.Contains(string(p), ".")
}

// Key is a typed lens onto one path of the tree.
type Key[T any] struct {
	path Path
}

// NewKey returns a typed key for path. The predeclared keys below cover the
// default tree; NewKey is for values callers add under auth or ui.
func NewKey[T any](path Path) Key[T] {
	return Key[T]{path: path}
}

// Path returns the dotted path the key resolves to.
func (k Key[T]) Path() Path {
	return k.path
}

// Typed keys for the default tree.
var (
	Talents     = NewKey[[]Talent](PathTalents)
	Projects    = NewKey[[]Project](PathProjects)
	Allocations = NewKey[[]Allocation](PathAllocations)
	Areas       = NewKey[[]Area](PathAreas)
	Clients     = NewKey[[]Client](PathClients)

	AuthUser    = NewKey[*User]("auth.user")
	AuthSession = NewKey[string]("auth.session")

	UICurrentPage     = NewKey[string]("ui.currentPage")
	UISelectedProject = NewKey[string]("ui.selectedProject")
	UISidebarOpen     = NewKey[bool]("ui.sidebarOpen")
	UIFilterArea      = NewKey[string]("ui.filters.area")
	UIFilterStatus    = NewKey[string]("ui.filters.status")
)

// Get reads the value at k. It returns false when the path is absent or
// holds a value of another type.
func Get[T any](s *Store, k Key[T]) (T, bool) {
	var zero T
	v, ok := s.Get(k.path)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set writes v at k with the same notification semantics as Store.Set.
func Set[T any](s *Store, k Key[T], v T) error {
	return s.Set(k.path, v)
}

// defaultTree builds the initial state tree.
func defaultTree() map[string]any {
	return map[string]any{
		string(PathTalents):     []Talent{},
		string(PathProjects):    []Project{},
		string(PathAllocations): []Allocation{},
		string(PathAreas):       []Area{},
		string(PathClients):     []Client{},
		string(PathAuth): map[string]any{
			"user":    (*User)(nil),
			"session": "",
		},
		string(PathUI): map[string]any{
			"currentPage":     "dashboard",
			"selectedProject": "",
			"sidebarOpen":     true,
			"filters": map[string]any{
				"area":   "",
				"status": "",
			},
		},
	}
}
