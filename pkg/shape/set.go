package shape

// Def is a named definition that Ref shapes point at. Schema $defs and
// typed-source declarations become Defs.
type Def struct {
	Key   string // unique within a Shapes set, e.g. "User#/$defs/Address"
	Name  string // display name, e.g. "Address"
	Shape *Shape // nil until the definition has been parsed
}

// Shapes maps logical names to their per-sample shapes and carries the named
// definitions those shapes reference.
type Shapes struct {
	names []string
	roots map[string][]*Shape
	kinds map[string]string

	Defs map[string]*Def
}

// NewShapes creates an empty set.
func NewShapes() *Shapes {
	return &Shapes{
		roots: make(map[string][]*Shape),
		kinds: make(map[string]string),
		Defs:  make(map[string]*Def),
	}
}

// Add appends an observation for name. kind records the sample kind the shape
// came from so callers can reject mixed or repeated non-JSON names.
func (s *Shapes) Add(name, kind string, sh *Shape) {
	if _, ok := s.roots[name]; !ok {
		s.names = append(s.names, name)
		s.kinds[name] = kind
	}
	s.roots[name] = append(s.roots[name], sh)
}

// Has reports whether name has at least one observation.
func (s *Shapes) Has(name string) bool {
	_, ok := s.roots[name]
	return ok
}

// KindOf returns the sample kind recorded for name.
func (s *Shapes) KindOf(name string) string {
	return s.kinds[name]
}

// Names returns logical names in first-seen order.
func (s *Shapes) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Get returns the observations for name in insertion order.
func (s *Shapes) Get(name string) []*Shape {
	return s.roots[name]
}

// Define registers a definition. An existing key is returned unchanged.
func (s *Shapes) Define(key, name string) *Def {
	if d, ok := s.Defs[key]; ok {
		return d
	}
	d := &Def{Key: key, Name: name}
	s.Defs[key] = d
	return d
}

// Len returns the number of logical names.
func (s *Shapes) Len() int {
	return len(s.names)
}
