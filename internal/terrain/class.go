// Package terrain holds the corner lattice that backs an autotiled cell grid.
package terrain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTooFewClasses  = errors.New("terrain: a class set needs at least two classes")
	ErrDuplicateClass = errors.New("terrain: duplicate class name")
	ErrUnknownClass   = errors.New("terrain: unknown class")
)

// Class is a terrain classification stored at a grid corner.
// Codes follow the Tiled wang color convention: colors are numbered from 1
// and 0 means "no class".
type Class int

// None is the code of an unlabelled corner slot.
const None Class = 0

// ClassSet is the closed set of classes a catalog and a grid agree on.
type ClassSet struct {
	names  []string // names[c-1] is the name of class c
	byName map[string]Class
	def    Class
}

// NewClassSet creates a class set with codes 1..len(names) in the given order.
// defaultName picks the class unassigned corners start with; empty means the
// first class.
func NewClassSet(names []string, defaultName string) (*ClassSet, error) {
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewClasses, len(names))
	}

	s := &ClassSet{
		names:  make([]string, 0, len(names)),
		byName: make(map[string]Class, len(names)),
	}
	for i, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return nil, fmt.Errorf("terrain: class %d has an empty name", i+1)
		}
		if _, exists := s.byName[key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateClass, name)
		}
		s.names = append(s.names, strings.TrimSpace(name))
		s.byName[key] = Class(i + 1)
	}

	s.def = Class(1)
	if defaultName != "" {
		c, ok := s.ByName(defaultName)
		if !ok {
			return nil, fmt.Errorf("%w: default class %q", ErrUnknownClass, defaultName)
		}
		s.def = c
	}

	return s, nil
}

// Len returns the number of classes in the set.
func (s *ClassSet) Len() int {
	return len(s.names)
}

// Valid reports whether c belongs to the set.
func (s *ClassSet) Valid(c Class) bool {
	return c >= 1 && int(c) <= len(s.names)
}

// Default returns the class assigned to corners nobody has painted.
func (s *ClassSet) Default() Class {
	return s.def
}

// Name returns the display name of c, or "none"/"class(N)" for codes outside the set.
func (s *ClassSet) Name(c Class) string {
	if s.Valid(c) {
		return s.names[c-1]
	}
	if c == None {
		return "none"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// ByName looks a class up by name, ignoring case.
func (s *ClassSet) ByName(name string) (Class, bool) {
	c, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Classes returns every class in code order.
func (s *ClassSet) Classes() []Class {
	classes := make([]Class, len(s.names))
	for i := range s.names {
		classes[i] = Class(i + 1)
	}
	return classes
}

// Names returns class names in code order.
func (s *ClassSet) Names() []string {
	return append([]string(nil), s.names...)
}
