package pick

import (
	"fmt"
	"sync"

	"github.com/chazu/molview/pkg/structure"
)

// Selection is an insertion-ordered set of atom indices. It is safe for
// concurrent use.
type Selection struct {
	mu      sync.RWMutex
	order   []int
	present map[int]bool
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{present: make(map[int]bool)}
}

// Toggle removes i if present, otherwise appends it. It reports whether i
// is selected afterwards.
func (s *Selection) Toggle(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.present[i] {
		delete(s.present, i)
		for k, v := range s.order {
			if v == i {
				s.order = append(s.order[:k], s.order[k+1:]...)
				break
			}
		}
		return false
	}
	if s.present == nil {
		s.present = make(map[int]bool)
	}
	s.present[i] = true
	s.order = append(s.order, i)
	return true
}

// Contains reports whether atom i is selected.
func (s *Selection) Contains(i int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.present[i]
}

// Indices returns the selected atoms in the order they were selected.
func (s *Selection) Indices() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of selected atoms.
func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.present = make(map[int]bool)
}

// Lines renders one line per selected atom of st, e.g.
// "Type: O, Position: (0.00, 0.00, 0.00)". Indices outside st are skipped.
func (s *Selection) Lines(st *structure.Structure) []string {
	idx := s.Indices()
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		if !st.Valid(i) {
			continue
		}
		out = append(out, Line(st.Atom(i)))
	}
	return out
}

// Line formats a single atom for the host's selection list.
func Line(a structure.Atom) string {
	p := a.Position
	return fmt.Sprintf("Type: %s, Position: (%.2f, %.2f, %.2f)", a.Symbol, p.X, p.Y, p.Z)
}
