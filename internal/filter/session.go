package filter

import "github.com/KaramelBytes/carlot-cli/internal/dataset"

// Session recomputes the view of one table on each filter change. A rejected
// change leaves the previous filters and view in place. Not safe for
// concurrent use; give each consumer its own Session over a shared table.
type Session struct {
	table   *dataset.Table
	filters Filters
	view    *View
	cache   map[string]*View
	// MaxCached bounds the view cache; 0 disables caching.
	MaxCached int
}

// NewSession starts with no active filters.
func NewSession(t *dataset.Table) *Session {
	s := &Session{table: t, cache: map[string]*View{}, MaxCached: 32}
	v, _ := Apply(t, Filters{})
	s.view = v
	return s
}

// Table returns the source table.
func (s *Session) Table() *dataset.Table { return s.table }

// Filters returns the filters behind the current view.
func (s *Session) Filters() Filters { return s.filters }

// View returns the current view.
func (s *Session) View() *View { return s.view }

// Update applies f. On error the session is unchanged and the previous view
// is returned alongside the error.
func (s *Session) Update(f Filters) (*View, error) {
	key := f.Key()
	if v, ok := s.cache[key]; ok {
		s.filters, s.view = f, v
		return v, nil
	}
	v, err := Apply(s.table, f)
	if err != nil {
		return s.view, err
	}
	if s.MaxCached > 0 {
		if len(s.cache) >= s.MaxCached {
			s.cache = map[string]*View{}
		}
		s.cache[key] = v
	}
	s.filters, s.view = f, v
	return v, nil
}

// Modify derives new filters from the current ones and applies them.
func (s *Session) Modify(fn func(*Filters)) (*View, error) {
	next := s.filters
	if next.Price != nil {
		p := *next.Price
		next.Price = &p
	}
	if next.Types != nil {
		next.Types = append([]string{}, next.Types...)
	}
	fn(&next)
	return s.Update(next)
}
