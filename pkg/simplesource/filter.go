package simplesource

import (
	"strings"

	"github.com/google/uuid"
)

// Filter returns the sources visible under the given category filter and
// free-text query, preserving list order. Category matching is exact, with
// CategoryAll (or empty) matching everything. The query matches
// case-insensitively as a substring of the name, the description, or any tag;
// an empty query matches everything.
//
// Filter is a pure derivation: it never mutates its input and has no effect
// on selection state.
func Filter(sources []*Source, category Category, query string) []*Source {
	q := strings.ToLower(strings.TrimSpace(query))

	var result []*Source
	for _, s := range sources {
		if category != "" && category != CategoryAll && s.Category != category {
			continue
		}
		if q != "" && !matchesQuery(s, q) {
			continue
		}
		result = append(result, s)
	}
	return result
}

func matchesQuery(s *Source, q string) bool {
	if strings.Contains(strings.ToLower(s.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(s.Description), q) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Selection tracks the single-selected source (inspector pane) and the
// multi-selected set (batch send) over a source list. The two are independent:
// changing one never touches the other, and filtering a selected record out of
// view never deselects it. Selection is not safe for concurrent use; it
// belongs to a single UI session.
type Selection struct {
	current uuid.UUID
	hasCur  bool
	ids     map[uuid.UUID]struct{}
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[uuid.UUID]struct{})}
}

// SetCurrent sets the single-selected source.
func (sel *Selection) SetCurrent(id uuid.UUID) {
	sel.current = id
	sel.hasCur = true
}

// ClearCurrent clears the single selection.
func (sel *Selection) ClearCurrent() {
	sel.current = uuid.UUID{}
	sel.hasCur = false
}

// Current returns the single-selected id, if any.
func (sel *Selection) Current() (uuid.UUID, bool) {
	return sel.current, sel.hasCur
}

// Toggle flips a source in or out of the multi-selected set.
func (sel *Selection) Toggle(id uuid.UUID) {
	if _, ok := sel.ids[id]; ok {
		delete(sel.ids, id)
		return
	}
	sel.ids[id] = struct{}{}
}

// IsSelected reports whether a source is in the multi-selected set.
func (sel *Selection) IsSelected(id uuid.UUID) bool {
	_, ok := sel.ids[id]
	return ok
}

// Count returns the size of the multi-selected set.
func (sel *Selection) Count() int {
	return len(sel.ids)
}

// Prune drops selected ids whose record is no longer in the source list.
// Called after every deletion so the selection never references a dead record.
func (sel *Selection) Prune(sources []*Source) {
	live := make(map[uuid.UUID]struct{}, len(sources))
	for _, s := range sources {
		live[s.ID] = struct{}{}
	}
	for id := range sel.ids {
		if _, ok := live[id]; !ok {
			delete(sel.ids, id)
		}
	}
	if sel.hasCur {
		if _, ok := live[sel.current]; !ok {
			sel.ClearCurrent()
		}
	}
}

// Targets returns the records to include in a batch send, in list order: the
// multi-selected set, or the single-selected record when the set is empty.
func (sel *Selection) Targets(sources []*Source) []*Source {
	var targets []*Source
	if len(sel.ids) > 0 {
		for _, s := range sources {
			if _, ok := sel.ids[s.ID]; ok {
				targets = append(targets, s)
			}
		}
		return targets
	}
	if sel.hasCur {
		for _, s := range sources {
			if s.ID == sel.current {
				return []*Source{s}
			}
		}
	}
	return nil
}
