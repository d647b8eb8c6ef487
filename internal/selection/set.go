package selection

import "sort"

// Set is a collection of unique file identifiers. Members are unordered in
// storage; Snapshot returns them sorted.
type Set struct {
	members map[string]struct{}
	admit   func(id string) bool
}

// NewSet returns an empty set. When admit is non-nil, Add silently skips
// identifiers it rejects.
func NewSet(admit func(id string) bool) *Set {
	return &Set{
		members: make(map[string]struct{}),
		admit:   admit,
	}
}

// Add inserts ids and returns how many were newly admitted. Adding an
// existing member or an ineligible id is a no-op.
func (s *Set) Add(ids ...string) int {
	added := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		if s.admit != nil && !s.admit(id) {
			continue
		}
		if _, ok := s.members[id]; ok {
			continue
		}
		s.members[id] = struct{}{}
		added++
	}
	return added
}

// Restore inserts previously admitted ids without filtering them again.
// A staged file deleted since it was added stays selected and fails when
// it is read.
func (s *Set) Restore(ids ...string) {
	for _, id := range ids {
		if id != "" {
			s.members[id] = struct{}{}
		}
	}
}

// Remove deletes ids and returns how many were members.
func (s *Set) Remove(ids ...string) int {
	removed := 0
	for _, id := range ids {
		if _, ok := s.members[id]; ok {
			delete(s.members, id)
			removed++
		}
	}
	return removed
}

func (s *Set) Clear() {
	s.members = make(map[string]struct{})
}

func (s *Set) Contains(id string) bool {
	_, ok := s.members[id]
	return ok
}

func (s *Set) Len() int {
	return len(s.members)
}

// Snapshot returns the members sorted. Later changes to the set do not
// affect the returned slice.
func (s *Set) Snapshot() []string {
	out := make([]string, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
