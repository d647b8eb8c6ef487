package selection

// Session pairs a browsing context with the files selected inside it.
type Session struct {
	Context string
	Set     *Set
}

func NewSession(context string, admit func(id string) bool) *Session {
	return &Session{Context: context, Set: NewSet(admit)}
}

// ChangeContext moves the session to dir. Any change of context, including
// navigating back to a parent, clears the selection. It reports whether
// the selection was cleared.
func (s *Session) ChangeContext(dir string) bool {
	if dir == s.Context {
		return false
	}
	s.Context = dir
	cleared := s.Set.Len() > 0
	s.Set.Clear()
	return cleared
}
