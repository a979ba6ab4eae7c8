package gate

// StaticSubject is a fixed in-memory subject.
// Useful for testing or for the single-user mode where nobody logs in.
type StaticSubject struct {
	LoggedIn bool
	Perms    PermissionSet
}

// NewStaticSubject creates a logged-in subject holding pages.
func NewStaticSubject(pp ...Page) *StaticSubject {
	return &StaticSubject{LoggedIn: true, Perms: NewPermissionSet(pp...)}
}

func (s *StaticSubject) IsLoggedIn() bool { return s.LoggedIn }

func (s *StaticSubject) Permissions() PermissionSet {
	if s.Perms == nil {
		return PermissionSet{}
	}
	return s.Perms
}
