// Package gate decides which dashboard pages a session may open.
// A subject carries a logged-in flag and a set of permitted page names;
// a page is allowed when its canonical name is in that set. The package
// has no dependencies on storage or HTTP.
package gate

// Subject is anything that can be checked against the page table,
// typically a session.
type Subject interface {
	IsLoggedIn() bool
	Permissions() PermissionSet
}

// Can reports whether s may open the page identified by pageID.
// pageID may be a decorated label, a canonical name or any other string
// (tested as-is). It is always false when s is not logged in.
func Can(s Subject, pageID string) bool {
	if s == nil || !s.IsLoggedIn() {
		return false
	}
	return s.Permissions().HasName(Canonical(pageID))
}

// Authorize is Can returning the reason for a refusal.
func Authorize(s Subject, pageID string) error {
	if s == nil || !s.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	if !s.Permissions().HasName(Canonical(pageID)) {
		return ErrAccessDenied
	}
	return nil
}

// VisiblePages filters AllPages down to what s may open, preserving order.
func VisiblePages(s Subject) []Page {
	out := make([]Page, 0, len(AllPages))
	for _, p := range AllPages {
		if Can(s, p.Label()) {
			out = append(out, p)
		}
	}
	return out
}

// Menu is VisiblePages with an explicit error for the empty case.
func Menu(s Subject) ([]Page, error) {
	pp := VisiblePages(s)
	if len(pp) == 0 {
		return nil, ErrNoPages
	}
	return pp, nil
}
