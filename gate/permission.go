package gate

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// PermissionSet is the set of pages a user may open.
// Membership is exact: there are no wildcards or hierarchies.
type PermissionSet map[Page]struct{}

// NewPermissionSet builds a set from pages.
func NewPermissionSet(pp ...Page) PermissionSet {
	s := make(PermissionSet, len(pp))
	for _, p := range pp {
		s[p] = struct{}{}
	}
	return s
}

// ParsePermissions reads a comma-separated list of canonical names.
// Unknown names are rejected.
func ParsePermissions(raw string) (PermissionSet, error) {
	s := PermissionSet{}
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		p := Page(name)
		if !p.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPage, name)
		}
		s[p] = struct{}{}
	}
	return s, nil
}

// Has reports whether p is in the set.
func (s PermissionSet) Has(p Page) bool {
	_, ok := s[p]
	return ok
}

// HasName tests a raw permission name. Names outside the page set are never members.
func (s PermissionSet) HasName(name string) bool {
	return s.Has(Page(name))
}

// Pages returns the members in master order.
func (s PermissionSet) Pages() []Page {
	out := make([]Page, 0, len(s))
	for _, p := range AllPages {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Names returns canonical names in master order.
func (s PermissionSet) Names() []string {
	pp := s.Pages()
	out := make([]string, len(pp))
	for i, p := range pp {
		out[i] = string(p)
	}
	return out
}

func (s PermissionSet) String() string { return strings.Join(s.Names(), ",") }

// Value stores the set as comma-joined canonical names.
func (s PermissionSet) Value() (driver.Value, error) {
	return s.String(), nil
}

// Scan parses the stored representation.
func (s *PermissionSet) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*s = PermissionSet{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("gate: cannot scan %T into PermissionSet", src)
	}
	parsed, err := ParsePermissions(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
