package policy

import (
	"strings"

	"github.com/diabetecam/diabetecam/gate"
)

type MenuItem struct {
	Page   gate.Page
	Label  string
	Path   string
	Active bool
}

// Menu lists the pages s may open in navigation order, marking the one
// serving currentPath. An empty result means nothing is available.
func Menu(s gate.Subject, currentPath string) []MenuItem {
	pages := gate.VisiblePages(s)
	items := make([]MenuItem, 0, len(pages))
	for _, p := range pages {
		path := p.Path()
		items = append(items, MenuItem{
			Page:   p,
			Label:  p.Label(),
			Path:   path,
			Active: currentPath == path || strings.HasPrefix(currentPath, path+"/"),
		})
	}
	return items
}

// Landing is the path "/" redirects to: the first visible page. It returns
// gate.ErrNoPages when the menu is empty.
func Landing(s gate.Subject) (string, error) {
	pages, err := gate.Menu(s)
	if err != nil {
		return "", err
	}
	return pages[0].Path(), nil
}
