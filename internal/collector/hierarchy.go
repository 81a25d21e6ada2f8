package collector

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitetree/internal/ordering"
)

// buildHierarchy turns a flat, comparator-ordered slice of sections into a
// tree: ids without a dot are top-level, a dotted id nests under the section
// whose id equals everything before its last segment. A dangling child is
// fatal for the whole page, which surfaces as that page's error record.
func buildHierarchy(sections []*Section) ([]*Section, error) {
	byID := make(map[string]*Section, len(sections))
	for _, s := range sections {
		if _, dup := byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate section id %q", s.ID)
		}
		byID[s.ID] = s
	}

	top := make([]*Section, 0, len(sections))
	for _, s := range sections {
		dot := strings.LastIndexByte(s.ID, '.')
		if dot < 0 {
			top = append(top, s)
			continue
		}

		parentID := s.ID[:dot]
		parent, ok := byID[parentID]
		if !ok {
			return nil, fmt.Errorf("parent section %q not found for %q", parentID, s.ID)
		}
		parent.Subsections = append(parent.Subsections, s)
	}

	sortSections(top)
	for _, s := range sections {
		sortSections(s.Subsections)
	}
	return top, nil
}

func sortSections(sections []*Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return ordering.CompareIDs(sections[i].ID, sections[j].ID) < 0
	})
}
