package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/phleb-loss-tracker/internal/domain"
)

// OtherCategory holds orderables without a category.
const OtherCategory = "Other"

// Group is one category of the panel picker.
type Group struct {
	Category string             `json:"category"`
	Items    []domain.Orderable `json:"items"`
}

// GroupOrderables buckets orderables by category and sorts each bucket by
// label. Categories named in order come first in that order; the rest follow
// in order of first appearance. Empty categories are omitted.
func GroupOrderables(orderables []domain.Orderable, order []string) []Group {
	buckets := map[string][]domain.Orderable{}
	var seen []string
	for _, o := range orderables {
		cat := o.Category
		if cat == "" {
			cat = OtherCategory
		}
		if _, ok := buckets[cat]; !ok {
			seen = append(seen, cat)
		}
		buckets[cat] = append(buckets[cat], o)
	}

	col := collate.New(language.English)
	for _, items := range buckets {
		sort.SliceStable(items, func(i, j int) bool {
			return col.CompareString(items[i].Label, items[j].Label) < 0
		})
	}

	groups := make([]Group, 0, len(buckets))
	placed := map[string]bool{}
	for _, cat := range order {
		items, ok := buckets[cat]
		if !ok || placed[cat] {
			continue
		}
		placed[cat] = true
		groups = append(groups, Group{Category: cat, Items: items})
	}
	for _, cat := range seen {
		if placed[cat] {
			continue
		}
		groups = append(groups, Group{Category: cat, Items: buckets[cat]})
	}
	return groups
}
