package calc

import "github.com/phleb-loss-tracker/internal/domain"

// Expand converts selected orderable ids into tube entries. Unknown ids are
// skipped, repeated ids count once and counts for a shared tube are summed.
// Entries come out in order of each tube's first appearance.
func Expand(selected []string, orderables []domain.Orderable) []domain.TubeEntry {
	byID := make(map[string]domain.Orderable, len(orderables))
	for _, o := range orderables {
		byID[o.ID] = o
	}

	seen := make(map[string]struct{}, len(selected))
	index := make(map[string]int)
	entries := make([]domain.TubeEntry, 0)

	for _, id := range selected {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		ord, ok := byID[id]
		if !ok {
			continue
		}
		for _, req := range ord.Requirements {
			i, ok := index[req.TubeID]
			if !ok {
				i = len(entries)
				index[req.TubeID] = i
				entries = append(entries, domain.TubeEntry{TubeID: req.TubeID})
			}
			entries[i].Count += req.Count.Float()
		}
	}

	return entries
}
