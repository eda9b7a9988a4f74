package app

import (
	"sort"

	"github.com/hession/memhub/internal/api"
)

// ComputeTagStats counts, for every tag, how many memories carry it. Repeated
// tags within one memory count once and empty tags are ignored. The result is
// sorted by count, descending; ties keep the order in which tags were first seen.
func ComputeTagStats(memories []api.Memory) []TagStat {
	index := make(map[string]int)
	stats := []TagStat{}

	for _, m := range memories {
		seen := make(map[string]bool, len(m.Tags))
		for _, tag := range m.Tags {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true

			if i, ok := index[tag]; ok {
				stats[i].Value++
				continue
			}
			index[tag] = len(stats)
			stats = append(stats, TagStat{Name: tag, Value: 1})
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Value > stats[j].Value
	})
	return stats
}
