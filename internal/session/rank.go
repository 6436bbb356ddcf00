package session

import (
	"sort"

	"github.com/user/crowquill/internal/types"
)

// PopularityScore weighs a candidate's engagement counters. Reposts
// carry the most weight, views the least.
func PopularityScore(item *types.CandidateItem) float64 {
	return float64(item.Likes)*2.5 +
		float64(item.Reposts)*3.0 +
		float64(item.Replies)*1.2 +
		float64(item.Views)*0.001
}

// Rank returns the candidates ordered by popularity score descending.
// The input slice is not modified.
func Rank(items []*types.CandidateItem) []*types.CandidateItem {
	ranked := append([]*types.CandidateItem(nil), items...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return PopularityScore(ranked[i]) > PopularityScore(ranked[j])
	})
	return ranked
}
