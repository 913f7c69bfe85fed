// Package algo has ranking and spread statistics over commit counts.
package algo

import (
	"math"
	"sort"
)

// KeyCount is one entry of a ranked count map.
type KeyCount struct {
	Key   int
	Count int
}

// RankCounts sorts the entries of counts by count in descending order, breaking
// ties by ascending key, and returns the top 'limit' entries. A limit of 0 or less
// returns every entry.
func RankCounts(counts map[int]int, limit int) []KeyCount {
	ranked := make([]KeyCount, 0, len(counts))
	for k, c := range counts {
		ranked = append(ranked, KeyCount{Key: k, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Key < ranked[j].Key
	})
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

// Total sums every count.
func Total(counts map[int]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

// PopulationStdDev is the standard deviation of the counts, dividing by N.
func PopulationStdDev(counts map[int]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	mean := float64(Total(counts)) / float64(len(counts))
	var sq float64
	for _, c := range counts {
		d := float64(c) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(counts)))
}

// CoefficientOfVariation is the standard deviation over the mean, or 0 when the mean is 0.
func CoefficientOfVariation(counts map[int]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	mean := float64(Total(counts)) / float64(len(counts))
	if mean == 0 {
		return 0
	}
	return PopulationStdDev(counts) / mean
}

// ShannonEntropy is the entropy in nats of the distribution the counts describe.
func ShannonEntropy(counts map[int]int) float64 {
	total := Total(counts)
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c > 0 {
			p := float64(c) / float64(total)
			h -= p * math.Log(p)
		}
	}
	return h
}
