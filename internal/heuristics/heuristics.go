// Package heuristics derives cosmetic display attributes from stored
// catbot fields. Nothing here performs I/O or fails.
package heuristics

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xaenox/micatbot/internal/random"
)

const (
	trendingFloor    = 100
	trendingQuantile = 0.2
	newWindowDays    = 7
)

// ActivityStatus describes how recently a catbot was active.
func ActivityStatus(lastActiveAt time.Time) string {
	return ActivityStatusAt(time.Now(), lastActiveAt)
}

// ActivityStatusAt is ActivityStatus evaluated at now. lastActiveAt must
// not be after now.
func ActivityStatusAt(now, lastActiveAt time.Time) string {
	minutes := int64(now.Sub(lastActiveAt) / time.Minute)
	switch {
	case minutes < 5:
		return "Active now"
	case minutes < 60:
		return fmt.Sprintf("Active %dm ago", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("Active %dh ago", minutes/60)
	default:
		return humanize.RelTime(lastActiveAt, now, "ago", "from now")
	}
}

// IsTrending reports whether interactionCount sits in the top quintile of
// allCounts and clears the absolute floor of 100 interactions.
func IsTrending(interactionCount int64, allCounts []int64) bool {
	if len(allCounts) == 0 {
		return false
	}
	sorted := make([]int64, len(allCounts))
	for i, c := range allCounts {
		sorted[i] = clamp(c)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	var threshold int64
	if idx := int(float64(len(sorted)) * trendingQuantile); idx < len(sorted) {
		threshold = sorted[idx]
	}
	count := clamp(interactionCount)
	return count >= threshold && count > trendingFloor
}

// IsNew reports whether the catbot was created within the last week.
func IsNew(createdAt time.Time) bool {
	return IsNewAt(time.Now(), createdAt)
}

func IsNewAt(now, createdAt time.Time) bool {
	days := int64(now.Sub(createdAt) / (24 * time.Hour))
	return days <= newWindowDays
}

// RandomOnlineCount is a cosmetic "people chatting now" number in [2, 15].
func RandomOnlineCount(src random.Source) int {
	return random.Between(src, 2, 15)
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
