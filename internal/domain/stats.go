package domain

import (
	"fmt"
	"sort"
)

const (
	recentPerSource   = 3
	recentActivityMax = 5
)

// ComputeAdminStats derives the admin dashboard aggregates from a snapshot.
// Per-item averages are zero for an empty catalog.
func ComputeAdminStats(s Snapshot) AdminStats {
	stats := AdminStats{
		TotalItems:   len(s.Items),
		TotalReviews: len(s.Reviews),
	}

	ratingSum := 0.0
	for _, item := range s.Items {
		stats.TotalDownloads += item.Downloads
		stats.TotalLikes += item.Likes
		stats.TotalViews += item.Views
		ratingSum += item.Rating
	}
	for _, review := range s.Reviews {
		if review.Status == ReviewPending {
			stats.PendingReviews++
		}
	}
	if stats.TotalItems > 0 {
		stats.AverageDownloads = float64(stats.TotalDownloads) / float64(stats.TotalItems)
		stats.AverageRating = RoundRating(ratingSum / float64(stats.TotalItems))
	}

	stats.Categories = make([]CategoryStat, 0, len(s.Categories))
	for _, category := range s.Categories {
		stat := CategoryStat{CategoryID: category.ID, Name: category.Name}
		for _, item := range s.Items {
			if item.CategoryID == category.ID {
				stat.ItemCount++
				stat.Downloads += item.Downloads
			}
		}
		stats.Categories = append(stats.Categories, stat)
	}

	stats.RecentActivity = recentActivity(s)
	return stats
}

func recentActivity(s Snapshot) []Activity {
	items := append([]Item(nil), s.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	reviews := append([]Review(nil), s.Reviews...)
	sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })

	out := make([]Activity, 0, 2*recentPerSource)
	for _, item := range items[:min(recentPerSource, len(items))] {
		out = append(out, Activity{
			Kind:        ActivityItemAdded,
			Description: fmt.Sprintf("New %s %q added", itemNoun(item.Kind), item.Name),
			Timestamp:   item.CreatedAt,
		})
	}
	for _, review := range reviews[:min(recentPerSource, len(reviews))] {
		out = append(out, Activity{
			Kind:        ActivityReviewSubmitted,
			Description: fmt.Sprintf("New review submitted by %s", review.Author),
			Timestamp:   review.CreatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > recentActivityMax {
		out = out[:recentActivityMax]
	}
	return out
}

func itemNoun(kind string) string {
	switch kind {
	case KindBot:
		return "bot"
	case KindProject:
		return "project"
	default:
		return "item"
	}
}
