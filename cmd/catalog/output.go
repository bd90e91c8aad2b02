package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

var stdout io.Writer = os.Stdout

var (
	featured = color.New(color.FgYellow, color.Bold)
	pending  = color.New(color.FgCyan)
	success  = color.New(color.FgGreen)
)

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(b))
	return err
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(stdout, "no results")
		return
	}
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func printSuccess(format string, a ...any) {
	_, _ = success.Fprintf(stdout, format+"\n", a...)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// The marker sits in the last column so colour codes do not skew alignment.
func printItems(items []domain.Item) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		marker := ""
		if item.Featured {
			marker = featured.Sprint("*")
		}
		rows = append(rows, []string{
			item.ID,
			item.Name,
			item.CategoryID,
			strconv.Itoa(item.Likes),
			strconv.Itoa(item.Downloads),
			formatRating(item.Rating),
			marker,
		})
	}
	printTable([]string{"ID", "NAME", "CATEGORY", "LIKES", "DOWNLOADS", "RATING", "FEATURED"}, rows)
}

func printItem(item domain.Item) {
	printKV([][2]string{
		{"id", item.ID},
		{"name", item.Name},
		{"category", item.CategoryID},
		{"likes", strconv.Itoa(item.Likes)},
		{"downloads", strconv.Itoa(item.Downloads)},
		{"views", strconv.Itoa(item.Views)},
		{"rating", formatRating(item.Rating)},
	})
}

func printReviews(reviews []domain.Review) {
	rows := make([][]string, 0, len(reviews))
	for _, review := range reviews {
		status := string(review.Status)
		if review.Status == domain.ReviewPending {
			status = pending.Sprint(status)
		}
		rows = append(rows, []string{
			review.ID,
			review.ItemID,
			review.Author,
			strconv.Itoa(review.Rating),
			formatTime(review.CreatedAt),
			status,
		})
	}
	printTable([]string{"ID", "ITEM", "AUTHOR", "RATING", "CREATED_AT", "STATUS"}, rows)
}

func printReview(review domain.Review) {
	printKV([][2]string{
		{"id", review.ID},
		{"item_id", review.ItemID},
		{"author", review.Author},
		{"rating", strconv.Itoa(review.Rating)},
		{"status", string(review.Status)},
	})
}

func printStats(stats domain.AdminStats) {
	printKV([][2]string{
		{"items", strconv.Itoa(stats.TotalItems)},
		{"downloads", strconv.Itoa(stats.TotalDownloads)},
		{"likes", strconv.Itoa(stats.TotalLikes)},
		{"views", strconv.Itoa(stats.TotalViews)},
		{"reviews", strconv.Itoa(stats.TotalReviews)},
		{"pending_reviews", strconv.Itoa(stats.PendingReviews)},
		{"avg_downloads", strconv.FormatFloat(stats.AverageDownloads, 'f', 1, 64)},
		{"avg_rating", formatRating(stats.AverageRating)},
	})
	_, _ = fmt.Fprintln(stdout)
	rows := make([][]string, 0, len(stats.Categories))
	for _, c := range stats.Categories {
		rows = append(rows, []string{c.CategoryID, c.Name, strconv.Itoa(c.ItemCount), strconv.Itoa(c.Downloads)})
	}
	printTable([]string{"CATEGORY", "NAME", "ITEMS", "DOWNLOADS"}, rows)
}

func printAuditLogs(logs []domain.AuditLog) {
	rows := make([][]string, 0, len(logs))
	for _, entry := range logs {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(entry.ID), 10),
			entry.Action,
			entry.TargetID,
			formatTime(entry.CreatedAt),
		})
	}
	printTable([]string{"ID", "ACTION", "TARGET", "AT"}, rows)
}
