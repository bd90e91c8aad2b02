package domain

import "time"

const (
	AllCategories = "all"

	KindBot     = "bot"
	KindProject = "project"

	PageHome   = "home"
	PageBrowse = "browse"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) Terminal() bool {
	return s == ReviewApproved || s == ReviewRejected
}

type Item struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CategoryID    string    `json:"category_id"`
	Tags          []string  `json:"tags"`
	Likes         int       `json:"likes"`
	Downloads     int       `json:"downloads"`
	Views         int       `json:"views"`
	Rating        float64   `json:"rating"`
	Featured      bool      `json:"featured"`
	DownloadURL   string    `json:"download_url,omitempty"`
	SourceURL     string    `json:"source_url,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	Difficulty    string    `json:"difficulty,omitempty"`
	EstimatedTime string    `json:"estimated_time,omitempty"`
	Files         []File    `json:"files,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type File struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	Version    string    `json:"version"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Review struct {
	ID        string       `json:"id"`
	ItemID    string       `json:"item_id"`
	Author    string       `json:"author"`
	Email     string       `json:"email,omitempty"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	Status    ReviewStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	ItemCount   int    `json:"item_count"`
}

type Selection struct {
	Search      string `json:"search"`
	CategoryID  string `json:"category_id"`
	Page        string `json:"page"`
	Admin       bool   `json:"admin"`
	AdminClicks int    `json:"admin_clicks"`
}

// Snapshot is the complete catalog state at one point in time. A published
// snapshot is never modified; transitions build a new one.
type Snapshot struct {
	Items      []Item     `json:"items"`
	Reviews    []Review   `json:"reviews"`
	Categories []Category `json:"categories"`
	Selection  Selection  `json:"selection"`
}

func NewSelection() Selection {
	return Selection{CategoryID: AllCategories, Page: PageHome}
}

func (s Snapshot) FindItem(id string) (Item, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

func (s Snapshot) FindReview(id string) (Review, bool) {
	for _, review := range s.Reviews {
		if review.ID == id {
			return review, true
		}
	}
	return Review{}, false
}

// ReviewsFor returns reviews in insertion order. Empty itemID or status
// matches any.
func (s Snapshot) ReviewsFor(itemID string, status ReviewStatus) []Review {
	out := make([]Review, 0)
	for _, review := range s.Reviews {
		if itemID != "" && review.ItemID != itemID {
			continue
		}
		if status != "" && review.Status != status {
			continue
		}
		out = append(out, review)
	}
	return out
}

type ActivityKind string

const (
	ActivityItemAdded       ActivityKind = "item_added"
	ActivityReviewSubmitted ActivityKind = "review_submitted"
)

type Activity struct {
	Kind        ActivityKind `json:"kind"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
}

type CategoryStat struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	ItemCount  int    `json:"item_count"`
	Downloads  int    `json:"downloads"`
}

type AdminStats struct {
	TotalItems       int            `json:"total_items"`
	TotalDownloads   int            `json:"total_downloads"`
	TotalLikes       int            `json:"total_likes"`
	TotalViews       int            `json:"total_views"`
	TotalReviews     int            `json:"total_reviews"`
	PendingReviews   int            `json:"pending_reviews"`
	AverageDownloads float64        `json:"average_downloads"`
	AverageRating    float64        `json:"average_rating"`
	Categories       []CategoryStat `json:"categories"`
	RecentActivity   []Activity     `json:"recent_activity"`
}

type AuditLog struct {
	ID        uint      `json:"id"`
	Action    string    `json:"action"`
	TargetID  string    `json:"target_id"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
