package sqlite

import "time"

// Position columns keep declaration and insertion order across reloads.

type CategoryModel struct {
	ID          string `gorm:"primaryKey"`
	Position    int    `gorm:"not null"`
	Name        string `gorm:"not null"`
	Description string
	Icon        string
	Color       string
	ItemCount   int `gorm:"not null"`
}

func (CategoryModel) TableName() string { return "categories" }

type ItemModel struct {
	ID            string `gorm:"primaryKey"`
	Position      int    `gorm:"not null"`
	Kind          string `gorm:"not null;index"`
	Name          string `gorm:"not null"`
	Description   string
	CategoryID    string   `gorm:"not null;index"`
	Tags          []string `gorm:"serializer:json"`
	Likes         int      `gorm:"not null"`
	Downloads     int      `gorm:"not null"`
	Views         int      `gorm:"not null"`
	Rating        float64  `gorm:"not null"`
	Featured      bool     `gorm:"not null"`
	DownloadURL   string
	SourceURL     string
	ImageURL      string
	Difficulty    string
	EstimatedTime string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ItemModel) TableName() string { return "items" }

type ItemFileModel struct {
	ID         string `gorm:"primaryKey"`
	ItemID     string `gorm:"not null;index"`
	Position   int    `gorm:"not null"`
	Name       string `gorm:"not null"`
	Size       int64  `gorm:"not null"`
	Type       string
	Version    string
	UploadedAt time.Time
}

func (ItemFileModel) TableName() string { return "item_files" }

type ReviewModel struct {
	ID        string `gorm:"primaryKey"`
	Position  int    `gorm:"not null"`
	ItemID    string `gorm:"not null;index"`
	Author    string `gorm:"not null"`
	Email     string
	Rating    int    `gorm:"not null"`
	Comment   string `gorm:"not null"`
	Status    string `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ReviewModel) TableName() string { return "reviews" }

// SelectionModel is a single row holding the UI selection. Its presence marks
// a stored snapshot.
type SelectionModel struct {
	ID          uint `gorm:"primaryKey"`
	Search      string
	CategoryID  string `gorm:"not null"`
	Page        string `gorm:"not null"`
	Admin       bool   `gorm:"not null"`
	AdminClicks int    `gorm:"not null"`
	UpdatedAt   time.Time
}

func (SelectionModel) TableName() string { return "selection_state" }

type AuditLogModel struct {
	ID        uint   `gorm:"primaryKey"`
	Action    string `gorm:"not null;index"`
	TargetID  string `gorm:"index"`
	Metadata  string
	CreatedAt time.Time
}

func (AuditLogModel) TableName() string { return "audit_logs" }
