package sqlite

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

const selectionRowID = 1

type CatalogRepository struct {
	db *gorm.DB
}

func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{})
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// LoadSnapshot reports found=false when nothing has been saved yet.
func (r *CatalogRepository) LoadSnapshot(ctx context.Context) (domain.Snapshot, bool, error) {
	db := r.db.WithContext(ctx)

	var sel SelectionModel
	res := db.Where("id = ?", selectionRowID).Limit(1).Find(&sel)
	if res.Error != nil {
		return domain.Snapshot{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Snapshot{}, false, nil
	}

	categories := make([]CategoryModel, 0)
	if err := db.Order("position").Find(&categories).Error; err != nil {
		return domain.Snapshot{}, false, err
	}
	items := make([]ItemModel, 0)
	if err := db.Order("position").Find(&items).Error; err != nil {
		return domain.Snapshot{}, false, err
	}
	files := make([]ItemFileModel, 0)
	if err := db.Order("item_id, position").Find(&files).Error; err != nil {
		return domain.Snapshot{}, false, err
	}
	reviews := make([]ReviewModel, 0)
	if err := db.Order("position").Find(&reviews).Error; err != nil {
		return domain.Snapshot{}, false, err
	}

	filesByItem := make(map[string][]domain.File, len(items))
	for _, f := range files {
		filesByItem[f.ItemID] = append(filesByItem[f.ItemID], domain.File{
			ID:         f.ID,
			Name:       f.Name,
			Size:       f.Size,
			Type:       f.Type,
			Version:    f.Version,
			UploadedAt: f.UploadedAt,
		})
	}

	snap := domain.Snapshot{
		Items:      make([]domain.Item, 0, len(items)),
		Reviews:    make([]domain.Review, 0, len(reviews)),
		Categories: make([]domain.Category, 0, len(categories)),
		Selection: domain.Selection{
			Search:      sel.Search,
			CategoryID:  sel.CategoryID,
			Page:        sel.Page,
			Admin:       sel.Admin,
			AdminClicks: sel.AdminClicks,
		},
	}
	for _, m := range categories {
		snap.Categories = append(snap.Categories, domain.Category{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Icon:        m.Icon,
			Color:       m.Color,
			ItemCount:   m.ItemCount,
		})
	}
	for _, m := range items {
		snap.Items = append(snap.Items, domain.Item{
			ID:            m.ID,
			Kind:          m.Kind,
			Name:          m.Name,
			Description:   m.Description,
			CategoryID:    m.CategoryID,
			Tags:          m.Tags,
			Likes:         m.Likes,
			Downloads:     m.Downloads,
			Views:         m.Views,
			Rating:        m.Rating,
			Featured:      m.Featured,
			DownloadURL:   m.DownloadURL,
			SourceURL:     m.SourceURL,
			ImageURL:      m.ImageURL,
			Difficulty:    m.Difficulty,
			EstimatedTime: m.EstimatedTime,
			Files:         filesByItem[m.ID],
			CreatedAt:     m.CreatedAt,
			UpdatedAt:     m.UpdatedAt,
		})
	}
	for _, m := range reviews {
		snap.Reviews = append(snap.Reviews, domain.Review{
			ID:        m.ID,
			ItemID:    m.ItemID,
			Author:    m.Author,
			Email:     m.Email,
			Rating:    m.Rating,
			Comment:   m.Comment,
			Status:    domain.ReviewStatus(m.Status),
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		})
	}
	return snap, true, nil
}

// SaveSnapshot replaces the stored snapshot in one transaction.
func (r *CatalogRepository) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&ItemFileModel{}, &ReviewModel{}, &ItemModel{}, &CategoryModel{}, &SelectionModel{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}

		categories := make([]CategoryModel, 0, len(snap.Categories))
		for i, c := range snap.Categories {
			categories = append(categories, CategoryModel{
				ID:          c.ID,
				Position:    i,
				Name:        c.Name,
				Description: c.Description,
				Icon:        c.Icon,
				Color:       c.Color,
				ItemCount:   c.ItemCount,
			})
		}
		items := make([]ItemModel, 0, len(snap.Items))
		files := make([]ItemFileModel, 0)
		for i, it := range snap.Items {
			items = append(items, ItemModel{
				ID:            it.ID,
				Position:      i,
				Kind:          it.Kind,
				Name:          it.Name,
				Description:   it.Description,
				CategoryID:    it.CategoryID,
				Tags:          it.Tags,
				Likes:         it.Likes,
				Downloads:     it.Downloads,
				Views:         it.Views,
				Rating:        it.Rating,
				Featured:      it.Featured,
				DownloadURL:   it.DownloadURL,
				SourceURL:     it.SourceURL,
				ImageURL:      it.ImageURL,
				Difficulty:    it.Difficulty,
				EstimatedTime: it.EstimatedTime,
				CreatedAt:     it.CreatedAt,
				UpdatedAt:     it.UpdatedAt,
			})
			for j, f := range it.Files {
				files = append(files, ItemFileModel{
					ID:         f.ID,
					ItemID:     it.ID,
					Position:   j,
					Name:       f.Name,
					Size:       f.Size,
					Type:       f.Type,
					Version:    f.Version,
					UploadedAt: f.UploadedAt,
				})
			}
		}
		reviews := make([]ReviewModel, 0, len(snap.Reviews))
		for i, rv := range snap.Reviews {
			reviews = append(reviews, ReviewModel{
				ID:        rv.ID,
				Position:  i,
				ItemID:    rv.ItemID,
				Author:    rv.Author,
				Email:     rv.Email,
				Rating:    rv.Rating,
				Comment:   rv.Comment,
				Status:    string(rv.Status),
				CreatedAt: rv.CreatedAt,
				UpdatedAt: rv.UpdatedAt,
			})
		}

		if err := createAll(tx, categories); err != nil {
			return err
		}
		if err := createAll(tx, items); err != nil {
			return err
		}
		if err := createAll(tx, files); err != nil {
			return err
		}
		if err := createAll(tx, reviews); err != nil {
			return err
		}

		sel := SelectionModel{
			ID:          selectionRowID,
			Search:      snap.Selection.Search,
			CategoryID:  snap.Selection.CategoryID,
			Page:        snap.Selection.Page,
			Admin:       snap.Selection.Admin,
			AdminClicks: snap.Selection.AdminClicks,
		}
		return tx.Create(&sel).Error
	})
}

func createAll[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(rows, 200).Error; err != nil {
		var zero T
		return fmt.Errorf("insert %T: %w", zero, err)
	}
	return nil
}

func (r *CatalogRepository) CreateAuditLog(ctx context.Context, value domain.AuditLog) error {
	m := AuditLogModel{Action: value.Action, TargetID: value.TargetID, Metadata: value.Metadata}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *CatalogRepository) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	rows := make([]AuditLogModel, 0)
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AuditLog, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.AuditLog{
			ID:        m.ID,
			Action:    m.Action,
			TargetID:  m.TargetID,
			Metadata:  m.Metadata,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}
