package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

// AdminClickThreshold is the number of gesture clicks that opens the password
// prompt.
const AdminClickThreshold = 5

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrAdminRequired      = errors.New("admin mode required")
)

type CatalogService struct {
	store             *Store
	repo              domain.CatalogRepository
	guard             IdempotencyGuard
	adminPasswordHash string
	kind              string
	logger            *zap.Logger
}

type ServiceOptions struct {
	// Kind is assigned to created items that do not carry one.
	Kind              string
	AdminPasswordHash string
	Guard             IdempotencyGuard
	Repo              domain.CatalogRepository
	Logger            *zap.Logger
}

type ItemInput struct {
	Kind          string   `json:"kind"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	CategoryID    string   `json:"category_id"`
	Tags          []string `json:"tags"`
	Featured      bool     `json:"featured"`
	DownloadURL   string   `json:"download_url"`
	SourceURL     string   `json:"source_url"`
	ImageURL      string   `json:"image_url"`
	Difficulty    string   `json:"difficulty"`
	EstimatedTime string   `json:"estimated_time"`
}

type ReviewInput struct {
	ItemID  string `json:"item_id"`
	Author  string `json:"author"`
	Email   string `json:"email"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type FileInput struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Type    string `json:"type"`
	Version string `json:"version"`
}

// NewCatalogService wires the service to store. When opts.Repo is set every
// changed snapshot is persisted and audited.
func NewCatalogService(store *Store, opts ServiceOptions) *CatalogService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	guard := opts.Guard
	if guard == nil {
		guard = NewMemoryGuard(DefaultIdempotencyTTL)
	}
	s := &CatalogService{
		store:             store,
		repo:              opts.Repo,
		guard:             guard,
		adminPasswordHash: opts.AdminPasswordHash,
		kind:              defaultString(opts.Kind, domain.KindBot),
		logger:            logger,
	}
	if opts.Repo != nil {
		store.Subscribe(NewPersister(opts.Repo, logger).Observe)
	}
	return s
}

func (s *CatalogService) Dispatch(ctx context.Context, action domain.Action) (domain.Snapshot, error) {
	next, err := s.store.Dispatch(ctx, action)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("dispatch %s: %w", action.Kind(), err)
	}
	s.logger.Debug("dispatched", zap.String("action", action.Kind()), zap.String("target", domain.ActionTarget(action)))
	return next, nil
}

func (s *CatalogService) GetState() domain.Snapshot {
	return s.store.State()
}

func (s *CatalogService) GetAdminStats() domain.AdminStats {
	return domain.ComputeAdminStats(s.store.State())
}

// GetFilteredItems applies the stored selection.
func (s *CatalogService) GetFilteredItems() []domain.Item {
	state := s.store.State()
	return domain.VisibleItems(state.Items, state.Selection)
}

// ListItems filters with an explicit query and category, leaving the stored
// selection alone.
func (s *CatalogService) ListItems(query, categoryID string, limit int) []domain.Item {
	items := domain.VisibleItems(s.store.State().Items, domain.Selection{Search: query, CategoryID: categoryID})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (s *CatalogService) GetItem(id string) (domain.Item, error) {
	if item, ok := s.store.State().FindItem(id); ok {
		return item, nil
	}
	return domain.Item{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
}

func (s *CatalogService) Categories() []domain.Category {
	return s.store.State().Categories
}

func (s *CatalogService) Reviews(itemID string, status domain.ReviewStatus) []domain.Review {
	return s.store.State().ReviewsFor(itemID, status)
}

// Like increments the item's like counter. A non-empty key that was already
// claimed leaves the counter alone.
func (s *CatalogService) Like(ctx context.Context, itemID, key string) (domain.Item, error) {
	return s.bump(ctx, "like", itemID, key, domain.LikeItem{ItemID: itemID})
}

func (s *CatalogService) Download(ctx context.Context, itemID, key string) (domain.Item, error) {
	return s.bump(ctx, "download", itemID, key, domain.DownloadItem{ItemID: itemID})
}

func (s *CatalogService) View(ctx context.Context, itemID string) (domain.Item, error) {
	return s.bump(ctx, "view", itemID, "", domain.ViewItem{ItemID: itemID})
}

func (s *CatalogService) bump(ctx context.Context, op, itemID, key string, action domain.Action) (domain.Item, error) {
	if itemID == "" {
		return domain.Item{}, errors.New("item_id is required")
	}
	current, err := s.GetItem(itemID)
	if err != nil {
		return domain.Item{}, err
	}
	if key != "" {
		claimed, err := s.guard.Claim(ctx, op+":"+itemID+":"+key)
		if err != nil {
			return domain.Item{}, fmt.Errorf("claim idempotency key: %w", err)
		}
		if !claimed {
			s.logger.Debug("duplicate idempotency key", zap.String("op", op), zap.String("item_id", itemID))
			return current, nil
		}
	}
	next, err := s.Dispatch(ctx, action)
	if err != nil {
		return domain.Item{}, err
	}
	return findItem(next, itemID)
}

// SubmitReview reports accepted=false when the content filter dropped the
// review or its item does not exist.
func (s *CatalogService) SubmitReview(ctx context.Context, in ReviewInput) (domain.Review, bool, error) {
	in.ItemID = strings.TrimSpace(in.ItemID)
	in.Author = strings.TrimSpace(in.Author)
	in.Comment = strings.TrimSpace(in.Comment)
	if in.ItemID == "" || in.Author == "" || in.Comment == "" {
		return domain.Review{}, false, errors.New("item_id, author and comment are required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return domain.Review{}, false, errors.New("rating must be between 1 and 5")
	}

	id := uuid.NewString()
	next, err := s.Dispatch(ctx, domain.AddReview{Review: domain.Review{
		ID:      id,
		ItemID:  in.ItemID,
		Author:  in.Author,
		Email:   strings.TrimSpace(in.Email),
		Rating:  in.Rating,
		Comment: in.Comment,
	}})
	if err != nil {
		return domain.Review{}, false, err
	}
	review, ok := next.FindReview(id)
	if !ok {
		s.logger.Info("review dropped", zap.String("item_id", in.ItemID))
	}
	return review, ok, nil
}

func (s *CatalogService) UpdateReview(ctx context.Context, review domain.Review) (domain.Review, error) {
	if review.ID == "" || review.ItemID == "" {
		return domain.Review{}, errors.New("id and item_id are required")
	}
	if review.Rating < 1 || review.Rating > 5 {
		return domain.Review{}, errors.New("rating must be between 1 and 5")
	}
	current, err := findReview(s.store.State(), review.ID)
	if err != nil {
		return domain.Review{}, err
	}
	if review.Status != "" && review.Status != current.Status {
		return domain.Review{}, errors.New("status changes go through approve or reject")
	}
	next, err := s.Dispatch(ctx, domain.UpdateReview{Review: review})
	if err != nil {
		return domain.Review{}, err
	}
	return findReview(next, review.ID)
}

func (s *CatalogService) ApproveReview(ctx context.Context, reviewID string) (domain.Review, error) {
	return s.moderate(ctx, reviewID, domain.ApproveReview{ReviewID: reviewID})
}

func (s *CatalogService) RejectReview(ctx context.Context, reviewID string) (domain.Review, error) {
	return s.moderate(ctx, reviewID, domain.RejectReview{ReviewID: reviewID})
}

func (s *CatalogService) moderate(ctx context.Context, reviewID string, action domain.Action) (domain.Review, error) {
	if reviewID == "" {
		return domain.Review{}, errors.New("review_id is required")
	}
	next, err := s.Dispatch(ctx, action)
	if err != nil {
		return domain.Review{}, err
	}
	return findReview(next, reviewID)
}

func (s *CatalogService) DeleteReview(ctx context.Context, reviewID string) error {
	if reviewID == "" {
		return errors.New("review_id is required")
	}
	if _, err := findReview(s.store.State(), reviewID); err != nil {
		return err
	}
	_, err := s.Dispatch(ctx, domain.DeleteReview{ReviewID: reviewID})
	return err
}

func (s *CatalogService) CreateItem(ctx context.Context, in ItemInput) (domain.Item, error) {
	if err := s.validateItem(in); err != nil {
		return domain.Item{}, err
	}
	item := in.item()
	item.ID = uuid.NewString()
	item.Kind = defaultString(in.Kind, s.kind)

	next, err := s.Dispatch(ctx, domain.AddItem{Item: item})
	if err != nil {
		return domain.Item{}, err
	}
	return findItem(next, item.ID)
}

// UpdateItem replaces the editable fields of an item. Counters, rating and
// files are carried over from the stored record.
func (s *CatalogService) UpdateItem(ctx context.Context, id string, in ItemInput) (domain.Item, error) {
	if id == "" {
		return domain.Item{}, errors.New("id is required")
	}
	if err := s.validateItem(in); err != nil {
		return domain.Item{}, err
	}
	current, err := s.GetItem(id)
	if err != nil {
		return domain.Item{}, err
	}

	item := in.item()
	item.ID = current.ID
	item.Kind = defaultString(in.Kind, current.Kind)
	item.Likes = current.Likes
	item.Downloads = current.Downloads
	item.Views = current.Views
	item.Rating = current.Rating
	item.Files = current.Files
	item.CreatedAt = current.CreatedAt

	next, err := s.Dispatch(ctx, domain.UpdateItem{Item: item})
	if err != nil {
		return domain.Item{}, err
	}
	return findItem(next, id)
}

func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("id is required")
	}
	if _, err := s.GetItem(id); err != nil {
		return err
	}
	_, err := s.Dispatch(ctx, domain.DeleteItem{ItemID: id})
	return err
}

func (s *CatalogService) AttachFile(ctx context.Context, itemID string, in FileInput) (domain.File, error) {
	if itemID == "" || strings.TrimSpace(in.Name) == "" {
		return domain.File{}, errors.New("item_id and name are required")
	}
	if in.Size < 0 {
		return domain.File{}, errors.New("size must not be negative")
	}
	file := domain.File{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(in.Name),
		Size:    in.Size,
		Type:    in.Type,
		Version: defaultString(in.Version, "1.0.0"),
	}
	next, err := s.Dispatch(ctx, domain.AttachFile{ItemID: itemID, File: file})
	if err != nil {
		return domain.File{}, err
	}
	item, err := findItem(next, itemID)
	if err != nil {
		return domain.File{}, err
	}
	idx := slices.IndexFunc(item.Files, func(f domain.File) bool { return f.ID == file.ID })
	if idx < 0 {
		return domain.File{}, fmt.Errorf("file %s: %w", file.ID, ErrNotFound)
	}
	return item.Files[idx], nil
}

func (s *CatalogService) DetachFile(ctx context.Context, itemID, fileID string) error {
	if itemID == "" || fileID == "" {
		return errors.New("item_id and file_id are required")
	}
	item, err := s.GetItem(itemID)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(item.Files, func(f domain.File) bool { return f.ID == fileID }) {
		return fmt.Errorf("file %s: %w", fileID, ErrNotFound)
	}
	_, err = s.Dispatch(ctx, domain.DetachFile{ItemID: itemID, FileID: fileID})
	return err
}

func (s *CatalogService) SetSearch(ctx context.Context, query string) (domain.Selection, error) {
	next, err := s.Dispatch(ctx, domain.SetSearch{Query: query})
	return next.Selection, err
}

func (s *CatalogService) SetCategory(ctx context.Context, categoryID string) (domain.Selection, error) {
	next, err := s.Dispatch(ctx, domain.SetCategory{CategoryID: defaultString(categoryID, domain.AllCategories)})
	return next.Selection, err
}

func (s *CatalogService) SetPage(ctx context.Context, page string) (domain.Selection, error) {
	if page != domain.PageHome && page != domain.PageBrowse {
		return domain.Selection{}, fmt.Errorf("unknown page %q", page)
	}
	next, err := s.Dispatch(ctx, domain.SetPage{Page: page})
	return next.Selection, err
}

// RegisterAdminClick counts one gesture click and reports whether the
// password prompt should be shown.
func (s *CatalogService) RegisterAdminClick(ctx context.Context) (bool, error) {
	next, err := s.Dispatch(ctx, domain.IncrementAdminClick{})
	if err != nil {
		return false, err
	}
	return next.Selection.AdminClicks >= AdminClickThreshold, nil
}

// SubmitAdminPassword enables admin mode on a matching password. This is a
// convenience gate for a single operator, not an authentication boundary.
func (s *CatalogService) SubmitAdminPassword(ctx context.Context, password string) error {
	if s.adminPasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(s.adminPasswordHash), []byte(password)) != nil {
		if _, err := s.Dispatch(ctx, domain.ResetAdminClick{}); err != nil {
			return err
		}
		s.logger.Warn("admin password rejected")
		return ErrInvalidCredentials
	}
	_, err := s.Dispatch(ctx, domain.ToggleAdmin{Enabled: true})
	return err
}

func (s *CatalogService) ExitAdmin(ctx context.Context) error {
	_, err := s.Dispatch(ctx, domain.ToggleAdmin{Enabled: false})
	return err
}

// Kind is the item kind this catalog lists by default.
func (s *CatalogService) Kind() string {
	return s.kind
}

func (s *CatalogService) AdminEnabled() bool {
	return s.store.State().Selection.Admin
}

func (s *CatalogService) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if s.repo == nil {
		return []domain.AuditLog{}, nil
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	return s.repo.ListAuditLogs(ctx, limit)
}

func (s *CatalogService) validateItem(in ItemInput) error {
	if strings.TrimSpace(in.Name) == "" || in.CategoryID == "" {
		return errors.New("name and category_id are required")
	}
	if !slices.ContainsFunc(s.store.State().Categories, func(c domain.Category) bool { return c.ID == in.CategoryID }) {
		return fmt.Errorf("unknown category %q", in.CategoryID)
	}
	if in.Kind != "" && in.Kind != domain.KindBot && in.Kind != domain.KindProject {
		return fmt.Errorf("unknown kind %q", in.Kind)
	}
	return nil
}

func (in ItemInput) item() domain.Item {
	return domain.Item{
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		CategoryID:    in.CategoryID,
		Tags:          in.Tags,
		Featured:      in.Featured,
		DownloadURL:   in.DownloadURL,
		SourceURL:     in.SourceURL,
		ImageURL:      in.ImageURL,
		Difficulty:    in.Difficulty,
		EstimatedTime: in.EstimatedTime,
	}
}

// HashPassword returns a bcrypt hash suitable for AdminPasswordHash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func findItem(s domain.Snapshot, id string) (domain.Item, error) {
	if item, ok := s.FindItem(id); ok {
		return item, nil
	}
	return domain.Item{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
}

func findReview(s domain.Snapshot, id string) (domain.Review, error) {
	if review, ok := s.FindReview(id); ok {
		return review, nil
	}
	return domain.Review{}, fmt.Errorf("review %s: %w", id, ErrNotFound)
}

func defaultString(input, fallback string) string {
	if strings.TrimSpace(input) == "" {
		return fallback
	}
	return input
}
