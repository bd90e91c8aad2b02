package domain

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Policy selects the review lifecycle variant. Moderated catalogs admit new
// reviews as pending; otherwise they are approved on arrival. With
// StrictTransitions approved and rejected are terminal.
type Policy struct {
	Moderated         bool
	StrictTransitions bool
}

// Reducer maps (snapshot, action) to the next snapshot. It never mutates its
// input and degrades every unknown id to a no-op.
type Reducer struct {
	Policy Policy
	Filter *ContentFilter
	NewID  func() string
	Now    func() time.Time
}

func NewReducer(policy Policy) Reducer {
	return Reducer{
		Policy: policy,
		Filter: DefaultContentFilter(),
		NewID:  uuid.NewString,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r Reducer) Reduce(state Snapshot, action Action) Snapshot {
	switch a := action.(type) {
	case SetSearch:
		state.Selection.Search = a.Query
		return state
	case SetCategory:
		state.Selection.CategoryID = a.CategoryID
		return state
	case SetPage:
		state.Selection.Page = a.Page
		return state
	case LikeItem:
		return r.bumpCounter(state, a.ItemID, func(item *Item) { item.Likes++ })
	case DownloadItem:
		return r.bumpCounter(state, a.ItemID, func(item *Item) { item.Downloads++ })
	case ViewItem:
		return r.bumpCounter(state, a.ItemID, func(item *Item) { item.Views++ })
	case AddItem:
		return r.addItem(state, a.Item)
	case UpdateItem:
		return r.updateItem(state, a.Item)
	case DeleteItem:
		return r.deleteItem(state, a.ItemID)
	case AttachFile:
		return r.attachFile(state, a.ItemID, a.File)
	case DetachFile:
		return r.detachFile(state, a.ItemID, a.FileID)
	case AddReview:
		return r.addReview(state, a.Review)
	case UpdateReview:
		return r.updateReview(state, a.Review)
	case DeleteReview:
		return r.deleteReview(state, a.ReviewID)
	case ApproveReview:
		return r.transitionReview(state, a.ReviewID, ReviewApproved)
	case RejectReview:
		return r.transitionReview(state, a.ReviewID, ReviewRejected)
	case ToggleAdmin:
		state.Selection.Admin = a.Enabled
		state.Selection.AdminClicks = 0
		return state
	case IncrementAdminClick:
		state.Selection.AdminClicks++
		return state
	case ResetAdminClick:
		state.Selection.AdminClicks = 0
		return state
	default:
		return state
	}
}

func (r Reducer) bumpCounter(state Snapshot, itemID string, bump func(*Item)) Snapshot {
	idx := indexOfItem(state.Items, itemID)
	if idx < 0 {
		return state
	}
	items := slices.Clone(state.Items)
	bump(&items[idx])
	state.Items = items
	return state
}

func (r Reducer) addItem(state Snapshot, item Item) Snapshot {
	if item.ID == "" {
		item.ID = r.newID()
	}
	if indexOfItem(state.Items, item.ID) >= 0 {
		return state
	}
	now := r.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	state.Items = append(slices.Clip(state.Items), item)
	state.Categories = adjustCategoryCount(state.Categories, item.CategoryID, 1)
	return state
}

func (r Reducer) updateItem(state Snapshot, item Item) Snapshot {
	idx := indexOfItem(state.Items, item.ID)
	if idx < 0 {
		return state
	}
	previous := state.Items[idx]
	item.UpdatedAt = r.now()

	items := slices.Clone(state.Items)
	items[idx] = item
	state.Items = items

	if previous.CategoryID != item.CategoryID {
		state.Categories = adjustCategoryCount(state.Categories, previous.CategoryID, -1)
		state.Categories = adjustCategoryCount(state.Categories, item.CategoryID, 1)
	}
	return state
}

func (r Reducer) deleteItem(state Snapshot, itemID string) Snapshot {
	idx := indexOfItem(state.Items, itemID)
	if idx < 0 {
		return state
	}
	removed := state.Items[idx]
	state.Items = slices.Delete(slices.Clone(state.Items), idx, idx+1)
	state.Categories = adjustCategoryCount(state.Categories, removed.CategoryID, -1)

	if slices.ContainsFunc(state.Reviews, func(rv Review) bool { return rv.ItemID == itemID }) {
		state.Reviews = slices.DeleteFunc(slices.Clone(state.Reviews), func(rv Review) bool {
			return rv.ItemID == itemID
		})
	}
	return state
}

func (r Reducer) attachFile(state Snapshot, itemID string, file File) Snapshot {
	idx := indexOfItem(state.Items, itemID)
	if idx < 0 {
		return state
	}
	if file.ID == "" {
		file.ID = r.newID()
	}
	current := state.Items[idx]
	if slices.ContainsFunc(current.Files, func(f File) bool { return f.ID == file.ID }) {
		return state
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = r.now()
	}

	items := slices.Clone(state.Items)
	items[idx].Files = append(slices.Clip(current.Files), file)
	items[idx].UpdatedAt = r.now()
	state.Items = items
	return state
}

func (r Reducer) detachFile(state Snapshot, itemID, fileID string) Snapshot {
	idx := indexOfItem(state.Items, itemID)
	if idx < 0 {
		return state
	}
	current := state.Items[idx]
	fileIdx := slices.IndexFunc(current.Files, func(f File) bool { return f.ID == fileID })
	if fileIdx < 0 {
		return state
	}

	items := slices.Clone(state.Items)
	items[idx].Files = slices.Delete(slices.Clone(current.Files), fileIdx, fileIdx+1)
	items[idx].UpdatedAt = r.now()
	state.Items = items
	return state
}

func (r Reducer) addReview(state Snapshot, review Review) Snapshot {
	filter := r.filter()
	if filter.Rejects(review.Comment) {
		return state
	}
	if indexOfItem(state.Items, review.ItemID) < 0 {
		return state
	}
	if review.ID == "" {
		review.ID = r.newID()
	}
	if indexOfReview(state.Reviews, review.ID) >= 0 {
		return state
	}

	now := r.now()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now
	review.Author = filter.Sanitize(review.Author)
	review.Comment = filter.Sanitize(review.Comment)
	review.Status = ReviewApproved
	if r.Policy.Moderated {
		review.Status = ReviewPending
	}

	state.Reviews = append(slices.Clip(state.Reviews), review)
	if review.Status == ReviewApproved {
		state.Items = rerate(state.Items, state.Reviews, review.ItemID)
	}
	return state
}

func (r Reducer) updateReview(state Snapshot, review Review) Snapshot {
	idx := indexOfReview(state.Reviews, review.ID)
	if idx < 0 {
		return state
	}
	filter := r.filter()
	if filter.Rejects(review.Comment) {
		return state
	}
	if indexOfItem(state.Items, review.ItemID) < 0 {
		return state
	}
	previous := state.Reviews[idx]
	// Status only moves through ApproveReview and RejectReview.
	review.Status = previous.Status
	if review.CreatedAt.IsZero() {
		review.CreatedAt = previous.CreatedAt
	}
	review.Author = filter.Sanitize(review.Author)
	review.Comment = filter.Sanitize(review.Comment)
	review.UpdatedAt = r.now()

	reviews := slices.Clone(state.Reviews)
	reviews[idx] = review
	state.Reviews = reviews

	if previous.Status == ReviewApproved || review.Status == ReviewApproved {
		state.Items = rerate(state.Items, state.Reviews, previous.ItemID)
		if review.ItemID != previous.ItemID {
			state.Items = rerate(state.Items, state.Reviews, review.ItemID)
		}
	}
	return state
}

func (r Reducer) deleteReview(state Snapshot, reviewID string) Snapshot {
	idx := indexOfReview(state.Reviews, reviewID)
	if idx < 0 {
		return state
	}
	removed := state.Reviews[idx]
	state.Reviews = slices.Delete(slices.Clone(state.Reviews), idx, idx+1)
	if removed.Status == ReviewApproved {
		state.Items = rerate(state.Items, state.Reviews, removed.ItemID)
	}
	return state
}

func (r Reducer) transitionReview(state Snapshot, reviewID string, to ReviewStatus) Snapshot {
	idx := indexOfReview(state.Reviews, reviewID)
	if idx < 0 {
		return state
	}
	current := state.Reviews[idx]
	if current.Status == to {
		return state
	}
	if r.Policy.StrictTransitions && current.Status.Terminal() {
		return state
	}

	reviews := slices.Clone(state.Reviews)
	reviews[idx].Status = to
	reviews[idx].UpdatedAt = r.now()
	state.Reviews = reviews

	if current.Status == ReviewApproved || to == ReviewApproved {
		state.Items = rerate(state.Items, state.Reviews, current.ItemID)
	}
	return state
}

func (r Reducer) filter() *ContentFilter {
	if r.Filter == nil {
		return DefaultContentFilter()
	}
	return r.Filter
}

func (r Reducer) newID() string {
	if r.NewID == nil {
		return uuid.NewString()
	}
	return r.NewID()
}

func (r Reducer) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now()
}

// rerate sets the item's rating to the mean of its approved reviews, rounded
// to one decimal. An item left with no approved reviews keeps its rating.
func rerate(items []Item, reviews []Review, itemID string) []Item {
	idx := indexOfItem(items, itemID)
	if idx < 0 {
		return items
	}
	sum, count := 0, 0
	for _, review := range reviews {
		if review.ItemID == itemID && review.Status == ReviewApproved {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return items
	}
	rating := RoundRating(float64(sum) / float64(count))
	if items[idx].Rating == rating {
		return items
	}
	out := slices.Clone(items)
	out[idx].Rating = rating
	return out
}

func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

func adjustCategoryCount(categories []Category, categoryID string, delta int) []Category {
	for i := range categories {
		if categories[i].ID != categoryID {
			continue
		}
		out := slices.Clone(categories)
		out[i].ItemCount = max(0, out[i].ItemCount+delta)
		return out
	}
	return categories
}

func indexOfItem(items []Item, id string) int {
	return slices.IndexFunc(items, func(item Item) bool { return item.ID == id })
}

func indexOfReview(reviews []Review, id string) int {
	return slices.IndexFunc(reviews, func(review Review) bool { return review.ID == id })
}
