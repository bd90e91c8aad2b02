package domain

// Action describes one intended state transition. Reducer switches on the
// concrete type; Kind is the stable name used for audit and metrics.
type Action interface {
	Kind() string
}

type SetSearch struct{ Query string }
type SetCategory struct{ CategoryID string }
type SetPage struct{ Page string }

type LikeItem struct{ ItemID string }
type DownloadItem struct{ ItemID string }
type ViewItem struct{ ItemID string }

type AddItem struct{ Item Item }
type UpdateItem struct{ Item Item }
type DeleteItem struct{ ItemID string }

type AttachFile struct {
	ItemID string
	File   File
}

type DetachFile struct {
	ItemID string
	FileID string
}

type AddReview struct{ Review Review }
type UpdateReview struct{ Review Review }
type DeleteReview struct{ ReviewID string }
type ApproveReview struct{ ReviewID string }
type RejectReview struct{ ReviewID string }

type ToggleAdmin struct{ Enabled bool }
type IncrementAdminClick struct{}
type ResetAdminClick struct{}

func (SetSearch) Kind() string           { return "selection.search" }
func (SetCategory) Kind() string         { return "selection.category" }
func (SetPage) Kind() string             { return "selection.page" }
func (LikeItem) Kind() string            { return "item.like" }
func (DownloadItem) Kind() string        { return "item.download" }
func (ViewItem) Kind() string            { return "item.view" }
func (AddItem) Kind() string             { return "item.add" }
func (UpdateItem) Kind() string          { return "item.update" }
func (DeleteItem) Kind() string          { return "item.delete" }
func (AttachFile) Kind() string          { return "file.attach" }
func (DetachFile) Kind() string          { return "file.detach" }
func (AddReview) Kind() string           { return "review.add" }
func (UpdateReview) Kind() string        { return "review.update" }
func (DeleteReview) Kind() string        { return "review.delete" }
func (ApproveReview) Kind() string       { return "review.approve" }
func (RejectReview) Kind() string        { return "review.reject" }
func (ToggleAdmin) Kind() string         { return "admin.toggle" }
func (IncrementAdminClick) Kind() string { return "admin.click" }
func (ResetAdminClick) Kind() string     { return "admin.reset" }

// ActionTarget returns the id an action operates on, or "" for selection and
// admin gesture actions.
func ActionTarget(a Action) string {
	switch v := a.(type) {
	case LikeItem:
		return v.ItemID
	case DownloadItem:
		return v.ItemID
	case ViewItem:
		return v.ItemID
	case AddItem:
		return v.Item.ID
	case UpdateItem:
		return v.Item.ID
	case DeleteItem:
		return v.ItemID
	case AttachFile:
		return v.ItemID
	case DetachFile:
		return v.ItemID
	case AddReview:
		return v.Review.ID
	case UpdateReview:
		return v.Review.ID
	case DeleteReview:
		return v.ReviewID
	case ApproveReview:
		return v.ReviewID
	case RejectReview:
		return v.ReviewID
	default:
		return ""
	}
}
