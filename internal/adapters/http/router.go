package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/catalog/internal/application"
	"github.com/atvirokodosprendimai/catalog/internal/domain"
	"github.com/atvirokodosprendimai/catalog/internal/ui"
)

const idempotencyHeader = "Idempotency-Key"

type Handler struct {
	service *application.CatalogService
	logger  *zap.Logger
}

// NewRouter builds the JSON API, the browse page and, when gatherer is set,
// the metrics endpoint.
func NewRouter(service *application.CatalogService, logger *zap.Logger, gatherer prometheus.Gatherer) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{service: service, logger: logger}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, h.logRequests)

	r.Route("/api", func(api chi.Router) {
		api.Get("/items", h.handleAPIListItems)
		api.Get("/items/{id}", h.handleAPIGetItem)
		api.Post("/items/{id}/like", h.handleAPILike)
		api.Post("/items/{id}/download", h.handleAPIDownload)
		api.Post("/items/{id}/view", h.handleAPIView)
		api.Get("/items/{id}/reviews", h.handleAPIListItemReviews)
		api.Post("/items/{id}/reviews", h.handleAPISubmitReview)
		api.Get("/items/{id}/files", h.handleAPIListFiles)
		api.Get("/categories", h.handleAPIListCategories)
		api.Get("/selection", h.handleAPIGetSelection)
		api.Put("/selection", h.handleAPIUpdateSelection)
		api.Get("/stats", h.handleAPIStats)

		api.Post("/admin/click", h.handleAPIAdminClick)
		api.Post("/admin/login", h.handleAPIAdminLogin)
		api.Post("/admin/logout", h.handleAPIAdminLogout)

		api.Group(func(admin chi.Router) {
			admin.Use(h.requireAdmin)
			admin.Post("/admin/items", h.handleAPICreateItem)
			admin.Put("/admin/items/{id}", h.handleAPIUpdateItem)
			admin.Delete("/admin/items/{id}", h.handleAPIDeleteItem)
			admin.Post("/admin/items/{id}/files", h.handleAPIAttachFile)
			admin.Delete("/admin/items/{id}/files/{fileID}", h.handleAPIDetachFile)
			admin.Get("/admin/reviews", h.handleAPIListReviews)
			admin.Put("/admin/reviews/{id}", h.handleAPIUpdateReview)
			admin.Delete("/admin/reviews/{id}", h.handleAPIDeleteReview)
			admin.Post("/admin/reviews/{id}/approve", h.handleAPIApproveReview)
			admin.Post("/admin/reviews/{id}/reject", h.handleAPIRejectReview)
			admin.Get("/admin/audit", h.handleAPIListAuditLogs)
			admin.Get("/admin/snapshot", h.handleAPISnapshot)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/browse", http.StatusSeeOther)
	})
	r.Get("/browse", h.handleBrowse)
	r.Post("/browse/search", h.handleBrowseSearch)
	r.Post("/browse/items/{id}/like", h.handleBrowseLike)
	r.Get("/browse/stats", h.handleBrowseStats)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// requireAdmin gates back-office routes on the snapshot's admin flag.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.service.AdminEnabled() {
			h.writeError(w, application.ErrAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleAPIListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, h.service.ListItems(q.Get("q"), q.Get("category"), limit))
}

func (h *Handler) handleAPIGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleAPILike(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Like(r.Context(), chi.URLParam(r, "id"), r.Header.Get(idempotencyHeader))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleAPIDownload(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Download(r.Context(), chi.URLParam(r, "id"), r.Header.Get(idempotencyHeader))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleAPIView(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Public listings only expose approved reviews.
func (h *Handler) handleAPIListItemReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.service.GetItem(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Reviews(id, domain.ReviewApproved))
}

func (h *Handler) handleAPISubmitReview(w http.ResponseWriter, r *http.Request) {
	var req application.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	req.ItemID = chi.URLParam(r, "id")
	review, accepted, err := h.service.SubmitReview(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !accepted {
		writeJSON(w, http.StatusAccepted, map[string]any{"accepted": false})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"accepted": true, "review": review})
}

func (h *Handler) handleAPIListFiles(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	files := item.Files
	if files == nil {
		files = []domain.File{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) handleAPIListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Categories())
}

func (h *Handler) handleAPIGetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.GetState().Selection)
}

type apiSelectionRequest struct {
	Search     *string `json:"search"`
	CategoryID *string `json:"category_id"`
	Page       *string `json:"page"`
}

func (h *Handler) handleAPIUpdateSelection(w http.ResponseWriter, r *http.Request) {
	var req apiSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	ctx := r.Context()
	if req.Page != nil {
		if _, err := h.service.SetPage(ctx, *req.Page); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if req.CategoryID != nil {
		if _, err := h.service.SetCategory(ctx, *req.CategoryID); err != nil {
			h.writeError(w, err)
			return
		}
	}
	if req.Search != nil {
		if _, err := h.service.SetSearch(ctx, *req.Search); err != nil {
			h.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"selection": h.service.GetState().Selection,
		"items":     h.service.GetFilteredItems(),
	})
}

func (h *Handler) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.GetAdminStats())
}

func (h *Handler) handleAPIAdminClick(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.service.RegisterAdminClick(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prompt": prompt, "clicks": h.service.GetState().Selection.AdminClicks})
}

type apiAdminLoginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleAPIAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req apiAdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	if err := h.service.SubmitAdminPassword(r.Context(), req.Password); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"admin": true})
}

func (h *Handler) handleAPIAdminLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ExitAdmin(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"admin": false})
}

func (h *Handler) handleAPICreateItem(w http.ResponseWriter, r *http.Request) {
	var req application.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	item, err := h.service.CreateItem(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleAPIUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req application.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	item, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleAPIDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAPIAttachFile(w http.ResponseWriter, r *http.Request) {
	var req application.FileInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	file, err := h.service.AttachFile(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

func (h *Handler) handleAPIDetachFile(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DetachFile(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "fileID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAPIListReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.service.Reviews(q.Get("item_id"), domain.ReviewStatus(q.Get("status"))))
}

func (h *Handler) handleAPIUpdateReview(w http.ResponseWriter, r *http.Request) {
	var req domain.Review
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	req.ID = chi.URLParam(r, "id")
	review, err := h.service.UpdateReview(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *Handler) handleAPIDeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteReview(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAPIApproveReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.ApproveReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *Handler) handleAPIRejectReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.RejectReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *Handler) handleAPIListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	logs, err := h.service.ListAuditLogs(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *Handler) handleAPISnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"kind": h.service.Kind(), "snapshot": h.service.GetState()})
}

func (h *Handler) handleBrowse(w http.ResponseWriter, r *http.Request) {
	state := h.service.GetState()
	items := domain.VisibleItems(state.Items, state.Selection)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ui.BrowsePage(pageTitle(h.service.Kind()), items, state.Categories, state.Selection).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleBrowseStats(w http.ResponseWriter, r *http.Request) {
	if !h.service.AdminEnabled() {
		h.renderFlash(r.Context(), w, http.StatusForbidden, "admin mode required")
		return
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK, ui.StatsPanel(h.service.GetAdminStats()))
}

type browseSignals struct {
	Search   string `json:"search"`
	Category string `json:"category"`
}

func (h *Handler) handleBrowseSearch(w http.ResponseWriter, r *http.Request) {
	var sig browseSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		h.renderFlash(r.Context(), w, http.StatusBadRequest, "invalid search")
		return
	}
	if _, err := h.service.SetCategory(r.Context(), sig.Category); err != nil {
		h.renderFlash(r.Context(), w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err := h.service.SetSearch(r.Context(), sig.Search); err != nil {
		h.renderFlash(r.Context(), w, http.StatusInternalServerError, err.Error())
		return
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK, ui.ItemList(h.service.GetFilteredItems()))
}

func (h *Handler) handleBrowseLike(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Like(r.Context(), chi.URLParam(r, "id"), "")
	if err != nil {
		h.renderFlash(r.Context(), w, statusFor(err), err.Error())
		return
	}
	renderHTMLFragments(r.Context(), w, http.StatusOK,
		ui.Flash("Liked "+item.Name, "info"),
		ui.ItemList(h.service.GetFilteredItems()),
	)
}

func pageTitle(kind string) string {
	if kind == domain.KindProject {
		return "Tech Resource Platform"
	}
	return "Bot Directory"
}

func parseLimit(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(trimmed)
	if err != nil || limit < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return limit, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrAdminRequired):
		return http.StatusForbidden
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func renderHTMLFragments(ctx context.Context, w http.ResponseWriter, status int, fragments ...templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	for _, fragment := range fragments {
		if fragment == nil {
			continue
		}
		_ = fragment.Render(ctx, w)
	}
}

func (h *Handler) renderFlash(ctx context.Context, w http.ResponseWriter, status int, message string) {
	level := "info"
	if status >= 400 {
		level = "error"
	}
	renderHTMLFragments(ctx, w, status, ui.Flash(message, level))
}
