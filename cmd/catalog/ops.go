package main

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atvirokodosprendimai/catalog/internal/application"
)

const idempotencyHeader = "Idempotency-Key"

func doItemsList(ctx context.Context, cfg cliConfig, q, category string, limit int, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "items.list", map[string]any{"q": q, "category": category, "limit": limit}, out)
	}
	params := url.Values{}
	if q != "" {
		params.Set("q", q)
	}
	if category != "" {
		params.Set("category", category)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/items"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return newAPIClient(cfg.Server).request(ctx, http.MethodGet, path, nil, out)
}

// doItemCounter runs like or download.
func doItemCounter(ctx context.Context, cfg cliConfig, op, itemID, key string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "items."+op, map[string]any{"item_id": itemID, "idempotency_key": key}, out)
	}
	path := "/api/items/" + url.PathEscape(itemID) + "/" + op
	return newAPIClient(cfg.Server).request(ctx, http.MethodPost, path, nil, out, idempotencyHeader, key)
}

func doReviewsAdd(ctx context.Context, cfg cliConfig, in application.ReviewInput, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "reviews.add", in, out)
	}
	path := "/api/items/" + url.PathEscape(in.ItemID) + "/reviews"
	return newAPIClient(cfg.Server).request(ctx, http.MethodPost, path, in, out)
}

func doReviewsPending(ctx context.Context, cfg cliConfig, itemID string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "reviews.pending", map[string]any{"item_id": itemID}, out)
	}
	params := url.Values{"status": {"pending"}}
	if itemID != "" {
		params.Set("item_id", itemID)
	}
	return newAPIClient(cfg.Server).request(ctx, http.MethodGet, "/api/admin/reviews?"+params.Encode(), nil, out)
}

// doReviewModerate runs approve or reject.
func doReviewModerate(ctx context.Context, cfg cliConfig, op, reviewID string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "reviews."+op, map[string]any{"review_id": reviewID}, out)
	}
	path := "/api/admin/reviews/" + url.PathEscape(reviewID) + "/" + op
	return newAPIClient(cfg.Server).request(ctx, http.MethodPost, path, nil, out)
}

func doStats(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "stats.get", nil, out)
	}
	return newAPIClient(cfg.Server).request(ctx, http.MethodGet, "/api/stats", nil, out)
}

func doAdminClick(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "admin.click", nil, out)
	}
	return newAPIClient(cfg.Server).request(ctx, http.MethodPost, "/api/admin/click", nil, out)
}

func doAdminLogin(ctx context.Context, cfg cliConfig, password string, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "admin.login", map[string]any{"password": password}, out)
	}
	return newAPIClient(cfg.Server).request(ctx, http.MethodPost, "/api/admin/login", map[string]any{"password": password}, out)
}

func doAdminLogout(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "admin.logout", nil, out)
	}
	return newAPIClient(cfg.Server).request(ctx, http.MethodPost, "/api/admin/logout", nil, out)
}

func doAuditList(ctx context.Context, cfg cliConfig, limit int, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "audit.list", map[string]any{"limit": limit}, out)
	}
	return newAPIClient(cfg.Server).request(ctx, http.MethodGet, "/api/admin/audit?limit="+strconv.Itoa(limit), nil, out)
}

func doSnapshot(ctx context.Context, cfg cliConfig, out any) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "snapshot.current", nil, out)
	}
	return newAPIClient(cfg.Server).request(ctx, http.MethodGet, "/api/admin/snapshot", nil, out)
}
