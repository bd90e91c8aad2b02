package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	sqliteadapter "github.com/atvirokodosprendimai/catalog/internal/adapters/db/sqlite"
	httpadapter "github.com/atvirokodosprendimai/catalog/internal/adapters/http"
	rpcadapter "github.com/atvirokodosprendimai/catalog/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/catalog/internal/application"
	"github.com/atvirokodosprendimai/catalog/internal/config"
	"github.com/atvirokodosprendimai/catalog/internal/domain"
	"github.com/atvirokodosprendimai/catalog/internal/seed"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.FromLookup(func(string) (string, bool) { return "", false })
	require.NoError(t, err)
	cfg.DBPath = filepath.Join(t.TempDir(), "catalog.db")
	return cfg
}

func loadProjectsItem(id string) (domain.Item, error) {
	v, err := seed.Lookup("projects")
	if err != nil {
		return domain.Item{}, err
	}
	snap, err := v.Snapshot()
	if err != nil {
		return domain.Item{}, err
	}
	item, _ := snap.FindItem(id)
	return item, nil
}

func TestBuildServiceSeedsThenReloads(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Variant = "projects"

	svc, closers, err := buildService(ctx, cfg, prometheus.NewRegistry(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, domain.KindProject, svc.Kind())
	require.Len(t, svc.GetState().Items, 4)

	_, err = svc.Like(ctx, "p1", "")
	require.NoError(t, err)
	require.NoError(t, svc.SubmitAdminPassword(ctx, "admin123"))
	closeAll(closers)

	svc, closers, err = buildService(ctx, cfg, prometheus.NewRegistry(), zap.NewNop())
	require.NoError(t, err)
	defer closeAll(closers)
	item, err := svc.GetItem("p1")
	require.NoError(t, err)
	seeded, err := loadProjectsItem("p1")
	require.NoError(t, err)
	assert.Equal(t, seeded.Likes+1, item.Likes)
	assert.True(t, svc.AdminEnabled(), "selection is persisted with the snapshot")

	logs, err := svc.ListAuditLogs(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, "admin.toggle", logs[0].Action)
}

func TestBuildServiceWithRedisGuard(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr()

	svc, closers, err := buildService(ctx, cfg, prometheus.NewRegistry(), zap.NewNop())
	require.NoError(t, err)
	defer closeAll(closers)

	first, err := svc.Download(ctx, "1", "once")
	require.NoError(t, err)
	again, err := svc.Download(ctx, "1", "once")
	require.NoError(t, err)
	assert.Equal(t, first.Downloads, again.Downloads)
	assert.NotEmpty(t, mr.Keys())
}

func TestBuildServiceRejectsUnknownVariant(t *testing.T) {
	cfg := testConfig(t)
	cfg.Variant = "plugins"
	_, _, err := buildService(context.Background(), cfg, prometheus.NewRegistry(), zap.NewNop())
	require.ErrorContains(t, err, "unknown variant")
}

func TestBuildServiceClosesDBOnFailure(t *testing.T) {
	var opened *gorm.DB
	openDB = func(path string) (*gorm.DB, error) {
		db, err := sqliteadapter.Open(path)
		opened = db
		return db, err
	}
	t.Cleanup(func() { openDB = sqliteadapter.Open })

	cfg := testConfig(t)
	cfg.RedisURL = "ftp://127.0.0.1:1"
	_, closers, err := buildService(context.Background(), cfg, prometheus.NewRegistry(), zap.NewNop())
	require.ErrorContains(t, err, "parse redis url")
	assert.Nil(t, closers)

	require.NotNil(t, opened)
	sqlDB, err := opened.DB()
	require.NoError(t, err)
	require.ErrorContains(t, sqlDB.Ping(), "database is closed")
}

func TestClientOverSocket(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	svc, closers, err := buildService(ctx, cfg, prometheus.NewRegistry(), zap.NewNop())
	require.NoError(t, err)
	defer closeAll(closers)

	dir, err := os.MkdirTemp("", "catcli")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()
	socket := filepath.Join(dir, "catalog.sock")
	srv, err := rpcadapter.Start(socket, svc, zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = srv.Close() }()

	client := cliConfig{Transport: "uds", Socket: socket}
	var items []domain.Item
	require.NoError(t, doItemsList(ctx, client, "harmony", "", 0, &items))
	require.Len(t, items, 1)

	var liked domain.Item
	require.NoError(t, doItemCounter(ctx, client, "like", "2", "k", &liked))
	assert.Equal(t, items[0].Likes+1, liked.Likes)

	err = doReviewModerate(ctx, client, "approve", "r1", nil)
	require.ErrorContains(t, err, "rpc error (40300)")
	require.ErrorIs(t, err, application.ErrAdminRequired)
	assert.Equal(t, 4, exitCodeFor(err))

	err = doItemCounter(ctx, client, "like", "nope", "", nil)
	require.ErrorIs(t, err, application.ErrNotFound)
	assert.Equal(t, 3, exitCodeFor(err))

	var stats domain.AdminStats
	require.NoError(t, doStats(ctx, client, &stats))
	assert.Equal(t, 6, stats.TotalItems)
}

func TestClientOverHTTP(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	reg := prometheus.NewRegistry()
	svc, closers, err := buildService(ctx, cfg, reg, zap.NewNop())
	require.NoError(t, err)
	defer closeAll(closers)

	srv := httptest.NewServer(httpadapter.NewRouter(svc, zap.NewNop(), reg))
	defer srv.Close()
	client := cliConfig{Transport: "http", Server: srv.URL}

	var liked domain.Item
	require.NoError(t, doItemCounter(ctx, client, "like", "2", "k", &liked))
	var again domain.Item
	require.NoError(t, doItemCounter(ctx, client, "like", "2", "k", &again))
	assert.Equal(t, liked.Likes, again.Likes)

	err = doItemCounter(ctx, client, "download", "nope", "", nil)
	require.ErrorIs(t, err, application.ErrNotFound)
	require.ErrorContains(t, err, "api error (404)")

	err = doAdminLogin(ctx, client, "wrong", nil)
	require.ErrorIs(t, err, application.ErrInvalidCredentials)
	assert.Equal(t, 1, exitCodeFor(errors.New("boom")))
}

func TestCLIConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := loadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cliConfig{Transport: "uds", Server: defaultServer, Socket: defaultSocket}, cfg)

	cfg.Transport = "http"
	cfg.Server = "http://catalog.internal:9000"
	require.NoError(t, saveConfigTo(path, cfg))

	back, err := loadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestPrintItemsMarksFeatured(t *testing.T) {
	var buf bytes.Buffer
	stdout = &buf
	color.NoColor = true
	t.Cleanup(func() { stdout = os.Stdout })

	printItems([]domain.Item{
		{ID: "1", Name: "ModGuard Pro", CategoryID: "moderation", Likes: 3, Downloads: 9, Rating: 4.76, Featured: true},
		{ID: "2", Name: "Quiet", CategoryID: "fun"},
	})
	out := buf.String()
	assert.Contains(t, out, "ID  NAME")
	assert.Contains(t, out, "4.8")
	assert.Regexp(t, `ModGuard Pro\s+moderation\s+3\s+9\s+4\.8\s+\*`, out)

	buf.Reset()
	printItems(nil)
	assert.Equal(t, "no results\n", buf.String())
}
