package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

func openTestRepo(t *testing.T) *CatalogRepository {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "catalog_test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return NewCatalogRepository(db)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	if _, found, err := repo.LoadSnapshot(ctx); err != nil || found {
		t.Fatalf("expected empty store, found=%v err=%v", found, err)
	}

	created := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	snap := domain.Snapshot{
		Categories: []domain.Category{
			{ID: "webdev", Name: "Web Development", Icon: "globe", Color: "#3b82f6", ItemCount: 1},
			{ID: "ai", Name: "AI & ML", ItemCount: 0},
		},
		Items: []domain.Item{
			{
				ID: "p2", Kind: domain.KindProject, Name: "Portfolio", CategoryID: "webdev",
				Tags: []string{"react", "tailwind"}, Likes: 3, Downloads: 7, Views: 11, Rating: 4.5,
				Featured: true, SourceURL: "https://example.com/src", Difficulty: "beginner", EstimatedTime: "2 hours",
				Files: []domain.File{
					{ID: "f1", Name: "portfolio.zip", Size: 2048, Type: "application/zip", Version: "1.0.0", UploadedAt: created},
					{ID: "f2", Name: "README.md", Size: 12, Type: "text/markdown", Version: "1.0.1", UploadedAt: created.Add(time.Hour)},
				},
				CreatedAt: created, UpdatedAt: created,
			},
			{ID: "p1", Kind: domain.KindProject, Name: "Chat bot", CategoryID: "ai", CreatedAt: created, UpdatedAt: created},
		},
		Reviews: []domain.Review{
			{ID: "r2", ItemID: "p2", Author: "Dev", Rating: 5, Comment: "Clean", Status: domain.ReviewApproved, CreatedAt: created, UpdatedAt: created},
			{ID: "r1", ItemID: "p2", Author: "Ana", Email: "ana@example.com", Rating: 4, Comment: "Nice", Status: domain.ReviewPending, CreatedAt: created, UpdatedAt: created},
		},
		Selection: domain.Selection{Search: "port", CategoryID: "webdev", Page: domain.PageBrowse, Admin: true, AdminClicks: 2},
	}

	if err := repo.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	got, found, err := repo.LoadSnapshot(ctx)
	if err != nil || !found {
		t.Fatalf("load snapshot: found=%v err=%v", found, err)
	}
	if diff := cmp.Diff(snap, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	snap.Items = snap.Items[:1]
	snap.Items[0].Files = nil
	snap.Reviews = nil
	snap.Categories[1].ItemCount = 0
	if err := repo.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("save shrunk snapshot: %v", err)
	}
	got, _, err = repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got.Items) != 1 || len(got.Items[0].Files) != 0 || len(got.Reviews) != 0 {
		t.Fatalf("stale rows survived save: %+v", got)
	}
}

func TestAuditLogsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	for _, action := range []string{"item.add", "item.like", "review.approve"} {
		if err := repo.CreateAuditLog(ctx, domain.AuditLog{Action: action, TargetID: "1", Metadata: "{}"}); err != nil {
			t.Fatalf("create audit log: %v", err)
		}
	}

	logs, err := repo.ListAuditLogs(ctx, 2)
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 2 || logs[0].Action != "review.approve" || logs[1].Action != "item.like" {
		t.Fatalf("unexpected audit order: %+v", logs)
	}
	if logs[0].CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "catalog_migrate.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := RunMigrations(ctx, db); err != nil {
			t.Fatalf("run migrations (pass %d): %v", i+1, err)
		}
	}
	version, err := MigrationStatus(db)
	if err != nil {
		t.Fatalf("migration status: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}
}
