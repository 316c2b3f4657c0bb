package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sdgtrack.sqlite"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleData(title string) ActivityData {
	date := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)
	return ActivityData{
		Title:                   title,
		Description:             "A detailed description.",
		Authors:                 "Mwangi, J.; Otieno, A.",
		ActivityType:            TypePublication,
		OriginalPublicationDate: &date,
		ExternalURL:             "http://repo.example/handle/1",
		IsScraped:               true,
	}
}

func TestUpsertActivityCreateThenUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	data := sampleData("Water Access in Arid Kenya")
	id1, created, err := db.UpsertActivityByExternalURL(ctx, data.ExternalURL, data)
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if !created {
		t.Fatal("first upsert should create")
	}

	// Second call with changed fields must update the same row in place.
	data.Title = "Water Access in Arid Kenya (revised)"
	id2, created, err := db.UpsertActivityByExternalURL(ctx, data.ExternalURL, data)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if created {
		t.Fatal("second upsert should update, not create")
	}
	if id1 != id2 {
		t.Fatalf("upsert must be idempotent on the natural key: ids %d != %d", id1, id2)
	}

	activities, err := db.ListActivities(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("expected exactly one stored activity, got %d", len(activities))
	}
	if activities[0].Title != "Water Access in Arid Kenya (revised)" {
		t.Fatalf("update must fully replace fields, got title %q", activities[0].Title)
	}
	if activities[0].OriginalPublicationDate == nil || activities[0].OriginalPublicationDate.Format("2006-01-02") != "2021-06-15" {
		t.Fatalf("publication date not round-tripped: %v", activities[0].OriginalPublicationDate)
	}
}

func TestUpsertActivityRequiresExternalURL(t *testing.T) {
	db := openTestDB(t)
	if _, _, err := db.UpsertActivityByExternalURL(context.Background(), "", sampleData("x")); err == nil {
		t.Fatal("expected an error for an empty natural key")
	}
}

func TestUpsertImpactOverwritesPair(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, _, err := db.UpsertActivityByExternalURL(ctx, "http://repo.example/handle/2", sampleData("Nursing and SDG 3"))
	if err != nil {
		t.Fatalf("upsert activity failed: %v", err)
	}

	first := SDGImpact{ActivityID: id, SDGNumber: 3, Score: 70, Justification: "initial"}
	if err := db.UpsertImpact(ctx, first); err != nil {
		t.Fatalf("first impact upsert failed: %v", err)
	}
	second := SDGImpact{ActivityID: id, SDGNumber: 3, Score: 85, Justification: "revised"}
	if err := db.UpsertImpact(ctx, second); err != nil {
		t.Fatalf("second impact upsert failed: %v", err)
	}

	impacts, err := db.ListImpacts(ctx, id)
	if err != nil {
		t.Fatalf("ListImpacts failed: %v", err)
	}
	if len(impacts) != 1 {
		t.Fatalf("expected one impact per (activity, goal) pair, got %d", len(impacts))
	}
	if impacts[0].Score != 85 || impacts[0].Justification != "revised" {
		t.Fatalf("latest classification must win: %+v", impacts[0])
	}
}

func TestUpsertImpactRejectsOutOfRange(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, _, err := db.UpsertActivityByExternalURL(ctx, "http://repo.example/handle/3", sampleData("x"))
	if err != nil {
		t.Fatalf("upsert activity failed: %v", err)
	}

	if err := db.UpsertImpact(ctx, SDGImpact{ActivityID: id, SDGNumber: 18, Score: 50}); err == nil {
		t.Fatal("expected rejection of sdg number 18")
	}
	if err := db.UpsertImpact(ctx, SDGImpact{ActivityID: id, SDGNumber: 3, Score: 150}); err == nil {
		t.Fatal("expected rejection of score 150")
	}
}

func TestUnclassifiedLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, _, err := db.UpsertActivityByExternalURL(ctx, "http://repo.example/handle/4", sampleData("Pending"))
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	pending, err := db.ListUnclassified(ctx, 0)
	if err != nil {
		t.Fatalf("ListUnclassified failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("expected the new activity to be pending: %+v", pending)
	}

	if err := db.MarkClassified(ctx, id); err != nil {
		t.Fatalf("MarkClassified failed: %v", err)
	}
	pending, err = db.ListUnclassified(ctx, 0)
	if err != nil {
		t.Fatalf("ListUnclassified failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending activities after marking, got %d", len(pending))
	}
}

func TestFindUserByUsername(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	missing, err := db.FindUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("FindUserByUsername failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for a missing user, got %+v", missing)
	}

	id, err := db.EnsureUser(ctx, "admin", "Repository Scraper")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	again, err := db.EnsureUser(ctx, "admin", "Repository Scraper")
	if err != nil {
		t.Fatalf("second EnsureUser failed: %v", err)
	}
	if id != again {
		t.Fatalf("EnsureUser must be idempotent: %d != %d", id, again)
	}

	found, err := db.FindUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("FindUserByUsername failed: %v", err)
	}
	if found == nil || found.ID != id {
		t.Fatalf("expected to find the created user, got %+v", found)
	}
}

func TestDashboardAndSDGStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	pub := sampleData("A Publication")
	id, _, err := db.UpsertActivityByExternalURL(ctx, "http://repo.example/a", pub)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	res := sampleData("A Thesis")
	res.ActivityType = TypeResearch
	if _, _, err := db.UpsertActivityByExternalURL(ctx, "http://repo.example/b", res); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := db.UpsertImpact(ctx, SDGImpact{ActivityID: id, SDGNumber: 6, Score: 90, Justification: "water"}); err != nil {
		t.Fatalf("impact upsert failed: %v", err)
	}

	dash, err := db.GetDashboardStats(ctx)
	if err != nil {
		t.Fatalf("GetDashboardStats failed: %v", err)
	}
	if dash.TotalActivities != 2 || dash.TotalPublications != 1 || dash.TotalResearch != 1 {
		t.Fatalf("unexpected dashboard counts: %+v", dash)
	}
	if dash.ActiveSDGs != 1 {
		t.Fatalf("expected 1 active SDG, got %d", dash.ActiveSDGs)
	}

	sdgs, err := db.GetSDGStats(ctx)
	if err != nil {
		t.Fatalf("GetSDGStats failed: %v", err)
	}
	if len(sdgs) != 17 {
		t.Fatalf("expected all 17 goals, got %d", len(sdgs))
	}
	if sdgs[5].Number != 6 || sdgs[5].ActivityCount != 1 || sdgs[5].AverageScore != 90 {
		t.Fatalf("unexpected stats for SDG 6: %+v", sdgs[5])
	}
	if sdgs[5].Name != "Clean Water and Sanitation" {
		t.Fatalf("seed data missing: %+v", sdgs[5])
	}

	summary, err := db.GetSDGSummary(ctx, 6)
	if err != nil {
		t.Fatalf("GetSDGSummary failed: %v", err)
	}
	if summary.TotalActivities != 1 || summary.MaxScore != 90 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
