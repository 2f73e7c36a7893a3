package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/trendscout/uts-engine/internal/config"
	"github.com/trendscout/uts-engine/internal/domain"
)

func newTestVideoRepo(t *testing.T) *VideoRepository {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "uts_test.db"),
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	return NewVideoRepository(db)
}

func scoredVideo(id string, score float64, createdAt time.Time) *domain.VideoRecord {
	s := score
	return &domain.VideoRecord{
		VideoID:   id,
		URL:       "https://example.com/" + id,
		PostedAt:  createdAt.Add(-24 * time.Hour),
		Scored:    true,
		UTSScore:  &s,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestListScoredDeterministicTieOrder(t *testing.T) {
	repo := newTestVideoRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Two videos tie at 70.0; their relative order must follow insertion
	// (created_at), not driver whim.
	records := []*domain.VideoRecord{
		scoredVideo("tie-a", 70.0, base),
		scoredVideo("top", 90.0, base.Add(1*time.Minute)),
		scoredVideo("tie-b", 70.0, base.Add(2*time.Minute)),
		scoredVideo("low", 40.0, base.Add(3*time.Minute)),
	}
	for _, record := range records {
		if err := repo.Upsert(ctx, record); err != nil {
			t.Fatalf("Upsert(%s): %v", record.VideoID, err)
		}
	}

	want := []string{"top", "tie-a", "tie-b", "low"}
	for run := 0; run < 3; run++ {
		got, err := repo.ListScored(ctx, 10, 0)
		if err != nil {
			t.Fatalf("ListScored: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("run %d: %d records, want %d", run, len(got), len(want))
		}
		for i, id := range want {
			if got[i].VideoID != id {
				t.Errorf("run %d: record[%d] = %s, want %s", run, i, got[i].VideoID, id)
			}
		}
	}
}

func TestListScoredExcludesUnscored(t *testing.T) {
	repo := newTestVideoRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.Upsert(ctx, scoredVideo("scored", 55.0, base)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	unscored := &domain.VideoRecord{
		VideoID:  "pending",
		URL:      "https://example.com/pending",
		PostedAt: base.Add(-24 * time.Hour),
	}
	if err := repo.Upsert(ctx, unscored); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.ListScored(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListScored: %v", err)
	}
	if len(got) != 1 || got[0].VideoID != "scored" {
		t.Errorf("ListScored = %+v, want only the scored record", got)
	}

	count, err := repo.CountScored(ctx)
	if err != nil {
		t.Fatalf("CountScored: %v", err)
	}
	if count != 1 {
		t.Errorf("CountScored = %d, want 1", count)
	}
}
