package history

import (
	"testing"
	"time"

	"github.com/playthelist/playtl/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewStore(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return store
}

func TestStore(t *testing.T) {
	t.Run("SaveAndList", func(t *testing.T) {
		store := newTestStore(t)

		rec := &Record{
			SourceURL:      "https://open.spotify.com/playlist/abc",
			SourcePlatform: "spotify",
			TargetPlatform: "youtube",
			PlaylistName:   "Road Trip",
			PlaylistURL:    "https://music.youtube.com/playlist?list=PLxyz",
			TotalTracks:    12,
			ResolvedTracks: 10,
			Missing:        []string{"Song B - Artist Y", "Song C - Artist Z"},
		}
		if err := store.Save(rec); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if rec.ID == "" {
			t.Error("expected generated ID")
		}
		if rec.CreatedAt.IsZero() {
			t.Error("expected generated CreatedAt")
		}

		records, err := store.List(10)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}

		got := records[0]
		if got.PlaylistName != "Road Trip" || got.ResolvedTracks != 10 {
			t.Errorf("unexpected record: %+v", got)
		}
		if len(got.Missing) != 2 || got.Missing[0] != "Song B - Artist Y" {
			t.Errorf("missing list not preserved: %v", got.Missing)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		store := newTestStore(t)

		base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
		for i, name := range []string{"Oldest", "Middle", "Newest"} {
			rec := &Record{
				PlaylistName: name,
				CreatedAt:    base.Add(time.Duration(i) * time.Hour),
			}
			if err := store.Save(rec); err != nil {
				t.Fatalf("save failed: %v", err)
			}
		}

		records, err := store.List(10)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if records[0].PlaylistName != "Newest" || records[2].PlaylistName != "Oldest" {
			t.Errorf("unexpected ordering: %s, %s, %s",
				records[0].PlaylistName, records[1].PlaylistName, records[2].PlaylistName)
		}
	})

	t.Run("ListHonorsLimit", func(t *testing.T) {
		store := newTestStore(t)

		base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
		for i := range 5 {
			rec := &Record{
				PlaylistName: "Playlist",
				CreatedAt:    base.Add(time.Duration(i) * time.Minute),
			}
			if err := store.Save(rec); err != nil {
				t.Fatalf("save failed: %v", err)
			}
		}

		records, err := store.List(2)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("expected 2 records, got %d", len(records))
		}
	})

	t.Run("EmptyMissingRoundTrips", func(t *testing.T) {
		store := newTestStore(t)

		if err := store.Save(&Record{PlaylistName: "Clean Sweep"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		records, err := store.List(1)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(records[0].Missing) != 0 {
			t.Errorf("expected no missing tracks, got %v", records[0].Missing)
		}
	})
}
