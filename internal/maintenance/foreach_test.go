package maintenance

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/3stan1104/GeneFlow/internal/docstore"
	"github.com/3stan1104/GeneFlow/internal/model"
)

func seedNestedStudents(t *testing.T, store *docstore.MemoryStore, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("stu-%04d", i)
		err := store.Set(ctx, model.CollectionStudents, id, map[string]interface{}{
			"id":       id,
			"progress": 2,
			"character": map[string]interface{}{
				"gender": "Male",
				"head": map[string]interface{}{
					"type":      "HE00",
					"eyesMouth": "EM00",
					"ears":      "E00",
					"hair":      "",
				},
				"torso": "T01",
			},
		})
		if err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
}

func TestCharacterMigrationIsIdempotent(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx := context.Background()
	seedNestedStudents(t, store, 25)

	first, err := ForEachDocument(ctx, store, model.CollectionStudents, MigrateCharacters(), zerolog.Nop())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Updated != 25 {
		t.Fatalf("first run should migrate all 25, got %d", first.Updated)
	}

	second, err := ForEachDocument(ctx, store, model.CollectionStudents, MigrateCharacters(), zerolog.Nop())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Updated != 0 {
		t.Fatalf("second run must queue zero writes, got %d", second.Updated)
	}
	if second.Skipped != 25 {
		t.Fatalf("second run should skip all 25, got %d", second.Skipped)
	}

	// Migration must not clobber unrelated fields.
	doc, err := store.Get(ctx, model.CollectionStudents, "stu-0000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Data["progress"] != 2 {
		t.Fatalf("progress should survive migration: %v", doc.Data["progress"])
	}
	character := doc.Data["character"].(map[string]interface{})
	if character["head"] != "HE00" || character["torso"] != "T01" {
		t.Fatalf("flattened character wrong: %v", character)
	}
}

func TestSweepBatchesEvery400Documents(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx := context.Background()
	seedNestedStudents(t, store, 1001)

	result, err := ForEachDocument(ctx, store, model.CollectionStudents, BackfillTutorial(true), zerolog.Nop())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Updated != 1001 {
		t.Fatalf("expected 1001 updates, got %d", result.Updated)
	}
	if result.Commits != 3 {
		t.Fatalf("expected 3 commits (400, 400, 201), got %d", result.Commits)
	}
}

func TestBackfillTutorialSkipsAlreadySet(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, model.CollectionStudents, "done", map[string]interface{}{"tutorialCompleted": true})
	_ = store.Set(ctx, model.CollectionStudents, "todo", map[string]interface{}{"tutorialCompleted": false})

	result, err := ForEachDocument(ctx, store, model.CollectionStudents, BackfillTutorial(true), zerolog.Nop())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Updated != 1 || result.Skipped != 1 {
		t.Fatalf("expected 1 update / 1 skip, got %+v", result)
	}
}

func TestAdjustLastPlayedStaysInWindow(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx := context.Background()
	seedNestedStudents(t, store, 10)

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(42))

	if _, err := ForEachDocument(ctx, store, model.CollectionStudents, AdjustLastPlayed(rng, start, end), zerolog.Nop()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	docs, _ := store.Query(ctx, model.CollectionStudents)
	for _, doc := range docs {
		raw, ok := doc.Data["lastPlayedAt"].(string)
		if !ok {
			t.Fatalf("lastPlayedAt missing on %s", doc.Key)
		}
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			t.Fatalf("bad timestamp %q: %v", raw, err)
		}
		if at.Before(start) || !at.Before(end) {
			t.Fatalf("timestamp %s outside [%s, %s)", at, start, end)
		}
	}
}

func TestRandomMutationsStayInRange(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx := context.Background()
	seedNestedStudents(t, store, 20)

	rng := rand.New(rand.NewSource(9))
	if _, err := ForEachDocument(ctx, store, model.CollectionStudents, RandomMutations(rng, 10, 5), zerolog.Nop()); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	docs, _ := store.Query(ctx, model.CollectionStudents)
	for _, doc := range docs {
		mutations := doc.Data["mutations"].(map[string]interface{})
		cured := mutations["cured"].(int)
		failed := mutations["failed"].(int)
		if cured < 0 || cured > 10 || failed < 0 || failed > 5 {
			t.Fatalf("counters out of range on %s: cured=%d failed=%d", doc.Key, cured, failed)
		}
	}
}
