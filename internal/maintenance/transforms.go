package maintenance

import (
	"math/rand"
	"time"

	"github.com/3stan1104/GeneFlow/internal/docstore"
	"github.com/3stan1104/GeneFlow/internal/model"
)

// BackfillDefaults resets every student document to the schema default,
// keeping only its identity (id and studentNumber follow the storage
// key, matching how historical documents were seeded).
func BackfillDefaults() Transform {
	return func(doc docstore.Document) *Mutation {
		fields := model.DefaultStudentFields(doc.Key, "", "", "", "", "")
		return &Mutation{Fields: fields, Replace: true}
	}
}

// BackfillTutorial sets tutorialCompleted on every document, skipping
// documents already carrying the target value.
func BackfillTutorial(completed bool) Transform {
	return func(doc docstore.Document) *Mutation {
		if current, ok := doc.Data["tutorialCompleted"].(bool); ok && current == completed {
			return nil
		}
		return &Mutation{Fields: map[string]interface{}{"tutorialCompleted": completed}}
	}
}

// AdjustLastPlayed assigns each document a uniformly random lastPlayedAt
// within [start, end), stored as RFC3339.
func AdjustLastPlayed(rng *rand.Rand, start, end time.Time) Transform {
	window := end.Sub(start)
	return func(doc docstore.Document) *Mutation {
		at := start.Add(time.Duration(rng.Int63n(int64(window))))
		return &Mutation{Fields: map[string]interface{}{
			"lastPlayedAt": at.UTC().Format(time.RFC3339),
		}}
	}
}

// RandomMutations assigns random cured/failed mutation counters via
// dot-path updates, leaving the rest of the mutations object intact.
func RandomMutations(rng *rand.Rand, maxCured, maxFailed int) Transform {
	return func(doc docstore.Document) *Mutation {
		return &Mutation{Fields: map[string]interface{}{
			"mutations.cured":  rng.Intn(maxCured + 1),
			"mutations.failed": rng.Intn(maxFailed + 1),
		}}
	}
}

// RandomCharacters regenerates every document's character from the parts
// catalog. An existing character gender is kept; otherwise one is rolled.
func RandomCharacters(rng *rand.Rand, mutationChance float64, maxMutations int) Transform {
	return func(doc docstore.Document) *Mutation {
		gender := ""
		if character, ok := doc.Data["character"].(map[string]interface{}); ok {
			gender = stringOr(character["gender"], "")
		}
		if gender == "" {
			gender = "Male"
			if rng.Intn(2) == 1 {
				gender = "Female"
			}
		}
		return &Mutation{Fields: map[string]interface{}{
			"character": RandomCharacter(rng, gender, mutationChance, maxMutations),
		}}
	}
}

// MigrateCharacters converts old nested character structures to the flat
// shape. Documents already migrated are skipped, so a second run queues
// zero writes.
func MigrateCharacters() Transform {
	return func(doc docstore.Document) *Mutation {
		if !NeedsCharacterMigration(doc.Data) {
			return nil
		}
		return &Mutation{Fields: map[string]interface{}{
			"character": MigrateCharacter(doc.Data["character"]),
		}}
	}
}
