// Package maintenance implements the one-shot batched jobs that rewrite
// the student collection: schema backfills, cosmetic regeneration, and
// shape migrations. All jobs share one scan/transform/batch loop.
package maintenance

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/3stan1104/GeneFlow/internal/docstore"
)

// Mutation is the write a Transform wants applied to one document.
// Replace overwrites the full document body instead of merging.
type Mutation struct {
	Fields  map[string]interface{}
	Replace bool
}

// Transform inspects one document and returns the mutation to queue, or
// nil to skip the document. Transforms must be pure.
type Transform func(doc docstore.Document) *Mutation

// Result summarizes a collection sweep.
type Result struct {
	Updated int
	Skipped int
	Commits int
}

// ForEachDocument streams every document in a collection through the
// transform, accumulating writes into a batch writer that commits every
// 400 queued operations plus a final partial commit.
func ForEachDocument(ctx context.Context, store docstore.Store, collection string, transform Transform, log zerolog.Logger) (Result, error) {
	result := Result{}

	docs, err := store.Query(ctx, collection)
	if err != nil {
		return result, err
	}
	if len(docs) == 0 {
		log.Info().Str("collection", collection).Msg("No documents found")
		return result, nil
	}

	batch := store.Batch()
	for _, doc := range docs {
		mutation := transform(doc)
		if mutation == nil {
			result.Skipped++
			log.Debug().Str("id", doc.Key).Msg("Skipped")
			continue
		}

		if mutation.Replace {
			err = batch.Set(ctx, collection, doc.Key, mutation.Fields)
		} else {
			err = batch.Update(ctx, collection, doc.Key, mutation.Fields)
		}
		if err != nil {
			return result, err
		}
		result.Updated++
		log.Debug().Str("id", doc.Key).Msg("Queued")
	}

	commits, err := batch.Commit(ctx)
	result.Commits = commits
	if err != nil {
		return result, err
	}

	log.Info().
		Str("collection", collection).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("commits", result.Commits).
		Msg("Sweep complete")
	return result, nil
}
