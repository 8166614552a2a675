package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
	"github.com/kailas-cloud/audiodex/internal/pipeline/eval"
)

// scanBatch is the FT.SEARCH page size used to collect prefiltered candidates.
// Every page is ordered by id, and offset+limit may not pass the server's
// MAXSEARCHRESULTS (10000 by default), so candidate sets beyond that need the
// setting raised or narrower pushed-down filters.
const scanBatch = 1000

func (s *Store) docPrefix(collection string) string { return s.prefix + collection + ":doc:" }

func (s *Store) docKey(collection, id string) string { return s.docPrefix(collection) + id }

func (s *Store) indexName(collection string) string { return s.prefix + "idx:" + collection }

// DescriptorIndex is the FT index over one collection's JSON documents.
// Aliases follow queryField so pushdown filters address them directly.
func (s *Store) DescriptorIndex(collection string) *db.IndexDefinition {
	b := db.NewIndex(s.indexName(collection)).
		OnJSON().
		Prefix(s.docPrefix(collection)).
		TagAs("$.id", pipeline.FieldID).Sortable()
	for _, f := range []string{"tempo", "tuning", "duration", pipeline.FieldChordsConfidence} {
		b.NumericAs("$."+f, queryField(f))
	}
	return b.MustBuild()
}

// EnsureCollection creates the collection's FT index when it does not exist yet.
func (s *Store) EnsureCollection(ctx context.Context, collection string) error {
	idx := s.DescriptorIndex(collection)
	exists, err := s.IndexExists(ctx, idx.Name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := s.CreateIndex(ctx, idx); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return err
	}
	return nil
}

// Upsert stores the document as JSON, replacing any previous version.
func (s *Store) Upsert(ctx context.Context, collection string, doc descriptor.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	return s.JSONSet(ctx, s.docKey(collection, doc.ID), "$", data)
}

// Get loads one document.
func (s *Store) Get(ctx context.Context, collection, id string) (descriptor.Document, error) {
	data, err := s.JSONGet(ctx, s.docKey(collection, id))
	if err != nil {
		return descriptor.Document{}, err
	}
	var doc descriptor.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return descriptor.Document{}, &db.Error{Op: db.OpDecode, Err: err}
	}
	return doc, nil
}

// Count returns the number of indexed documents in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	page, err := s.search(ctx, s.indexName(collection), "*", "", 0, 0)
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

// Execute pushes stored-field ranges and namespace prefixes into FT.SEARCH and runs
// the remaining stages in process over the candidates. Pagination over id order is
// served by a single FT.SEARCH page.
func (s *Store) Execute(
	ctx context.Context, collection string, stages []pipeline.Stage,
) ([]pipeline.Row, error) {
	pushed, residual := pipeline.SplitPushdown(stages, pipeline.StoredPredicate)
	expr, err := db.PushdownFilter(pushed)
	if err != nil {
		return nil, &db.Error{Op: db.OpExecute, Err: err}
	}

	index, query := s.indexName(collection), buildFilter(expr)
	var docs []descriptor.Document
	if body, offset, limit, ok := pipeline.PushdownPaging(residual); ok {
		docs, err = s.page(ctx, index, query, offset, limit)
		residual = body
	} else {
		docs, err = s.scan(ctx, index, query)
	}
	if err != nil {
		return nil, err
	}

	rows, err := eval.Run(docs, residual)
	if err != nil {
		return nil, &db.Error{Op: db.OpExecute, Err: err}
	}
	return rows, nil
}

func (s *Store) page(ctx context.Context, index, query string, offset, limit int) ([]descriptor.Document, error) {
	page, err := s.search(ctx, index, query, pipeline.FieldID, offset, limit, "$")
	if err != nil {
		return nil, err
	}
	return decodeEntries(page.Entries, nil, nil)
}

// scan collects every candidate page by page. An upsert between pages can shift a
// page boundary, so documents already collected are skipped.
func (s *Store) scan(ctx context.Context, index, query string) ([]descriptor.Document, error) {
	var docs []descriptor.Document
	seen := make(map[string]bool)
	for offset := 0; ; offset += scanBatch {
		page, err := s.search(ctx, index, query, pipeline.FieldID, offset, scanBatch, "$")
		if err != nil {
			return nil, err
		}
		if docs, err = decodeEntries(page.Entries, docs, seen); err != nil {
			return nil, err
		}
		if len(page.Entries) == 0 || offset+scanBatch >= page.Total {
			return docs, nil
		}
	}
}

func decodeEntries(entries []searchEntry, docs []descriptor.Document, seen map[string]bool) ([]descriptor.Document, error) {
	for _, e := range entries {
		raw, ok := e.Fields["$"]
		if !ok {
			continue
		}
		var doc descriptor.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, &db.Error{Op: db.OpDecode, Err: fmt.Errorf("%s: %w", e.Key, err)}
		}
		if seen != nil {
			if seen[doc.ID] {
				continue
			}
			seen[doc.ID] = true
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
