// Package importer bulk-loads JSON-lines descriptor documents into a collection.
package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	dombatch "github.com/kailas-cloud/audiodex/internal/domain/batch"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/logger"
)

const (
	// DefaultConcurrency is how many files are read at once.
	DefaultConcurrency = 4
	// DefaultBatchSize is how many documents are upserted per batch.
	DefaultBatchSize = 100

	maxLineBytes = 8 << 20
)

// BatchUpserter stores a batch of documents with per-item results.
type BatchUpserter interface {
	Upsert(ctx context.Context, collection string, items []descriptor.Document) []dombatch.Result
}

// Report summarises one import run.
type Report struct {
	RunID     string
	Files     int
	Summary   dombatch.Summary
	Malformed int
}

// Importer reads descriptor documents from a Source and upserts them in batches.
type Importer struct {
	batch       BatchUpserter
	concurrency int
	batchSize   int
}

// New creates an importer. Non-positive settings take the defaults.
func New(batch BatchUpserter, concurrency, batchSize int) *Importer {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Importer{batch: batch, concurrency: concurrency, batchSize: batchSize}
}

// Run imports every file of src into collection. Malformed lines and rejected documents
// are counted and logged; only source failures abort the run.
func (im *Importer) Run(ctx context.Context, collection string, src Source) (Report, error) {
	runID := uuid.New().String()
	log := logger.FromContext(ctx).With(zap.String("run_id", runID), zap.String("collection", collection))
	ctx = logger.ContextWithLogger(ctx, log)

	names, err := src.List(ctx)
	if err != nil {
		return Report{RunID: runID}, fmt.Errorf("list source: %w", err)
	}
	log.Info("Import started", zap.Int("files", len(names)))

	var (
		mu     sync.Mutex
		report = Report{RunID: runID, Files: len(names)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for _, name := range names {
		g.Go(func() error {
			summary, malformed, err := im.importFile(gctx, collection, src, name)
			mu.Lock()
			report.Summary = report.Summary.Add(summary)
			report.Malformed += malformed
			mu.Unlock()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	log.Info("Import finished",
		zap.Int("succeeded", report.Summary.OK),
		zap.Int("failed", report.Summary.Failed),
		zap.Int("malformed", report.Malformed),
	)
	return report, nil
}

func (im *Importer) importFile(
	ctx context.Context, collection string, src Source, name string,
) (dombatch.Summary, int, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return dombatch.Summary{}, 0, err
	}
	defer func() { _ = rc.Close() }()

	log := logger.FromContext(ctx).With(zap.String("file", name))

	var (
		summary   dombatch.Summary
		malformed int
		pending   = make([]descriptor.Document, 0, im.batchSize)
	)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		results := im.batch.Upsert(ctx, collection, pending)
		for _, r := range results {
			if r.Err() != nil {
				log.Warn("Document rejected", zap.String("id", r.ID()), zap.Error(r.Err()))
			}
		}
		summary = summary.Add(dombatch.Summarize(results))
		pending = make([]descriptor.Document, 0, im.batchSize)
	}

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64<<10), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var doc descriptor.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			malformed++
			log.Warn("Malformed line skipped", zap.Int("line", line), zap.Error(err))
			continue
		}
		pending = append(pending, doc)
		if len(pending) == im.batchSize {
			flush()
		}
		if err := ctx.Err(); err != nil {
			return summary, malformed, err
		}
	}
	if err := sc.Err(); err != nil {
		return summary, malformed, fmt.Errorf("read %s: %w", name, err)
	}
	flush()
	return summary, malformed, nil
}
