// Package eval executes pipeline stages in process over descriptor documents.
package eval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

// Run executes stages over docs. Input documents are not modified.
func Run(docs []descriptor.Document, stages []pipeline.Stage) ([]pipeline.Row, error) {
	rows := make([]pipeline.Row, len(docs))
	for i := range docs {
		rows[i] = pipeline.Row{Doc: docs[i]}
	}
	return RunRows(rows, stages)
}

// RunRows executes stages over rows that may already carry derived fields.
func RunRows(rows []pipeline.Row, stages []pipeline.Stage) ([]pipeline.Row, error) {
	for _, st := range stages {
		switch s := st.(type) {
		case pipeline.Match:
			kept := rows[:0:0]
			for i := range rows {
				if Matches(&rows[i], s.Predicate) {
					kept = append(kept, rows[i])
				}
			}
			rows = kept
		case pipeline.AddFields:
			for i := range rows {
				derive(&rows[i], s.Derivation)
			}
		case pipeline.Sort:
			sortRows(rows, s.Keys)
		case pipeline.Project:
			for i := range rows {
				project(&rows[i], s.Exclude)
			}
		case pipeline.Skip:
			if s.N >= len(rows) {
				rows = rows[:0]
			} else {
				rows = rows[s.N:]
			}
		case pipeline.Limit:
			if s.N < len(rows) {
				rows = rows[:s.N]
			}
		default:
			return nil, fmt.Errorf("unsupported stage %T", st)
		}
	}
	return rows, nil
}

// Matches evaluates a predicate against a row. Missing fields never match.
func Matches(r *pipeline.Row, p pipeline.Predicate) bool {
	switch p := p.(type) {
	case pipeline.Range:
		v, ok := r.Number(p.Field)
		return ok && p.Contains(v)
	case pipeline.IDPrefix:
		for _, prefix := range p.Prefixes {
			if strings.HasPrefix(r.Doc.ID, prefix) {
				return true
			}
		}
		return false
	case pipeline.KeyMatch:
		for _, v := range r.Doc.Key.Variants() {
			if v.Estimate.Matches(p.Tonic, p.Scale) {
				return true
			}
		}
		return false
	case pipeline.Equals:
		v, ok := r.Text(p.Field)
		return ok && v == p.Value
	}
	return false
}

func derive(r *pipeline.Row, d pipeline.Derivation) {
	switch d := d.(type) {
	case pipeline.Distance:
		v, ok := r.Doc.Number(d.Field)
		if !ok {
			return
		}
		if r.Distances == nil {
			r.Distances = make(map[string]float64, 1)
		}
		dist := v - d.Target
		if dist < 0 {
			dist = -dist
		}
		r.Distances[pipeline.DistanceField(d.Field)] = dist
	case pipeline.ChordCoverage:
		if r.Doc.Chords == nil {
			return
		}
		cov, covered := r.Doc.Chords.Coverage(d.Labels)
		r.Coverage = &cov
		r.CoveredChords = &covered
	case pipeline.BestKey:
		if r.Doc.Key == nil {
			return
		}
		if best, ok := r.Doc.Key.BestKey(d.Tonic, d.Scale); ok {
			r.BestKey = &best
		}
	case pipeline.DominantMood:
		if m, ok := descriptor.DominantMood(r.Doc.Mood); ok {
			r.MoodDominant = &m
		}
	}
}

// sortRows is stable. Missing values order after present ones in either direction.
func sortRows(rows []pipeline.Row, keys []pipeline.SortKey) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compare(&rows[i], &rows[j], k.Field)
			if c == 0 {
				continue
			}
			if c == missingLast || c == -missingLast {
				return c < 0
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

const missingLast = 2

func compare(a, b *pipeline.Row, field string) int {
	if sa, ok := a.Text(field); ok {
		sb, _ := b.Text(field)
		return strings.Compare(sa, sb)
	}
	va, okA := a.Number(field)
	vb, okB := b.Number(field)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return missingLast
	case !okB:
		return -missingLast
	case va < vb:
		return -1
	case va > vb:
		return 1
	}
	return 0
}

func project(r *pipeline.Row, exclude []string) {
	for _, f := range exclude {
		switch f {
		case pipeline.FieldChordsRatio, pipeline.FieldChordsDistinct:
			if r.Doc.Chords == nil {
				continue
			}
			c := *r.Doc.Chords
			if f == pipeline.FieldChordsRatio {
				c.ChordRatio = nil
			} else {
				c.DistinctChords = 0
			}
			r.Doc.Chords = &c
		}
	}
}
