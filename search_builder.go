package audiodex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

// SearchBuilder is a fluent builder for descriptor searches.
// Each descriptor method takes criterion text; an empty criterion only requires the descriptor to exist.
type SearchBuilder struct {
	svc        *SearchService
	collection string

	params     map[string]string
	namespaces []string
	limit      int
	offset     int
}

// Tempo adds a tempo criterion, e.g. "120-5%" or ">100".
func (b *SearchBuilder) Tempo(criterion string) *SearchBuilder {
	return b.Where(string(descriptor.Tempo), criterion)
}

// Tuning adds a tuning criterion in Hz, e.g. "440-2".
func (b *SearchBuilder) Tuning(criterion string) *SearchBuilder {
	return b.Where(string(descriptor.Tuning), criterion)
}

// Duration adds a duration criterion in seconds, e.g. "<=180".
func (b *SearchBuilder) Duration(criterion string) *SearchBuilder {
	return b.Where(string(descriptor.Duration), criterion)
}

// Key adds a global key criterion, e.g. "Aminor" or "C#".
func (b *SearchBuilder) Key(criterion string) *SearchBuilder {
	return b.Where(string(descriptor.GlobalKey), criterion)
}

// Chords adds a chords criterion, e.g. "Amin-Emaj,80%".
func (b *SearchBuilder) Chords(criterion string) *SearchBuilder {
	return b.Where(string(descriptor.Chords), criterion)
}

// Mood adds a mood criterion, e.g. "happy".
func (b *SearchBuilder) Mood(criterion string) *SearchBuilder {
	return b.Where(string(descriptor.Mood), criterion)
}

// Where adds a criterion by descriptor name. A later call for the same name replaces the earlier one.
func (b *SearchBuilder) Where(name, criterion string) *SearchBuilder {
	b.params[name] = criterion
	return b
}

// In restricts results to ids in the given namespaces.
func (b *SearchBuilder) In(namespaces ...string) *SearchBuilder {
	b.namespaces = append(b.namespaces, namespaces...)
	return b
}

// Limit sets the page size.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.limit = n
	return b
}

// Offset skips the first n results.
func (b *SearchBuilder) Offset(n int) *SearchBuilder {
	b.offset = n
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) ([]Row, error) {
	rows, err := b.svc.Query(ctx, b.params, b.options())
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", b.collection, err)
	}
	return rows, nil
}

// Explain returns the compiled stage list without executing it.
func (b *SearchBuilder) Explain(ctx context.Context) (string, error) {
	return b.svc.Explain(ctx, b.params, b.options())
}

func (b *SearchBuilder) options() *SearchOptions {
	return &SearchOptions{Namespaces: b.namespaces, Limit: b.limit, Offset: b.offset}
}
