package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/domain/search/filter"
)

type searchEntry struct {
	Key    string
	Fields map[string]string
}

type searchPage struct {
	Total   int
	Entries []searchEntry
}

// search runs a paginated FT.SEARCH returning the requested fields, ordered
// ascending by the sortBy field when it is set.
func (s *Store) search(
	ctx context.Context, index, query, sortBy string, offset, limit int, fields ...string,
) (*searchPage, error) {
	args := []string{index, query}
	if len(fields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(fields)))
		args = append(args, fields...)
	}
	if sortBy != "" {
		args = append(args, "SORTBY", sortBy, "ASC")
	}
	args = append(args, "LIMIT", strconv.Itoa(offset), strconv.Itoa(limit), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseSearchResult(raw)
}

func parseSearchResult(raw []rueidis.RedisMessage) (*searchPage, error) {
	if len(raw) == 0 {
		return &searchPage{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &searchPage{}, nil
	}

	entries := make([]searchEntry, 0, len(raw)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		entries = append(entries, searchEntry{Key: key, Fields: parseFieldPairs(fields)})
	}

	return &searchPage{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Filter building ---

// buildFilter translates filter.Expression into an FT.SEARCH query string.
// The empty expression matches every document.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return "*"
	}

	parts := make([]string, 0, len(expr.Must()))
	for _, cond := range expr.Must() {
		switch {
		case cond.IsPrefix():
			parts = append(parts, buildPrefixFilter(queryField(cond.Key()), cond.Prefixes()))
		case cond.IsRange():
			parts = append(parts, buildNumericFilter(queryField(cond.Key()), *cond.Range()))
		}
	}
	return strings.Join(parts, " ")
}

// queryField maps a document field path to its index alias.
func queryField(key string) string {
	return strings.ReplaceAll(key, ".", "_")
}

func buildPrefixFilter(key string, prefixes []string) string {
	alts := make([]string, len(prefixes))
	for i, p := range prefixes {
		alts[i] = tagEscaper.Replace(p) + "*"
	}
	return fmt.Sprintf("@%s:{%s}", key, strings.Join(alts, " | "))
}

func buildNumericFilter(key string, r filter.Range) string {
	minBound := "-inf"
	maxBound := "+inf"

	if r.GT() != nil {
		minBound = fmt.Sprintf("(%g", *r.GT())
	} else if r.GTE() != nil {
		minBound = fmt.Sprintf("%g", *r.GTE())
	}

	if r.LT() != nil {
		maxBound = fmt.Sprintf("(%g", *r.LT())
	} else if r.LTE() != nil {
		maxBound = fmt.Sprintf("%g", *r.LTE())
	}

	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)
