// Package resolver turns query-by-example modifiers into criterion text using
// descriptors computed on the submitted audio.
package resolver

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

const numericModifierGrammar = `expected "" (any), a comparator "<", "<=", ">", ">=" optionally followed ` +
	`by a window D ("<5" means below the sample's value and within 5 of it), "-T%" (tolerance ` +
	`around the sample's value), "-D" (absolute window around it) or a complete criterion`

var (
	comparatorModifier = regexp.MustCompile(`^(<=|>=|<|>)([0-9]*\.?[0-9]*)$`)
	toleranceModifier  = regexp.MustCompile(`^-([0-9]*\.?[0-9]+)%$`)
	windowModifier     = regexp.MustCompile(`^-([0-9]*\.?[0-9]+)$`)
	coverageModifier   = regexp.MustCompile(`^,?([0-9]*\.?[0-9]+)%$`)
)

// Resolver rewrites audio-mode parameters into text criteria.
type Resolver struct {
	analyzer domain.Analyzer
}

// New creates a resolver backed by the descriptor computation service.
func New(analyzer domain.Analyzer) *Resolver {
	return &Resolver{analyzer: analyzer}
}

// rewrite renders one parameter's criterion text from the computed descriptors.
type rewrite func(a *domain.Analysis) (string, error)

// Resolve returns criterion text per descriptor parameter. The analysis service is called
// at most once, with every descriptor any modifier needs; modifiers are validated first.
func (r *Resolver) Resolve(
	ctx context.Context, audio []byte, params map[string]string,
) (map[string]string, error) {
	if len(params) == 0 {
		return nil, domain.NewValidationError("at least one search criterion is required")
	}

	for name := range params {
		if _, ok := descriptor.ParseName(name); !ok {
			return nil, domain.NewValidationError(
				"unknown descriptor %q, expected one of: %s", name, descriptor.NameList(),
			)
		}
	}

	out := make(map[string]string, len(params))
	rewrites := make(map[descriptor.Name]rewrite)
	for _, name := range descriptor.Names {
		raw, ok := params[string(name)]
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		fn, err := plan(name, raw)
		if err != nil {
			return nil, err
		}
		if fn == nil {
			out[string(name)] = raw
			continue
		}
		rewrites[name] = fn
	}
	if len(rewrites) == 0 {
		return out, nil
	}

	needed := make([]descriptor.Name, 0, len(rewrites))
	for _, name := range descriptor.Names {
		if _, ok := rewrites[name]; ok {
			needed = append(needed, name)
		}
	}

	analysis, err := r.analyzer.Analyze(ctx, audio, needed)
	if err != nil {
		return nil, fmt.Errorf("compute descriptors: %w", err)
	}

	for _, name := range needed {
		text, err := rewrites[name](&analysis)
		if err != nil {
			return nil, err
		}
		out[string(name)] = text
	}
	return out, nil
}

// plan validates a modifier and returns how to rewrite it, or nil when it passes through unchanged.
func plan(name descriptor.Name, raw string) (rewrite, error) {
	if name.IsNumeric() {
		return planNumeric(name, raw)
	}
	switch name {
	case descriptor.GlobalKey:
		if raw != "" {
			return nil, nil
		}
		return func(a *domain.Analysis) (string, error) {
			key, ok := a.CompactKey()
			if !ok {
				return "", missing(name)
			}
			return key, nil
		}, nil
	case descriptor.Chords:
		return planChords(raw)
	case descriptor.Mood:
		if raw != "" {
			return nil, nil
		}
		return func(a *domain.Analysis) (string, error) {
			e, ok := a.DominantEmotion()
			if !ok {
				return "", missing(name)
			}
			return string(e), nil
		}, nil
	}
	return nil, nil
}

func planNumeric(name descriptor.Name, raw string) (rewrite, error) {
	if raw == "" || startsWithDigit(raw) {
		return nil, nil
	}

	value := func(a *domain.Analysis) (float64, error) {
		v, ok := a.Number(name)
		if !ok {
			return 0, missing(name)
		}
		return v, nil
	}

	if m := comparatorModifier.FindStringSubmatch(raw); m != nil {
		op, window := m[1], m[2]
		if window != "" {
			if _, err := strconv.ParseFloat(window, 64); err != nil {
				return nil, modifierError(name, raw)
			}
		}
		return func(a *domain.Analysis) (string, error) {
			v, err := value(a)
			if err != nil {
				return "", err
			}
			if window == "" {
				return op + formatFloat(v), nil
			}
			return op + formatFloat(v) + "~" + window, nil
		}, nil
	}

	if m := toleranceModifier.FindStringSubmatch(raw); m != nil {
		tol, err := strconv.ParseFloat(m[1], 64)
		if err != nil || tol > 100 {
			return nil, modifierError(name, raw)
		}
		return func(a *domain.Analysis) (string, error) {
			v, err := value(a)
			if err != nil {
				return "", err
			}
			return formatFloat(v) + "-" + m[1] + "%", nil
		}, nil
	}

	if m := windowModifier.FindStringSubmatch(raw); m != nil {
		d, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, modifierError(name, raw)
		}
		return func(a *domain.Analysis) (string, error) {
			v, err := value(a)
			if err != nil {
				return "", err
			}
			// descriptor values are positive; a window wider than the value starts at zero
			lower := math.Max(v-d, 0)
			return formatFloat(lower) + "-" + formatFloat(v+d), nil
		}, nil
	}

	return nil, modifierError(name, raw)
}

func planChords(raw string) (rewrite, error) {
	var suffix string
	if raw != "" {
		m := coverageModifier.FindStringSubmatch(raw)
		if m == nil {
			return nil, nil
		}
		suffix = "," + m[1] + "%"
	}
	return func(a *domain.Analysis) (string, error) {
		labels, ok := a.ChordLabels()
		if !ok {
			return "", missing(descriptor.Chords)
		}
		if len(labels) == 0 {
			return "", nil
		}
		return strings.Join(labels, "-") + suffix, nil
	}, nil
}

func startsWithDigit(s string) bool {
	return s[0] >= '0' && s[0] <= '9'
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func modifierError(name descriptor.Name, raw string) error {
	return domain.NewValidationError("invalid %s modifier %q: %s", name, raw, numericModifierGrammar)
}

func missing(name descriptor.Name) error {
	return &domain.UpstreamError{
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("analysis response is missing %s", name),
	}
}
