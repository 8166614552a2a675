package db

import (
	"fmt"

	"github.com/kailas-cloud/audiodex/internal/domain/search/filter"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

// PushdownFilter converts predicates lifted by pipeline.SplitPushdown into a filter
// expression. Only Range and IDPrefix predicates are accepted.
func PushdownFilter(preds []pipeline.Predicate) (filter.Expression, error) {
	conds := make([]filter.Condition, 0, len(preds))
	for _, p := range preds {
		var (
			cond filter.Condition
			err  error
		)
		switch p := p.(type) {
		case pipeline.Range:
			cond, err = rangeCondition(p)
		case pipeline.IDPrefix:
			cond, err = filter.NewPrefix(pipeline.FieldID, p.Prefixes...)
		default:
			return filter.Expression{}, fmt.Errorf("%w: %s", ErrUnsupported, p)
		}
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, cond)
	}
	return filter.NewExpression(conds...)
}

func rangeCondition(p pipeline.Range) (filter.Condition, error) {
	var gt, gte, lt, lte *float64
	if p.Lower != nil {
		v := p.Lower.Value
		if p.Lower.Inclusive {
			gte = &v
		} else {
			gt = &v
		}
	}
	if p.Upper != nil {
		v := p.Upper.Value
		if p.Upper.Inclusive {
			lte = &v
		} else {
			lt = &v
		}
	}
	r, err := filter.NewRangeFilter(gt, gte, lt, lte)
	if err != nil {
		return filter.Condition{}, err
	}
	return filter.NewRange(p.Field, r)
}
