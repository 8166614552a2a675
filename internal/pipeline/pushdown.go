package pipeline

// SplitPushdown lifts Match stages a backend can evaluate natively out of the plan.
// Only matches ahead of pagination are lifted; they commute with the derive, sort
// and project stages around them because accepted predicates read stored fields only.
func SplitPushdown(stages []Stage, accept func(Predicate) bool) (pushed []Predicate, residual []Stage) {
	paginated := false
	for _, st := range stages {
		switch s := st.(type) {
		case Skip, Limit:
			paginated = true
		case Match:
			if !paginated && accept(s.Predicate) {
				pushed = append(pushed, s.Predicate)
				continue
			}
		}
		residual = append(residual, st)
	}
	return pushed, residual
}

// Paging extracts trailing Skip and Limit stages, returning the stages before them.
// limit is -1 when the plan has no Limit.
func Paging(stages []Stage) (body []Stage, offset, limit int) {
	limit = -1
	end := len(stages)
	for end > 0 {
		switch s := stages[end-1].(type) {
		case Limit:
			if limit >= 0 {
				return stages[:end], offset, limit
			}
			limit = s.N
		case Skip:
			offset += s.N
		default:
			return stages[:end], offset, limit
		}
		end--
	}
	return stages[:end], offset, limit
}

// PushdownPaging splits trailing pagination off a residual plan when a backend that
// returns candidates in id order can apply it itself. That holds only when no stage
// ahead of the pagination drops rows or orders by anything other than ascending id.
// ok is false when the plan has no Limit.
func PushdownPaging(residual []Stage) (body []Stage, offset, limit int, ok bool) {
	body, offset, limit = Paging(residual)
	if limit < 0 {
		return residual, 0, -1, false
	}
	for _, st := range body {
		switch s := st.(type) {
		case AddFields, Project:
		case Sort:
			if len(s.Keys) != 1 || s.Keys[0].Field != FieldID || s.Keys[0].Desc {
				return residual, 0, -1, false
			}
		default:
			return residual, 0, -1, false
		}
	}
	return body, offset, limit, true
}

// StoredNumericFields are the numeric document fields every backend indexes.
var StoredNumericFields = map[string]bool{
	"tempo":               true,
	"tuning":              true,
	"duration":            true,
	FieldChordsConfidence: true,
}

// StoredPredicate accepts ranges over stored numeric fields and id prefixes.
func StoredPredicate(p Predicate) bool {
	switch p := p.(type) {
	case Range:
		return StoredNumericFields[p.Field]
	case IDPrefix:
		return len(p.Prefixes) > 0
	}
	return false
}
