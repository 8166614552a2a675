package mongo

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

// Compile translates stages into a native aggregation pipeline.
//
// Missing values sort lowest in MongoDB. Compiled plans only sort ascending on
// fields a preceding match requires, and descending sorts put missing values last,
// so results agree with the in-process evaluator.
func Compile(stages []pipeline.Stage) (mongo.Pipeline, error) {
	out := make(mongo.Pipeline, 0, len(stages))
	for _, st := range stages {
		var stage bson.D
		switch s := st.(type) {
		case pipeline.Match:
			m, err := matchExpr(s.Predicate)
			if err != nil {
				return nil, err
			}
			stage = bson.D{{Key: "$match", Value: m}}
		case pipeline.AddFields:
			fields, err := deriveExpr(s.Derivation)
			if err != nil {
				return nil, err
			}
			stage = bson.D{{Key: "$addFields", Value: fields}}
		case pipeline.Sort:
			keys := make(bson.D, 0, len(s.Keys))
			for _, k := range s.Keys {
				dir := 1
				if k.Desc {
					dir = -1
				}
				keys = append(keys, bson.E{Key: path(k.Field), Value: dir})
			}
			stage = bson.D{{Key: "$sort", Value: keys}}
		case pipeline.Project:
			excl := make(bson.D, 0, len(s.Exclude))
			for _, f := range s.Exclude {
				excl = append(excl, bson.E{Key: path(f), Value: 0})
			}
			stage = bson.D{{Key: "$project", Value: excl}}
		case pipeline.Skip:
			stage = bson.D{{Key: "$skip", Value: int64(s.N)}}
		case pipeline.Limit:
			stage = bson.D{{Key: "$limit", Value: int64(s.N)}}
		default:
			return nil, fmt.Errorf("%w: %T", db.ErrUnsupported, st)
		}
		out = append(out, stage)
	}
	return out, nil
}

// path maps a logical field to its stored path.
func path(field string) string {
	if field == pipeline.FieldID {
		return "_id"
	}
	return field
}

func matchExpr(p pipeline.Predicate) (bson.D, error) {
	switch p := p.(type) {
	case pipeline.Range:
		cond := bson.D{}
		if p.Lower != nil {
			op := "$gt"
			if p.Lower.Inclusive {
				op = "$gte"
			}
			cond = append(cond, bson.E{Key: op, Value: p.Lower.Value})
		}
		if p.Upper != nil {
			op := "$lt"
			if p.Upper.Inclusive {
				op = "$lte"
			}
			cond = append(cond, bson.E{Key: op, Value: p.Upper.Value})
		}
		if len(cond) == 0 {
			// unbounded: present and numeric
			cond = bson.D{{Key: "$type", Value: "number"}}
		}
		return bson.D{{Key: path(p.Field), Value: cond}}, nil

	case pipeline.IDPrefix:
		quoted := make([]string, len(p.Prefixes))
		for i, prefix := range p.Prefixes {
			quoted[i] = regexp.QuoteMeta(prefix)
		}
		pattern := "^(?:" + strings.Join(quoted, "|") + ")"
		return bson.D{{Key: "_id", Value: bson.D{{Key: "$regex", Value: pattern}}}}, nil

	case pipeline.KeyMatch:
		alts := make(bson.A, 0, len(descriptor.KeyVariants))
		for _, v := range descriptor.KeyVariants {
			base := "key." + v
			alt := bson.D{{Key: base, Value: bson.D{{Key: "$type", Value: "object"}}}}
			if p.Tonic != "" {
				alt = append(alt, bson.E{Key: base + ".key", Value: p.Tonic})
			}
			if p.Scale != "" {
				alt = append(alt, bson.E{Key: base + ".scale", Value: p.Scale})
			}
			alts = append(alts, alt)
		}
		return bson.D{{Key: "$or", Value: alts}}, nil

	case pipeline.Equals:
		return bson.D{{Key: path(p.Field), Value: p.Value}}, nil
	}
	return nil, fmt.Errorf("%w: %s", db.ErrUnsupported, p)
}

func deriveExpr(d pipeline.Derivation) (bson.D, error) {
	switch d := d.(type) {
	case pipeline.Distance:
		return bson.D{{
			Key: pipeline.DistanceField(d.Field),
			Value: bson.D{{Key: "$abs", Value: bson.D{
				{Key: "$subtract", Value: bson.A{"$" + d.Field, d.Target}},
			}}},
		}}, nil
	case pipeline.ChordCoverage:
		return chordCoverageExpr(d.Labels), nil
	case pipeline.BestKey:
		return bson.D{{Key: pipeline.FieldBestKey, Value: bestKeyExpr(d.Tonic, d.Scale)}}, nil
	case pipeline.DominantMood:
		return bson.D{{Key: pipeline.FieldMoodDominant, Value: dominantMoodExpr()}}, nil
	}
	return nil, fmt.Errorf("%w: %s", db.ErrUnsupported, d)
}

// ifChords yields expr for documents with a chords object and removes the field otherwise.
func ifChords(expr any) bson.D {
	return bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$type", Value: "$chords"}}, "object"}}},
		expr,
		"$$REMOVE",
	}}}
}

func chordCoverageExpr(labels []string) bson.D {
	ratios := make(bson.A, len(labels))
	present := make(bson.A, len(labels))
	for i, l := range labels {
		ref := "$chords.chordRatio." + l
		ratios[i] = ref
		present[i] = bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$gt", Value: bson.A{ref, 0}}}, 1, 0,
		}}}
	}
	return bson.D{
		{Key: pipeline.FieldCoverage, Value: ifChords(bson.D{{Key: "$round", Value: bson.A{
			bson.D{{Key: "$sum", Value: ratios}}, descriptor.CoverageDigits,
		}}})},
		{Key: pipeline.FieldCoveredChords, Value: ifChords(bson.D{{Key: "$sum", Value: present}})},
	}
}

// bestKeyExpr picks the strongest variant agreeing with the non-empty parts.
// $indexOfArray returns the first maximum, matching variant order on ties.
func bestKeyExpr(tonic, scale string) bson.D {
	input := make(bson.A, len(descriptor.KeyVariants))
	for i, v := range descriptor.KeyVariants {
		input[i] = "$key." + v
	}
	conds := bson.A{bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$type", Value: "$$this"}}, "object"}}}}
	if tonic != "" {
		conds = append(conds, bson.D{{Key: "$eq", Value: bson.A{"$$this.key", tonic}}})
	}
	if scale != "" {
		conds = append(conds, bson.D{{Key: "$eq", Value: bson.A{"$$this.scale", scale}}})
	}

	return bson.D{{Key: "$let", Value: bson.D{
		{Key: "vars", Value: bson.D{{Key: "keys", Value: bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: input},
			{Key: "cond", Value: bson.D{{Key: "$and", Value: conds}}},
		}}}}}},
		{Key: "in", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{
			"$$keys",
			bson.D{{Key: "$indexOfArray", Value: bson.A{
				"$$keys.strength",
				bson.D{{Key: "$max", Value: "$$keys.strength"}},
			}}},
		}}}},
	}}}
}

// dominantMoodExpr averages each emotion's own probability across its models and
// keeps the first emotion with the strictly highest average.
func dominantMoodExpr() bson.D {
	scores := make(bson.A, len(descriptor.Emotions))
	for i, e := range descriptor.Emotions {
		models := bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: "$$models"},
			{Key: "cond", Value: bson.D{{Key: "$regexMatch", Value: bson.D{
				{Key: "input", Value: "$$this.k"},
				{Key: "regex", Value: "^(mood_)?" + string(e) + "([_-]|$)"},
			}}}},
		}}}
		scores[i] = bson.D{
			{Key: "emotion", Value: string(e)},
			{Key: "score", Value: bson.D{{Key: "$avg", Value: bson.D{{Key: "$map", Value: bson.D{
				{Key: "input", Value: models},
				{Key: "in", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$$this.v", e.ScoreIndex()}}}},
			}}}}}},
		}
	}

	better := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$ne", Value: bson.A{"$$this.score", nil}}},
		bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$$value", nil}}},
			bson.D{{Key: "$gt", Value: bson.A{"$$this.score", "$$value.score"}}},
		}}},
	}}}
	argmax := bson.D{{Key: "$reduce", Value: bson.D{
		{Key: "input", Value: "$$scores"},
		{Key: "initialValue", Value: nil},
		{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{better, "$$this", "$$value"}}}},
	}}}

	return bson.D{{Key: "$let", Value: bson.D{
		{Key: "vars", Value: bson.D{{Key: "models", Value: bson.D{
			{Key: "$objectToArray", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$mood", bson.D{}}}}},
		}}}},
		{Key: "in", Value: bson.D{{Key: "$let", Value: bson.D{
			{Key: "vars", Value: bson.D{{Key: "scores", Value: scores}}},
			{Key: "in", Value: bson.D{{Key: "$ifNull", Value: bson.A{argmax, "$$REMOVE"}}}},
		}}}},
	}}}
}
