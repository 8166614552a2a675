package descriptor

import "strings"

// Emotion is one of the canonical mood classes.
type Emotion string

// Canonical emotions, in tie-breaking order.
const (
	Aggressive Emotion = "aggressive"
	Happy      Emotion = "happy"
	Relaxed    Emotion = "relaxed"
	Sad        Emotion = "sad"
)

// Emotions lists the canonical emotions.
var Emotions = []Emotion{Aggressive, Happy, Relaxed, Sad}

// ParseEmotion resolves an emotion name.
func ParseEmotion(s string) (Emotion, bool) {
	for _, e := range Emotions {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

// ScoreIndex is the position of the emotion's own probability in a stored pair.
// relaxed and sad classifiers are stored inverted.
func (e Emotion) ScoreIndex() int {
	if e == Relaxed || e == Sad {
		return 1
	}
	return 0
}

// ParseMoodKey extracts the emotion from keys such as "mood_happy-musicnn-mtt-2" or "sad_msd".
func ParseMoodKey(key string) (Emotion, bool) {
	key = strings.TrimPrefix(key, "mood_")
	if i := strings.IndexAny(key, "_-"); i >= 0 {
		key = key[:i]
	}
	return ParseEmotion(key)
}

// MoodScore is an emotion with its probability.
type MoodScore struct {
	Emotion Emotion `json:"emotion" bson:"emotion"`
	Score   float64 `json:"score" bson:"score"`
}

// MoodScores averages each emotion's own probability across models.
// Emotions without a model are absent.
func MoodScores(mood map[string][]float64) map[Emotion]float64 {
	sums := make(map[Emotion]float64)
	counts := make(map[Emotion]int)
	for key, values := range mood {
		e, ok := ParseMoodKey(key)
		if !ok {
			continue
		}
		idx := e.ScoreIndex()
		if idx >= len(values) {
			continue
		}
		sums[e] += values[idx]
		counts[e]++
	}
	scores := make(map[Emotion]float64, len(sums))
	for e, s := range sums {
		scores[e] = s / float64(counts[e])
	}
	return scores
}

// DominantMood returns the argmax emotion. Ties resolve to the earlier canonical emotion.
func DominantMood(mood map[string][]float64) (MoodScore, bool) {
	scores := MoodScores(mood)
	var best MoodScore
	found := false
	for _, e := range Emotions {
		s, ok := scores[e]
		if !ok {
			continue
		}
		if !found || s > best.Score {
			best = MoodScore{Emotion: e, Score: s}
			found = true
		}
	}
	return best, found
}
