// Package sentiment scores transcript text with a fixed word lexicon.
package sentiment

import (
	"context"
	"regexp"
	"strings"
	"time"

	"moodjournal/internal/domain"
)

const (
	positiveThreshold = 0.2
	negativeThreshold = -0.2
	magnitudeScale    = 2
)

var (
	positiveWords = lexicon("great", "good", "happy", "excited", "wonderful", "amazing", "love", "joy", "positive", "productive")
	negativeWords = lexicon("bad", "sad", "angry", "frustrated", "disappointed", "stress", "worried", "anxious", "negative", "upset")

	// Matches the \W class: anything outside [A-Za-z0-9_].
	nonWord = regexp.MustCompile(`[^A-Za-z0-9_]+`)
)

func lexicon(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}

// Score computes the sentiment of text. It is pure and deterministic.
func Score(text string) domain.Sentiment {
	words := Tokenize(text)

	positive, negative := 0, 0
	for _, word := range words {
		if _, ok := positiveWords[word]; ok {
			positive++
		}
		if _, ok := negativeWords[word]; ok {
			negative++
		}
	}

	emotional := positive + negative
	score := 0.0
	if emotional > 0 {
		score = float64(positive-negative) / float64(emotional)
	}

	// Empty or punctuation-only text has no words; magnitude is defined as 0 there.
	magnitude := 0.0
	if len(words) > 0 {
		magnitude = float64(emotional) / float64(len(words)) * magnitudeScale
	}

	return domain.Sentiment{
		Score:     score,
		Magnitude: magnitude,
		Label:     LabelFor(score),
	}
}

// LabelFor derives the label band for a score.
func LabelFor(score float64) domain.SentimentLabel {
	switch {
	case score > positiveThreshold:
		return domain.SentimentPositive
	case score < negativeThreshold:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// Tokenize lowercases text and splits it on runs of non-word characters.
func Tokenize(text string) []string {
	parts := nonWord.Split(strings.ToLower(text), -1)
	words := parts[:0]
	for _, part := range parts {
		if part != "" {
			words = append(words, part)
		}
	}
	return words
}

// Analyzer adapts Score to ports.SentimentAnalyzer. Latency simulates a
// remote scoring call and is honoured before scoring.
type Analyzer struct {
	Latency time.Duration
}

func NewAnalyzer(latency time.Duration) *Analyzer {
	if latency < 0 {
		latency = 0
	}
	return &Analyzer{Latency: latency}
}

func (a *Analyzer) Analyze(ctx context.Context, text string) (domain.Sentiment, error) {
	if a.Latency > 0 {
		timer := time.NewTimer(a.Latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return domain.Sentiment{}, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return domain.Sentiment{}, err
	}
	return Score(text), nil
}
