// Package trend derives mood history views from journal entries.
package trend

import (
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"

	"moodjournal/internal/domain"
)

// Period selects how far back a summary reaches.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"

	// DefaultRecent is how many entries the recent list shows.
	DefaultRecent = 5

	moodBand = 0.3
)

// ParsePeriod accepts "week" or "month".
func ParsePeriod(value string) (Period, error) {
	switch Period(value) {
	case PeriodWeek, PeriodMonth:
		return Period(value), nil
	default:
		return "", fmt.Errorf("unknown period %q (want week or month)", value)
	}
}

// Days is the length of the period.
func (p Period) Days() int {
	if p == PeriodMonth {
		return 30
	}
	return 7
}

// Point is one chart sample.
type Point struct {
	Date  time.Time             `json:"date"`
	Day   string                `json:"day"`
	Score float64               `json:"score"`
	Label domain.SentimentLabel `json:"label"`
}

// Summary bundles everything the mood dashboard shows.
type Summary struct {
	Period  Period                        `json:"period"`
	Total   int                           `json:"total"`
	Average float64                       `json:"average"`
	Mood    domain.SentimentLabel         `json:"mood"`
	Emoji   string                        `json:"emoji"`
	Counts  map[domain.SentimentLabel]int `json:"counts"`
	Chart   []Point                       `json:"chart"`
	Recent  []domain.JournalEntry         `json:"recent"`
}

// Chronological returns entries ordered by creation time, oldest first.
// Entries created at the same instant keep their relative order.
func Chronological(entries []domain.JournalEntry) []domain.JournalEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b domain.JournalEntry) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return sorted
}

// Chart returns one point per entry in chronological order.
func Chart(entries []domain.JournalEntry) []Point {
	return lo.Map(Chronological(entries), func(entry domain.JournalEntry, _ int) Point {
		return Point{
			Date:  entry.CreatedAt,
			Day:   entry.CreatedAt.Format("01/02"),
			Score: entry.Sentiment.Score,
			Label: entry.Sentiment.Label,
		}
	})
}

// Average is the mean sentiment score, 0 without entries.
func Average(entries []domain.JournalEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	total := lo.SumBy(entries, func(entry domain.JournalEntry) float64 {
		return entry.Sentiment.Score
	})
	return total / float64(len(entries))
}

// MoodFor classifies an average score. The bands are wider than the
// per-entry label thresholds.
func MoodFor(average float64) domain.SentimentLabel {
	switch {
	case average > moodBand:
		return domain.SentimentPositive
	case average < -moodBand:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// Emoji picks a face for a score.
func Emoji(score float64) string {
	switch {
	case score > 0.7:
		return "😄"
	case score > 0.3:
		return "🙂"
	case score > -0.3:
		return "😐"
	case score > -0.7:
		return "😕"
	default:
		return "😢"
	}
}

// Recent returns the n newest entries, oldest of them first.
func Recent(entries []domain.JournalEntry, n int) []domain.JournalEntry {
	if n <= 0 {
		n = DefaultRecent
	}
	sorted := Chronological(entries)
	return sorted[max(0, len(sorted)-n):]
}

// Window keeps entries created within the period ending at now.
func Window(entries []domain.JournalEntry, period Period, now time.Time) []domain.JournalEntry {
	since := now.AddDate(0, 0, -period.Days())
	return lo.Filter(entries, func(entry domain.JournalEntry, _ int) bool {
		return !entry.CreatedAt.Before(since) && !entry.CreatedAt.After(now)
	})
}

// Summarize computes the dashboard view for one period.
func Summarize(entries []domain.JournalEntry, period Period, now time.Time) Summary {
	windowed := Window(entries, period, now)
	average := Average(windowed)
	counts := lo.CountValuesBy(windowed, func(entry domain.JournalEntry) domain.SentimentLabel {
		return entry.Sentiment.Label
	})
	return Summary{
		Period:  period,
		Total:   len(windowed),
		Average: average,
		Mood:    MoodFor(average),
		Emoji:   Emoji(average),
		Counts:  counts,
		Chart:   Chart(windowed),
		Recent:  Recent(windowed, DefaultRecent),
	}
}
