// Package output renders journal state for the terminal.
package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"moodjournal/internal/domain"
	"moodjournal/internal/trend"
)

const previewWidth = 60

// Formatter writes human-readable output. It also serves as the event sink
// and notifier for headless runs, so writes are serialized.
type Formatter struct {
	mu sync.Mutex
	w  io.Writer

	// inline is set while a carriage-return status line is showing.
	inline bool
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Error(msg string) {
	f.println("❌ %s", msg)
}

func (f *Formatter) Info(msg string) {
	f.println("ℹ️  %s", msg)
}

func (f *Formatter) Success(msg string) {
	f.println("✅ %s", msg)
}

func (f *Formatter) Warning(msg string) {
	f.println("⚠️  %s", msg)
}

func (f *Formatter) Prompt(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breakLine()
	fmt.Fprintf(f.w, "%s ", msg)
}

// EntryList prints one line per entry, in the order given.
func (f *Formatter) EntryList(entries []domain.JournalEntry) {
	if len(entries) == 0 {
		f.Info("No journal entries yet")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breakLine()
	fmt.Fprintf(f.w, "📓 Journal (%d):\n\n", len(entries))
	for _, entry := range entries {
		fmt.Fprintf(f.w, "  %s  %s  %s %+.2f  %s\n",
			ShortID(entry.ID),
			entry.CreatedAt.Local().Format("2006-01-02 15:04"),
			trend.Emoji(entry.Sentiment.Score),
			entry.Sentiment.Score,
			Preview(entry.Transcript, previewWidth),
		)
	}
}

// EntryDetail prints every field of one entry.
func (f *Formatter) EntryDetail(entry domain.JournalEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breakLine()
	fmt.Fprintf(f.w, "ID:        %s\n", entry.ID)
	fmt.Fprintf(f.w, "Created:   %s\n", entry.CreatedAt.Local().Format(time.RFC1123))
	if !entry.UpdatedAt.Equal(entry.CreatedAt) {
		fmt.Fprintf(f.w, "Updated:   %s\n", entry.UpdatedAt.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(f.w, "Sentiment: %s %s (score %+.2f, magnitude %.2f)\n",
		trend.Emoji(entry.Sentiment.Score), entry.Sentiment.Label, entry.Sentiment.Score, entry.Sentiment.Magnitude)
	if entry.AudioURL != "" {
		fmt.Fprintf(f.w, "Audio:     %s\n", entry.AudioURL)
	}
	fmt.Fprintf(f.w, "\n%s\n", entry.Transcript)
}

// MoodSummary prints the dashboard for one period.
func (f *Formatter) MoodSummary(summary trend.Summary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breakLine()

	fmt.Fprintf(f.w, "%s Mood over the last %d days: %s (average %+.2f, %d entries)\n",
		summary.Emoji, summary.Period.Days(), summary.Mood, summary.Average, summary.Total)
	if summary.Total == 0 {
		return
	}
	fmt.Fprintf(f.w, "   positive %d · neutral %d · negative %d\n\n",
		summary.Counts[domain.SentimentPositive],
		summary.Counts[domain.SentimentNeutral],
		summary.Counts[domain.SentimentNegative],
	)
	for _, point := range summary.Chart {
		fmt.Fprintf(f.w, "  %s %s %+.2f\n", point.Day, Bar(point.Score, 10), point.Score)
	}
	fmt.Fprintf(f.w, "\nRecent:\n")
	for _, entry := range summary.Recent {
		fmt.Fprintf(f.w, "  %s %s\n", trend.Emoji(entry.Sentiment.Score), Preview(entry.Transcript, previewWidth))
	}
}

// RecordingStateChanged implements ports.EventSink.
func (f *Formatter) RecordingStateChanged(state domain.RecordingState, reason domain.RecordingReason) {
	switch reason {
	case domain.RecordingReasonStarted:
		f.println("🎙️  Recording. Enter stops, p pauses or resumes, q discards.")
	case domain.RecordingReasonPaused:
		f.println("⏸️  Paused")
	case domain.RecordingReasonResumed:
		f.println("🎙️  Resumed")
	case domain.RecordingReasonStopped:
		f.println("⏹️  Recording stopped. Transcribing...")
	case domain.RecordingReasonAutoStopped:
		f.println("⏹️  Maximum length reached. Press Enter to continue.")
	case domain.RecordingReasonDiscarded:
		f.println("🗑️  Recording discarded")
	default:
		msg := string(state)
		if reason != "" {
			msg += ": " + string(reason)
		}
		f.println("ℹ️  %s", msg)
	}
}

func (f *Formatter) RecordingTick(elapsed time.Duration) {
	f.inlineStatus("⏺  %s", Clock(elapsed))
}

func (f *Formatter) TranscriptionProgress(percent int) {
	f.inlineStatus("📝 Transcribing %3d%%", percent)
}

func (f *Formatter) TranscriptReady(transcription domain.Transcription) {
	f.println("📝 Transcript (%s):\n\n%s\n", transcription.Source, transcription.Text)
}

// Notify implements ports.Notifier.
func (f *Formatter) Notify(n domain.Notification) {
	msg := n.Title()
	if desc := n.Description(); desc != "" {
		msg += ": " + desc
	}
	if n.Detail != "" && n.Detail != n.Description() {
		msg += " (" + n.Detail + ")"
	}
	if n.Destructive() {
		f.Error(msg)
		return
	}
	f.Info(msg)
}

func (f *Formatter) println(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.breakLine()
	fmt.Fprintf(f.w, format+"\n", args...)
}

func (f *Formatter) inlineStatus(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.w, "\r"+format, args...)
	f.inline = true
}

// breakLine ends a pending status line. Callers hold f.mu.
func (f *Formatter) breakLine() {
	if f.inline {
		fmt.Fprintln(f.w)
		f.inline = false
	}
}

// ShortID is the prefix shown in listings and accepted by commands.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Preview flattens whitespace and truncates to width runes.
func Preview(text string, width int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= width {
		return flat
	}
	return string(runes[:width-1]) + "…"
}

// Bar renders a score in [-1, 1] as a signed bar of at most half cells per side.
func Bar(score float64, half int) string {
	score = max(-1, min(1, score))
	n := int(score*float64(half) + 0.5*sign(score))
	left := strings.Repeat(" ", half)
	right := strings.Repeat(" ", half)
	if n < 0 {
		left = strings.Repeat(" ", half+n) + strings.Repeat("█", -n)
	} else if n > 0 {
		right = strings.Repeat("█", n) + strings.Repeat(" ", half-n)
	}
	return left + "│" + right
}

// Clock formats elapsed time as mm:ss.
func Clock(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
