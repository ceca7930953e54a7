// Package cli is the headless command-line front end of the journal.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"moodjournal/internal/auth"
	"moodjournal/internal/domain"
	"moodjournal/internal/journal"
	"moodjournal/internal/output"
	"moodjournal/internal/usecase"
)

var errAmbiguousID = errors.New("entry id prefix is ambiguous")

type Dependencies struct {
	Auth     *auth.Session
	Journal  *journal.Store
	Recorder *usecase.Recorder
	Flow     *usecase.EntryFlow
	Output   *output.Formatter
	In       io.Reader
	Now      func() time.Time

	startInput sync.Once
	lines      chan string
	inputErr   error
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	var user string

	rootCmd := &cobra.Command{
		Use:           "journal",
		Short:         "Voice journal with mood tracking",
		Long:          "Record spoken journal entries, transcribe them, and follow your mood over time.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return nil
			}
			return deps.Auth.SignIn(domain.User{ID: user})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", "", "Journal owner (overrides the configured user)")

	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewAddCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewShowCmd(deps))
	rootCmd.AddCommand(NewEditCmd(deps))
	rootCmd.AddCommand(NewDeleteCmd(deps))
	rootCmd.AddCommand(NewMoodCmd(deps))

	return rootCmd
}

// readLine returns the next input line without its newline. At end of input
// it returns "" and io.EOF. Input is read in the background so a canceled
// context unblocks the caller.
func (d *Dependencies) readLine(ctx context.Context) (string, error) {
	d.startInput.Do(func() {
		d.lines = make(chan string)
		go func() {
			defer close(d.lines)
			scanner := bufio.NewScanner(d.In)
			for scanner.Scan() {
				d.lines <- scanner.Text()
			}
			d.inputErr = scanner.Err()
		}()
	})

	select {
	case line, ok := <-d.lines:
		if !ok {
			if d.inputErr != nil {
				return "", d.inputErr
			}
			return "", io.EOF
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// resolveID accepts a full id or a unique prefix of one.
func (d *Dependencies) resolveID(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", journal.ErrEntryNotFound)
	}
	entries, err := d.Journal.List(ctx)
	if err != nil {
		return "", err
	}
	matches := lo.Filter(entries, func(entry domain.JournalEntry, _ int) bool {
		return strings.HasPrefix(entry.ID, prefix)
	})
	if exact, ok := lo.Find(matches, func(entry domain.JournalEntry) bool { return entry.ID == prefix }); ok {
		return exact.ID, nil
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", journal.ErrEntryNotFound, prefix)
	case 1:
		return matches[0].ID, nil
	default:
		return "", fmt.Errorf("%w: %s matches %d entries", errAmbiguousID, prefix, len(matches))
	}
}
