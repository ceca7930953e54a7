package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"moodjournal/internal/output"
	"moodjournal/internal/usecase"
)

func NewAddCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>...",
		Short: "Write a journal entry without recording",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return usecase.ErrEmptyTranscript
			}
			entry, err := deps.Journal.Create(cmd.Context(), text, "")
			if err != nil {
				return err
			}
			deps.Output.EntryDetail(entry)
			return nil
		},
	}
}

func NewListCmd(deps *Dependencies) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := deps.Journal.List(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			deps.Output.EntryList(entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many entries")

	return cmd
}

func NewShowCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := deps.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entry, err := deps.Journal.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			deps.Output.EntryDetail(entry)
			return nil
		},
	}
}

func NewEditCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>...",
		Short: "Replace an entry's transcript and rescore it",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := deps.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entry, err := deps.Journal.Update(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			deps.Output.EntryDetail(entry)
			return nil
		},
	}
}

func NewDeleteCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a journal entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := deps.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := deps.Journal.Delete(cmd.Context(), id); err != nil {
				return err
			}
			deps.Output.Success("Deleted " + output.ShortID(id))
			return nil
		},
	}
}
