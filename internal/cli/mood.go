package cli

import (
	"github.com/spf13/cobra"

	"moodjournal/internal/trend"
)

func NewMoodCmd(deps *Dependencies) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "mood",
		Short: "Summarize your mood over the last week or month",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := trend.ParsePeriod(period)
			if err != nil {
				return err
			}
			entries, err := deps.Journal.List(cmd.Context())
			if err != nil {
				return err
			}
			deps.Output.MoodSummary(trend.Summarize(entries, p, deps.now()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", string(trend.PeriodWeek), "Summary period: week or month")

	return cmd
}
