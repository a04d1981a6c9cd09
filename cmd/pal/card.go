package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/palabra-app/palabra/internal/lifecycle"
	"github.com/palabra-app/palabra/internal/suspend"
	"github.com/spf13/cobra"
)

func newCardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Card lifecycle and suspension commands",
	}

	cmd.AddCommand(newCardPauseCmd())
	cmd.AddCommand(newCardResumeCmd())
	cmd.AddCommand(newCardBuryCmd())
	cmd.AddCommand(newCardResetCmd())
	cmd.AddCommand(newCardDueCmd())
	cmd.AddCommand(newCardInfoCmd())
	cmd.AddCommand(newCardPausedCmd())
	return cmd
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

func newCardPauseCmd() *cobra.Command {
	var (
		configPath string
		reason     string
		until      string
	)

	cmd := &cobra.Command{
		Use:   "pause <card-id>",
		Short: "Suspend a card",
		Long:  "Suspends a card indefinitely, or until a date given with --until (YYYY-MM-DD).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if until != "" {
				date, err := time.ParseInLocation("2006-01-02", until, time.Local)
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", until, err)
				}
				if err := suspend.PauseUntil(gormDB, cardID, date, reason); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Card %d paused until %s\n", cardID, until)
				return nil
			}
			if err := suspend.Pause(gormDB, cardID, reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Card %d paused\n", cardID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "pause reason")
	cmd.Flags().StringVar(&until, "until", "", "resume date (YYYY-MM-DD)")
	return cmd
}

func newCardResumeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "resume <card-id>",
		Short: "Clear a card's suspension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := suspend.Resume(gormDB, cardID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Card %d resumed\n", cardID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	return cmd
}

func newCardBuryCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "bury <card-id>",
		Short: "Skip a card until tomorrow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := suspend.SkipUntilTomorrow(gormDB, cardID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Card %d buried until tomorrow\n", cardID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	return cmd
}

func newCardResetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reset <card-id>...",
		Short: "Reset cards to new",
		Long:  "Clears all scheduling history so the cards are studied again from scratch.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardIDs := make([]uint, len(args))
			for i, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				cardIDs[i] = id
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			n, err := lifecycle.BatchResetToNew(gormDB, cardIDs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d card(s) to new\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	return cmd
}

func newCardDueCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "due <card-id> <date>",
		Short: "Set a card's due date",
		Long:  "Sets the due date (YYYY-MM-DD). A new card is promoted to review with an interval matching the distance from today.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := parseID(args[0])
			if err != nil {
				return err
			}
			date, err := time.ParseInLocation("2006-01-02", args[1], time.Local)
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", args[1], err)
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := lifecycle.SetDueDate(gormDB, cardID, date); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Card %d due %s\n", cardID, args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	return cmd
}

func newCardInfoCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "info <card-id>",
		Short: "Show a card's scheduling and suspension details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			info, err := lifecycle.GetCardInfo(gormDB, cardID)
			if err != nil {
				return err
			}
			printCardInfo(cmd, info)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	return cmd
}

func printCardInfo(cmd *cobra.Command, info *lifecycle.CardInfo) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Card %d  (%s)\n", info.CardID, info.CardType)
	fmt.Fprintf(out, "  Deck:       %s\n", joinPath(info.DeckPath))
	for name, value := range info.NoteFields {
		fmt.Fprintf(out, "  %-10s  %s\n", name+":", value)
	}
	if len(info.Tags) > 0 {
		fmt.Fprintf(out, "  Tags:       %v\n", info.Tags)
	}
	fmt.Fprintf(out, "  Interval:   %d day(s)\n", info.IntervalDays)
	fmt.Fprintf(out, "  Reps:       %d  Lapses: %d\n", info.Reps, info.Lapses)
	if info.TotalReviews > 0 {
		fmt.Fprintf(out, "  Reviews:    %d (avg %.0f ms)\n", info.TotalReviews, info.AverageTimeMs)
		fmt.Fprintf(out, "  Recall:     %.0f%%  Ease: %.2f\n", info.Retrievability*100, info.LegacyEase)
	}
	if info.IsLeech {
		fmt.Fprintln(out, "  Leech:      yes")
	}
	if info.IsMarked {
		fmt.Fprintln(out, "  Marked:     yes")
	}
	if info.Suspended {
		fmt.Fprintf(out, "  Suspended:  by %s", info.SuspendedBy)
		if info.PauseReason != "" {
			fmt.Fprintf(out, " (%s)", info.PauseReason)
		}
		fmt.Fprintln(out)
	}
	if info.QueuePosition != nil {
		fmt.Fprintf(out, "  Position:   %d\n", *info.QueuePosition)
	}
}

func joinPath(path []string) string {
	s := ""
	for i, p := range path {
		if i > 0 {
			s += " › "
		}
		s += p
	}
	return s
}

func newCardPausedCmd() *cobra.Command {
	var (
		configPath string
		userID     uint
		groupBy    string
	)

	cmd := &cobra.Command{
		Use:   "paused",
		Short: "List suspended cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			groups, err := suspend.GetPausedCards(gormDB, userID, groupBy)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			total := 0
			for _, g := range groups {
				if g.Group != "" {
					fmt.Fprintf(out, "%s:\n", g.Group)
				}
				for _, c := range g.Cards {
					fmt.Fprintf(out, "  card %d  by %s", c.CardID, c.SuspendedBy)
					if c.PauseReason != "" {
						fmt.Fprintf(out, "  (%s)", c.PauseReason)
					}
					if c.ResumeDate != nil {
						fmt.Fprintf(out, "  resumes %s", c.ResumeDate.Format("2006-01-02"))
					}
					fmt.Fprintln(out)
					total++
				}
			}
			fmt.Fprintf(out, "%d suspended card(s)\n", total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	cmd.Flags().UintVarP(&userID, "user", "u", 1, "user id")
	cmd.Flags().StringVarP(&groupBy, "group-by", "g", "", "group by tag, deck, or reason")
	return cmd
}
