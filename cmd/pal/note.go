package main

import (
	"fmt"
	"strings"

	"github.com/palabra-app/palabra/internal/lifecycle"
	"github.com/spf13/cobra"
)

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Note content commands",
	}

	cmd.AddCommand(newNoteCopyCmd())
	cmd.AddCommand(newNoteMarkCmd())
	cmd.AddCommand(newNoteEditCmd())
	return cmd
}

func newNoteCopyCmd() *cobra.Command {
	var (
		configPath string
		deckID     uint
	)

	cmd := &cobra.Command{
		Use:   "copy <note-id>",
		Short: "Duplicate a note and its cards",
		Long:  "Copies a note's content and tags; every copied card starts over as new.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noteID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			var target *uint
			if deckID != 0 {
				target = &deckID
			}
			note, cards, err := lifecycle.CopyNote(gormDB, noteID, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied note %d to note %d (%d card(s))\n",
				noteID, note.ID, len(cards))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	cmd.Flags().UintVarP(&deckID, "deck", "d", 0, "target deck id (default: same deck)")
	return cmd
}

func newNoteMarkCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mark <note-id>",
		Short: "Toggle the Marked tag on a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noteID, err := parseID(args[0])
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			marked, err := lifecycle.ToggleMarked(gormDB, noteID)
			if err != nil {
				return err
			}
			state := "unmarked"
			if marked {
				state = "marked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Note %d %s\n", noteID, state)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	return cmd
}

func newNoteEditCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "edit <note-id> <field>=<value>...",
		Short: "Update note fields",
		Long:  "Merges the given field=value pairs into the note, leaving other fields untouched.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			noteID, err := parseID(args[0])
			if err != nil {
				return err
			}
			updates := make(map[string]string, len(args)-1)
			for _, arg := range args[1:] {
				name, value, found := strings.Cut(arg, "=")
				if !found || name == "" {
					return fmt.Errorf("invalid field assignment %q, want field=value", arg)
				}
				updates[name] = value
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := lifecycle.EditDuringReview(gormDB, noteID, updates); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Note %d updated (%d field(s))\n", noteID, len(updates))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	return cmd
}
