package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"meetcore/internal/blob"
	"meetcore/internal/config"
	"meetcore/internal/importer"
	"meetcore/pkg/discipline"
	"meetcore/pkg/domain"
)

func configCmd(_ *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Manage the meetctl configuration file",
		// Writing a starter file must work even when the current one is invalid.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}

	var path string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", config.FileName, "destination file")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	c.AddCommand(initCmd)
	return c
}

func importCmd(a *app) *cobra.Command {
	var dir string
	var force bool
	c := &cobra.Command{
		Use:   "import <competition-id>",
		Short: "Import a competition batch and save it as a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("competition id %q: %w", args[0], err)
			}
			if dir == "" {
				dir = a.cfg.ImportDir
			}
			svc, release, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			res, err := svc.Import(cmd.Context(), importer.NewDirSource(dir), id)
			if err != nil {
				var violation domain.RuleViolationError
				if errors.As(err, &violation) {
					printViolations(cmd.OutOrStdout(), violation.Result)
				}
				return err
			}
			if _, err := svc.Blobs().Head(cmd.Context(), svc.DocumentKey()); err == nil && !force {
				return fmt.Errorf("document %s already exists; use --force to replace it", svc.DocumentKey())
			} else if err != nil && !errors.Is(err, blob.ErrNotFound) {
				return domain.IOFailureError{Op: "head", Key: svc.DocumentKey(), Err: err}
			}
			info, err := svc.Save(cmd.Context())
			if err != nil {
				return err
			}
			counts, _ := svc.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "imported competition %d to %s (%d clubs, %d athletes, %d races, %d teams)\n",
				id, info.Key, counts.Clubs, counts.Athletes, counts.Races, counts.Teams)
			printViolations(cmd.OutOrStdout(), res)
			return nil
		},
	}
	c.Flags().StringVar(&dir, "dir", "", "directory holding <id>.yaml batches (default import_dir)")
	c.Flags().BoolVar(&force, "force", false, "replace an existing document")
	return c
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored competition documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			docs, err := svc.Documents(cmd.Context())
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no documents found)")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", d.Key, d.Size, d.LastModified.UTC().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func disciplinesCmd(_ *app) *cobra.Command {
	var speciality string
	c := &cobra.Command{
		Use:   "disciplines",
		Short: "List the discipline catalogue and its race limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tSPECIALITY\tRELAY\tMAX\tEXCEED\tFINAL B")
			for _, code := range discipline.Codes() {
				d, err := discipline.Describe(code)
				if err != nil {
					return err
				}
				if speciality != "" && string(d.Speciality) != speciality {
					continue
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%d\t%t\t%t\n", d.Code, d.Name, d.Speciality, d.Relay,
					d.Limits.MaxAthletesAllowed, d.Limits.CanExceedMax, d.Limits.IsFinalBAllowed)
			}
			return tw.Flush()
		},
	}
	c.Flags().StringVar(&speciality, "speciality", "", "only list disciplines of this speciality (pool, beach)")
	return c
}

func inspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <document-key>",
		Short: "Summarise a stored competition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := a.loadService(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer release()

			comp, _ := svc.Competition()
			counts, _ := svc.Counts()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) %s to %s, %s\n", comp.Name, comp.Location,
				comp.BeginDate.Format(time.DateOnly), comp.EndDate.Format(time.DateOnly), comp.Speciality)
			fmt.Fprintf(out, "%d categories, %d clubs, %d athletes, %d referees, %d races, %d teams\n\n",
				counts.Categories, counts.Clubs, counts.Athletes, counts.Referees, counts.Races, counts.Teams)

			races, err := svc.Races()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RACE\tGENDER\tCATEGORIES\tTEAMS\tMAX\tFINAL B")
			for _, race := range races {
				cats, err := svc.RaceCategories(race.ID)
				if err != nil {
					return err
				}
				names := make([]string, len(cats))
				for i, c := range cats {
					names[i] = c.Name
				}
				teams, err := svc.RaceTeams(race.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%t\n", race.Name, race.Gender, strings.Join(names, ","),
					len(teams), race.MaxAthleteAllowed(), race.IsFinalBAllowed())
			}
			return tw.Flush()
		},
	}
}

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document-key>",
		Short: "Load a document and report rule violations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			res, err := svc.Load(cmd.Context(), args[0])
			if err != nil {
				var violation domain.RuleViolationError
				if errors.As(err, &violation) {
					printViolations(cmd.OutOrStdout(), violation.Result)
				}
				return err
			}
			if len(res.Violations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "OK")
				return nil
			}
			printViolations(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func forfeitCmd(a *app) *cobra.Command {
	var final, undo bool
	c := &cobra.Command{
		Use:   "forfeit <document-key> <team-id>",
		Short: "Mark a team as forfeit and save the document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("team id %q: %w", args[1], err)
			}
			svc, release, err := a.loadService(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer release()

			set := svc.SetTeamForfeit
			if final {
				set = svc.SetTeamForfeitFinal
			}
			if _, err := set(teamID, !undo); err != nil {
				return err
			}
			if _, err := svc.Save(cmd.Context()); err != nil {
				return err
			}
			state := "forfeit"
			if undo {
				state = "not forfeit"
			}
			if final {
				state += " for the final"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "team %d marked %s\n", teamID, state)
			return nil
		},
	}
	c.Flags().BoolVar(&final, "final", false, "apply to the final only")
	c.Flags().BoolVar(&undo, "undo", false, "clear the flag instead of setting it")
	return c
}

func printViolations(w io.Writer, res domain.Result) {
	for _, v := range res.Violations {
		fmt.Fprintf(w, "%s\t%s\t%s %s: %s\n", strings.ToUpper(string(v.Severity)), v.Rule, v.Entity, v.EntityID, v.Message)
	}
}
