package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeanpaul/studentmodel/internal/concept"
	"github.com/jeanpaul/studentmodel/internal/health"
	"github.com/jeanpaul/studentmodel/internal/model"
	"github.com/jeanpaul/studentmodel/internal/render"
)

func (a *app) initCmd() *cobra.Command {
	var (
		profile string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new student model file",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := a.store.Initialize(profile, force)
			if err != nil {
				return err
			}
			a.out.Success("Initialized student model at %s", a.store.Path())
			return a.out.Info(a.store.Path(), doc, concept.New(doc).Stats())
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "free-text learner profile")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing model (the old one becomes the backup)")
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show a summary of the student model",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.repo()
			if err != nil {
				return err
			}
			return a.out.Info(a.store.Path(), repo.Document(), repo.Stats())
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List concepts by mastery",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.repo()
			if err != nil {
				return err
			}
			return a.out.List(repo.List())
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show one concept in detail",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repo()
			if err != nil {
				return err
			}
			c, err := repo.Find(args[0])
			if err != nil {
				return err
			}
			related, err := repo.Related(c.Name)
			if err != nil {
				return err
			}
			return a.out.Concept(c, related)
		},
	}
}

func (a *app) relatedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "related NAME",
		Short: fmt.Sprintf("Show related concepts, flagging those below %d%% mastery", render.LowMastery),
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.repo()
			if err != nil {
				return err
			}
			c, err := repo.Find(args[0])
			if err != nil {
				return err
			}
			related, err := repo.Related(c.Name)
			if err != nil {
				return err
			}
			return a.out.Related(c, related)
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var related []string
	cmd := &cobra.Command{
		Use:   "add NAME MASTERY CONFIDENCE",
		Short: "Start tracking a concept",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mastery, err := parseMastery(args[1])
			if err != nil {
				return err
			}
			confidence, err := model.ParseConfidence(args[2])
			if err != nil {
				return err
			}
			var added *model.Concept
			err = a.mutate(func(repo *concept.Repository) (bool, error) {
				var err error
				if added, err = repo.Add(args[0], mastery, confidence); err != nil {
					return false, err
				}
				for _, other := range related {
					if _, err := repo.Link(added.Name, other); err != nil {
						return false, err
					}
				}
				return true, nil
			})
			if err != nil {
				return err
			}
			a.out.Success("Added %q (mastery %d%%, confidence %s)", added.Name, added.Mastery, added.Confidence)
			return a.structured(added)
		},
	}
	cmd.Flags().StringSliceVar(&related, "related", nil, "existing concepts to link, comma separated")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var (
		mastery    int
		confidence string
	)
	cmd := &cobra.Command{
		Use:   "update NAME",
		Short: "Change a concept's mastery or confidence",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ch concept.Changes
			if cmd.Flags().Changed("mastery") {
				ch.Mastery = &mastery
			}
			if cmd.Flags().Changed("confidence") {
				c, err := model.ParseConfidence(confidence)
				if err != nil {
					return err
				}
				ch.Confidence = &c
			}
			var updated *model.Concept
			err := a.mutate(func(repo *concept.Repository) (bool, error) {
				var err error
				updated, err = repo.Update(args[0], ch)
				return err == nil, err
			})
			if err != nil {
				return err
			}
			a.out.Success("Updated %q (mastery %d%%, confidence %s)", updated.Name, updated.Mastery, updated.Confidence)
			return a.structured(updated)
		},
	}
	cmd.Flags().IntVar(&mastery, "mastery", 0, "new mastery, 0-100")
	cmd.Flags().StringVar(&confidence, "confidence", "", "new confidence: low, medium, high")
	return cmd
}

func (a *app) struggleCmd() *cobra.Command {
	return a.noteCmd("struggle", "Record a struggle with a concept", (*concept.Repository).RecordStruggle)
}

func (a *app) breakthroughCmd() *cobra.Command {
	return a.noteCmd("breakthrough", "Record a breakthrough on a concept", (*concept.Repository).RecordBreakthrough)
}

func (a *app) noteCmd(use, short string, record func(*concept.Repository, string, string) (*model.Concept, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " NAME DESCRIPTION",
		Short: short,
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c *model.Concept
			err := a.mutate(func(repo *concept.Repository) (bool, error) {
				var err error
				c, err = record(repo, args[0], args[1])
				return err == nil, err
			})
			if err != nil {
				return err
			}
			a.out.Success("Recorded %s for %q", use, c.Name)
			return a.structured(c)
		},
	}
}

func (a *app) linkCmd() *cobra.Command {
	return a.relationCmd("link", "Mark two concepts as related", (*concept.Repository).Link)
}

func (a *app) unlinkCmd() *cobra.Command {
	return a.relationCmd("unlink", "Remove the relation between two concepts", (*concept.Repository).Unlink)
}

func (a *app) relationCmd(use, short string, op func(*concept.Repository, string, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " A B",
		Short: short,
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var changed bool
			err := a.mutate(func(repo *concept.Repository) (bool, error) {
				var err error
				changed, err = op(repo, args[0], args[1])
				return changed, err
			})
			if err != nil {
				return err
			}
			if changed {
				a.out.Success("%s: %q <-> %q", use, args[0], args[1])
			} else {
				a.out.Note("%s: %q <-> %q already in that state, nothing saved", use, args[0], args[1])
			}
			return a.structured(map[string]bool{"changed": changed})
		},
	}
}

func (a *app) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Replace the data file with its backup",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := a.store.Restore()
			if err != nil {
				return err
			}
			a.out.Success("Restored %s from %s", a.store.Path(), a.store.BackupPath())
			return a.out.Info(a.store.Path(), doc, concept.New(doc).Stats())
		},
	}
}

func (a *app) diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show what changed between the backup and the data file",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.store.Diff()
			if err != nil {
				return err
			}
			a.out.Diff(d)
			return nil
		},
	}
}

func (a *app) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the data file and its backup",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep := health.Check(a.store)
			if err := a.out.Health(rep); err != nil {
				return err
			}
			if rep.Recoverable() {
				return nil
			}
			_, _, err := a.store.Load()
			return err
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export concepts and misconceptions to a spreadsheet",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				return usagef("export: --xlsx PATH is required")
			}
			doc, err := a.load()
			if err != nil {
				return err
			}
			if err := render.Export(path, doc); err != nil {
				return err
			}
			a.out.Success("Exported %d concepts to %s", len(doc.Concepts), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "xlsx", "", "output workbook path")
	return cmd
}

// structured prints v for json and yaml output; text output has already
// been written by the caller.
func (a *app) structured(v any) error {
	if a.out.Text() {
		return nil
	}
	return a.out.Encode(v)
}

func parseMastery(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &model.ValidationError{Field: "mastery", Reason: fmt.Sprintf("%q is not an integer", s)}
	}
	return n, nil
}
