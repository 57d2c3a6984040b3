package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeanpaul/studentmodel/internal/concept"
	"github.com/jeanpaul/studentmodel/internal/model"
)

func (a *app) misconceptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "misconception",
		Short: "Track incorrect beliefs about concepts",
	}
	cmd.AddCommand(a.misconceptionAddCmd(), a.misconceptionResolveCmd(), a.misconceptionListCmd())
	return cmd
}

func (a *app) misconceptionAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add CONCEPT BELIEF CORRECTION",
		Short: "Record a misconception",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m model.Misconception
			err := a.mutate(func(repo *concept.Repository) (bool, error) {
				added, err := repo.AddMisconception(args[0], args[1], args[2])
				if err != nil {
					return false, err
				}
				m = *added
				return true, nil
			})
			if err != nil {
				return err
			}
			a.out.Success("Recorded misconception for %q", m.Concept)
			return a.structured(m)
		},
	}
}

func (a *app) misconceptionResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve CONCEPT INDEX",
		Short: "Mark an open misconception as resolved (INDEX from 'misconception list')",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return usagef("resolve: index %q is not an integer", args[1])
			}
			var m model.Misconception
			err = a.mutate(func(repo *concept.Repository) (bool, error) {
				resolved, err := repo.ResolveMisconception(args[0], index)
				if err != nil {
					return false, err
				}
				m = *resolved
				return true, nil
			})
			if err != nil {
				return err
			}
			a.out.Success("Resolved misconception for %q: %s", m.Concept, m.Belief)
			return a.structured(m)
		},
	}
}

func (a *app) misconceptionListCmd() *cobra.Command {
	var (
		open     bool
		resolved bool
	)
	cmd := &cobra.Command{
		Use:   "list [CONCEPT]",
		Short: "List misconceptions, optionally for one concept",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usagef("list: at most one concept, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f := concept.Filter{Status: concept.StatusAll}
			if len(args) == 1 {
				f.Concept = args[0]
			}
			switch {
			case open && resolved:
				return usagef("list: --open and --resolved are exclusive")
			case open:
				f.Status = concept.StatusOpen
			case resolved:
				f.Status = concept.StatusResolved
			}
			repo, err := a.repo()
			if err != nil {
				return err
			}
			ms, err := repo.Misconceptions(f)
			if err != nil {
				return err
			}
			return a.out.Misconceptions(ms)
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "only open misconceptions")
	cmd.Flags().BoolVar(&resolved, "resolved", false, "only resolved misconceptions")
	return cmd
}
