package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeanpaul/studentmodel/internal/model"
	"github.com/jeanpaul/studentmodel/internal/session"
)

func (a *app) sessionEndCmd() *cobra.Command {
	var (
		raws    []rawRequest
		summary string
	)
	cmd := &cobra.Command{
		Use:   "session-end",
		Short: "Apply a whole session's updates in one all-or-nothing save",
		Long: `Apply a whole session's updates in one all-or-nothing save.

Every request is checked against the current model before anything is
written, in the order the flags were given. If one fails, nothing is
saved and the failing flag is reported with its position and value.

  --update "Concept:MASTERY:CONFIDENCE"   either value may be left empty
  --struggle "Concept:description"
  --breakthrough "Concept:description"`,
		Example: `  student session-end --update "Recursion:70:medium" --update "Big O::high" \
    --struggle "Closures:loop variable capture" --summary "week 3 review"`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := parseBatch(raws)
			if err != nil {
				return err
			}
			b.Summary = summary

			doc, err := a.load()
			if err != nil {
				return err
			}
			res, err := session.NewApplier(a.store, session.WithLogger(a.logger)).Apply(doc, b)
			var berr *model.BatchError
			if errors.As(err, &berr) && berr.Index < len(raws) {
				return fmt.Errorf("--%s %q: %w", raws[berr.Index].kind, raws[berr.Index].value, err)
			}
			if err != nil {
				return err
			}
			s := res.Session
			a.out.Success("Session saved: %d updates, %d struggles, %d breakthroughs", s.Updates, s.Struggles, s.Breakthroughs)
			return a.structured(s)
		},
	}
	f := cmd.Flags()
	f.Var(&requestFlag{kind: session.KindUpdate, into: &raws}, "update", `mastery/confidence update "Concept:MASTERY:CONFIDENCE" (repeatable)`)
	f.Var(&requestFlag{kind: session.KindStruggle, into: &raws}, "struggle", `struggle note "Concept:description" (repeatable)`)
	f.Var(&requestFlag{kind: session.KindBreakthrough, into: &raws}, "breakthrough", `breakthrough note "Concept:description" (repeatable)`)
	f.StringVar(&summary, "summary", "", "free-text session summary")
	return cmd
}

// rawRequest is one --update, --struggle or --breakthrough value as typed.
type rawRequest struct {
	kind  session.Kind
	value string
}

// requestFlag appends to a list shared by all three request flags, so the
// batch keeps command-line order across kinds.
type requestFlag struct {
	kind session.Kind
	into *[]rawRequest
}

func (f *requestFlag) Set(v string) error {
	*f.into = append(*f.into, rawRequest{kind: f.kind, value: v})
	return nil
}

func (f *requestFlag) String() string { return "" }
func (f *requestFlag) Type() string   { return "string" }

// parseBatch turns flag values into requests in the order they were given.
func parseBatch(raws []rawRequest) (session.Batch, error) {
	var b session.Batch
	for _, raw := range raws {
		var (
			req session.Request
			err error
		)
		if raw.kind == session.KindUpdate {
			req, err = parseUpdate(raw.value)
		} else {
			req, err = parseNote(raw.kind, raw.value)
		}
		if err != nil {
			return b, err
		}
		b.Requests = append(b.Requests, req)
	}
	if len(b.Requests) == 0 {
		return b, usagef("session-end: give at least one --update, --struggle or --breakthrough")
	}
	return b, nil
}

// parseUpdate splits from the right so concept names may contain colons.
func parseUpdate(raw string) (session.Request, error) {
	rest, conf, ok := cutLast(raw)
	if !ok {
		return session.Request{}, usagef("--update %q: want Concept:MASTERY:CONFIDENCE", raw)
	}
	name, mastery, ok := cutLast(rest)
	if !ok || strings.TrimSpace(name) == "" {
		return session.Request{}, usagef("--update %q: want Concept:MASTERY:CONFIDENCE", raw)
	}

	req := session.Request{Kind: session.KindUpdate, Concept: name}
	if strings.TrimSpace(mastery) != "" {
		m, err := parseMastery(mastery)
		if err != nil {
			return req, err
		}
		req.Mastery = &m
	}
	if strings.TrimSpace(conf) != "" {
		c, err := model.ParseConfidence(conf)
		if err != nil {
			return req, err
		}
		req.Confidence = &c
	}
	return req, nil
}

func parseNote(kind session.Kind, raw string) (session.Request, error) {
	name, desc, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return session.Request{}, usagef("--%s %q: want Concept:description", kind, raw)
	}
	return session.Request{Kind: kind, Concept: name, Description: desc}, nil
}

func cutLast(s string) (before, after string, found bool) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}
