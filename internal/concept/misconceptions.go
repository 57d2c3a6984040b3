package concept

import (
	"fmt"
	"strings"

	"github.com/jeanpaul/studentmodel/internal/model"
)

type Status int

const (
	StatusAll Status = iota
	StatusOpen
	StatusResolved
)

// Filter selects misconceptions. An empty Concept matches every concept.
type Filter struct {
	Concept string
	Status  Status
}

// AddMisconception records an incorrect belief about a concept. The same
// belief (ignoring case) may only be recorded once per concept.
func (r *Repository) AddMisconception(name, belief, correction string) (*model.Misconception, error) {
	c, err := r.Find(name)
	if err != nil {
		return nil, err
	}
	belief, correction = strings.TrimSpace(belief), strings.TrimSpace(correction)
	if err := check(misconceptionInput{Belief: belief, Correction: correction}); err != nil {
		return nil, err
	}
	for _, m := range r.doc.Misconceptions {
		if model.SameName(m.Concept, c.Name) && strings.EqualFold(m.Belief, belief) {
			return nil, &model.AlreadyExistsError{Name: belief}
		}
	}

	now := r.touch(nil)
	r.doc.Misconceptions = append(r.doc.Misconceptions, model.Misconception{
		ID:         r.newID(),
		Concept:    c.Name,
		Belief:     belief,
		Correction: correction,
		Identified: now,
	})
	return &r.doc.Misconceptions[len(r.doc.Misconceptions)-1], nil
}

// ResolveMisconception marks the index-th open misconception of a concept
// as resolved. Indexes count open misconceptions only, in recorded order.
func (r *Repository) ResolveMisconception(name string, index int) (*model.Misconception, error) {
	c, err := r.Find(name)
	if err != nil {
		return nil, err
	}
	var open []int
	for i, m := range r.doc.Misconceptions {
		if model.SameName(m.Concept, c.Name) && !m.Resolved {
			open = append(open, i)
		}
	}
	if len(open) == 0 {
		return nil, &model.ValidationError{Field: "index", Reason: fmt.Sprintf("%q has no open misconceptions", c.Name)}
	}
	if index < 0 || index >= len(open) {
		return nil, &model.ValidationError{Field: "index", Reason: fmt.Sprintf("must be between 0 and %d, got %d", len(open)-1, index)}
	}

	now := r.touch(nil)
	m := &r.doc.Misconceptions[open[index]]
	m.Resolved = true
	m.ResolvedAt = &now
	return m, nil
}

// Misconceptions returns the misconceptions matching f in recorded order.
func (r *Repository) Misconceptions(f Filter) ([]model.Misconception, error) {
	var concept string
	if f.Concept != "" {
		c, err := r.Find(f.Concept)
		if err != nil {
			return nil, err
		}
		concept = c.Name
	}
	out := []model.Misconception{}
	for _, m := range r.doc.Misconceptions {
		if concept != "" && !model.SameName(m.Concept, concept) {
			continue
		}
		switch {
		case f.Status == StatusOpen && m.Resolved,
			f.Status == StatusResolved && !m.Resolved:
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
