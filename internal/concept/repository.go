// Package concept is the in-memory view of a student model's concepts.
//
// A Repository wraps one Document for the duration of a command. Lookups
// are case-insensitive through a folded-name index; display names keep the
// case they were added with. Every mutating method checks all of its
// inputs before writing anything, so a failed call leaves the document
// exactly as it was.
package concept

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeanpaul/studentmodel/internal/model"
)

type Repository struct {
	doc   *model.Document
	index map[string]string // folded name -> concept key
	now   func() time.Time
	newID func() string
}

type Option func(*Repository)

// WithClock sets the time source for timestamps written by mutations.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDs sets the generator for misconception IDs.
func WithIDs(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

// New indexes doc's concepts. The repository mutates doc in place.
func New(doc *model.Document, opts ...Option) *Repository {
	if doc.Concepts == nil {
		doc.Concepts = map[string]*model.Concept{}
	}
	r := &Repository{
		doc:   doc,
		index: make(map[string]string, len(doc.Concepts)),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	for key := range doc.Concepts {
		r.index[model.FoldName(key)] = key
	}
	return r
}

// Document returns the wrapped document.
func (r *Repository) Document() *model.Document { return r.doc }

// Len returns the number of concepts.
func (r *Repository) Len() int { return len(r.doc.Concepts) }

// Find looks a concept up by name, ignoring case. The returned concept is
// the live entry; callers must not modify it.
func (r *Repository) Find(name string) (*model.Concept, error) {
	key, ok := r.resolve(name)
	if !ok {
		return nil, &model.NotFoundError{Name: name}
	}
	return r.doc.Concepts[key], nil
}

// Add creates a concept. The name must not match an existing concept in
// any letter case.
func (r *Repository) Add(name string, mastery int, confidence model.Confidence) (*model.Concept, error) {
	name = strings.TrimSpace(name)
	if err := check(addInput{Name: name, Mastery: mastery, Confidence: confidence}); err != nil {
		return nil, err
	}
	if existing, ok := r.resolve(name); ok {
		return nil, &model.AlreadyExistsError{Name: existing}
	}

	now := r.now()
	c := &model.Concept{
		Name:          name,
		Mastery:       mastery,
		Confidence:    confidence,
		Struggles:     []model.Note{},
		Breakthroughs: []model.Note{},
		Related:       []string{},
		FirstSeen:     now,
		LastReviewed:  now,
	}
	r.doc.Concepts[name] = c
	r.index[model.FoldName(name)] = name
	r.doc.Metadata.LastModified = now
	return c, nil
}

// Changes lists the fields an Update should set. Nil fields are left alone.
type Changes struct {
	Mastery    *int              `field:"mastery" validate:"omitempty,min=0,max=100"`
	Confidence *model.Confidence `field:"confidence" validate:"omitempty,oneof=low medium high"`
}

func (c Changes) empty() bool { return c.Mastery == nil && c.Confidence == nil }

// Update applies the supplied fields of ch to the named concept.
func (r *Repository) Update(name string, ch Changes) (*model.Concept, error) {
	c, err := r.Find(name)
	if err != nil {
		return nil, err
	}
	if ch.empty() {
		return nil, &model.ValidationError{Field: "changes", Reason: "at least one of mastery or confidence is required"}
	}
	if err := check(ch); err != nil {
		return nil, err
	}

	if ch.Mastery != nil {
		c.Mastery = *ch.Mastery
	}
	if ch.Confidence != nil {
		c.Confidence = *ch.Confidence
	}
	r.touch(c)
	return c, nil
}

// RecordStruggle appends a timestamped struggle note.
func (r *Repository) RecordStruggle(name, description string) (*model.Concept, error) {
	return r.annotate(name, description, func(c *model.Concept, n model.Note) {
		c.Struggles = append(c.Struggles, n)
	})
}

// RecordBreakthrough appends a timestamped breakthrough note.
func (r *Repository) RecordBreakthrough(name, description string) (*model.Concept, error) {
	return r.annotate(name, description, func(c *model.Concept, n model.Note) {
		c.Breakthroughs = append(c.Breakthroughs, n)
	})
}

func (r *Repository) annotate(name, description string, add func(*model.Concept, model.Note)) (*model.Concept, error) {
	c, err := r.Find(name)
	if err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if err := check(noteInput{Description: description}); err != nil {
		return nil, err
	}
	now := r.touch(c)
	add(c, model.Note{Timestamp: now, Description: description})
	return c, nil
}

// List returns all concepts ordered by mastery, highest first, then name.
func (r *Repository) List() []*model.Concept {
	out := make([]*model.Concept, 0, len(r.doc.Concepts))
	for _, c := range r.doc.Concepts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mastery != out[j].Mastery {
			return out[i].Mastery > out[j].Mastery
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type Stats struct {
	Concepts             int
	AverageMastery       float64
	Sessions             int
	OpenMisconceptions   int
	ClosedMisconceptions int
}

func (r *Repository) Stats() Stats {
	st := Stats{Concepts: len(r.doc.Concepts), Sessions: len(r.doc.Sessions)}
	if st.Concepts > 0 {
		total := 0
		for _, c := range r.doc.Concepts {
			total += c.Mastery
		}
		st.AverageMastery = float64(total) / float64(st.Concepts)
	}
	for _, m := range r.doc.Misconceptions {
		if m.Resolved {
			st.ClosedMisconceptions++
		} else {
			st.OpenMisconceptions++
		}
	}
	return st
}

func (r *Repository) resolve(name string) (string, bool) {
	key, ok := r.index[model.FoldName(name)]
	return key, ok
}

// touch stamps c and the document as modified now and returns the stamp.
func (r *Repository) touch(c *model.Concept) time.Time {
	now := r.now()
	if c != nil {
		c.LastReviewed = now
	}
	r.doc.Metadata.LastModified = now
	return now
}
