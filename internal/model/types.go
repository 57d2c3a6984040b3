package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FormatVersion is the only document version this build reads or writes.
const FormatVersion = "1.0"

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence accepts the three levels case-insensitively.
func ParseConfidence(s string) (Confidence, error) {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return c, nil
	}
	return "", &ValidationError{Field: "confidence", Reason: fmt.Sprintf("must be low, medium, or high, got %q", s)}
}

const (
	MinMastery = 0
	MaxMastery = 100
)

// Document is the root object persisted to the data file.
type Document struct {
	Profile        string              `json:"profile" yaml:"profile"`
	Metadata       Metadata            `json:"metadata" yaml:"metadata"`
	Concepts       map[string]*Concept `json:"concepts" yaml:"concepts"`
	Misconceptions []Misconception     `json:"misconceptions" yaml:"misconceptions"`
	Sessions       []Session           `json:"sessions" yaml:"sessions"`
}

type Metadata struct {
	Created      time.Time `json:"created" yaml:"created"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
	Version      string    `json:"version" yaml:"version"`
}

type Concept struct {
	Name          string     `json:"name" yaml:"name"`
	Mastery       int        `json:"mastery" yaml:"mastery"`
	Confidence    Confidence `json:"confidence" yaml:"confidence"`
	Struggles     []Note     `json:"struggles" yaml:"struggles"`
	Breakthroughs []Note     `json:"breakthroughs" yaml:"breakthroughs"`
	Related       []string   `json:"related" yaml:"related"`
	FirstSeen     time.Time  `json:"first_seen" yaml:"first_seen"`
	LastReviewed  time.Time  `json:"last_reviewed" yaml:"last_reviewed"`
}

// Note is a timestamped struggle or breakthrough annotation.
type Note struct {
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Description string    `json:"description" yaml:"description"`
}

type Misconception struct {
	ID         string     `json:"id" yaml:"id"`
	Concept    string     `json:"concept" yaml:"concept"`
	Belief     string     `json:"belief" yaml:"belief"`
	Correction string     `json:"correction" yaml:"correction"`
	Identified time.Time  `json:"identified" yaml:"identified"`
	Resolved   bool       `json:"resolved" yaml:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at" yaml:"resolved_at"`
}

// Session records one successfully applied session-end batch.
type Session struct {
	ID            string    `json:"id" yaml:"id"`
	Ended         time.Time `json:"ended" yaml:"ended"`
	Summary       string    `json:"summary" yaml:"summary"`
	Updates       int       `json:"updates" yaml:"updates"`
	Struggles     int       `json:"struggles" yaml:"struggles"`
	Breakthroughs int       `json:"breakthroughs" yaml:"breakthroughs"`
}

// NewDocument returns a minimal valid document.
func NewDocument(profile string, now time.Time) *Document {
	return &Document{
		Profile: profile,
		Metadata: Metadata{
			Created:      now,
			LastModified: now,
			Version:      FormatVersion,
		},
		Concepts:       map[string]*Concept{},
		Misconceptions: []Misconception{},
		Sessions:       []Session{},
	}
}

// Clone returns a deep copy. Mutating the copy never affects d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Profile:        d.Profile,
		Metadata:       d.Metadata,
		Concepts:       make(map[string]*Concept, len(d.Concepts)),
		Misconceptions: make([]Misconception, len(d.Misconceptions)),
		Sessions:       append([]Session{}, d.Sessions...),
	}
	for k, c := range d.Concepts {
		out.Concepts[k] = c.Clone()
	}
	for i, m := range d.Misconceptions {
		if m.ResolvedAt != nil {
			t := *m.ResolvedAt
			m.ResolvedAt = &t
		}
		out.Misconceptions[i] = m
	}
	return out
}

func (c *Concept) Clone() *Concept {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Struggles = append([]Note{}, c.Struggles...)
	cp.Breakthroughs = append([]Note{}, c.Breakthroughs...)
	cp.Related = append([]string{}, c.Related...)
	return &cp
}

// ConceptNames returns the concept keys in sorted order.
func (d *Document) ConceptNames() []string {
	names := make([]string, 0, len(d.Concepts))
	for k := range d.Concepts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
