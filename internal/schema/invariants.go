package schema

import (
	"fmt"

	"github.com/jeanpaul/studentmodel/internal/model"
)

// checkInvariants enforces what the JSON schema cannot: identity of
// concept keys under case folding, relation references and symmetry, and
// misconception references. Keys are visited in sorted order so the same
// document always yields the same first violation.
func checkInvariants(doc *model.Document) error {
	if doc.Metadata.LastModified.Before(doc.Metadata.Created) {
		return &model.ValidationError{Field: "metadata.last_modified", Reason: "is before metadata.created"}
	}

	names := doc.ConceptNames()
	index := make(map[string]string, len(names))
	for _, key := range names {
		c := doc.Concepts[key]
		field := "concepts." + key
		if c == nil {
			return &model.ValidationError{Field: field, Reason: "is null"}
		}
		if c.Name != key {
			return &model.ValidationError{Field: field + ".name", Reason: fmt.Sprintf("%q does not match its key", c.Name)}
		}
		folded := model.FoldName(key)
		if prev, dup := index[folded]; dup {
			return &model.ValidationError{Field: field, Reason: fmt.Sprintf("collides with %q under case-insensitive comparison", prev)}
		}
		index[folded] = key
		if c.LastReviewed.Before(c.FirstSeen) {
			return &model.ValidationError{Field: field + ".last_reviewed", Reason: "is before first_seen"}
		}
	}

	for _, key := range names {
		c := doc.Concepts[key]
		seen := make(map[string]bool, len(c.Related))
		for i, rel := range c.Related {
			field := fmt.Sprintf("concepts.%s.related.%d", key, i)
			folded := model.FoldName(rel)
			if folded == model.FoldName(key) {
				return &model.ValidationError{Field: field, Reason: "concept cannot relate to itself"}
			}
			if seen[folded] {
				return &model.ValidationError{Field: field, Reason: fmt.Sprintf("%q is listed twice", rel)}
			}
			seen[folded] = true
			target, ok := index[folded]
			if !ok {
				return &model.ValidationError{Field: field, Reason: fmt.Sprintf("references unknown concept %q", rel)}
			}
			if !relates(doc.Concepts[target], key) {
				return &model.ValidationError{Field: field, Reason: fmt.Sprintf("%q does not link back", target)}
			}
		}
	}

	for i, m := range doc.Misconceptions {
		field := fmt.Sprintf("misconceptions.%d", i)
		if _, ok := index[model.FoldName(m.Concept)]; !ok {
			return &model.ValidationError{Field: field + ".concept", Reason: fmt.Sprintf("references unknown concept %q", m.Concept)}
		}
		if m.Resolved != (m.ResolvedAt != nil) {
			return &model.ValidationError{Field: field + ".resolved_at", Reason: "must be set exactly when resolved is true"}
		}
	}
	return nil
}

func relates(c *model.Concept, name string) bool {
	for _, rel := range c.Related {
		if model.SameName(rel, name) {
			return true
		}
	}
	return false
}
