package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jeanpaul/studentmodel/internal/model"
)

// checkEncoding rejects strings that are not valid UTF-8. It must run on
// the in-memory document: json.Marshal replaces invalid bytes with U+FFFD,
// so two distinct keys can encode to the same JSON key and one is lost.
func checkEncoding(doc *model.Document) error {
	if err := utf8Field("profile", doc.Profile); err != nil {
		return err
	}
	for _, key := range doc.ConceptNames() {
		field := "concepts." + strings.ToValidUTF8(key, "\uFFFD")
		if err := utf8Field(field, key); err != nil {
			return err
		}
		c := doc.Concepts[key]
		if c == nil {
			continue
		}
		if err := utf8Field(field+".name", c.Name); err != nil {
			return err
		}
		for i, rel := range c.Related {
			if err := utf8Field(fmt.Sprintf("%s.related.%d", field, i), rel); err != nil {
				return err
			}
		}
		if err := notes(field+".struggles", c.Struggles); err != nil {
			return err
		}
		if err := notes(field+".breakthroughs", c.Breakthroughs); err != nil {
			return err
		}
	}
	for i, m := range doc.Misconceptions {
		field := fmt.Sprintf("misconceptions.%d", i)
		for _, f := range []struct{ name, value string }{
			{"id", m.ID}, {"concept", m.Concept}, {"belief", m.Belief}, {"correction", m.Correction},
		} {
			if err := utf8Field(field+"."+f.name, f.value); err != nil {
				return err
			}
		}
	}
	for i, s := range doc.Sessions {
		if err := utf8Field(fmt.Sprintf("sessions.%d.summary", i), s.Summary); err != nil {
			return err
		}
		if err := utf8Field(fmt.Sprintf("sessions.%d.id", i), s.ID); err != nil {
			return err
		}
	}
	return nil
}

func notes(field string, ns []model.Note) error {
	for i, n := range ns {
		if err := utf8Field(fmt.Sprintf("%s.%d.description", field, i), n.Description); err != nil {
			return err
		}
	}
	return nil
}

func utf8Field(field, s string) error {
	if utf8.ValidString(s) {
		return nil
	}
	return &model.ValidationError{Field: field, Reason: "is not valid UTF-8"}
}
