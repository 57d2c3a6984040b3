package concept

import (
	"sort"

	"github.com/jeanpaul/studentmodel/internal/model"
)

// Link relates a and b in both directions. Linking an already linked pair
// is a no-op and reports changed == false.
func (r *Repository) Link(a, b string) (changed bool, err error) {
	ca, cb, err := r.endpoints(a, b)
	if err != nil {
		return false, err
	}
	if hasRelation(ca, cb.Name) && hasRelation(cb, ca.Name) {
		return false, nil
	}
	ca.Related = withRelation(ca.Related, cb.Name)
	cb.Related = withRelation(cb.Related, ca.Name)
	cb.LastReviewed = r.touch(ca)
	return true, nil
}

// Unlink removes the relation between a and b from both sides. Unlinking a
// pair that was never linked is a no-op and reports changed == false.
func (r *Repository) Unlink(a, b string) (changed bool, err error) {
	ca, cb, err := r.endpoints(a, b)
	if err != nil {
		return false, err
	}
	if !hasRelation(ca, cb.Name) && !hasRelation(cb, ca.Name) {
		return false, nil
	}
	ca.Related = withoutRelation(ca.Related, cb.Name)
	cb.Related = withoutRelation(cb.Related, ca.Name)
	cb.LastReviewed = r.touch(ca)
	return true, nil
}

// Related resolves the concepts linked to name, in name order.
func (r *Repository) Related(name string) ([]*model.Concept, error) {
	c, err := r.Find(name)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Concept, 0, len(c.Related))
	for _, rel := range c.Related {
		if key, ok := r.resolve(rel); ok {
			out = append(out, r.doc.Concepts[key])
		}
	}
	return out, nil
}

func (r *Repository) endpoints(a, b string) (*model.Concept, *model.Concept, error) {
	if model.SameName(a, b) {
		return nil, nil, &model.RelationError{From: a, To: b, Reason: "a concept cannot relate to itself"}
	}
	ca, err := r.Find(a)
	if err != nil {
		return nil, nil, &model.RelationError{From: a, To: b, Reason: err.Error(), Err: err}
	}
	cb, err := r.Find(b)
	if err != nil {
		return nil, nil, &model.RelationError{From: a, To: b, Reason: err.Error(), Err: err}
	}
	return ca, cb, nil
}

func hasRelation(c *model.Concept, name string) bool {
	for _, rel := range c.Related {
		if model.SameName(rel, name) {
			return true
		}
	}
	return false
}

// withRelation returns related plus name, sorted, without duplicates.
func withRelation(related []string, name string) []string {
	out := withoutRelation(related, name)
	out = append(out, name)
	sort.Strings(out)
	return out
}

func withoutRelation(related []string, name string) []string {
	out := make([]string, 0, len(related))
	for _, rel := range related {
		if !model.SameName(rel, name) {
			out = append(out, rel)
		}
	}
	return out
}
