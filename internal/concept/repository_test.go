package concept

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/studentmodel/internal/model"
	"github.com/jeanpaul/studentmodel/internal/schema"
)

var t0 = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

// tickingClock advances one minute per call so ordering of stamps is visible.
func tickingClock() func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Minute)
	}
}

func newRepo(t *testing.T) *Repository {
	t.Helper()
	seq := 0
	return New(model.NewDocument("", t0),
		WithClock(tickingClock()),
		WithIDs(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
	)
}

func intp(v int) *int { return &v }

func confp(c model.Confidence) *model.Confidence { return &c }

func mustAdd(t *testing.T, r *Repository, name string, mastery int, conf model.Confidence) *model.Concept {
	t.Helper()
	c, err := r.Add(name, mastery, conf)
	require.NoError(t, err)
	return c
}

func TestAdd_FindIgnoresCase(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "React Hooks", 40, model.ConfidenceLow)

	for _, q := range []string{"React Hooks", "REACT hooks", "react hooks", "  React HOOKS "} {
		c, err := r.Find(q)
		require.NoError(t, err, q)
		assert.Equal(t, "React Hooks", c.Name)
	}
}

func TestAdd_SetsFields(t *testing.T) {
	r := newRepo(t)
	c := mustAdd(t, r, "Closures", 65, model.ConfidenceMedium)

	assert.Equal(t, 65, c.Mastery)
	assert.Equal(t, model.ConfidenceMedium, c.Confidence)
	assert.Equal(t, c.FirstSeen, c.LastReviewed)
	assert.Equal(t, c.FirstSeen, r.Document().Metadata.LastModified)
	assert.Empty(t, c.Struggles)
	assert.Empty(t, c.Breakthroughs)
	assert.Empty(t, c.Related)
}

func TestAdd_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		concept    string
		mastery    int
		confidence model.Confidence
		is         error
		field      string
	}{
		{"duplicate other case", "closures", 10, model.ConfidenceLow, model.ErrAlreadyExists, ""},
		{"mastery too high", "Monads", 101, model.ConfidenceLow, model.ErrValidation, "mastery"},
		{"mastery negative", "Monads", -1, model.ConfidenceLow, model.ErrValidation, "mastery"},
		{"bad confidence", "Monads", 10, "sure", model.ErrValidation, "confidence"},
		{"empty name", "   ", 10, model.ConfidenceLow, model.ErrValidation, "name"},
		{"invalid utf-8 name", "Monads\xff", 10, model.ConfidenceLow, model.ErrValidation, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRepo(t)
			mustAdd(t, r, "Closures", 50, model.ConfidenceHigh)
			before := r.Document().Clone()

			_, err := r.Add(tt.concept, tt.mastery, tt.confidence)
			require.ErrorIs(t, err, tt.is)
			if tt.field != "" {
				var verr *model.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.field, verr.Field)
			}
			assert.Equal(t, before, r.Document())
		})
	}
}

func TestAdd_AcceptsBounds(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "Zero", 0, model.ConfidenceLow)
	mustAdd(t, r, "Hundred", 100, model.ConfidenceHigh)
	assert.Equal(t, 2, r.Len())
}

func TestUpdate_OnlySuppliedFields(t *testing.T) {
	r := newRepo(t)
	c := mustAdd(t, r, "Recursion", 30, model.ConfidenceLow)
	added := c.LastReviewed

	_, err := r.Update("recursion", Changes{Mastery: intp(70)})
	require.NoError(t, err)
	assert.Equal(t, 70, c.Mastery)
	assert.Equal(t, model.ConfidenceLow, c.Confidence)
	assert.True(t, c.LastReviewed.After(added))

	_, err = r.Update("RECURSION", Changes{Confidence: confp(model.ConfidenceHigh)})
	require.NoError(t, err)
	assert.Equal(t, 70, c.Mastery)
	assert.Equal(t, model.ConfidenceHigh, c.Confidence)
	assert.Equal(t, c.LastReviewed, r.Document().Metadata.LastModified)
	assert.Equal(t, added, c.FirstSeen)
}

func TestUpdate_OutOfRangeLeavesConceptUnchanged(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "X", 42, model.ConfidenceMedium)
	before := r.Document().Clone()

	_, err := r.Update("X", Changes{Mastery: intp(150), Confidence: confp(model.ConfidenceHigh)})

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "mastery", verr.Field)
	assert.Equal(t, before, r.Document())
	c, _ := r.Find("x")
	assert.Equal(t, 42, c.Mastery)
}

func TestUpdate_Errors(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "X", 42, model.ConfidenceMedium)

	_, err := r.Update("Y", Changes{Mastery: intp(1)})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = r.Update("X", Changes{})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = r.Update("X", Changes{Confidence: confp("unsure")})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRecordNotes(t *testing.T) {
	r := newRepo(t)
	c := mustAdd(t, r, "Pointers", 20, model.ConfidenceLow)

	_, err := r.RecordStruggle("pointers", "double indirection")
	require.NoError(t, err)
	_, err = r.RecordStruggle("pointers", "double indirection")
	require.NoError(t, err)
	_, err = r.RecordBreakthrough("POINTERS", "drew the memory diagram")
	require.NoError(t, err)

	require.Len(t, c.Struggles, 2)
	require.Len(t, c.Breakthroughs, 1)
	assert.Equal(t, "double indirection", c.Struggles[0].Description)
	assert.True(t, c.Struggles[1].Timestamp.After(c.Struggles[0].Timestamp))
	assert.Equal(t, c.Breakthroughs[0].Timestamp, c.LastReviewed)
}

func TestRecordNotes_Errors(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "Pointers", 20, model.ConfidenceLow)
	before := r.Document().Clone()

	_, err := r.RecordStruggle("Missing", "x")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = r.RecordBreakthrough("Pointers", "  ")
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = r.RecordStruggle("Pointers", "nil deref \xfe")
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "description", verr.Field)
	assert.Equal(t, before, r.Document())
}

func TestLink_Symmetric(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "React Hooks", 40, model.ConfidenceLow)
	mustAdd(t, r, "Closures", 70, model.ConfidenceMedium)

	changed, err := r.Link("react hooks", "CLOSURES")
	require.NoError(t, err)
	assert.True(t, changed)

	relA, err := r.Related("React Hooks")
	require.NoError(t, err)
	require.Len(t, relA, 1)
	assert.Equal(t, "Closures", relA[0].Name)

	relB, err := r.Related("closures")
	require.NoError(t, err)
	require.Len(t, relB, 1)
	assert.Equal(t, "React Hooks", relB[0].Name)

	require.NoError(t, schema.NewValidator().Validate(r.Document()))
}

func TestLink_Idempotent(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "A", 1, model.ConfidenceLow)
	mustAdd(t, r, "B", 1, model.ConfidenceLow)
	_, err := r.Link("A", "B")
	require.NoError(t, err)
	before := r.Document().Clone()

	changed, err := r.Link("b", "a")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, r.Document())
}

func TestUnlink(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "A", 1, model.ConfidenceLow)
	mustAdd(t, r, "B", 1, model.ConfidenceLow)
	mustAdd(t, r, "C", 1, model.ConfidenceLow)
	_, err := r.Link("A", "B")
	require.NoError(t, err)
	_, err = r.Link("A", "C")
	require.NoError(t, err)

	changed, err := r.Unlink("B", "A")
	require.NoError(t, err)
	assert.True(t, changed)

	a, _ := r.Find("A")
	b, _ := r.Find("B")
	assert.Equal(t, []string{"C"}, a.Related)
	assert.Empty(t, b.Related)

	// Never linked: succeeds without changes.
	before := r.Document().Clone()
	changed, err = r.Unlink("B", "C")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, r.Document())
}

func TestLink_InvalidRelations(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "A", 1, model.ConfidenceLow)
	before := r.Document().Clone()

	_, err := r.Link("A", "a")
	assert.ErrorIs(t, err, model.ErrInvalidRelation)

	_, err = r.Link("A", "Missing")
	assert.ErrorIs(t, err, model.ErrInvalidRelation)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = r.Unlink("Missing", "A")
	assert.ErrorIs(t, err, model.ErrInvalidRelation)

	assert.Equal(t, before, r.Document())
}

func TestRelated_NotFound(t *testing.T) {
	r := newRepo(t)
	_, err := r.Related("nothing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestList_SortedByMastery(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "Low", 10, model.ConfidenceLow)
	mustAdd(t, r, "High", 90, model.ConfidenceHigh)
	mustAdd(t, r, "Mid B", 50, model.ConfidenceMedium)
	mustAdd(t, r, "Mid A", 50, model.ConfidenceMedium)

	var names []string
	for _, c := range r.List() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"High", "Mid A", "Mid B", "Low"}, names)
}

func TestStats(t *testing.T) {
	r := newRepo(t)
	assert.Equal(t, Stats{}, r.Stats())

	mustAdd(t, r, "A", 20, model.ConfidenceLow)
	mustAdd(t, r, "B", 70, model.ConfidenceLow)
	_, err := r.AddMisconception("A", "x", "y")
	require.NoError(t, err)

	st := r.Stats()
	assert.Equal(t, 2, st.Concepts)
	assert.InDelta(t, 45.0, st.AverageMastery, 0.001)
	assert.Equal(t, 1, st.OpenMisconceptions)
}

func TestNew_IndexesLoadedDocument(t *testing.T) {
	doc := model.NewDocument("", t0)
	doc.Concepts["Big O"] = &model.Concept{Name: "Big O", Mastery: 5, Confidence: model.ConfidenceLow,
		Struggles: []model.Note{}, Breakthroughs: []model.Note{}, Related: []string{}, FirstSeen: t0, LastReviewed: t0}

	r := New(doc)
	c, err := r.Find("big o")
	require.NoError(t, err)
	assert.Same(t, doc.Concepts["Big O"], c)

	_, err = r.Add("BIG O", 1, model.ConfidenceLow)
	assert.ErrorIs(t, err, model.ErrAlreadyExists)
}
