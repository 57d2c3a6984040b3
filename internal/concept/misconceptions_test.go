package concept

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/studentmodel/internal/model"
	"github.com/jeanpaul/studentmodel/internal/schema"
)

func TestMisconceptions_Lifecycle(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "Goroutines", 30, model.ConfidenceLow)
	mustAdd(t, r, "Channels", 30, model.ConfidenceLow)

	m, err := r.AddMisconception("goroutines", "goroutines are OS threads", "they are multiplexed onto threads")
	require.NoError(t, err)
	assert.Equal(t, "id-1", m.ID)
	assert.Equal(t, "Goroutines", m.Concept)
	assert.False(t, m.Resolved)
	assert.Nil(t, m.ResolvedAt)

	_, err = r.AddMisconception("Goroutines", "GOROUTINES ARE OS THREADS", "dup")
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	_, err = r.AddMisconception("Goroutines", "they are free", "each has a stack")
	require.NoError(t, err)
	_, err = r.AddMisconception("Channels", "unbuffered channels buffer one value", "they synchronize")
	require.NoError(t, err)

	// Index 1 among open misconceptions of Goroutines is the second entry.
	resolved, err := r.ResolveMisconception("Goroutines", 1)
	require.NoError(t, err)
	assert.Equal(t, "they are free", resolved.Belief)
	require.NotNil(t, resolved.ResolvedAt)

	open, err := r.Misconceptions(Filter{Concept: "goroutines", Status: StatusOpen})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "goroutines are OS threads", open[0].Belief)

	done, err := r.Misconceptions(Filter{Status: StatusResolved})
	require.NoError(t, err)
	require.Len(t, done, 1)

	all, err := r.Misconceptions(Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, schema.NewValidator().Validate(r.Document()))
}

func TestMisconceptions_Errors(t *testing.T) {
	r := newRepo(t)
	mustAdd(t, r, "Goroutines", 30, model.ConfidenceLow)

	_, err := r.AddMisconception("Missing", "a", "b")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = r.AddMisconception("Goroutines", "", "b")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = r.AddMisconception("Goroutines", "a", "b\xc3")
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "correction", verr.Field)
	assert.Empty(t, r.Document().Misconceptions)

	_, err = r.ResolveMisconception("Goroutines", 0)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = r.AddMisconception("Goroutines", "a", "b")
	require.NoError(t, err)
	_, err = r.ResolveMisconception("Goroutines", 1)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = r.Misconceptions(Filter{Concept: "Missing"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}
