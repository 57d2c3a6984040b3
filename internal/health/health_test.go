package health

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/studentmodel/internal/model"
	"github.com/jeanpaul/studentmodel/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(filepath.Join(t.TempDir(), "student_model.json"))
}

func TestCheck_Missing(t *testing.T) {
	rep := Check(newStore(t))

	assert.False(t, rep.Primary.Present)
	assert.False(t, rep.Backup.Present)
	assert.False(t, rep.Recoverable())
	assert.Contains(t, rep.Advice(), "student init")
}

func TestCheck_Healthy(t *testing.T) {
	s := newStore(t)
	doc := model.NewDocument("", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, s.Save(doc))
	require.NoError(t, s.Save(doc))

	rep := Check(s)
	assert.True(t, rep.Healthy())
	assert.True(t, rep.Backup.Valid)
	assert.Equal(t, doc.Metadata.LastModified, rep.Primary.LastModified)
	assert.Empty(t, rep.Advice())
}

func TestCheck_CorruptPrimary(t *testing.T) {
	s := newStore(t)
	doc := model.NewDocument("", time.Now().UTC())
	require.NoError(t, s.Save(doc))
	require.NoError(t, s.Save(doc))
	require.NoError(t, os.WriteFile(s.Path(), []byte("not json"), 0o644))

	rep := Check(s)
	assert.True(t, rep.Primary.Present)
	assert.False(t, rep.Primary.Valid)
	assert.Equal(t, "not valid JSON", rep.Primary.Error)
	assert.True(t, rep.Recoverable())
	assert.Contains(t, rep.Advice(), "student restore")
}

func TestCheck_SchemaViolation(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"profile": 7}`), 0o644))

	rep := Check(s)
	assert.False(t, rep.Recoverable())
	assert.Contains(t, rep.Primary.Error, "fails validation")
	assert.Contains(t, rep.Advice(), "by hand")
}
