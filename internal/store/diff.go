package store

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/jeanpaul/studentmodel/internal/model"
)

// Diff returns a unified diff from the backup slot to the primary, i.e.
// what the most recent save changed. Empty when the files are identical.
func (s *Store) Diff() (string, error) {
	primary, err := s.fs.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: no document at %s", model.ErrNotInitialized, s.path)
		}
		return "", err
	}
	backup, err := s.fs.ReadFile(s.BackupPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	before, after := string(backup), string(primary)
	if before == after {
		return "", nil
	}
	edits := myers.ComputeEdits(span.URIFromPath(s.BackupPath()), before, after)
	return fmt.Sprint(gotextdiff.ToUnified(s.BackupPath(), s.path, before, edits)), nil
}
