// Package health inspects the data file and its backup without modifying
// either, for the doctor command.
package health

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/jeanpaul/studentmodel/internal/model"
)

type Role string

const (
	RolePrimary Role = "primary"
	RoleBackup  Role = "backup"
)

type Status struct {
	Role         Role      `json:"role" yaml:"role"`
	Path         string    `json:"path" yaml:"path"`
	Present      bool      `json:"present" yaml:"present"`
	Valid        bool      `json:"valid" yaml:"valid"`
	Concepts     int       `json:"concepts" yaml:"concepts"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Inspector reads and validates one file. *store.Store satisfies it.
type Inspector interface {
	Path() string
	BackupPath() string
	Inspect(path string) (*model.Document, error)
}

type Report struct {
	Primary Status `json:"primary" yaml:"primary"`
	Backup  Status `json:"backup" yaml:"backup"`
}

// Healthy reports whether a load would succeed from the primary alone.
func (r Report) Healthy() bool { return r.Primary.Valid }

// Recoverable reports whether a load would succeed at all.
func (r Report) Recoverable() bool { return r.Primary.Valid || r.Backup.Valid }

// Advice returns a one-line suggestion for the current state, or "" when
// nothing needs doing.
func (r Report) Advice() string {
	switch {
	case !r.Primary.Present && !r.Backup.Present:
		return "no student model yet; run 'student init'"
	case r.Primary.Valid && !r.Backup.Valid && r.Backup.Present:
		return "backup is unusable; the next save replaces it"
	case r.Primary.Valid:
		return ""
	case r.Backup.Valid:
		return "primary is unusable; run 'student restore' to recover from the backup"
	}
	return "both files are unusable; repair one by hand"
}

func Check(in Inspector) Report {
	return Report{
		Primary: check(in, RolePrimary, in.Path()),
		Backup:  check(in, RoleBackup, in.BackupPath()),
	}
}

func check(in Inspector, role Role, path string) Status {
	s := Status{Role: role, Path: path}
	doc, err := in.Inspect(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.Error = "missing"
		return s
	}
	s.Present = true
	if err != nil {
		s.Error = friendlyError(err)
		return s
	}
	s.Valid = true
	s.Concepts = len(doc.Concepts)
	s.LastModified = doc.Metadata.LastModified
	return s
}

func friendlyError(err error) string {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		if verr.Field == "(root)" && strings.Contains(verr.Reason, "malformed") {
			return "not valid JSON"
		}
		return fmt.Sprintf("fails validation at %s: %s", verr.Field, verr.Reason)
	}
	if errors.Is(err, fs.ErrPermission) {
		return "permission denied (check file ownership)"
	}
	return err.Error()
}
