// Package store owns the on-disk student model: one primary JSON file and
// one backup slot beside it.
//
// A save never overwrites the primary in place. The new content is written
// to a temp file in the same directory, the current primary is copied into
// the backup slot, and the temp file is renamed over the primary. The
// rename is the last filesystem action of a save; until it happens the old
// primary is intact, and after it the new one is.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jeanpaul/studentmodel/internal/model"
	"github.com/jeanpaul/studentmodel/internal/schema"
)

// BackupSuffix is appended to the primary path to name the backup slot.
const BackupSuffix = ".backup"

// Source identifies which file a document was loaded from.
type Source string

const (
	SourcePrimary Source = "primary"
	SourceBackup  Source = "backup"
)

// LoadReport describes how Load obtained its document. When Recovered is
// true the primary was unusable and PrimaryErr says why.
type LoadReport struct {
	Source     Source
	Recovered  bool
	PrimaryErr error
}

// fileSystem is the subset of os used by saves, swapped out in tests to
// simulate full disks and crashes.
type fileSystem interface {
	ReadFile(name string) ([]byte, error)
	CreateTemp(dir, pattern string) (tempFile, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
	Stat(name string) (fs.FileInfo, error)
	MkdirAll(path string, perm fs.FileMode) error
	SyncDir(dir string) error
}

type tempFile interface {
	Name() string
	Write(p []byte) (int, error)
	Sync() error
	Close() error
}

type Store struct {
	path      string
	validator *schema.Validator
	logger    *zap.Logger
	fs        fileSystem
	now       func() time.Time
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock sets the time source used by Initialize.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithValidator(v *schema.Validator) Option {
	return func(s *Store) { s.validator = v }
}

// New returns a Store for the document at path. The backup lives at
// path+BackupSuffix.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:      filepath.Clean(path),
		validator: schema.NewValidator(),
		logger:    zap.NewNop(),
		fs:        osFS{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string       { return s.path }
func (s *Store) BackupPath() string { return s.path + BackupSuffix }

// Exists reports whether a primary document is present.
func (s *Store) Exists() (bool, error) {
	_, err := s.fs.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load reads the primary document, falling back to the backup when the
// primary fails validation. Neither file is modified.
func (s *Store) Load() (*model.Document, LoadReport, error) {
	doc, primaryErr := s.readValid(s.path)
	if primaryErr == nil {
		return doc, LoadReport{Source: SourcePrimary}, nil
	}
	if errors.Is(primaryErr, fs.ErrNotExist) {
		return nil, LoadReport{}, fmt.Errorf("%w: no document at %s", model.ErrNotInitialized, s.path)
	}

	backup, backupErr := s.readValid(s.BackupPath())
	if backupErr != nil {
		s.logger.Error("primary and backup both unusable",
			zap.String("path", s.path),
			zap.NamedError("primary_error", primaryErr),
			zap.NamedError("backup_error", backupErr),
		)
		return nil, LoadReport{}, &model.CorruptStateError{Path: s.path, PrimaryErr: primaryErr, BackupErr: backupErr}
	}

	s.logger.Warn("primary document unusable, recovered from backup",
		zap.String("path", s.path),
		zap.String("backup", s.BackupPath()),
		zap.Error(primaryErr),
	)
	return backup, LoadReport{Source: SourceBackup, Recovered: true, PrimaryErr: primaryErr}, nil
}

// Save validates doc and atomically replaces the primary with it. The
// previous primary, if it was valid, becomes the backup. doc is not
// modified.
func (s *Store) Save(doc *model.Document) error {
	if err := s.validator.Validate(doc); err != nil {
		return err
	}
	data, err := encode(doc)
	if err != nil {
		return &model.WriteError{Op: "encode", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return &model.WriteError{Op: "create directory", Path: dir, Err: err}
	}

	tmp, err := s.writeTemp(data)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.fs.Remove(tmp)
		}
	}()

	if err := s.promoteBackup(); err != nil {
		return err
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		return &model.WriteError{Op: "replace", Path: s.path, Err: err}
	}
	committed = true

	if err := s.fs.SyncDir(dir); err != nil {
		s.logger.Debug("directory sync failed", zap.String("dir", dir), zap.Error(err))
	}
	s.logger.Debug("document saved", zap.String("path", s.path), zap.Int("bytes", len(data)))
	return nil
}

// Initialize creates a fresh document. It fails with ErrAlreadyExists if
// a primary is present, unless force is set; a forced re-initialization
// still moves the old primary into the backup slot.
func (s *Store) Initialize(profile string, force bool) (*model.Document, error) {
	exists, err := s.Exists()
	if err != nil {
		return nil, err
	}
	if exists && !force {
		return nil, &model.AlreadyExistsError{Name: s.path}
	}
	doc := model.NewDocument(profile, s.now())
	if err := s.Save(doc); err != nil {
		return nil, err
	}
	s.logger.Info("initialized student model", zap.String("path", s.path), zap.Bool("forced", exists))
	return doc, nil
}

// Restore replaces the primary with the backup. The backup must validate.
// The primary is replaced even when it is corrupt, and the backup slot is
// left as it was.
func (s *Store) Restore() (*model.Document, error) {
	doc, err := s.readValid(s.BackupPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no backup at %s", model.ErrNotInitialized, s.BackupPath())
		}
		return nil, fmt.Errorf("backup %s unusable: %w", s.BackupPath(), err)
	}
	data, err := encode(doc)
	if err != nil {
		return nil, &model.WriteError{Op: "encode", Path: s.path, Err: err}
	}
	if err := s.replace(s.path, data); err != nil {
		return nil, err
	}
	s.logger.Info("restored primary from backup", zap.String("path", s.path))
	return doc, nil
}

// Inspect reads and validates the file at path without falling back or
// logging. It is meant for Path and BackupPath.
func (s *Store) Inspect(path string) (*model.Document, error) {
	return s.readValid(path)
}

func (s *Store) readValid(path string) (*model.Document, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.validator.Decode(data)
}

// writeTemp writes data to a new temp file next to the primary and
// returns its name. On failure nothing is left behind.
func (s *Store) writeTemp(data []byte) (string, error) {
	f, err := s.fs.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return "", &model.WriteError{Op: "create temp", Path: s.path, Err: err}
	}
	name := f.Name()
	fail := func(op string, err error) (string, error) {
		_ = f.Close()
		_ = s.fs.Remove(name)
		return "", &model.WriteError{Op: op, Path: name, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		return fail("write temp", err)
	}
	if err := f.Sync(); err != nil {
		return fail("sync temp", err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(name)
		return "", &model.WriteError{Op: "close temp", Path: name, Err: err}
	}
	return name, nil
}

// promoteBackup copies the current primary into the backup slot. A
// missing primary is skipped. A corrupt primary is skipped too: the
// backup then already holds the last good state.
func (s *Store) promoteBackup() error {
	data, err := s.fs.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &model.WriteError{Op: "read primary", Path: s.path, Err: err}
	}
	if _, err := s.validator.Decode(data); err != nil {
		s.logger.Warn("current primary is invalid, keeping existing backup",
			zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return s.replace(s.BackupPath(), data)
}

// replace atomically writes data to path through a temp file.
func (s *Store) replace(path string, data []byte) error {
	f, err := s.fs.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return &model.WriteError{Op: "create temp", Path: path, Err: err}
	}
	name := f.Name()
	_, werr := f.Write(data)
	if werr == nil {
		werr = f.Sync()
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = s.fs.Rename(name, path)
	}
	if werr != nil {
		_ = s.fs.Remove(name)
		return &model.WriteError{Op: "replace", Path: path, Err: werr}
	}
	return nil
}

func encode(doc *model.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
