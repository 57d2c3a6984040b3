// Package session applies a session-end batch of concept mutations as one
// unit: every request succeeds and the document is saved once, or nothing
// is saved at all.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeanpaul/studentmodel/internal/concept"
	"github.com/jeanpaul/studentmodel/internal/model"
)

type Kind string

const (
	KindUpdate       Kind = "update"
	KindStruggle     Kind = "struggle"
	KindBreakthrough Kind = "breakthrough"
)

// Request is one mutation in a batch. Update requests use Mastery and
// Confidence; note requests use Description.
type Request struct {
	Kind        Kind
	Concept     string
	Mastery     *int
	Confidence  *model.Confidence
	Description string
}

type Batch struct {
	Summary  string
	Requests []Request
}

// Saver persists a document. *store.Store satisfies it.
type Saver interface {
	Save(doc *model.Document) error
}

// Result is the outcome of a successful batch.
type Result struct {
	Document *model.Document
	Session  model.Session
}

type Applier struct {
	saver  Saver
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Applier)

func WithLogger(l *zap.Logger) Option {
	return func(a *Applier) { a.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(a *Applier) { a.now = now }
}

func WithIDs(newID func() string) Option {
	return func(a *Applier) { a.newID = newID }
}

func NewApplier(saver Saver, opts ...Option) *Applier {
	a := &Applier{
		saver:  saver,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Apply runs b's requests in order against a copy of doc and saves the
// result once. doc itself is never modified. If a request fails, Apply
// returns a *model.BatchError for it and does not save. Multiple requests
// for the same concept apply sequentially, so the last update wins.
func (a *Applier) Apply(doc *model.Document, b Batch) (*Result, error) {
	if len(b.Requests) == 0 {
		return nil, &model.ValidationError{Field: "requests", Reason: "batch is empty"}
	}

	work := doc.Clone()
	repo := concept.New(work, concept.WithClock(a.now))
	sess := model.Session{Summary: b.Summary}

	for i, req := range b.Requests {
		if err := apply(repo, req); err != nil {
			a.logger.Info("session batch rejected",
				zap.Int("index", i),
				zap.String("kind", string(req.Kind)),
				zap.String("concept", req.Concept),
				zap.Error(err),
			)
			return nil, &model.BatchError{Index: i, Kind: string(req.Kind), Err: err}
		}
		switch req.Kind {
		case KindUpdate:
			sess.Updates++
		case KindStruggle:
			sess.Struggles++
		case KindBreakthrough:
			sess.Breakthroughs++
		}
	}

	sess.ID = a.newID()
	sess.Ended = a.now()
	work.Sessions = append(work.Sessions, sess)
	if sess.Ended.After(work.Metadata.LastModified) {
		work.Metadata.LastModified = sess.Ended
	}

	if err := a.saver.Save(work); err != nil {
		return nil, err
	}
	a.logger.Info("session batch saved",
		zap.String("session", sess.ID),
		zap.Int("requests", len(b.Requests)),
	)
	return &Result{Document: work, Session: sess}, nil
}

func apply(repo *concept.Repository, req Request) error {
	switch req.Kind {
	case KindUpdate:
		_, err := repo.Update(req.Concept, concept.Changes{Mastery: req.Mastery, Confidence: req.Confidence})
		return err
	case KindStruggle:
		_, err := repo.RecordStruggle(req.Concept, req.Description)
		return err
	case KindBreakthrough:
		_, err := repo.RecordBreakthrough(req.Concept, req.Description)
		return err
	}
	return &model.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown request kind %q", req.Kind)}
}
