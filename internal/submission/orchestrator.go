package submission

import (
	"context"
	"errors"
	"time"

	"github.com/TuhinPramanik4/Civicsolve/internal/blob"
	"github.com/TuhinPramanik4/Civicsolve/internal/client"
	"github.com/TuhinPramanik4/Civicsolve/internal/logger"
	"github.com/TuhinPramanik4/Civicsolve/internal/model"
	"github.com/TuhinPramanik4/Civicsolve/internal/verify"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Verifier asks the verification gateway whether a photo matches its description
type Verifier interface {
	Verify(ctx context.Context, imageURL, text string) (*verify.Result, error)
}

// Stager exposes photo bytes at a URL the gateway can fetch
type Stager interface {
	Stage(ctx context.Context, contentType string, data []byte) (url string, release func(), err error)
}

// ReportTable persists finished reports
type ReportTable interface {
	Insert(ctx context.Context, issue *model.Issue) error
}

type Timeouts struct {
	Verify time.Duration
	Upload time.Duration
	Insert time.Duration
}

type Options struct {
	Timeouts                    Timeouts
	BlobPrefix                  string
	RequireDescriptionWithPhoto bool
}

// Orchestrator runs verify, upload and insert in order for a session
type Orchestrator struct {
	verifier Verifier
	stager   Stager
	blobs    blob.Store
	reports  ReportTable
	opts     Options
	logger   *logger.Logger
	now      func() time.Time
}

func NewOrchestrator(verifier Verifier, stager Stager, blobs blob.Store, reports ReportTable, opts Options, log *logger.Logger) *Orchestrator {
	if opts.BlobPrefix == "" {
		opts.BlobPrefix = "issues"
	}
	return &Orchestrator{
		verifier: verifier,
		stager:   stager,
		blobs:    blobs,
		reports:  reports,
		opts:     opts,
		logger:   log,
		now:      time.Now,
	}
}

// Submit drives the session's draft to a persisted report. Media is stored
// before the row is written, and only after a positive verdict when the draft
// has both photo and description. On any failure the draft is kept and the
// session ends in Rejected or Failed.
func (o *Orchestrator) Submit(ctx context.Context, s *Session, reporterID string) (*model.Issue, error) {
	draft, err := s.begin(o.opts.RequireDescriptionWithPhoto)
	if err != nil {
		if !errors.Is(err, ErrIllegalTransition) {
			recordOutcome(string(KindMissingFields))
		}
		return nil, err
	}

	entry := o.logger.WithFields(logrus.Fields{"title": draft.Title, "category": draft.Category})
	if reporterID != "" {
		entry = entry.WithField("reporter_id", reporterID)
	}

	if err := ctx.Err(); err != nil {
		return nil, o.fail(ctx, s, entry, KindCanceled, msgCanceled, err)
	}

	var audit datatypes.JSON
	if draft.NeedsVerification() {
		if err := s.transition(StateVerifying); err != nil {
			return nil, err
		}

		result, err := o.verify(ctx, draft)
		if err != nil {
			return nil, o.fail(ctx, s, entry, KindVerificationFailed, verificationMessage(err), err)
		}
		if !result.Related {
			if err := s.transition(StateRejected); err != nil {
				return nil, err
			}
			entry.WithField("raw", result.Raw).Info("report rejected: photo does not match description")
			recordOutcome(string(KindRejected))
			return nil, &Error{Kind: KindRejected, Message: msgRejected}
		}

		audit = model.AuditJSON(model.VerificationAudit{Related: true, Raw: result.Raw, CheckedAt: o.now().UTC()})
	} else if draft.HasPhoto() {
		entry.Warn("photo submitted without description, skipping verification")
	}

	var imageURL *string
	if draft.HasPhoto() {
		if err := s.transition(StateUploading); err != nil {
			return nil, err
		}

		url, err := o.upload(ctx, draft.Photo)
		if err != nil {
			return nil, o.fail(ctx, s, entry, KindUploadFailed, msgUploadFailed, err)
		}
		imageURL = &url
	}

	if err := s.transition(StatePersisting); err != nil {
		return nil, err
	}

	issue := draft.toIssue(imageURL, reporterID, audit)
	if err := o.insert(ctx, issue); err != nil {
		if imageURL != nil {
			// no compensating delete: the object stays in the store
			entry.WithField("img", *imageURL).Warn("report insert failed after media upload, media is orphaned")
		}
		return nil, o.fail(ctx, s, entry, KindPersistFailed, msgPersistFailed+": "+err.Error(), err)
	}

	if err := s.complete(); err != nil {
		return nil, err
	}

	entry.WithField("issue_id", issue.ID).Info("report submitted")
	recordOutcome("persisted")
	return issue, nil
}

func (o *Orchestrator) verify(ctx context.Context, draft Draft) (*verify.Result, error) {
	stepCtx, cancel := withTimeout(ctx, o.opts.Timeouts.Verify)
	defer cancel()

	url, release, err := o.stager.Stage(stepCtx, draft.Photo.ContentType, draft.Photo.Data)
	if err != nil {
		return nil, err
	}
	defer release()

	return o.verifier.Verify(stepCtx, url, draft.Description)
}

func (o *Orchestrator) upload(ctx context.Context, photo *Photo) (string, error) {
	stepCtx, cancel := withTimeout(ctx, o.opts.Timeouts.Upload)
	defer cancel()

	objectPath := blob.ObjectPath(o.opts.BlobPrefix, photo.Name, photo.ContentType, o.now())
	return o.blobs.Upload(stepCtx, objectPath, photo.Data, photo.ContentType)
}

func (o *Orchestrator) insert(ctx context.Context, issue *model.Issue) error {
	stepCtx, cancel := withTimeout(ctx, o.opts.Timeouts.Insert)
	defer cancel()

	return o.reports.Insert(stepCtx, issue)
}

// fail moves the session to Failed. A done caller context turns any step
// failure into KindCanceled.
func (o *Orchestrator) fail(ctx context.Context, s *Session, entry *logrus.Entry, kind Kind, message string, cause error) error {
	if ctx.Err() != nil {
		kind, message = KindCanceled, msgCanceled
	}

	if err := s.transition(StateFailed); err != nil {
		return err
	}

	entry.WithError(cause).WithField("kind", string(kind)).Warn("report submission failed")
	recordOutcome(string(kind))
	return &Error{Kind: kind, Message: message, Err: cause}
}

func verificationMessage(err error) string {
	var gwErr *client.GatewayError
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return msgVerificationFailed
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (d Draft) toIssue(imageURL *string, reporterID string, audit datatypes.JSON) *model.Issue {
	issue := &model.Issue{
		Title:        d.Title,
		Category:     d.Category,
		Priority:     string(d.Priority),
		Description:  d.Description,
		Img:          imageURL,
		Latitude:     d.Location.Latitude,
		Longitude:    d.Location.Longitude,
		Verification: audit,
	}
	if reporterID != "" {
		issue.ReporterID = &reporterID
	}
	if d.Address != nil {
		issue.City = optional(d.Address.City)
		issue.District = optional(d.Address.District)
		issue.Region = optional(d.Address.Region)
		issue.PostalCode = optional(d.Address.PostalCode)
		issue.Country = optional(d.Address.Country)
	}
	return issue
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
