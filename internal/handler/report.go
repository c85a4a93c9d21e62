package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/TuhinPramanik4/Civicsolve/internal/auth"
	"github.com/TuhinPramanik4/Civicsolve/internal/database"
	"github.com/TuhinPramanik4/Civicsolve/internal/logger"
	"github.com/TuhinPramanik4/Civicsolve/internal/middleware"
	"github.com/TuhinPramanik4/Civicsolve/internal/model"
	"github.com/TuhinPramanik4/Civicsolve/internal/staging"
	"github.com/TuhinPramanik4/Civicsolve/internal/submission"
	"github.com/gin-gonic/gin"
)

// MaxPhotoBytes caps the photo accepted with a report
const MaxPhotoBytes = 5 << 20

var allowedPhotoTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// Submitter is satisfied by *submission.Orchestrator
type Submitter interface {
	Submit(ctx context.Context, s *submission.Session, reporterID string) (*model.Issue, error)
}

// ReportLister is satisfied by the report stores
type ReportLister interface {
	List(ctx context.Context, filter database.ListFilter) ([]model.Issue, error)
}

// StagedPhotos is satisfied by *staging.Stager
type StagedPhotos interface {
	Lookup(ctx context.Context, id string) (*staging.Entry, error)
}

type ReportHandler struct {
	submitter Submitter
	reports   ReportLister
	staged    StagedPhotos
	logger    *logger.Logger
}

func NewReportHandler(submitter Submitter, reports ReportLister, staged StagedPhotos, log *logger.Logger) *ReportHandler {
	return &ReportHandler{submitter: submitter, reports: reports, staged: staged, logger: log}
}

// Submit accepts a multipart report and runs it through the orchestrator
func (h *ReportHandler) Submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxPhotoBytes+1<<20)

	draft, err := h.draftFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reporterID := middleware.ReporterID(c)
	ctx := auth.WithOnBehalfOf(c.Request.Context(), callerSubject(c, reporterID))

	session := submission.NewSession(draft)
	issue, err := h.submitter.Submit(ctx, session, reporterID)
	if err != nil {
		var serr *submission.Error
		if !errors.As(err, &serr) {
			h.logger.WithRequestID(middleware.GetRequestID(c)).WithError(err).Error("unexpected submission error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Submission failed"})
			return
		}
		c.JSON(submissionStatus(serr.Kind), gin.H{
			"error": serr.Message,
			"state": session.State().String(),
			"draft": session.Draft(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"report": issue})
}

// callerSubject names the citizen behind a submission for downstream rate limits
func callerSubject(c *gin.Context, reporterID string) string {
	if reporterID != "" {
		return "user:" + reporterID
	}
	return "ip:" + c.ClientIP()
}

func submissionStatus(kind submission.Kind) int {
	switch kind {
	case submission.KindMissingFields:
		return http.StatusBadRequest
	case submission.KindRejected:
		return http.StatusUnprocessableEntity
	case submission.KindVerificationFailed, submission.KindUploadFailed:
		return http.StatusBadGateway
	case submission.KindCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

type formError string

func (e formError) Error() string { return string(e) }

func (h *ReportHandler) draftFromForm(c *gin.Context) (submission.Draft, error) {
	draft := submission.NewDraft()
	if err := c.Request.ParseMultipartForm(MaxPhotoBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return draft, formError("invalid multipart form")
	}

	draft.Title = c.PostForm("title")
	draft.Category = c.PostForm("category")
	draft.Description = c.PostForm("description")
	if p := strings.TrimSpace(c.PostForm("priority")); p != "" {
		draft.Priority = submission.Priority(p)
	}

	lat, hasLat := c.GetPostForm("latitude")
	lon, hasLon := c.GetPostForm("longitude")
	if hasLat && hasLon && lat != "" && lon != "" {
		latitude, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return draft, formError("invalid latitude")
		}
		longitude, err := strconv.ParseFloat(lon, 64)
		if err != nil {
			return draft, formError("invalid longitude")
		}
		draft.Location = &submission.Location{Latitude: latitude, Longitude: longitude}
	}

	address := submission.Address{
		City:       c.PostForm("city"),
		District:   c.PostForm("district"),
		Region:     c.PostForm("region"),
		PostalCode: c.PostForm("postal_code"),
		Country:    c.PostForm("country"),
	}
	if address != (submission.Address{}) {
		draft.Address = &address
	}

	fileHeader, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return draft, nil
	}
	if err != nil {
		return draft, formError("invalid multipart form")
	}
	if fileHeader.Size > MaxPhotoBytes {
		return draft, formError("photo must be 5MB or smaller")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return draft, formError("failed to read photo")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxPhotoBytes+1))
	if err != nil {
		return draft, formError("failed to read photo")
	}
	if len(data) > MaxPhotoBytes {
		return draft, formError("photo must be 5MB or smaller")
	}

	contentType := http.DetectContentType(data)
	if _, ok := allowedPhotoTypes[contentType]; !ok {
		return draft, formError("photo must be a JPEG, PNG or WebP image")
	}

	draft.Photo = &submission.Photo{Name: fileHeader.Filename, ContentType: contentType, Data: data}
	return draft, nil
}

// List returns reports newest first
func (h *ReportHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	issues, err := h.reports.List(c.Request.Context(), database.ListFilter{
		Category: c.Query("category"),
		Offset:   (page - 1) * limit,
		Limit:    limit,
	})
	if err != nil {
		h.logger.WithRequestID(middleware.GetRequestID(c)).WithError(err).Error("failed to list reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  issues,
		"page":  page,
		"limit": limit,
	})
}

// Staged serves a photo waiting for verification
func (h *ReportHandler) Staged(c *gin.Context) {
	entry, err := h.staged.Lookup(c.Request.Context(), c.Param("id"))
	if errors.Is(err, staging.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load photo"})
		return
	}

	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, entry.ContentType, entry.Data)
}
