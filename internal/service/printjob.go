package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"printconnect/internal/changefeed"
	"printconnect/internal/logger"
	"printconnect/internal/metrics"
	"printconnect/internal/model"
	"printconnect/internal/repository"
	"printconnect/internal/storage"
)

// DefaultMaxFileBytes is the upload ceiling. A configured limit can only be lower.
const DefaultMaxFileBytes int64 = 10 * 1024 * 1024

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".ppt":  {},
	".pptx": {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// SubmitInput is one upload with the options chosen next to it.
// Copies is the raw form value; anything that is not a positive number becomes 1.
type SubmitInput struct {
	FileName    string
	Size        int64
	ContentType string
	Reader      io.Reader
	Color       bool
	Copies      string
	PaperSize   string
}

// StatusCounts are the number of jobs still moving through the shop.
type StatusCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Ready      int `json:"ready"`
}

// JobListResult is the service-level DTO for a job listing.
// Counts and Total describe the whole scope, Items only what matched the filter.
type JobListResult struct {
	Items  []model.PrintJob `json:"data"`
	Total  int              `json:"total"`
	Counts StatusCounts     `json:"counts"`
}

// PrintJobService defines the print job use cases.
type PrintJobService interface {
	// Submit uploads the file, prices the job and records it as pending.
	// Oversized files are rejected before any storage or database call.
	Submit(ctx context.Context, actor *model.Identity, in SubmitInput) (*model.PrintJob, error)

	// List returns the jobs visible to actor: their own for students, all for operators.
	List(ctx context.Context, actor *model.Identity, filter JobFilter) (*JobListResult, error)

	Get(ctx context.Context, actor *model.Identity, id string) (*model.PrintJob, error)

	// Advance moves a job to target, which must be the successor of its stored status.
	Advance(ctx context.Context, actor *model.Identity, id string, target model.JobStatus) (*model.PrintJob, error)

	// FileURL returns a time-limited download link for the job's file.
	FileURL(ctx context.Context, actor *model.Identity, id string) (string, error)
}

// PrintJobSettings configures NewPrintJobService. Zero values fall back to defaults.
type PrintJobSettings struct {
	MaxFileBytes  int64
	MonoRate      float64
	ColorRate     float64
	PresignExpiry time.Duration
	Now           func() time.Time
	NewID         func() string
	Logger        zerolog.Logger
	Metrics       *metrics.JobMetrics
}

type printJobService struct {
	store     storage.Storage
	repo      repository.PrintJobRepository
	publisher changefeed.Publisher
	settings  PrintJobSettings
	log       zerolog.Logger
	tracer    trace.Tracer
}

// NewPrintJobService constructs a PrintJobService. publisher may be nil.
func NewPrintJobService(store storage.Storage, repo repository.PrintJobRepository, publisher changefeed.Publisher, settings PrintJobSettings) PrintJobService {
	if settings.MaxFileBytes <= 0 || settings.MaxFileBytes > DefaultMaxFileBytes {
		settings.MaxFileBytes = DefaultMaxFileBytes
	}
	if settings.MonoRate <= 0 {
		settings.MonoRate = 2
	}
	if settings.ColorRate <= 0 {
		settings.ColorRate = 3
	}
	if settings.PresignExpiry <= 0 {
		settings.PresignExpiry = 15 * time.Minute
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.NewID == nil {
		settings.NewID = uuid.NewString
	}
	return &printJobService{
		store:     store,
		repo:      repo,
		publisher: publisher,
		settings:  settings,
		log:       settings.Logger.With().Str("component", "print_jobs").Logger(),
		tracer:    otel.Tracer("printconnect/internal/service"),
	}
}

// Cost prices a job: the per-copy rate for its color mode times the number of copies.
func Cost(opts model.PrintOptions, monoRate, colorRate float64) float64 {
	rate := monoRate
	if opts.Color {
		rate = colorRate
	}
	return math.Round(rate*float64(model.ClampCopies(opts.Copies))*100) / 100
}

func (s *printJobService) Submit(ctx context.Context, actor *model.Identity, in SubmitInput) (*model.PrintJob, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if actor.Role != model.RoleStudent {
		return nil, ErrForbidden
	}
	if in.Reader == nil || in.FileName == "" {
		return nil, invalid("file", "file is required")
	}
	if in.Size > s.settings.MaxFileBytes {
		s.settings.Metrics.Rejected("file_too_large")
		return nil, ErrFileTooLarge
	}
	ext := strings.ToLower(path.Ext(in.FileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, invalid("file", "unsupported file type")
	}
	paper, ok := model.ParsePaperSize(in.PaperSize)
	if !ok {
		return nil, invalid("paper_size", "unsupported paper size")
	}

	ctx, span := s.tracer.Start(ctx, "PrintJobService.Submit", trace.WithAttributes(
		attribute.String("user.id", actor.ID),
		attribute.Int64("file.size", in.Size),
	))
	defer span.End()

	now := s.settings.Now().UTC()
	id := s.settings.NewID()
	key := storage.PrintFileKey(actor.ID, in.FileName, now, id)
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	obj, err := s.store.Put(ctx, key, in.Reader, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": in.FileName},
	})
	if err != nil {
		span.SetStatus(codes.Error, "upload failed")
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	opts := model.PrintOptions{
		Color:     in.Color,
		Copies:    model.ParseCopies(in.Copies),
		PaperSize: paper,
	}
	size := obj.Size
	if size <= 0 {
		size = in.Size
	}
	job := &model.PrintJob{
		ID:        id,
		OwnerID:   actor.ID,
		FileName:  in.FileName,
		FileKey:   key,
		FileURL:   s.store.PublicURL(key),
		FileSize:  size,
		Options:   opts,
		Status:    model.StatusPending,
		Cost:      Cost(opts, s.settings.MonoRate, s.settings.ColorRate),
		CreatedAt: now,
	}

	stored, err := s.repo.Create(ctx, job)
	if err != nil {
		// The uploaded object stays behind; record its key for manual cleanup.
		log := logger.FromContext(ctx, s.log)
		log.Error().
			Str("event", "orphan_object").
			Str("file_key", key).
			Str("user_id", actor.ID).
			Str("error_message", err.Error()).
			Send()
		span.SetStatus(codes.Error, "insert failed")
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	s.settings.Metrics.Submitted(stored.Options.Color, stored.FileSize)
	s.publish(ctx, changefeed.EventInsert, stored.ID, now)
	span.SetAttributes(attribute.String("print_job.id", stored.ID))
	return stored, nil
}

func (s *printJobService) List(ctx context.Context, actor *model.Identity, filter JobFilter) (*JobListResult, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	scope := repository.OwnedBy(actor.ID)
	if actor.IsOperator() {
		scope = repository.AllJobs()
	}
	jobs, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list print jobs: %w", err)
	}
	return &JobListResult{
		Items:  FilterJobs(jobs, filter),
		Total:  len(jobs),
		Counts: CountByStatus(jobs),
	}, nil
}

func (s *printJobService) Get(ctx context.Context, actor *model.Identity, id string) (*model.PrintJob, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if id == "" {
		return nil, invalid("id", "id is required")
	}
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Students never learn whether someone else's job exists.
	if !actor.IsOperator() && job.OwnerID != actor.ID {
		return nil, ErrNotFound
	}
	return job, nil
}

func (s *printJobService) Advance(ctx context.Context, actor *model.Identity, id string, target model.JobStatus) (*model.PrintJob, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !actor.IsOperator() {
		return nil, ErrForbidden
	}
	if id == "" {
		return nil, invalid("id", "id is required")
	}
	if !target.Valid() {
		return nil, invalid("status", "unknown status")
	}

	ctx, span := s.tracer.Start(ctx, "PrintJobService.Advance", trace.WithAttributes(
		attribute.String("print_job.id", id),
		attribute.String("print_job.target_status", string(target)),
	))
	defer span.End()

	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	from := job.Status
	if !from.CanAdvanceTo(target) {
		s.settings.Metrics.Rejected("illegal_transition")
		return nil, ErrIllegalTransition
	}

	now := s.settings.Now().UTC()
	var completedAt *time.Time
	if target == model.StatusCompleted {
		completedAt = &now
	}

	updated, err := s.repo.UpdateStatus(ctx, id, from, target, completedAt)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.settings.Metrics.Rejected("illegal_transition")
			return nil, ErrIllegalTransition
		}
		span.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("update status: %w", err)
	}

	log := logger.FromContext(ctx, s.log)
	log.Info().
		Str("event", "print_job_advanced").
		Str("print_job_id", id).
		Str("from", string(from)).
		Str("to", string(target)).
		Str("operator_id", actor.ID).
		Send()
	s.settings.Metrics.Transitioned(string(from), string(target))
	s.publish(ctx, changefeed.EventUpdate, id, now)
	return updated, nil
}

func (s *printJobService) FileURL(ctx context.Context, actor *model.Identity, id string) (string, error) {
	job, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", err
	}
	if owner, ok := storage.ParsePrintFileKey(job.FileKey); !ok || owner != job.OwnerID {
		log := logger.FromContext(ctx, s.log)
		log.Warn().
			Str("event", "file_key_mismatch").
			Str("print_job_id", job.ID).
			Str("file_key", job.FileKey).
			Send()
		return "", ErrNotFound
	}
	u, err := s.store.PresignGet(ctx, job.FileKey, s.settings.PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("presign file: %w", err)
	}
	return u, nil
}

// publish announces a change. The write has already succeeded, so failures are only logged.
func (s *printJobService) publish(ctx context.Context, typ changefeed.EventType, id string, at time.Time) {
	if s.publisher == nil {
		return
	}
	ev := changefeed.Event{Table: changefeed.TablePrintJobs, Type: typ, RowID: id, At: at}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log := logger.FromContext(ctx, s.log)
		log.Warn().
			Str("event", "change_publish_failed").
			Str("print_job_id", id).
			Str("change_type", string(typ)).
			Str("error_message", err.Error()).
			Send()
	}
}
