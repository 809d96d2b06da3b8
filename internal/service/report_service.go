package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lingua-crm-api/internal/dto"
	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
	"github.com/noah-isme/lingua-crm-api/pkg/jobs"
)

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

// ReportService orchestrates report job lifecycle management.
type ReportService struct {
	repo     repository.ReportJobStore
	queue    jobDispatcher
	exporter *ExportService
	actors   ActorProvider
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      ReportServiceConfig
}

// ReportServiceConfig governs queue recovery and cleanup.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// NewReportService constructs the report service.
func NewReportService(repo repository.ReportJobStore, queue jobDispatcher, exporter *ExportService, actors ActorProvider, metrics *MetricsService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if actors == nil {
		actors = ContextActorProvider{}
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		repo:     repo,
		queue:    queue,
		exporter: exporter,
		actors:   actors,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateJob validates the request, persists the job and enqueues processing.
func (s *ReportService) CreateJob(ctx context.Context, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	if err := validateReportRequest(&req); err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	job := &models.ReportJob{
		Type:      req.Type,
		Params:    models.ReportJobParams{Format: req.Format, Window: req.Window, Custom: req.Custom, Currency: req.Currency},
		Status:    models.ReportStatusQueued,
		CreatedBy: actor.ID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, internalError(err, "create report job")
	}
	s.metrics.RecordReportJob(string(models.ReportStatusQueued))
	if err := s.queue.Enqueue(exportJob(job)); err != nil {
		status := models.ReportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, models.ReportJobUpdate{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		s.metrics.RecordReportJob(string(models.ReportStatusFailed))
		return nil, internalError(err, "enqueue report job")
	}
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job metadata. Only the creator or an admin may see it.
func (s *ReportService) GetStatus(ctx context.Context, id string) (*dto.ReportStatusResponse, error) {
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "report job not found", "load report job")
	}
	if job.CreatedBy != actor.ID && actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.ReportStatusResponse{
		ID:        job.ID,
		Type:      job.Type,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// ResolveDownload validates a token and opens the stored export file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, expiresAt, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, storeError(err, "report job not found", "load report job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, err := s.exporter.Open(relPath)
	if err != nil {
		return nil, internalError(err, "open export file")
	}
	return &ReportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued report jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(exportJob(&job)); err != nil {
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.queue.Enqueue(jobs.Job{ID: "exports", Kind: jobs.KindExportSweep}); err != nil {
					s.logger.Warn("failed to schedule export sweep", zap.Error(err))
				}
			}
		}
	}()
}

// Sweep handles KindExportSweep jobs by purging expired export files.
func (s *ReportService) Sweep(ctx context.Context, _ jobs.Job) error {
	s.cleanupExpired(ctx)
	return nil
}

func exportJob(job *models.ReportJob) jobs.Job {
	return jobs.Job{ID: job.ID, Kind: jobs.KindReportExport, Dataset: string(job.Type)}
}

func (s *ReportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	finished, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
	if err != nil {
		s.logger.Warn("cleanup list failed", zap.Error(err))
		return
	}
	for _, job := range finished {
		if job.ResultURL == nil {
			continue
		}
		_, relPath, _, err := s.exporter.ParseToken(extractToken(*job.ResultURL), true)
		if err != nil {
			continue
		}
		if err := s.exporter.Delete(relPath); err != nil {
			s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
	}
}

func validateReportRequest(req *dto.ReportRequest) error {
	var details []appErrors.FieldError
	if !req.Type.Valid() {
		details = append(details, appErrors.Field("type", "unsupported report type"))
	}
	if !req.Format.Valid() {
		details = append(details, appErrors.Field("format", "unsupported report format"))
	}
	if req.Window == "" {
		req.Window = "all"
	}
	if !req.Window.Valid() {
		details = append(details, appErrors.Field("window", "unknown window"))
	}
	if req.Custom != nil {
		if err := req.Custom.Validate(); err != nil {
			details = append(details, appErrors.Field("custom", err.Error()))
		}
	}
	if req.Currency != "" && !req.Currency.Valid() {
		details = append(details, appErrors.Field("currency", "unknown currency"))
	}
	if len(details) > 0 {
		return appErrors.Invalid("invalid report request", details...)
	}
	return nil
}

func extractToken(url string) string {
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// ReportWorker bridges queue jobs to ExportService.
type ReportWorker struct {
	repo       repository.ReportJobStore
	exporter   exportGenerator
	events     events.Publisher
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
}

// NewReportWorker constructs a worker.
func NewReportWorker(repo repository.ReportJobStore, exporter exportGenerator, publisher events.Publisher, metrics *MetricsService, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ReportWorker{
		repo:       repo,
		exporter:   exporter,
		events:     publisher,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Handle processes a KindReportExport job. A job whose record no longer
// exists fails permanently.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return jobs.Permanent(err)
		}
		return err
	}
	processing := models.ReportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, models.ReportJobUpdate{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}
	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.ReportStatusFailed
			progress = 100
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, models.ReportJobUpdate{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Warn("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
			w.metrics.RecordReportJob(string(models.ReportStatusFailed))
		} else {
			queued := models.ReportStatusQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, job.ID, models.ReportJobUpdate{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Warn("failed to mark job queued", zap.String("job_id", job.ID), zap.Error(updateErr))
			}
		}
		return err
	}
	finished := models.ReportStatusFinished
	progress = 100
	now := time.Now().UTC()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, models.ReportJobUpdate{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.metrics.RecordReportJob(string(models.ReportStatusFinished))
	w.logger.Info("report generated", zap.String("job_id", job.ID), zap.String("type", string(record.Type)), zap.Int("rows", result.Rows))
	publish(ctx, w.events, w.metrics, w.logger, events.ReportFinished, map[string]string{"id": job.ID, "createdBy": record.CreatedBy})
	return nil
}
