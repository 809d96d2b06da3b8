package dto

import (
	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

// ReportRequest captures POST /reports payload.
type ReportRequest struct {
	Type     models.ReportType   `json:"type"`
	Format   models.ReportFormat `json:"format"`
	Window   timewindow.Window   `json:"window"`
	Custom   *timewindow.Range   `json:"custom,omitempty"`
	Currency models.Currency     `json:"currency,omitempty"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Type      models.ReportType   `json:"type"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
