package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

// ReportType enumerates exportable datasets.
type ReportType string

const (
	ReportTypePayments      ReportType = "payments"
	ReportTypeExpenditures  ReportType = "expenditures"
	ReportTypeCompletedJobs ReportType = "completed_jobs"
)

// Valid reports whether the report type is supported.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypePayments, ReportTypeExpenditures, ReportTypeCompletedJobs:
		return true
	}
	return false
}

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob is the persisted state of an asynchronous export.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"resultUrl,omitempty"`
	CreatedBy    string          `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finishedAt,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"errorMessage,omitempty"`
}

// Clone returns a deep copy.
func (j *ReportJob) Clone() *ReportJob {
	if j == nil {
		return nil
	}
	c := *j
	c.ResultURL = cloneString(j.ResultURL)
	c.FinishedAt = cloneTime(j.FinishedAt)
	c.ErrorMessage = cloneString(j.ErrorMessage)
	if j.Params.Custom != nil {
		r := *j.Params.Custom
		c.Params.Custom = &r
	}
	return &c
}

// ReportJobParams stores the export request, persisted as JSONB.
type ReportJobParams struct {
	Format   ReportFormat      `json:"format"`
	Window   timewindow.Window `json:"window"`
	Custom   *timewindow.Range `json:"custom,omitempty"`
	Currency Currency          `json:"currency,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ReportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ReportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ReportJobParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportJobParams", value)
	}
	if len(data) == 0 {
		*p = ReportJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal report job params: %w", err)
	}
	return nil
}

// ReportJobUpdate lists the mutable job fields; nil fields are left untouched.
type ReportJobUpdate struct {
	Status       *ReportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}
