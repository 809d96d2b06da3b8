package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/pkg/export"
	"github.com/noah-isme/lingua-crm-api/pkg/storage"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

type paymentSearcher interface {
	Search(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
}

type expenditureSearcher interface {
	Search(ctx context.Context, filter models.ExpenditureFilter) ([]models.Expenditure, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
	Rows         int
}

// ExportDeps groups the data sources of the exporter.
type ExportDeps struct {
	Payments     paymentSearcher
	Expenditures expenditureSearcher
	Prospects    convertedProspectSearcher
	Storage      fileStorage
	Signer       *storage.SignedURLSigner
	CSV          csvRenderer
	PDF          pdfRenderer
}

// ExportService builds financial datasets and persists rendered files.
type ExportService struct {
	payments     paymentSearcher
	expenditures expenditureSearcher
	prospects    convertedProspectSearcher
	storage      fileStorage
	csv          csvRenderer
	pdf          pdfRenderer
	signer       *storage.SignedURLSigner
	logger       *zap.Logger
	cfg          ExportConfig
	now          func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(deps ExportDeps, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if deps.CSV == nil {
		deps.CSV = export.NewCSVExporter()
	}
	if deps.PDF == nil {
		deps.PDF = export.NewPDFExporter("")
	}
	return &ExportService{
		payments:     deps.Payments,
		expenditures: deps.Expenditures,
		prospects:    deps.Prospects,
		storage:      deps.Storage,
		csv:          deps.CSV,
		pdf:          deps.PDF,
		signer:       deps.Signer,
		logger:       logger,
		cfg:          cfg,
		now:          systemClock,
	}
}

// Generate builds the dataset a job asks for and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, err := s.BuildDataset(ctx, job.Type, job.Params, s.now())
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
		Rows:         len(dataset.Rows),
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := s.now().Format("20060102_150405")
	return fmt.Sprintf("%s/%s_%s_%s.%s", timestamp[:6], job.Type, job.Params.Window, timestamp, job.Params.Format)
}

// BuildDataset assembles the rows of a report for the requested window.
func (s *ExportService) BuildDataset(ctx context.Context, kind models.ReportType, params models.ReportJobParams, now time.Time) (export.Dataset, error) {
	window := params.Window
	if window == "" {
		window = timewindow.All
	}
	switch kind {
	case models.ReportTypePayments:
		items, err := s.payments.Search(ctx, models.PaymentFilter{Currency: params.Currency, Window: window, Custom: params.Custom, Now: now})
		if err != nil {
			return export.Dataset{}, err
		}
		return paymentsDataset(items, window), nil
	case models.ReportTypeExpenditures:
		items, err := s.expenditures.Search(ctx, models.ExpenditureFilter{Currency: params.Currency, Window: window, Custom: params.Custom, Now: now})
		if err != nil {
			return export.Dataset{}, err
		}
		return expendituresDataset(items, window), nil
	case models.ReportTypeCompletedJobs:
		items, err := s.prospects.Search(ctx, models.ProspectFilter{Status: models.ProspectConverted, Window: window, Custom: params.Custom, Now: now})
		if err != nil {
			return export.Dataset{}, err
		}
		return completedJobsDataset(items, window), nil
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", kind)
	}
}

func paymentsDataset(items []models.Payment, window timewindow.Window) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, p := range items {
		rows = append(rows, map[string]string{
			"Date":      p.Date.Format("2006-01-02"),
			"Client":    p.ClientID,
			"Amount":    p.Amount.StringFixed(2),
			"Currency":  string(p.Currency),
			"Method":    string(p.Method),
			"Reference": p.Reference,
		})
	}
	totals := SumByCurrency(items, func(p models.Payment) (models.Currency, decimal.Decimal) { return p.Currency, p.Amount })
	return export.Dataset{
		Title:   fmt.Sprintf("Payments (%s)", window),
		Headers: []string{"Date", "Client", "Amount", "Currency", "Method", "Reference"},
		Rows:    rows,
		Footer:  map[string]string{"Date": "Total", "Amount": formatTotals(totals)},
	}
}

func expendituresDataset(items []models.Expenditure, window timewindow.Window) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, e := range items {
		rows = append(rows, map[string]string{
			"Date":     e.Date.Format("2006-01-02"),
			"Payee":    e.Payee,
			"Category": e.Category,
			"Amount":   e.Amount.StringFixed(2),
			"Currency": string(e.Currency),
			"Method":   string(e.Method),
		})
	}
	totals := SumByCurrency(items, func(e models.Expenditure) (models.Currency, decimal.Decimal) { return e.Currency, e.Amount })
	return export.Dataset{
		Title:   fmt.Sprintf("Expenditures (%s)", window),
		Headers: []string{"Date", "Payee", "Category", "Amount", "Currency", "Method"},
		Rows:    rows,
		Footer:  map[string]string{"Date": "Total", "Amount": formatTotals(totals)},
	}
}

func completedJobsDataset(items []models.Prospect, window timewindow.Window) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	total := decimal.Zero
	for _, p := range items {
		fee, ok := models.CompletionFee(p.Service)
		if !ok {
			continue
		}
		total = total.Add(fee)
		row := map[string]string{
			"Completed": p.HistoryDate().Format("2006-01-02"),
			"Client":    models.JobClientID(p.ID),
			"Name":      p.Name,
			"Service":   string(p.ServiceType()),
			"Fee":       fee.StringFixed(2),
		}
		switch v := p.Service.(type) {
		case models.TranslationService:
			row["Details"] = fmt.Sprintf("%s, %d pages", v.Completion.DocumentTitle, v.Completion.Pages)
		case models.InterpretationService:
			row["Details"] = fmt.Sprintf("%s, %s %s", v.Completion.Subject, v.Completion.Duration.String(), strings.ToLower(string(v.Completion.Unit)))
		}
		rows = append(rows, row)
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Completed jobs (%s)", window),
		Headers: []string{"Completed", "Client", "Name", "Service", "Details", "Fee"},
		Rows:    rows,
		Footer:  map[string]string{"Completed": "Total " + string(BaseCurrency), "Fee": total.StringFixed(2)},
	}
}

func formatTotals(totals map[models.Currency]decimal.Decimal) string {
	currencies := make([]string, 0, len(totals))
	for c := range totals {
		currencies = append(currencies, string(c))
	}
	sort.Strings(currencies)
	parts := make([]string, 0, len(currencies))
	for _, c := range currencies {
		parts = append(parts, totals[models.Currency(c)].StringFixed(2)+" "+c)
	}
	return strings.Join(parts, " / ")
}
