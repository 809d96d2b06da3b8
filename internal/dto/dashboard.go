package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

// DashboardSummary is the aggregated overview for one reporting window.
type DashboardSummary struct {
	Window       timewindow.Window `json:"window"`
	GeneratedAt  time.Time         `json:"generatedAt"`
	Prospects    ProspectSection   `json:"prospects"`
	Students     timewindow.Delta  `json:"students"`
	Finance      []CurrencySection `json:"finance"`
	Tasks        TaskSection       `json:"tasks"`
	ServiceSplit []ServiceCount    `json:"serviceSplit"`
}

// ProspectSection compares pipeline activity with the previous period.
type ProspectSection struct {
	NewProspects timewindow.Delta `json:"newProspects"`
	Conversions  timewindow.Delta `json:"conversions"`
	Active       int              `json:"active"`
}

// CurrencySection holds money totals for a single currency. Amounts are never
// converted between currencies.
type CurrencySection struct {
	Currency     models.Currency `json:"currency"`
	Revenue      MoneyDelta      `json:"revenue"`
	Expenditures MoneyDelta      `json:"expenditures"`
	Net          MoneyDelta      `json:"net"`
}

// MoneyDelta is an exact amount with its previous-period counterpart.
type MoneyDelta struct {
	Current   decimal.Decimal `json:"current"`
	Previous  decimal.Decimal `json:"previous"`
	ChangePct int             `json:"changePct"`
}

// TaskSection summarises the task feed.
type TaskSection struct {
	Overdue  int               `json:"overdue"`
	DueToday int               `json:"dueToday"`
	Upcoming int               `json:"upcoming"`
	Next     []models.TaskItem `json:"next"`
}

// ServiceCount counts prospects in the window per service type.
type ServiceCount struct {
	Service models.ServiceType `json:"service"`
	Count   int                `json:"count"`
}
