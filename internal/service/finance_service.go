package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

// BaseCurrency is the currency client fees are quoted in. Balances are only
// tracked for payments made in it.
const BaseCurrency = models.CurrencyRWF

type clientResolver interface {
	Find(ctx context.Context, clientID string) (*models.Client, error)
}

// PaymentInput holds the editable fields of a payment.
type PaymentInput struct {
	ClientID  string               `json:"clientId" validate:"required"`
	Amount    decimal.Decimal      `json:"amount"`
	Currency  models.Currency      `json:"currency" validate:"required"`
	Date      time.Time            `json:"date" validate:"required"`
	Method    models.PaymentMethod `json:"method" validate:"required"`
	Reference string               `json:"reference"`
	Notes     string               `json:"notes"`
}

// ExpenditureInput holds the editable fields of an expenditure.
type ExpenditureInput struct {
	Payee       string               `json:"payee" validate:"required"`
	Category    string               `json:"category" validate:"required"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    models.Currency      `json:"currency" validate:"required"`
	Date        time.Time            `json:"date" validate:"required"`
	Method      models.PaymentMethod `json:"method" validate:"required"`
	Description string               `json:"description"`
}

// FinanceService records money received from clients and money paid out.
type FinanceService struct {
	payments     repository.PaymentStore
	expenditures repository.ExpenditureStore
	clients      clientResolver
	actors       ActorProvider
	events       events.Publisher
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	locks        *keyedMutex
}

// NewFinanceService constructs FinanceService.
func NewFinanceService(payments repository.PaymentStore, expenditures repository.ExpenditureStore, clients clientResolver, actors ActorProvider, publisher events.Publisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *FinanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if actors == nil {
		actors = ContextActorProvider{}
	}
	return &FinanceService{
		payments:     payments,
		expenditures: expenditures,
		clients:      clients,
		actors:       actors,
		events:       publisher,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		locks:        newKeyedMutex(),
	}
}

// SearchPayments returns payments newest first.
func (s *FinanceService) SearchPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	items, err := s.payments.Search(ctx, filter)
	if err != nil {
		return nil, internalError(err, "search payments")
	}
	return items, nil
}

// GetPayment returns a payment by id.
func (s *FinanceService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	item, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "payment not found", "load payment")
	}
	return item, nil
}

// RecordPayment stores a payment for an existing client. Base-currency
// payments from clients with a known fee carry the remaining balance.
func (s *FinanceService) RecordPayment(ctx context.Context, input PaymentInput) (*models.Payment, error) {
	if err := s.validatePayment(input); err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.Find(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(client.ClientID)
	defer unlock()

	payment := &models.Payment{}
	applyPaymentInput(payment, input)
	payment.ClientID = client.ClientID
	if payment.Balance, err = s.balanceAfter(ctx, client, payment); err != nil {
		return nil, err
	}
	payment.StampCreated(actor, systemClock())
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, internalError(err, "record payment")
	}
	s.logger.Info("payment recorded", zap.String("client_id", client.ClientID), zap.String("amount", payment.Amount.String()), zap.String("currency", string(payment.Currency)))
	publish(ctx, s.events, s.metrics, s.logger, events.PaymentChanged, payment)
	return payment, nil
}

// UpdatePayment edits a payment. The client cannot change.
func (s *FinanceService) UpdatePayment(ctx context.Context, id string, input PaymentInput) (*models.Payment, error) {
	if err := s.validatePayment(input); err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "payment not found", "load payment")
	}
	if input.ClientID != payment.ClientID {
		return nil, appErrors.Invalid("invalid payment payload", appErrors.Field("clientId", "cannot be changed"))
	}
	client, err := s.clients.Find(ctx, payment.ClientID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(client.ClientID)
	defer unlock()

	applyPaymentInput(payment, input)
	if payment.Balance, err = s.balanceAfter(ctx, client, payment); err != nil {
		return nil, err
	}
	payment.StampUpdated(actor, systemClock())
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, storeError(err, "payment not found", "update payment")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.PaymentChanged, payment)
	return payment, nil
}

// DeletePayment removes a payment.
func (s *FinanceService) DeletePayment(ctx context.Context, id string) error {
	if _, err := s.actors.CurrentActor(ctx); err != nil {
		return err
	}
	if err := s.payments.Delete(ctx, id); err != nil {
		return storeError(err, "payment not found", "delete payment")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.PaymentChanged, map[string]string{"id": id, "deleted": "true"})
	return nil
}

// ClientStatement lists a client's payments with totals per currency and the
// fee balance still owed in the base currency.
func (s *FinanceService) ClientStatement(ctx context.Context, clientID string) (*models.ClientStatement, error) {
	client, err := s.clients.Find(ctx, clientID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.Search(ctx, models.PaymentFilter{ClientID: client.ClientID})
	if err != nil {
		return nil, internalError(err, "search payments")
	}
	statement := &models.ClientStatement{
		Client:    *client,
		Payments:  payments,
		TotalPaid: SumByCurrency(payments, func(p models.Payment) (models.Currency, decimal.Decimal) { return p.Currency, p.Amount }),
	}
	if client.TotalFee != nil {
		outstanding := client.TotalFee.Sub(statement.TotalPaid[BaseCurrency])
		statement.Outstanding = &outstanding
	}
	return statement, nil
}

// SearchExpenditures returns expenditures newest first.
func (s *FinanceService) SearchExpenditures(ctx context.Context, filter models.ExpenditureFilter) ([]models.Expenditure, error) {
	items, err := s.expenditures.Search(ctx, filter)
	if err != nil {
		return nil, internalError(err, "search expenditures")
	}
	return items, nil
}

// GetExpenditure returns an expenditure by id.
func (s *FinanceService) GetExpenditure(ctx context.Context, id string) (*models.Expenditure, error) {
	item, err := s.expenditures.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "expenditure not found", "load expenditure")
	}
	return item, nil
}

// RecordExpenditure stores an expenditure.
func (s *FinanceService) RecordExpenditure(ctx context.Context, input ExpenditureInput) (*models.Expenditure, error) {
	if err := s.validateExpenditure(input); err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	item := &models.Expenditure{}
	applyExpenditureInput(item, input)
	item.StampCreated(actor, systemClock())
	if err := s.expenditures.Create(ctx, item); err != nil {
		return nil, internalError(err, "record expenditure")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.ExpenditureChanged, item)
	return item, nil
}

// UpdateExpenditure edits an expenditure.
func (s *FinanceService) UpdateExpenditure(ctx context.Context, id string, input ExpenditureInput) (*models.Expenditure, error) {
	if err := s.validateExpenditure(input); err != nil {
		return nil, err
	}
	actor, err := s.actors.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.expenditures.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "expenditure not found", "load expenditure")
	}
	applyExpenditureInput(item, input)
	item.StampUpdated(actor, systemClock())
	if err := s.expenditures.Update(ctx, item); err != nil {
		return nil, storeError(err, "expenditure not found", "update expenditure")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.ExpenditureChanged, item)
	return item, nil
}

// DeleteExpenditure removes an expenditure.
func (s *FinanceService) DeleteExpenditure(ctx context.Context, id string) error {
	if _, err := s.actors.CurrentActor(ctx); err != nil {
		return err
	}
	if err := s.expenditures.Delete(ctx, id); err != nil {
		return storeError(err, "expenditure not found", "delete expenditure")
	}
	publish(ctx, s.events, s.metrics, s.logger, events.ExpenditureChanged, map[string]string{"id": id, "deleted": "true"})
	return nil
}

// balanceAfter returns the fee still owed once payment is counted, or nil when
// the payment is not in the base currency or the client has no known fee.
func (s *FinanceService) balanceAfter(ctx context.Context, client *models.Client, payment *models.Payment) (*decimal.Decimal, error) {
	if client.TotalFee == nil || payment.Currency != BaseCurrency {
		return nil, nil
	}
	previous, err := s.payments.Search(ctx, models.PaymentFilter{ClientID: client.ClientID, Currency: BaseCurrency})
	if err != nil {
		return nil, internalError(err, "search payments")
	}
	paid := payment.Amount
	for _, p := range previous {
		if p.ID != payment.ID {
			paid = paid.Add(p.Amount)
		}
	}
	balance := client.TotalFee.Sub(paid)
	return &balance, nil
}

func (s *FinanceService) validatePayment(input PaymentInput) error {
	if err := s.validator.Struct(input); err != nil {
		return appErrors.FromValidation(err, "invalid payment payload")
	}
	details := moneyDetails(input.Amount, input.Currency, input.Method)
	if len(details) > 0 {
		return appErrors.Invalid("invalid payment payload", details...)
	}
	return nil
}

func (s *FinanceService) validateExpenditure(input ExpenditureInput) error {
	if err := s.validator.Struct(input); err != nil {
		return appErrors.FromValidation(err, "invalid expenditure payload")
	}
	details := moneyDetails(input.Amount, input.Currency, input.Method)
	if strings.TrimSpace(input.Payee) == "" {
		details = append(details, appErrors.Field("payee", "required"))
	}
	if len(details) > 0 {
		return appErrors.Invalid("invalid expenditure payload", details...)
	}
	return nil
}

func moneyDetails(amount decimal.Decimal, currency models.Currency, method models.PaymentMethod) []appErrors.FieldError {
	var details []appErrors.FieldError
	if !amount.IsPositive() {
		details = append(details, appErrors.Field("amount", "must be greater than zero"))
	}
	if !currency.Valid() {
		details = append(details, appErrors.Field("currency", "unknown currency"))
	}
	if !method.Valid() {
		details = append(details, appErrors.Field("method", "unknown payment method"))
	}
	return details
}

func applyPaymentInput(p *models.Payment, input PaymentInput) {
	p.Amount = input.Amount
	p.Currency = input.Currency
	p.Date = input.Date
	p.Method = input.Method
	p.Reference = strings.TrimSpace(input.Reference)
	p.Notes = strings.TrimSpace(input.Notes)
}

func applyExpenditureInput(e *models.Expenditure, input ExpenditureInput) {
	e.Payee = strings.TrimSpace(input.Payee)
	e.Category = strings.TrimSpace(input.Category)
	e.Amount = input.Amount
	e.Currency = input.Currency
	e.Date = input.Date
	e.Method = input.Method
	e.Description = strings.TrimSpace(input.Description)
}

// SumByCurrency totals amounts per currency. Currencies never mix.
func SumByCurrency[T any](items []T, amountOf func(T) (models.Currency, decimal.Decimal)) map[models.Currency]decimal.Decimal {
	totals := make(map[models.Currency]decimal.Decimal)
	for _, item := range items {
		currency, amount := amountOf(item)
		totals[currency] = totals[currency].Add(amount)
	}
	return totals
}
