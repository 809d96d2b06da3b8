package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/service"
	"github.com/noah-isme/lingua-crm-api/pkg/response"
)

// FinanceHandler exposes payments and expenditures.
type FinanceHandler struct {
	finance *service.FinanceService
}

// NewFinanceHandler constructs FinanceHandler.
func NewFinanceHandler(finance *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{finance: finance}
}

// ListPayments godoc
// @Summary List payments
// @Tags Finance
// @Produce json
// @Param clientId query string false "Client id"
// @Param currency query string false "Currency"
// @Param method query string false "Payment method"
// @Param search query string false "Reference or notes"
// @Param window query string false "Time window"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *FinanceHandler) ListPayments(c *gin.Context) {
	window, custom, err := windowQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.finance.SearchPayments(c.Request.Context(), models.PaymentFilter{
		ClientID: strings.TrimSpace(c.Query("clientId")),
		Currency: models.Currency(c.Query("currency")),
		Method:   models.PaymentMethod(c.Query("method")),
		Search:   strings.TrimSpace(c.Query("search")),
		Window:   window,
		Custom:   custom,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	totals := service.SumByCurrency(items, func(p models.Payment) (models.Currency, decimal.Decimal) { return p.Currency, p.Amount })
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"totals": totals})
}

// GetPayment godoc
// @Summary Get payment
// @Tags Finance
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *FinanceHandler) GetPayment(c *gin.Context) {
	item, err := h.finance.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// RecordPayment godoc
// @Summary Record a client payment
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body service.PaymentInput true "Payment payload"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *FinanceHandler) RecordPayment(c *gin.Context) {
	var req service.PaymentInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.finance.RecordPayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdatePayment godoc
// @Summary Update payment
// @Tags Finance
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body service.PaymentInput true "Payment payload"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [put]
func (h *FinanceHandler) UpdatePayment(c *gin.Context) {
	var req service.PaymentInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.finance.UpdatePayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeletePayment godoc
// @Summary Delete payment
// @Tags Finance
// @Param id path string true "Payment ID"
// @Success 204
// @Router /payments/{id} [delete]
func (h *FinanceHandler) DeletePayment(c *gin.Context) {
	if err := h.finance.DeletePayment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListExpenditures godoc
// @Summary List expenditures
// @Tags Finance
// @Produce json
// @Param category query string false "Category"
// @Param currency query string false "Currency"
// @Param method query string false "Payment method"
// @Param search query string false "Payee or description"
// @Param window query string false "Time window"
// @Success 200 {object} response.Envelope
// @Router /expenditures [get]
func (h *FinanceHandler) ListExpenditures(c *gin.Context) {
	window, custom, err := windowQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.finance.SearchExpenditures(c.Request.Context(), models.ExpenditureFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Currency: models.Currency(c.Query("currency")),
		Method:   models.PaymentMethod(c.Query("method")),
		Search:   strings.TrimSpace(c.Query("search")),
		Window:   window,
		Custom:   custom,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	totals := service.SumByCurrency(items, func(e models.Expenditure) (models.Currency, decimal.Decimal) { return e.Currency, e.Amount })
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"totals": totals})
}

// GetExpenditure godoc
// @Summary Get expenditure
// @Tags Finance
// @Produce json
// @Param id path string true "Expenditure ID"
// @Success 200 {object} response.Envelope
// @Router /expenditures/{id} [get]
func (h *FinanceHandler) GetExpenditure(c *gin.Context) {
	item, err := h.finance.GetExpenditure(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// RecordExpenditure godoc
// @Summary Record an expenditure
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body service.ExpenditureInput true "Expenditure payload"
// @Success 201 {object} response.Envelope
// @Router /expenditures [post]
func (h *FinanceHandler) RecordExpenditure(c *gin.Context) {
	var req service.ExpenditureInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.finance.RecordExpenditure(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateExpenditure godoc
// @Summary Update expenditure
// @Tags Finance
// @Accept json
// @Produce json
// @Param id path string true "Expenditure ID"
// @Param payload body service.ExpenditureInput true "Expenditure payload"
// @Success 200 {object} response.Envelope
// @Router /expenditures/{id} [put]
func (h *FinanceHandler) UpdateExpenditure(c *gin.Context) {
	var req service.ExpenditureInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.finance.UpdateExpenditure(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteExpenditure godoc
// @Summary Delete expenditure
// @Tags Finance
// @Param id path string true "Expenditure ID"
// @Success 204
// @Router /expenditures/{id} [delete]
func (h *FinanceHandler) DeleteExpenditure(c *gin.Context) {
	if err := h.finance.DeleteExpenditure(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
