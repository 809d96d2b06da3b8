package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/service"
	"github.com/noah-isme/lingua-crm-api/pkg/response"
)

// ClientHandler serves the read-only clients view and client statements.
type ClientHandler struct {
	clients *service.ClientService
	finance *service.FinanceService
}

// NewClientHandler constructs ClientHandler.
func NewClientHandler(clients *service.ClientService, finance *service.FinanceService) *ClientHandler {
	return &ClientHandler{clients: clients, finance: finance}
}

// List godoc
// @Summary List clients (students and completed jobs)
// @Tags Clients
// @Produce json
// @Param kind query string false "Student or Job"
// @Param search query string false "Name, client id or email"
// @Param window query string false "Time window"
// @Success 200 {object} response.Envelope
// @Router /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	window, custom, err := windowQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	clients, err := h.clients.List(c.Request.Context(), service.ClientFilter{
		Kind:   models.ClientKind(c.Query("kind")),
		Search: strings.TrimSpace(c.Query("search")),
		Window: window,
		Custom: custom,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clients, nil)
}

// Get godoc
// @Summary Get client by visible id
// @Tags Clients
// @Produce json
// @Param clientId path string true "STU-... or C-..."
// @Success 200 {object} response.Envelope
// @Router /clients/{clientId} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.clients.Find(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client, nil)
}

// Statement godoc
// @Summary Client payment statement
// @Tags Clients
// @Produce json
// @Param clientId path string true "STU-... or C-..."
// @Success 200 {object} response.Envelope
// @Router /clients/{clientId}/statement [get]
func (h *ClientHandler) Statement(c *gin.Context) {
	statement, err := h.finance.ClientStatement(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statement, nil)
}
