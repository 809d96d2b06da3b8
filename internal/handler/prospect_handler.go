package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/service"
	"github.com/noah-isme/lingua-crm-api/pkg/response"
)

// ProspectHandler exposes the prospect pipeline and its conversion paths.
type ProspectHandler struct {
	prospects *service.ProspectService
}

// NewProspectHandler constructs ProspectHandler.
func NewProspectHandler(prospects *service.ProspectService) *ProspectHandler {
	return &ProspectHandler{prospects: prospects}
}

func prospectFilter(c *gin.Context) (models.ProspectFilter, error) {
	window, custom, err := windowQuery(c)
	if err != nil {
		return models.ProspectFilter{}, err
	}
	return models.ProspectFilter{
		ContactMethod: models.ContactMethod(c.Query("contactMethod")),
		ServiceType:   models.ServiceType(c.Query("serviceType")),
		Search:        strings.TrimSpace(c.Query("search")),
		Window:        window,
		Custom:        custom,
	}, nil
}

// ListActive godoc
// @Summary List prospects still in the pipeline
// @Tags Prospects
// @Produce json
// @Param search query string false "Name, email or phone"
// @Param contactMethod query string false "Contact method"
// @Param serviceType query string false "LanguageTraining, DocTranslation or Interpretation"
// @Param window query string false "all, 24h, 7d, 1m, 3m, 6m, 1y or custom"
// @Param from query string false "Custom range start (YYYY-MM-DD)"
// @Param to query string false "Custom range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /prospects [get]
func (h *ProspectHandler) ListActive(c *gin.Context) {
	filter, err := prospectFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.prospects.SearchActive(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ListCompleted godoc
// @Summary List completed jobs and converted prospects
// @Tags Prospects
// @Produce json
// @Param search query string false "Name, email or phone"
// @Param serviceType query string false "Service type"
// @Param window query string false "Time window"
// @Success 200 {object} response.Envelope
// @Router /prospects/completed [get]
func (h *ProspectHandler) ListCompleted(c *gin.Context) {
	filter, err := prospectFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.prospects.SearchCompleted(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get prospect detail
// @Tags Prospects
// @Produce json
// @Param id path string true "Prospect ID"
// @Success 200 {object} response.Envelope
// @Router /prospects/{id} [get]
func (h *ProspectHandler) Get(c *gin.Context) {
	prospect, err := h.prospects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prospect, nil)
}

// Create godoc
// @Summary Record a new inquiry
// @Tags Prospects
// @Accept json
// @Produce json
// @Param payload body service.ProspectInput true "Prospect payload"
// @Success 201 {object} response.Envelope
// @Router /prospects [post]
func (h *ProspectHandler) Create(c *gin.Context) {
	var req service.ProspectInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	prospect, err := h.prospects.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, prospect)
}

// Update godoc
// @Summary Update prospect
// @Tags Prospects
// @Accept json
// @Produce json
// @Param id path string true "Prospect ID"
// @Param payload body service.ProspectInput true "Prospect payload"
// @Success 200 {object} response.Envelope
// @Router /prospects/{id} [put]
func (h *ProspectHandler) Update(c *gin.Context) {
	var req service.ProspectInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	prospect, err := h.prospects.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prospect, nil)
}

// Delete godoc
// @Summary Delete prospect and its follow-ups
// @Tags Prospects
// @Param id path string true "Prospect ID"
// @Success 204
// @Router /prospects/{id} [delete]
func (h *ProspectHandler) Delete(c *gin.Context) {
	if err := h.prospects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Convert godoc
// @Summary Convert a language-training prospect into a student
// @Tags Prospects
// @Accept json
// @Produce json
// @Param id path string true "Prospect ID"
// @Param payload body service.StudentInput true "Student details"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /prospects/{id}/convert [post]
func (h *ProspectHandler) Convert(c *gin.Context) {
	var req service.StudentInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.prospects.ConvertToStudent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Complete godoc
// @Summary Log completion of a translation or interpretation job
// @Tags Prospects
// @Accept json
// @Produce json
// @Param id path string true "Prospect ID"
// @Param payload body service.CompletionInput true "Completion details"
// @Success 200 {object} response.Envelope
// @Router /prospects/{id}/completion [post]
func (h *ProspectHandler) Complete(c *gin.Context) {
	var req service.CompletionInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.prospects.LogServiceCompletion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, map[string]interface{}{"edited": result.Edited})
}
