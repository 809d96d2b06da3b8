package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/service"
	"github.com/noah-isme/lingua-crm-api/pkg/response"
)

// TaskHandler exposes follow-ups, communications and the merged task feed.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler constructs TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type completeTaskRequest struct {
	Outcome string `json:"outcome"`
}

// ListFollowUps godoc
// @Summary List follow-ups
// @Tags Tasks
// @Produce json
// @Param prospectId query string false "Prospect"
// @Param status query string false "Pending or Completed"
// @Param assignee query string false "Assignee"
// @Success 200 {object} response.Envelope
// @Router /follow-ups [get]
func (h *TaskHandler) ListFollowUps(c *gin.Context) {
	items, err := h.tasks.ListFollowUps(c.Request.Context(), models.FollowUpFilter{
		ProspectID: c.Query("prospectId"),
		Status:     models.TaskStatus(c.Query("status")),
		Assignee:   c.Query("assignee"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// GetFollowUp godoc
// @Summary Get follow-up
// @Tags Tasks
// @Produce json
// @Param id path string true "Follow-up ID"
// @Success 200 {object} response.Envelope
// @Router /follow-ups/{id} [get]
func (h *TaskHandler) GetFollowUp(c *gin.Context) {
	item, err := h.tasks.GetFollowUp(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CreateFollowUp godoc
// @Summary Schedule a follow-up for a prospect
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body service.FollowUpInput true "Follow-up payload"
// @Success 201 {object} response.Envelope
// @Router /follow-ups [post]
func (h *TaskHandler) CreateFollowUp(c *gin.Context) {
	var req service.FollowUpInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.tasks.CreateFollowUp(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateFollowUp godoc
// @Summary Update a pending follow-up
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Follow-up ID"
// @Param payload body service.FollowUpInput true "Follow-up payload"
// @Success 200 {object} response.Envelope
// @Router /follow-ups/{id} [put]
func (h *TaskHandler) UpdateFollowUp(c *gin.Context) {
	var req service.FollowUpInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.tasks.UpdateFollowUp(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CompleteFollowUp godoc
// @Summary Complete a follow-up with its outcome
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Follow-up ID"
// @Param payload body completeTaskRequest true "Outcome"
// @Success 200 {object} response.Envelope
// @Router /follow-ups/{id}/complete [post]
func (h *TaskHandler) CompleteFollowUp(c *gin.Context) {
	var req completeTaskRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.tasks.CompleteFollowUp(c.Request.Context(), c.Param("id"), req.Outcome)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteFollowUp godoc
// @Summary Delete follow-up
// @Tags Tasks
// @Param id path string true "Follow-up ID"
// @Success 204
// @Router /follow-ups/{id} [delete]
func (h *TaskHandler) DeleteFollowUp(c *gin.Context) {
	if err := h.tasks.DeleteFollowUp(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCommunications godoc
// @Summary List communications
// @Tags Tasks
// @Produce json
// @Param status query string false "Pending or Completed"
// @Param priority query string false "Low, Medium or High"
// @Param assignee query string false "Assignee"
// @Param search query string false "Title or description"
// @Success 200 {object} response.Envelope
// @Router /communications [get]
func (h *TaskHandler) ListCommunications(c *gin.Context) {
	items, err := h.tasks.ListCommunications(c.Request.Context(), models.CommunicationFilter{
		Status:   models.TaskStatus(c.Query("status")),
		Priority: models.Priority(c.Query("priority")),
		Assignee: c.Query("assignee"),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// GetCommunication godoc
// @Summary Get communication
// @Tags Tasks
// @Produce json
// @Param id path string true "Communication ID"
// @Success 200 {object} response.Envelope
// @Router /communications/{id} [get]
func (h *TaskHandler) GetCommunication(c *gin.Context) {
	item, err := h.tasks.GetCommunication(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CreateCommunication godoc
// @Summary Create communication task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body service.CommunicationInput true "Communication payload"
// @Success 201 {object} response.Envelope
// @Router /communications [post]
func (h *TaskHandler) CreateCommunication(c *gin.Context) {
	var req service.CommunicationInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.tasks.CreateCommunication(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateCommunication godoc
// @Summary Update a pending communication
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Communication ID"
// @Param payload body service.CommunicationInput true "Communication payload"
// @Success 200 {object} response.Envelope
// @Router /communications/{id} [put]
func (h *TaskHandler) UpdateCommunication(c *gin.Context) {
	var req service.CommunicationInput
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.tasks.UpdateCommunication(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CompleteCommunication godoc
// @Summary Complete a communication with its outcome
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Communication ID"
// @Param payload body completeTaskRequest true "Outcome"
// @Success 200 {object} response.Envelope
// @Router /communications/{id}/complete [post]
func (h *TaskHandler) CompleteCommunication(c *gin.Context) {
	var req completeTaskRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.tasks.CompleteCommunication(c.Request.Context(), c.Param("id"), req.Outcome)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteCommunication godoc
// @Summary Delete communication
// @Tags Tasks
// @Param id path string true "Communication ID"
// @Success 204
// @Router /communications/{id} [delete]
func (h *TaskHandler) DeleteCommunication(c *gin.Context) {
	if err := h.tasks.DeleteCommunication(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Feed godoc
// @Summary Merged follow-up and communication feed ordered by due date
// @Tags Tasks
// @Produce json
// @Param assignee query string false "Assignee"
// @Param includeDone query bool false "Include completed tasks"
// @Param urgency query string false "Comma separated: Overdue, DueToday, Upcoming, Completed"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) Feed(c *gin.Context) {
	filter := models.TaskFeedFilter{
		Assignee:    c.Query("assignee"),
		IncludeDone: boolQuery(c, "includeDone"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	for _, raw := range strings.Split(c.Query("urgency"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			filter.OnlyUrgencies = append(filter.OnlyUrgencies, models.Urgency(raw))
		}
	}
	items, err := h.tasks.Feed(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Indicators godoc
// @Summary Follow-up urgency badges keyed by prospect id
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks/indicators [get]
func (h *TaskHandler) Indicators(c *gin.Context) {
	indicators, err := h.tasks.ProspectIndicators(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, indicators, nil)
}
