package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-crm-api/internal/service"
	"github.com/noah-isme/lingua-crm-api/pkg/response"
)

// EnrollmentHandler manages which classes a student attends.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

type setEnrollmentsRequest struct {
	ClassIDs []string `json:"classIds"`
}

// List godoc
// @Summary Classes a student is enrolled in
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/classes [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	classes, err := h.enrollments.StudentClasses(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Set godoc
// @Summary Replace a student's classes
// @Description Adds and removes roster entries so the student ends up in exactly the given classes.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body setEnrollmentsRequest true "Target class ids"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/classes [put]
func (h *EnrollmentHandler) Set(c *gin.Context) {
	var req setEnrollmentsRequest
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	change, err := h.enrollments.SetStudentEnrollments(c.Request.Context(), c.Param("id"), req.ClassIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, change, nil)
}

// Assign godoc
// @Summary Enroll a student in one class
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/classes/{classId} [post]
func (h *EnrollmentHandler) Assign(c *gin.Context) {
	change, err := h.enrollments.AssignStudentToClass(c.Request.Context(), c.Param("id"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, change, nil)
}

// Remove godoc
// @Summary Remove a student from one class
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/classes/{classId} [delete]
func (h *EnrollmentHandler) Remove(c *gin.Context) {
	change, err := h.enrollments.RemoveStudentFromClass(c.Request.Context(), c.Param("id"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, change, nil)
}
