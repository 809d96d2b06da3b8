package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-crm-api/internal/middleware"
	"github.com/noah-isme/lingua-crm-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix. Nil
// handlers leave their routes unregistered.
type Handlers struct {
	Prospects   *ProspectHandler
	Clients     *ClientHandler
	Students    *StudentHandler
	Classes     *ClassHandler
	Enrollments *EnrollmentHandler
	Tasks       *TaskHandler
	Finance     *FinanceHandler
	Dashboard   *DashboardHandler
	Reports     *ReportHandler
	Events      *EventHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes mounts the API on api. auth must attach the actor to the
// request; signed report downloads stay outside it.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, auth gin.HandlerFunc) {
	office := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	everyone := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleTeacher)

	if h.Reports != nil {
		api.GET("/reports/download/:token", h.Reports.Download)
	}

	secured := api.Group("", auth)

	if h.Prospects != nil {
		g := secured.Group("/prospects", office)
		g.GET("", h.Prospects.ListActive)
		g.GET("/completed", h.Prospects.ListCompleted)
		g.GET("/:id", h.Prospects.Get)
		g.POST("", h.Prospects.Create)
		g.PUT("/:id", h.Prospects.Update)
		g.DELETE("/:id", h.Prospects.Delete)
		g.POST("/:id/convert", h.Prospects.Convert)
		g.POST("/:id/completion", h.Prospects.Complete)
	}

	if h.Clients != nil {
		g := secured.Group("/clients", office)
		g.GET("", h.Clients.List)
		g.GET("/:clientId", h.Clients.Get)
		g.GET("/:clientId/statement", h.Clients.Statement)
	}

	if h.Students != nil {
		g := secured.Group("/students")
		g.GET("", everyone, h.Students.List)
		g.GET("/:id", everyone, h.Students.Get)
		g.POST("", office, h.Students.Create)
		g.PUT("/:id", office, h.Students.Update)
		g.DELETE("/:id", office, h.Students.Delete)
		if h.Enrollments != nil {
			g.GET("/:id/classes", everyone, h.Enrollments.List)
			g.PUT("/:id/classes", office, h.Enrollments.Set)
			g.POST("/:id/classes/:classId", office, h.Enrollments.Assign)
			g.DELETE("/:id/classes/:classId", office, h.Enrollments.Remove)
		}
	}

	if h.Classes != nil {
		g := secured.Group("/classes")
		g.GET("", everyone, h.Classes.List)
		g.GET("/:id", everyone, h.Classes.Get)
		g.GET("/:id/students", everyone, h.Classes.Roster)
		g.POST("", office, h.Classes.Create)
		g.PUT("/:id", office, h.Classes.Update)
		g.DELETE("/:id", office, h.Classes.Delete)
	}

	if h.Tasks != nil {
		f := secured.Group("/follow-ups", office)
		f.GET("", h.Tasks.ListFollowUps)
		f.GET("/:id", h.Tasks.GetFollowUp)
		f.POST("", h.Tasks.CreateFollowUp)
		f.PUT("/:id", h.Tasks.UpdateFollowUp)
		f.POST("/:id/complete", h.Tasks.CompleteFollowUp)
		f.DELETE("/:id", h.Tasks.DeleteFollowUp)

		m := secured.Group("/communications", everyone)
		m.GET("", h.Tasks.ListCommunications)
		m.GET("/:id", h.Tasks.GetCommunication)
		m.POST("", h.Tasks.CreateCommunication)
		m.PUT("/:id", h.Tasks.UpdateCommunication)
		m.POST("/:id/complete", h.Tasks.CompleteCommunication)
		m.DELETE("/:id", office, h.Tasks.DeleteCommunication)

		secured.GET("/tasks", everyone, h.Tasks.Feed)
		secured.GET("/tasks/indicators", office, h.Tasks.Indicators)
	}

	if h.Finance != nil {
		p := secured.Group("/payments", office)
		p.GET("", h.Finance.ListPayments)
		p.GET("/:id", h.Finance.GetPayment)
		p.POST("", h.Finance.RecordPayment)
		p.PUT("/:id", h.Finance.UpdatePayment)
		p.DELETE("/:id", h.Finance.DeletePayment)

		e := secured.Group("/expenditures", office)
		e.GET("", h.Finance.ListExpenditures)
		e.GET("/:id", h.Finance.GetExpenditure)
		e.POST("", h.Finance.RecordExpenditure)
		e.PUT("/:id", h.Finance.UpdateExpenditure)
		e.DELETE("/:id", h.Finance.DeleteExpenditure)
	}

	if h.Dashboard != nil {
		secured.GET("/dashboard", office, middleware.WithResponseMeta(), h.Dashboard.Summary)
	}

	if h.Reports != nil {
		r := secured.Group("/reports", office)
		r.POST("", h.Reports.Generate)
		r.GET("/:id", h.Reports.Status)
	}

	if h.Events != nil {
		secured.GET("/events", everyone, h.Events.Stream)
	}

	if h.Metrics != nil {
		secured.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), h.Metrics.Summary)
	}
}
