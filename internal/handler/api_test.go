package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-crm-api/internal/middleware"
	"github.com/noah-isme/lingua-crm-api/internal/models"
	"github.com/noah-isme/lingua-crm-api/internal/repository/memory"
	"github.com/noah-isme/lingua-crm-api/internal/service"
	appErrors "github.com/noah-isme/lingua-crm-api/pkg/errors"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
)

const apiSecret = "api-test-secret"

type apiEnv struct {
	router *gin.Engine
	bus    *events.Bus
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repos := memory.New().Repositories()
	bus := events.NewBus(nil)
	metrics := service.NewMetricsService()

	students := service.NewStudentService(repos.Students, repos.Sequences, nil, bus, metrics, nil, nil)
	prospects := service.NewProspectService(repos.Prospects, students, nil, bus, metrics, nil, nil)
	clients := service.NewClientService(repos.Prospects, repos.Students)
	classes := service.NewClassService(repos.Classes, repos.Students, nil, bus, metrics, nil, nil)
	enrollments := service.NewEnrollmentService(repos.Students, repos.Classes, nil, bus, metrics, nil)
	tasks := service.NewTaskService(repos.FollowUps, repos.Communications, repos.Prospects, nil, bus, metrics, nil, nil)
	finance := service.NewFinanceService(repos.Payments, repos.Expenditures, clients, nil, bus, metrics, nil, nil)

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), Handlers{
		Prospects:   NewProspectHandler(prospects),
		Clients:     NewClientHandler(clients, finance),
		Students:    NewStudentHandler(students),
		Classes:     NewClassHandler(classes),
		Enrollments: NewEnrollmentHandler(enrollments),
		Tasks:       NewTaskHandler(tasks),
		Finance:     NewFinanceHandler(finance),
		Reports:     NewReportHandler(&reportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")}, nil),
		Metrics:     NewMetricsHandler(metrics, nil),
	}, middleware.JWT(middleware.NewTokenVerifier(apiSecret, "")))
	return &apiEnv{router: r, bus: bus}
}

func tokenFor(t *testing.T, userID string, role models.UserRole) string {
	t.Helper()
	claims := models.JWTClaims{
		UserID:   userID,
		FullName: strings.ToUpper(userID[:1]) + userID[1:],
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiSecret))
	require.NoError(t, err)
	return signed
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func (e *apiEnv) call(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestAPIRequiresAuthentication(t *testing.T) {
	env := newAPIEnv(t)
	code, body := env.call(t, http.MethodGet, "/api/v1/prospects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, body.Error)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, body.Error.Code)
}

func TestAPIConvertsTrainingProspect(t *testing.T) {
	env := newAPIEnv(t)
	staff := tokenFor(t, "amina", models.RoleStaff)

	code, body := env.call(t, http.MethodPost, "/api/v1/prospects", staff, map[string]interface{}{
		"name":                "Jean Bosco",
		"contactMethod":       "WalkIn",
		"dateOfContact":       "2026-02-01T00:00:00Z",
		"serviceInterestedIn": "LanguageTraining",
		"trainingLanguages":   []string{"English"},
	})
	require.Equal(t, http.StatusCreated, code, body.Error)
	prospect := decode[map[string]interface{}](t, body.Data)
	id := prospect["id"].(string)
	assert.Equal(t, "amina", prospect["createdBy"])
	assert.Equal(t, "Amina", prospect["createdByName"])

	student := map[string]interface{}{
		"name":             "Jean Bosco",
		"registrationDate": "2026-02-14T00:00:00Z",
		"referralSource":   "Friend",
		"totalFees":        "120000",
	}
	code, body = env.call(t, http.MethodPost, "/api/v1/prospects/"+id+"/convert", staff, student)
	require.Equal(t, http.StatusCreated, code, body.Error)
	result := decode[struct {
		Prospect map[string]interface{} `json:"prospect"`
		Student  models.Student         `json:"student"`
	}](t, body.Data)
	assert.Equal(t, "STU-140226-0001", result.Student.StudentID)
	assert.Equal(t, "Converted", result.Prospect["status"])

	code, body = env.call(t, http.MethodPost, "/api/v1/prospects/"+id+"/convert", staff, student)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, appErrors.ErrInvalidState.Code, body.Error.Code)

	code, body = env.call(t, http.MethodGet, "/api/v1/prospects", staff, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]map[string]interface{}](t, body.Data))

	code, body = env.call(t, http.MethodGet, "/api/v1/clients/STU-140226-0001", staff, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Jean Bosco", decode[models.Client](t, body.Data).Name)
}

func TestAPIValidationErrorsCarryFieldDetails(t *testing.T) {
	env := newAPIEnv(t)
	code, body := env.call(t, http.MethodPost, "/api/v1/prospects", tokenFor(t, "amina", models.RoleStaff), map[string]interface{}{
		"name":                "Agence X",
		"contactMethod":       "Email",
		"dateOfContact":       "2026-02-01T00:00:00Z",
		"serviceInterestedIn": "DocTranslation",
		"sourceLanguage":      "French",
		"targetLanguage":      "french",
	})
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, appErrors.ErrValidation.Code, body.Error.Code)
	assert.Contains(t, body.Error.Details, appErrors.Field("targetLanguage", "must differ from source language"))
}

func TestAPIRolesGuardOfficeRoutes(t *testing.T) {
	env := newAPIEnv(t)
	teacher := tokenFor(t, "paul", models.RoleTeacher)

	code, _ := env.call(t, http.MethodGet, "/api/v1/prospects", teacher, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = env.call(t, http.MethodGet, "/api/v1/payments", teacher, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.call(t, http.MethodGet, "/api/v1/classes", teacher, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = env.call(t, http.MethodGet, "/api/v1/tasks", teacher, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAPIEnrollmentRoutes(t *testing.T) {
	env := newAPIEnv(t)
	staff := tokenFor(t, "amina", models.RoleStaff)

	code, body := env.call(t, http.MethodPost, "/api/v1/students", staff, map[string]interface{}{
		"name":             "Claudine",
		"registrationDate": "2026-03-02T00:00:00Z",
		"referralSource":   "Website",
	})
	require.Equal(t, http.StatusCreated, code, body.Error)
	studentID := decode[models.Student](t, body.Data).ID

	code, body = env.call(t, http.MethodPost, "/api/v1/classes", staff, map[string]interface{}{
		"name":     "French evening",
		"language": "French",
		"level":    "A1.1",
	})
	require.Equal(t, http.StatusCreated, code, body.Error)
	classID := decode[models.Class](t, body.Data).ID

	code, body = env.call(t, http.MethodPut, "/api/v1/students/"+studentID+"/classes", staff, map[string]interface{}{"classIds": []string{classID}})
	require.Equal(t, http.StatusOK, code, body.Error)
	change := decode[models.EnrollmentChange](t, body.Data)
	assert.Equal(t, []string{classID}, change.Added)

	code, body = env.call(t, http.MethodGet, "/api/v1/classes/"+classID+"/students", staff, nil)
	require.Equal(t, http.StatusOK, code)
	roster := decode[[]models.Student](t, body.Data)
	require.Len(t, roster, 1)
	assert.Equal(t, studentID, roster[0].ID)

	code, body = env.call(t, http.MethodDelete, "/api/v1/students/"+studentID+"/classes/"+classID, staff, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{classID}, decode[models.EnrollmentChange](t, body.Data).Removed)

	code, _ = env.call(t, http.MethodPut, "/api/v1/students/"+studentID+"/classes", staff, map[string]interface{}{"classIds": []string{"missing"}})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPIStudentListPagination(t *testing.T) {
	env := newAPIEnv(t)
	staff := tokenFor(t, "amina", models.RoleStaff)
	for _, name := range []string{"A", "B", "C"} {
		code, body := env.call(t, http.MethodPost, "/api/v1/students", staff, map[string]interface{}{
			"name":             name,
			"registrationDate": "2026-03-02T00:00:00Z",
			"referralSource":   "Walkin",
		})
		require.Equal(t, http.StatusCreated, code, body.Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students?page=2&limit=2", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []models.Student  `json:"data"`
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, models.Pagination{Page: 2, PageSize: 2, TotalCount: 3}, body.Pagination)
}

func TestAPIReportDownloadSkipsBearerAuth(t *testing.T) {
	env := newAPIEnv(t)
	code, body := env.call(t, http.MethodGet, "/api/v1/reports/download/forged", "", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, appErrors.ErrForbidden.Code, body.Error.Code)
}

func TestAPIMetricsSummaryIsAdminOnly(t *testing.T) {
	env := newAPIEnv(t)
	code, _ := env.call(t, http.MethodGet, "/api/v1/metrics/summary", tokenFor(t, "amina", models.RoleStaff), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := env.call(t, http.MethodGet, "/api/v1/metrics/summary", tokenFor(t, "root", models.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, code)
	snapshot := decode[service.MetricsSnapshot](t, body.Data)
	assert.Greater(t, snapshot.Goroutines, 0)
}
