package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"resourceroom/internal/calendar"
	"resourceroom/internal/database"
	"resourceroom/internal/models"
	"resourceroom/internal/repository"
	"resourceroom/internal/security"
	"resourceroom/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistrationCode = "classroom-2025"

type apiClient struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))

	loc := time.UTC
	clock := calendar.SystemClock{}

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	sessionRepo := repository.NewSessionRepository(db, loc)
	goalRepo := repository.NewGoalRepository(db, loc)

	studentService := service.NewStudentService(studentRepo)
	t.Cleanup(studentService.Wait)
	attendanceService := service.NewAttendanceService(studentService, studentRepo, sessionRepo, clock, loc)
	tokenService := service.NewTokenService(studentRepo, sessionRepo, clock, loc)
	goalService := service.NewGoalService(goalRepo, nil, clock, loc)
	authService := service.NewAuthService(teacherRepo, goalService, security.NewTokenManager("test-secret", time.Hour), nil, testRegistrationCode)

	limiter := security.NewRateLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)
	middleware := NewMiddleware(authService, limiter, []string{"http://localhost:3000"})

	mux := http.NewServeMux()
	RegisterRoutes(mux,
		middleware,
		NewAuthHandler(authService),
		NewStudentHandler(studentService, attendanceService, tokenService),
		NewGoalHandler(goalService, loc),
		NewHealthHandler(db.PingContext, "test"),
	)

	server := httptest.NewServer(middleware.Chain(mux))
	t.Cleanup(server.Close)
	return &apiClient{t: t, server: server}
}

func (c *apiClient) do(method, path string, body interface{}, out interface{}) int {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.server.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *apiClient) register() {
	c.t.Helper()
	var auth authResponse
	status := c.do("POST", "/api/auth/register", map[string]string{
		"username":         "msmith",
		"email":            "msmith@school.test",
		"password":         "secret1",
		"firstName":        "Morgan",
		"lastName":         "Smith",
		"registrationCode": testRegistrationCode,
	}, &auth)
	require.Equal(c.t, http.StatusCreated, status)
	require.NotEmpty(c.t, auth.Token)
	c.token = auth.Token
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, api.do("GET", "/api/health", nil, &body))
	assert.Equal(t, "OK", body["status"])
}

func TestAuthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	var errBody errorResponse
	status := api.do("POST", "/api/auth/register", map[string]string{
		"username": "x", "registrationCode": "wrong",
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ErrInvalidRegistration, errBody.Error)

	api.register()

	var me map[string]teacherView
	assert.Equal(t, http.StatusOK, api.do("GET", "/api/auth/me", nil, &me))
	assert.Equal(t, "msmith", me["teacher"].Username)

	var login authResponse
	assert.Equal(t, http.StatusOK, api.do("POST", "/api/auth/login", map[string]string{"login": "MSmith@School.test", "password": "secret1"}, &login))
	assert.NotEmpty(t, login.Token)

	assert.Equal(t, http.StatusUnauthorized, api.do("POST", "/api/auth/login", map[string]string{"login": "msmith", "password": "nope"}, nil))

	api.token = ""
	assert.Equal(t, http.StatusUnauthorized, api.do("GET", "/api/students", nil, nil))
	api.token = "not-a-jwt"
	assert.Equal(t, http.StatusUnauthorized, api.do("GET", "/api/students", nil, nil))
}

func TestStudentFlow(t *testing.T) {
	api := newTestAPI(t)
	api.register()

	var created struct {
		Message string      `json:"message"`
		Student studentView `json:"student"`
	}
	status := api.do("POST", "/api/students", map[string]interface{}{
		"name":   "Riley",
		"groups": []string{"reading", "math"},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	student := created.Student
	assert.Equal(t, "RILEY", student.Name)
	assert.Equal(t, "reading", student.Group)
	assert.Equal(t, 10, student.TotalSkills)
	assert.Equal(t, []string{}, student.TodaySubjects)

	assert.Equal(t, http.StatusConflict, api.do("POST", "/api/students", map[string]interface{}{"name": "riley", "group": "math"}, nil))
	assert.Equal(t, http.StatusBadRequest, api.do("POST", "/api/students", map[string]interface{}{"groups": []string{"math"}}, nil))

	base := "/api/students/" + student.ID

	var checkIn map[string]interface{}
	require.Equal(t, http.StatusOK, api.do("POST", base+"/checkin", map[string]string{"group": "reading"}, &checkIn))
	assert.Equal(t, float64(1), checkIn["tokensEarned"])
	assert.Equal(t, float64(1), checkIn["totalTokens"])

	assert.Equal(t, http.StatusBadRequest, api.do("POST", base+"/checkin", map[string]string{"group": "reading"}, nil))
	assert.Equal(t, http.StatusBadRequest, api.do("POST", base+"/checkin", map[string]string{"group": "writing"}, nil))
	assert.Equal(t, http.StatusBadRequest, api.do("POST", base+"/checkin", map[string]string{}, nil))

	var bonus map[string]interface{}
	require.Equal(t, http.StatusOK, api.do("POST", base+"/bonus", map[string]interface{}{"amount": 4}, &bonus))
	assert.Equal(t, float64(5), bonus["totalTokens"])
	assert.Equal(t, service.DefaultBonusReason, bonus["reason"])
	assert.Equal(t, http.StatusBadRequest, api.do("POST", base+"/bonus", map[string]interface{}{"amount": 0}, nil))

	var errBody errorResponse
	assert.Equal(t, http.StatusBadRequest, api.do("POST", base+"/purchase", map[string]interface{}{"item": "Big prize", "cost": 50}, &errBody))
	assert.Equal(t, "Insufficient tokens", errBody.Error)

	var purchase map[string]interface{}
	require.Equal(t, http.StatusOK, api.do("POST", base+"/purchase", map[string]interface{}{"item": "Sticker", "cost": 2}, &purchase))
	assert.Equal(t, float64(3), purchase["remainingTokens"])

	var list []studentView
	require.Equal(t, http.StatusOK, api.do("GET", "/api/students", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Tokens)
	assert.Equal(t, 5, list[0].TodayTokens)
	assert.Equal(t, []string{"reading"}, list[0].TodaySubjects)
	assert.True(t, list[0].Present)
	require.Len(t, list[0].Purchases, 1)

	var updated struct {
		Student studentView `json:"student"`
	}
	require.Equal(t, http.StatusOK, api.do("PUT", base+"/groups", map[string]interface{}{"groups": []string{"writing"}}, &updated))
	assert.Equal(t, []string{"writing"}, updated.Student.Groups)
	assert.Equal(t, "writing", updated.Student.Group)

	require.Equal(t, http.StatusOK, api.do("PUT", base, map[string]interface{}{"skillsCompleted": 7}, &updated))
	assert.Equal(t, 7, updated.Student.SkillsCompleted)

	var migrated map[string]interface{}
	require.Equal(t, http.StatusOK, api.do("POST", "/api/students/migrate", nil, &migrated))
	assert.Equal(t, float64(0), migrated["migratedCount"])

	assert.Equal(t, http.StatusOK, api.do("DELETE", base, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do("DELETE", base, nil, &errBody))
	assert.Equal(t, ErrStudentNotFound, errBody.Error)
	assert.Equal(t, http.StatusNotFound, api.do("POST", base+"/checkin", map[string]string{"group": "writing"}, nil))
}

func TestGoalEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.register()

	var current map[string]goalView
	require.Equal(t, http.StatusOK, api.do("GET", "/api/goals/current", nil, &current))
	assert.Len(t, current, 4, "registration seeds one goal per group")

	var saved map[string]interface{}
	require.Equal(t, http.StatusOK, api.do("PUT", "/api/goals/current", map[string]interface{}{
		"goals": map[string]interface{}{
			"reading": map[string]string{"topic": "Blends", "goal": "Read 6 blends"},
			"math":    map[string]string{"topic": "", "goal": ""},
		},
	}, &saved))
	assert.Equal(t, float64(1), saved["goalsUpdated"])

	require.Equal(t, http.StatusOK, api.do("GET", "/api/goals/current", nil, &current))
	assert.Equal(t, "Blends", current["reading"].Topic)
	assert.NotEmpty(t, current["reading"].Icon)

	require.Equal(t, http.StatusOK, api.do("PUT", "/api/goals/current", map[string]interface{}{
		"goals": map[string]interface{}{"art": map[string]string{"topic": "Color", "goal": "Mix"}},
	}, &saved))
	assert.Equal(t, float64(1), saved["goalsUpdated"])
	require.Equal(t, http.StatusOK, api.do("GET", "/api/goals/current", nil, &current))
	assert.Equal(t, "Color", current["art"].Topic)
	assert.Equal(t, models.GenericIcon, current["art"].Icon)

	today := calendar.Key(time.Now(), time.UTC)
	var week struct {
		WeekOf string              `json:"weekOf"`
		Goals  map[string]goalView `json:"goals"`
	}
	require.Equal(t, http.StatusOK, api.do("GET", "/api/goals/week/"+today, nil, &week))
	assert.Equal(t, calendar.Key(calendar.WeekStart(time.Now(), time.UTC), time.UTC), week.WeekOf)
	assert.Len(t, week.Goals, 5)

	assert.Equal(t, http.StatusBadRequest, api.do("GET", "/api/goals/week/not-a-date", nil, nil))

	var weeks []goalWeekView
	require.Equal(t, http.StatusOK, api.do("GET", "/api/goals/weeks", nil, &weeks))
	require.Len(t, weeks, 1)
	assert.Equal(t, week.WeekOf, weeks[0].WeekOf)
	assert.Equal(t, 5, weeks[0].GoalCount)
}

func TestCORS(t *testing.T) {
	api := newTestAPI(t)

	req, err := http.NewRequest(http.MethodOptions, api.server.URL+"/api/students", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := api.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
