package handlers

import "net/http"

// RegisterRoutes mounts the JSON API on mux
func RegisterRoutes(mux *http.ServeMux, m *Middleware, auth *AuthHandler, students *StudentHandler, goals *GoalHandler, health *HealthHandler) {
	mux.HandleFunc("GET /api/health", health.Health)

	// Accounts
	mux.HandleFunc("POST /api/auth/register", m.RateLimit(auth.Register))
	mux.HandleFunc("POST /api/auth/login", m.RateLimit(auth.Login))
	mux.HandleFunc("GET /api/auth/me", m.RequireTeacher(auth.Me))

	// Roster, attendance and tokens
	mux.HandleFunc("GET /api/students", m.RequireTeacher(students.List))
	mux.HandleFunc("POST /api/students", m.RequireTeacher(students.Add))
	mux.HandleFunc("POST /api/students/migrate", m.RequireTeacher(students.Migrate))
	mux.HandleFunc("PUT /api/students/{id}", m.RequireTeacher(students.Update))
	mux.HandleFunc("PUT /api/students/{id}/groups", m.RequireTeacher(students.UpdateGroups))
	mux.HandleFunc("DELETE /api/students/{id}", m.RequireTeacher(students.Delete))
	mux.HandleFunc("POST /api/students/{id}/checkin", m.RequireTeacher(students.CheckIn))
	mux.HandleFunc("POST /api/students/{id}/bonus", m.RequireTeacher(students.Bonus))
	mux.HandleFunc("POST /api/students/{id}/purchase", m.RequireTeacher(students.Purchase))

	// Weekly goals
	mux.HandleFunc("GET /api/goals/current", m.RequireTeacher(goals.Current))
	mux.HandleFunc("PUT /api/goals/current", m.RequireTeacher(goals.SetCurrent))
	mux.HandleFunc("GET /api/goals/week/{date}", m.RequireTeacher(goals.ForWeek))
	mux.HandleFunc("GET /api/goals/weeks", m.RequireTeacher(goals.Weeks))
}

// Chain wraps the API with the request-wide middleware
func (m *Middleware) Chain(h http.Handler) http.Handler {
	return RequestID(Logging(m.CORS(h)))
}
