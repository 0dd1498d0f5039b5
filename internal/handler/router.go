package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dquezada/titula/internal/metrics"
	"github.com/dquezada/titula/internal/middleware"
	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/role"
)

// RouterDeps bundles the dependencies NewRouter needs.
type RouterDeps struct {
	// middleware dependencies
	IdentityResolver  middleware.IdentityResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// services
	AuthService     AuthServiceInterface
	UserService     UserServiceInterface
	AcademicService AcademicServiceInterface
	StudentService  StudentServiceInterface
	DefenseService  DefenseServiceInterface

	// observability
	Metrics       AuthMetrics
	StatusMetrics middleware.StatusMetrics
	Gatherer      prometheus.Gatherer
}

// NewRouter wires every API endpoint and the middleware chain.
//
// Middleware order for authenticated routes:
//
//	Recovery → SecurityHeaders → Logging → CORS → Bearer → RateLimit(General) → RoleGate
//
// The credential endpoints (/auth/login, forgot/reset password) sit
// outside the bearer chain; login carries its own per-IP rate limit.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.StatusMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusMetrics))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Metrics)
	homeHandler := NewHomeHandler()
	userHandler := NewUserHandler(deps.UserService)
	academicHandler := NewAcademicHandler(deps.AcademicService)
	studentHandler := NewStudentHandler(deps.StudentService)
	predefenseHandler := NewDefenseHandler(deps.DefenseService, model.StagePredefense)
	finalHandler := NewDefenseHandler(deps.DefenseService, model.StageFinal)

	// --- routes without a bearer token ---

	r.Get("/health", handleHealth)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/auth", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
		} else {
			r.Post("/login", authHandler.Login)
		}
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	// --- authenticated routes ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerMiddleware(deps.IdentityResolver))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// available to every authenticated role
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
		r.Get("/home", homeHandler.Home)
		r.Get("/careers", academicHandler.ListCareers)
		r.Get("/periods/active", academicHandler.ActivePeriod)
		r.Get("/users/{id}/photo", userHandler.GetPhoto)

		// administration
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRoles(role.Admin))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.ListUsers)
				r.Post("/", userHandler.CreateUser)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", userHandler.GetUser)
					r.Put("/", userHandler.UpdateUser)
					r.Delete("/", userHandler.DeleteUser)
					r.Put("/photo", userHandler.SetPhoto)
					r.Get("/photo", userHandler.GetPhoto)
				})
			})

			r.Route("/periods", func(r chi.Router) {
				r.Get("/", academicHandler.ListPeriods)
				r.Post("/", academicHandler.CreatePeriod)
				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", academicHandler.UpdatePeriod)
					r.Post("/activate", academicHandler.ActivatePeriod)
					r.Delete("/", academicHandler.DeletePeriod)
				})
			})

			r.Route("/careers", func(r chi.Router) {
				r.Get("/", academicHandler.ListCareers)
				r.Post("/", academicHandler.CreateCareer)
				r.Route("/{id}", func(r chi.Router) {
					r.Put("/", academicHandler.UpdateCareer)
					r.Delete("/", academicHandler.DeleteCareer)
				})
			})

			// defense windows are admin-defined
			r.Route("/predefense/windows", func(r chi.Router) {
				r.Get("/", predefenseHandler.ListWindows)
				r.Post("/", predefenseHandler.CreateWindow)
			})
			r.Route("/final-defense/windows", func(r chi.Router) {
				r.Get("/", finalHandler.ListWindows)
				r.Post("/", finalHandler.CreateWindow)
			})
		})

		// coordinator student tracking
		r.Route("/coordinator", func(r chi.Router) {
			r.Use(middleware.RequireRoles(role.Coordinator))

			r.Route("/students", func(r chi.Router) {
				r.Get("/", studentHandler.ListStudents)
				r.Post("/", studentHandler.RegisterStudent)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", studentHandler.GetStudent)
					r.Put("/tutor", studentHandler.AssignTutor)
					r.Get("/incidents", studentHandler.ListIncidents)
					r.Post("/incidents", studentHandler.RecordIncident)
					r.Get("/project", studentHandler.GetProject)
					r.Post("/project", studentHandler.AssignProject)
				})
			})
		})

		// tutor tracking over assigned students
		r.Route("/tutor", func(r chi.Router) {
			r.Use(middleware.RequireRoles(role.Tutor))

			r.Route("/students", func(r chi.Router) {
				r.Get("/", studentHandler.ListMyStudents)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", studentHandler.GetStudent)
					r.Get("/incidents", studentHandler.ListIncidents)
					r.Post("/incidents", studentHandler.RecordIncident)
					r.Get("/project", studentHandler.GetProject)
					r.Post("/project", studentHandler.AssignProject)
				})
			})
		})

		// defense scheduling: coordinators and tutors also serve jury duty
		r.Route("/predefense", func(r chi.Router) {
			r.Use(middleware.RequireRoles(role.Jury, role.Coordinator, role.Tutor))
			mountDefenseRoutes(r, predefenseHandler)
		})
		r.Route("/final-defense", func(r chi.Router) {
			r.Use(middleware.RequireRoles(role.Jury, role.Coordinator, role.Tutor))
			mountDefenseRoutes(r, finalHandler)
		})
	})

	return r
}

// mountDefenseRoutes mounts one stage's scheduling endpoints.
func mountDefenseRoutes(r chi.Router, h *DefenseHandler) {
	r.Get("/windows", h.ListWindows)
	r.Route("/windows/{id}", func(r chi.Router) {
		r.Get("/slots", h.ListSlots)
		r.Post("/slots", h.OpenSlot)
	})
	r.Route("/slots/{id}", func(r chi.Router) {
		r.Post("/booking", h.BookSlot)
		r.Delete("/booking", h.CancelBooking)
		r.Post("/evaluation", h.RecordEvaluation)
	})
	r.Get("/students/{id}/summary", h.StudentSummary)
}

// handleHealth answers the container healthcheck.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
