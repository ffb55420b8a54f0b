package routes

import (
	"net/http"
	"time"

	_ "github.com/Dosada05/handicap-system/docs"
	"github.com/Dosada05/handicap-system/handlers"
	"github.com/Dosada05/handicap-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Course      *handlers.CourseHandler
	Round       *handlers.RoundHandler
	Attestation *handlers.AttestationHandler
	Player      *handlers.PlayerHandler
	WebSocket   *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.With(authenticate).Get("/ws/rounds/{roundID}", h.WebSocket.ServeRound)

	router.Route("/api", func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Get("/{courseID}", h.Course.GetCourse)
			r.With(authenticate, middleware.RequireAdmin).Post("/", h.Course.CreateCourse)
		})

		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Get("/handicap", h.Player.GetHandicap)
			r.Get("/rounds", h.Player.ListRounds)
		})

		r.Route("/rounds", func(r chi.Router) {
			r.Get("/{roundID}", h.Round.GetRound)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/", h.Round.StartRound)
				r.Put("/{roundID}/holes/{holeNumber}", h.Round.RecordHoleScore)
				r.Post("/{roundID}/complete", h.Round.CompleteRound)
				r.Post("/{roundID}/scorecard", h.Round.UploadScorecard)
				r.Post("/{roundID}/rescore", h.Round.Rescore)
				r.Post("/{roundID}/attestations", h.Attestation.RequestAttestation)
			})
		})

		r.Route("/attestations", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/pending", h.Attestation.ListPending)
			r.Post("/{attestationID}/respond", h.Attestation.Respond)
		})
	})
}
