package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	customMiddleware "jamjob-backend/internal/middleware"
	"jamjob-backend/internal/services"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Accounts *services.AccountService
	Jobs     *services.JobService
	Payments *services.PaymentService
	Logos    *services.LogoService
}

type RouterConfig struct {
	FreeJobQuota   int
	UploadMaxBytes int64
}

func NewRouter(svc Services, db Pinger, log logrus.FieldLogger, cfg RouterConfig) http.Handler {
	userHandler := NewUserHandler(svc.Accounts, log, cfg.FreeJobQuota)
	jobHandler := NewJobHandler(svc.Jobs, log)
	logoHandler := NewLogoHandler(svc.Logos, log, cfg.UploadMaxBytes)
	paymentHandler := NewPaymentHandler(svc.Payments, log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Hello World!"))
	})
	r.Get("/health", healthHandler(db, log))

	r.Post("/api/users", userHandler.CreateOAuthUser)
	r.Get("/api/users/{email}", userHandler.GetUser)
	r.Post("/api/signup", userHandler.SignUp)

	r.Post("/upload-logo", logoHandler.Upload)
	r.Get("/get-logo/uploads/{filename}", logoHandler.Get)

	r.Post("/post-job", jobHandler.PostJob)
	r.Get("/all-jobs", jobHandler.ListAll)
	r.Get("/all-jobs/{id}", jobHandler.Get)
	r.Get("/my-jobs/{email}", jobHandler.ListMine)
	r.Delete("/job/{id}", jobHandler.Delete)
	r.Patch("/update-job/{id}", jobHandler.Update)

	r.Post("/create-paypal-payment", paymentHandler.CreatePayment)
	r.Get("/success", paymentHandler.Success)
	r.Get("/cancel", paymentHandler.Cancel)

	return r
}

func healthHandler(db Pinger, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				log.WithError(err).Warn("health check: database unreachable")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "service": "jamjob-backend"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "jamjob-backend"})
	}
}
