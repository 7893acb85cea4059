package main

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"runtime/debug"
	"time"

	// `chi` is a lightweight, idiomatic and composable router for building HTTP services in Go.
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	// `chi/cors` provides CORS (Cross-Origin Resource Sharing) middleware.
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/auth"
	_ "github.com/akshayUniverse/cook-ease-sub001/docs" // Swagger document registration
	"github.com/akshayUniverse/cook-ease-sub001/messages"
	"github.com/akshayUniverse/cook-ease-sub001/notifications"
	"github.com/akshayUniverse/cook-ease-sub001/onboarding"
	"github.com/akshayUniverse/cook-ease-sub001/recipes"
	"github.com/akshayUniverse/cook-ease-sub001/setup"
	"github.com/akshayUniverse/cook-ease-sub001/shoppinglists"
	"github.com/akshayUniverse/cook-ease-sub001/users"
)

const requestTimeout = 60 * time.Second

// routes collects the feature handlers mounted by newRouter.
type routes struct {
	tokens      *auth.TokenIssuer
	corsOrigins []string

	auth          *auth.Handlers
	users         *users.UserHandlers
	recipes       *recipes.Handlers
	shoppingLists *shoppinglists.Handlers
	onboarding    *onboarding.Handlers
	messages      *messages.Handlers
	notifications *notifications.Handlers
	setup         *setup.Handlers
	health        http.Handler
}

// logFormatter is chi's default request line with the access_token query
// parameter masked, so stream tokens never reach the logs.
type logFormatter struct {
	middleware.DefaultLogFormatter
}

func newLogFormatter(w io.Writer) *logFormatter {
	return &logFormatter{middleware.DefaultLogFormatter{Logger: log.New(w, "", log.LstdFlags)}}
}

func (f *logFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	if uri, ok := redactAccessToken(r.RequestURI); ok {
		r = r.Clone(r.Context())
		r.RequestURI = uri
	}
	return f.DefaultLogFormatter.NewLogEntry(r)
}

func redactAccessToken(requestURI string) (string, bool) {
	u, err := url.ParseRequestURI(requestURI)
	if err != nil {
		return requestURI, false
	}
	q := u.Query()
	if !q.Has(auth.AccessTokenQueryParam) {
		return requestURI, false
	}
	q.Set(auth.AccessTokenQueryParam, "REDACTED")
	u.RawQuery = q.Encode()
	return u.RequestURI(), true
}

// IMPORTANT: chi requires all middleware to be registered before any routes.
func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(newLogFormatter(os.Stdout)))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", setup.TokenHeader},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(recoverPanics)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Method(http.MethodGet, "/health", rt.health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		rt.auth.RegisterRoutes(r)
	})

	r.Route("/api", func(r chi.Router) {
		// Migrations can outlast the request timeout.
		rt.setup.RegisterRoutes(r)

		r.Route("/v1", func(r chi.Router) {
			r.Route("/notifications", func(r chi.Router) {
				rt.notifications.RegisterStreamRoute(r, rt.tokens)
				r.Group(func(r chi.Router) {
					r.Use(middleware.Timeout(requestTimeout))
					rt.notifications.RegisterRoutes(r, rt.tokens)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(requestTimeout))
				rt.users.RegisterRoutes(r, rt.tokens)
				rt.recipes.RegisterRoutes(r, rt.tokens)
				rt.shoppingLists.RegisterRoutes(r, rt.tokens)
				rt.messages.RegisterRoutes(r, rt.tokens)
				r.Route("/onboarding", func(r chi.Router) {
					rt.onboarding.RegisterRoutes(r, rt.tokens)
				})
			})
		})
	})

	return r
}

// recoverPanics turns a handler panic into the standard JSON 500 body.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log.Printf("Panic: %+v\n%s", rvr, debug.Stack())
				auth.WriteError(w, r, apperror.NewInternalError("internal server error", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
