package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"printconnect/internal/changefeed"
	"printconnect/internal/http/middleware"
	"printconnect/internal/service"
)

// Dependencies are the collaborators the HTTP surface is built on.
type Dependencies struct {
	DB              Pinger
	Auth            service.AuthService
	Jobs            service.PrintJobService
	Feed            changefeed.Subscriber
	StreamKeepAlive time.Duration
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Health probes are registered ahead of session resolution so they never touch the session store.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())

	app.Use(middleware.Authenticate(deps.Auth))

	auth := app.Group("/auth")
	auth.Post("/signup", SignUp(deps.Auth))
	auth.Post("/signin", SignIn(deps.Auth))
	auth.Post("/signout", SignOut(deps.Auth))
	auth.Get("/session", CurrentSession())

	signedIn := middleware.RequireIdentity()
	app.Post("/jobs", signedIn, SubmitJob(deps.Jobs))
	app.Get("/jobs", signedIn, ListJobs(deps.Jobs))
	app.Get("/jobs/stream", signedIn, StreamJobs(deps.Jobs, deps.Feed, deps.StreamKeepAlive))
	app.Get("/jobs/:id", signedIn, GetJob(deps.Jobs))
	app.Get("/jobs/:id/file", signedIn, JobFile(deps.Jobs))
	app.Patch("/jobs/:id/status", middleware.RequireOperator(), AdvanceJob(deps.Jobs))
}
