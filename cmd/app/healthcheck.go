package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	env := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": app.config.Environment,
			"version":     app.config.Version,
		},
	}

	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// readinessChecks lists the dependencies the API needs to serve traffic.
func (app *application) readinessChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}

	if app.db != nil {
		checks["database"] = app.db.PingContext
	}
	if app.mediaService != nil {
		checks["storage"] = app.mediaService.Check
	}
	if app.broker != nil {
		checks["broker"] = app.broker.Check
	}

	return checks
}

// readinessHandler runs every check concurrently and reports each result.
func (app *application) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var (
		mu      sync.Mutex
		results = map[string]string{}
	)

	var g errgroup.Group
	for name, check := range app.readinessChecks() {
		name, check := name, check
		g.Go(func() error {
			status := "ok"
			err := check(ctx)
			if err != nil {
				status = "unavailable"
				app.logger.Warn().Err(err).Str("check", name).Msg("readiness check failed")
			}

			mu.Lock()
			results[name] = status
			mu.Unlock()

			return err
		})
	}

	status, code := "ready", http.StatusOK
	if err := g.Wait(); err != nil {
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	err := app.writeJSON(w, code, envelope{"status": status, "checks": results}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
