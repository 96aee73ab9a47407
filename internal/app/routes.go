package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/sendto/internal/handler"
	"github.com/sendto/internal/middleware"
	"github.com/sendto/internal/web"
)

func (app *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RateLimit(rate.Limit(5), 20))

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS)))

	// Health check
	r.Get("/api/health", handler.Health(app.outputs))

	receiveHandler := handler.NewReceiveHandler(app.logger, app.inbox, web.Templates, app.config.MaxUploadSizeMB)
	r.Get("/", receiveHandler.Index)
	r.Get("/api/submissions", receiveHandler.List)
	r.Get("/submissions/{id}.png", receiveHandler.Image)

	// The send page posts to whatever path the output URL names.
	r.Post("/*", receiveHandler.Submit)
	return r
}
