package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires the REST surface. Public: health, product listing, signup,
// login. Everything else needs a token; the admin surface needs the ADMIN
// role on top.
func NewRouter(h *Handler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.Get("/products", h.ListProducts)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.ListOrders)

			r.Group(func(r chi.Router) {
				r.Use(h.AdminOnly)

				r.Post("/products", h.CreateProduct)
				r.Put("/products/{id}", h.UpdateProduct)
				r.Delete("/products/{id}", h.DeleteProduct)
				r.Get("/clients", h.ListPendingClients)
				r.Post("/admin/approve", h.ApproveClient)
			})
		})
	})

	return otelhttp.NewHandler(r, "pharmatrade-api")
}
