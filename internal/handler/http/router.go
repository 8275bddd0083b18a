package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Auth     Authenticator
	Users    *UserHandler
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrderHandler
	Address  *AddressHandler
	Settings *SettingsHandler
	Payment  *PaymentHandler
	Media    *MediaHandler

	// MediaDir is served under /media/ when images are stored on local disk.
	MediaDir      string
	SessionMaxAge time.Duration
}

func NewRouter(h Handlers) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if h.MediaDir != "" {
		router.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(h.MediaDir))))
	}

	h.Users.RegisterRoutes(router)
	h.Products.RegisterRoutes(router)
	h.Settings.RegisterRoutes(router)
	h.Payment.RegisterRoutes(router)

	router.Group(func(r chi.Router) {
		r.Use(CartSession(h.SessionMaxAge))
		h.Cart.RegisterRoutes(r)
		h.Checkout.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(h.Auth))
			r.Post("/checkout/submit", h.Checkout.handleSubmitOrder)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(Authenticate(h.Auth))
		h.Users.RegisterAuthenticatedRoutes(r)
		h.Orders.RegisterRoutes(r)
		h.Address.RegisterRoutes(r)
		h.Payment.RegisterAuthenticatedRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			h.Users.RegisterAdminRoutes(r)
			h.Products.RegisterAdminRoutes(r)
			h.Orders.RegisterAdminRoutes(r)
			h.Settings.RegisterAdminRoutes(r)
			h.Media.RegisterAdminRoutes(r)
		})
	})

	return router
}
