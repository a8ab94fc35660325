package router

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/webtorque7/shop/internal/admin"
	"github.com/webtorque7/shop/internal/cart"
	"github.com/webtorque7/shop/internal/catalog"
	"github.com/webtorque7/shop/internal/logger"
	"github.com/webtorque7/shop/internal/middleware"
	"github.com/webtorque7/shop/internal/order"
	"github.com/webtorque7/shop/internal/payment"
)

func NewRouter(
	cartH *cart.Handler,
	orderH *order.Handler,
	paymentH *payment.Handler,
	catalogH *catalog.Handler,
	adminH *admin.Handler,
	jwtSecret []byte,
) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.WithLogging)
	r.Use(chiMiddleware.Recoverer)

	r.Use(middleware.GzipHandler)

	// gateway notifications and the public catalog need no member token
	r.Mount("/api/products", catalogH.Routes())
	r.Mount("/api/payments", paymentH.NotifyRoutes())

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware(jwtSecret))

		r.Mount("/api/cart", cartH.Routes())
		r.Mount("/api/orders", orderH.Routes())
		r.Mount("/api/pay", paymentH.MemberRoutes())

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Mount("/api/admin", adminH.Routes())
		})
	})

	return r
}
