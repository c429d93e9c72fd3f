package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/astren/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса заказов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/menu", h.GetMenu)
		r.Get("/deals", h.GetDeals)
		r.Get("/deals/stream", h.StreamDeals)

		r.Route("/user", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)

				r.Get("/profile", h.Profile)
				r.Get("/notifications", h.Notification)

				r.Route("/deal", func(r chi.Router) {
					r.Get("/state", h.DealState)
					r.Post("/open", h.OpenDeal)
					r.Post("/select-main", h.SelectMain)
					r.Post("/select-gift", h.SelectGift)
					r.Post("/commit", h.CommitDeal)
					r.Post("/cancel", h.CancelDeal)
				})

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", h.GetCart)
					r.Delete("/", h.ClearCart)
					r.Post("/toggle", h.ToggleCart)
					r.Post("/items", h.AddCartItem)
					r.Put("/items/{lineID}", h.UpdateCartItem)
					r.Delete("/items/{lineID}", h.RemoveCartItem)
				})

				r.Post("/checkout/quote", h.Quote)
				r.Post("/orders", h.PlaceOrder)
				r.Get("/orders", h.GetOrders)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)
			r.Use(custommiddleware.RequireAdmin)

			r.Get("/users", h.ListUsers)

			r.Put("/deals/{dealID}/status", h.SetDealStatus)

			r.Get("/orders", h.ListOrders)
			r.Put("/orders/{orderID}/status", h.UpdateOrderStatus)

			r.Get("/loyalty-log", h.ListLoyaltyLog)

			r.Get("/promo-codes", h.ListPromoCodes)
			r.Post("/promo-codes", h.CreatePromoCode)
			r.Put("/promo-codes/{promoID}", h.UpdatePromoCode)
			r.Delete("/promo-codes/{promoID}", h.DeletePromoCode)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
