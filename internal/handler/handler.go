// Package handler exposes the storefront services as a JSON HTTP API.
package handler

import (
	"net/http"

	"github.com/lumenis/storefront/internal/domain/address"
	"github.com/lumenis/storefront/internal/domain/cart"
	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/domain/order"
	"github.com/lumenis/storefront/internal/domain/payment"
	"github.com/lumenis/storefront/internal/domain/product"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Services bundles the domain services the API delegates to.
type Services struct {
	Products  product.Repository
	Catalog   *product.AdminService
	Carts     *cart.Service
	Coupons   coupon.Validator
	Admin     *coupon.AdminService
	Orders    *order.Service
	Payments  *payment.Confirmer
	Addresses *address.Service
}

// Handler translates HTTP requests into service calls and maps results and
// domain errors back to JSON responses.
type Handler struct {
	svc          Services
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg HandlerConfig, svc Services) *Handler {
	return &Handler{
		svc:          svc,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Register mounts every API route on mux under /api.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("POST /api/products", h.createProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.updateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.deactivateProduct)

	mux.HandleFunc("GET /api/carts/{session}", h.getCart)
	mux.HandleFunc("DELETE /api/carts/{session}", h.clearCart)
	mux.HandleFunc("POST /api/carts/{session}/items", h.addCartItem)
	mux.HandleFunc("PUT /api/carts/{session}/items/{productId}", h.updateCartItem)
	mux.HandleFunc("DELETE /api/carts/{session}/items/{productId}", h.removeCartItem)
	mux.HandleFunc("PUT /api/carts/{session}/coupon", h.applyCartCoupon)
	mux.HandleFunc("DELETE /api/carts/{session}/coupon", h.removeCartCoupon)

	mux.HandleFunc("POST /api/coupons/validate", h.validateCoupon)
	mux.HandleFunc("GET /api/coupons", h.listCoupons)
	mux.HandleFunc("POST /api/coupons", h.createCoupon)
	mux.HandleFunc("GET /api/coupons/{code}", h.getCoupon)
	mux.HandleFunc("PUT /api/coupons/{code}", h.updateCoupon)
	mux.HandleFunc("DELETE /api/coupons/{code}", h.deleteCoupon)

	mux.HandleFunc("GET /api/orders", h.listAllOrders)
	mux.HandleFunc("POST /api/orders", h.placeOrder)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.transitionOrder)
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.cancelOrder)
	mux.HandleFunc("POST /api/orders/{id}/payment", h.confirmPayment)
	mux.HandleFunc("GET /api/users/{owner}/orders", h.listOrders)

	mux.HandleFunc("GET /api/users/{owner}/addresses", h.listAddresses)
	mux.HandleFunc("POST /api/users/{owner}/addresses", h.addAddress)
	mux.HandleFunc("PUT /api/users/{owner}/addresses/{id}", h.updateAddress)
	mux.HandleFunc("DELETE /api/users/{owner}/addresses/{id}", h.removeAddress)
	mux.HandleFunc("PUT /api/users/{owner}/addresses/{id}/main", h.setMainAddress)
}
