package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/lumenis/storefront/internal/domain/address"
	"github.com/lumenis/storefront/internal/domain/cart"
	"github.com/lumenis/storefront/internal/domain/coupon"
	"github.com/lumenis/storefront/internal/domain/fault"
	"github.com/lumenis/storefront/internal/domain/order"
	"github.com/lumenis/storefront/internal/domain/payment"
	"github.com/lumenis/storefront/internal/domain/product"
)

// apiError is the wire form of a failed request.
type apiError struct {
	Status int
	Reason string
}

var errorTable = []struct {
	err error
	apiError
}{
	{cart.ErrInvalidQuantity, apiError{http.StatusUnprocessableEntity, "invalid_quantity"}},
	{cart.ErrProductUnavailable, apiError{http.StatusUnprocessableEntity, "product_unavailable"}},
	{product.ErrNotFound, apiError{http.StatusNotFound, "product_not_found"}},
	{product.ErrDuplicateProduct, apiError{http.StatusConflict, "duplicate_product"}},
	{product.ErrInvalidProduct, apiError{http.StatusBadRequest, "invalid_product"}},

	{coupon.ErrCouponNotFound, apiError{http.StatusNotFound, "coupon_not_found"}},
	{coupon.ErrCouponInactive, apiError{http.StatusUnprocessableEntity, "coupon_inactive"}},
	{coupon.ErrCouponExpired, apiError{http.StatusUnprocessableEntity, "coupon_expired"}},
	{coupon.ErrCouponLimitReached, apiError{http.StatusUnprocessableEntity, "coupon_limit_reached"}},
	{coupon.ErrDuplicateCouponCode, apiError{http.StatusConflict, "duplicate_coupon_code"}},
	{coupon.ErrCouponInUse, apiError{http.StatusConflict, "coupon_in_use"}},
	{coupon.ErrInvalidCoupon, apiError{http.StatusBadRequest, "invalid_coupon"}},

	{order.ErrEmptyCart, apiError{http.StatusUnprocessableEntity, "empty_cart"}},
	{order.ErrMissingAddress, apiError{http.StatusUnprocessableEntity, "missing_address"}},
	{order.ErrInvalidTransition, apiError{http.StatusConflict, "invalid_transition"}},
	{order.ErrInvalidCancellation, apiError{http.StatusConflict, "invalid_cancellation"}},
	{order.ErrConcurrentUpdate, apiError{http.StatusConflict, "concurrent_update"}},
	{order.ErrNotFound, apiError{http.StatusNotFound, "order_not_found"}},
	{order.ErrUnknownStatus, apiError{http.StatusBadRequest, "invalid_status"}},

	{payment.ErrAlreadyConfirmed, apiError{http.StatusConflict, "payment_already_confirmed"}},
	{payment.ErrMissingTransaction, apiError{http.StatusBadRequest, "missing_transaction"}},

	{address.ErrAddressNotFound, apiError{http.StatusNotFound, "address_not_found"}},
	{address.ErrInvalidAddress, apiError{http.StatusBadRequest, "invalid_address"}},

	{fault.ErrCollaboratorUnavailable, apiError{http.StatusServiceUnavailable, "unavailable"}},
}

// classify maps err to its API status and reason.
func classify(err error) apiError {
	var badReq *badRequestError
	if errors.As(err, &badReq) {
		return apiError{http.StatusBadRequest, "bad_request"}
	}
	var pnf *order.ProductNotFoundError
	if errors.As(err, &pnf) {
		return apiError{http.StatusUnprocessableEntity, "product_not_found"}
	}
	for _, row := range errorTable {
		if errors.Is(err, row.err) {
			return row.apiError
		}
	}
	return apiError{http.StatusInternalServerError, "internal"}
}

// writeError maps a domain error to a JSON error response. Unexpected errors
// are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := classify(err)
	msg := err.Error()
	switch ae.Status {
	case http.StatusInternalServerError:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		msg = "internal server error"
	case http.StatusServiceUnavailable:
		zctx.From(r.Context()).Warn("Collaborator unavailable", zap.Error(err))
		msg = "service temporarily unavailable"
	}

	writeJSON(w, ae.Status, func(e *jx.Encoder) {
		e.ObjStart()
		encodeInt(e, "code", ae.Status)
		encodeStr(e, "reason", ae.Reason)
		encodeStr(e, "message", msg)
		e.ObjEnd()
	})
}
