package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/lumenis/storefront/internal/domain/cart"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Carts.Summary(r.Context(), r.PathValue("session"))
	h.writeSummary(w, r, sum, err)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Carts.Clear(r.Context(), r.PathValue("session")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var (
		productID string
		quantity  = 1
	)
	err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Str()
		case "quantity":
			quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err == nil {
		err = checkQuantity(quantity)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	sum, err := h.svc.Carts.AddItem(r.Context(), r.PathValue("session"), productID, quantity)
	h.writeSummary(w, r, sum, err)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var quantity int
	err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		var err error
		quantity, err = d.Int()
		return err
	})
	if err == nil {
		err = checkQuantity(quantity)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	sum, err := h.svc.Carts.UpdateQuantity(r.Context(), r.PathValue("session"), r.PathValue("productId"), quantity)
	h.writeSummary(w, r, sum, err)
}

// checkQuantity rejects quantities above the cart cap before they reach the
// service.
func checkQuantity(quantity int) error {
	if quantity > cart.MaxQuantity {
		return cart.ErrInvalidQuantity
	}
	return nil
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Carts.RemoveItem(r.Context(), r.PathValue("session"), r.PathValue("productId"))
	h.writeSummary(w, r, sum, err)
}

func (h *Handler) applyCartCoupon(w http.ResponseWriter, r *http.Request) {
	code, err := decodeCode(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := h.svc.Carts.ApplyCoupon(r.Context(), r.PathValue("session"), code)
	h.writeSummary(w, r, sum, err)
}

func (h *Handler) removeCartCoupon(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Carts.RemoveCoupon(r.Context(), r.PathValue("session"))
	h.writeSummary(w, r, sum, err)
}

func (h *Handler) writeSummary(w http.ResponseWriter, r *http.Request, sum *cart.Summary, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeSummary(e, sum)
	})
}

func encodeSummary(e *jx.Encoder, sum *cart.Summary) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range sum.Cart.Items {
		e.ObjStart()
		encodeStr(e, "productId", l.ProductID)
		encodeStr(e, "name", l.Name)
		encodeMoney(e, "unitPrice", l.UnitPrice)
		encodeInt(e, "quantity", l.Quantity)
		encodeMoney(e, "lineTotal", l.Total())
		e.ObjEnd()
	}
	e.ArrEnd()
	encodeInt(e, "quantity", sum.Cart.Quantity())
	switch {
	case sum.CouponErr != nil:
		encodeStr(e, "couponError", classify(sum.CouponErr).Reason)
	case sum.Cart.CouponCode != "":
		encodeStr(e, "couponCode", sum.Cart.CouponCode)
	}
	e.FieldStart("totals")
	e.ObjStart()
	encodeMoney(e, "subtotal", sum.Totals.Subtotal)
	encodeMoney(e, "shipping", sum.Totals.Shipping)
	encodeMoney(e, "discount", sum.Totals.Discount)
	encodeMoney(e, "total", sum.Totals.Total)
	e.ObjEnd()
	e.ObjEnd()
}

// decodeCode reads a {"code": "..."} request body.
func decodeCode(w http.ResponseWriter, r *http.Request) (string, error) {
	var code string
	err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		if key != "code" {
			return d.Skip()
		}
		var err error
		code, err = d.Str()
		return err
	})
	return code, err
}
