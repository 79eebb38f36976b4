package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/lumenis/storefront/internal/domain/coupon"
)

func (h *Handler) validateCoupon(w http.ResponseWriter, r *http.Request) {
	code, err := decodeCode(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.svc.Coupons.Validate(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		encodeStr(e, "code", coupon.Canonical(code))
		encodeStr(e, "kind", string(d.Kind))
		encodeMoney(e, "value", d.Value)
		e.ObjEnd()
	})
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Admin.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range list {
			encodeCoupon(e, c)
		}
		e.ArrEnd()
	})
}

func (h *Handler) getCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Admin.Get(r.Context(), r.PathValue("code"))
	h.writeCoupon(w, r, http.StatusOK, c, err)
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCoupon(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Admin.Create(r.Context(), in)
	h.writeCoupon(w, r, http.StatusCreated, c, err)
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCoupon(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Admin.Update(r.Context(), r.PathValue("code"), in)
	h.writeCoupon(w, r, http.StatusOK, c, err)
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Admin.Delete(r.Context(), r.PathValue("code")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeCoupon(w http.ResponseWriter, r *http.Request, status int, c *coupon.Coupon, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, func(e *jx.Encoder) {
		encodeCoupon(e, *c)
	})
}

// decodeCoupon reads a coupon definition. Coupons are active unless the
// body says otherwise.
func decodeCoupon(w http.ResponseWriter, r *http.Request) (coupon.Coupon, error) {
	c := coupon.Coupon{Active: true}
	err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			c.Code, err = d.Str()
		case "kind":
			var kind string
			kind, err = d.Str()
			c.Kind = coupon.Kind(kind)
		case "value":
			c.Value, err = decodeDecimal(d)
		case "commission":
			c.Commission, err = decodeDecimal(d)
		case "active":
			c.Active, err = d.Bool()
		case "expiresAt":
			c.ExpiresAt, err = decodeTime(d)
		case "usageLimit":
			c.UsageLimit, err = decodeOptInt(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return c, err
}

func encodeCoupon(e *jx.Encoder, c coupon.Coupon) {
	e.ObjStart()
	encodeStr(e, "code", c.Code)
	encodeStr(e, "kind", string(c.Kind))
	encodeMoney(e, "value", c.Value)
	encodeMoney(e, "commission", c.Commission)
	encodeBool(e, "active", c.Active)
	encodeTime(e, "expiresAt", c.ExpiresAt)
	encodeInt(e, "usageCount", c.UsageCount)
	e.FieldStart("usageLimit")
	if c.UsageLimit != nil {
		e.Int(*c.UsageLimit)
	} else {
		e.Null()
	}
	encodeTime(e, "createdAt", c.CreatedAt)
	encodeTime(e, "updatedAt", c.UpdatedAt)
	e.ObjEnd()
}
