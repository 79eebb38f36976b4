package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/lumenis/storefront/internal/domain/order"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req order.PlaceOrderRequest
	err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "sessionId":
			req.SessionID, err = d.Str()
		case "ownerId":
			req.OwnerID, err = d.Str()
		case "addressId":
			req.AddressID, err = d.Str()
		case "paymentMethod":
			req.PaymentMethod, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.svc.Orders.PlaceOrder(r.Context(), req)
	writeOrder(w, r, http.StatusCreated, o, err)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.Get(r.Context(), r.PathValue("id"))
	writeOrder(w, r, http.StatusOK, o, err)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Orders.ListByOwner(r.Context(), r.PathValue("owner"))
	writeOrders(w, r, list, err)
}

// listAllOrders serves the back-office view of every order.
func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	status := order.Status(r.URL.Query().Get("status"))
	list, err := h.svc.Orders.List(r.Context(), status)
	writeOrders(w, r, list, err)
}

func writeOrders(w http.ResponseWriter, r *http.Request, list []order.Order, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range list {
			encodeOrder(e, &list[i])
		}
		e.ArrEnd()
	})
}

func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request) {
	var (
		status string
		note   string
	)
	err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "status":
			status, err = d.Str()
		case "note":
			note, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.svc.Orders.Transition(r.Context(), r.PathValue("id"), order.Status(status), note)
	writeOrder(w, r, http.StatusOK, o, err)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	note, err := decodeNote(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.svc.Orders.Cancel(r.Context(), r.PathValue("id"), note)
	writeOrder(w, r, http.StatusOK, o, err)
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var txID string
	err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		if key != "transactionId" {
			return d.Skip()
		}
		var err error
		txID, err = d.Str()
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.svc.Payments.Confirm(r.Context(), r.PathValue("id"), txID)
	writeOrder(w, r, http.StatusOK, o, err)
}

func decodeNote(w http.ResponseWriter, r *http.Request) (string, error) {
	var note string
	err := decodeObject(w, r, true, func(d *jx.Decoder, key string) error {
		if key != "note" {
			return d.Skip()
		}
		var err error
		note, err = d.Str()
		return err
	})
	return note, err
}

func writeOrder(w http.ResponseWriter, r *http.Request, status int, o *order.Order, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	encodeStr(e, "id", o.ID)
	encodeStr(e, "ownerId", o.OwnerID)

	e.FieldStart("items")
	e.ArrStart()
	for _, l := range o.Items {
		e.ObjStart()
		encodeStr(e, "productId", l.ProductID)
		encodeStr(e, "name", l.Name)
		encodeMoney(e, "unitPrice", l.UnitPrice)
		encodeInt(e, "quantity", l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("shippingAddress")
	encodeAddress(e, o.ShippingAddress)

	encodeStr(e, "paymentMethod", o.PaymentMethod)
	encodeStr(e, "paymentStatus", string(o.PaymentStatus))
	if o.TransactionID != "" {
		encodeStr(e, "transactionId", o.TransactionID)
	}
	if o.CouponCode != "" {
		encodeStr(e, "couponCode", o.CouponCode)
	}
	encodeMoney(e, "subtotal", o.Subtotal)
	encodeMoney(e, "shippingCost", o.ShippingCost)
	encodeMoney(e, "discount", o.Discount)
	encodeMoney(e, "total", o.Total)
	encodeStr(e, "status", string(o.Status))

	e.FieldStart("history")
	e.ArrStart()
	for _, h := range o.History {
		e.ObjStart()
		encodeStr(e, "status", string(h.Status))
		if h.Note != "" {
			encodeStr(e, "note", h.Note)
		}
		encodeTime(e, "at", h.At)
		e.ObjEnd()
	}
	e.ArrEnd()

	encodeOptTime(e, "approvedAt", o.ApprovedAt)
	encodeOptTime(e, "preparingAt", o.PreparingAt)
	encodeOptTime(e, "shippedAt", o.ShippedAt)
	encodeOptTime(e, "deliveredAt", o.DeliveredAt)
	encodeOptTime(e, "cancelledAt", o.CancelledAt)
	encodeTime(e, "createdAt", o.CreatedAt)
	encodeTime(e, "updatedAt", o.UpdatedAt)
	encodeInt(e, "version", o.Version)
	e.ObjEnd()
}
