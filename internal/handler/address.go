package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/lumenis/storefront/internal/domain/address"
)

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Addresses.List(r.Context(), r.PathValue("owner"))
	writeAddresses(w, r, list, err)
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	in, err := decodeAddress(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.svc.Addresses.Add(r.Context(), r.PathValue("owner"), in)
	writeAddress(w, r, http.StatusCreated, a, err)
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	in, err := decodeAddress(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = r.PathValue("id")
	a, err := h.svc.Addresses.Update(r.Context(), r.PathValue("owner"), in)
	writeAddress(w, r, http.StatusOK, a, err)
}

func (h *Handler) removeAddress(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Addresses.Remove(r.Context(), r.PathValue("owner"), r.PathValue("id"))
	writeAddresses(w, r, list, err)
}

func (h *Handler) setMainAddress(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Addresses.SetMain(r.Context(), r.PathValue("owner"), r.PathValue("id"))
	writeAddresses(w, r, list, err)
}

func decodeAddress(w http.ResponseWriter, r *http.Request) (address.Address, error) {
	var a address.Address
	err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "street":
			a.Street, err = d.Str()
		case "number":
			a.Number, err = d.Str()
		case "complement":
			a.Complement, err = d.Str()
		case "neighborhood":
			a.Neighborhood, err = d.Str()
		case "city":
			a.City, err = d.Str()
		case "state":
			a.State, err = d.Str()
		case "zipCode":
			a.ZipCode, err = d.Str()
		case "isMain":
			a.IsMain, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	return a, err
}

func writeAddress(w http.ResponseWriter, r *http.Request, status int, a *address.Address, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, func(e *jx.Encoder) {
		encodeAddress(e, *a)
	})
}

func writeAddresses(w http.ResponseWriter, r *http.Request, list []address.Address, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, a := range list {
			encodeAddress(e, a)
		}
		e.ArrEnd()
	})
}

func encodeAddress(e *jx.Encoder, a address.Address) {
	e.ObjStart()
	encodeStr(e, "id", a.ID)
	encodeStr(e, "street", a.Street)
	encodeStr(e, "number", a.Number)
	if a.Complement != "" {
		encodeStr(e, "complement", a.Complement)
	}
	encodeStr(e, "neighborhood", a.Neighborhood)
	encodeStr(e, "city", a.City)
	encodeStr(e, "state", a.State)
	encodeStr(e, "zipCode", a.ZipCode)
	encodeBool(e, "isMain", a.IsMain)
	e.ObjEnd()
}
