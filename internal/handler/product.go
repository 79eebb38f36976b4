package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/jx"

	"github.com/lumenis/storefront/internal/domain/product"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	category := r.URL.Query().Get("category")
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, p := range products {
			if !p.Active || (category != "" && p.Category != category) {
				continue
			}
			h.encodeProduct(e, p)
		}
		e.ArrEnd()
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProduct(e, *p)
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	p := product.Product{Active: true}
	err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "price":
			p.Price, err = decodeDecimal(d)
		case "category":
			p.Category, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "imageUrl":
			p.ImageURL, err = d.Str()
		case "active":
			p.Active, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.svc.Catalog.Create(r.Context(), p)
	h.writeProduct(w, r, http.StatusCreated, created, err)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var changes product.Changes
	err := decodeObject(w, r, false, func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			return decodeInto(d, &changes.Name, (*jx.Decoder).Str)
		case "price":
			return decodeInto(d, &changes.Price, decodeDecimal)
		case "category":
			return decodeInto(d, &changes.Category, (*jx.Decoder).Str)
		case "description":
			return decodeInto(d, &changes.Description, (*jx.Decoder).Str)
		case "imageUrl":
			return decodeInto(d, &changes.ImageURL, (*jx.Decoder).Str)
		case "active":
			return decodeInto(d, &changes.Active, (*jx.Decoder).Bool)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.svc.Catalog.Update(r.Context(), r.PathValue("id"), changes)
	h.writeProduct(w, r, http.StatusOK, p, err)
}

func (h *Handler) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Catalog.Deactivate(r.Context(), r.PathValue("id"))
	h.writeProduct(w, r, http.StatusOK, p, err)
}

func (h *Handler) writeProduct(w http.ResponseWriter, r *http.Request, status int, p *product.Product, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, func(e *jx.Encoder) {
		h.encodeProduct(e, *p)
	})
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	encodeStr(e, "id", p.ID)
	encodeStr(e, "name", p.Name)
	encodeMoney(e, "price", p.Price)
	encodeStr(e, "category", p.Category)
	encodeStr(e, "description", p.Description)
	encodeStr(e, "imageUrl", h.imageURL(p.ImageURL))
	encodeBool(e, "active", p.Active)
	e.ObjEnd()
}

// imageURL prepends the configured base URL to relative image paths.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
