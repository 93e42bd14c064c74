package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rl1809/storefront-cart/internal/core/catalog"
	"github.com/rl1809/storefront-cart/internal/core/domain"
)

type wishlistRequest struct {
	Product catalog.RawProduct `json:"product"`
}

func (h *HTTPHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newWishlistView(storefront(r).Wishlist.Items()))
}

func (h *HTTPHandler) GetWishlistItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	writeJSON(w, http.StatusOK, map[string]any{
		"productId":  productID,
		"inWishlist": storefront(r).Wishlist.IsInWishlist(productID),
	})
}

func (h *HTTPHandler) AddWishlistItem(w http.ResponseWriter, r *http.Request) {
	entry, ok := decodeWishlistEntry(w, r)
	if !ok {
		return
	}

	sf := storefront(r)
	sf.Wishlist.AddItem(r.Context(), entry)
	writeJSON(w, http.StatusOK, newWishlistView(sf.Wishlist.Items()))
}

func (h *HTTPHandler) ToggleWishlistItem(w http.ResponseWriter, r *http.Request) {
	entry, ok := decodeWishlistEntry(w, r)
	if !ok {
		return
	}

	sf := storefront(r)
	saved := sf.Wishlist.Toggle(r.Context(), entry)
	writeJSON(w, http.StatusOK, map[string]any{
		"saved":    saved,
		"wishlist": newWishlistView(sf.Wishlist.Items()),
	})
}

func (h *HTTPHandler) RemoveWishlistItem(w http.ResponseWriter, r *http.Request) {
	sf := storefront(r)
	sf.Wishlist.RemoveItem(r.Context(), chi.URLParam(r, "productId"))
	writeJSON(w, http.StatusOK, newWishlistView(sf.Wishlist.Items()))
}

func decodeWishlistEntry(w http.ResponseWriter, r *http.Request) (domain.WishlistEntry, bool) {
	var req wishlistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return domain.WishlistEntry{}, false
	}

	product, err := catalog.Normalize(req.Product)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return domain.WishlistEntry{}, false
	}
	return product.WishlistEntry(), true
}
