package handler

import (
	"net/http"

	"github.com/rl1809/storefront-cart/internal/core/catalog"
	"github.com/rl1809/storefront-cart/internal/core/domain"
)

type addCartItemRequest struct {
	Product  catalog.RawProduct `json:"product"`
	Size     string             `json:"size"`
	Firmness string             `json:"firmness"`
	Quantity quantityField      `json:"quantity"`
}

type updateCartItemRequest struct {
	ProductID string        `json:"productId"`
	Size      string        `json:"size"`
	Firmness  string        `json:"firmness"`
	Quantity  quantityField `json:"quantity"`
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, storefrontCartView(storefront(r)))
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := catalog.Normalize(req.Product)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	in, err := product.LineItemInput(req.Size, req.Firmness)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sf := storefront(r)
	sf.Cart.AddItem(r.Context(), in, req.Quantity.Int())
	writeJSON(w, http.StatusOK, storefrontCartView(sf))
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := domain.ValidateProductID(req.ProductID); err != nil {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	sf := storefront(r)
	sf.Cart.UpdateQuantity(r.Context(), req.ProductID, req.Size, req.Firmness, req.Quantity.Int())
	writeJSON(w, http.StatusOK, storefrontCartView(sf))
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := q.Get("productId")
	if err := domain.ValidateProductID(productID); err != nil {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	sf := storefront(r)
	sf.Cart.RemoveItem(r.Context(), productID, q.Get("size"), q.Get("firmness"))
	writeJSON(w, http.StatusOK, storefrontCartView(sf))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sf := storefront(r)
	sf.Cart.ClearCart(r.Context())
	writeJSON(w, http.StatusOK, storefrontCartView(sf))
}
