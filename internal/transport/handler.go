package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"ridemods-be/internal/cart"
	"ridemods-be/internal/checkout"
	"ridemods-be/internal/logger"
	"ridemods-be/internal/metrics"
	"ridemods-be/internal/middleware"
	"ridemods-be/internal/order"
	"ridemods-be/internal/pricing"
	"ridemods-be/internal/promotion"
	"ridemods-be/internal/utils"
	"ridemods-be/internal/wallet"

	"go.uber.org/zap"
)

// Handler wires the domain services onto the HTTP mux. Parsing and
// status-code mapping live here; every decision with an invariant
// behind it lives in the services.
type Handler struct {
	Carts      cart.Service
	Checkout   checkout.Service
	Orders     order.Service
	Wallets    wallet.Service
	Promotions promotion.Service
	Metrics    *metrics.Checkout
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/cart", middleware.RequireUser(http.HandlerFunc(h.getCart)))
	mux.Handle("POST /api/cart/items", middleware.RequireUser(http.HandlerFunc(h.addCartItem)))
	mux.Handle("PATCH /api/cart/items", middleware.RequireUser(http.HandlerFunc(h.updateCartItem)))
	mux.Handle("DELETE /api/cart/items", middleware.RequireUser(http.HandlerFunc(h.removeCartItem)))
	mux.Handle("POST /api/cart/coupon", middleware.RequireUser(http.HandlerFunc(h.applyCoupon)))
	mux.Handle("DELETE /api/cart/coupon", middleware.RequireUser(http.HandlerFunc(h.removeCoupon)))

	mux.Handle("POST /api/checkout", middleware.RequireUser(http.HandlerFunc(h.placeOrder)))

	mux.Handle("GET /api/orders", middleware.RequireUser(http.HandlerFunc(h.listOrders)))
	mux.Handle("GET /api/orders/{id}", middleware.RequireUser(http.HandlerFunc(h.getOrder)))
	mux.Handle("PATCH /api/orders/{id}/status", middleware.RequireUser(http.HandlerFunc(h.updateOrderStatus)))

	mux.Handle("GET /api/wallet", middleware.RequireUser(http.HandlerFunc(h.getWallet)))
	mux.Handle("GET /api/wallet/transactions", middleware.RequireUser(http.HandlerFunc(h.walletHistory)))

	mux.Handle("POST /api/admin/wallet/credit", middleware.RequireAdmin(http.HandlerFunc(h.creditWallet)))
	mux.Handle("POST /api/admin/coupons", middleware.RequireAdmin(http.HandlerFunc(h.createCoupon)))
	mux.Handle("POST /api/admin/offers", middleware.RequireAdmin(http.HandlerFunc(h.createOffer)))
	mux.Handle("GET /api/admin/metrics", middleware.RequireAdmin(http.HandlerFunc(h.metricsSnapshot)))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed", zap.Error(err))
	}

	if partial := partialCommit(err); partial != nil {
		// Degraded mode left writes behind; the operator needs the list.
		utils.WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"error":           "checkout failed after partial writes",
			"completed_steps": partial.Completed,
		})
		return
	}

	utils.WriteJSONError(w, err.Error(), status)
}

func decode(r *http.Request, dest any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	view, err := h.Carts.GetCart(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

type cartItemRequest struct {
	ProductID uint   `json:"product_id"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req cartItemRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	view, err := h.Carts.AddItem(r.Context(), cart.AddItemParams{
		UserID:    userID,
		ProductID: req.ProductID,
		Variant:   req.Variant,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req cartItemRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	view, err := h.Carts.UpdateQuantity(r.Context(), cart.UpdateItemParams{
		UserID:    userID,
		ProductID: req.ProductID,
		Variant:   req.Variant,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req cartItemRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	view, err := h.Carts.RemoveItem(r.Context(), cart.RemoveItemParams{
		UserID:    userID,
		ProductID: req.ProductID,
		Variant:   req.Variant,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	view, err := h.Carts.ApplyCoupon(r.Context(), userID, req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	if err := h.Carts.RemoveCoupon(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type placeOrderRequest struct {
	AddressID     string  `json:"address_id"`
	PaymentMethod string  `json:"payment_method"`
	CouponCode    *string `json:"coupon_code,omitempty"`
	ContactName   string  `json:"contact_name"`
	ContactEmail  string  `json:"contact_email"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req placeOrderRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.Checkout.PlaceOrder(r.Context(), checkout.PlaceOrderInput{
		UserID:        userID,
		AddressID:     req.AddressID,
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		CouponCode:    req.CouponCode,
		ContactName:   req.ContactName,
		ContactEmail:  req.ContactEmail,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter order.OrderFilterInput
	if s := q.Get("status"); s != "" {
		status := order.OrderStatus(s)
		filter.Status = &status
	}
	if s := q.Get("search"); s != "" {
		filter.Search = &s
	}

	var sort *order.OrderSortInput
	if field := q.Get("sort"); field != "" {
		sort = &order.OrderSortInput{
			Field:     order.OrderSortField(field),
			Direction: order.SortDirection(q.Get("dir")),
		}
	}

	page, _ := utils.ToUint(q.Get("page"))
	size, _ := utils.ToUint(q.Get("size"))

	orders, err := h.Orders.ListOrders(r.Context(), &filter, sort, int(page), int(size))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ToUint(r.PathValue("id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.Orders.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ToUint(r.PathValue("id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status  string  `json:"status"`
		Comment *string `json:"comment,omitempty"`
	}
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.Orders.UpdateStatus(r.Context(), id, order.OrderStatus(req.Status), req.Comment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) getWallet(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	wal, err := h.Wallets.GetOrCreate(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, wal)
}

func (h *Handler) walletHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	q := r.URL.Query()

	page, _ := utils.ToUint(q.Get("page"))
	size, _ := utils.ToUint(q.Get("size"))
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = 20
	}

	entries, err := h.Wallets.History(r.Context(), userID, int(page), int(size))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"transactions": entries})
}

func (h *Handler) creditWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      uint    `json:"user_id"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
	}
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.Wallets.Credit(r.Context(), req.UserID, req.Amount, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, entry)
}

type createCouponRequest struct {
	Code        string   `json:"code"`
	Type        string   `json:"type"`
	Value       float64  `json:"value"`
	MinOrder    float64  `json:"min_order"`
	MaxDiscount *float64 `json:"max_discount,omitempty"`
	UsageLimit  *int     `json:"usage_limit,omitempty"`
	ExpiresAt   string   `json:"expires_at"`
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		utils.WriteJSONError(w, "expires_at must be RFC 3339", http.StatusBadRequest)
		return
	}

	coupon, err := h.Promotions.CreateCoupon(r.Context(), promotion.Coupon{
		Code:        req.Code,
		Type:        pricing.DiscountType(req.Type),
		Value:       req.Value,
		MinOrder:    req.MinOrder,
		MaxDiscount: req.MaxDiscount,
		UsageLimit:  req.UsageLimit,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, coupon)
}

type createOfferRequest struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Value    float64 `json:"value"`
	Scope    string  `json:"scope"`
	Category *string `json:"category,omitempty"`
	StartsAt string  `json:"starts_at"`
	EndsAt   string  `json:"ends_at"`
}

func (h *Handler) createOffer(w http.ResponseWriter, r *http.Request) {
	var req createOfferRequest
	if err := decode(r, &req); err != nil {
		utils.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		utils.WriteJSONError(w, "starts_at must be RFC 3339", http.StatusBadRequest)
		return
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		utils.WriteJSONError(w, "ends_at must be RFC 3339", http.StatusBadRequest)
		return
	}

	offer, err := h.Promotions.CreateOffer(r.Context(), promotion.Offer{
		Name:     req.Name,
		Type:     pricing.DiscountType(req.Type),
		Value:    req.Value,
		Scope:    req.Scope,
		Category: req.Category,
		StartsAt: startsAt,
		EndsAt:   endsAt,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, offer)
}

func (h *Handler) metricsSnapshot(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.Metrics.Snapshot())
}
