package server

import (
	"net/http"

	"marketplace/internal/usertoken"
	"marketplace/services/marketplace/internal/app"
)

type cartRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	var req cartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := s.app.AddToCart(r.Context(), caller.UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if created {
		writeMessage(w, http.StatusCreated, "Item added to cart successfully")
		return
	}
	writeMessage(w, http.StatusOK, "Cart item quantity updated successfully")
}

func (s *Server) handleListCart(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	lines, err := s.app.ListCart(r.Context(), caller.UserID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	itemID, ok := pathID(w, r, "itemId")
	if !ok {
		return
	}
	if err := s.app.RemoveCartItem(r.Context(), caller.UserID, itemID); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Item removed from cart successfully")
}

type checkoutRequest struct {
	TotalAmount     float64 `json:"totalAmount"`
	RazorpayOrderID string  `json:"razorpayOrderId"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	orderID, err := s.app.Checkout(r.Context(), app.CheckoutRequest{
		UserID:          caller.UserID,
		TotalAmount:     req.TotalAmount,
		RazorpayOrderID: req.RazorpayOrderID,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Checkout successful",
		"orderId": orderID,
	})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	orders, err := s.app.ListOrders(r.Context(), caller.UserID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
