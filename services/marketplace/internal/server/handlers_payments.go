package server

import (
	"net/http"
)

func (s *Server) handlePaymentKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.app.PaymentKey()
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

type paymentOrderRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func (s *Server) handleCreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	var req paymentOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := s.app.CreatePaymentOrder(r.Context(), req.Amount, req.Currency)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type paymentVerifyRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	linked, err := s.app.VerifyPayment(r.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		s.audit(r, "marketplace.payment.verify", "fail", "reason", err.Error())
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "marketplace.payment.verify", "success", "razorpay_order_id", req.OrderID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Payment verified successfully",
		"orderLinked": linked,
	})
}
