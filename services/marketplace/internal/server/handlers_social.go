package server

import (
	"net/http"

	"marketplace/internal/usertoken"
)

type wishlistRequest struct {
	ProductID int64 `json:"productId"`
}

func (s *Server) handleAddToWishlist(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	var req wishlistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.AddToWishlist(r.Context(), caller.UserID, req.ProductID); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "Product added to wishlist")
}

func (s *Server) handleListWishlist(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	products, err := s.app.ListWishlist(r.Context(), caller, userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleRemoveFromWishlist(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	if err := s.app.RemoveFromWishlist(r.Context(), caller, userID, productID); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product removed from wishlist")
}

type notificationRequest struct {
	UserID  int64  `json:"userId"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	var req notificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := s.app.CreateNotification(r.Context(), caller, req.UserID, req.Message, req.Type)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        "Notification added successfully",
		"notificationId": n.ID,
	})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	notifications, err := s.app.ListNotifications(r.Context(), caller, userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.app.MarkNotificationRead(r.Context(), caller, id); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Notification marked as read")
}

type ratingRequest struct {
	RateeID int64  `json:"rateeId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (s *Server) handleRateUser(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	var req ratingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := s.app.RateUser(r.Context(), caller.UserID, req.RateeID, req.Rating, req.Comment); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User rating submitted successfully")
}

func (s *Server) handleRatingSummary(w http.ResponseWriter, r *http.Request, _ usertoken.Identity) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	summary, err := s.app.RatingSummary(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type reportRequest struct {
	ReportedUserID    *int64 `json:"reportedUserId"`
	ReportedProductID *int64 `json:"reportedProductId"`
	Reason            string `json:"reason"`
}

func (s *Server) handleFileReport(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	var req reportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := s.app.FileReport(r.Context(), caller.UserID, req.ReportedUserID, req.ReportedProductID, req.Reason)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Report submitted successfully",
		"reportId": report.ID,
	})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request, _ usertoken.Identity) {
	reports, err := s.app.ListReports(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

type reportStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateReportStatus(w http.ResponseWriter, r *http.Request, _ usertoken.Identity) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reportStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.UpdateReportStatus(r.Context(), id, req.Status); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Report status updated successfully")
}

type messageRequest struct {
	ReceiverID int64  `json:"receiverId"`
	ProductID  *int64 `json:"productId"`
	Message    string `json:"message"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := s.app.SendMessage(r.Context(), caller.UserID, req.ReceiverID, req.ProductID, req.Message)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Message sent successfully",
		"messageId": msg.ID,
	})
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	userA, ok := pathID(w, r, "user1Id")
	if !ok {
		return
	}
	userB, ok := pathID(w, r, "user2Id")
	if !ok {
		return
	}
	msgs, err := s.app.Conversation(r.Context(), caller, userA, userB)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
