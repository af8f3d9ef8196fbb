package server

import (
	"errors"
	"net/http"

	"marketplace/internal/usertoken"
	"marketplace/services/marketplace/internal/app"
)

type productRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Currency    string   `json:"currency"`
	Images      []string `json:"images"`
}

func (req productRequest) input() app.ProductInput {
	return app.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Currency:    req.Currency,
		Images:      req.Images,
	}
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := s.app.ListProducts(r.Context(), q.Get("search"), q.Get("sortBy"), q.Get("order"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := s.app.GetProduct(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.app.CreateProduct(r.Context(), caller.UserID, req.input())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Product added successfully",
		"productId": p.ID,
	})
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request, _ usertoken.Identity) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.app.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": p,
	})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request, _ usertoken.Identity) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.app.DeleteProduct(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product deleted successfully")
}

func (s *Server) handleUploadProductImage(w http.ResponseWriter, r *http.Request, _ usertoken.Identity) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxImageBytes+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()
	p, err := s.app.UploadProductImage(r.Context(), id, header.Filename, header.Size, file)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (s *Server) handleAddReview(w http.ResponseWriter, r *http.Request, caller usertoken.Identity) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	review, err := s.app.AddReview(r.Context(), caller.UserID, productID, req.Rating, req.Comment)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Review submitted successfully",
		"reviewId": review.ID,
	})
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reviews, err := s.app.ListReviews(r.Context(), productID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
