package app

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"marketplace/internal/util"
	"marketplace/pkg/domain"
	"marketplace/pkg/store"
)

// ProductInput carries create/update fields. Nil Price or Stock means missing.
type ProductInput struct {
	Name        string
	Description string
	Price       *float64
	Stock       *int
	Currency    string
	Images      []string
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || in.Price == nil || in.Stock == nil {
		return invalid("name, price and stock are required")
	}
	if *in.Price < 0 || math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0) {
		return invalid("price must be a non-negative number")
	}
	if *in.Stock < 0 {
		return invalid("stock must be non-negative")
	}
	return nil
}

func (in ProductInput) toProduct() domain.Product {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}
	return domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       *in.Price,
		Stock:       *in.Stock,
		Currency:    currency,
		Images:      images,
	}
}

// ListProducts filters by search text and orders by sortBy (name, price, stock, created_at).
func (a *App) ListProducts(ctx context.Context, search, sortBy, order string) ([]domain.Product, error) {
	q := store.ProductQuery{Search: search}
	switch sortBy = strings.TrimSpace(sortBy); sortBy {
	case "":
	case string(store.SortByName), string(store.SortByPrice), string(store.SortByStock), string(store.SortByCreatedAt):
		q.SortBy = store.ProductSort(sortBy)
	default:
		return nil, invalid("invalid sortBy: must be one of name, price, stock, created_at")
	}
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "asc":
	case "desc":
		q.Desc = true
	default:
		return nil, invalid("invalid order: must be asc or desc")
	}
	products, err := a.store.ListProducts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (a *App) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	p, ok, err := a.store.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("fetch product: %w", err)
	}
	if !ok {
		return domain.Product{}, notFound("product")
	}
	return p, nil
}

// CreateProduct stores a product listed by sellerID.
func (a *App) CreateProduct(ctx context.Context, sellerID int64, in ProductInput) (domain.Product, error) {
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}
	p := in.toProduct()
	p.SellerID = &sellerID
	p.CreatedAt = a.now().UTC()
	created, err := a.store.CreateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// UpdateProduct replaces the editable fields of a product.
func (a *App) UpdateProduct(ctx context.Context, id int64, in ProductInput) (domain.Product, error) {
	if err := in.validate(); err != nil {
		return domain.Product{}, err
	}
	p := in.toProduct()
	p.ID = id
	found, err := a.store.UpdateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	if !found {
		return domain.Product{}, notFound("product")
	}
	return a.GetProduct(ctx, id)
}

func (a *App) DeleteProduct(ctx context.Context, id int64) error {
	found, err := a.store.DeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if !found {
		return notFound("product")
	}
	return nil
}

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// MaxImageBytes caps a single product image upload.
const MaxImageBytes int64 = 5 << 20

// UploadProductImage stores an image and appends its URL to the product.
func (a *App) UploadProductImage(ctx context.Context, id int64, filename string, size int64, r io.Reader) (domain.Product, error) {
	if a.images == nil {
		return domain.Product{}, ErrImagesDisabled
	}
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := imageContentTypes[ext]
	if !ok {
		return domain.Product{}, invalid("unsupported image type %q", ext)
	}
	if size <= 0 || size > MaxImageBytes {
		return domain.Product{}, invalid("image must be between 1 byte and %d bytes", MaxImageBytes)
	}
	if _, err := a.GetProduct(ctx, id); err != nil {
		return domain.Product{}, err
	}
	key := fmt.Sprintf("products/%d/%s%s", id, util.NewID(), ext)
	if err := a.images.Put(ctx, key, r, size, contentType); err != nil {
		return domain.Product{}, fmt.Errorf("upload image: %w", err)
	}
	p, found, err := a.store.AppendProductImage(ctx, id, a.images.URL(key))
	if err == nil && !found {
		err = notFound("product")
	}
	if err != nil {
		if delErr := a.images.Delete(ctx, key); delErr != nil {
			util.LoggerFromContext(ctx).Warn("orphaned product image", "key", key, "err", delErr)
		}
		if KindOf(err) == KindNotFound {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("attach image: %w", err)
	}
	return p, nil
}
