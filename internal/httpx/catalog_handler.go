package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

const (
	readTimeout  = 3 * time.Second
	writeTimeout = 5 * time.Second
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CatalogHandler struct {
	Service *catalog.Service
	DB      Pinger
	Log     *slog.Logger
	Version string
}

// Pointer fields tell "missing" apart from a zero value: an empty name or a
// zero price is accepted, an absent one is not.
type sizeReq struct {
	Size     *string `json:"size" validate:"required"`
	Quantity *int    `json:"quantity" validate:"required"`
}

type createProductReq struct {
	Name  *string   `json:"name" validate:"required"`
	Price *float64  `json:"price" validate:"required"`
	Sizes []sizeReq `json:"sizes" validate:"required,dive"`
}

type orderItemReq struct {
	ProductID *string `json:"productId" validate:"required"`
	Qty       *int    `json:"qty" validate:"required"`
}

type createOrderReq struct {
	UserID *string        `json:"userId" validate:"required"`
	Items  []orderItemReq `json:"items" validate:"required,dive"`
}

type createdResp struct {
	ID string `json:"id"`
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/", h.root)
	r.Get("/health", h.health)
	r.Post("/products", h.createProduct)
	r.Get("/products", h.listProducts)
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{userId}", h.listOrders)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *CatalogHandler) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

// writeError maps service errors onto status codes.
func (h *CatalogHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var missing *catalog.MissingProductsError
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "missing": missing.IDs})
	case errors.Is(err, catalog.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.logger().ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// decode reads a JSON body into dst and runs the struct validation tags.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json: %v", catalog.ErrValidation, err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				_, field, _ := strings.Cut(fe.Namespace(), ".")
				fields = append(fields, field+" is "+fe.Tag())
			}
			return fmt.Errorf("%w: %s", catalog.ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", catalog.ErrValidation, err)
	}
	return nil
}

// listParams reads limit and offset; absent values take the defaults.
func listParams(r *http.Request) (catalog.ListParams, error) {
	p := catalog.DefaultListParams()
	q := r.URL.Query()
	for _, f := range []struct {
		key string
		dst *int
	}{{"limit", &p.Limit}, {"offset", &p.Offset}} {
		raw := q.Get(f.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("%w: %s must be an integer", catalog.ErrValidation, f.key)
		}
		*f.dst = n
	}
	return p, nil
}

func (h *CatalogHandler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "E-commerce Products API",
		"version": h.Version,
		"endpoints": map[string]string{
			"create_product": "POST /products",
			"list_products":  "GET /products",
			"create_order":   "POST /orders",
			"list_orders":    "GET /orders/{user_id}",
			"health":         "GET /health",
		},
	})
}

func (h *CatalogHandler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "connected"})
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	in := catalog.NewProduct{Name: *req.Name, Price: *req.Price, Sizes: make([]catalog.Size, 0, len(req.Sizes))}
	for _, s := range req.Sizes {
		in.Sizes = append(in.Sizes, catalog.Size{Size: *s.Size, Quantity: *s.Quantity})
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()
	id, err := h.Service.CreateProduct(ctx, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResp{ID: id})
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()
	out, err := h.Service.ListProducts(ctx, q.Get("name"), q.Get("size"), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	in := catalog.NewOrder{UserID: *req.UserID, Items: make([]catalog.OrderItem, 0, len(req.Items))}
	for _, it := range req.Items {
		in.Items = append(in.Items, catalog.OrderItem{ProductID: *it.ProductID, Qty: *it.Qty})
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()
	id, err := h.Service.CreateOrder(ctx, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResp{ID: id})
}

func (h *CatalogHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	userID := chi.URLParam(r, "userId")

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()
	out, err := h.Service.ListOrders(ctx, userID, params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
