package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/ariefcatur/go-catalog-api/internal/catalog")

// Service implements the catalog operations on top of the two stores.
// Events, Log, Now and NewID are optional.
type Service struct {
	Products ProductStore
	Orders   OrderStore
	Events   Publisher
	Log      *slog.Logger
	Name     string // producer name stamped on events
	Now      func() time.Time
	NewID    func() string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// CreateProduct stores a new product and returns its id. Only the shape of
// the input is checked by callers; empty names and zero prices are accepted.
func (s *Service) CreateProduct(ctx context.Context, in NewProduct) (id string, err error) {
	ctx, span := tracer.Start(ctx, "catalog.CreateProduct")
	defer func() { endSpan(span, err) }()

	now := s.now()
	sizes := make([]Size, len(in.Sizes))
	copy(sizes, in.Sizes)

	p := Product{
		ID:        s.newID(),
		Name:      in.Name,
		Price:     in.Price,
		Sizes:     sizes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Products.InsertProduct(ctx, p); err != nil {
		return "", StorageErr("error creating product", err)
	}
	span.SetAttributes(attribute.String("product.id", p.ID))

	s.publish(ctx, TopicProductCreated, EventProductCreated, p.ID, ProductCreatedPayload{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Sizes:     p.Sizes,
	})
	return p.ID, nil
}

// ListProducts filters by name pattern and exact size, in insertion order.
func (s *Service) ListProducts(ctx context.Context, name, size string, params ListParams) (out ProductList, err error) {
	ctx, span := tracer.Start(ctx, "catalog.ListProducts", trace.WithAttributes(
		attribute.String("filter.name", name),
		attribute.String("filter.size", size),
		attribute.Int("page.limit", params.Limit),
		attribute.Int("page.offset", params.Offset),
	))
	defer func() { endSpan(span, err) }()

	if err := params.Validate(); err != nil {
		return ProductList{}, err
	}
	f := ProductFilter{NamePattern: NamePattern(name), Size: size}

	total, err := s.Products.CountProducts(ctx, f)
	if err != nil {
		return ProductList{}, StorageErr("error listing products", err)
	}
	products, err := s.Products.FindProducts(ctx, f, params.Offset, params.Limit)
	if err != nil {
		return ProductList{}, StorageErr("error listing products", err)
	}

	data := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		data = append(data, ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price})
	}
	return ProductList{Data: data, Page: NewPage(params, len(data), total)}, nil
}

// CreateOrder checks that every referenced product exists, prices the items
// with the current product prices and stores the order. The check and the
// insert are not atomic; nothing is mutated before the insert.
func (s *Service) CreateOrder(ctx context.Context, in NewOrder) (id string, err error) {
	ctx, span := tracer.Start(ctx, "catalog.CreateOrder", trace.WithAttributes(
		attribute.String("order.user_id", in.UserID),
		attribute.Int("order.items", len(in.Items)),
	))
	defer func() { endSpan(span, err) }()

	ids := distinctProductIDs(in.Items)
	byID := map[string]Product{}
	if len(ids) > 0 {
		found, err := s.Products.FindProductsByIDs(ctx, ids)
		if err != nil {
			return "", StorageErr("error creating order", err)
		}
		for _, p := range found {
			byID[p.ID] = p
		}
	}
	if len(byID) < len(ids) {
		var missing []string
		for _, pid := range ids {
			if _, ok := byID[pid]; !ok {
				missing = append(missing, pid)
			}
		}
		return "", &MissingProductsError{IDs: missing}
	}

	total := decimal.Zero
	priced := make([]ItemPrice, 0, len(in.Items))
	for _, it := range in.Items {
		price := byID[it.ProductID].Price
		total = total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(it.Qty))))
		priced = append(priced, ItemPrice{ProductID: it.ProductID, Qty: it.Qty, Price: price})
	}

	now := s.now()
	items := make([]OrderItem, len(in.Items))
	copy(items, in.Items)
	o := Order{
		ID:        s.newID(),
		UserID:    in.UserID,
		Items:     items,
		Total:     total.InexactFloat64(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Orders.InsertOrder(ctx, o); err != nil {
		return "", StorageErr("error creating order", err)
	}
	span.SetAttributes(attribute.String("order.id", o.ID))

	s.publish(ctx, TopicOrderCreated, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID: o.ID,
		UserID:  o.UserID,
		Items:   priced,
		Total:   o.Total,
	})
	return o.ID, nil
}

// ListOrders pages through a user's orders and attaches product name and id
// to every item. Items whose product is gone are dropped from the response.
func (s *Service) ListOrders(ctx context.Context, userID string, params ListParams) (out OrderList, err error) {
	ctx, span := tracer.Start(ctx, "catalog.ListOrders", trace.WithAttributes(
		attribute.String("order.user_id", userID),
		attribute.Int("page.limit", params.Limit),
		attribute.Int("page.offset", params.Offset),
	))
	defer func() { endSpan(span, err) }()

	if err := params.Validate(); err != nil {
		return OrderList{}, err
	}

	total, err := s.Orders.CountOrdersByUser(ctx, userID)
	if err != nil {
		return OrderList{}, StorageErr("error listing orders", err)
	}
	orders, err := s.Orders.FindOrdersByUser(ctx, userID, params.Offset, params.Limit)
	if err != nil {
		return OrderList{}, StorageErr("error listing orders", err)
	}

	var ids []string
	for _, o := range orders {
		ids = append(ids, distinctProductIDs(o.Items)...)
	}
	ids = dedup(ids)

	byID := map[string]Product{}
	if len(ids) > 0 {
		found, err := s.Products.FindProductsByIDs(ctx, ids)
		if err != nil {
			return OrderList{}, StorageErr("error listing orders", err)
		}
		for _, p := range found {
			byID[p.ID] = p
		}
	}

	data := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		lines := make([]OrderLine, 0, len(o.Items))
		for _, it := range o.Items {
			p, ok := byID[it.ProductID]
			if !ok {
				s.logger().DebugContext(ctx, "order item references unknown product",
					slog.String("order_id", o.ID), slog.String("product_id", it.ProductID))
				continue
			}
			lines = append(lines, OrderLine{
				ProductDetails: ProductDetails{Name: p.Name, ID: p.ID},
				Qty:            it.Qty,
			})
		}
		data = append(data, OrderSummary{ID: o.ID, Items: lines, Total: o.Total})
	}
	return OrderList{Data: data, Page: NewPage(params, len(data), total)}, nil
}

// publish is best effort: the document is already stored, so a broker
// failure is logged and the request still succeeds.
func (s *Service) publish(ctx context.Context, topic, eventType, key string, payload any) {
	if s.Events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger().ErrorContext(ctx, "encode event payload", slog.String("event_type", eventType), slog.Any("err", err))
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    s.now(),
		Producer:      s.Name,
		CorrelationID: key,
		Payload:       body,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		ev.TraceID = sc.TraceID().String()
	}
	if err := s.Events.Publish(ctx, topic, PartitionKey(key), ev); err != nil {
		s.logger().WarnContext(ctx, "event publish failed",
			slog.String("topic", topic), slog.String("key", key), slog.Any("err", err))
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// distinctProductIDs keeps first-occurrence order.
func distinctProductIDs(items []OrderItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return dedup(ids)
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
