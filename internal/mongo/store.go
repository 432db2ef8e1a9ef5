package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

var ErrDuplicateID = errors.New("document id already exists")

// Store keeps products and orders in two collections. Documents are sorted
// by the driver assigned _id, which grows with insertion time.
type Store struct {
	client   *mongo.Client
	products *mongo.Collection
	orders   *mongo.Collection
}

// Connect dials the server and pings the primary so a bad URL fails at
// startup.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return New(client, database), nil
}

func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:   client,
		products: db.Collection("products"),
		orders:   db.Collection("orders"),
	}
}

// EnsureIndexes creates the lookup indexes used by the queries below.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.products.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sizes.size", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("products indexes: %w", err)
	}
	if _, err := s.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("orders indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) InsertProduct(ctx context.Context, p catalog.Product) error {
	return insert(ctx, s.products, p.ID, p)
}

func (s *Store) InsertOrder(ctx context.Context, o catalog.Order) error {
	return insert(ctx, s.orders, o.ID, o)
}

func insert(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateID, coll.Name(), id)
		}
		return err
	}
	return nil
}

func (s *Store) CountProducts(ctx context.Context, f catalog.ProductFilter) (int, error) {
	n, err := s.products.CountDocuments(ctx, productFilter(f))
	return int(n), err
}

func (s *Store) FindProducts(ctx context.Context, f catalog.ProductFilter, offset, limit int) ([]catalog.Product, error) {
	var out []catalog.Product
	err := find(ctx, s.products, productFilter(f), page(offset, limit), &out)
	return out, err
}

func (s *Store) FindProductsByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	filter := bson.D{{Key: "id", Value: bson.D{{Key: "$in", Value: ids}}}}
	err := find(ctx, s.products, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}), &out)
	return out, err
}

func (s *Store) CountOrdersByUser(ctx context.Context, userID string) (int, error) {
	n, err := s.orders.CountDocuments(ctx, bson.D{{Key: "userId", Value: userID}})
	return int(n), err
}

func (s *Store) FindOrdersByUser(ctx context.Context, userID string, offset, limit int) ([]catalog.Order, error) {
	var out []catalog.Order
	err := find(ctx, s.orders, bson.D{{Key: "userId", Value: userID}}, page(offset, limit), &out)
	return out, err
}

func productFilter(f catalog.ProductFilter) bson.D {
	filter := bson.D{}
	if f.NamePattern != "" {
		filter = append(filter, bson.E{Key: "name", Value: bson.D{
			{Key: "$regex", Value: f.NamePattern},
			{Key: "$options", Value: "i"},
		}})
	}
	if f.Size != "" {
		filter = append(filter, bson.E{Key: "sizes.size", Value: f.Size})
	}
	return filter
}

func page(offset, limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
}

func find(ctx context.Context, coll *mongo.Collection, filter bson.D, opts *options.FindOptions, out any) error {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}
