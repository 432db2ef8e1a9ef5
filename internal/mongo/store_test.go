package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ariefcatur/go-catalog-api/internal/catalog"
)

func TestProductFilter(t *testing.T) {
	assert.Equal(t, bson.D{}, productFilter(catalog.ProductFilter{}))

	got := productFilter(catalog.ProductFilter{NamePattern: "nike", Size: "US 7"})
	assert.Equal(t, bson.D{
		{Key: "name", Value: bson.D{{Key: "$regex", Value: "nike"}, {Key: "$options", Value: "i"}}},
		{Key: "sizes.size", Value: "US 7"},
	}, got)
}

type StoreSuite struct {
	suite.Suite
	container *tcmongo.MongoDBContainer
	store     *Store
}

func TestStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcmongo.Run(ctx, "mongo:7")
	s.Require().NoError(err)
	s.container = container

	uri, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	s.store, err = Connect(ctx, uri, "catalog_test")
	s.Require().NoError(err)
	s.Require().NoError(s.store.EnsureIndexes(ctx))
}

func (s *StoreSuite) TearDownSuite() {
	ctx := context.Background()
	if s.store != nil {
		s.Require().NoError(s.store.Close(ctx))
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(ctx))
	}
}

func (s *StoreSuite) SetupTest() {
	ctx := context.Background()
	_, err := s.store.products.DeleteMany(ctx, bson.D{})
	s.Require().NoError(err)
	_, err = s.store.orders.DeleteMany(ctx, bson.D{})
	s.Require().NoError(err)
}

func (s *StoreSuite) product(id, name string, sizes ...string) catalog.Product {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	p := catalog.Product{ID: id, Name: name, Price: 9.99, Sizes: []catalog.Size{}, CreatedAt: ts, UpdatedAt: ts}
	for _, sz := range sizes {
		p.Sizes = append(p.Sizes, catalog.Size{Size: sz, Quantity: 1})
	}
	s.Require().NoError(s.store.InsertProduct(context.Background(), p))
	return p
}

func ids(ps []catalog.Product) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func (s *StoreSuite) TestProductRoundTrip() {
	want := s.product("z", "Nike Air Max 270", "US 7")
	s.product("a", "Adidas")

	got, err := s.store.FindProducts(context.Background(), catalog.ProductFilter{}, 0, 10)
	s.Require().NoError(err)
	s.Equal([]string{"z", "a"}, ids(got))
	s.Equal(want, got[0])
}

func (s *StoreSuite) TestProductFilters() {
	ctx := context.Background()
	s.product("a", "Nike Air Max 270", "US 7")
	s.product("b", "nike pegasus", "us 7")
	s.product("c", "Puma (Classic)", "US 7")

	cases := []struct {
		filter catalog.ProductFilter
		want   []string
	}{
		{catalog.ProductFilter{NamePattern: "NIKE"}, []string{"a", "b"}},
		{catalog.ProductFilter{NamePattern: catalog.NamePattern("(classic")}, []string{"c"}},
		{catalog.ProductFilter{Size: "US 7"}, []string{"a", "c"}},
		{catalog.ProductFilter{NamePattern: "nike", Size: "us 7"}, []string{"b"}},
	}
	for _, tc := range cases {
		n, err := s.store.CountProducts(ctx, tc.filter)
		s.Require().NoError(err)
		s.Equal(len(tc.want), n)

		got, err := s.store.FindProducts(ctx, tc.filter, 0, 10)
		s.Require().NoError(err)
		s.Equal(tc.want, ids(got), "%+v", tc.filter)
	}
}

func (s *StoreSuite) TestPagingAndLookup() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.product(fmt.Sprintf("p%d", i), "item")
	}
	got, err := s.store.FindProducts(ctx, catalog.ProductFilter{}, 3, 10)
	s.Require().NoError(err)
	s.Equal([]string{"p3", "p4"}, ids(got))

	got, err = s.store.FindProductsByIDs(ctx, []string{"p4", "nope", "p1"})
	s.Require().NoError(err)
	s.Equal([]string{"p1", "p4"}, ids(got))
}

func (s *StoreSuite) TestDuplicateID() {
	s.product("dup", "A")
	err := s.store.InsertProduct(context.Background(), catalog.Product{ID: "dup"})
	s.True(errors.Is(err, ErrDuplicateID))
}

func (s *StoreSuite) TestOrdersByUser() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.InsertOrder(ctx, catalog.Order{
			ID: fmt.Sprintf("o%d", i), UserID: "u1",
			Items: []catalog.OrderItem{{ProductID: "a", Qty: i + 1}}, Total: 259.98,
		}))
	}
	s.Require().NoError(s.store.InsertOrder(ctx, catalog.Order{ID: "x", UserID: "u2", Items: []catalog.OrderItem{}}))

	n, err := s.store.CountOrdersByUser(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(3, n)

	got, err := s.store.FindOrdersByUser(ctx, "u1", 0, 2)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("o0", got[0].ID)
	s.Equal(259.98, got[0].Total)
	s.Equal([]catalog.OrderItem{{ProductID: "a", Qty: 2}}, got[1].Items)
}

func (s *StoreSuite) TestPing() {
	s.NoError(s.store.Ping(context.Background()))
}
