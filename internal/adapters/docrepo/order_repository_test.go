package docrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/adapters/docrepo"
	"github.com/storekit/storefront_backend/internal/adapters/docstore/memdoc"
	"github.com/storekit/storefront_backend/internal/core/domain"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OrderRepositoryTestSuite struct {
	suite.Suite
	store *memdoc.Store
	repo  portsrepo.OrderRepositoryFacade
	carts portsrepo.CartRepositoryFacade
}

func (s *OrderRepositoryTestSuite) SetupTest() {
	s.store = memdoc.New()
	s.repo = docrepo.NewDocOrderRepository(s.store)
	s.carts = docrepo.NewDocCartRepository(s.store)
}

func (s *OrderRepositoryTestSuite) newOrder(storeID string, createdAt time.Time) domain.Order {
	return domain.Order{
		OrderID:      uuid.NewString(),
		StoreID:      storeID,
		CustomerID:   "user-1",
		Total:        decimal.NewFromInt(100),
		CurrencyCode: "USD",
		Status:       domain.OrderPending,
		AuditFields:  domain.AuditFields{CreatedAt: createdAt},
	}
}

func (s *OrderRepositoryTestSuite) TestCreateOrder_SequentialNumbers() {
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		created, err := s.repo.CreateOrder(ctx, s.newOrder("store-1", base.Add(time.Duration(i)*time.Minute)), nil)
		s.Require().NoError(err)
		s.Equal(domainOrderNumber(i), created.OrderNumber, "numbers must strictly increase by 1")
	}
}

func domainOrderNumber(seq int) string {
	return []string{"ORD-000001", "ORD-000002", "ORD-000003"}[seq-1]
}

func (s *OrderRepositoryTestSuite) TestCreateOrder_ForeignNumberRestartsSequence() {
	ctx := context.Background()

	// A store numbered by some other system, before any counter existed.
	legacy := s.newOrder("store-1", time.Now().UTC())
	legacy.OrderNumber = "LEGACY-77"
	s.Require().NoError(s.repo.SaveOrder(ctx, legacy))

	next, err := s.repo.CreateOrder(ctx, s.newOrder("store-1", time.Now().UTC()), nil)
	s.Require().NoError(err)
	s.Equal("ORD-000001", next.OrderNumber, "unparseable latest number defaults to 1")
}

func (s *OrderRepositoryTestSuite) TestCreateOrder_SeedsCounterFromExistingNumbers() {
	ctx := context.Background()

	existing := s.newOrder("store-1", time.Now().UTC())
	existing.OrderNumber = "ORD-000041"
	s.Require().NoError(s.repo.SaveOrder(ctx, existing))

	first, err := s.repo.CreateOrder(ctx, s.newOrder("store-1", time.Now().UTC()), nil)
	s.Require().NoError(err)
	s.Equal("ORD-000042", first.OrderNumber, "a fresh counter continues the existing sequence")

	second, err := s.repo.CreateOrder(ctx, s.newOrder("store-1", time.Now().UTC()), nil)
	s.Require().NoError(err)
	s.Equal("ORD-000043", second.OrderNumber)
}

func (s *OrderRepositoryTestSuite) TestCreateOrder_CounterSurvivesLatestOrderRemoval() {
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.repo.CreateOrder(ctx, s.newOrder("store-1", time.Now().UTC()), nil)
		s.Require().NoError(err)
	}

	// Numbering must come from the counter, not from re-reading whichever
	// order currently sorts last.
	page, err := s.repo.ListOrders(ctx, "store-1", portsrepo.ListOrdersParams{Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Require().NoError(s.store.Delete(ctx, "stores/store-1/orders/"+page[0].OrderID))

	next, err := s.repo.CreateOrder(ctx, s.newOrder("store-1", time.Now().UTC()), nil)
	s.Require().NoError(err)
	s.Equal("ORD-000003", next.OrderNumber)
}

func (s *OrderRepositoryTestSuite) TestCreateOrder_ClearsCartInSameTransaction() {
	ctx := context.Background()
	scope := portsrepo.CartScope{StoreID: "store-1", UserID: "user-1"}

	cart := domain.EmptyCart(scope.UserID, scope.StoreID).AddItem(domain.CartItem{
		ProductID: "A", Name: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: 2,
	})
	s.Require().NoError(s.carts.SaveCart(ctx, cart))

	_, err := s.repo.CreateOrder(ctx, s.newOrder("store-1", time.Now().UTC()), &scope)
	s.Require().NoError(err)

	reloaded, err := s.carts.FindCart(ctx, scope)
	s.Require().NoError(err)
	s.Empty(reloaded.Items, "checkout must leave the empty default cart behind")
}

func (s *OrderRepositoryTestSuite) TestListOrders_NewestFirstWithCursor() {
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := s.repo.CreateOrder(ctx, s.newOrder("store-1", base.Add(time.Duration(i)*time.Hour)), nil)
		s.Require().NoError(err)
	}

	page, err := s.repo.ListOrders(ctx, "store-1", portsrepo.ListOrdersParams{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.True(page[0].CreatedAt.After(page[1].CreatedAt))

	rest, err := s.repo.ListOrders(ctx, "store-1", portsrepo.ListOrdersParams{
		Limit:         2,
		CreatedBefore: page[1].CreatedAt,
	})
	s.Require().NoError(err)
	s.Require().Len(rest, 1)
	s.True(rest[0].CreatedAt.Before(page[1].CreatedAt))
}

func (s *OrderRepositoryTestSuite) TestListOrders_FractionalSecondsOrderChronologically() {
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	// JSON trims trailing fractional zeros, so ".5Z" sorts after ".52Z" as
	// a string even though it is the earlier instant.
	older := base.Add(500 * time.Millisecond)
	newer := base.Add(520 * time.Millisecond)
	for _, createdAt := range []time.Time{older, newer} {
		_, err := s.repo.CreateOrder(ctx, s.newOrder("store-1", createdAt), nil)
		s.Require().NoError(err)
	}

	page, err := s.repo.ListOrders(ctx, "store-1", portsrepo.ListOrdersParams{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.True(page[0].CreatedAt.Equal(newer), "newest-first must follow instants, not strings")
	s.True(page[1].CreatedAt.Equal(older))

	rest, err := s.repo.ListOrders(ctx, "store-1", portsrepo.ListOrdersParams{
		Limit:         2,
		CreatedBefore: newer,
	})
	s.Require().NoError(err)
	s.Require().Len(rest, 1)
	s.True(rest[0].CreatedAt.Equal(older), "cursor must not skip the earlier instant")
}

func (s *OrderRepositoryTestSuite) TestSaveOrder_MergeKeepsUnrelatedFields() {
	ctx := context.Background()
	created, err := s.repo.CreateOrder(ctx, s.newOrder("store-1", time.Now().UTC()), nil)
	s.Require().NoError(err)

	now := time.Now().UTC()
	transitioned := created.WithStatus(domain.OrderPaid, now)
	s.Require().NoError(s.repo.SaveOrder(ctx, transitioned))

	reloaded, err := s.repo.FindOrderByID(ctx, "store-1", created.OrderID)
	s.Require().NoError(err)
	s.Equal(domain.OrderPaid, reloaded.Status)
	s.Equal(created.OrderNumber, reloaded.OrderNumber)
	s.True(reloaded.Total.Equal(created.Total))
}

func TestOrderRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryTestSuite))
}

func TestCartRepository_FindAbsentReturnsEmptyDefault(t *testing.T) {
	repo := docrepo.NewDocCartRepository(memdoc.New())
	cart, err := repo.FindCart(context.Background(), portsrepo.CartScope{StoreID: "s", UserID: "u"})
	require.NoError(t, err)
	require.NotNil(t, cart)
	require.Empty(t, cart.Items)
	require.True(t, cart.Total.IsZero())
}
