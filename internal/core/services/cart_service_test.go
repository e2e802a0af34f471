package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/core/domain"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
	"github.com/storekit/storefront_backend/internal/core/services"
	"github.com/storekit/storefront_backend/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock CartRepositoryFacade ---
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindCart(ctx context.Context, scope portsrepo.CartScope) (*domain.Cart, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockCartRepository) SaveCart(ctx context.Context, cart domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteCart(ctx context.Context, scope portsrepo.CartScope) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

func (m *MockCartRepository) SubscribeCart(ctx context.Context, scope portsrepo.CartScope) (portsrepo.DocSubscription, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(portsrepo.DocSubscription), args.Error(1)
}

// --- Test Suite ---
type CartServiceTestSuite struct {
	suite.Suite
	mockRepo *MockCartRepository
	service  portssvc.CartSvcFacade
}

func (suite *CartServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockCartRepository)
	suite.service = services.NewCartService(suite.mockRepo)
}

func (suite *CartServiceTestSuite) TestAddItem_MergesExistingLine() {
	ctx := context.Background()
	scope := portsrepo.CartScope{StoreID: "store-1", UserID: "user-1"}

	existing := domain.EmptyCart("user-1", "store-1").AddItem(domain.CartItem{
		ProductID: "A", Name: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: 2,
	})
	suite.mockRepo.On("FindCart", ctx, scope).Return(&existing, nil).Once()
	suite.mockRepo.On("SaveCart", ctx, mock.MatchedBy(func(c domain.Cart) bool {
		return len(c.Items) == 1 && c.Items[0].Quantity == 5 && c.Subtotal.Equal(decimal.NewFromInt(50))
	})).Return(nil).Once()

	cart, err := suite.service.AddItem(ctx, "store-1", "user-1", dto.AddCartItemRequest{
		ProductID: "A", Name: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: 3,
	})

	suite.Require().NoError(err)
	suite.Require().Len(cart.Items, 1)
	suite.Equal(int64(5), cart.Items[0].Quantity)
	suite.Equal("user-1", cart.LastUpdatedBy)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *CartServiceTestSuite) TestUpdateQuantity_ZeroRemovesLine() {
	ctx := context.Background()
	scope := portsrepo.CartScope{StoreID: "store-1", UserID: "user-1"}

	existing := domain.EmptyCart("user-1", "store-1").AddItem(domain.CartItem{
		ProductID: "A", Name: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: 2,
	})
	suite.mockRepo.On("FindCart", ctx, scope).Return(&existing, nil).Once()
	suite.mockRepo.On("SaveCart", ctx, mock.MatchedBy(func(c domain.Cart) bool {
		return len(c.Items) == 0 && c.Subtotal.IsZero()
	})).Return(nil).Once()

	cart, err := suite.service.UpdateQuantity(ctx, "store-1", "user-1", dto.UpdateCartQuantityRequest{
		ProductID: "A", Quantity: 0,
	})

	suite.Require().NoError(err)
	suite.Empty(cart.Items)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *CartServiceTestSuite) TestApplyDiscount_ReplacesPriorDiscount() {
	ctx := context.Background()
	scope := portsrepo.CartScope{StoreID: "store-1", UserID: "user-1"}

	existing := domain.EmptyCart("user-1", "store-1").
		AddItem(domain.CartItem{ProductID: "A", Name: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: 2}).
		ApplyDiscount("OLD5", decimal.NewFromInt(5))
	suite.mockRepo.On("FindCart", ctx, scope).Return(&existing, nil).Once()
	suite.mockRepo.On("SaveCart", ctx, mock.AnythingOfType("domain.Cart")).Return(nil).Once()

	cart, err := suite.service.ApplyDiscount(ctx, "store-1", "user-1", dto.ApplyDiscountRequest{
		Code: "NEW8", Amount: decimal.NewFromInt(8),
	})

	suite.Require().NoError(err)
	suite.Equal("NEW8", cart.DiscountCode)
	suite.True(cart.DiscountAmount.Equal(decimal.NewFromInt(8)))
	suite.True(cart.Total.Equal(decimal.NewFromInt(12)), "20 subtotal minus 8 discount")
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *CartServiceTestSuite) TestAddItem_SaveErrorWrapped() {
	ctx := context.Background()
	scope := portsrepo.CartScope{StoreID: "store-1", UserID: "user-1"}

	existing := domain.EmptyCart("user-1", "store-1")
	suite.mockRepo.On("FindCart", ctx, scope).Return(&existing, nil).Once()
	suite.mockRepo.On("SaveCart", ctx, mock.AnythingOfType("domain.Cart")).Return(assert.AnError).Once()

	cart, err := suite.service.AddItem(ctx, "store-1", "user-1", dto.AddCartItemRequest{
		ProductID: "A", Name: "Widget", UnitPrice: decimal.NewFromInt(10), Quantity: 1,
	})

	suite.Require().Error(err)
	suite.Nil(cart)
	suite.ErrorIs(err, assert.AnError)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestCartServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}
