package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storekit/storefront_backend/internal/apperrors"
	"github.com/storekit/storefront_backend/internal/core/domain"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
	"github.com/storekit/storefront_backend/internal/core/services"
	"github.com/storekit/storefront_backend/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ExpenseRepositoryFacade ---
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) FindExpenseByID(ctx context.Context, projectID, expenseID string) (*domain.Expense, error) {
	args := m.Called(ctx, projectID, expenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) ListExpenses(ctx context.Context, projectID string) ([]domain.Expense, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) DeleteExpense(ctx context.Context, projectID, expenseID string) error {
	args := m.Called(ctx, projectID, expenseID)
	return args.Error(0)
}

func (m *MockExpenseRepository) SubscribeExpenses(ctx context.Context, projectID string) (portsrepo.CollectionSubscription, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(portsrepo.CollectionSubscription), args.Error(1)
}

// --- Mock ReceiptExtractorSvc ---
type MockReceiptExtractor struct {
	mock.Mock
}

func (m *MockReceiptExtractor) ExtractReceipt(ctx context.Context, receiptURL string) (*portssvc.ReceiptFields, error) {
	args := m.Called(ctx, receiptURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.ReceiptFields), args.Error(1)
}

func (m *MockReceiptExtractor) SuggestCategory(ctx context.Context, supplier string, total decimal.Decimal) (string, error) {
	args := m.Called(ctx, supplier, total)
	return args.String(0), args.Error(1)
}

// --- Test Suite ---
type ExpenseServiceTestSuite struct {
	suite.Suite
	mockRepo      *MockExpenseRepository
	mockExtractor *MockReceiptExtractor
	service       portssvc.ExpenseSvcFacade
}

func (suite *ExpenseServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockExpenseRepository)
	suite.mockExtractor = new(MockReceiptExtractor)
	suite.service = services.NewExpenseService(suite.mockRepo, suite.mockExtractor)
}

func (suite *ExpenseServiceTestSuite) TestCreateFromReceipt_Success() {
	ctx := context.Background()

	suite.mockExtractor.On("ExtractReceipt", ctx, "https://cdn.example.com/r1.jpg").Return(&portssvc.ReceiptFields{
		Date:       "2025-03-14",
		Supplier:   "Acme Office Supply",
		Category:   "software",
		Subtotal:   decimal.NewFromInt(90),
		Tax:        decimal.NewFromInt(10),
		Total:      decimal.NewFromInt(100),
		Currency:   "USD",
		Confidence: 0.93,
	}, nil).Once()

	suite.mockRepo.On("SaveExpense", ctx, mock.MatchedBy(func(e domain.Expense) bool {
		return e.ProjectID == "proj-1" &&
			e.Category == domain.CategorySoftware &&
			e.Date.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) &&
			e.Status == domain.ExpensePending &&
			e.Confidence == 0.93 &&
			e.CreatedBy == "user-1"
	})).Return(nil).Once()

	expense, err := suite.service.CreateFromReceipt(ctx, "proj-1", dto.ExtractReceiptRequest{ReceiptURL: "https://cdn.example.com/r1.jpg"}, "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.CategorySoftware, expense.Category)
	suite.Equal("https://cdn.example.com/r1.jpg", expense.ReceiptURL)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestCreateFromReceipt_UnknownCategoryDefaultsToOther() {
	ctx := context.Background()

	suite.mockExtractor.On("ExtractReceipt", ctx, mock.Anything).Return(&portssvc.ReceiptFields{
		Supplier: "Mystery Vendor",
		Category: "cryptozoology",
		Total:    decimal.NewFromInt(50),
		Currency: "USD",
	}, nil).Once()

	suite.mockRepo.On("SaveExpense", ctx, mock.MatchedBy(func(e domain.Expense) bool {
		return e.Category == domain.CategoryOther
	})).Return(nil).Once()

	expense, err := suite.service.CreateFromReceipt(ctx, "proj-1", dto.ExtractReceiptRequest{ReceiptURL: "https://cdn.example.com/r2.jpg"}, "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.CategoryOther, expense.Category)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestCreateExpense_RejectsUnknownCategory() {
	ctx := context.Background()

	expense, err := suite.service.CreateExpense(ctx, "proj-1", dto.CreateExpenseRequest{
		Date: time.Now(), Supplier: "Acme", Category: "not-a-category",
		Subtotal: decimal.NewFromInt(10), Total: decimal.NewFromInt(10), CurrencyCode: "USD",
	}, "user-1")

	suite.Require().Error(err)
	suite.Nil(expense)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveExpense", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestRecategorize_AppliesValidSuggestion() {
	ctx := context.Background()

	current := &domain.Expense{
		ExpenseID: "e-1", ProjectID: "proj-1",
		Supplier: "CloudHost", Category: domain.CategoryOther,
		Total: decimal.NewFromInt(120),
	}
	suite.mockRepo.On("FindExpenseByID", ctx, "proj-1", "e-1").Return(current, nil).Once()
	suite.mockExtractor.On("SuggestCategory", ctx, "CloudHost", decimal.NewFromInt(120)).Return("software", nil).Once()
	suite.mockRepo.On("SaveExpense", ctx, mock.MatchedBy(func(e domain.Expense) bool {
		return e.Category == domain.CategorySoftware && e.LastUpdatedBy == "user-1"
	})).Return(nil).Once()

	expense, err := suite.service.Recategorize(ctx, "proj-1", "e-1", "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.CategorySoftware, expense.Category)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestRecategorize_InvalidSuggestionKeepsCurrent() {
	ctx := context.Background()

	current := &domain.Expense{
		ExpenseID: "e-1", ProjectID: "proj-1",
		Supplier: "CloudHost", Category: domain.CategorySoftware,
		Total: decimal.NewFromInt(120),
	}
	suite.mockRepo.On("FindExpenseByID", ctx, "proj-1", "e-1").Return(current, nil).Once()
	suite.mockExtractor.On("SuggestCategory", ctx, "CloudHost", decimal.NewFromInt(120)).Return("miscellaneous stuff", nil).Once()

	expense, err := suite.service.Recategorize(ctx, "proj-1", "e-1", "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.CategorySoftware, expense.Category, "unrecognized suggestion is discarded")
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveExpense", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestGetAnalytics_ComputesFromFullList() {
	ctx := context.Background()
	date := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	expenses := []domain.Expense{
		{ExpenseID: "e-1", Category: domain.CategoryRent, Total: decimal.NewFromInt(10), Date: date},
		{ExpenseID: "e-2", Category: domain.CategoryRent, Total: decimal.NewFromInt(10), Date: date},
		{ExpenseID: "e-3", Category: domain.CategoryMeals, Total: decimal.NewFromInt(10), Date: date},
		{ExpenseID: "e-4", Supplier: "Big Spend", Category: domain.CategoryOther, Total: decimal.NewFromInt(100), Date: date},
	}
	suite.mockRepo.On("ListExpenses", ctx, "proj-1").Return(expenses, nil).Once()

	resp, err := suite.service.GetAnalytics(ctx, "proj-1")

	suite.Require().NoError(err)
	suite.Equal(4, resp.ExpenseCount)
	suite.True(resp.GrandTotal.Equal(decimal.NewFromInt(130)))
	suite.Require().Len(resp.Anomalies, 1)
	suite.Equal("e-4", resp.Anomalies[0].ExpenseID)
	suite.Equal("3.1x average", resp.Anomalies[0].Ratio)
}

func (suite *ExpenseServiceTestSuite) TestExport_CSV() {
	ctx := context.Background()

	expenses := []domain.Expense{
		{ExpenseID: "e-1", Supplier: `Comma, Inc.`, Category: domain.CategoryOther, Total: decimal.NewFromInt(10), Date: time.Now(), CurrencyCode: "USD"},
	}
	suite.mockRepo.On("ListExpenses", ctx, "proj-1").Return(expenses, nil).Once()

	result, err := suite.service.Export(ctx, "proj-1", portssvc.ExportCSV)

	suite.Require().NoError(err)
	suite.Equal("text/csv", result.ContentType)
	suite.Contains(result.Filename, ".csv")
	suite.Contains(string(result.Data), `"Comma, Inc."`, "fields containing commas must be quoted")
}

func (suite *ExpenseServiceTestSuite) TestExport_UnknownFormatRejected() {
	ctx := context.Background()
	suite.mockRepo.On("ListExpenses", ctx, "proj-1").Return([]domain.Expense{}, nil).Once()

	result, err := suite.service.Export(ctx, "proj-1", portssvc.ExportFormat("pdf"))

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestExpenseServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExpenseServiceTestSuite))
}
