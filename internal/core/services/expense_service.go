package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/storekit/storefront_backend/internal/apperrors"
	"github.com/storekit/storefront_backend/internal/core/domain"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
	"github.com/storekit/storefront_backend/internal/dto"
	"github.com/storekit/storefront_backend/internal/middleware"
	"github.com/storekit/storefront_backend/internal/utils/analytics"
	"github.com/storekit/storefront_backend/internal/utils/export"
)

// ExpenseService handles business logic for project expenses, including
// receipt extraction, derived analytics, and file export.
type ExpenseService struct {
	expenseRepo portsrepo.ExpenseRepositoryFacade
	extractor   portssvc.ReceiptExtractorSvc
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(er portsrepo.ExpenseRepositoryFacade, ex portssvc.ReceiptExtractorSvc) portssvc.ExpenseSvcFacade {
	return &ExpenseService{
		expenseRepo: er,
		extractor:   ex,
	}
}

var _ portssvc.ExpenseSvcFacade = (*ExpenseService)(nil)

func (s *ExpenseService) GetExpenseByID(ctx context.Context, projectID, expenseID string) (*domain.Expense, error) {
	return s.expenseRepo.FindExpenseByID(ctx, projectID, expenseID)
}

func (s *ExpenseService) ListExpenses(ctx context.Context, projectID string) ([]domain.Expense, error) {
	return s.expenseRepo.ListExpenses(ctx, projectID)
}

// GetAnalytics recomputes every derived aggregate from the full list. No
// caching; cost is linear in expense count.
func (s *ExpenseService) GetAnalytics(ctx context.Context, projectID string) (*dto.ExpenseAnalyticsResponse, error) {
	expenses, err := s.expenseRepo.ListExpenses(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for analytics: %w", err)
	}
	return analytics.Summary(expenses), nil
}

func (s *ExpenseService) Export(ctx context.Context, projectID string, format portssvc.ExportFormat) (*dto.ExportResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	expenses, err := s.expenseRepo.ListExpenses(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for export: %w", err)
	}

	stamp := time.Now().Format("2006-01-02")
	switch format {
	case portssvc.ExportCSV:
		data, err := export.ExpensesCSV(expenses)
		if err != nil {
			logger.Error("CSV export failed", slog.String("error", err.Error()), slog.String("project_id", projectID))
			return nil, fmt.Errorf("failed to render CSV export: %w", err)
		}
		return &dto.ExportResult{
			Filename:    fmt.Sprintf("expenses-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case portssvc.ExportXLSX:
		data, err := export.ExpensesXLSX(expenses)
		if err != nil {
			logger.Error("XLSX export failed", slog.String("error", err.Error()), slog.String("project_id", projectID))
			return nil, fmt.Errorf("failed to render XLSX export: %w", err)
		}
		return &dto.ExportResult{
			Filename:    fmt.Sprintf("expenses-%s.xlsx", stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", apperrors.ErrValidation, format)
	}
}

// CreateFromReceipt extracts structured fields from a receipt and persists
// the resulting expense. An unrecognized suggested category silently falls
// back to "other"; an unparseable date falls back to now.
func (s *ExpenseService) CreateFromReceipt(ctx context.Context, projectID string, req dto.ExtractReceiptRequest, creatorUserID string) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	fields, err := s.extractor.ExtractReceipt(ctx, req.ReceiptURL)
	if err != nil {
		logger.Error("Receipt extraction failed", slog.String("error", err.Error()), slog.String("project_id", projectID))
		return nil, err
	}

	category, ok := domain.ParseExpenseCategory(fields.Category)
	if !ok {
		logger.Warn("Extractor suggested unknown category, defaulting", slog.String("suggested", fields.Category))
	}

	date := time.Now()
	if parsed, perr := time.Parse("2006-01-02", fields.Date); perr == nil {
		date = parsed
	} else if fields.Date != "" {
		logger.Warn("Extractor returned unparseable date, defaulting to now", slog.String("date", fields.Date))
	}

	lineItems := make([]domain.ExpenseLineItem, len(fields.LineItems))
	for i, li := range fields.LineItems {
		lineItems[i] = domain.ExpenseLineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			Amount:      li.Amount,
		}
	}

	now := time.Now()
	expense := domain.Expense{
		ExpenseID:    uuid.NewString(),
		ProjectID:    projectID,
		Date:         date,
		Supplier:     fields.Supplier,
		Category:     category,
		Subtotal:     fields.Subtotal,
		Tax:          fields.Tax,
		Total:        fields.Total,
		CurrencyCode: fields.Currency,
		LineItems:    lineItems,
		Confidence:   fields.Confidence,
		Status:       domain.ExpensePending,
		ReceiptURL:   req.ReceiptURL,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.expenseRepo.SaveExpense(ctx, expense); err != nil {
		logger.Error("Failed to save extracted expense", slog.String("error", err.Error()), slog.String("project_id", projectID))
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}
	logger.Info("Expense created from receipt", slog.String("expense_id", expense.ExpenseID), slog.Float64("confidence", expense.Confidence))
	return &expense, nil
}

func (s *ExpenseService) CreateExpense(ctx context.Context, projectID string, req dto.CreateExpenseRequest, creatorUserID string) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	category, ok := domain.ParseExpenseCategory(req.Category)
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, req.Category)
	}

	now := time.Now()
	expense := domain.Expense{
		ExpenseID:    uuid.NewString(),
		ProjectID:    projectID,
		Date:         req.Date,
		Supplier:     req.Supplier,
		Category:     category,
		Subtotal:     req.Subtotal,
		Tax:          req.Tax,
		Total:        req.Total,
		CurrencyCode: req.CurrencyCode,
		Confidence:   1, // Manually entered
		Status:       domain.ExpensePending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.expenseRepo.SaveExpense(ctx, expense); err != nil {
		logger.Error("Failed to save expense", slog.String("error", err.Error()), slog.String("project_id", projectID))
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}
	return &expense, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, projectID, expenseID string, req dto.UpdateExpenseRequest, actorUserID string) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	expense, err := s.expenseRepo.FindExpenseByID(ctx, projectID, expenseID)
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		expense.Date = *req.Date
	}
	if req.Supplier != nil {
		expense.Supplier = *req.Supplier
	}
	if req.Category != nil {
		category, ok := domain.ParseExpenseCategory(*req.Category)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, *req.Category)
		}
		expense.Category = category
	}
	if req.Subtotal != nil {
		expense.Subtotal = *req.Subtotal
	}
	if req.Tax != nil {
		expense.Tax = *req.Tax
	}
	if req.Total != nil {
		expense.Total = *req.Total
	}
	if req.Status != nil {
		expense.Status = *req.Status
	}
	expense.LastUpdatedAt = time.Now()
	expense.LastUpdatedBy = actorUserID

	if err := s.expenseRepo.SaveExpense(ctx, *expense); err != nil {
		logger.Error("Failed to update expense", slog.String("error", err.Error()), slog.String("expense_id", expenseID))
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return expense, nil
}

// Recategorize applies an AI-suggested category only when it belongs to the
// closed set; anything else keeps the current category.
func (s *ExpenseService) Recategorize(ctx context.Context, projectID, expenseID string, actorUserID string) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	expense, err := s.expenseRepo.FindExpenseByID(ctx, projectID, expenseID)
	if err != nil {
		return nil, err
	}

	suggested, err := s.extractor.SuggestCategory(ctx, expense.Supplier, expense.Total)
	if err != nil {
		logger.Error("Category suggestion failed", slog.String("error", err.Error()), slog.String("expense_id", expenseID))
		return nil, err
	}

	category, ok := domain.ParseExpenseCategory(suggested)
	if !ok {
		logger.Warn("Suggested category not in closed set, keeping current", slog.String("suggested", suggested), slog.String("current", string(expense.Category)))
		return expense, nil
	}

	expense.Category = category
	expense.LastUpdatedAt = time.Now()
	expense.LastUpdatedBy = actorUserID

	if err := s.expenseRepo.SaveExpense(ctx, *expense); err != nil {
		logger.Error("Failed to save recategorized expense", slog.String("error", err.Error()), slog.String("expense_id", expenseID))
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}
	return expense, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, projectID, expenseID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	if err := s.expenseRepo.DeleteExpense(ctx, projectID, expenseID); err != nil {
		logger.Error("Failed to delete expense", slog.String("error", err.Error()), slog.String("expense_id", expenseID))
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}
