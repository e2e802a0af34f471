package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storekit/storefront_backend/internal/apperrors"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
	"github.com/storekit/storefront_backend/internal/dto"
	"github.com/storekit/storefront_backend/internal/middleware"
)

// expenseHandler handles HTTP requests related to project expenses.
type expenseHandler struct {
	expenseService portssvc.ExpenseSvcFacade
	watcher        *watchHandler
}

// newExpenseHandler creates a new expenseHandler.
func newExpenseHandler(es portssvc.ExpenseSvcFacade, w *watchHandler) *expenseHandler {
	return &expenseHandler{expenseService: es, watcher: w}
}

// registerExpenseRoutes registers routes related to expense tracking.
func registerExpenseRoutes(rg *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade, watcher *watchHandler) {
	h := newExpenseHandler(expenseService, watcher)

	expenses := rg.Group("/projects/:projectID/expenses")
	{
		expenses.POST("", h.createExpense)
		expenses.POST("/extract", h.createFromReceipt)
		expenses.GET("", h.listExpenses)
		expenses.GET("/watch", h.watchExpenses)
		expenses.GET("/analytics", h.getAnalytics)
		expenses.GET("/export", h.export)
		expenses.GET("/:expenseID", h.getExpense)
		expenses.PATCH("/:expenseID", h.updateExpense)
		expenses.POST("/:expenseID/recategorize", h.recategorize)
		expenses.DELETE("/:expenseID", h.deleteExpense)
	}
}

func respondExpenseError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// createExpense godoc
// @Summary Create an expense
// @Description Persists a manually entered expense record.
// @Tags expenses
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid input or unknown category"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create expense"
// @Security BearerAuth
// @Router /projects/{projectID}/expenses [post]
func (h *expenseHandler) createExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	projectID := c.Param("projectID")

	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateExpense", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), projectID, req, userID)
	if err != nil {
		respondExpenseError(c, logger, err, "Failed to create expense")
		return
	}

	logger.Info("Expense created", slog.String("expense_id", expense.ExpenseID))
	c.JSON(http.StatusCreated, dto.ToExpenseResponse(expense))
}

// createFromReceipt godoc
// @Summary Create an expense from a receipt
// @Description Runs AI extraction on the uploaded receipt image and persists the resulting expense as pending review. Unrecognized categories fall back to "other".
// @Tags expenses
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param receipt body dto.ExtractReceiptRequest true "Receipt image reference"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 502 {object} map[string]string "Extraction collaborator failed"
// @Security BearerAuth
// @Router /projects/{projectID}/expenses/extract [post]
func (h *expenseHandler) createFromReceipt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	projectID := c.Param("projectID")

	var req dto.ExtractReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateFromReceipt", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expense, err := h.expenseService.CreateFromReceipt(c.Request.Context(), projectID, req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Receipt extraction failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Receipt extraction failed"})
		return
	}

	logger.Info("Expense extracted from receipt",
		slog.String("expense_id", expense.ExpenseID),
		slog.String("category", string(expense.Category)))
	c.JSON(http.StatusCreated, dto.ToExpenseResponse(expense))
}

// listExpenses godoc
// @Summary List expenses
// @Description Retrieves all expenses of the project, newest first.
// @Tags expenses
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {array} dto.ExpenseResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list expenses"
// @Security BearerAuth
// @Router /projects/{projectID}/expenses [get]
func (h *expenseHandler) listExpenses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	projectID := c.Param("projectID")

	expenses, err := h.expenseService.ListExpenses(c.Request.Context(), projectID)
	if err != nil {
		respondExpenseError(c, logger, err, "Failed to list expenses")
		return
	}

	c.JSON(http.StatusOK, dto.ToListExpenseResponse(expenses))
}

// watchExpenses godoc
// @Summary Watch the project's expenses
// @Description Streams the expense collection as server-sent events, replacing the full list on every change.
// @Tags expenses
// @Produce text/event-stream
// @Param projectID path string true "Project ID"
// @Success 200 {string} string "SSE stream of dto.ExpenseResponse arrays"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /projects/{projectID}/expenses/watch [get]
func (h *expenseHandler) watchExpenses(c *gin.Context) {
	if _, ok := middleware.GetUserIDFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	h.watcher.streamExpenses(c, c.Param("projectID"))
}

// getAnalytics godoc
// @Summary Expense analytics
// @Description Recomputes derived aggregates from the full expense list: category breakdown, monthly totals, monthly average, and spending anomalies.
// @Tags expenses
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {object} dto.ExpenseAnalyticsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to compute analytics"
// @Security BearerAuth
// @Router /projects/{projectID}/expenses/analytics [get]
func (h *expenseHandler) getAnalytics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	projectID := c.Param("projectID")

	summary, err := h.expenseService.GetAnalytics(c.Request.Context(), projectID)
	if err != nil {
		respondExpenseError(c, logger, err, "Failed to compute analytics")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// export godoc
// @Summary Export expenses
// @Description Renders the project's expenses as a downloadable CSV or XLSX file.
// @Tags expenses
// @Produce octet-stream
// @Param projectID path string true "Project ID"
// @Param format query string true "Export format" Enums(csv, xlsx)
// @Success 200 {file} file "Expense export"
// @Failure 400 {object} map[string]string "Unknown export format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to export expenses"
// @Security BearerAuth
// @Router /projects/{projectID}/expenses/export [get]
func (h *expenseHandler) export(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	projectID := c.Param("projectID")
	format := portssvc.ExportFormat(c.Query("format"))

	result, err := h.expenseService.Export(c.Request.Context(), projectID, format)
	if err != nil {
		respondExpenseError(c, logger, err, "Failed to export expenses")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// getExpense godoc
// @Summary Get an expense by ID
// @Tags expenses
// @Produce json
// @Param projectID path string true "Project ID"
// @Param expenseID path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 500 {object} map[string]string "Failed to retrieve expense"
// @Security BearerAuth
// @Router /projects/{projectID}/expenses/{expenseID} [get]
func (h *expenseHandler) getExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	projectID := c.Param("projectID")
	expenseID := c.Param("expenseID")

	expense, err := h.expenseService.GetExpenseByID(c.Request.Context(), projectID, expenseID)
	if err != nil {
		respondExpenseError(c, logger, err, "Failed to retrieve expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// updateExpense godoc
// @Summary Update an expense
// @Description Applies inline edits to an expense record. Only provided fields are changed.
// @Tags expenses
// @Accept json
// @Produce json
// @Param projectID path string true "Project ID"
// @Param expenseID path string true "Expense ID"
// @Param expense body dto.UpdateExpenseRequest true "Fields to update"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 500 {object} map[string]string "Failed to update expense"
// @Security BearerAuth
// @Router /projects/{projectID}/expenses/{expenseID} [patch]
func (h *expenseHandler) updateExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	projectID := c.Param("projectID")
	expenseID := c.Param("expenseID")

	var req dto.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateExpense", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), projectID, expenseID, req, userID)
	if err != nil {
		respondExpenseError(c, logger, err, "Failed to update expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// recategorize godoc
// @Summary Recategorize an expense
// @Description Asks the AI collaborator for a category suggestion and applies it only when it belongs to the known category set.
// @Tags expenses
// @Produce json
// @Param projectID path string true "Project ID"
// @Param expenseID path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 502 {object} map[string]string "Suggestion collaborator failed"
// @Security BearerAuth
// @Router /projects/{projectID}/expenses/{expenseID}/recategorize [post]
func (h *expenseHandler) recategorize(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	projectID := c.Param("projectID")
	expenseID := c.Param("expenseID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expense, err := h.expenseService.Recategorize(c.Request.Context(), projectID, expenseID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
			return
		}
		logger.Error("Category suggestion failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Category suggestion failed"})
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// deleteExpense godoc
// @Summary Delete an expense
// @Tags expenses
// @Produce json
// @Param projectID path string true "Project ID"
// @Param expenseID path string true "Expense ID"
// @Success 204 "Expense deleted"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 500 {object} map[string]string "Failed to delete expense"
// @Security BearerAuth
// @Router /projects/{projectID}/expenses/{expenseID} [delete]
func (h *expenseHandler) deleteExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	projectID := c.Param("projectID")
	expenseID := c.Param("expenseID")

	if err := h.expenseService.DeleteExpense(c.Request.Context(), projectID, expenseID); err != nil {
		respondExpenseError(c, logger, err, "Failed to delete expense")
		return
	}

	logger.Info("Expense deleted", slog.String("expense_id", expenseID))
	c.Status(http.StatusNoContent)
}
