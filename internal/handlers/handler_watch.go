package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storekit/storefront_backend/internal/core/domain"
	portsrepo "github.com/storekit/storefront_backend/internal/core/ports/repositories"
	"github.com/storekit/storefront_backend/internal/docsync"
	"github.com/storekit/storefront_backend/internal/dto"
	"github.com/storekit/storefront_backend/internal/middleware"
)

// watchHandler bridges document change feeds to server-sent events. Each
// request gets its own sync controller bound to the request's scope; the
// controller is torn down when the client disconnects.
type watchHandler struct {
	repos portsrepo.RepositoryProvider
}

func newWatchHandler(repos portsrepo.RepositoryProvider) *watchHandler {
	return &watchHandler{repos: repos}
}

func sseHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()
}

// streamCart streams the scoped cart as "snapshot" events until the client
// goes away.
func (w *watchHandler) streamCart(c *gin.Context, storeID, userID string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ctx := c.Request.Context()
	scope := portsrepo.CartScope{StoreID: storeID, UserID: userID}

	ctrl := docsync.NewController(
		func(ctx2 context.Context, _ docsync.Scope) (portsrepo.DocSubscription, error) {
			return w.repos.CartRepo.SubscribeCart(ctx2, scope)
		},
		func(docsync.Scope) domain.Cart { return domain.EmptyCart(userID, storeID) },
	)
	defer ctrl.Close()

	if _, err := ctrl.SetScope(ctx, docsync.Scope(fmt.Sprintf("stores/%s/carts/%s", storeID, userID))); err != nil {
		logger.Error("Failed to open cart watch", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open change feed"})
		return
	}

	sseHeaders(c)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ctrl.Updates():
			cart, err := ctrl.Snapshot()
			if err != nil {
				c.SSEvent("error", gin.H{"error": err.Error()})
				c.Writer.Flush()
				continue
			}
			c.SSEvent("snapshot", dto.ToCartResponse(&cart))
			c.Writer.Flush()
		}
	}
}

// streamOrders streams the store's full order collection on every change.
func (w *watchHandler) streamOrders(c *gin.Context, storeID string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ctx := c.Request.Context()

	ctrl := docsync.NewListController[domain.Order](
		func(ctx2 context.Context, _ docsync.Scope) (portsrepo.CollectionSubscription, error) {
			return w.repos.OrderRepo.SubscribeOrders(ctx2, storeID)
		},
	)
	defer ctrl.Close()

	if _, err := ctrl.SetScope(ctx, docsync.Scope(fmt.Sprintf("stores/%s/orders", storeID))); err != nil {
		logger.Error("Failed to open orders watch", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open change feed"})
		return
	}

	sseHeaders(c)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ctrl.Updates():
			orders, err := ctrl.Snapshot()
			if err != nil {
				c.SSEvent("error", gin.H{"error": err.Error()})
				c.Writer.Flush()
				continue
			}
			c.SSEvent("snapshot", dto.ToListOrdersResponse(orders, ""))
			c.Writer.Flush()
		}
	}
}

// streamExpenses streams the project's full expense collection on every
// change.
func (w *watchHandler) streamExpenses(c *gin.Context, projectID string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ctx := c.Request.Context()

	ctrl := docsync.NewListController[domain.Expense](
		func(ctx2 context.Context, _ docsync.Scope) (portsrepo.CollectionSubscription, error) {
			return w.repos.ExpenseRepo.SubscribeExpenses(ctx2, projectID)
		},
	)
	defer ctrl.Close()

	if _, err := ctrl.SetScope(ctx, docsync.Scope(fmt.Sprintf("projects/%s/expenses", projectID))); err != nil {
		logger.Error("Failed to open expenses watch", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open change feed"})
		return
	}

	sseHeaders(c)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ctrl.Updates():
			expenses, err := ctrl.Snapshot()
			if err != nil {
				c.SSEvent("error", gin.H{"error": err.Error()})
				c.Writer.Flush()
				continue
			}
			c.SSEvent("snapshot", dto.ToListExpenseResponse(expenses))
			c.Writer.Flush()
		}
	}
}
