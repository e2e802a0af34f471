package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storekit/storefront_backend/internal/apperrors"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
	"github.com/storekit/storefront_backend/internal/dto"
	"github.com/storekit/storefront_backend/internal/middleware"
)

// orderHandler handles HTTP requests related to orders and checkout.
type orderHandler struct {
	orderService portssvc.OrderSvcFacade
	watcher      *watchHandler
}

// newOrderHandler creates a new orderHandler.
func newOrderHandler(os portssvc.OrderSvcFacade, w *watchHandler) *orderHandler {
	return &orderHandler{orderService: os, watcher: w}
}

// registerOrderRoutes registers routes related to orders.
func registerOrderRoutes(rg *gin.RouterGroup, orderService portssvc.OrderSvcFacade, watcher *watchHandler) {
	h := newOrderHandler(orderService, watcher)

	store := rg.Group("/stores/:storeID")
	{
		store.POST("/checkout", h.checkout)

		orders := store.Group("/orders")
		{
			orders.GET("", h.listOrders)
			orders.GET("/watch", h.watchOrders)
			orders.GET("/:orderID", h.getOrder)
			orders.PATCH("/:orderID/status", h.updateStatus)
			orders.PATCH("/:orderID/payment-status", h.updatePaymentStatus)
			orders.POST("/:orderID/tracking", h.attachTracking)
			orders.POST("/:orderID/notes", h.addNote)
			orders.POST("/:orderID/refund", h.refund)
		}
	}
}

// respondOrderError maps service errors onto HTTP statuses. Payment
// collaborator messages pass through verbatim.
func respondOrderError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	if pe, ok := apperrors.AsPaymentError(err); ok {
		logger.Warn("Payment collaborator rejected operation", slog.String("error", pe.Message))
		c.JSON(http.StatusPaymentRequired, gin.H{"error": pe.Message})
		return
	}
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Conflicting state transition", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// checkout godoc
// @Summary Checkout the caller's cart
// @Description Snapshots the cart into a new order with a sequential number, clears the cart in the same transaction, and opens a payment intent.
// @Tags orders
// @Accept json
// @Produce json
// @Param storeID path string true "Store ID"
// @Param checkout body dto.CheckoutRequest true "Checkout details"
// @Success 201 {object} dto.CheckoutResponse
// @Failure 400 {object} map[string]string "Invalid input or empty cart"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 402 {object} map[string]string "Payment collaborator error (verbatim)"
// @Failure 500 {object} map[string]string "Failed to create order"
// @Security BearerAuth
// @Router /stores/{storeID}/checkout [post]
func (h *orderHandler) checkout(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Checkout", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	resp, err := h.orderService.Checkout(c.Request.Context(), storeID, userID, req)
	if err != nil {
		respondOrderError(c, logger, err, "Failed to create order")
		return
	}

	logger.Info("Checkout completed", slog.String("order_number", resp.Order.OrderNumber))
	c.JSON(http.StatusCreated, resp)
}

// listOrders godoc
// @Summary List orders
// @Description Retrieves a page of the store's orders, newest first. Pass the returned nextToken to fetch the next page.
// @Tags orders
// @Produce json
// @Param storeID path string true "Store ID"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListOrdersResponse
// @Failure 400 {object} map[string]string "Invalid pagination parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list orders"
// @Security BearerAuth
// @Router /stores/{storeID}/orders [get]
func (h *orderHandler) listOrders(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")

	var params dto.ListOrdersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid list parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.orderService.ListOrders(c.Request.Context(), storeID, params)
	if err != nil {
		respondOrderError(c, logger, err, "Failed to list orders")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// watchOrders godoc
// @Summary Watch the store's orders
// @Description Streams the order collection as server-sent events, replacing the full list on every change.
// @Tags orders
// @Produce text/event-stream
// @Param storeID path string true "Store ID"
// @Success 200 {string} string "SSE stream of dto.ListOrdersResponse"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /stores/{storeID}/orders/watch [get]
func (h *orderHandler) watchOrders(c *gin.Context) {
	if _, ok := middleware.GetUserIDFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	h.watcher.streamOrders(c, c.Param("storeID"))
}

// getOrder godoc
// @Summary Get an order by ID
// @Description Retrieves one order within the store.
// @Tags orders
// @Produce json
// @Param storeID path string true "Store ID"
// @Param orderID path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 500 {object} map[string]string "Failed to retrieve order"
// @Security BearerAuth
// @Router /stores/{storeID}/orders/{orderID} [get]
func (h *orderHandler) getOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")
	orderID := c.Param("orderID")

	order, err := h.orderService.GetOrderByID(c.Request.Context(), storeID, orderID)
	if err != nil {
		respondOrderError(c, logger, err, "Failed to retrieve order")
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// updateStatus godoc
// @Summary Update order status
// @Description Moves the order through its status machine. Shipping also marks fulfillment as fulfilled. Illegal transitions return 409.
// @Tags orders
// @Accept json
// @Produce json
// @Param storeID path string true "Store ID"
// @Param orderID path string true "Order ID"
// @Param status body dto.UpdateOrderStatusRequest true "Target status"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} map[string]string "Invalid input format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 409 {object} map[string]string "Illegal status transition"
// @Failure 500 {object} map[string]string "Failed to update order"
// @Security BearerAuth
// @Router /stores/{storeID}/orders/{orderID}/status [patch]
func (h *orderHandler) updateStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")
	orderID := c.Param("orderID")

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateStatus", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), storeID, orderID, req.Status, userID)
	if err != nil {
		respondOrderError(c, logger, err, "Failed to update order")
		return
	}

	logger.Info("Order status updated", slog.String("order_id", orderID), slog.String("status", string(req.Status)))
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// updatePaymentStatus godoc
// @Summary Update payment status
// @Description Sets the payment status. Marking paid also moves the order status to paid.
// @Tags orders
// @Accept json
// @Produce json
// @Param storeID path string true "Store ID"
// @Param orderID path string true "Order ID"
// @Param status body dto.UpdatePaymentStatusRequest true "Target payment status"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} map[string]string "Invalid input format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 500 {object} map[string]string "Failed to update order"
// @Security BearerAuth
// @Router /stores/{storeID}/orders/{orderID}/payment-status [patch]
func (h *orderHandler) updatePaymentStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")
	orderID := c.Param("orderID")

	var req dto.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdatePaymentStatus", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, err := h.orderService.UpdatePaymentStatus(c.Request.Context(), storeID, orderID, req.PaymentStatus, userID)
	if err != nil {
		respondOrderError(c, logger, err, "Failed to update order")
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// attachTracking godoc
// @Summary Attach tracking details
// @Description Records the shipment carrier and tracking number on the order.
// @Tags orders
// @Accept json
// @Produce json
// @Param storeID path string true "Store ID"
// @Param orderID path string true "Order ID"
// @Param tracking body dto.AttachTrackingRequest true "Tracking details"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} map[string]string "Invalid input format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 500 {object} map[string]string "Failed to update order"
// @Security BearerAuth
// @Router /stores/{storeID}/orders/{orderID}/tracking [post]
func (h *orderHandler) attachTracking(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")
	orderID := c.Param("orderID")

	var req dto.AttachTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AttachTracking", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, err := h.orderService.AttachTracking(c.Request.Context(), storeID, orderID, req, userID)
	if err != nil {
		respondOrderError(c, logger, err, "Failed to update order")
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// addNote godoc
// @Summary Add a fulfillment note
// @Description Appends a free-form note to the order.
// @Tags orders
// @Accept json
// @Produce json
// @Param storeID path string true "Store ID"
// @Param orderID path string true "Order ID"
// @Param note body dto.AddOrderNoteRequest true "Note"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} map[string]string "Invalid input format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 500 {object} map[string]string "Failed to update order"
// @Security BearerAuth
// @Router /stores/{storeID}/orders/{orderID}/notes [post]
func (h *orderHandler) addNote(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")
	orderID := c.Param("orderID")

	var req dto.AddOrderNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddNote", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, err := h.orderService.AddNote(c.Request.Context(), storeID, orderID, req.Note, userID)
	if err != nil {
		respondOrderError(c, logger, err, "Failed to update order")
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// refund godoc
// @Summary Refund an order
// @Description Requests a full refund from the payment collaborator and, on success, transitions the order to refunded.
// @Tags orders
// @Produce json
// @Param storeID path string true "Store ID"
// @Param orderID path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 402 {object} map[string]string "Payment collaborator error (verbatim)"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 409 {object} map[string]string "Order is not refundable"
// @Failure 500 {object} map[string]string "Failed to refund order"
// @Security BearerAuth
// @Router /stores/{storeID}/orders/{orderID}/refund [post]
func (h *orderHandler) refund(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")
	orderID := c.Param("orderID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, err := h.orderService.Refund(c.Request.Context(), storeID, orderID, userID)
	if err != nil {
		respondOrderError(c, logger, err, "Failed to refund order")
		return
	}

	logger.Info("Order refunded", slog.String("order_id", orderID))
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}
