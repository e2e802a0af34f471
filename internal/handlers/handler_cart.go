package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/storekit/storefront_backend/internal/core/ports/services"
	"github.com/storekit/storefront_backend/internal/dto"
	"github.com/storekit/storefront_backend/internal/middleware"
)

// cartHandler handles HTTP requests related to the caller's shopping cart.
// The cart is scoped to (storeID from the path, userID from the token).
type cartHandler struct {
	cartService portssvc.CartSvcFacade
	watcher     *watchHandler
}

// newCartHandler creates a new cartHandler.
func newCartHandler(cs portssvc.CartSvcFacade, w *watchHandler) *cartHandler {
	return &cartHandler{cartService: cs, watcher: w}
}

// registerCartRoutes registers routes related to the cart.
func registerCartRoutes(rg *gin.RouterGroup, cartService portssvc.CartSvcFacade, watcher *watchHandler) {
	h := newCartHandler(cartService, watcher)

	cart := rg.Group("/stores/:storeID/cart")
	{
		cart.GET("", h.getCart)
		cart.GET("/watch", h.watchCart)
		cart.POST("/items", h.addItem)
		cart.PUT("/items", h.updateQuantity)
		cart.DELETE("/items/:productID", h.removeItem)
		cart.POST("/discount", h.applyDiscount)
		cart.DELETE("", h.clearCart)
	}
}

// getCart godoc
// @Summary Get the caller's cart
// @Description Retrieves the cart for the logged-in user in the given store. Returns an empty cart if none exists yet.
// @Tags cart
// @Produce json
// @Param storeID path string true "Store ID"
// @Success 200 {object} dto.CartResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to retrieve cart"
// @Security BearerAuth
// @Router /stores/{storeID}/cart [get]
func (h *cartHandler) getCart(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), storeID, userID)
	if err != nil {
		logger.Error("Failed to get cart from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve cart"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCartResponse(cart))
}

// watchCart godoc
// @Summary Watch the caller's cart
// @Description Streams cart snapshots as server-sent events. The initial state is delivered first, then every remote change.
// @Tags cart
// @Produce text/event-stream
// @Param storeID path string true "Store ID"
// @Success 200 {string} string "SSE stream of dto.CartResponse"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /stores/{storeID}/cart/watch [get]
func (h *cartHandler) watchCart(c *gin.Context) {
	storeID := c.Param("storeID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	h.watcher.streamCart(c, storeID, userID)
}

// addItem godoc
// @Summary Add an item to the cart
// @Description Adds a line item, merging quantities when the (product, variant) pair is already present.
// @Tags cart
// @Accept json
// @Produce json
// @Param storeID path string true "Store ID"
// @Param item body dto.AddCartItemRequest true "Item details"
// @Success 200 {object} dto.CartResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to update cart"
// @Security BearerAuth
// @Router /stores/{storeID}/cart/items [post]
func (h *cartHandler) addItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")

	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddItem", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), storeID, userID, req)
	if err != nil {
		logger.Error("Failed to add item to cart", slog.String("error", err.Error()), slog.String("product_id", req.ProductID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCartResponse(cart))
}

// updateQuantity godoc
// @Summary Update a line quantity
// @Description Replaces the quantity of a line item. A quantity of zero or less removes the line.
// @Tags cart
// @Accept json
// @Produce json
// @Param storeID path string true "Store ID"
// @Param item body dto.UpdateCartQuantityRequest true "Quantity update"
// @Success 200 {object} dto.CartResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to update cart"
// @Security BearerAuth
// @Router /stores/{storeID}/cart/items [put]
func (h *cartHandler) updateQuantity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")

	var req dto.UpdateCartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateQuantity", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cart, err := h.cartService.UpdateQuantity(c.Request.Context(), storeID, userID, req)
	if err != nil {
		logger.Error("Failed to update cart quantity", slog.String("error", err.Error()), slog.String("product_id", req.ProductID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCartResponse(cart))
}

// removeItem godoc
// @Summary Remove an item from the cart
// @Description Removes a line item. Removing an absent line is a no-op and still returns the current cart.
// @Tags cart
// @Produce json
// @Param storeID path string true "Store ID"
// @Param productID path string true "Product ID"
// @Param variantID query string false "Variant ID"
// @Success 200 {object} dto.CartResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to update cart"
// @Security BearerAuth
// @Router /stores/{storeID}/cart/items/{productID} [delete]
func (h *cartHandler) removeItem(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")
	productID := c.Param("productID")

	var variantID *string
	if v, exists := c.GetQuery("variantID"); exists {
		variantID = &v
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cart, err := h.cartService.RemoveItem(c.Request.Context(), storeID, userID, productID, variantID)
	if err != nil {
		logger.Error("Failed to remove cart item", slog.String("error", err.Error()), slog.String("product_id", productID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCartResponse(cart))
}

// applyDiscount godoc
// @Summary Apply a discount code
// @Description Applies a discount, replacing any previous one. Discounts never push the total below zero.
// @Tags cart
// @Accept json
// @Produce json
// @Param storeID path string true "Store ID"
// @Param discount body dto.ApplyDiscountRequest true "Discount details"
// @Success 200 {object} dto.CartResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to update cart"
// @Security BearerAuth
// @Router /stores/{storeID}/cart/discount [post]
func (h *cartHandler) applyDiscount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")

	var req dto.ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ApplyDiscount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	cart, err := h.cartService.ApplyDiscount(c.Request.Context(), storeID, userID, req)
	if err != nil {
		logger.Error("Failed to apply discount", slog.String("error", err.Error()), slog.String("code", req.Code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCartResponse(cart))
}

// clearCart godoc
// @Summary Clear the cart
// @Description Deletes the remote cart document.
// @Tags cart
// @Produce json
// @Param storeID path string true "Store ID"
// @Success 204 "Cart cleared"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to clear cart"
// @Security BearerAuth
// @Router /stores/{storeID}/cart [delete]
func (h *cartHandler) clearCart(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	storeID := c.Param("storeID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.cartService.ClearCart(c.Request.Context(), storeID, userID); err != nil {
		logger.Error("Failed to clear cart", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	c.Status(http.StatusNoContent)
}
