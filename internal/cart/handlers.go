package cart

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mitienda/api/internal/auth"
)

// UseCaseInterface define a interface para o use case
type UseCaseInterface interface {
	GetCart(ctx context.Context, userID int64) ([]Line, error)
	AddItem(ctx context.Context, userID int64, req AddItemRequest) error
	UpdateQuantity(ctx context.Context, userID int64, req UpdateQuantityRequest) error
	RemoveItem(ctx context.Context, userID, detalleID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

// Handler contém os handlers HTTP do carrinho
type Handler struct {
	useCase UseCaseInterface
}

// NewHandler cria uma nova instância de Handler
func NewHandler(useCase UseCaseInterface) *Handler {
	return &Handler{
		useCase: useCase,
	}
}

// GetCart lê o carrinho; só o dono ou um admin
func (h *Handler) GetCart(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("usuarioId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id", "code": "validation"})
		return
	}

	claims, _ := auth.ClaimsFrom(c)
	if claims == nil || (claims.Rol != auth.RoleAdmin && claims.UserID != userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's cart", "code": "forbidden"})
		return
	}

	lines, err := h.useCase.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

// AddItem adiciona um produto ao carrinho do usuário autenticado
func (h *Handler) AddItem(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization token required", "code": "unauthorized"})
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	if err := h.useCase.AddItem(c.Request.Context(), claims.UserID, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "Producto agregado al carrito"})
}

// UpdateQuantity fixa a cantidad de uma linha do usuário autenticado
func (h *Handler) UpdateQuantity(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization token required", "code": "unauthorized"})
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	if err := h.useCase.UpdateQuantity(c.Request.Context(), claims.UserID, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "Cantidad actualizada"})
}

// RemoveItem apaga uma linha do carrinho do usuário autenticado
func (h *Handler) RemoveItem(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization token required", "code": "unauthorized"})
		return
	}

	detalleID, err := strconv.ParseInt(c.Param("detalleId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line id", "code": "validation"})
		return
	}

	if err := h.useCase.RemoveItem(c.Request.Context(), claims.UserID, detalleID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "Producto eliminado del carrito"})
}

// ClearCart esvazia o carrinho do usuário autenticado
func (h *Handler) ClearCart(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization token required", "code": "unauthorized"})
		return
	}

	if err := h.useCase.ClearCart(c.Request.Context(), claims.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "Carrito vaciado correctamente"})
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
	}
}
