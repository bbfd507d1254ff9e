package invoices

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mitienda/api/internal/auth"
)

// UseCaseInterface define a interface para o use case
type UseCaseInterface interface {
	Checkout(ctx context.Context, userID int64, items []LineItem) (*Invoice, error)
	UpdateStatus(ctx context.Context, id int64, estado string) error
	GetDetail(ctx context.Context, id int64) (*Invoice, []InvoiceLine, error)
	ListAll(ctx context.Context) ([]InvoiceSummary, error)
	ListByUser(ctx context.Context, userID int64) ([]Invoice, error)
	Statistics(ctx context.Context) (*Statistics, error)
}

// CheckoutRequest representa a requisição de checkout: o conteúdo atual do
// carrinho, lido pelo caller imediatamente antes da chamada
type CheckoutRequest struct {
	Productos []LineItem `json:"productos" binding:"required"`
}

// UpdateStatusRequest representa a requisição de mudança de estado
type UpdateStatusRequest struct {
	Estado string `json:"estado" binding:"required"`
}

// Handler contém os handlers HTTP de faturas
type Handler struct {
	useCase   UseCaseInterface
	tracer    trace.Tracer
	checkouts metric.Int64Counter
}

// NewHandler cria uma nova instância de Handler
func NewHandler(useCase UseCaseInterface, tracer trace.Tracer) *Handler {
	meter := otel.Meter("invoices")
	checkouts, _ := meter.Int64Counter("checkouts_total",
		metric.WithDescription("Number of checkout attempts, by result"))

	return &Handler{
		useCase:   useCase,
		tracer:    tracer,
		checkouts: checkouts,
	}
}

// Checkout converte o carrinho do usuário autenticado numa fatura
func (h *Handler) Checkout(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "checkout")
	defer span.End()

	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization token required", "code": "unauthorized"})
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	span.SetAttributes(
		attribute.Int64("user_id", claims.UserID),
		attribute.Int("line_items", len(req.Productos)),
	)

	invoice, err := h.useCase.Checkout(ctx, claims.UserID, req.Productos)
	if err != nil {
		span.RecordError(err)
		h.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))
		respondError(c, err)
		return
	}

	span.SetAttributes(attribute.String("numero_factura", invoice.NumeroFactura))
	h.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "success")))

	c.JSON(http.StatusCreated, gin.H{
		"mensaje":        "Factura creada correctamente",
		"factura_id":     invoice.ID,
		"numero_factura": invoice.NumeroFactura,
		"factura":        invoice,
	})
}

// UpdateStatus muda o estado de uma fatura (somente admin)
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id", "code": "validation"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	if err := h.useCase.UpdateStatus(c.Request.Context(), id, req.Estado); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"mensaje": "Estado de factura actualizado correctamente"})
}

// GetDetail retorna a fatura com as suas linhas. O dono ou um admin podem vê-la.
func (h *Handler) GetDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id", "code": "validation"})
		return
	}

	invoice, lines, err := h.useCase.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	claims, _ := auth.ClaimsFrom(c)
	if claims == nil || (claims.Rol != auth.RoleAdmin && claims.UserID != invoice.UsuarioID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's invoice", "code": "forbidden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"factura":  invoice,
		"detalles": lines,
	})
}

// ListAll retorna todas as faturas (somente admin)
func (h *Handler) ListAll(c *gin.Context) {
	invoices, err := h.useCase.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// ListByUser retorna o histórico de faturas de um usuário
func (h *Handler) ListByUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("usuarioId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id", "code": "validation"})
		return
	}

	claims, _ := auth.ClaimsFrom(c)
	if claims == nil || (claims.Rol != auth.RoleAdmin && claims.UserID != userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's invoices", "code": "forbidden"})
		return
	}

	invoices, err := h.useCase.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// Statistics retorna o painel completo (somente admin)
func (h *Handler) Statistics(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "invoice_statistics")
	defer span.End()

	stats, err := h.useCase.Statistics(ctx)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// respondError mapeia os erros de negócio para status HTTP e um código
// verificável por máquina
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInvalidLineItem), errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrStatusFinal):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "conflict"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
	}
}
