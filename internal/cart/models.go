package cart

import (
	"github.com/shopspring/decimal"
)

// Line é uma linha do carrinho, juntada com os dados vivos do produto. O
// precio é o capturado quando o produto entrou no carrinho; precio_actual é
// o preço vivo do catálogo, só para exibição.
type Line struct {
	CarritoID    int64           `json:"carrito_id"`
	DetalleID    int64           `json:"detalle_id"`
	ProductoID   int64           `json:"producto_id"`
	Nombre       string          `json:"nombre"`
	Cantidad     int             `json:"cantidad"`
	Precio       decimal.Decimal `json:"precio"`
	PrecioActual decimal.Decimal `json:"precio_actual"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Imagen       *string         `json:"imagen"`
}

// AddItemRequest adiciona (ou funde) uma linha no carrinho. O preço é
// capturado do produto no servidor, nunca aceito do cliente.
type AddItemRequest struct {
	ProductoID int64 `json:"producto_id" binding:"required"`
	Cantidad   int   `json:"cantidad" binding:"required,gte=1"`
}

// UpdateQuantityRequest fixa a quantidade de uma linha existente
type UpdateQuantityRequest struct {
	DetalleID int64 `json:"detalle_id" binding:"required"`
	Cantidad  int   `json:"cantidad" binding:"required,gte=1"`
}
