package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados possíveis de uma fatura. 'pendiente' é o único estado não terminal.
const (
	StatusPending   = "pendiente"
	StatusPaid      = "pagada"
	StatusCancelled = "cancelada"
)

// Invoice representa uma fatura imutável criada no checkout
type Invoice struct {
	ID            int64           `json:"id"`
	NumeroFactura string          `json:"numero_factura"`
	UsuarioID     int64           `json:"usuario_id"`
	Fecha         time.Time       `json:"fecha"`
	Total         decimal.Decimal `json:"total"`
	Estado        string          `json:"estado"`
}

// InvoiceSummary é uma fatura com os dados do comprador, para a listagem admin
type InvoiceSummary struct {
	Invoice
	NombreUsuario string `json:"nombre_usuario"`
	CorreoUsuario string `json:"correo_usuario"`
}

// LineItem é uma linha do carrinho entregue ao checkout. O preço é o
// capturado no momento de adicionar ao carrinho, nunca o preço vivo do
// produto.
type LineItem struct {
	ProductoID int64           `json:"producto_id" binding:"required"`
	Cantidad   int             `json:"cantidad" binding:"required,gte=1"`
	Precio     decimal.Decimal `json:"precio"`
}

// Subtotal retorna cantidad × precio com exatidão decimal
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Precio.Mul(decimal.NewFromInt(int64(l.Cantidad)))
}

// ComputeTotal soma os subtotais das linhas. Este é o total autoritativo da
// fatura; nunca é recalculado a partir dos produtos.
func ComputeTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// InvoiceLine é uma linha persistida da fatura, com os dados do produto
// juntados para a tela de detalhe
type InvoiceLine struct {
	ID              int64           `json:"id"`
	FacturaID       int64           `json:"factura_id"`
	ProductoID      int64           `json:"producto_id"`
	Cantidad        int             `json:"cantidad"`
	Precio          decimal.Decimal `json:"precio"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ProductoNombre  string          `json:"producto_nombre"`
	Imagen          *string         `json:"imagen"`
	CategoriaNombre *string         `json:"categoria_nombre"`
	MarcaNombre     *string         `json:"marca_nombre"`
}

// TopProduct é um produto no ranking de mais vendidos
type TopProduct struct {
	Nombre        string          `json:"nombre"`
	Imagen        *string         `json:"imagen"`
	TotalVendidos int64           `json:"total_vendidos"`
	TotalVentas   decimal.Decimal `json:"total_ventas"`
}

// MonthlySales agrega as vendas de um mês calendário
type MonthlySales struct {
	Mes           string          `json:"mes"`
	TotalFacturas int64           `json:"total_facturas"`
	TotalVentas   decimal.Decimal `json:"total_ventas"`
}

// GroupSales agrega unidades vendidas por categoría ou marca
type GroupSales struct {
	Nombre        string `json:"nombre"`
	TotalVendidos int64  `json:"total_vendidos"`
}

// Summary é o resumo geral do painel de estatísticas
type Summary struct {
	TotalFacturas  int64           `json:"total_facturas"`
	TotalVentas    decimal.Decimal `json:"total_ventas"`
	TotalClientes  int64           `json:"total_clientes"`
	TotalProductos int64           `json:"total_productos"`
	PrecioPromedio decimal.Decimal `json:"precio_promedio"`
}

// Statistics é o snapshot completo do painel; sempre recalculado na hora da
// consulta, sem cache
type Statistics struct {
	ProductosVendidos  []TopProduct   `json:"productosVendidos"`
	VentasMensuales    []MonthlySales `json:"ventasMensuales"`
	CategoriasVendidas []GroupSales   `json:"categoriasVendidas"`
	MarcasVendidas     []GroupSales   `json:"marcasVendidas"`
	Resumen            Summary        `json:"resumen"`
}
