package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository define a interface para operações de banco de dados de faturas
type Repository interface {
	// BeginTx inicia a transação que envolve o checkout inteiro
	BeginTx(ctx context.Context) (Tx, error)

	// LockProducts trava as linhas dos produtos (FOR UPDATE, em ordem de id
	// para evitar deadlock entre checkouts concorrentes) e retorna o stock
	// atual de cada um. Ids inexistentes simplesmente não aparecem no mapa.
	LockProducts(ctx context.Context, tx Tx, productIDs []int64) (map[int64]int, error)

	// CreateInvoice insere a fatura e retorna id, número e fecha gerados
	CreateInvoice(ctx context.Context, tx Tx, userID int64, total decimal.Decimal) (*Invoice, error)

	// InsertLines insere as linhas da fatura em lote
	InsertLines(ctx context.Context, tx Tx, facturaID int64, items []LineItem) error

	// DecreaseStock executa o decremento condicional de stock. Retorna false
	// quando nenhuma linha foi afetada (stock insuficiente ou produto ausente).
	DecreaseStock(ctx context.Context, tx Tx, productoID int64, cantidad int) (bool, error)

	// ClearCart apaga todas as linhas do carrinho do usuário
	ClearCart(ctx context.Context, tx Tx, userID int64) error

	// UpdateStatus muda o estado de uma fatura ainda pendente. Retorna false
	// quando a fatura não existe ou já está num estado terminal.
	UpdateStatus(ctx context.Context, id int64, estado string) (bool, error)

	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	GetLines(ctx context.Context, facturaID int64) ([]InvoiceLine, error)
	ListAll(ctx context.Context) ([]InvoiceSummary, error)
	ListByUser(ctx context.Context, userID int64) ([]Invoice, error)
	Statistics(ctx context.Context) (*Statistics, error)
}

// Tx interface para transações
type Tx interface {
	Commit() error
	Rollback() error
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

// PostgresRepository implementa Repository usando PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewRepository cria uma nova instância de PostgresRepository
func NewRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{
		db: db,
	}
}

// BeginTx inicia uma nova transação
func (r *PostgresRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PostgresTx{tx: tx}, nil
}

// LockProducts obtém os produtos com lock pessimista (SELECT FOR UPDATE)
func (r *PostgresRepository) LockProducts(ctx context.Context, tx Tx, productIDs []int64) (map[int64]int, error) {
	pgTx := tx.(*PostgresTx).tx

	rows, err := pgTx.Query(ctx, `
		SELECT id, stock
		FROM productos
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	stocks := make(map[int64]int, len(productIDs))
	for rows.Next() {
		var id int64
		var stock int
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, fmt.Errorf("failed to scan locked product: %w", err)
		}
		stocks[id] = stock
	}
	return stocks, rows.Err()
}

// CreateInvoice insere a fatura; numero_factura e fecha são gerados pelo banco
func (r *PostgresRepository) CreateInvoice(ctx context.Context, tx Tx, userID int64, total decimal.Decimal) (*Invoice, error) {
	pgTx := tx.(*PostgresTx).tx

	invoice := Invoice{
		UsuarioID: userID,
		Total:     total,
		Estado:    StatusPending,
	}
	err := pgTx.QueryRow(ctx, `
		INSERT INTO facturas (usuario_id, total, estado)
		VALUES ($1, $2, $3)
		RETURNING id, numero_factura, fecha
	`, userID, total, StatusPending).Scan(&invoice.ID, &invoice.NumeroFactura, &invoice.Fecha)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}
	return &invoice, nil
}

// InsertLines insere as linhas da fatura num único round-trip (pgx.Batch)
func (r *PostgresRepository) InsertLines(ctx context.Context, tx Tx, facturaID int64, items []LineItem) error {
	pgTx := tx.(*PostgresTx).tx

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`
			INSERT INTO factura_detalle (factura_id, producto_id, cantidad, precio, subtotal)
			VALUES ($1, $2, $3, $4, $5)
		`, facturaID, item.ProductoID, item.Cantidad, item.Precio, item.Subtotal())
	}

	results := pgTx.SendBatch(ctx, batch)
	defer results.Close()

	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert invoice line: %w", err)
		}
	}
	return results.Close()
}

// DecreaseStock decrementa o stock apenas quando há quantidade suficiente
func (r *PostgresRepository) DecreaseStock(ctx context.Context, tx Tx, productoID int64, cantidad int) (bool, error) {
	pgTx := tx.(*PostgresTx).tx

	tag, err := pgTx.Exec(ctx, `
		UPDATE productos
		SET stock = stock - $1,
		    updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`, cantidad, productoID)
	if err != nil {
		return false, fmt.Errorf("failed to decrease stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClearCart esvazia o carrinho inteiro do usuário, identificado pela posse
// do carrinho e não pelas linhas passadas ao checkout
func (r *PostgresRepository) ClearCart(ctx context.Context, tx Tx, userID int64) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		DELETE FROM carrito_detalle
		WHERE carrito_id IN (SELECT id FROM carrito WHERE usuario_id = $1)
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// UpdateStatus transiciona pendiente → estado; estados terminais ficam congelados
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, estado string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE facturas
		SET estado = $1
		WHERE id = $2 AND estado = $3
	`, estado, id, StatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to update invoice status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetInvoice busca uma fatura pelo id
func (r *PostgresRepository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	var invoice Invoice
	err := r.db.QueryRow(ctx, `
		SELECT id, numero_factura, usuario_id, fecha, total, estado
		FROM facturas
		WHERE id = $1
	`, id).Scan(&invoice.ID, &invoice.NumeroFactura, &invoice.UsuarioID,
		&invoice.Fecha, &invoice.Total, &invoice.Estado)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetLines busca as linhas de uma fatura com os dados do produto
func (r *PostgresRepository) GetLines(ctx context.Context, facturaID int64) ([]InvoiceLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT fd.id, fd.factura_id, fd.producto_id, fd.cantidad, fd.precio, fd.subtotal,
		       p.nombre, p.imagen, c.nombre, m.nombre
		FROM factura_detalle fd
		JOIN productos p ON fd.producto_id = p.id
		LEFT JOIN categorias c ON p.categoria_id = c.id
		LEFT JOIN marcas m ON p.marca_id = m.id
		WHERE fd.factura_id = $1
		ORDER BY fd.id
	`, facturaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []InvoiceLine
	for rows.Next() {
		var line InvoiceLine
		if err := rows.Scan(&line.ID, &line.FacturaID, &line.ProductoID,
			&line.Cantidad, &line.Precio, &line.Subtotal,
			&line.ProductoNombre, &line.Imagen, &line.CategoriaNombre, &line.MarcaNombre); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ListAll retorna todas as faturas com os dados do comprador (visão admin)
func (r *PostgresRepository) ListAll(ctx context.Context) ([]InvoiceSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT f.id, f.numero_factura, f.usuario_id, f.fecha, f.total, f.estado,
		       u.nombre, u.correo
		FROM facturas f
		JOIN usuarios u ON f.usuario_id = u.id
		ORDER BY f.fecha DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []InvoiceSummary
	for rows.Next() {
		var inv InvoiceSummary
		if err := rows.Scan(&inv.ID, &inv.NumeroFactura, &inv.UsuarioID, &inv.Fecha,
			&inv.Total, &inv.Estado, &inv.NombreUsuario, &inv.CorreoUsuario); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// ListByUser retorna o histórico de faturas de um usuário
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, numero_factura, usuario_id, fecha, total, estado
		FROM facturas
		WHERE usuario_id = $1
		ORDER BY fecha DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.NumeroFactura, &inv.UsuarioID,
			&inv.Fecha, &inv.Total, &inv.Estado); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// Statistics monta o snapshot do painel re-escaneando as tabelas na hora
func (r *PostgresRepository) Statistics(ctx context.Context) (*Statistics, error) {
	stats := Statistics{
		ProductosVendidos:  []TopProduct{},
		VentasMensuales:    []MonthlySales{},
		CategoriasVendidas: []GroupSales{},
		MarcasVendidas:     []GroupSales{},
	}

	// Top 5 produtos mais vendidos; empate desfeito pela ordem de id
	rows, err := r.db.Query(ctx, `
		SELECT p.nombre, p.imagen, SUM(fd.cantidad) AS total_vendidos,
		       SUM(fd.cantidad * fd.precio) AS total_ventas
		FROM factura_detalle fd
		JOIN productos p ON fd.producto_id = p.id
		GROUP BY fd.producto_id, p.nombre, p.imagen
		ORDER BY total_vendidos DESC, fd.producto_id
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	for rows.Next() {
		var tp TopProduct
		if err := rows.Scan(&tp.Nombre, &tp.Imagen, &tp.TotalVendidos, &tp.TotalVentas); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ProductosVendidos = append(stats.ProductosVendidos, tp)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Vendas por mês (últimos 6 meses)
	rows, err = r.db.Query(ctx, `
		SELECT to_char(f.fecha, 'YYYY-MM') AS mes,
		       COUNT(*) AS total_facturas,
		       SUM(f.total) AS total_ventas
		FROM facturas f
		WHERE f.fecha >= NOW() - INTERVAL '6 months'
		GROUP BY to_char(f.fecha, 'YYYY-MM')
		ORDER BY mes DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly sales: %w", err)
	}
	for rows.Next() {
		var ms MonthlySales
		if err := rows.Scan(&ms.Mes, &ms.TotalFacturas, &ms.TotalVentas); err != nil {
			rows.Close()
			return nil, err
		}
		stats.VentasMensuales = append(stats.VentasMensuales, ms)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	groupQueries := []struct {
		sql  string
		dest *[]GroupSales
	}{
		{`
			SELECT c.nombre, SUM(fd.cantidad) AS total_vendidos
			FROM factura_detalle fd
			JOIN productos p ON fd.producto_id = p.id
			LEFT JOIN categorias c ON p.categoria_id = c.id
			GROUP BY c.id, c.nombre
			ORDER BY total_vendidos DESC
			LIMIT 5
		`, &stats.CategoriasVendidas},
		{`
			SELECT m.nombre, SUM(fd.cantidad) AS total_vendidos
			FROM factura_detalle fd
			JOIN productos p ON fd.producto_id = p.id
			LEFT JOIN marcas m ON p.marca_id = m.id
			GROUP BY m.id, m.nombre
			ORDER BY total_vendidos DESC
			LIMIT 5
		`, &stats.MarcasVendidas},
	}
	for _, gq := range groupQueries {
		rows, err = r.db.Query(ctx, gq.sql)
		if err != nil {
			return nil, fmt.Errorf("failed to query group sales: %w", err)
		}
		for rows.Next() {
			var gs GroupSales
			if err := rows.Scan(&gs.Nombre, &gs.TotalVendidos); err != nil {
				rows.Close()
				return nil, err
			}
			*gq.dest = append(*gq.dest, gs)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	// Resumo geral
	err = r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM facturas),
			(SELECT COALESCE(SUM(total), 0) FROM facturas),
			(SELECT COUNT(DISTINCT usuario_id) FROM facturas),
			(SELECT COUNT(*) FROM productos),
			(SELECT COALESCE(AVG(precio), 0) FROM productos)
	`).Scan(&stats.Resumen.TotalFacturas, &stats.Resumen.TotalVentas,
		&stats.Resumen.TotalClientes, &stats.Resumen.TotalProductos,
		&stats.Resumen.PrecioPromedio)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}

	return &stats, nil
}
