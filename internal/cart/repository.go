package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository define a interface para operações de banco de dados do carrinho
type Repository interface {
	// GetLines retorna as linhas do carrinho do usuário; vazio se ele ainda
	// não tem carrinho
	GetLines(ctx context.Context, userID int64) ([]Line, error)

	// GetLine retorna a linha do produto no carrinho do usuário; nil quando
	// o produto ainda não está no carrinho
	GetLine(ctx context.Context, userID, productoID int64) (*Line, error)

	// GetProductPrice lê o preço vivo do produto para capturá-lo na adição;
	// segundo retorno false quando o produto não existe
	GetProductPrice(ctx context.Context, productoID int64) (decimal.Decimal, bool, error)

	// AddLine cria o carrinho se preciso e insere a linha nova com o preço
	// capturado
	AddLine(ctx context.Context, userID, productoID int64, cantidad int, precio decimal.Decimal) error

	// UpdateQuantity fixa a cantidad de uma linha do carrinho do usuário
	UpdateQuantity(ctx context.Context, userID, detalleID int64, cantidad int) (bool, error)

	// RemoveLine apaga uma linha do carrinho do usuário
	RemoveLine(ctx context.Context, userID, detalleID int64) (bool, error)

	// ClearCart apaga todas as linhas do carrinho do usuário
	ClearCart(ctx context.Context, userID int64) error
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

// GetLines junta as linhas do carrinho com os dados vivos do produto
func (r *PostgresRepository) GetLines(ctx context.Context, userID int64) ([]Line, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, cd.id, cd.producto_id, p.nombre, cd.cantidad,
		       cd.precio, p.precio, (cd.cantidad * cd.precio), p.imagen
		FROM carrito c
		JOIN carrito_detalle cd ON c.id = cd.carrito_id
		JOIN productos p ON cd.producto_id = p.id
		WHERE c.usuario_id = $1
		ORDER BY cd.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.CarritoID, &line.DetalleID, &line.ProductoID,
			&line.Nombre, &line.Cantidad, &line.Precio, &line.PrecioActual,
			&line.Subtotal, &line.Imagen); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// GetLine busca a linha de um produto no carrinho do usuário
func (r *PostgresRepository) GetLine(ctx context.Context, userID, productoID int64) (*Line, error) {
	var line Line
	line.ProductoID = productoID
	err := r.db.QueryRow(ctx, `
		SELECT cd.carrito_id, cd.id, cd.cantidad, cd.precio
		FROM carrito_detalle cd
		JOIN carrito c ON cd.carrito_id = c.id
		WHERE c.usuario_id = $1 AND cd.producto_id = $2
	`, userID, productoID).Scan(&line.CarritoID, &line.DetalleID, &line.Cantidad, &line.Precio)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// GetProductPrice lê o preço vivo do produto
func (r *PostgresRepository) GetProductPrice(ctx context.Context, productoID int64) (decimal.Decimal, bool, error) {
	var precio decimal.Decimal
	err := r.db.QueryRow(ctx,
		`SELECT precio FROM productos WHERE id = $1`, productoID).Scan(&precio)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return precio, true, nil
}

// AddLine garante o carrinho e insere a linha nova. O ON CONFLICT soma a
// cantidad sem tocar o precio, caso duas adições do mesmo produto corram em
// paralelo.
func (r *PostgresRepository) AddLine(ctx context.Context, userID, productoID int64, cantidad int, precio decimal.Decimal) error {
	var carritoID int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO carrito (usuario_id)
		VALUES ($1)
		ON CONFLICT (usuario_id) DO UPDATE SET usuario_id = EXCLUDED.usuario_id
		RETURNING id
	`, userID).Scan(&carritoID)
	if err != nil {
		return fmt.Errorf("failed to ensure cart: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO carrito_detalle (carrito_id, producto_id, cantidad, precio)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (carrito_id, producto_id)
		DO UPDATE SET cantidad = carrito_detalle.cantidad + EXCLUDED.cantidad
	`, carritoID, productoID, cantidad, precio)
	if err != nil {
		return fmt.Errorf("failed to add cart line: %w", err)
	}
	return nil
}

// UpdateQuantity fixa a cantidad, restrita ao carrinho do próprio usuário
func (r *PostgresRepository) UpdateQuantity(ctx context.Context, userID, detalleID int64, cantidad int) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE carrito_detalle cd
		SET cantidad = $1
		FROM carrito c
		WHERE cd.id = $2 AND cd.carrito_id = c.id AND c.usuario_id = $3
	`, cantidad, detalleID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to update cart quantity: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveLine apaga a linha, restrita ao carrinho do próprio usuário
func (r *PostgresRepository) RemoveLine(ctx context.Context, userID, detalleID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM carrito_detalle cd
		USING carrito c
		WHERE cd.id = $1 AND cd.carrito_id = c.id AND c.usuario_id = $2
	`, detalleID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove cart line: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClearCart esvazia o carrinho inteiro do usuário; um carrinho já vazio não
// é erro
func (r *PostgresRepository) ClearCart(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM carrito_detalle
		WHERE carrito_id IN (SELECT id FROM carrito WHERE usuario_id = $1)
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
