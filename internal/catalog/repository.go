package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicateName é retornado quando o nombre único já existe
	ErrDuplicateName = errors.New("name already exists")
	// ErrInUse é retornado quando a linha é referenciada por outra tabela
	ErrInUse = errors.New("row is referenced by other records")
)

const (
	uniqueViolationCode = "23505"
	fkViolationCode     = "23503"
)

// Repository define a interface para operações de banco de dados do catálogo
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) (bool, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)

	ListTaxons(ctx context.Context, table string) ([]Taxon, error)
	CreateTaxon(ctx context.Context, table, nombre string) (*Taxon, error)
	UpdateTaxon(ctx context.Context, table string, id int64, nombre string) (bool, error)
	DeleteTaxon(ctx context.Context, table string, id int64) (bool, error)
}

// Tabelas de taxonomia aceitas por ListTaxons e afins
const (
	TableCategorias = "categorias"
	TableMarcas     = "marcas"
)

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

func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return ErrDuplicateName
		case fkViolationCode:
			return ErrInUse
		}
	}
	return err
}

const productSelect = `
	SELECT p.id, p.nombre, p.descripcion, p.precio, p.stock,
	       p.categoria_id, p.marca_id, p.imagen,
	       c.nombre AS categoria_nombre, m.nombre AS marca_nombre,
	       p.created_at, p.updated_at
	FROM productos p
	LEFT JOIN categorias c ON p.categoria_id = c.id
	LEFT JOIN marcas m ON p.marca_id = m.id
`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.Precio, &p.Stock,
		&p.CategoriaID, &p.MarcaID, &p.Imagen,
		&p.CategoriaNombre, &p.MarcaNombre, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts lista o catálogo completo, mais recente primeiro
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, productSelect+` ORDER BY p.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.Precio, &p.Stock,
			&p.CategoriaID, &p.MarcaID, &p.Imagen,
			&p.CategoriaNombre, &p.MarcaNombre, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct busca um produto pelo id; nil quando não existe
func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
}

// CreateProduct insere um produto e retorna a linha completa
func (r *PostgresRepository) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO productos (nombre, descripcion, precio, stock, categoria_id, marca_id, imagen)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, in.Nombre, in.Descripcion, in.Precio, in.Stock, in.CategoriaID, in.MarcaID, in.Imagen).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", translatePgError(err))
	}
	return r.GetProduct(ctx, id)
}

// UpdateProduct atualiza um produto; imagen nil preserva a atual
func (r *PostgresRepository) UpdateProduct(ctx context.Context, id int64, in ProductInput) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE productos
		SET nombre = $1, descripcion = $2, precio = $3, stock = $4,
		    categoria_id = $5, marca_id = $6,
		    imagen = COALESCE($7, imagen),
		    updated_at = NOW()
		WHERE id = $8
	`, in.Nombre, in.Descripcion, in.Precio, in.Stock, in.CategoriaID, in.MarcaID, in.Imagen, id)
	if err != nil {
		return false, fmt.Errorf("failed to update product: %w", translatePgError(err))
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteProduct apaga um produto não referenciado por faturas nem carrinhos
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM productos WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", translatePgError(err))
	}
	return tag.RowsAffected() == 1, nil
}

// ListTaxons lista categorías ou marcas
func (r *PostgresRepository) ListTaxons(ctx context.Context, table string) ([]Taxon, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT id, nombre FROM %s ORDER BY nombre`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taxons := []Taxon{}
	for rows.Next() {
		var t Taxon
		if err := rows.Scan(&t.ID, &t.Nombre); err != nil {
			return nil, err
		}
		taxons = append(taxons, t)
	}
	return taxons, rows.Err()
}

// CreateTaxon insere uma categoría ou marca
func (r *PostgresRepository) CreateTaxon(ctx context.Context, table, nombre string) (*Taxon, error) {
	taxon := Taxon{Nombre: nombre}
	err := r.db.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (nombre) VALUES ($1) RETURNING id`, table), nombre).Scan(&taxon.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create taxon: %w", translatePgError(err))
	}
	return &taxon, nil
}

// UpdateTaxon renomeia uma categoría ou marca
func (r *PostgresRepository) UpdateTaxon(ctx context.Context, table string, id int64, nombre string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET nombre = $1 WHERE id = $2`, table), nombre, id)
	if err != nil {
		return false, fmt.Errorf("failed to update taxon: %w", translatePgError(err))
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteTaxon apaga uma categoría ou marca sem produtos associados
func (r *PostgresRepository) DeleteTaxon(ctx context.Context, table string, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete taxon: %w", translatePgError(err))
	}
	return tag.RowsAffected() == 1, nil
}
