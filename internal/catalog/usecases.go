package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrTaxonNotFound   = errors.New("taxon not found")
	ErrInvalidPrice    = errors.New("price cannot be negative")
	ErrInvalidStock    = errors.New("stock cannot be negative")
)

// UseCase contém a lógica de negócio do catálogo
type UseCase struct {
	repository Repository
	cache      Cache
}

// NewUseCase cria uma nova instância de UseCase. cache pode ser nil.
func NewUseCase(repository Repository, cache Cache) *UseCase {
	return &UseCase{
		repository: repository,
		cache:      cache,
	}
}

// ListProducts lê o catálogo, servindo do cache quando possível
func (uc *UseCase) ListProducts(ctx context.Context) ([]Product, error) {
	if uc.cache != nil {
		if products, ok := uc.cache.GetProducts(ctx); ok {
			return products, nil
		}
	}

	products, err := uc.repository.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		uc.cache.SetProducts(ctx, products)
	}
	return products, nil
}

// GetProduct lê um produto, servindo do cache quando possível
func (uc *UseCase) GetProduct(ctx context.Context, id int64) (*Product, error) {
	if uc.cache != nil {
		if product, ok := uc.cache.GetProduct(ctx, id); ok {
			return product, nil
		}
	}

	product, err := uc.repository.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if uc.cache != nil {
		uc.cache.SetProduct(ctx, product)
	}
	return product, nil
}

func validateProduct(in ProductInput) error {
	if in.Precio.IsNegative() {
		return ErrInvalidPrice
	}
	if in.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// CreateProduct insere um produto novo
func (uc *UseCase) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	product, err := uc.repository.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, product.ID)
	log.Printf("✅ [CATALOG] Product %d created (%s)", product.ID, product.Nombre)
	return product, nil
}

// UpdateProduct atualiza um produto existente
func (uc *UseCase) UpdateProduct(ctx context.Context, id int64, in ProductInput) error {
	if err := validateProduct(in); err != nil {
		return err
	}

	ok, err := uc.repository.UpdateProduct(ctx, id, in)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}

	uc.invalidate(ctx, id)
	return nil
}

// DeleteProduct apaga um produto
func (uc *UseCase) DeleteProduct(ctx context.Context, id int64) error {
	ok, err := uc.repository.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}

	uc.invalidate(ctx, id)
	return nil
}

// ListTaxons lista categorías ou marcas
func (uc *UseCase) ListTaxons(ctx context.Context, table string) ([]Taxon, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	return uc.repository.ListTaxons(ctx, table)
}

// CreateTaxon insere uma categoría ou marca
func (uc *UseCase) CreateTaxon(ctx context.Context, table, nombre string) (*Taxon, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	return uc.repository.CreateTaxon(ctx, table, nombre)
}

// UpdateTaxon renomeia uma categoría ou marca
func (uc *UseCase) UpdateTaxon(ctx context.Context, table string, id int64, nombre string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	ok, err := uc.repository.UpdateTaxon(ctx, table, id, nombre)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTaxonNotFound
	}
	return nil
}

// DeleteTaxon apaga uma categoría ou marca
func (uc *UseCase) DeleteTaxon(ctx context.Context, table string, id int64) error {
	if err := checkTable(table); err != nil {
		return err
	}
	ok, err := uc.repository.DeleteTaxon(ctx, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTaxonNotFound
	}
	return nil
}

// checkTable garante que só as duas tabelas de taxonomia chegam ao SQL
func checkTable(table string) error {
	switch table {
	case TableCategorias, TableMarcas:
		return nil
	}
	return fmt.Errorf("unknown taxon table %q", table)
}

func (uc *UseCase) invalidate(ctx context.Context, id int64) {
	if uc.cache != nil {
		uc.cache.InvalidateProducts(ctx, []int64{id})
	}
}
