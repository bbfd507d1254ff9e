package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa um produto do catálogo. O stock só é mutado pelo CRUD
// admin e pelo decremento do checkout.
type Product struct {
	ID              int64           `json:"id"`
	Nombre          string          `json:"nombre"`
	Descripcion     string          `json:"descripcion"`
	Precio          decimal.Decimal `json:"precio"`
	Stock           int             `json:"stock"`
	CategoriaID     int64           `json:"categoria_id"`
	MarcaID         int64           `json:"marca_id"`
	Imagen          *string         `json:"imagen"`
	CategoriaNombre *string         `json:"categoria_nombre"`
	MarcaNombre     *string         `json:"marca_nombre"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Taxon é uma categoría ou marca
type Taxon struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// ProductInput são os campos editáveis de um produto. Imagen é o nome do
// arquivo já salvo; nil preserva a imagem atual num update.
type ProductInput struct {
	Nombre      string
	Descripcion string
	Precio      decimal.Decimal
	Stock       int
	CategoriaID int64
	MarcaID     int64
	Imagen      *string
}

// TaxonInput é o corpo de criação/edição de categorías e marcas
type TaxonInput struct {
	Nombre string `json:"nombre" binding:"required"`
}
