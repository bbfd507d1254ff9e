package catalog

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UseCaseInterface define a interface para o use case
type UseCaseInterface interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) error
	DeleteProduct(ctx context.Context, id int64) error

	ListTaxons(ctx context.Context, table string) ([]Taxon, error)
	CreateTaxon(ctx context.Context, table, nombre string) (*Taxon, error)
	UpdateTaxon(ctx context.Context, table string, id int64, nombre string) error
	DeleteTaxon(ctx context.Context, table string, id int64) error
}

// productForm é o corpo multipart do CRUD admin de produtos
type productForm struct {
	Nombre      string `form:"nombre" binding:"required"`
	Descripcion string `form:"descripcion"`
	Precio      string `form:"precio" binding:"required"`
	Stock       int    `form:"stock"`
	CategoriaID int64  `form:"categoria_id" binding:"required"`
	MarcaID     int64  `form:"marca_id" binding:"required"`
}

// Handler contém os handlers HTTP do catálogo
type Handler struct {
	useCase   UseCaseInterface
	uploadDir string
}

// NewHandler cria uma nova instância de Handler. uploadDir é o diretório
// onde as imagens dos produtos são salvas e servidas estaticamente.
func NewHandler(useCase UseCaseInterface, uploadDir string) *Handler {
	return &Handler{
		useCase:   useCase,
		uploadDir: uploadDir,
	}
}

// ListProducts lista o catálogo (público)
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.useCase.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct lê um produto (público)
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.useCase.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct cria um produto a partir de um corpo multipart, com imagem
// opcional
func (h *Handler) CreateProduct(c *gin.Context) {
	in, ok := h.bindProduct(c)
	if !ok {
		return
	}

	product, err := h.useCase.CreateProduct(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"mensaje": "Producto creado exitosamente",
		"id":      product.ID,
	})
}

// UpdateProduct atualiza um produto; sem arquivo novo a imagem atual fica
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	in, ok := h.bindProduct(c)
	if !ok {
		return
	}

	if err := h.useCase.UpdateProduct(c.Request.Context(), id, in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "Producto actualizado correctamente"})
}

// DeleteProduct apaga um produto
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.useCase.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mensaje": "Producto eliminado correctamente"})
}

// bindProduct valida o corpo multipart e salva a imagem, se enviada, com um
// nome uuid para nunca colidir nem aceitar caminhos do cliente
func (h *Handler) bindProduct(c *gin.Context) (ProductInput, bool) {
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return ProductInput{}, false
	}

	precio, err := decimal.NewFromString(form.Precio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid precio", "code": "validation"})
		return ProductInput{}, false
	}

	in := ProductInput{
		Nombre:      form.Nombre,
		Descripcion: form.Descripcion,
		Precio:      precio,
		Stock:       form.Stock,
		CategoriaID: form.CategoriaID,
		MarcaID:     form.MarcaID,
	}

	file, err := c.FormFile("imagen")
	if err == nil && file != nil {
		name := uuid.New().String() + filepath.Ext(file.Filename)
		if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, name)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image", "code": "internal"})
			return ProductInput{}, false
		}
		in.Imagen = &name
	}

	return in, true
}

// taxonHandlers devolve o conjunto CRUD para uma tabela de taxonomia
func (h *Handler) taxonList(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		taxons, err := h.useCase.ListTaxons(c.Request.Context(), table)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, taxons)
	}
}

func (h *Handler) taxonCreate(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in TaxonInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
			return
		}
		taxon, err := h.useCase.CreateTaxon(c.Request.Context(), table, in.Nombre)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, taxon)
	}
}

func (h *Handler) taxonUpdate(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var in TaxonInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
			return
		}
		if err := h.useCase.UpdateTaxon(c.Request.Context(), table, id, in.Nombre); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"mensaje": "Actualizado correctamente"})
	}
}

func (h *Handler) taxonDelete(table string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.useCase.DeleteTaxon(c.Request.Context(), table, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"mensaje": "Eliminado correctamente"})
	}
}

// Exposição das rotas de taxonomia por tabela
func (h *Handler) ListCategories(c *gin.Context) { h.taxonList(TableCategorias)(c) }
func (h *Handler) CreateCategory(c *gin.Context) { h.taxonCreate(TableCategorias)(c) }
func (h *Handler) UpdateCategory(c *gin.Context) { h.taxonUpdate(TableCategorias)(c) }
func (h *Handler) DeleteCategory(c *gin.Context) { h.taxonDelete(TableCategorias)(c) }
func (h *Handler) ListBrands(c *gin.Context)     { h.taxonList(TableMarcas)(c) }
func (h *Handler) CreateBrand(c *gin.Context)    { h.taxonCreate(TableMarcas)(c) }
func (h *Handler) UpdateBrand(c *gin.Context)    { h.taxonUpdate(TableMarcas)(c) }
func (h *Handler) DeleteBrand(c *gin.Context)    { h.taxonDelete(TableMarcas)(c) }

func pathID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "code": "validation"})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrInvalidStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrTaxonNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, ErrDuplicateName), errors.Is(err, ErrInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "conflict"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "internal"})
	}
}
