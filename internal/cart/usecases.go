package cart

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// UseCase contém a lógica de negócio do carrinho
type UseCase struct {
	repository Repository
}

// NewUseCase cria uma nova instância de UseCase
func NewUseCase(repository Repository) *UseCase {
	return &UseCase{
		repository: repository,
	}
}

// GetCart retorna as linhas do carrinho do usuário
func (uc *UseCase) GetCart(ctx context.Context, userID int64) ([]Line, error) {
	return uc.repository.GetLines(ctx, userID)
}

// AddItem adiciona um produto ao carrinho. Se o produto já está numa linha,
// as cantidades são somadas e o preço capturado na primeira adição é
// preservado; numa linha nova o preço vivo do catálogo é capturado agora.
// É esse preço capturado que o checkout honra mais tarde.
func (uc *UseCase) AddItem(ctx context.Context, userID int64, req AddItemRequest) error {
	if req.Cantidad < 1 {
		return ErrInvalidQuantity
	}

	existing, err := uc.repository.GetLine(ctx, userID, req.ProductoID)
	if err != nil {
		return err
	}
	if existing != nil {
		// Fusão: só a cantidad muda; o precio capturado fica como está
		ok, err := uc.repository.UpdateQuantity(ctx, userID, existing.DetalleID,
			existing.Cantidad+req.Cantidad)
		if err != nil {
			return err
		}
		if !ok {
			return ErrLineNotFound
		}
		return nil
	}

	precio, found, err := uc.repository.GetProductPrice(ctx, req.ProductoID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: producto %d", ErrProductNotFound, req.ProductoID)
	}

	return uc.repository.AddLine(ctx, userID, req.ProductoID, req.Cantidad, precio)
}

// UpdateQuantity fixa a cantidad de uma linha
func (uc *UseCase) UpdateQuantity(ctx context.Context, userID int64, req UpdateQuantityRequest) error {
	if req.Cantidad < 1 {
		return ErrInvalidQuantity
	}

	ok, err := uc.repository.UpdateQuantity(ctx, userID, req.DetalleID, req.Cantidad)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLineNotFound
	}
	return nil
}

// RemoveItem apaga uma linha do carrinho
func (uc *UseCase) RemoveItem(ctx context.Context, userID, detalleID int64) error {
	ok, err := uc.repository.RemoveLine(ctx, userID, detalleID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLineNotFound
	}
	return nil
}

// ClearCart esvazia o carrinho do usuário fora do checkout
func (uc *UseCase) ClearCart(ctx context.Context, userID int64) error {
	return uc.repository.ClearCart(ctx, userID)
}
