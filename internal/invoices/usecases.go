package invoices

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
)

var (
	ErrEmptyCart         = errors.New("checkout requires at least one line item")
	ErrInvalidLineItem   = errors.New("line item has invalid quantity or price")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrInvalidStatus     = errors.New("invalid invoice status")
	ErrStatusFinal       = errors.New("invoice is already in a final status")
)

// ProductCache é notificado quando o checkout muda o stock de produtos,
// para invalidar as entradas de catálogo em cache
type ProductCache interface {
	InvalidateProducts(ctx context.Context, productIDs []int64)
}

// UseCase contém a lógica de negócio das faturas
type UseCase struct {
	repository Repository
	cache      ProductCache
}

// NewUseCase cria uma nova instância de UseCase. cache pode ser nil.
func NewUseCase(repository Repository, cache ProductCache) *UseCase {
	return &UseCase{
		repository: repository,
		cache:      cache,
	}
}

// Checkout converte as linhas do carrinho numa fatura persistida, decrementa
// o stock e esvazia o carrinho — tudo dentro de uma única transação. Nada
// fica visível se qualquer passo falhar.
func (uc *UseCase) Checkout(ctx context.Context, userID int64, items []LineItem) (*Invoice, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range items {
		if item.Cantidad < 1 || item.Precio.IsNegative() {
			return nil, fmt.Errorf("%w: producto %d", ErrInvalidLineItem, item.ProductoID)
		}
	}

	// Total autoritativo, fixado antes de qualquer escrita
	total := ComputeTotal(items)

	// Quantidades coalescidas por produto, em ordem de id, para o lock e o
	// decremento de stock
	needed := make(map[int64]int, len(items))
	for _, item := range items {
		needed[item.ProductoID] += item.Cantidad
	}
	productIDs := make([]int64, 0, len(needed))
	for id := range needed {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	// 1. Inicia a transação que cobre os passos 2-6
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin checkout transaction: %w", err)
	}
	defer tx.Rollback()

	// 2. Lock pessimista das linhas de produto; valida existência e stock
	// antes de qualquer escrita
	stocks, err := uc.repository.LockProducts(ctx, tx, productIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range productIDs {
		stock, ok := stocks[id]
		if !ok {
			return nil, fmt.Errorf("%w: producto %d", ErrProductNotFound, id)
		}
		if stock < needed[id] {
			return nil, fmt.Errorf("%w: producto %d", ErrInsufficientStock, id)
		}
	}

	// 3. Insere a fatura
	invoice, err := uc.repository.CreateInvoice(ctx, tx, userID, total)
	if err != nil {
		return nil, err
	}

	// 4. Insere as linhas com o preço capturado no carrinho, sem re-precificar
	if err := uc.repository.InsertLines(ctx, tx, invoice.ID, items); err != nil {
		return nil, err
	}

	// 5. Decrementa o stock com update condicional; sob o lock do passo 2 o
	// RowsAffected == 0 não deveria acontecer, mas falha o checkout se acontecer
	for _, id := range productIDs {
		ok, err := uc.repository.DecreaseStock(ctx, tx, id, needed[id])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: producto %d", ErrInsufficientStock, id)
		}
	}

	// 6. Esvazia o carrinho inteiro do usuário
	if err := uc.repository.ClearCart(ctx, tx, userID); err != nil {
		return nil, err
	}

	// 7. Commit: só aqui a fatura fica visível
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	if uc.cache != nil {
		uc.cache.InvalidateProducts(ctx, productIDs)
	}

	log.Printf("✅ [CHECKOUT] Invoice %s created for user %d, total %s",
		invoice.NumeroFactura, userID, invoice.Total.StringFixed(2))
	return invoice, nil
}

// UpdateStatus transiciona o estado de uma fatura. Só 'pendiente' → 'pagada'
// e 'pendiente' → 'cancelada' são permitidos; estados terminais são rejeitados.
func (uc *UseCase) UpdateStatus(ctx context.Context, id int64, estado string) error {
	if estado != StatusPaid && estado != StatusCancelled {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, estado)
	}

	ok, err := uc.repository.UpdateStatus(ctx, id, estado)
	if err != nil {
		return err
	}
	if ok {
		log.Printf("✅ [INVOICE STATUS] Invoice %d → %s", id, estado)
		return nil
	}

	// Nenhuma linha afetada: distingue fatura ausente de estado terminal
	invoice, err := uc.repository.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return ErrInvoiceNotFound
	}
	return fmt.Errorf("%w: estado %q", ErrStatusFinal, invoice.Estado)
}

// GetDetail retorna a fatura com as suas linhas
func (uc *UseCase) GetDetail(ctx context.Context, id int64) (*Invoice, []InvoiceLine, error) {
	invoice, err := uc.repository.GetInvoice(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if invoice == nil {
		return nil, nil, ErrInvoiceNotFound
	}
	lines, err := uc.repository.GetLines(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return invoice, lines, nil
}

// ListAll retorna todas as faturas (visão admin)
func (uc *UseCase) ListAll(ctx context.Context) ([]InvoiceSummary, error) {
	return uc.repository.ListAll(ctx)
}

// ListByUser retorna o histórico do usuário
func (uc *UseCase) ListByUser(ctx context.Context, userID int64) ([]Invoice, error) {
	return uc.repository.ListByUser(ctx, userID)
}

// Statistics retorna o snapshot do painel
func (uc *UseCase) Statistics(ctx context.Context) (*Statistics, error) {
	return uc.repository.Statistics(ctx)
}
