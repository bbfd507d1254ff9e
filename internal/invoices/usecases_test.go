package invoices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockTx simula a transação do checkout
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockRepository para testes que não precisam de banco real
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) BeginTx(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Tx), args.Error(1)
}

func (m *MockRepository) LockProducts(ctx context.Context, tx Tx, productIDs []int64) (map[int64]int, error) {
	args := m.Called(ctx, tx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]int), args.Error(1)
}

func (m *MockRepository) CreateInvoice(ctx context.Context, tx Tx, userID int64, total decimal.Decimal) (*Invoice, error) {
	args := m.Called(ctx, tx, userID, total)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Invoice), args.Error(1)
}

func (m *MockRepository) InsertLines(ctx context.Context, tx Tx, facturaID int64, items []LineItem) error {
	args := m.Called(ctx, tx, facturaID, items)
	return args.Error(0)
}

func (m *MockRepository) DecreaseStock(ctx context.Context, tx Tx, productoID int64, cantidad int) (bool, error) {
	args := m.Called(ctx, tx, productoID, cantidad)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ClearCart(ctx context.Context, tx Tx, userID int64) error {
	args := m.Called(ctx, tx, userID)
	return args.Error(0)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id int64, estado string) (bool, error) {
	args := m.Called(ctx, id, estado)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Invoice), args.Error(1)
}

func (m *MockRepository) GetLines(ctx context.Context, facturaID int64) ([]InvoiceLine, error) {
	args := m.Called(ctx, facturaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]InvoiceLine), args.Error(1)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]InvoiceSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]InvoiceSummary), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID int64) ([]Invoice, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Invoice), args.Error(1)
}

func (m *MockRepository) Statistics(ctx context.Context) (*Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Statistics), args.Error(1)
}

// MockProductCache regista as invalidações pedidas pelo checkout
type MockProductCache struct {
	mock.Mock
}

func (m *MockProductCache) InvalidateProducts(ctx context.Context, productIDs []int64) {
	m.Called(ctx, productIDs)
}

func decimalEq(expected string) interface{} {
	want := decimal.RequireFromString(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(want)
	})
}

func sampleItems() []LineItem {
	return []LineItem{
		{ProductoID: 1, Cantidad: 2, Precio: decimal.RequireFromString("10.00")},
		{ProductoID: 2, Cantidad: 1, Precio: decimal.RequireFromString("5.00")},
	}
}

func sampleInvoice() *Invoice {
	return &Invoice{
		ID:            7,
		NumeroFactura: "FAC-00000007",
		UsuarioID:     42,
		Fecha:         time.Now(),
		Total:         decimal.RequireFromString("25.00"),
		Estado:        StatusPending,
	}
}

func TestCheckout_Success(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	mockTx := new(MockTx)
	mockCache := new(MockProductCache)
	ctx := context.Background()
	items := sampleItems()

	mockRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockRepo.On("LockProducts", ctx, mockTx, []int64{1, 2}).
		Return(map[int64]int{1: 5, 2: 3}, nil)
	mockRepo.On("CreateInvoice", ctx, mockTx, int64(42), decimalEq("25.00")).
		Return(sampleInvoice(), nil)
	mockRepo.On("InsertLines", ctx, mockTx, int64(7), items).Return(nil)
	mockRepo.On("DecreaseStock", ctx, mockTx, int64(1), 2).Return(true, nil)
	mockRepo.On("DecreaseStock", ctx, mockTx, int64(2), 1).Return(true, nil)
	mockRepo.On("ClearCart", ctx, mockTx, int64(42)).Return(nil)
	mockTx.On("Commit").Return(nil)
	mockTx.On("Rollback").Return(errors.New("tx is closed")).Maybe()
	mockCache.On("InvalidateProducts", ctx, []int64{1, 2}).Return()

	useCase := NewUseCase(mockRepo, mockCache)

	// Act
	invoice, err := useCase.Checkout(ctx, 42, items)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "FAC-00000007", invoice.NumeroFactura)
	assert.True(t, invoice.Total.Equal(decimal.RequireFromString("25.00")))
	mockRepo.AssertExpectations(t)
	mockTx.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestCheckout_PreservesCapturedPrices(t *testing.T) {
	// Arrange: as linhas chegam com preços capturados no carrinho, que não
	// coincidem com nenhum preço vivo — devem ser persistidos como estão
	mockRepo := new(MockRepository)
	mockTx := new(MockTx)
	ctx := context.Background()
	items := []LineItem{
		{ProductoID: 9, Cantidad: 1, Precio: decimal.RequireFromString("3.33")},
	}

	var inserted []LineItem
	mockRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockRepo.On("LockProducts", ctx, mockTx, []int64{9}).Return(map[int64]int{9: 10}, nil)
	mockRepo.On("CreateInvoice", ctx, mockTx, int64(1), decimalEq("3.33")).Return(sampleInvoice(), nil)
	mockRepo.On("InsertLines", ctx, mockTx, int64(7), mock.Anything).
		Run(func(args mock.Arguments) {
			inserted = args.Get(3).([]LineItem)
		}).Return(nil)
	mockRepo.On("DecreaseStock", ctx, mockTx, int64(9), 1).Return(true, nil)
	mockRepo.On("ClearCart", ctx, mockTx, int64(1)).Return(nil)
	mockTx.On("Commit").Return(nil)
	mockTx.On("Rollback").Return(errors.New("tx is closed")).Maybe()

	useCase := NewUseCase(mockRepo, nil)

	// Act
	_, err := useCase.Checkout(ctx, 1, items)

	// Assert
	assert.NoError(t, err)
	assert.Len(t, inserted, 1)
	assert.True(t, inserted[0].Precio.Equal(decimal.RequireFromString("3.33")))
}

func TestCheckout_EmptyCart(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	useCase := NewUseCase(mockRepo, nil)

	// Act
	invoice, err := useCase.Checkout(context.Background(), 42, nil)

	// Assert: rejeitado antes de qualquer escrita
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, invoice)
	mockRepo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestCheckout_InvalidLineItem(t *testing.T) {
	mockRepo := new(MockRepository)
	useCase := NewUseCase(mockRepo, nil)

	cases := []struct {
		name  string
		items []LineItem
	}{
		{"zero quantity", []LineItem{{ProductoID: 1, Cantidad: 0, Precio: decimal.RequireFromString("1.00")}}},
		{"negative price", []LineItem{{ProductoID: 1, Cantidad: 1, Precio: decimal.RequireFromString("-1.00")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := useCase.Checkout(context.Background(), 42, tc.items)
			assert.ErrorIs(t, err, ErrInvalidLineItem)
		})
	}
	mockRepo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestCheckout_ProductNotFound(t *testing.T) {
	// Arrange: o produto 2 não existe; nada pode ser escrito
	mockRepo := new(MockRepository)
	mockTx := new(MockTx)
	ctx := context.Background()

	mockRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockRepo.On("LockProducts", ctx, mockTx, []int64{1, 2}).
		Return(map[int64]int{1: 5}, nil)
	mockTx.On("Rollback").Return(nil)

	useCase := NewUseCase(mockRepo, nil)

	// Act
	invoice, err := useCase.Checkout(ctx, 42, sampleItems())

	// Assert
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, invoice)
	mockRepo.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockTx.AssertNotCalled(t, "Commit")
	mockTx.AssertCalled(t, "Rollback")
}

func TestCheckout_InsufficientStock(t *testing.T) {
	// Arrange: stock 1 < cantidad 2
	mockRepo := new(MockRepository)
	mockTx := new(MockTx)
	ctx := context.Background()

	mockRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockRepo.On("LockProducts", ctx, mockTx, []int64{1, 2}).
		Return(map[int64]int{1: 1, 2: 3}, nil)
	mockTx.On("Rollback").Return(nil)

	useCase := NewUseCase(mockRepo, nil)

	// Act
	invoice, err := useCase.Checkout(ctx, 42, sampleItems())

	// Assert
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Nil(t, invoice)
	mockRepo.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockTx.AssertNotCalled(t, "Commit")
}

func TestCheckout_RollsBackWhenLineInsertFails(t *testing.T) {
	// Arrange: a fatura já foi inserida na transação, mas a inserção das
	// linhas falha — nada pode ficar visível
	mockRepo := new(MockRepository)
	mockTx := new(MockTx)
	ctx := context.Background()
	items := sampleItems()
	storeErr := errors.New("connection reset")

	mockRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockRepo.On("LockProducts", ctx, mockTx, []int64{1, 2}).
		Return(map[int64]int{1: 5, 2: 3}, nil)
	mockRepo.On("CreateInvoice", ctx, mockTx, int64(42), decimalEq("25.00")).
		Return(sampleInvoice(), nil)
	mockRepo.On("InsertLines", ctx, mockTx, int64(7), items).Return(storeErr)
	mockTx.On("Rollback").Return(nil)

	useCase := NewUseCase(mockRepo, nil)

	// Act
	invoice, err := useCase.Checkout(ctx, 42, items)

	// Assert
	assert.ErrorIs(t, err, storeErr)
	assert.Nil(t, invoice)
	mockTx.AssertCalled(t, "Rollback")
	mockTx.AssertNotCalled(t, "Commit")
	mockRepo.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_RollsBackWhenConditionalDecrementFails(t *testing.T) {
	// Arrange: o update condicional não afeta nenhuma linha
	mockRepo := new(MockRepository)
	mockTx := new(MockTx)
	ctx := context.Background()
	items := sampleItems()

	mockRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockRepo.On("LockProducts", ctx, mockTx, []int64{1, 2}).
		Return(map[int64]int{1: 5, 2: 3}, nil)
	mockRepo.On("CreateInvoice", ctx, mockTx, int64(42), decimalEq("25.00")).
		Return(sampleInvoice(), nil)
	mockRepo.On("InsertLines", ctx, mockTx, int64(7), items).Return(nil)
	mockRepo.On("DecreaseStock", ctx, mockTx, int64(1), 2).Return(false, nil)
	mockTx.On("Rollback").Return(nil)

	useCase := NewUseCase(mockRepo, nil)

	// Act
	_, err := useCase.Checkout(ctx, 42, items)

	// Assert
	assert.ErrorIs(t, err, ErrInsufficientStock)
	mockTx.AssertNotCalled(t, "Commit")
}

func TestCheckout_CoalescesDuplicateProducts(t *testing.T) {
	// Arrange: o mesmo produto em duas linhas; o lock e o decremento devem
	// ver a quantidade somada
	mockRepo := new(MockRepository)
	mockTx := new(MockTx)
	ctx := context.Background()
	items := []LineItem{
		{ProductoID: 1, Cantidad: 2, Precio: decimal.RequireFromString("10.00")},
		{ProductoID: 1, Cantidad: 1, Precio: decimal.RequireFromString("10.00")},
	}

	mockRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockRepo.On("LockProducts", ctx, mockTx, []int64{1}).Return(map[int64]int{1: 3}, nil)
	mockRepo.On("CreateInvoice", ctx, mockTx, int64(42), decimalEq("30.00")).
		Return(sampleInvoice(), nil)
	mockRepo.On("InsertLines", ctx, mockTx, int64(7), items).Return(nil)
	mockRepo.On("DecreaseStock", ctx, mockTx, int64(1), 3).Return(true, nil)
	mockRepo.On("ClearCart", ctx, mockTx, int64(42)).Return(nil)
	mockTx.On("Commit").Return(nil)
	mockTx.On("Rollback").Return(errors.New("tx is closed")).Maybe()

	useCase := NewUseCase(mockRepo, nil)

	// Act
	_, err := useCase.Checkout(ctx, 42, items)

	// Assert
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	ctx := context.Background()

	mockRepo.On("UpdateStatus", ctx, int64(7), StatusPaid).Return(true, nil)
	mockRepo.On("UpdateStatus", ctx, int64(8), StatusCancelled).Return(true, nil)

	useCase := NewUseCase(mockRepo, nil)

	// Act & Assert
	assert.NoError(t, useCase.UpdateStatus(ctx, 7, StatusPaid))
	assert.NoError(t, useCase.UpdateStatus(ctx, 8, StatusCancelled))
	mockRepo.AssertExpectations(t)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	mockRepo := new(MockRepository)
	useCase := NewUseCase(mockRepo, nil)

	err := useCase.UpdateStatus(context.Background(), 7, "enviada")

	assert.ErrorIs(t, err, ErrInvalidStatus)
	mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_PendingIsNotATarget(t *testing.T) {
	mockRepo := new(MockRepository)
	useCase := NewUseCase(mockRepo, nil)

	err := useCase.UpdateStatus(context.Background(), 7, StatusPending)

	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatus_InvoiceNotFound(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	ctx := context.Background()

	mockRepo.On("UpdateStatus", ctx, int64(7), StatusPaid).Return(false, nil)
	mockRepo.On("GetInvoice", ctx, int64(7)).Return(nil, nil)

	useCase := NewUseCase(mockRepo, nil)

	// Act
	err := useCase.UpdateStatus(ctx, 7, StatusPaid)

	// Assert
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestUpdateStatus_FinalStatusIsFrozen(t *testing.T) {
	// Arrange: fatura já pagada; nenhuma transição sai de um estado terminal
	mockRepo := new(MockRepository)
	ctx := context.Background()
	paid := sampleInvoice()
	paid.Estado = StatusPaid

	mockRepo.On("UpdateStatus", ctx, int64(7), StatusCancelled).Return(false, nil)
	mockRepo.On("GetInvoice", ctx, int64(7)).Return(paid, nil)

	useCase := NewUseCase(mockRepo, nil)

	// Act
	err := useCase.UpdateStatus(ctx, 7, StatusCancelled)

	// Assert
	assert.ErrorIs(t, err, ErrStatusFinal)
}
