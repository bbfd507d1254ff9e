package invoices

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineItemSubtotal(t *testing.T) {
	item := LineItem{
		ProductoID: 1,
		Cantidad:   3,
		Precio:     decimal.RequireFromString("19.99"),
	}

	subtotal := item.Subtotal()

	if !subtotal.Equal(decimal.RequireFromString("59.97")) {
		t.Errorf("Expected subtotal 59.97, got %s", subtotal)
	}
}

func TestComputeTotal(t *testing.T) {
	// carrito = [{A, 2, 10.00}, {B, 1, 5.00}] → total 25.00
	items := []LineItem{
		{ProductoID: 1, Cantidad: 2, Precio: decimal.RequireFromString("10.00")},
		{ProductoID: 2, Cantidad: 1, Precio: decimal.RequireFromString("5.00")},
	}

	total := ComputeTotal(items)

	if !total.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("Expected total 25.00, got %s", total)
	}
}

func TestComputeTotalDecimalExact(t *testing.T) {
	// 0.10 + 0.20 deve dar exatamente 0.30, sem deriva de float
	items := []LineItem{
		{ProductoID: 1, Cantidad: 1, Precio: decimal.RequireFromString("0.10")},
		{ProductoID: 2, Cantidad: 1, Precio: decimal.RequireFromString("0.20")},
	}

	total := ComputeTotal(items)

	if total.String() != "0.3" {
		t.Errorf("Expected exact 0.3, got %s", total)
	}
}

func TestComputeTotalEmpty(t *testing.T) {
	total := ComputeTotal(nil)

	if !total.IsZero() {
		t.Errorf("Expected zero total for no items, got %s", total)
	}
}

func TestInvoiceStatus(t *testing.T) {
	// Test that constants are defined correctly
	if StatusPending != "pendiente" {
		t.Errorf("Expected StatusPending to be 'pendiente', got %s", StatusPending)
	}
	if StatusPaid != "pagada" {
		t.Errorf("Expected StatusPaid to be 'pagada', got %s", StatusPaid)
	}
	if StatusCancelled != "cancelada" {
		t.Errorf("Expected StatusCancelled to be 'cancelada', got %s", StatusCancelled)
	}
}
