package agent

import (
	"context"
	"fmt"

	"github.com/stockchat/stockchat/internal/inventory"
)

// fakeModel returns scripted outputs in call order; the last output
// repeats. A non-nil err fails every call.
type fakeModel struct {
	outputs []string
	err     error
	prompts []string
}

func (m *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.outputs) == 0 {
		return "", nil
	}
	i := len(m.prompts) - 1
	if i >= len(m.outputs) {
		i = len(m.outputs) - 1
	}
	return m.outputs[i], nil
}

func (m *fakeModel) NotFoundMessage() string {
	return `Error: model "test-model" was not found. Run "ollama pull test-model" to download it.`
}

// fakeInventory records every collaborator call and serves canned data.
type fakeInventory struct {
	calls []string

	salesFilter   inventory.SalesFilter
	metricsFilter inventory.MetricsFilter
	movementInput inventory.MovementInput

	salesErr    error
	movementErr error
	productErr  error
}

func (f *fakeInventory) GetSales(_ context.Context, filter inventory.SalesFilter) (*inventory.SalesSummary, error) {
	f.calls = append(f.calls, "getSales")
	f.salesFilter = filter
	if f.salesErr != nil {
		return nil, f.salesErr
	}
	return &inventory.SalesSummary{TotalIn: 30, TotalOut: 12, TotalInValue: 150000, TotalOutValue: 60000}, nil
}

func (f *fakeInventory) GetCurrentStock(context.Context) ([]inventory.StockLevel, error) {
	f.calls = append(f.calls, "getCurrentStock")
	return []inventory.StockLevel{{ID: 1, Name: "Coffee", Quantity: 40, Price: 2590}}, nil
}

func (f *fakeInventory) GetProductStock(_ context.Context, productID int) (*inventory.StockLevel, error) {
	f.calls = append(f.calls, "getProductStock")
	return &inventory.StockLevel{ID: productID, Name: "Coffee", Quantity: 40, Price: 2590}, nil
}

func (f *fakeInventory) GetMetricsSummary(_ context.Context, filter inventory.MetricsFilter) (inventory.MetricsSummary, error) {
	f.calls = append(f.calls, "getMetricsSummary")
	f.metricsFilter = filter
	return inventory.MetricsSummary{}, nil
}

func (f *fakeInventory) GetProductByID(_ context.Context, id int) (*inventory.Product, error) {
	f.calls = append(f.calls, "getProductById")
	if f.productErr != nil {
		return nil, f.productErr
	}
	return &inventory.Product{ID: id, Name: fmt.Sprintf("Product %d", id), Price: 1250}, nil
}

func (f *fakeInventory) GetPopularProducts(_ context.Context, limit int) ([]inventory.Product, error) {
	f.calls = append(f.calls, "getPopularProducts")
	products := make([]inventory.Product, 0, limit)
	products = append(products, inventory.Product{ID: 1, Name: "Coffee", Price: 2590})
	return products, nil
}

func (f *fakeInventory) CreateStockMovement(_ context.Context, input inventory.MovementInput) (*inventory.Movement, error) {
	f.calls = append(f.calls, "createStockMovement")
	f.movementInput = input
	if f.movementErr != nil {
		return nil, f.movementErr
	}
	return &inventory.Movement{
		ID:           99,
		ProductID:    input.ProductID,
		Quantity:     input.Quantity,
		MovementType: input.MovementType,
		Notes:        input.Notes,
	}, nil
}
