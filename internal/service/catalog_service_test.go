package service

import (
	"context"
	"testing"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/pricing"
	"butcher-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService_CreateAndUpdate(t *testing.T) {
	products := newMockProductRepository()
	service := NewProductService(products, newMockCategoryRepository())
	ctx := context.Background()

	in := ProductInput{
		Name:       "  Picanha Maturada ",
		Price:      decimal.RequireFromString("119.899"),
		CategoryID: uuid.New(),
		Stock:      decimal.RequireFromString("12.5"),
		Available:  true,
		Weight:     &domain.WeightPricing{Amount: decimal.NewFromInt(1000), Unit: "g"},
	}

	product, err := service.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Picanha Maturada", product.Name)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("119.90")))

	in.Available = false
	updated, err := service.Update(ctx, product.ID, in)
	require.NoError(t, err)
	assert.False(t, updated.Available)

	_, err = service.Update(ctx, uuid.New(), in)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestProductService_RejectsInvalidInput(t *testing.T) {
	products := newMockProductRepository()
	service := NewProductService(products, newMockCategoryRepository())
	ctx := context.Background()

	valid := ProductInput{Name: "Cupim", Price: decimal.NewFromInt(42), CategoryID: uuid.New(), Stock: decimal.NewFromInt(5)}

	tests := []struct {
		name   string
		mutate func(*ProductInput)
	}{
		{"blank name", func(in *ProductInput) { in.Name = " " }},
		{"no category", func(in *ProductInput) { in.CategoryID = uuid.Nil }},
		{"negative price", func(in *ProductInput) { in.Price = decimal.NewFromInt(-1) }},
		{"negative stock", func(in *ProductInput) { in.Stock = decimal.NewFromInt(-1) }},
		{"weight without unit", func(in *ProductInput) { in.Weight = &domain.WeightPricing{Amount: decimal.NewFromInt(500)} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := service.Create(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidProduct)
		})
	}
	assert.Zero(t, products.writes)
}

type referencedProductRepository struct {
	*mockProductRepository
}

func (r referencedProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return repository.ErrProductReferenced
}

func TestProductService_DeleteReferencedProductHidesIt(t *testing.T) {
	products := newMockProductRepository()
	service := NewProductService(referencedProductRepository{products}, newMockCategoryRepository())

	product := products.add("Costela", "39.90", "3", true)

	require.NoError(t, service.Delete(context.Background(), product.ID))
	assert.False(t, products.products[product.ID].Available)
}

func TestProductService_ListAndSearch(t *testing.T) {
	products := newMockProductRepository()
	service := NewProductService(products, newMockCategoryRepository())
	ctx := context.Background()

	products.add("Picanha", "89.90", "10", true)
	products.add("Linguiça Toscana", "29.90", "10", true)
	products.add("Cordeiro", "99.00", "0", false)

	available := true
	list, total, err := service.List(ctx, domain.ProductFilter{Category: "bovi", Available: &available})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	found, total, err := service.Search(ctx, " linguiça ", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Linguiça Toscana", found[0].Name)
}

func TestProductService_CreateCategory(t *testing.T) {
	service := NewProductService(newMockProductRepository(), newMockCategoryRepository())
	ctx := context.Background()

	category, err := service.CreateCategory(ctx, " Suínos ", "Cortes de porco")
	require.NoError(t, err)
	assert.Equal(t, "Suínos", category.Name)

	_, err = service.CreateCategory(ctx, "SUÍNOS", "")
	assert.ErrorIs(t, err, repository.ErrCategoryAlreadyExists)

	_, err = service.CreateCategory(ctx, "  ", "")
	assert.ErrorIs(t, err, ErrInvalidProduct)

	categories, err := service.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestSettingsService_DefaultsAndUpdate(t *testing.T) {
	repo := &mockSettingsRepository{}
	service := NewSettingsService(repo)
	ctx := context.Background()

	settings, err := service.Get(ctx)
	require.NoError(t, err)
	assert.True(t, settings.DeliveryFee.Equal(domain.DefaultDeliveryFee))
	assert.True(t, settings.FreeDeliveryMinimum.Equal(domain.DefaultFreeDeliveryMinimum))

	_, err = service.Update(ctx, SettingsInput{DeliveryFee: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Nil(t, repo.settings)

	saved, err := service.Update(ctx, SettingsInput{
		StoreName:           "Casa de Carnes Boi Bravo",
		DeliveryFee:         decimal.RequireFromString("12.50"),
		FreeDeliveryMinimum: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)

	again, err := service.Update(ctx, SettingsInput{
		StoreName:           "Casa de Carnes Boi Bravo",
		DeliveryFee:         decimal.NewFromInt(8),
		FreeDeliveryMinimum: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	quote, err := service.Quote(ctx, decimal.NewFromInt(150), domain.DeliveryMethodDelivery)
	require.NoError(t, err)
	assert.Equal(t, pricing.ReasonDeliveryFee, quote.Reason)
	assert.True(t, quote.Fee.Equal(decimal.NewFromInt(8)))

	quote, err = service.Quote(ctx, decimal.NewFromInt(150), domain.DeliveryMethodPickup)
	require.NoError(t, err)
	assert.True(t, quote.IsFree)
}

func TestFavoriteService(t *testing.T) {
	products := newMockProductRepository()
	service := NewFavoriteService(newMockFavoriteRepository(products))
	ctx := context.Background()
	userID := uuid.New()

	picanha := products.add("Picanha", "89.90", "10", true)

	require.NoError(t, service.Add(ctx, userID, picanha.ID))
	require.NoError(t, service.Add(ctx, userID, picanha.ID))
	assert.ErrorIs(t, service.Add(ctx, userID, uuid.New()), repository.ErrProductNotFound)

	favorites, err := service.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "Picanha", favorites[0].Product.Name)

	require.NoError(t, service.Remove(ctx, userID, picanha.ID))
	require.NoError(t, service.Remove(ctx, userID, picanha.ID))

	favorites, err = service.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}
