package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// snapshotter is implemented by mocks that take part in mock transactions.
// snapshot returns a function restoring the state at the time of the call.
type snapshotter interface {
	snapshot() func()
}

type mockTxKey struct{}

// mockTxManager restores every registered store when fn fails
type mockTxManager struct {
	stores    []snapshotter
	commits   int
	rollbacks int
}

func newMockTxManager(stores ...snapshotter) *mockTxManager {
	return &mockTxManager{stores: stores}
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(mockTxKey{}) != nil {
		return fn(ctx)
	}

	restores := make([]func(), 0, len(m.stores))
	for _, store := range m.stores {
		restores = append(restores, store.snapshot())
	}

	if err := fn(context.WithValue(ctx, mockTxKey{}, true)); err != nil {
		for _, restore := range restores {
			restore()
		}
		m.rollbacks++
		return err
	}

	m.commits++
	return nil
}

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	stored, exists := m.users[user.Email]
	if !exists {
		return repository.ErrUserNotFound
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Phone = user.Phone
	return nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{
		tokens: make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var deleted int64
	for key, token := range m.tokens {
		if token.UserID == userID && (token.Revoked || !token.ExpiresAt.After(now)) {
			delete(m.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}

type mockProductRepository struct {
	products    map[uuid.UUID]domain.Product
	decremented map[uuid.UUID]decimal.Decimal
	// decrementErr makes DecrementStock fail for the product
	decrementErr map[uuid.UUID]error
	writes       int
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products:     make(map[uuid.UUID]domain.Product),
		decremented:  make(map[uuid.UUID]decimal.Decimal),
		decrementErr: make(map[uuid.UUID]error),
	}
}

func (m *mockProductRepository) snapshot() func() {
	products := make(map[uuid.UUID]domain.Product, len(m.products))
	for id, p := range m.products {
		products[id] = p
	}
	decremented := make(map[uuid.UUID]decimal.Decimal, len(m.decremented))
	for id, q := range m.decremented {
		decremented[id] = q
	}
	return func() {
		m.products = products
		m.decremented = decremented
	}
}

func (m *mockProductRepository) add(name, price, stock string, available bool) *domain.Product {
	p := domain.Product{
		ID:           uuid.New(),
		Name:         name,
		Price:        decimal.RequireFromString(price),
		CategoryID:   uuid.New(),
		CategoryName: "Bovinos",
		Stock:        decimal.RequireFromString(stock),
		Available:    available,
	}
	m.products[p.ID] = p
	return &p
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.writes++
	m.products[product.ID] = *product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.writes++
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = *product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.writes++
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	result := []*domain.Product{}
	for _, p := range m.products {
		if filter.Category != "" && !strings.Contains(strings.ToLower(p.CategoryName), strings.ToLower(filter.Category)) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Available != nil && p.Available != *filter.Available {
			continue
		}
		p := p
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, len(result), nil
}

func (m *mockProductRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return m.List(ctx, domain.ProductFilter{Search: query, Page: page, PageSize: pageSize})
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	m.writes++
	if !quantity.IsPositive() {
		return repository.ErrInvalidQuantity
	}
	if err := m.decrementErr[id]; err != nil {
		return err
	}
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.Stock.LessThan(quantity) {
		return repository.ErrInsufficientStock
	}
	p.Stock = p.Stock.Sub(quantity)
	m.products[id] = p
	m.decremented[id] = m.decremented[id].Add(quantity)
	return nil
}

func (m *mockProductRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	m.writes++
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Available = available
	m.products[id] = p
	return nil
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, c := range m.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	result := []*domain.Category{}
	for _, c := range m.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	for _, c := range m.categories {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

type mockOrderRepository struct {
	orders map[uuid.UUID]domain.Order
	writes int
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]domain.Order)}
}

func (m *mockOrderRepository) snapshot() func() {
	orders := make(map[uuid.UUID]domain.Order, len(m.orders))
	for id, o := range m.orders {
		orders[id] = o
	}
	return func() { m.orders = orders }
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.writes++
	for _, o := range m.orders {
		if o.OrderNumber == order.OrderNumber {
			return repository.ErrOrderNumberConflict
		}
	}
	m.orders[order.ID] = *order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &o, nil
}

func (m *mockOrderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	for _, o := range m.orders {
		if o.OrderNumber == orderNumber {
			o := o
			return &o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	return m.filter(func(o domain.Order) bool { return o.UserID == userID })
}

func (m *mockOrderRepository) ListAll(ctx context.Context, status string, page, pageSize int) ([]*domain.Order, int, error) {
	return m.filter(func(o domain.Order) bool { return status == "" || o.Status == status })
}

func (m *mockOrderRepository) filter(keep func(domain.Order) bool) ([]*domain.Order, int, error) {
	result := []*domain.Order{}
	for _, o := range m.orders {
		if keep(o) {
			o := o
			result = append(result, &o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, len(result), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status, paymentStatus string, estimatedDelivery *time.Time) error {
	m.writes++
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = status
	if paymentStatus != "" {
		o.PaymentStatus = paymentStatus
	}
	if estimatedDelivery != nil {
		o.EstimatedDelivery = estimatedDelivery
	}
	m.orders[id] = o
	return nil
}

type mockAddressRepository struct {
	addresses map[uuid.UUID]domain.Address
	writes    int
}

func newMockAddressRepository() *mockAddressRepository {
	return &mockAddressRepository{addresses: make(map[uuid.UUID]domain.Address)}
}

func (m *mockAddressRepository) snapshot() func() {
	addresses := make(map[uuid.UUID]domain.Address, len(m.addresses))
	for id, a := range m.addresses {
		addresses[id] = a
	}
	return func() { m.addresses = addresses }
}

func (m *mockAddressRepository) clearDefault(userID uuid.UUID) {
	for id, a := range m.addresses {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			m.addresses[id] = a
		}
	}
}

func (m *mockAddressRepository) Create(ctx context.Context, address *domain.Address) error {
	m.writes++
	if address.IsDefault {
		m.clearDefault(address.UserID)
	}
	m.addresses[address.ID] = *address
	return nil
}

func (m *mockAddressRepository) Update(ctx context.Context, address *domain.Address) error {
	m.writes++
	current, ok := m.addresses[address.ID]
	if !ok || current.UserID != address.UserID {
		return repository.ErrAddressNotFound
	}
	if address.IsDefault {
		m.clearDefault(address.UserID)
	}
	address.CreatedAt = current.CreatedAt
	m.addresses[address.ID] = *address
	return nil
}

func (m *mockAddressRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	m.writes++
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return repository.ErrAddressNotFound
	}
	delete(m.addresses, id)
	return nil
}

func (m *mockAddressRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrAddressNotFound
	}
	return &a, nil
}

func (m *mockAddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	result := []*domain.Address{}
	for _, a := range m.addresses {
		if a.UserID == userID {
			a := a
			result = append(result, &a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsDefault != result[j].IsDefault {
			return result[i].IsDefault
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockAddressRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, a := range m.addresses {
		if a.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockAddressRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	m.writes++
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return repository.ErrAddressNotFound
	}
	m.clearDefault(userID)
	a.IsDefault = true
	m.addresses[id] = a
	return nil
}

func (m *mockAddressRepository) defaults(userID uuid.UUID) int {
	count := 0
	for _, a := range m.addresses {
		if a.UserID == userID && a.IsDefault {
			count++
		}
	}
	return count
}

type mockCartRepository struct {
	items  map[uuid.UUID][]domain.CartItem
	writes int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{items: make(map[uuid.UUID][]domain.CartItem)}
}

func (m *mockCartRepository) snapshot() func() {
	items := make(map[uuid.UUID][]domain.CartItem, len(m.items))
	for userID, lines := range m.items {
		items[userID] = append([]domain.CartItem(nil), lines...)
	}
	return func() { m.items = items }
}

func (m *mockCartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	return append([]domain.CartItem{}, m.items[userID]...), nil
}

func (m *mockCartRepository) Add(ctx context.Context, item *domain.CartItem) error {
	m.writes++
	lines := m.items[item.UserID]
	for i := range lines {
		if lines[i].ProductID == item.ProductID {
			lines[i].Quantity = lines[i].Quantity.Add(item.Quantity)
			lines[i].Price = item.Price
			lines[i].ProductName = item.ProductName
			lines[i].Category = item.Category
			item.ID = lines[i].ID
			item.Quantity = lines[i].Quantity
			return nil
		}
	}
	m.items[item.UserID] = append(lines, *item)
	return nil
}

func (m *mockCartRepository) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity decimal.Decimal) error {
	m.writes++
	if !quantity.IsPositive() {
		return repository.ErrInvalidQuantity
	}
	lines := m.items[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	m.writes++
	lines := m.items[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			m.items[userID] = append(lines[:i:i], lines[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) ClearByUser(ctx context.Context, userID uuid.UUID) error {
	m.writes++
	delete(m.items, userID)
	return nil
}

func (m *mockCartRepository) Replace(ctx context.Context, userID uuid.UUID, items []domain.CartItem) error {
	m.writes++
	delete(m.items, userID)
	for i := range items {
		items[i].UserID = userID
		if err := m.Add(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

type mockSettingsRepository struct {
	settings *domain.StoreSettings
	err      error
}

func (m *mockSettingsRepository) Get(ctx context.Context) (*domain.StoreSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.settings == nil {
		return nil, repository.ErrSettingsNotFound
	}
	s := *m.settings
	return &s, nil
}

func (m *mockSettingsRepository) Upsert(ctx context.Context, settings *domain.StoreSettings) error {
	s := *settings
	m.settings = &s
	return nil
}

type mockFavoriteRepository struct {
	products  *mockProductRepository
	favorites map[uuid.UUID][]uuid.UUID
}

func newMockFavoriteRepository(products *mockProductRepository) *mockFavoriteRepository {
	return &mockFavoriteRepository{products: products, favorites: make(map[uuid.UUID][]uuid.UUID)}
}

func (m *mockFavoriteRepository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if _, ok := m.products.products[productID]; !ok {
		return repository.ErrProductNotFound
	}
	for _, id := range m.favorites[userID] {
		if id == productID {
			return nil
		}
	}
	m.favorites[userID] = append(m.favorites[userID], productID)
	return nil
}

func (m *mockFavoriteRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	ids := m.favorites[userID]
	for i, id := range ids {
		if id == productID {
			m.favorites[userID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockFavoriteRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Favorite, error) {
	result := []*domain.Favorite{}
	for _, id := range m.favorites[userID] {
		product, err := m.products.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, &domain.Favorite{UserID: userID, ProductID: id, Product: product})
	}
	return result, nil
}
