package transport

import (
	"context"
	"net/http"
	"time"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/middleware"
	"butcher-shop/internal/pricing"
	"butcher-shop/internal/repository"
	"butcher-shop/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mock repositories for the user handler, which runs against the real service
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
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
	m.users[user.Email] = user
	return nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
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

// fakeOrderService records the checkout it receives and answers with result/err
type fakeOrderService struct {
	received *service.CreateOrderInput
	result   *service.OrderResult
	err      error
	orders   map[uuid.UUID]*domain.Order
}

func (f *fakeOrderService) CreateOrder(ctx context.Context, userID uuid.UUID, in service.CreateOrderInput) (*service.OrderResult, error) {
	f.received = &in
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeOrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderService) GetOrderByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*domain.Order, error) {
	for _, order := range f.orders {
		if order.OrderNumber == orderNumber && order.UserID == userID {
			return order, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (f *fakeOrderService) ListOrders(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*domain.Order, int, error) {
	var result []*domain.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			result = append(result, order)
		}
	}
	return result, len(result), nil
}

func (f *fakeOrderService) ListAllOrders(ctx context.Context, status string, page, pageSize int) ([]*domain.Order, int, error) {
	if status != "" && !domain.IsOrderStatus(status) {
		return nil, 0, service.ErrInvalidStatus
	}
	var result []*domain.Order
	for _, order := range f.orders {
		if status == "" || order.Status == status {
			result = append(result, order)
		}
	}
	return result, len(result), nil
}

func (f *fakeOrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, update service.StatusUpdate) (*domain.Order, error) {
	if !domain.IsOrderStatus(update.Status) {
		return nil, service.ErrInvalidStatus
	}
	order, ok := f.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	order.Status = update.Status
	return order, nil
}

// fakeAddressService keeps addresses in memory, scoped by owner
type fakeAddressService struct {
	addresses map[uuid.UUID]*domain.Address
}

func newFakeAddressService() *fakeAddressService {
	return &fakeAddressService{addresses: make(map[uuid.UUID]*domain.Address)}
}

func (f *fakeAddressService) Create(ctx context.Context, userID uuid.UUID, in service.AddressInput) (*domain.Address, error) {
	if in.Street == "" || in.PostalCode == "" {
		return nil, service.ErrAddressRequired
	}
	address := &domain.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Street:     in.Street,
		Number:     in.Number,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		IsDefault:  in.IsDefault,
	}
	f.addresses[address.ID] = address
	return address, nil
}

func (f *fakeAddressService) Update(ctx context.Context, userID, addressID uuid.UUID, in service.AddressInput) (*domain.Address, error) {
	address, ok := f.addresses[addressID]
	if !ok || address.UserID != userID {
		return nil, repository.ErrAddressNotFound
	}
	address.Street = in.Street
	return address, nil
}

func (f *fakeAddressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	address, ok := f.addresses[addressID]
	if !ok || address.UserID != userID {
		return repository.ErrAddressNotFound
	}
	delete(f.addresses, addressID)
	return nil
}

func (f *fakeAddressService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	var result []*domain.Address
	for _, address := range f.addresses {
		if address.UserID == userID {
			result = append(result, address)
		}
	}
	return result, nil
}

func (f *fakeAddressService) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	address, ok := f.addresses[addressID]
	if !ok || address.UserID != userID {
		return repository.ErrAddressNotFound
	}
	for _, other := range f.addresses {
		if other.UserID == userID {
			other.IsDefault = other.ID == addressID
		}
	}
	return nil
}

// fakeSettingsService quotes with fixed fee settings
type fakeSettingsService struct {
	settings *domain.StoreSettings
}

func (f *fakeSettingsService) Get(ctx context.Context) (*domain.StoreSettings, error) {
	return f.settings, nil
}

func (f *fakeSettingsService) Update(ctx context.Context, in service.SettingsInput) (*domain.StoreSettings, error) {
	if in.DeliveryFee.IsNegative() || in.FreeDeliveryMinimum.IsNegative() {
		return nil, service.ErrInvalidSettings
	}
	f.settings.StoreName = in.StoreName
	f.settings.DeliveryFee = in.DeliveryFee
	f.settings.FreeDeliveryMinimum = in.FreeDeliveryMinimum
	return f.settings, nil
}

func (f *fakeSettingsService) Quote(ctx context.Context, subtotal decimal.Decimal, method domain.DeliveryMethod) (pricing.Quote, error) {
	return pricing.CalculateDeliveryFee(subtotal, method, pricing.FeeSettingsFrom(f.settings)), nil
}

// asUser stands in for AuthMiddleware with a fixed identity
func asUser(userID uuid.UUID, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), userID, role)))
		})
	}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decimalCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
