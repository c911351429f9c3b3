package transport

import (
	"net/http"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/middleware"
	"butcher-shop/internal/pricing"
	"butcher-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettingsRequest is the admin payload for the store settings
type SettingsRequest struct {
	StoreName           string          `json:"store_name" validate:"required,max=200"`
	Phone               string          `json:"phone" validate:"omitempty,max=20"`
	Email               string          `json:"email" validate:"omitempty,email"`
	AddressLine         string          `json:"address_line"`
	DeliveryFee         decimal.Decimal `json:"delivery_fee" validate:"gte=0"`
	FreeDeliveryMinimum decimal.Decimal `json:"free_delivery_minimum" validate:"gte=0"`
}

// DeliveryFeeResponse is a quote together with the message shown at checkout
type DeliveryFeeResponse struct {
	pricing.Quote
	Reason string `json:"reason"`
}

// DeliveryReasonMessage renders the customer-facing explanation of a quote
func DeliveryReasonMessage(q pricing.Quote) string {
	switch q.Reason {
	case pricing.ReasonPickup:
		return "Retirada na loja - sem taxa de entrega"
	case pricing.ReasonFreeThreshold:
		return "Frete grátis para pedidos acima de " + formatMoney(q.Threshold)
	default:
		return "Taxa de entrega: " + formatMoney(q.Fee)
	}
}

// SettingsHandler serves delivery quotes and the store settings
type SettingsHandler struct {
	settingsService service.SettingsService
	logger          *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, logger: logger}
}

// RegisterRoutes registers the delivery quote and the admin settings routes
func (h *SettingsHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Get("/api/delivery-fee", h.DeliveryFee)

	r.Route("/api/admin/settings", func(r chi.Router) {
		r.Use(authMiddleware, adminMiddleware)
		r.Get("/", h.Get)
		r.Put("/", h.Update)
	})
}

// DeliveryFee quotes delivery for ?subtotal=&method=
func (h *SettingsHandler) DeliveryFee(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	subtotal := decimal.Zero
	if raw := q.Get("subtotal"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			middleware.RespondWithError(w, http.StatusBadRequest, "subtotal must be a non-negative number")
			return
		}
		subtotal = parsed
	}

	quote, err := h.settingsService.Quote(r.Context(), subtotal, domain.ParseDeliveryMethod(q.Get("method")))
	if err != nil {
		respondServiceError(w, h.logger, err, "calculate delivery fee")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, DeliveryFeeResponse{Quote: quote, Reason: DeliveryReasonMessage(quote)})
}

// Get returns the store settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "get settings")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, settings)
}

// Update overwrites the store settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	settings, err := h.settingsService.Update(r.Context(), service.SettingsInput{
		StoreName:           req.StoreName,
		Phone:               req.Phone,
		Email:               req.Email,
		AddressLine:         req.AddressLine,
		DeliveryFee:         req.DeliveryFee,
		FreeDeliveryMinimum: req.FreeDeliveryMinimum,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "update settings")
		return
	}

	h.logger.Info("Store settings updated",
		zap.String("delivery_fee", settings.DeliveryFee.StringFixed(2)),
		zap.String("free_delivery_minimum", settings.FreeDeliveryMinimum.StringFixed(2)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, settings)
}
