// Package pricing computes delivery fees for checkout.
package pricing

import (
	"butcher-shop/internal/domain"

	"github.com/shopspring/decimal"
)

// Reason identifies which rule produced a delivery quote
type Reason string

const (
	ReasonPickup        Reason = "PICKUP"
	ReasonFreeThreshold Reason = "FREE_THRESHOLD"
	ReasonDeliveryFee   Reason = "DELIVERY_FEE"
)

// FeeSettings is the part of the store settings the calculator reads
type FeeSettings struct {
	DeliveryFee         decimal.Decimal
	FreeDeliveryMinimum decimal.Decimal
}

// DefaultFeeSettings applies while no store settings have been seeded
func DefaultFeeSettings() FeeSettings {
	return FeeSettings{
		DeliveryFee:         domain.DefaultDeliveryFee,
		FreeDeliveryMinimum: domain.DefaultFreeDeliveryMinimum,
	}
}

// FeeSettingsFrom extracts the fee settings, falling back to defaults for nil
func FeeSettingsFrom(s *domain.StoreSettings) *FeeSettings {
	if s == nil {
		return nil
	}
	return &FeeSettings{
		DeliveryFee:         s.DeliveryFee,
		FreeDeliveryMinimum: s.FreeDeliveryMinimum,
	}
}

// Quote is the outcome of a delivery fee calculation. Savings is set only when
// the free-delivery threshold waived the fee. Threshold carries the minimum
// used, so callers can render the rule without reloading settings.
type Quote struct {
	IsFree    bool             `json:"is_free"`
	Fee       decimal.Decimal  `json:"fee"`
	Reason    Reason           `json:"reason_code"`
	Savings   *decimal.Decimal `json:"savings,omitempty"`
	Threshold decimal.Decimal  `json:"free_delivery_minimum"`
}

// CalculateDeliveryFee returns the fee for an order subtotal. Pickup is always
// free; delivery is free from the configured minimum upward.
func CalculateDeliveryFee(subtotal decimal.Decimal, method domain.DeliveryMethod, settings *FeeSettings) Quote {
	cfg := DefaultFeeSettings()
	if settings != nil {
		cfg = *settings
	}

	if method == domain.DeliveryMethodPickup {
		return Quote{
			IsFree:    true,
			Fee:       decimal.Zero,
			Reason:    ReasonPickup,
			Threshold: cfg.FreeDeliveryMinimum,
		}
	}

	if subtotal.GreaterThanOrEqual(cfg.FreeDeliveryMinimum) {
		savings := cfg.DeliveryFee
		return Quote{
			IsFree:    true,
			Fee:       decimal.Zero,
			Reason:    ReasonFreeThreshold,
			Savings:   &savings,
			Threshold: cfg.FreeDeliveryMinimum,
		}
	}

	return Quote{
		IsFree:    false,
		Fee:       cfg.DeliveryFee,
		Reason:    ReasonDeliveryFee,
		Threshold: cfg.FreeDeliveryMinimum,
	}
}
