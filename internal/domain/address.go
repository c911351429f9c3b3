package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Address is a delivery address owned by a user
type Address struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Label        string    `json:"label" db:"label"`
	Street       string    `json:"street" db:"street"`
	Number       string    `json:"number" db:"number"`
	Complement   string    `json:"complement" db:"complement"`
	Neighborhood string    `json:"neighborhood" db:"neighborhood"`
	City         string    `json:"city" db:"city"`
	State        string    `json:"state" db:"state"`
	Country      string    `json:"country" db:"country"`
	PostalCode   string    `json:"postal_code" db:"postal_code"`
	IsDefault    bool      `json:"is_default" db:"is_default"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// SameLocation compares street, number, neighborhood, city, state and postal
// code after normalization. Label, complement and country are ignored.
func (a *Address) SameLocation(other *Address) bool {
	return normalizeText(a.Street) == normalizeText(other.Street) &&
		normalizeText(a.Number) == normalizeText(other.Number) &&
		normalizeText(a.Neighborhood) == normalizeText(other.Neighborhood) &&
		normalizeText(a.City) == normalizeText(other.City) &&
		normalizeText(a.State) == normalizeText(other.State) &&
		NormalizePostalCode(a.PostalCode) == NormalizePostalCode(other.PostalCode)
}

// Snapshot copies the postal fields for storage on an order
func (a *Address) Snapshot() *AddressSnapshot {
	return &AddressSnapshot{
		Label:        a.Label,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		Country:      a.Country,
		PostalCode:   a.PostalCode,
	}
}

// NormalizePostalCode keeps only the digits, so "01310-100" equals "01310100"
func NormalizePostalCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FoldAccents removes combining marks, so "Conceição" becomes "Conceicao"
func FoldAccents(s string) string {
	// Chained transformers keep state, so each call builds its own.
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		return s
	}
	return folded
}

// normalizeText lowercases, strips accents and collapses whitespace
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(FoldAccents(s)), " "))
}
