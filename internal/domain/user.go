package domain

import (
	"time"

	"github.com/google/uuid"
)

// Currency is a 3-letter currency code from the supported set
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
	CurrencyJPY Currency = "JPY"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
)

// DefaultCurrency is applied when neither the request nor the user profile specifies one
const DefaultCurrency = CurrencyUSD

var supportedCurrencies = map[Currency]bool{
	CurrencyUSD: true,
	CurrencyEUR: true,
	CurrencyGBP: true,
	CurrencyINR: true,
	CurrencyJPY: true,
	CurrencyCAD: true,
	CurrencyAUD: true,
}

// IsValid reports whether the currency is in the supported set
func (c Currency) IsValid() bool {
	return supportedCurrencies[c]
}

// User represents a user in the system
type User struct {
	ID        uuid.UUID `json:"id"`
	Auth0ID   string    `json:"auth0Id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Currency  Currency  `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	GetByID(id uuid.UUID) (*User, error)
	GetByAuth0ID(auth0ID string) (*User, error)
	CreateOrGetByAuth0ID(auth0ID, email string, name *string) (*User, error)
	UpdateProfile(id uuid.UUID, name *string, currency *Currency) (*User, error)
}
