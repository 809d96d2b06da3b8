package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/lingua-crm-api/pkg/timewindow"
)

// Payment is money received from a client.
type Payment struct {
	ID        string          `db:"id" json:"id"`
	ClientID  string          `db:"client_id" json:"clientId"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Currency  Currency        `db:"currency" json:"currency"`
	Date      time.Time       `db:"date" json:"date"`
	Method    PaymentMethod   `db:"method" json:"method"`
	Reference string          `db:"reference" json:"reference"`
	Notes     string          `db:"notes" json:"notes"`
	// Balance is the amount still owed after this payment, when known.
	Balance *decimal.Decimal `db:"balance" json:"balance,omitempty"`
	Attribution
}

// Clone returns a deep copy.
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	c := *p
	if p.Balance != nil {
		b := *p.Balance
		c.Balance = &b
	}
	return &c
}

// Expenditure is money paid out to a payee.
type Expenditure struct {
	ID          string          `db:"id" json:"id"`
	Payee       string          `db:"payee" json:"payee"`
	Category    string          `db:"category" json:"category"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Currency    Currency        `db:"currency" json:"currency"`
	Date        time.Time       `db:"date" json:"date"`
	Method      PaymentMethod   `db:"method" json:"method"`
	Description string          `db:"description" json:"description"`
	Attribution
}

// Clone returns a copy.
func (e *Expenditure) Clone() *Expenditure {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// PaymentFilter narrows payment searches.
type PaymentFilter struct {
	ClientID string
	Currency Currency
	Method   PaymentMethod
	Search   string
	Window   timewindow.Window
	Custom   *timewindow.Range
	Now      time.Time
}

// ExpenditureFilter narrows expenditure searches.
type ExpenditureFilter struct {
	Category string
	Currency Currency
	Method   PaymentMethod
	Search   string
	Window   timewindow.Window
	Custom   *timewindow.Range
	Now      time.Time
}

// ClientStatement summarises everything a client has paid.
type ClientStatement struct {
	Client    Client                       `json:"client"`
	Payments  []Payment                    `json:"payments"`
	TotalPaid map[Currency]decimal.Decimal `json:"totalPaid"`
	// Outstanding is the fee balance still owed, for students with known fees.
	Outstanding *decimal.Decimal `json:"outstanding,omitempty"`
}
