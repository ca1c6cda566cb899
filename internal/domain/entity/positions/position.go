package positions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	transactions "main/internal/domain/entity/transactions"
)

// Exposure is the directional label derived from the sign of a position's quantity.
type Exposure string

const (
	ExposureLong  Exposure = "Long"
	ExposureShort Exposure = "Short"
	ExposureNone  Exposure = "None"
)

func (e Exposure) String() string {
	return string(e)
}

// Position aggregates the net open quantity for one symbol within one account.
// Quantity is signed: positive means long, negative means short. A position
// whose quantity is exactly zero is closed and is not kept in storage.
type Position struct {
	ID         uuid.UUID       `json:"id"`
	AccessKey  uuid.UUID       `json:"access_key"`
	Symbol     string          `json:"symbol"`
	Quantity   decimal.Decimal `json:"quantity"`
	Exposure   Exposure        `json:"exposure"`
	IsClosed   bool            `json:"is_closed"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	RowVersion int64           `json:"-"`
}

// New constructs a flat position for the account and symbol. It starts closed
// with zero quantity until transactions are attached.
func New(accessKey uuid.UUID, symbol string) *Position {
	p := &Position{
		ID:        uuid.New(),
		AccessKey: accessKey,
		Symbol:    symbol,
		Quantity:  decimal.Zero,
	}
	p.refresh()
	return p
}

// Attach applies the signed quantity delta of a transaction to the position.
// Any type/quantity combination is accepted; the quantity may cross zero.
func (p *Position) Attach(t transactions.TransactionType, quantity decimal.Decimal) {
	p.Quantity = p.Quantity.Add(t.SignedDelta(quantity))
	p.refresh()
}

// Detach reverses the effect a prior Attach of the same type and quantity had.
func (p *Position) Detach(t transactions.TransactionType, quantity decimal.Decimal) {
	p.Quantity = p.Quantity.Sub(t.SignedDelta(quantity))
	p.refresh()
}

func (p *Position) refresh() {
	switch p.Quantity.Sign() {
	case 1:
		p.Exposure = ExposureLong
	case -1:
		p.Exposure = ExposureShort
	default:
		p.Exposure = ExposureNone
	}
	p.IsClosed = p.Quantity.IsZero()
}
