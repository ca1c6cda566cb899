package transactions

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of brokerage actions a transaction can record.
type TransactionType string

const (
	BuyToOpen   TransactionType = "BuyToOpen"
	SellToOpen  TransactionType = "SellToOpen"
	BuyToClose  TransactionType = "BuyToClose"
	SellToClose TransactionType = "SellToClose"
)

func (t TransactionType) String() string {
	return string(t)
}

func (t TransactionType) IsValid() bool {
	switch t {
	case BuyToOpen, SellToOpen, BuyToClose, SellToClose:
		return true
	default:
		return false
	}
}

func NewTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
	return t, nil
}

// IsBuy reports whether the transaction represents a purchase of shares.
func (t TransactionType) IsBuy() bool {
	return t == BuyToOpen || t == BuyToClose
}

// SignedDelta maps the type onto the signed quantity change a position absorbs
// when the transaction is attached. BuyToOpen and SellToClose contribute toward
// the long direction, SellToOpen and BuyToClose toward the short direction.
func (t TransactionType) SignedDelta(quantity decimal.Decimal) decimal.Decimal {
	switch t {
	case BuyToOpen, SellToClose:
		return quantity
	case SellToOpen, BuyToClose:
		return quantity.Neg()
	default:
		return decimal.Zero
	}
}

var (
	ErrMissingSymbol      = errors.New("symbol is required")
	ErrMissingAccessKey   = errors.New("access key is required")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrInvalidTradePrice  = errors.New("trade price must be greater than zero")
	ErrInvalidType        = errors.New("transaction type is invalid")
	ErrMissingTransaction = errors.New("transaction is nil")
)

// Transaction is an immutable record of a single brokerage action. It is
// replaced whole on update and removed on delete, never partially mutated.
type Transaction struct {
	ID         uuid.UUID       `json:"id"`
	AccessKey  uuid.UUID       `json:"access_key"`
	Symbol     string          `json:"symbol"`
	Type       TransactionType `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	TradePrice decimal.Decimal `json:"trade_price"`
	Notional   decimal.Decimal `json:"notional"`
	DateTime   time.Time       `json:"date_time"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Validate checks the field constraints shared by create and update flows.
func (t *Transaction) Validate() error {
	if t == nil {
		return ErrMissingTransaction
	}
	if t.AccessKey == uuid.Nil {
		return ErrMissingAccessKey
	}
	if t.Symbol == "" {
		return ErrMissingSymbol
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if !t.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if !t.TradePrice.IsPositive() {
		return ErrInvalidTradePrice
	}
	return nil
}
