package transactions

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestTransactionType_SignedDelta(t *testing.T) {
	qty := decimal.NewFromInt(10)
	tests := []struct {
		txType TransactionType
		want   string
	}{
		{BuyToOpen, "10"},
		{SellToClose, "10"},
		{SellToOpen, "-10"},
		{BuyToClose, "-10"},
	}
	for _, tt := range tests {
		t.Run(tt.txType.String(), func(t *testing.T) {
			if got := tt.txType.SignedDelta(qty).String(); got != tt.want {
				t.Errorf("SignedDelta(10) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewTransactionType(t *testing.T) {
	for _, s := range []string{"BuyToOpen", "SellToOpen", "BuyToClose", "SellToClose"} {
		if _, err := NewTransactionType(s); err != nil {
			t.Errorf("NewTransactionType(%q) error = %v", s, err)
		}
	}
	if _, err := NewTransactionType("Transfer"); err == nil {
		t.Errorf("NewTransactionType(Transfer) error = nil, want error")
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := func() Transaction {
		return Transaction{
			AccessKey:  uuid.New(),
			Symbol:     "AAPL",
			Type:       BuyToOpen,
			Quantity:   decimal.NewFromInt(5),
			TradePrice: decimal.RequireFromString("101.50"),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"Valid", func(*Transaction) {}, nil},
		{"MissingAccessKey", func(tx *Transaction) { tx.AccessKey = uuid.Nil }, ErrMissingAccessKey},
		{"MissingSymbol", func(tx *Transaction) { tx.Symbol = "" }, ErrMissingSymbol},
		{"InvalidType", func(tx *Transaction) { tx.Type = "Transfer" }, ErrInvalidType},
		{"ZeroQuantity", func(tx *Transaction) { tx.Quantity = decimal.Zero }, ErrInvalidQuantity},
		{"NegativeQuantity", func(tx *Transaction) { tx.Quantity = decimal.NewFromInt(-1) }, ErrInvalidQuantity},
		{"ZeroTradePrice", func(tx *Transaction) { tx.TradePrice = decimal.Zero }, ErrInvalidTradePrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid()
			tt.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransaction_ValidateNil(t *testing.T) {
	var tx *Transaction
	if err := tx.Validate(); !errors.Is(err, ErrMissingTransaction) {
		t.Errorf("Validate() error = %v, want ErrMissingTransaction", err)
	}
}
