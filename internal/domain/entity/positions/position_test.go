package positions

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	transactions "main/internal/domain/entity/transactions"
)

func TestNew_StartsClosed(t *testing.T) {
	p := New(uuid.New(), "AAPL")
	if !p.IsClosed {
		t.Errorf("New() IsClosed = false, want true")
	}
	if p.Exposure != ExposureNone {
		t.Errorf("New() Exposure = %v, want %v", p.Exposure, ExposureNone)
	}
	if !p.Quantity.IsZero() {
		t.Errorf("New() Quantity = %v, want 0", p.Quantity)
	}
}

func TestPosition_Attach(t *testing.T) {
	tests := []struct {
		name     string
		txType   transactions.TransactionType
		quantity string
		want     string
		exposure Exposure
	}{
		{"BuyToOpenIncreases", transactions.BuyToOpen, "10", "10", ExposureLong},
		{"SellToCloseIncreases", transactions.SellToClose, "4", "4", ExposureLong},
		{"SellToOpenDecreases", transactions.SellToOpen, "7", "-7", ExposureShort},
		{"BuyToCloseDecreases", transactions.BuyToClose, "3", "-3", ExposureShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(uuid.New(), "MSFT")
			p.Attach(tt.txType, decimal.RequireFromString(tt.quantity))
			if got := p.Quantity.String(); got != tt.want {
				t.Errorf("Quantity = %v, want %v", got, tt.want)
			}
			if p.Exposure != tt.exposure {
				t.Errorf("Exposure = %v, want %v", p.Exposure, tt.exposure)
			}
			if p.IsClosed {
				t.Errorf("IsClosed = true, want false")
			}
		})
	}
}

func TestPosition_DetachReversesAttach(t *testing.T) {
	p := New(uuid.New(), "TSLA")
	qty := decimal.RequireFromString("12.5")

	p.Attach(transactions.BuyToOpen, qty)
	p.Detach(transactions.BuyToOpen, qty)

	if !p.Quantity.IsZero() {
		t.Errorf("Quantity after attach+detach = %v, want 0", p.Quantity)
	}
	if !p.IsClosed {
		t.Errorf("IsClosed = false, want true")
	}
	if p.Exposure != ExposureNone {
		t.Errorf("Exposure = %v, want %v", p.Exposure, ExposureNone)
	}
}

func TestPosition_CrossesZero(t *testing.T) {
	p := New(uuid.New(), "NVDA")
	p.Attach(transactions.BuyToOpen, decimal.NewFromInt(5))
	p.Attach(transactions.SellToOpen, decimal.NewFromInt(8))

	if got := p.Quantity.String(); got != "-3" {
		t.Errorf("Quantity = %v, want -3", got)
	}
	if p.Exposure != ExposureShort {
		t.Errorf("Exposure = %v, want %v", p.Exposure, ExposureShort)
	}
	if p.IsClosed {
		t.Errorf("IsClosed = true, want false")
	}
}

func TestPosition_ClosesOnExactOffset(t *testing.T) {
	p := New(uuid.New(), "AMZN")
	p.Attach(transactions.BuyToOpen, decimal.NewFromInt(10))
	p.Attach(transactions.BuyToClose, decimal.NewFromInt(10))

	if !p.IsClosed {
		t.Errorf("IsClosed = false, want true")
	}
	if p.Exposure != ExposureNone {
		t.Errorf("Exposure = %v, want %v", p.Exposure, ExposureNone)
	}
}
