package positions

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	transactions "main/internal/domain/entity/transactions"
)

var (
	// ErrNoOpenPosition is returned when cost basis is requested for a symbol
	// with no open quantity to match against.
	ErrNoOpenPosition = errors.New("no open position to match")
	// ErrInconsistentHistory signals that the buy history covers less quantity
	// than the position currently holds. The partial map is still returned so
	// callers can inspect what was matched.
	ErrInconsistentHistory = errors.New("buy history does not cover open quantity")
)

// SourceTransactionLink records how much of one historical buy transaction is
// consumed by the current open position. Links are derived per query and never
// persisted.
type SourceTransactionLink struct {
	TransactionID  uuid.UUID       `json:"transaction_id"`
	DateTime       time.Time       `json:"date_time"`
	LinkedQuantity decimal.Decimal `json:"linked_quantity"`
	TradePrice     decimal.Decimal `json:"trade_price"`
}

// BuildSourceTransactionMap matches the open quantity against the buy history
// oldest-first. Each buy is consumed whole until the remainder fits inside a
// single transaction, which is consumed partially and ends the walk; later
// buys stay untouched even when the remainder lands exactly on a boundary.
//
// The buys must be sorted ascending by timestamp. If their total quantity is
// smaller than openQuantity, the partial map is returned together with
// ErrInconsistentHistory.
func BuildSourceTransactionMap(openQuantity decimal.Decimal, buys []transactions.Transaction) ([]SourceTransactionLink, error) {
	if openQuantity.Sign() <= 0 {
		return nil, ErrNoOpenPosition
	}

	remaining := openQuantity
	links := make([]SourceTransactionLink, 0, len(buys))
	for _, buy := range buys {
		link := SourceTransactionLink{
			TransactionID: buy.ID,
			DateTime:      buy.DateTime,
			TradePrice:    buy.TradePrice,
		}
		if remaining.GreaterThan(buy.Quantity) {
			link.LinkedQuantity = buy.Quantity
			links = append(links, link)
			remaining = remaining.Sub(buy.Quantity)
			continue
		}
		link.LinkedQuantity = remaining
		links = append(links, link)
		remaining = decimal.Zero
		break
	}

	if remaining.Sign() > 0 {
		return links, ErrInconsistentHistory
	}
	return links, nil
}

// AverageCostBasis computes the quantity-weighted average trade price over the
// map, rounded to two decimal places.
func AverageCostBasis(links []SourceTransactionLink) (decimal.Decimal, error) {
	totalNotional := decimal.Zero
	totalQuantity := decimal.Zero
	for _, link := range links {
		totalNotional = totalNotional.Add(link.LinkedQuantity.Mul(link.TradePrice))
		totalQuantity = totalQuantity.Add(link.LinkedQuantity)
	}
	if totalQuantity.IsZero() {
		return decimal.Zero, ErrNoOpenPosition
	}
	return totalNotional.Div(totalQuantity).Round(2), nil
}
