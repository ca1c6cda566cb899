package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionModel maps the transactions table for schema migration.
type TransactionModel struct {
	ID         uuid.UUID       `gorm:"primaryKey;column:id;type:uuid"`
	AccessKey  uuid.UUID       `gorm:"column:access_key;type:uuid;not null;index:idx_transactions_history,priority:1"`
	Symbol     string          `gorm:"column:symbol;type:varchar(20);not null;index:idx_transactions_history,priority:2"`
	Type       string          `gorm:"column:type;type:varchar(20);not null"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:numeric(20,8);not null"`
	TradePrice decimal.Decimal `gorm:"column:trade_price;type:numeric(20,8);not null"`
	Notional   decimal.Decimal `gorm:"column:notional;type:numeric(20,8);not null"`
	DateTime   time.Time       `gorm:"column:date_time;type:timestamptz;not null;index:idx_transactions_history,priority:3"`
	CreatedAt  time.Time       `gorm:"column:created_at;type:timestamptz;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;type:timestamptz;default:CURRENT_TIMESTAMP"`
}

func (TransactionModel) TableName() string { return "transactions" }

// PositionModel maps the positions table. One open position per
// (access_key, symbol); closed positions are deleted, not kept at zero.
type PositionModel struct {
	ID         uuid.UUID       `gorm:"primaryKey;column:id;type:uuid"`
	AccessKey  uuid.UUID       `gorm:"column:access_key;type:uuid;not null;uniqueIndex:idx_positions_account_symbol,priority:1"`
	Symbol     string          `gorm:"column:symbol;type:varchar(20);not null;uniqueIndex:idx_positions_account_symbol,priority:2"`
	Quantity   decimal.Decimal `gorm:"column:quantity;type:numeric(20,8);not null"`
	Exposure   string          `gorm:"column:exposure;type:varchar(10);not null"`
	IsClosed   bool            `gorm:"column:is_closed;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;type:timestamptz;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;type:timestamptz;default:CURRENT_TIMESTAMP"`
	RowVersion int64           `gorm:"column:row_version;not null;default:1"`
}

func (PositionModel) TableName() string { return "positions" }

// All lists every model cmd/migrate feeds into AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&TransactionModel{},
		&PositionModel{},
	}
}
