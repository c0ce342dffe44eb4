package ledger

import (
	"time"
)

// User owns ledger rows. Phone is the immutable identity; it is created
// lazily on a user's first transaction and never renamed or merged.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Phone     string    `gorm:"uniqueIndex;not null" json:"userPhone"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Transaction is a unified ledger entry. Amount is a magnitude; the sign is
// implied by Type ("credit" or "debit"), never stored as a negative number.
type Transaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Type        string    `gorm:"not null" json:"type"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Source      *string   `json:"source"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Credit denormalizes a credit-typed transaction into the credit table.
// It is a sibling row created from the same analysis event, not a foreign
// key onto Transaction.
type Credit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Description *string   `json:"description"`
	Source      *string   `json:"source"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Debit denormalizes a debit-typed transaction into the debit table.
type Debit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary aggregates a user's ledger. Totals come from the type-specific
// tables, not the unified one.
type Summary struct {
	TotalDebit        float64            `json:"totalDebit"`
	TotalCredit       float64            `json:"totalCredit"`
	Balance           float64            `json:"balance"`
	DebitCount        int64              `json:"debitCount"`
	CreditCount       int64              `json:"creditCount"`
	CategoryBreakdown map[string]float64 `json:"categoryBreakdown"`
	SourceBreakdown   map[string]float64 `json:"sourceBreakdown"`
}
