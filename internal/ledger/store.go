package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Sentinel errors translated from the underlying driver so callers never
// depend on gorm directly.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Store is the relational persistence layer for users and their ledgers.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at dbPath and migrates the schema.
func Open(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}
	if err := db.AutoMigrate(&User{}, &Transaction{}, &Credit{}, &Debit{}); err != nil {
		return nil, fmt.Errorf("ledger: migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("ledger: unwrap db: %w", err)
	}
	return sqlDB.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("ledger: unwrap db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// CreateUser inserts a user. Returns ErrDuplicate when the phone is taken.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate("create user", err)
	}
	return nil
}

// FindUserByPhone looks a user up by their unique phone identifier.
func (s *Store) FindUserByPhone(ctx context.Context, phone string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	if err != nil {
		return nil, translate("find user", err)
	}
	return &user, nil
}

// SaveTransaction writes the unified row and its type-specific sibling as one
// atomic unit. Exactly one of credit/debit may be non-nil; partial failure
// rolls back both rows.
func (s *Store) SaveTransaction(ctx context.Context, txn *Transaction, credit *Credit, debit *Debit) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		if credit != nil {
			if err := tx.Create(credit).Error; err != nil {
				return err
			}
		}
		if debit != nil {
			if err := tx.Create(debit).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translate("save transaction", err)
	}
	return nil
}

// ListTransactions returns all unified rows for a user, newest date first.
func (s *Store) ListTransactions(ctx context.Context, userID uint) ([]Transaction, error) {
	var rows []Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate("list transactions", err)
	}
	return rows, nil
}

// ListCredits returns all credit rows for a user, newest date first.
func (s *Store) ListCredits(ctx context.Context, userID uint) ([]Credit, error) {
	var rows []Credit
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate("list credits", err)
	}
	return rows, nil
}

// ListDebits returns all debit rows for a user, newest date first.
func (s *Store) ListDebits(ctx context.Context, userID uint) ([]Debit, error) {
	var rows []Debit
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate("list debits", err)
	}
	return rows, nil
}

// FilterTransactionsByCategory matches the unified table by case-insensitive
// substring on category.
func (s *Store) FilterTransactionsByCategory(ctx context.Context, userID uint, category string) ([]Transaction, error) {
	var rows []Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(category) LIKE ?", userID, likePattern(category)).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate("filter transactions", err)
	}
	return rows, nil
}

// FilterDebitsByCategory matches the debit table by case-insensitive
// substring on category.
func (s *Store) FilterDebitsByCategory(ctx context.Context, userID uint, category string) ([]Debit, error) {
	var rows []Debit
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(category) LIKE ?", userID, likePattern(category)).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate("filter debits", err)
	}
	return rows, nil
}

// Summarize aggregates totals, counts and breakdowns for a user. Totals sum
// the type-specific tables; balance is credit minus debit.
func (s *Store) Summarize(ctx context.Context, userID uint) (*Summary, error) {
	summary := &Summary{
		CategoryBreakdown: make(map[string]float64),
		SourceBreakdown:   make(map[string]float64),
	}

	type totalRow struct {
		Total float64
		Count int64
	}

	var credits totalRow
	err := s.db.WithContext(ctx).Model(&Credit{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Scan(&credits).Error
	if err != nil {
		return nil, translate("sum credits", err)
	}

	var debits totalRow
	err = s.db.WithContext(ctx).Model(&Debit{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Scan(&debits).Error
	if err != nil {
		return nil, translate("sum debits", err)
	}

	summary.TotalCredit = credits.Total
	summary.CreditCount = credits.Count
	summary.TotalDebit = debits.Total
	summary.DebitCount = debits.Count
	summary.Balance = summary.TotalCredit - summary.TotalDebit

	type bucketRow struct {
		Bucket string
		Total  float64
	}

	var categoryBuckets []bucketRow
	err = s.db.WithContext(ctx).Model(&Debit{}).
		Select("COALESCE(category, 'uncategorized') AS bucket, SUM(amount) AS total").
		Where("user_id = ?", userID).
		Group("bucket").
		Scan(&categoryBuckets).Error
	if err != nil {
		return nil, translate("category breakdown", err)
	}
	for _, b := range categoryBuckets {
		summary.CategoryBreakdown[b.Bucket] = b.Total
	}

	var sourceBuckets []bucketRow
	err = s.db.WithContext(ctx).Model(&Credit{}).
		Select("COALESCE(source, 'unknown') AS bucket, SUM(amount) AS total").
		Where("user_id = ?", userID).
		Group("bucket").
		Scan(&sourceBuckets).Error
	if err != nil {
		return nil, translate("source breakdown", err)
	}
	for _, b := range sourceBuckets {
		summary.SourceBreakdown[b.Bucket] = b.Total
	}

	return summary, nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("ledger: %s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("ledger: %s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("ledger: %s: %w", op, err)
	}
}
