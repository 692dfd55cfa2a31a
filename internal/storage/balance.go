package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Ledger owns every balance mutation. All changes are single-statement
// atomic updates so concurrent debits, refunds and top-ups for one user
// cannot lose writes.
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewLedger(db *gorm.DB, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{db: db, logger: logger.Named("ledger")}
}

// ensureUser inserts a zero-balance row unless one already exists.
func ensureUser(tx *gorm.DB, userID int64) error {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&User{UserID: userID}).Error; err != nil {
		return fmt.Errorf("failed to ensure user %d: %w", userID, err)
	}
	return nil
}

func readBalance(tx *gorm.DB, userID int64) (int64, error) {
	var user User
	if err := tx.Select("balance").Where("user_id = ?", userID).Take(&user).Error; err != nil {
		return 0, fmt.Errorf("failed to read balance for user %d: %w", userID, err)
	}
	return user.Balance, nil
}

// GetBalance returns the stored balance, creating the account with zero
// credits on first sight.
func (l *Ledger) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, userID); err != nil {
			return err
		}
		b, err := readBalance(tx, userID)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		l.logger.Error("Failed to get balance", zap.Int64("user_id", userID), zap.Error(err))
		return 0, err
	}
	return balance, nil
}

// SetBalance overwrites the balance, creating the account if needed.
func (l *Ledger) SetBalance(ctx context.Context, userID int64, balance int64) error {
	if balance < 0 {
		return ErrInvalidAmount
	}
	result := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&User{UserID: userID, Balance: balance})
	if result.Error != nil {
		l.logger.Error("Failed to set balance", zap.Int64("user_id", userID), zap.Error(result.Error))
		return fmt.Errorf("failed to set balance for user %d: %w", userID, result.Error)
	}
	l.logger.Info("Balance set", zap.Int64("user_id", userID), zap.Int64("balance", balance))
	return nil
}

// AddBalance atomically increments the balance and returns the new value.
func (l *Ledger) AddBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	if delta <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance":    gorm.Expr("balance + ?", delta),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).Create(&User{UserID: userID, Balance: delta})
		if result.Error != nil {
			return fmt.Errorf("failed to add balance for user %d: %w", userID, result.Error)
		}
		b, err := readBalance(tx, userID)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		l.logger.Error("Failed to add balance", zap.Int64("user_id", userID), zap.Int64("delta", delta), zap.Error(err))
		return 0, err
	}
	l.logger.Info("Balance added", zap.Int64("user_id", userID), zap.Int64("delta", delta), zap.Int64("balance", balance))
	return balance, nil
}

// Debit atomically subtracts amount. The update only matches while the
// balance covers the amount, so the stored value never goes negative.
func (l *Ledger) Debit(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var balance int64
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, userID); err != nil {
			return err
		}
		result := tx.Model(&User{}).
			Where("user_id = ? AND balance >= ?", userID, amount).
			Updates(map[string]interface{}{"balance": gorm.Expr("balance - ?", amount)})
		if result.Error != nil {
			return fmt.Errorf("failed to debit user %d: %w", userID, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientBalance
		}
		b, err := readBalance(tx, userID)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrInsufficientBalance) {
			l.logger.Error("Debit failed", zap.Int64("user_id", userID), zap.Int64("amount", amount), zap.Error(err))
		}
		return 0, err
	}
	l.logger.Info("Balance debited", zap.Int64("user_id", userID), zap.Int64("amount", amount), zap.Int64("balance", balance))
	return balance, nil
}

// GrantFirstCredit gives amount credits to an account that has a zero
// balance and no generation history. It reports whether the grant happened.
func (l *Ledger) GrantFirstCredit(ctx context.Context, userID int64, amount int64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}

	granted := false
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, userID); err != nil {
			return err
		}
		result := tx.Model(&User{}).
			Where("user_id = ? AND balance = 0 AND NOT EXISTS (SELECT 1 FROM generations WHERE generations.user_id = ?)", userID, userID).
			Updates(map[string]interface{}{"balance": amount})
		if result.Error != nil {
			return fmt.Errorf("failed to grant first credit to user %d: %w", userID, result.Error)
		}
		granted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		l.logger.Error("First credit grant failed", zap.Int64("user_id", userID), zap.Error(err))
		return false, err
	}
	if granted {
		l.logger.Info("First credit granted", zap.Int64("user_id", userID), zap.Int64("amount", amount))
	}
	return granted, nil
}

// Stats returns user count, generation count and the sum of all balances.
func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	db := l.db.WithContext(ctx)
	if err := db.Model(&User{}).Count(&stats.Users).Error; err != nil {
		return Stats{}, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&Generation{}).Count(&stats.Generations).Error; err != nil {
		return Stats{}, fmt.Errorf("failed to count generations: %w", err)
	}
	if err := db.Model(&User{}).Select("COALESCE(SUM(balance), 0)").Scan(&stats.BalanceSum).Error; err != nil {
		return Stats{}, fmt.Errorf("failed to sum balances: %w", err)
	}
	return stats, nil
}
