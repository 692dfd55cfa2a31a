package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TouchUser upserts display metadata without touching the balance.
func (l *Ledger) TouchUser(ctx context.Context, userID int64, username, fullName string) error {
	result := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "full_name", "updated_at"}),
	}).Create(&User{UserID: userID, Username: username, FullName: fullName})
	if result.Error != nil {
		l.logger.Error("Failed to touch user", zap.Int64("user_id", userID), zap.Error(result.Error))
		return fmt.Errorf("failed to upsert user %d: %w", userID, result.Error)
	}
	return nil
}

// AcceptTerms stamps the first acceptance time; later calls keep it.
func (l *Ledger) AcceptTerms(ctx context.Context, userID int64) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, userID); err != nil {
			return err
		}
		now := time.Now()
		if err := tx.Model(&User{}).
			Where("user_id = ? AND terms_accepted_at IS NULL", userID).
			Update("terms_accepted_at", &now).Error; err != nil {
			return fmt.Errorf("failed to accept terms for user %d: %w", userID, err)
		}
		return nil
	})
}

// HasAcceptedTerms reports whether the user passed the terms gate.
func (l *Ledger) HasAcceptedTerms(ctx context.Context, userID int64) (bool, error) {
	var user User
	err := l.db.WithContext(ctx).Select("terms_accepted_at").Where("user_id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read terms for user %d: %w", userID, err)
	}
	return user.TermsAcceptedAt != nil, nil
}

// RecordGeneration appends a history row. It does not affect the balance.
func (l *Ledger) RecordGeneration(ctx context.Context, userID int64, prompt, category string) (int64, error) {
	gen := Generation{
		UserID:     userID,
		Prompt:     prompt,
		PromptHash: PromptFingerprint(prompt),
		Category:   category,
	}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, userID); err != nil {
			return err
		}
		if err := tx.Create(&gen).Error; err != nil {
			return fmt.Errorf("failed to record generation for user %d: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		l.logger.Error("Failed to record generation", zap.Int64("user_id", userID), zap.Error(err))
		return 0, err
	}
	l.logger.Info("Generation recorded",
		zap.Int64("user_id", userID),
		zap.Int64("generation_id", gen.ID),
		zap.String("prompt_hash", gen.PromptHash),
		zap.String("category", category))
	return gen.ID, nil
}

// GenerationCount returns how many generations the user has been charged for.
func (l *Ledger) GenerationCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	if err := l.db.WithContext(ctx).Model(&Generation{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count generations for user %d: %w", userID, err)
	}
	return count, nil
}

// Generations lists a user's history, newest first.
func (l *Ledger) Generations(ctx context.Context, userID int64, limit int) ([]Generation, error) {
	var gens []Generation
	q := l.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&gens).Error; err != nil {
		return nil, fmt.Errorf("failed to list generations for user %d: %w", userID, err)
	}
	return gens, nil
}

// PromptFingerprint is a 128-bit blake2b digest of the prompt, hex encoded.
// It lets logs correlate generations without carrying the full prompt.
func PromptFingerprint(prompt string) string {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// only fails for invalid sizes or keys
		panic(err)
	}
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
