// Package throttle — разделяемый счётчик попыток с истекающим окном.
// Хранится в БД, а не в памяти процесса: корректен при нескольких
// инстансах сервиса за балансировщиком.
package throttle

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrThrottled = errors.New("too many attempts")

// Attempt — строка счётчика на ключ (обычно IP источника).
type Attempt struct {
	Key       string    `gorm:"primaryKey;size:128"`
	Count     int       `gorm:"not null"`
	LastTry   time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

type Limiter struct {
	db     *gorm.DB
	max    int
	window time.Duration
	now    func() time.Time
}

func NewLimiter(db *gorm.DB, max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &Limiter{db: db, max: max, window: window, now: func() time.Time { return time.Now().UTC() }}
}

// Allow — ErrThrottled, если лимит выбран и окно ещё не истекло.
// Истекшее окно сбрасывает счётчик.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	var a Attempt
	err := l.db.WithContext(ctx).First(&a, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if l.now().Sub(a.LastTry) >= l.window {
		return l.Reset(ctx, key)
	}
	if a.Count >= l.max {
		return ErrThrottled
	}
	return nil
}

// Hit инкрементирует счётчик (upsert, безопасно при конкурентных попытках).
func (l *Limiter) Hit(ctx context.Context, key string) error {
	now := l.now()
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":    gorm.Expr("count + 1"),
			"last_try": now,
		}),
	}).Create(&Attempt{Key: key, Count: 1, LastTry: now}).Error
}

// Reset очищает счётчик (успешный вход).
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.db.WithContext(ctx).Delete(&Attempt{}, "key = ?", key).Error
}
