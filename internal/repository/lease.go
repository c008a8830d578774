package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mentalist/internal/model"
)

// KeyWriterLease names the process allowed to write state. Planners hold whole-state
// snapshots in memory, so two writers would overwrite each other's keys.
const KeyWriterLease = "mentalist_writer_lease"

// ErrLeaseHeld is returned when another holder owns an unexpired lease.
var ErrLeaseHeld = errors.New("state is in use by another process")

// Lease is the value stored under a lease key.
type Lease struct {
	Holder    string `json:"holder"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (l Lease) expired(now time.Time) bool {
	return now.UnixMilli() >= l.ExpiresAt
}

// AcquireLease claims key for holder until now+ttl. A holder renews its own lease by
// acquiring it again; an expired lease is taken over.
func (r *StateRepository) AcquireLease(ctx context.Context, key, holder string, ttl time.Duration, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry model.StateEntry
		err := tx.Where("state_key = ?", key).First(&entry).Error
		switch {
		case err == nil:
			var cur Lease
			if json.Unmarshal([]byte(entry.Value), &cur) == nil && cur.Holder != holder && !cur.expired(now) {
				return fmt.Errorf("%w: held by %s until %s", ErrLeaseHeld, cur.Holder, time.UnixMilli(cur.ExpiresAt).Format(time.RFC3339))
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("read lease %s: %w", key, err)
		}

		raw, err := json.Marshal(Lease{Holder: holder, ExpiresAt: now.Add(ttl).UnixMilli()})
		if err != nil {
			return fmt.Errorf("encode lease: %w", err)
		}
		next := model.StateEntry{Key: key, Value: string(raw)}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "state_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&next).Error; err != nil {
			return fmt.Errorf("write lease %s: %w", key, err)
		}
		return nil
	})
}

// ReleaseLease drops key if holder still owns it.
func (r *StateRepository) ReleaseLease(ctx context.Context, key, holder string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry model.StateEntry
		err := tx.Where("state_key = ?", key).First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read lease %s: %w", key, err)
		}
		var cur Lease
		if json.Unmarshal([]byte(entry.Value), &cur) == nil && cur.Holder != holder {
			return nil
		}
		if err := tx.Where("state_key = ?", key).Delete(&model.StateEntry{}).Error; err != nil {
			return fmt.Errorf("release lease %s: %w", key, err)
		}
		return nil
	})
}
