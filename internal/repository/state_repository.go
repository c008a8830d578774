package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mentalist/internal/model"
)

// Logical keys of the persisted state.
const (
	KeyTasks              = "mentalist_tasks"
	KeyTheme              = "mentalist_theme"
	KeyCategories         = "mentalist_categories"
	KeySoundSettings      = "mentalist_sound_settings"
	KeyCarryForward       = "mentalist_carry_forward"
	KeyRotationEnabled    = "mentalist_rotation_enabled"
	KeyDisplayMode        = "mentalist_display_mode"
	KeyLastCarryForward   = "mentalist_last_carry_forward"
	KeyQuoteIndex         = "mentalist_quote_index"
	KeyQuoteUpdated       = "mentalist_quote_last_update"
	KeySuggestionsIndex   = "mentalist_suggestions_index"
	KeySuggestionsUpdated = "mentalist_suggestions_last_update"
	KeyCollabRequests     = "mentalist_collab_requests"
	KeyCollabInbox        = "mentalist_collab_inbox"
	KeyNotifications      = "mentalist_notifications"
	KeyActiveCategory     = "mentalist_active_category"
)

// StateRepository is a key-value store of whole-state snapshots.
type StateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get returns the raw value stored under key. ok is false when the key was never written.
func (r *StateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var entry model.StateEntry
	err := r.db.WithContext(ctx).Where("state_key = ?", key).First(&entry).Error
	switch {
	case err == nil:
		return entry.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
}

// Put overwrites the value stored under key.
func (r *StateRepository) Put(ctx context.Context, key, value string) error {
	entry := model.StateEntry{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "state_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (r *StateRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("state_key = ?", key).Delete(&model.StateEntry{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// SaveJSON encodes v and stores it under key.
func (r *StateRepository) SaveJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.Put(ctx, key, string(raw))
}

// LoadJSON decodes the value under key into dst. It reports false when the key is
// absent, unreadable or malformed; the last two are logged. dst may be partially
// written on malformed input, so callers decode into a scratch value.
func (r *StateRepository) LoadJSON(ctx context.Context, key string, dst any) bool {
	raw, ok, err := r.Get(ctx, key)
	if err != nil {
		log.Printf("[warn] load %s: %v", key, err)
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		log.Printf("[warn] malformed %s, using defaults: %v", key, err)
		return false
	}
	return true
}

// LoadString returns the raw value under key, or fallback when it is absent or unreadable.
func (r *StateRepository) LoadString(ctx context.Context, key, fallback string) string {
	raw, ok, err := r.Get(ctx, key)
	if err != nil {
		log.Printf("[warn] load %s: %v", key, err)
		return fallback
	}
	if !ok || raw == "" {
		return fallback
	}
	return raw
}
