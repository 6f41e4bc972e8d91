// Package settings provides database operations for persisted key-value
// state: the current sign-in session and the bookkeeping of background jobs
// (last reap, last cloud reconciliation).
package settings

import (
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/readscout/readscout/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves a setting value by key. Returns an empty string when the key
// is not set.
func (r *Repository) Get(key string) (string, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// Set creates or updates a setting.
func (r *Repository) Set(key, value string) error {
	var setting entities.Setting
	result := r.db.Where("key = ?", key).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = entities.Setting{
			Key:   key,
			Value: value,
		}
		return r.db.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return r.db.Save(&setting).Error
}

// Delete removes a setting by key.
func (r *Repository) Delete(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}

// GetTime parses a stored RFC3339 timestamp. Returns nil when the key is not
// set or holds an unparseable value.
func (r *Repository) GetTime(key string) (*time.Time, error) {
	value, err := r.Get(key)
	if err != nil || value == "" {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, nil
	}
	return &ts, nil
}

// SetJobStatus records the outcome of a background job run under the given
// key prefix: <prefix>_last_at, <prefix>_last_status, <prefix>_last_message.
func (r *Repository) SetJobStatus(prefix, status, message string) error {
	if err := r.Set(prefix+"_last_at", time.Now().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := r.Set(prefix+"_last_status", status); err != nil {
		return err
	}
	return r.Set(prefix+"_last_message", message)
}

// SetCount stores an integer counter, e.g. rows purged by the last reap.
func (r *Repository) SetCount(key string, count int64) error {
	return r.Set(key, strconv.FormatInt(count, 10))
}

// Increment bumps an integer counter by one, starting from zero when the key
// is absent or holds a non-numeric value.
func (r *Repository) Increment(key string) error {
	value, err := r.Get(key)
	if err != nil {
		return err
	}
	count, _ := strconv.ParseInt(value, 10, 64)
	return r.SetCount(key, count+1)
}

// JobStatus reads a background job's last recorded outcome.
func (r *Repository) JobStatus(prefix string) (lastAt *time.Time, status, message string, err error) {
	lastAt, err = r.GetTime(prefix + "_last_at")
	if err != nil {
		return nil, "", "", err
	}
	status, err = r.Get(prefix + "_last_status")
	if err != nil {
		return nil, "", "", err
	}
	message, err = r.Get(prefix + "_last_message")
	if err != nil {
		return nil, "", "", err
	}
	return lastAt, status, message, nil
}
