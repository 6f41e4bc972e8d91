package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Current signed-in session
	SettingKeyCurrentUserID = "auth_current_user_id"

	// Reaper bookkeeping
	SettingKeyReaperLastAt      = "reaper_last_at"
	SettingKeyReaperLastStatus  = "reaper_last_status"
	SettingKeyReaperLastMessage = "reaper_last_message"
	SettingKeyReaperLastPurged  = "reaper_last_purged"

	// Cloud reconciliation bookkeeping
	SettingKeyCloudSyncLastAt      = "cloud_sync_last_at"
	SettingKeyCloudSyncLastStatus  = "cloud_sync_last_status"
	SettingKeyCloudSyncLastMessage = "cloud_sync_last_message"
	SettingKeyCloudSyncLastPushed  = "cloud_sync_last_pushed"

	// Lifetime counter of favorites marked finished
	SettingKeyBooksFinished = "books_finished_total"
)
