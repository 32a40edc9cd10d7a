package models

import "time"

// SystemSetting is a key-value pair editable by operators
type SystemSetting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value       string    `gorm:"size:2000;not null" json:"value"`
	Description string    `gorm:"size:500" json:"description"`
	Category    string    `gorm:"size:50;default:general" json:"category"`
	IsProtected bool      `gorm:"default:false" json:"is_protected"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}
