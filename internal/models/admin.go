package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONB for PostgreSQL JSON support
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	return json.Unmarshal(bytes, &j)
}

const (
	AdminRoleSuperAdmin = "SUPER_ADMIN"
	AdminRoleModerator  = "MODERATOR"
)

// AdminUser marks a user as allowed to moderate top-up requests
type AdminUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string    `gorm:"size:20;not null" json:"role"` // SUPER_ADMIN, MODERATOR
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// AdminLog records admin actions for audit trail
type AdminLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AdminTelegramID int64     `gorm:"not null;index" json:"admin_telegram_id"`
	Action          string    `gorm:"size:100;not null" json:"action"`
	ResourceType    string    `gorm:"size:50" json:"resource_type"`
	ResourceID      string    `gorm:"size:64;index" json:"resource_id"`
	Details         JSONB     `gorm:"type:jsonb" json:"details"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

func (AdminLog) TableName() string {
	return "admin_logs"
}
