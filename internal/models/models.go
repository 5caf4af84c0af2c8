package models

import (
	"time"
)

const (
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"size:255;not null"        json:"-"`
	Role         string `gorm:"size:32;not null;default:driver" json:"role"`
	IsActive     bool   `gorm:"not null;default:true"    json:"is_active"`
}

// RefreshToken rows are kept after revocation for audit.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"              json:"id"`
	JTI       string    `gorm:"size:64;uniqueIndex;not null" json:"jti"`
	UserID    uint      `gorm:"index;not null"          json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	Revoked   bool      `gorm:"not null;default:false"  json:"revoked"`
	CreatedAt time.Time `gorm:"not null"                json:"created_at"`
	ExpiresAt time.Time `gorm:"not null"                json:"expires_at"`
}

// Shift is open while EndTime is nil.
type Shift struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"index;not null"           json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	StartTime time.Time  `gorm:"not null"                 json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Activity  *string    `gorm:"size:16"                  json:"activity"`
}

type Activity struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"index;not null"           json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	ShiftID   *uint      `gorm:"index"                    json:"shift_id"`
	Tag       string     `gorm:"size:16;not null"         json:"activity"`
	StartTime time.Time  `gorm:"not null"                 json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

func (Activity) TableName() string {
	return "activities"
}

func (s *Shift) IsOpen() bool {
	return s.EndTime == nil
}

func (a *Activity) IsActive() bool {
	return a.EndTime == nil
}
