package model

import "time"

type Role string

const (
	RoleBuyer        Role = "BUYER"
	RolePhotographer Role = "PHOTOGRAPHER"
)

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'BUYER'" json:"role"`
	TokenVersion int    `gorm:"not null;default:0" json:"-"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`

	//以下はPHOTOGRAPHERのみ使う

	//公開表示名（URLの識別子にもなる）
	DisplayName string `gorm:"type:varchar(255);index" json:"display_name"`

	//銀行振込を受け付けるか
	BankTransferEnabled bool `gorm:"not null;default:false" json:"bank_transfer_enabled"`

	//振込先の案内文（銀行振込のFinishステップで表示）
	PayoutInstructions string `gorm:"type:text" json:"payout_instructions,omitempty"`

	//決済プロバイダ側の送金先ID
	StripeAccountID string `gorm:"type:varchar(255)" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
