package model

import "time"

type Affiliate struct {
	AffiliateID        uint64    `gorm:"primaryKey;column:affiliate_id" json:"affiliate_id"`
	UserID             uint64    `gorm:"not null;uniqueIndex" json:"user_id"`
	Status             string    `gorm:"size:16;not null;default:'active'" json:"status"`
	StoreCreditEnabled bool      `gorm:"not null;default:false" json:"store_credit_enabled"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Affiliate) TableName() string { return "affiliates" }
