package models

import "time"

// User roles.
const (
	RoleHomeowner  = "homeowner"
	RoleContractor = "contractor"
	RoleMerchant   = "merchant"
	RoleAdmin      = "admin"
)

// User is a platform account. Role checks for work-order assignment read
// from here; authentication itself lives outside this service.
type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	Email     string `gorm:"size:255;uniqueIndex"`
	FirstName string `gorm:"size:100"`
	LastName  string `gorm:"size:100"`
	Role      string `gorm:"size:16;default:homeowner;index"`
	Active    bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MemberProfile extends a homeowner account with membership data. The
// loyalty balance here is a denormalized accelerator: the ledger in
// loyalty_point_transactions is the source of truth and this field is only
// ever written in the same transaction as a ledger row.
type MemberProfile struct {
	ID                  string `gorm:"primaryKey;size:36"`
	UserID              string `gorm:"size:36;uniqueIndex"`
	MembershipTier      string `gorm:"size:32;default:HomeBASE"`
	LoyaltyPointBalance int    `gorm:"default:0"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	User User `gorm:"foreignKey:UserID"`
}
