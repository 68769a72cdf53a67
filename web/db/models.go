package db

import (
	"time"

	"gorm.io/gorm"
)

// Package is a product tier referenced by many credentials.
type Package struct {
	gorm.Model
	Name     string `gorm:"unique"`
	Duration int    // months
}

type Reseller struct {
	gorm.Model
	CustomerNo string `gorm:"unique"`
	Name       string
	Email      string
}

type City struct {
	gorm.Model
	Name string `gorm:"unique"`
}

// User is created exactly once per successful QR registration.
// QRKey is the one-time token that gated the initial entry; it is a
// separate keyspace from Credential.Code.
type User struct {
	gorm.Model
	Name    string
	Email   string `gorm:"unique"`
	Tel     string
	Company string
	Address string
	CityID  *uint
	City    *City
	QRKey   string `gorm:"uniqueIndex;size:64"`
}

// Credential is a redeemable license record. Email/Password are the
// access secret of the underlying product, not portal auth. A
// credential is sold at most once (Sale) and redeemed at most once
// (UserID set, RedeemedAt stamped).
type Credential struct {
	gorm.Model
	Code     string `gorm:"uniqueIndex;size:32"`
	Email    string
	Password string
	Quota    int

	PackageID *uint
	Package   *Package
	UserID    *uint
	User      *User

	ActivatedAt *time.Time
	ExpiresAt   *time.Time
	RedeemedAt  *time.Time
}

// Sale assigns a credential to a reseller. The unique index on
// CredentialID is the store-level backstop for the one-sale-per-
// credential invariant.
type Sale struct {
	gorm.Model
	ResellerID   uint `gorm:"index;not null"`
	Reseller     Reseller
	CredentialID uint `gorm:"uniqueIndex;not null"`
	Credential   Credential
}

type Admin struct {
	gorm.Model
	Email    string `gorm:"unique"`
	Password string
}

type AuditEntry struct {
	gorm.Model
	Actor    string
	Action   string
	Entity   string
	EntityID uint
	Detail   string
}
