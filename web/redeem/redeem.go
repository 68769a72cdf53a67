// Package redeem implements the credential redemption workflow: the QR
// admission gate, code validation, sale assignment and the registration
// commit. Every check-then-act sequence runs inside a single
// transaction so concurrent requests racing on the same credential
// resolve to exactly one winner.
package redeem

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"license-portal/web/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrNotFound: no credential carries this code, or the code was
	// consumed between validate and commit.
	ErrNotFound = errors.New("invalid code")

	// ErrUnassigned: the credential exists but no reseller sale covers
	// it yet; redemption is blocked until an administrator assigns it.
	ErrUnassigned = errors.New("code is not associated with any reseller")

	// ErrAlreadyRedeemed: the credential already has a user attached.
	ErrAlreadyRedeemed = errors.New("code has already been used")

	// ErrAlreadyAssigned: a sale already references the credential.
	ErrAlreadyAssigned = errors.New("credential is already assigned to a sale")

	// ErrReferenceNotFound: reseller or credential id does not resolve.
	ErrReferenceNotFound = errors.New("referenced record not found")

	// ErrQRKeyUsed: the one-time qr key was consumed by an earlier
	// registration.
	ErrQRKeyUsed = errors.New("qr key has already been used")

	ErrValidation = errors.New("missing or invalid required fields")
)

// Registration carries the fields collected from the client after a
// successful validate. Name and Email are required; everything else is
// optional.
type Registration struct {
	Name    string
	Email   string
	Tel     string
	Company string
	Address string
	CityID  *uint
	QRKey   string
	ActDate *time.Time
	EndDate *time.Time
}

type Service struct {
	DB *gorm.DB
}

func NewService(gdb *gorm.DB) *Service {
	return &Service{DB: gdb}
}

// Admit checks the one-time qr key gating initial entry. A key is
// consumed the moment a user row carries it; admission never writes.
func (s *Service) Admit(qrKey string) error {
	if strings.TrimSpace(qrKey) == "" {
		return ErrValidation
	}

	var user db.User
	err := s.DB.Where("qr_key = ?", qrKey).First(&user).Error
	if err == nil {
		return ErrQRKeyUsed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return fmt.Errorf("lookup qr key: %w", err)
}

// Validate reports whether a code can still be redeemed. Read-only; on
// success it returns the credential with its package preloaded so the
// client can show plan details before collecting registration data.
func (s *Service) Validate(code string) (*db.Credential, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrValidation
	}

	var cred db.Credential
	err := s.DB.Preload("Package").Where("code = ?", code).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup credential: %w", err)
	}

	if cred.UserID != nil {
		return nil, ErrAlreadyRedeemed
	}

	var sold int64
	if err := s.DB.Model(&db.Sale{}).Where("credential_id = ?", cred.ID).Count(&sold).Error; err != nil {
		return nil, fmt.Errorf("lookup sale: %w", err)
	}
	if sold == 0 {
		return nil, ErrUnassigned
	}

	return &cred, nil
}

// Assign records the sale of a credential to a reseller. A credential
// is sold at most once: a second call returns ErrAlreadyAssigned
// together with the existing sale. If two calls race past the
// existence check, the unique index on sales.credential_id rejects the
// loser and it is reported as ErrAlreadyAssigned as well.
func (s *Service) Assign(resellerID, credentialID uint) (*db.Sale, error) {
	var sale db.Sale

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing db.Sale
		err := tx.Where("credential_id = ?", credentialID).First(&existing).Error
		if err == nil {
			sale = existing
			return ErrAlreadyAssigned
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup existing sale: %w", err)
		}

		var reseller db.Reseller
		if err := tx.First(&reseller, resellerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReferenceNotFound
			}
			return fmt.Errorf("lookup reseller: %w", err)
		}

		var cred db.Credential
		if err := tx.First(&cred, credentialID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReferenceNotFound
			}
			return fmt.Errorf("lookup credential: %w", err)
		}

		sale = db.Sale{ResellerID: resellerID, CredentialID: credentialID}
		if err := tx.Create(&sale).Error; err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		return nil
	})

	if err == nil {
		return &sale, nil
	}
	if errors.Is(err, ErrAlreadyAssigned) {
		return &sale, ErrAlreadyAssigned
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race after the existence check; surface the winner.
		var winner db.Sale
		if lookupErr := s.DB.Where("credential_id = ?", credentialID).First(&winner).Error; lookupErr == nil {
			return &winner, ErrAlreadyAssigned
		}
		return nil, ErrAlreadyAssigned
	}
	return nil, err
}

// Commit attaches a new user to the credential identified by code and
// stamps the redemption time, closing the redemption window. The user
// insert and the credential update share one transaction; the update is
// guarded by "user_id IS NULL" and by the credential being sold, so a
// concurrently consumed or never-assigned code affects zero rows and
// the whole transaction rolls back with ErrNotFound.
func (s *Service) Commit(code string, reg Registration) (*db.User, error) {
	if strings.TrimSpace(code) == "" ||
		strings.TrimSpace(reg.Name) == "" ||
		strings.TrimSpace(reg.Email) == "" {
		return nil, ErrValidation
	}

	user := db.User{
		Name:    reg.Name,
		Email:   reg.Email,
		Tel:     reg.Tel,
		Company: reg.Company,
		Address: reg.Address,
		CityID:  reg.CityID,
		QRKey:   reg.QRKey,
	}
	if user.QRKey == "" {
		user.QRKey = uuid.New().String()
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		now := time.Now()
		updates := map[string]any{
			"user_id":     user.ID,
			"redeemed_at": &now,
		}
		if reg.ActDate != nil {
			updates["activated_at"] = reg.ActDate
		}
		if reg.EndDate != nil {
			updates["expires_at"] = reg.EndDate
		}

		res := tx.Model(&db.Credential{}).
			Where("code = ? AND user_id IS NULL", code).
			Where("id IN (?)", tx.Session(&gorm.Session{NewDB: true}).Model(&db.Sale{}).Select("credential_id")).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("attach user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Email or qr key already registered.
			return nil, fmt.Errorf("%w: email or qr key already registered", ErrValidation)
		}
		return nil, err
	}
	return &user, nil
}
