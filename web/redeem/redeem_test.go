package redeem

import (
	"errors"
	"testing"

	"license-portal/web/db"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// A :memory: database exists per connection; keep the pool at one.
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	err = gdb.AutoMigrate(
		&db.Package{}, &db.Reseller{}, &db.City{}, &db.User{},
		&db.Credential{}, &db.Sale{}, &db.Admin{}, &db.AuditEntry{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func seedCredential(t *testing.T, gdb *gorm.DB, code string) *db.Credential {
	t.Helper()
	pkg := db.Package{Name: "Starter " + code, Duration: 12}
	if err := gdb.Create(&pkg).Error; err != nil {
		t.Fatalf("seed package: %v", err)
	}
	cred := db.Credential{Code: code, Email: code + "@product.example", Password: "s3cret", Quota: 5, PackageID: &pkg.ID}
	if err := gdb.Create(&cred).Error; err != nil {
		t.Fatalf("seed credential: %v", err)
	}
	return &cred
}

func seedReseller(t *testing.T, gdb *gorm.DB, no string) *db.Reseller {
	t.Helper()
	r := db.Reseller{CustomerNo: no, Name: "Reseller " + no}
	if err := gdb.Create(&r).Error; err != nil {
		t.Fatalf("seed reseller: %v", err)
	}
	return &r
}

func TestValidateUnknownCode(t *testing.T) {
	s := NewService(testDB(t))
	if _, err := s.Validate("NOPE1234"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateEmptyCode(t *testing.T) {
	s := NewService(testDB(t))
	if _, err := s.Validate("  "); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestValidateUnassigned(t *testing.T) {
	gdb := testDB(t)
	s := NewService(gdb)
	seedCredential(t, gdb, "AB120000")

	if _, err := s.Validate("AB120000"); !errors.Is(err, ErrUnassigned) {
		t.Errorf("expected ErrUnassigned, got %v", err)
	}
}

func TestAssignIdempotent(t *testing.T) {
	gdb := testDB(t)
	s := NewService(gdb)
	cred := seedCredential(t, gdb, "AB120001")
	reseller := seedReseller(t, gdb, "C-001")

	first, err := s.Assign(reseller.ID, cred.ID)
	if err != nil {
		t.Fatalf("first assign: %v", err)
	}

	second, err := s.Assign(reseller.ID, cred.ID)
	if !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("expected ErrAlreadyAssigned, got %v", err)
	}
	if second == nil || second.ID != first.ID {
		t.Errorf("second assign did not return the existing sale")
	}

	var count int64
	gdb.Model(&db.Sale{}).Where("credential_id = ?", cred.ID).Count(&count)
	if count != 1 {
		t.Errorf("sale count = %d, want 1", count)
	}
}

func TestReassignAfterUnassign(t *testing.T) {
	gdb := testDB(t)
	s := NewService(gdb)
	cred := seedCredential(t, gdb, "AB120009")
	first := seedReseller(t, gdb, "C-009")
	second := seedReseller(t, gdb, "C-010")

	sale, err := s.Assign(first.ID, cred.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	// Un-assignment removes the row outright so the unique index frees
	// the credential for a new sale.
	if err := gdb.Unscoped().Delete(&db.Sale{}, sale.ID).Error; err != nil {
		t.Fatalf("unassign: %v", err)
	}

	if _, err := s.Validate("AB120009"); !errors.Is(err, ErrUnassigned) {
		t.Fatalf("after unassign: expected ErrUnassigned, got %v", err)
	}

	if _, err := s.Assign(second.ID, cred.ID); err != nil {
		t.Errorf("reassign: %v", err)
	}
}

func TestAssignReferenceNotFound(t *testing.T) {
	gdb := testDB(t)
	s := NewService(gdb)
	cred := seedCredential(t, gdb, "AB120002")
	reseller := seedReseller(t, gdb, "C-002")

	if _, err := s.Assign(9999, cred.ID); !errors.Is(err, ErrReferenceNotFound) {
		t.Errorf("missing reseller: expected ErrReferenceNotFound, got %v", err)
	}
	if _, err := s.Assign(reseller.ID, 9999); !errors.Is(err, ErrReferenceNotFound) {
		t.Errorf("missing credential: expected ErrReferenceNotFound, got %v", err)
	}
}

func TestRedemptionLifecycle(t *testing.T) {
	gdb := testDB(t)
	s := NewService(gdb)
	cred := seedCredential(t, gdb, "EA548369")
	reseller := seedReseller(t, gdb, "C-007")

	if _, err := s.Validate("EA548369"); !errors.Is(err, ErrUnassigned) {
		t.Fatalf("before assign: expected ErrUnassigned, got %v", err)
	}

	if _, err := s.Assign(reseller.ID, cred.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	got, err := s.Validate("EA548369")
	if err != nil {
		t.Fatalf("after assign: %v", err)
	}
	if got.Package == nil || got.Package.Name != "Starter EA548369" {
		t.Errorf("validate did not return the linked package")
	}
	if got.Quota != 5 {
		t.Errorf("quota = %d, want 5", got.Quota)
	}

	user, err := s.Commit("EA548369", Registration{
		Name:  "Jane",
		Email: "jane@x.com",
		Tel:   "0711234567",
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("commit did not persist the user")
	}

	if _, err := s.Validate("EA548369"); !errors.Is(err, ErrAlreadyRedeemed) {
		t.Errorf("after commit: expected ErrAlreadyRedeemed, got %v", err)
	}

	var reloaded db.Credential
	if err := gdb.Where("code = ?", "EA548369").First(&reloaded).Error; err != nil {
		t.Fatalf("reload credential: %v", err)
	}
	if reloaded.UserID == nil || *reloaded.UserID != user.ID {
		t.Errorf("credential not attached to the registered user")
	}
	if reloaded.RedeemedAt == nil {
		t.Errorf("redemption timestamp not set")
	}

	// Redemption is single-use.
	if _, err := s.Commit("EA548369", Registration{Name: "Mallory", Email: "mallory@x.com"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("second commit: expected ErrNotFound, got %v", err)
	}
}

func TestCommitRequiresFields(t *testing.T) {
	gdb := testDB(t)
	s := NewService(gdb)
	cred := seedCredential(t, gdb, "AB120003")
	reseller := seedReseller(t, gdb, "C-003")
	if _, err := s.Assign(reseller.ID, cred.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := s.Commit("AB120003", Registration{Email: "no-name@x.com"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing name: expected ErrValidation, got %v", err)
	}
	if _, err := s.Commit("AB120003", Registration{Name: "No Email"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing email: expected ErrValidation, got %v", err)
	}
}

func TestCommitUnsoldCode(t *testing.T) {
	gdb := testDB(t)
	s := NewService(gdb)
	seedCredential(t, gdb, "AB120004")

	if _, err := s.Commit("AB120004", Registration{Name: "Eve", Email: "eve@x.com"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unsold code: expected ErrNotFound, got %v", err)
	}

	// The rolled-back transaction must not leak the user row.
	var users int64
	gdb.Model(&db.User{}).Count(&users)
	if users != 0 {
		t.Errorf("user count = %d after failed commit, want 0", users)
	}
}

func TestCommitLosesRace(t *testing.T) {
	gdb := testDB(t)
	s := NewService(gdb)
	cred := seedCredential(t, gdb, "AB120005")
	reseller := seedReseller(t, gdb, "C-005")
	if _, err := s.Assign(reseller.ID, cred.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := s.Validate("AB120005"); err != nil {
		t.Fatalf("validate: %v", err)
	}

	// Another request consumes the code between validate and commit.
	if _, err := s.Commit("AB120005", Registration{Name: "First", Email: "first@x.com"}); err != nil {
		t.Fatalf("winning commit: %v", err)
	}

	if _, err := s.Commit("AB120005", Registration{Name: "Second", Email: "second@x.com"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("losing commit: expected ErrNotFound, got %v", err)
	}

	var users int64
	gdb.Model(&db.User{}).Count(&users)
	if users != 1 {
		t.Errorf("user count = %d, want 1", users)
	}
}

func TestCommitDuplicateEmail(t *testing.T) {
	gdb := testDB(t)
	s := NewService(gdb)
	reseller := seedReseller(t, gdb, "C-006")
	for _, code := range []string{"AB120006", "AB120007"} {
		cred := seedCredential(t, gdb, code)
		if _, err := s.Assign(reseller.ID, cred.ID); err != nil {
			t.Fatalf("assign %s: %v", code, err)
		}
	}

	if _, err := s.Commit("AB120006", Registration{Name: "Jane", Email: "dup@x.com"}); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if _, err := s.Commit("AB120007", Registration{Name: "Janet", Email: "dup@x.com"}); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate email: expected ErrValidation, got %v", err)
	}
}

func TestAdmitSingleUse(t *testing.T) {
	gdb := testDB(t)
	s := NewService(gdb)
	cred := seedCredential(t, gdb, "AB120008")
	reseller := seedReseller(t, gdb, "C-008")
	if _, err := s.Assign(reseller.ID, cred.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}

	const qrKey = "qr-token-1"

	if err := s.Admit(qrKey); err != nil {
		t.Fatalf("first admit: %v", err)
	}

	if _, err := s.Commit("AB120008", Registration{Name: "Kim", Email: "kim@x.com", QRKey: qrKey}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := s.Admit(qrKey); !errors.Is(err, ErrQRKeyUsed) {
		t.Errorf("second admit: expected ErrQRKeyUsed, got %v", err)
	}
}

func TestAdmitEmptyKey(t *testing.T) {
	s := NewService(testDB(t))
	if err := s.Admit(""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
