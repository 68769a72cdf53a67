package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"license-portal/utils"
	"license-portal/web/db"
	"license-portal/web/qrcode"

	"github.com/gin-gonic/gin"
)

// generateCode creates an 8 character uppercase hex code, e.g. EA548369.
func generateCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// GenerateCredentials creates a batch of unredeemed credentials for a
// package. The administrative import path described by the inventory
// lifecycle: created here, sold via a sale, redeemed via the code.
func GenerateCredentials(c *gin.Context) {
	var body struct {
		Count     int    `json:"count"`
		PackageID uint   `json:"package_id"`
		Quota     int    `json:"quota"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}

	if err := c.BindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Failed to read body")
		return
	}
	if body.Count < 1 || body.Count > 1000 {
		fail(c, http.StatusBadRequest, "Count must be between 1 and 1000")
		return
	}

	var pkg db.Package
	if err := db.DB.First(&pkg, body.PackageID).Error; err != nil {
		fail(c, http.StatusNotFound, "Package not found")
		return
	}

	creds := make([]db.Credential, 0, body.Count)
	for i := 0; i < body.Count; i++ {
		code, err := generateCode()
		if err != nil {
			fail(c, http.StatusInternalServerError, "Failed to generate code")
			return
		}
		creds = append(creds, db.Credential{
			Code:      code,
			Email:     body.Email,
			Password:  body.Password,
			Quota:     body.Quota,
			PackageID: &pkg.ID,
		})
	}

	if err := db.DB.Create(&creds).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create credentials")
		return
	}

	codes := make([]string, len(creds))
	for i, cred := range creds {
		codes[i] = cred.Code
	}

	Audit.Record(actor(c), "generate", "credential", 0, strings.Join(codes, ","))
	ok(c, gin.H{"codes": codes})
}

func ListCredentials(c *gin.Context) {
	query := db.DB.Preload("Package").Preload("User")

	switch c.Query("state") {
	case "redeemed":
		query = query.Where("user_id IS NOT NULL")
	case "unredeemed":
		query = query.Where("user_id IS NULL")
	}

	var creds []db.Credential
	if err := query.Order("id DESC").Limit(500).Find(&creds).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to load credentials")
		return
	}
	ok(c, creds)
}

func GetCredential(c *gin.Context) {
	var cred db.Credential
	err := db.DB.Preload("Package").Preload("User").First(&cred, c.Param("id")).Error
	if err != nil {
		fail(c, http.StatusNotFound, "Credential not found")
		return
	}
	ok(c, cred)
}

// DeleteCredential removes an unsold, unredeemed credential. Sold or
// redeemed credentials are referenced and stay.
func DeleteCredential(c *gin.Context) {
	var cred db.Credential
	if err := db.DB.First(&cred, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "Credential not found")
		return
	}

	if cred.UserID != nil {
		fail(c, http.StatusConflict, "Credential has been redeemed and cannot be deleted")
		return
	}

	var sales int64
	db.DB.Model(&db.Sale{}).Where("credential_id = ?", cred.ID).Count(&sales)
	if sales > 0 {
		fail(c, http.StatusConflict, "Credential is assigned to a sale and cannot be deleted")
		return
	}

	if err := db.DB.Delete(&cred).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete credential")
		return
	}

	Audit.Record(actor(c), "delete", "credential", cred.ID, cred.Code)
	ok(c, gin.H{"deleted": cred.ID})
}

// CredentialQR renders the printable QR code pointing at the redemption
// URL for a credential.
func CredentialQR(c *gin.Context) {
	var cred db.Credential
	if err := db.DB.First(&cred, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "Credential not found")
		return
	}

	png, err := qrcode.RegistrationPNG(utils.Env("PORTAL_HOST", "localhost"), cred.Code)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
