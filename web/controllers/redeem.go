package controllers

import (
	"time"

	"license-portal/web/db"
	"license-portal/web/redeem"

	"github.com/gin-gonic/gin"
)

// AdmitQR is the one-time gate on initial entry. A fresh qr key admits
// the client into the redemption flow; a consumed one is rejected.
func AdmitQR(c *gin.Context) {
	if err := redeemer().Admit(c.Param("qrKey")); err != nil {
		failRedeem(c, err)
		return
	}

	ok(c, gin.H{"admitted": true})
}

// ValidateCode reports whether a code is redeemable and returns the
// plan details the client shows before collecting registration data.
func ValidateCode(c *gin.Context) {
	cred, err := redeemer().Validate(c.Param("code"))
	if err != nil {
		failRedeem(c, err)
		return
	}

	ok(c, credentialSummary(cred))
}

// CommitRegistration performs the redemption write.
func CommitRegistration(c *gin.Context) {
	var body struct {
		Name    string     `json:"name"`
		Email   string     `json:"email"`
		Tel     string     `json:"tel"`
		Company string     `json:"company"`
		Address string     `json:"address"`
		CityID  *uint      `json:"city_id"`
		QRKey   string     `json:"qr_key"`
		ActDate *time.Time `json:"act_date"`
		EndDate *time.Time `json:"end_date"`
	}

	if err := c.BindJSON(&body); err != nil {
		fail(c, 400, "Failed to read body")
		return
	}

	user, err := redeemer().Commit(c.Param("code"), redeem.Registration{
		Name:    body.Name,
		Email:   body.Email,
		Tel:     body.Tel,
		Company: body.Company,
		Address: body.Address,
		CityID:  body.CityID,
		QRKey:   body.QRKey,
		ActDate: body.ActDate,
		EndDate: body.EndDate,
	})
	if err != nil {
		failRedeem(c, err)
		return
	}

	ok(c, gin.H{"user_id": user.ID})
}

func credentialSummary(cred *db.Credential) gin.H {
	summary := gin.H{
		"code":       cred.Code,
		"email":      cred.Email,
		"quota":      cred.Quota,
		"created_at": cred.CreatedAt.Format(time.RFC3339),
	}
	if cred.Package != nil {
		summary["package"] = gin.H{
			"name":     cred.Package.Name,
			"duration": cred.Package.Duration,
		}
	}
	if cred.ActivatedAt != nil {
		summary["activated_at"] = cred.ActivatedAt.Format(time.RFC3339)
	}
	if cred.ExpiresAt != nil {
		summary["expires_at"] = cred.ExpiresAt.Format(time.RFC3339)
	}
	return summary
}
