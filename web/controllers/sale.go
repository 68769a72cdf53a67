package controllers

import (
	"net/http"

	"license-portal/web/db"

	"github.com/gin-gonic/gin"
)

// AssignSale allocates a credential to a reseller. The redeem service
// enforces the one-sale-per-credential invariant; a duplicate attempt
// is answered with the existing sale so the caller can tell nothing
// new was created.
func AssignSale(c *gin.Context) {
	var body struct {
		ResellerID   uint `json:"reseller_id"`
		CredentialID uint `json:"credential_id"`
	}

	if err := c.BindJSON(&body); err != nil || body.ResellerID == 0 || body.CredentialID == 0 {
		fail(c, http.StatusBadRequest, "reseller_id and credential_id are required")
		return
	}

	sale, err := redeemer().Assign(body.ResellerID, body.CredentialID)
	if err != nil {
		if sale != nil {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   "This credential is already assigned to a reseller.",
				"data":    gin.H{"sale_id": sale.ID, "reseller_id": sale.ResellerID},
			})
			return
		}
		failRedeem(c, err)
		return
	}

	Audit.Record(actor(c), "assign", "sale", sale.ID, "")
	ok(c, sale)
}

func ListSales(c *gin.Context) {
	var sales []db.Sale
	err := db.DB.Preload("Reseller").Preload("Credential").Order("id DESC").Limit(500).Find(&sales).Error
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to load sales")
		return
	}
	ok(c, sales)
}

// DeleteSale un-assigns a credential, but only while it is unredeemed.
func DeleteSale(c *gin.Context) {
	var sale db.Sale
	if err := db.DB.Preload("Credential").First(&sale, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "Sale not found")
		return
	}

	if sale.Credential.UserID != nil {
		fail(c, http.StatusConflict, "Credential has been redeemed; the sale cannot be deleted")
		return
	}

	// Hard delete: a soft-deleted row would keep occupying the unique
	// credential_id index and block reassignment.
	if err := db.DB.Unscoped().Delete(&sale).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete sale")
		return
	}

	Audit.Record(actor(c), "delete", "sale", sale.ID, "")
	ok(c, gin.H{"deleted": sale.ID})
}
