package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"license-portal/web/audit"
	"license-portal/web/db"
	"license-portal/web/redeem"

	"github.com/gin-gonic/gin"
)

// Audit is set from main once the DB is connected.
var Audit *audit.Recorder

func redeemer() *redeem.Service {
	return redeem.NewService(db.DB)
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// failRedeem maps the redemption error taxonomy to user-facing
// responses. Unexpected store errors are logged and masked.
func failRedeem(c *gin.Context, err error) {
	switch {
	case errors.Is(err, redeem.ErrNotFound):
		fail(c, http.StatusNotFound, "Invalid code.")
	case errors.Is(err, redeem.ErrUnassigned):
		fail(c, http.StatusConflict, "This code is not associated with any reseller. Please contact your administrator.")
	case errors.Is(err, redeem.ErrAlreadyRedeemed):
		fail(c, http.StatusConflict, "This code has already been used.")
	case errors.Is(err, redeem.ErrAlreadyAssigned):
		fail(c, http.StatusConflict, "This credential is already assigned to a reseller.")
	case errors.Is(err, redeem.ErrReferenceNotFound):
		fail(c, http.StatusNotFound, "Reseller or credential not found.")
	case errors.Is(err, redeem.ErrQRKeyUsed):
		fail(c, http.StatusConflict, "This QR code has already been used. Please contact support.")
	case errors.Is(err, redeem.ErrValidation):
		fail(c, http.StatusBadRequest, "Missing or invalid required fields.")
	default:
		slog.Error("store error", slog.String("error", err.Error()))
		fail(c, http.StatusInternalServerError, "Storage error, please try again later.")
	}
}

func actor(c *gin.Context) string {
	if v, ok := c.Get("admin"); ok {
		if admin, ok := v.(db.Admin); ok {
			return admin.Email
		}
	}
	return "unknown"
}
