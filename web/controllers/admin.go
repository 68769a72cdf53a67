package controllers

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"license-portal/utils"
	"license-portal/web/db"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if c.BindJSON(&body) != nil {
		fail(c, http.StatusBadRequest, "Failed to read body")
		return
	}

	var admin db.Admin
	db.DB.First(&admin, "email = ?", body.Email)
	if admin.ID == 0 {
		fail(c, http.StatusBadRequest, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(body.Password)); err != nil {
		fail(c, http.StatusBadRequest, "Invalid email or password")
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": admin.ID,
		"exp": time.Now().Add(time.Hour * 24).Unix(),
	})

	tokenString, err := token.SignedString([]byte(os.Getenv("SECRET")))
	if err != nil {
		fail(c, http.StatusBadRequest, "Failed to create token")
		return
	}

	ok(c, gin.H{"token": tokenString})
}

// CreateAdmin bootstraps an admin account. Protected by the deployment
// registration key rather than a session so the first admin can be
// created on an empty database.
func CreateAdmin(c *gin.Context) {
	regkey := c.Param("regkey")
	if regkey != utils.Regkey() {
		fail(c, http.StatusForbidden, "Invalid registration key")
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if c.BindJSON(&body) != nil || body.Email == "" || body.Password == "" {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), 10)
	if err != nil {
		fail(c, http.StatusBadRequest, "Failed to hash password.")
		return
	}

	admin := db.Admin{Email: body.Email, Password: string(hash)}
	if err := db.DB.Create(&admin).Error; err != nil {
		fail(c, http.StatusBadRequest, "Failed to create admin: "+err.Error())
		return
	}

	Audit.Record(body.Email, "create", "admin", admin.ID, "admin account created")
	ok(c, gin.H{"id": admin.ID, "email": admin.Email})
}

// ListAudit returns the most recent audit entries.
func ListAudit(c *gin.Context) {
	limit := 100
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}

	entries, err := Audit.Recent(limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to load audit trail")
		return
	}
	ok(c, entries)
}
