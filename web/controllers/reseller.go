package controllers

import (
	"net/http"

	"license-portal/web/db"

	"github.com/gin-gonic/gin"
)

func CreateReseller(c *gin.Context) {
	var body struct {
		CustomerNo string `json:"customer_no"`
		Name       string `json:"name"`
		Email      string `json:"email"`
	}

	if err := c.BindJSON(&body); err != nil || body.CustomerNo == "" || body.Name == "" {
		fail(c, http.StatusBadRequest, "Customer number and name are required")
		return
	}

	reseller := db.Reseller{CustomerNo: body.CustomerNo, Name: body.Name, Email: body.Email}
	if err := db.DB.Create(&reseller).Error; err != nil {
		fail(c, http.StatusBadRequest, "Failed to create reseller: "+err.Error())
		return
	}

	Audit.Record(actor(c), "create", "reseller", reseller.ID, reseller.CustomerNo)
	ok(c, reseller)
}

func ListResellers(c *gin.Context) {
	var resellers []db.Reseller
	if err := db.DB.Order("customer_no").Find(&resellers).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to load resellers")
		return
	}
	ok(c, resellers)
}

func UpdateReseller(c *gin.Context) {
	var reseller db.Reseller
	if err := db.DB.First(&reseller, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "Reseller not found")
		return
	}

	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.BindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Failed to read body")
		return
	}

	if body.Name != "" {
		reseller.Name = body.Name
	}
	if body.Email != "" {
		reseller.Email = body.Email
	}

	if err := db.DB.Save(&reseller).Error; err != nil {
		fail(c, http.StatusBadRequest, "Failed to update reseller")
		return
	}

	Audit.Record(actor(c), "update", "reseller", reseller.ID, reseller.CustomerNo)
	ok(c, reseller)
}

// DeleteReseller refuses while sales reference the reseller.
func DeleteReseller(c *gin.Context) {
	var reseller db.Reseller
	if err := db.DB.First(&reseller, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "Reseller not found")
		return
	}

	var refs int64
	db.DB.Model(&db.Sale{}).Where("reseller_id = ?", reseller.ID).Count(&refs)
	if refs > 0 {
		fail(c, http.StatusConflict, "Reseller has sales and cannot be deleted")
		return
	}

	if err := db.DB.Delete(&reseller).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete reseller")
		return
	}

	Audit.Record(actor(c), "delete", "reseller", reseller.ID, reseller.CustomerNo)
	ok(c, gin.H{"deleted": reseller.ID})
}

func ListCities(c *gin.Context) {
	var cities []db.City
	if err := db.DB.Order("name").Find(&cities).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to load cities")
		return
	}
	ok(c, cities)
}

func CreateCity(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BindJSON(&body); err != nil || body.Name == "" {
		fail(c, http.StatusBadRequest, "Name is required")
		return
	}

	city := db.City{Name: body.Name}
	if err := db.DB.Create(&city).Error; err != nil {
		fail(c, http.StatusBadRequest, "Failed to create city: "+err.Error())
		return
	}
	ok(c, city)
}
