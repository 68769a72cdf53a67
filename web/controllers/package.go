package controllers

import (
	"net/http"

	"license-portal/web/db"

	"github.com/gin-gonic/gin"
)

func CreatePackage(c *gin.Context) {
	var body struct {
		Name     string `json:"name"`
		Duration int    `json:"duration"`
	}

	if err := c.BindJSON(&body); err != nil || body.Name == "" {
		fail(c, http.StatusBadRequest, "Name is required")
		return
	}

	pkg := db.Package{Name: body.Name, Duration: body.Duration}
	if err := db.DB.Create(&pkg).Error; err != nil {
		fail(c, http.StatusBadRequest, "Failed to create package: "+err.Error())
		return
	}

	Audit.Record(actor(c), "create", "package", pkg.ID, pkg.Name)
	ok(c, pkg)
}

func ListPackages(c *gin.Context) {
	var pkgs []db.Package
	if err := db.DB.Order("name").Find(&pkgs).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to load packages")
		return
	}
	ok(c, pkgs)
}

func UpdatePackage(c *gin.Context) {
	var pkg db.Package
	if err := db.DB.First(&pkg, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "Package not found")
		return
	}

	var body struct {
		Name     string `json:"name"`
		Duration int    `json:"duration"`
	}
	if err := c.BindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Failed to read body")
		return
	}

	if body.Name != "" {
		pkg.Name = body.Name
	}
	if body.Duration > 0 {
		pkg.Duration = body.Duration
	}

	if err := db.DB.Save(&pkg).Error; err != nil {
		fail(c, http.StatusBadRequest, "Failed to update package: "+err.Error())
		return
	}

	Audit.Record(actor(c), "update", "package", pkg.ID, pkg.Name)
	ok(c, pkg)
}

// DeletePackage refuses while any credential references the package.
func DeletePackage(c *gin.Context) {
	var pkg db.Package
	if err := db.DB.First(&pkg, c.Param("id")).Error; err != nil {
		fail(c, http.StatusNotFound, "Package not found")
		return
	}

	var refs int64
	db.DB.Model(&db.Credential{}).Where("package_id = ?", pkg.ID).Count(&refs)
	if refs > 0 {
		fail(c, http.StatusConflict, "Package is referenced by credentials and cannot be deleted")
		return
	}

	if err := db.DB.Delete(&pkg).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete package")
		return
	}

	Audit.Record(actor(c), "delete", "package", pkg.ID, pkg.Name)
	ok(c, gin.H{"deleted": pkg.ID})
}
