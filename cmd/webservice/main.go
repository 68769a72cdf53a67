package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"license-portal/utils"
	"license-portal/web/audit"
	"license-portal/web/controllers"
	"license-portal/web/db"
	"license-portal/web/email"
	"license-portal/web/middleware"
	"license-portal/web/report"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func init() {
	utils.LoadEnv()
	db.Connect()
	db.Sync()
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	controllers.Audit = audit.NewRecorder(db.DB, logger)

	reportJob := &report.Job{
		DB:        db.DB,
		Schema:    report.ResolveSchema(),
		Recipient: os.Getenv("ADMIN_EMAIL"),
		Send:      email.SendEmailWithAttachment,
	}
	scheduler := report.NewScheduler(reportJob, utils.EnvInt("REPORT_HOUR", 6))
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	globalLimiter := middleware.NewRateLimiter(15, time.Minute) // 15 requests/min/IP
	globalLimiter.StartCleanup(10 * time.Minute)

	// Public redemption flow
	r.GET("/qr/:qrKey", globalLimiter.Middleware(), controllers.AdmitQR)
	r.GET("/redeem/:code", globalLimiter.Middleware(), controllers.ValidateCode)
	r.POST("/redeem/:code", globalLimiter.Middleware(), controllers.CommitRegistration)
	r.GET("/cities", globalLimiter.Middleware(), controllers.ListCities)

	// Admin auth
	r.POST("/admin/login", globalLimiter.Middleware(), controllers.Login)
	r.POST("/admin/create/:regkey", globalLimiter.Middleware(), controllers.CreateAdmin)

	admin := r.Group("/admin", middleware.RequireAuth)
	admin.GET("/status", controllers.Status)
	admin.GET("/audit", controllers.ListAudit)

	admin.POST("/credentials", controllers.GenerateCredentials)
	admin.GET("/credentials", controllers.ListCredentials)
	admin.GET("/credentials/:id", controllers.GetCredential)
	admin.GET("/credentials/:id/qr", controllers.CredentialQR)
	admin.DELETE("/credentials/:id", controllers.DeleteCredential)

	admin.POST("/packages", controllers.CreatePackage)
	admin.GET("/packages", controllers.ListPackages)
	admin.PUT("/packages/:id", controllers.UpdatePackage)
	admin.DELETE("/packages/:id", controllers.DeletePackage)

	admin.POST("/resellers", controllers.CreateReseller)
	admin.GET("/resellers", controllers.ListResellers)
	admin.PUT("/resellers/:id", controllers.UpdateReseller)
	admin.DELETE("/resellers/:id", controllers.DeleteReseller)
	admin.POST("/cities", controllers.CreateCity)

	admin.POST("/sales", controllers.AssignSale)
	admin.GET("/sales", controllers.ListSales)
	admin.DELETE("/sales/:id", controllers.DeleteSale)

	port := os.Getenv("GIN_PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
