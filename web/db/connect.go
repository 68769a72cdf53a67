package db

import (
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	var err error

	dsn := os.Getenv("DB")

	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		panic(err)
	}
}

func Sync() {
	err := DB.AutoMigrate(
		&Package{},
		&Reseller{},
		&City{},
		&User{},
		&Credential{},
		&Sale{},
		&Admin{},
		&AuditEntry{},
	)
	if err != nil {
		panic(err)
	}
}
