package config

import (
	_ "embed"
	"fmt"
	"time"

	"schoolfee/domain"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed sql/functions.sql
var functionsSQL string

var db *gorm.DB

// GetDatabaseURL builds the database connection string.
func GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		conf.GetString("DB_HOST"), conf.GetString("DB_PORT"), conf.GetString("DB_USER"),
		conf.GetString("DB_PASSWORD"), conf.GetString("DB_DATABASE"), conf.GetString("DB_SSLMODE"))
}

// BootDB initializes the database connection and runs migrations.
func BootDB() (*gorm.DB, error) {
	var err error

	db, err = gorm.Open(postgres.Open(GetDatabaseURL()), &gorm.Config{
		Logger: gormlogger.New(GetLogrusInstance(), gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := autoMigrate(db); err != nil {
		return db, err
	}

	if GetInstallSQLFunctions() {
		if err := installSQLFunctions(db); err != nil {
			// Remote functions are optional; the local paths still work.
			GetLogrusInstance().WithError(err).Warn("sql functions not installed")
		}
	}

	GetLogrusInstance().Info("DB initialized")
	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	if err := db.Exec(`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'role_enum') THEN
			CREATE TYPE role_enum AS ENUM ('admin', 'staff');
		END IF;
	END $$`).Error; err != nil {
		return errors.Wrap(err, "failed to create role ENUM")
	}

	// gen_random_uuid is built in from postgres 13; older servers need pgcrypto.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		GetLogrusInstance().WithError(err).Warn("pgcrypto extension not created")
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Class{},
		&domain.Student{},
		&domain.UserSession{},
	); err != nil {
		return errors.Wrap(err, "failed to migrate base tables")
	}

	if err := db.AutoMigrate(
		&domain.Receipt{},
		&domain.Reminder{},
	); err != nil {
		return errors.Wrap(err, "failed to migrate relational tables")
	}

	return seedAdmin(db)
}

func seedAdmin(db *gorm.DB) error {
	var existingAdmin domain.User
	err := db.Where("role = 'admin' AND deleted_at IS NULL").First(&existingAdmin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "failed to look up admin")
	}

	adminUsername := conf.GetString("ADMIN_USERNAME")
	adminPassword := conf.GetString("ADMIN_PASSWORD")
	if adminUsername == "" || adminPassword == "" {
		return fmt.Errorf("no admin account exists and ADMIN_USERNAME/ADMIN_PASSWORD are not set")
	}

	GetLogrusInstance().Info("Creating default admin account....")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "could not hash password")
	}

	admin := domain.User{
		Username: adminUsername,
		Name:     conf.GetString("ADMIN_NAME"),
		Password: string(hashedPassword),
		Role:     "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		return errors.Wrap(err, "could not create admin")
	}
	GetLogrusInstance().Info("Admin account created")
	return nil
}

// installSQLFunctions creates the precomputed aggregate functions and the
// change-notification triggers.
func installSQLFunctions(db *gorm.DB) error {
	if err := db.Exec(functionsSQL).Error; err != nil {
		return errors.Wrap(err, "failed to install sql functions")
	}
	return nil
}
