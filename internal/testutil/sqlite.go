// Package testutil opens throwaway databases for repository and handler tests.
package testutil

import (
	"fmt"
	"time"

	"github.com/frahmantamala/electrotrack/internal"
	attendanceDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/attendance"
	materialDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/material"
	userDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/user"
	workreportDatamodel "github.com/frahmantamala/electrotrack/internal/core/datamodel/workreport"
	"github.com/frahmantamala/electrotrack/internal/core/role"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns an in-memory database with every table migrated. The
// pool is pinned to one connection so that all queries see the same
// in-memory database.
func NewSQLiteDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), internal.GormConfig(logger.Default.LogMode(logger.Silent)))
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = db.AutoMigrate(
		&userDatamodel.User{},
		&attendanceDatamodel.Record{},
		&workreportDatamodel.WorkReport{},
		&materialDatamodel.Request{},
	)
	if err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser inserts an active account with a throwaway password hash.
func CreateUser(db *gorm.DB, username string, r role.Role, supervisorID *int64) (*userDatamodel.User, error) {
	u := &userDatamodel.User{
		Username:     username,
		Email:        username + "@electrotrack.test",
		PasswordHash: "x",
		Role:         string(r),
		SupervisorID: supervisorID,
		IsActive:     true,
	}
	if err := db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}
