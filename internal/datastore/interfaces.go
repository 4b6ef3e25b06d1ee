// Package datastore provides gorm-backed persistence for accounts and
// detection history, with SQLite and MySQL backends behind one interface.
package datastore

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/melonguard/melonguard-go/internal/conf"
	"github.com/melonguard/melonguard-go/internal/errors"
)

// Sentinel errors callers match with errors.Is.
var (
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = errors.NewStd("user not found")
	// ErrUsernameTaken is returned on registration when the username is
	// already in use. Expected and recoverable, reported as validation.
	ErrUsernameTaken = errors.NewStd("username already taken")
)

// Interface is the storage operation set the rest of the application uses.
type Interface interface {
	Open() error
	Close() error

	CreateUser(user *User) error
	GetUser(username string) (*User, error)
	GetUserByID(id uint) (*User, error)
	DeleteUser(id uint) error

	SaveDetection(rec *Detection) error
	GetUserDetections(userID uint) ([]Detection, error)
}

// DataStore implements the storage operations against a gorm DB handle.
// Backend-specific stores embed it and provide Open/Close.
type DataStore struct {
	DB *gorm.DB
}

// New creates the store selected by the output settings.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// performAutoMigration runs schema migration for the given backend.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&User{}, &Detection{}); err != nil {
		return errors.New(fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Build()
	}
	if debug {
		getLogger().Debug("database migration completed",
			"db_type", dbType,
			"connection", connectionInfo)
	}
	return nil
}

// CreateUser inserts a new account. A duplicate username maps to
// ErrUsernameTaken.
func (ds *DataStore) CreateUser(user *User) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryState).
			Build()
	}
	if err := ds.DB.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUsernameTaken
		}
		return errors.New(fmt.Errorf("failed to create user: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("username", user.Username).
			Build()
	}
	return nil
}

// GetUser looks up an account by username.
func (ds *DataStore) GetUser(username string) (*User, error) {
	var user User
	err := ds.DB.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.New(fmt.Errorf("failed to get user: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("username", username).
			Build()
	}
	return &user, nil
}

// GetUserByID looks up an account by primary key.
func (ds *DataStore) GetUserByID(id uint) (*User, error) {
	var user User
	err := ds.DB.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.New(fmt.Errorf("failed to get user by id: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("user_id", id).
			Build()
	}
	return &user, nil
}

// DeleteUser removes an account and, through the cascade constraint, its
// detection history.
func (ds *DataStore) DeleteUser(id uint) error {
	result := ds.DB.Select("Detections").Delete(&User{ID: id})
	if result.Error != nil {
		return errors.New(fmt.Errorf("failed to delete user: %w", result.Error)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("user_id", id).
			Build()
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SaveDetection stores one finalized detection. An unknown owning user is an
// invariant violation post-authentication: the save fails with no partial
// write.
func (ds *DataStore) SaveDetection(rec *Detection) error {
	if _, err := ds.GetUserByID(rec.UserID); err != nil {
		return err
	}
	if err := ds.DB.Create(rec).Error; err != nil {
		return errors.New(fmt.Errorf("failed to save detection: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("user_id", rec.UserID).
			Build()
	}
	return nil
}

// GetUserDetections returns the user's detection history, newest first. No
// history yields an empty slice, not an error.
func (ds *DataStore) GetUserDetections(userID uint) ([]Detection, error) {
	detections := []Detection{}
	err := ds.DB.Where("user_id = ?", userID).
		Order("detection_date DESC").
		Find(&detections).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to get detections: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("user_id", userID).
			Build()
	}
	return detections, nil
}
