package store

import (
	"errors"
	"time"

	"github.com/elixpo/accounts/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true, // map driver duplicate-key errors to gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.Identity{},
		&models.OAuthClient{},
		&models.AuthRequest{},
		&models.RefreshToken{},
		&models.RateLimit{},
		&models.AuditLog{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Health checks the database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// DB returns the underlying GORM database connection (for transactions)
func (s *Store) DB() *gorm.DB {
	return s.db
}

// User operations

func (s *Store) CreateUser(user *models.User) error {
	err := s.db.Create(user).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailConflict
	}
	return err
}

func (s *Store) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) UpdateUser(user *models.User) error {
	return s.db.Save(user).Error
}

// UpdateUserLastLogin stamps a successful authentication.
func (s *Store) UpdateUserLastLogin(userID string, at time.Time) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login", at).Error
}

// DeactivateUser soft-deletes a user account
func (s *Store) DeactivateUser(id string) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// Identity operations

func (s *Store) CreateIdentity(identity *models.Identity) error {
	return s.db.Create(identity).Error
}

func (s *Store) GetIdentity(provider, providerUserID string) (*models.Identity, error) {
	var identity models.Identity
	if err := s.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *Store) GetIdentitiesByUserID(userID string) ([]models.Identity, error) {
	var identities []models.Identity
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&identities).Error; err != nil {
		return nil, err
	}
	return identities, nil
}
