package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cppla/blog/models"
)

// AdminUsername is the name of the bootstrap administrator.
const AdminUsername = "admin"

// AdminSeed carries the credentials used when the administrator has to be created.
type AdminSeed struct {
	Email    string
	Password string
}

// EnsureAdmin guarantees a single "admin" account that is both admin and
// approved. A missing account is created from seed; an existing one only has
// its flags corrected, its password is left alone. Running it repeatedly is a
// no-op after the first call. created reports whether a row was inserted.
func (s *Store) EnsureAdmin(ctx context.Context, seed AdminSeed) (admin *models.User, created bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		findErr := tx.Where("username = ?", AdminUsername).First(&existing).Error
		switch {
		case findErr == nil:
			if existing.IsAdmin && existing.IsApproved {
				admin = &existing
				return nil
			}
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"is_admin":    true,
				"is_approved": true,
			}).Error; err != nil {
				return err
			}
			existing.IsAdmin = true
			existing.IsApproved = true
			admin = &existing
			return nil
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			user := models.User{
				Username:   AdminUsername,
				Email:      seed.Email,
				IsAdmin:    true,
				IsApproved: true,
			}
			if err := user.SetPassword(seed.Password); err != nil {
				return err
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			admin = &user
			created = true
			return nil
		default:
			return findErr
		}
	})
	if err != nil {
		return nil, false, err
	}
	return admin, created, nil
}
