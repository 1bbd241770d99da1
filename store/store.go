// Package store is the persistence layer used by the handlers.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/blog/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Store wraps the gorm handle shared by all requests.
type Store struct {
	db *gorm.DB
}

// New returns a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Stats summarizes table sizes for the admin dashboard.
type Stats struct {
	Users   int64
	Pending int64
	Posts   int64
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Ping checks that the underlying database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateUser inserts a new account.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// UserByUsername finds an account by exact username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UserByEmail finds an account by exact email.
func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UserByID finds an account by primary key.
func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ListUsers returns every account in id order.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListUsersByApproval returns accounts whose approval flag equals approved.
func (s *Store) ListUsersByApproval(ctx context.Context, approved bool) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("is_approved = ?", approved).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ApproveUser grants posting rights.
func (s *Store) ApproveUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Model(user).Update("is_approved", true).Error; err != nil {
		return err
	}
	user.IsApproved = true
	return nil
}

// UpdatePassword persists the hash already set on user.
func (s *Store) UpdatePassword(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Model(user).Update("password_hash", user.PasswordHash).Error
}

// DeleteUser removes an account together with all of its posts in one
// transaction. Posts are deleted explicitly as well as by the foreign key.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("delete posts of user %d: %w", id, err)
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CreatePost inserts a post; the owner must already exist.
func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Create(post).Error
}

// PostByID loads a post with its author.
func (s *Store) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// ListPosts returns all posts, newest first, with authors.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db.WithContext(ctx).Preload("User").Order("created_at DESC").Order("id DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// DeletePost removes a single post.
func (s *Store) DeletePost(ctx context.Context, post *models.Post) error {
	return s.db.WithContext(ctx).Delete(&models.Post{}, post.ID).Error
}

// Stats counts accounts, pending accounts and posts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&st.Users).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&models.User{}).Where("is_approved = ?", false).Count(&st.Pending).Error; err != nil {
		return Stats{}, err
	}
	if err := db.Model(&models.Post{}).Count(&st.Posts).Error; err != nil {
		return Stats{}, err
	}
	return st, nil
}
