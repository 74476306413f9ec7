package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/malina/auth-service/internal/core/domain"
	"github.com/malina/auth-service/internal/infrastructure/db"
)

type userRecord struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"uniqueIndex:uniq_users_username;size:64;not null"`
	Email        string    `gorm:"uniqueIndex:uniq_users_email;size:254;not null"`
	PasswordHash string    `gorm:"size:128;not null"`
	Role         string    `gorm:"type:varchar(10);not null;default:'USER'"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (userRecord) TableName() string { return "users" }

// UserRepository implements ports.UserRepository on gorm. The unique indexes
// on username and email decide concurrent sign-ups.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(gdb *gorm.DB) *UserRepository {
	return &UserRepository{db: gdb}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	rec := toRecord(user)
	rec.ID = uuid.NewString()

	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isDuplicate(err) {
			return nil, db.ClassifyDuplicate(ctx, r, user)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return rec.toDomain()
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.ID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	rec := toRecord(user)
	rec.ID = user.ID

	if err := r.db.WithContext(ctx).Save(&rec).Error; err != nil {
		if isDuplicate(err) {
			return nil, r.classifySaveConflict(ctx, &rec)
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return rec.toDomain()
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return rec.toDomain()
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *UserRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&userRecord{}).Where(query, args...).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// classifySaveConflict looks for another row owning the email; the record
// itself is excluded since it already holds its own values.
func (r *UserRepository) classifySaveConflict(ctx context.Context, rec *userRecord) error {
	taken, err := r.exists(ctx, "email = ? AND id <> ?", rec.Email, rec.ID)
	if err != nil {
		return fmt.Errorf("classify duplicate: %w", err)
	}
	if taken {
		return domain.ErrDuplicateEmail
	}
	return domain.ErrDuplicateUsername
}

// isDuplicate recognises unique violations whether or not the dialect
// translated them into gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func toRecord(u *domain.User) userRecord {
	return userRecord{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role.String(),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (r userRecord) toDomain() (*domain.User, error) {
	role, err := domain.ParseRole(r.Role)
	if err != nil {
		return nil, fmt.Errorf("decode user %s: %w", r.ID, err)
	}
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         role,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}
