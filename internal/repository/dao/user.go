package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	Base

	SubjectID string `gorm:"uniqueIndex:uni_users_subject_id;not null"`
	Email     string `gorm:"uniqueIndex:uni_users_email;not null"`
	Name      string `gorm:"not null"`

	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string

	Role string `gorm:"not null;default:parent;index;check:chk_users_role,role IN ('parent','volunteer','vendor','admin')"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := conn(ctx, d.db).Create(&user)
	if result.Error != nil {
		if constraint, ok := uniqueViolation(result.Error); ok {
			switch {
			case strings.Contains(constraint, "email"):
				return User{}, ErrUserEmailExists
			case strings.Contains(constraint, "subject"):
				return User{}, ErrUserSubjectExists
			}
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uuid.UUID) (User, error) {
	var user User

	result := conn(ctx, d.db).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindBySubjectID(ctx context.Context, subjectID string) (User, error) {
	var user User

	result := conn(ctx, d.db).First(&user, "subject_id = ?", subjectID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User

	result := conn(ctx, d.db).First(&user, "LOWER(email) = LOWER(?)", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

// UpdateProfile writes the editable contact fields; role and subject are
// never touched here.
func (d *UserDAO) UpdateProfile(ctx context.Context, user User) (User, error) {
	result := conn(ctx, d.db).Model(&User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"name":          user.Name,
		"phone":         user.Phone,
		"address_line1": user.AddressLine1,
		"address_line2": user.AddressLine2,
		"city":          user.City,
		"state":         user.State,
		"postal_code":   user.PostalCode,
	})
	if result.Error != nil {
		return User{}, result.Error
	}
	if result.RowsAffected == 0 {
		return User{}, ErrUserNotFound
	}

	return d.FindByID(ctx, user.ID)
}

func (d *UserDAO) UpdateRole(ctx context.Context, id uuid.UUID, role string) (User, error) {
	result := conn(ctx, d.db).Model(&User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return User{}, result.Error
	}
	if result.RowsAffected == 0 {
		return User{}, ErrUserNotFound
	}

	return d.FindByID(ctx, id)
}

func (d *UserDAO) List(ctx context.Context, search, role string, limit, offset int) ([]User, int64, error) {
	q := conn(ctx, d.db).Model(&User{})
	if search != "" {
		like := "%" + escapeLike(search) + "%"
		q = q.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", like, like, like)
	}
	if role != "" {
		q = q.Where("role = ?", role)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset = clampPage(limit, offset)

	var users []User
	if err := q.Order("name ASC, id ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
