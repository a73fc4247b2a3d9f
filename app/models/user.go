package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"
)

type User struct {
	ID                 uint                            `gorm:"primaryKey" json:"id"`
	Name               string                          `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Email              string                          `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password           string                          `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role               string                          `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	AvatarURL          string                          `gorm:"type:varchar(255);default:null" json:"avatarUrl" validate:"max=255"`
	SubscriptionStatus entitlements.SubscriptionStatus `gorm:"type:varchar(20);not null;default:'NONE';index" json:"subscriptionStatus"`
	BillingCustomerRef *string                         `gorm:"type:varchar(191);uniqueIndex" json:"-"`
	LastLoginAt        *time.Time                      `gorm:"type:timestamp;default:null" json:"lastLoginAt"`
	CreatedAt          time.Time                       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time                       `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt          gorm.DeletedAt                  `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// CreateUser builds a validated user with a hashed password. The returned
// user is not persisted yet.
func CreateUser(name string, email string, password string) (*User, error) {
	u := &User{
		Name:               name,
		Email:              strings.ToLower(strings.TrimSpace(email)),
		Password:           password,
		Role:               ROLE_USER,
		SubscriptionStatus: entitlements.StatusNone,
	}

	// validate the plain password length before it is replaced by the hash
	if err := u.Validate(); err != nil {
		return nil, err
	}

	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u.Password = pw

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// HasBillingCustomer reports whether a Stripe customer is already linked.
func (u *User) HasBillingCustomer() bool {
	return u.BillingCustomerRef != nil && *u.BillingCustomerRef != ""
}

// EffectiveSubscriptionStatus returns the stored status, or NONE when the
// column holds something outside the enum.
func (u *User) EffectiveSubscriptionStatus() entitlements.SubscriptionStatus {
	if u.SubscriptionStatus.Valid() {
		return u.SubscriptionStatus
	}
	return entitlements.StatusNone
}
