package store

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// UserQuery selects a single user. Only the variants declared in this
// package can be used.
type UserQuery interface {
	scopeUser(db *gorm.DB) *gorm.DB
}

// OTPQuery selects a single verification code row
type OTPQuery interface {
	scopeOTP(db *gorm.DB) *gorm.DB
}

type UserByID struct {
	ID string
}

func (q UserByID) scopeUser(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", q.ID)
}

type UserByEmail struct {
	Email string
}

func (q UserByEmail) scopeUser(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", NormalizeEmail(q.Email))
}

type OTPByEmail struct {
	Email string
}

func (q OTPByEmail) scopeOTP(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", NormalizeEmail(q.Email))
}

// OTPByEmailAndCode matches only codes that are still live at Now
type OTPByEmailAndCode struct {
	Email string
	Code  string
	Now   time.Time
}

func (q OTPByEmailAndCode) scopeOTP(db *gorm.DB) *gorm.DB {
	return db.Where("email = ? AND code = ? AND expires_at > ?", NormalizeEmail(q.Email), q.Code, q.Now)
}

// UserFilter narrows the admin user listing. Empty fields don't filter.
type UserFilter struct {
	Search   string
	Role     string
	Verified *bool
	Page     int
}

func (f UserFilter) scope(db *gorm.DB) *gorm.DB {
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		db = db.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\')", like, like)
	}

	if f.Role != "" {
		db = db.Where("role = ?", f.Role)
	}

	if f.Verified != nil {
		db = db.Where("email_verified = ?", *f.Verified)
	}

	return db
}

func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
