package models

// Role names used by the authorization middleware.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account allowed to sign in.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Login        string `gorm:"size:80;uniqueIndex;not null" json:"login"`
	Name         string `gorm:"size:150;not null" json:"name"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	IsAdmin      bool   `gorm:"not null;default:false" json:"is_admin"`
}

// Role maps the admin flag onto a role name.
func (u User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// DisplayName is the name recorded as responsible party and history author.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}
