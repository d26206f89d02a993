package domain

import "time"

// User Model
type User struct {
	ID          string    `gorm:"primaryKey;size:255" json:"id"`              // Identity provider subject
	Name        string    `gorm:"size:255;not null" json:"name"`              // Display name
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"` // Unique email
	PhoneNumber *string   `gorm:"size:20;uniqueIndex" json:"phone_number"`    // Optional unique phone (WhatsApp)
	Role        Role      `gorm:"size:20;not null;default:warga" json:"role"` // admin or warga
	BlockNumber *string   `gorm:"size:50;uniqueIndex" json:"block_number"`    // Optional unique block/unit
	CreatedAt   time.Time `json:"created_at"`                                 // Creation timestamp
	UpdatedAt   time.Time `json:"updated_at"`                                 // Last update timestamp
}

// Can reports whether the user's role grants the capability
func (u *User) Can(c Capability) bool {
	if u == nil {
		return false
	}
	return u.Role.Can(c)
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Phone returns the phone number or an empty string
func (u *User) Phone() string {
	if u == nil || u.PhoneNumber == nil {
		return ""
	}
	return *u.PhoneNumber
}

// Block returns the block number or an empty string
func (u *User) Block() string {
	if u == nil || u.BlockNumber == nil {
		return ""
	}
	return *u.BlockNumber
}
