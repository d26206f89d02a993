package domain

import "time"

// LetterStatus is the processing state of a letter request
type LetterStatus string

const (
	LetterPending        LetterStatus = "pending"
	LetterProcessed      LetterStatus = "processed"
	LetterReadyToCollect LetterStatus = "ready_to_collect"
	LetterRejected       LetterStatus = "rejected"
)

// ParseLetterStatus validates a letter status coming from a form
func ParseLetterStatus(s string) (LetterStatus, bool) {
	switch LetterStatus(s) {
	case LetterPending, LetterProcessed, LetterReadyToCollect, LetterRejected:
		return LetterStatus(s), true
	}
	return "", false
}

// UserLetter Model (administrative letter requested from the management)
type UserLetter struct {
	ID         string       `gorm:"primaryKey;size:36" json:"id"`
	UserID     string       `gorm:"size:255;not null;index" json:"user_id"`
	LetterType string       `gorm:"size:100;not null" json:"letter_type"`
	Purpose    string       `gorm:"type:text;not null" json:"purpose"`
	Status     LetterStatus `gorm:"size:20;not null;default:pending" json:"status"`
	AdminNotes string       `gorm:"type:text" json:"admin_notes"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	User       *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
}
