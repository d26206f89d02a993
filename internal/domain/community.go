package domain

import "time"

// SOSType is the kind of emergency being reported
type SOSType string

const (
	SOSFire     SOSType = "kebakaran"
	SOSMedical  SOSType = "medis"
	SOSSecurity SOSType = "keamanan"
)

// SOSTypes lists the emergency kinds in button order
var SOSTypes = []SOSType{SOSFire, SOSMedical, SOSSecurity}

// ParseSOSType validates an SOS type coming from a form
func ParseSOSType(s string) (SOSType, bool) {
	for _, t := range SOSTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Label returns the human readable name of the emergency
func (t SOSType) Label() string {
	switch t {
	case SOSFire:
		return "Kebakaran"
	case SOSMedical:
		return "Darurat Medis"
	case SOSSecurity:
		return "Masalah Keamanan"
	}
	return "Darurat"
}

// SOSLog Model
type SOSLog struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    *string   `gorm:"size:255;index" json:"user_id"` // Nullable, the log survives the user
	Type      SOSType   `gorm:"size:20;not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL;" json:"user,omitempty"`
}

// Announcement Model
type Announcement struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    *string   `gorm:"size:255;index" json:"user_id"` // Author, nulled when the author is removed
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL;" json:"user,omitempty"`
}

// Suggestion Model
type Suggestion struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:255;not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
}

// TableName keeps the schema's table name
func (Suggestion) TableName() string { return "user_suggestions" }

// ForumCategory Model
type ForumCategory struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Name        string `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// ForumPost Model
type ForumPost struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	UserID     string         `gorm:"size:255;not null;index" json:"user_id"`
	CategoryID string         `gorm:"size:36;not null;index" json:"category_id"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time      `json:"created_at"`
	User       *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
	Category   *ForumCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE;" json:"category,omitempty"`
}

// ForumReply Model
type ForumReply struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	PostID    string     `gorm:"size:36;not null;index" json:"post_id"`
	UserID    string     `gorm:"size:255;not null" json:"user_id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	Post      *ForumPost `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE;" json:"-"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
}

// Poll Model
type Poll struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	UserID    *string      `gorm:"size:255" json:"user_id"`
	Question  string       `gorm:"type:text;not null" json:"question"`
	ExpiresAt *time.Time   `json:"expires_at"`
	CreatedAt time.Time    `json:"created_at"`
	Options   []PollOption `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE;" json:"options"`
	User      *User        `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL;" json:"-"`
}

// Expired reports whether voting is closed at the given time
func (p *Poll) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// HasOption reports whether the option belongs to the poll
func (p *Poll) HasOption(optionID string) bool {
	for _, o := range p.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// PollOption Model
type PollOption struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	PollID     string `gorm:"size:36;not null;index" json:"poll_id"`
	OptionText string `gorm:"size:255;not null" json:"option_text"`
}

// PollVote Model, one per (poll, user)
type PollVote struct {
	ID           string      `gorm:"primaryKey;size:36" json:"id"`
	PollID       string      `gorm:"size:36;not null;uniqueIndex:idx_poll_voter,priority:1" json:"poll_id"`
	PollOptionID string      `gorm:"size:36;not null;index" json:"poll_option_id"`
	UserID       string      `gorm:"size:255;not null;uniqueIndex:idx_poll_voter,priority:2" json:"user_id"`
	CreatedAt    time.Time   `json:"created_at"`
	Poll         *Poll       `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE;" json:"-"`
	Option       *PollOption `gorm:"foreignKey:PollOptionID;constraint:OnDelete:CASCADE;" json:"-"`
	User         *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
}
