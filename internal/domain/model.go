package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewID returns a random identifier for uuid-keyed tables
func NewID() string {
	return uuid.NewString()
}

func assignID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}

// BeforeCreate hooks fill uuid primary keys the way the schema's gen_random_uuid() default did.

func (b *Bill) BeforeCreate(*gorm.DB) error                  { assignID(&b.ID); return nil }
func (t *Transaction) BeforeCreate(*gorm.DB) error           { assignID(&t.ID); return nil }
func (d *TransactionBillDetail) BeforeCreate(*gorm.DB) error { assignID(&d.ID); return nil }
func (s *SOSLog) BeforeCreate(*gorm.DB) error                { assignID(&s.ID); return nil }
func (a *Announcement) BeforeCreate(*gorm.DB) error          { assignID(&a.ID); return nil }
func (s *Suggestion) BeforeCreate(*gorm.DB) error            { assignID(&s.ID); return nil }
func (c *ForumCategory) BeforeCreate(*gorm.DB) error         { assignID(&c.ID); return nil }
func (p *ForumPost) BeforeCreate(*gorm.DB) error             { assignID(&p.ID); return nil }
func (r *ForumReply) BeforeCreate(*gorm.DB) error            { assignID(&r.ID); return nil }
func (p *Poll) BeforeCreate(*gorm.DB) error                  { assignID(&p.ID); return nil }
func (o *PollOption) BeforeCreate(*gorm.DB) error            { assignID(&o.ID); return nil }
func (v *PollVote) BeforeCreate(*gorm.DB) error              { assignID(&v.ID); return nil }
func (r *ReportTicket) BeforeCreate(*gorm.DB) error          { assignID(&r.ID); return nil }
func (f *Facility) BeforeCreate(*gorm.DB) error              { assignID(&f.ID); return nil }
func (b *FacilityBooking) BeforeCreate(*gorm.DB) error       { assignID(&b.ID); return nil }
func (l *UserLetter) BeforeCreate(*gorm.DB) error            { assignID(&l.ID); return nil }

// Models lists every persisted model, in foreign key order, for AutoMigrate
func Models() []any {
	return []any{
		&User{},
		&Bill{},
		&Transaction{},
		&TransactionBillDetail{},
		&SOSLog{},
		&Announcement{},
		&Suggestion{},
		&ForumCategory{},
		&ForumPost{},
		&ForumReply{},
		&Poll{},
		&PollOption{},
		&PollVote{},
		&ReportTicket{},
		&Facility{},
		&FacilityBooking{},
		&UserLetter{},
	}
}
