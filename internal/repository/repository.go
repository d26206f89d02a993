package repository

import (
	"context"
	"time"

	"cluster_kita/internal/domain"
)

// Store groups the repositories behind one handle so that services can run
// several writes inside a single atomic unit.
type Store interface {
	Users() UserRepository
	Bills() BillRepository
	Transactions() TransactionRepository
	SOS() SOSRepository
	Announcements() AnnouncementRepository
	Suggestions() SuggestionRepository
	Forum() ForumRepository
	Polls() PollRepository
	Reports() ReportRepository
	Facilities() FacilityRepository
	Bookings() BookingRepository
	Letters() LetterRepository

	// Atomic runs fn against a Store bound to one database transaction.
	// Any error returned by fn rolls every write back.
	Atomic(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// UserRepository persists user profiles
type UserRepository interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	// Upsert inserts the profile or refreshes name, email and phone of an existing one.
	// A nil phone keeps the stored one. Role and block number are never touched.
	Upsert(ctx context.Context, u *domain.User) error
	UpdateContact(ctx context.Context, id string, phone, block *string) error
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	UpdateBlock(ctx context.Context, id string, block *string) error
	List(ctx context.Context) ([]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	Count(ctx context.Context) (int64, error)
}

// BillRepository persists IPL bills
type BillRepository interface {
	Create(ctx context.Context, b *domain.Bill) error
	Get(ctx context.Context, id string) (*domain.Bill, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Bill, error)
	ListAll(ctx context.Context) ([]domain.Bill, error)
	// ListByIDsForUser returns the caller's bills among ids.
	// forUpdate locks the rows until the surrounding transaction ends.
	ListByIDsForUser(ctx context.Context, userID string, ids []string, forUpdate bool) ([]domain.Bill, error)
	UpdateStatus(ctx context.Context, id string, status domain.BillStatus) error
	MarkPaid(ctx context.Context, ids []string) error
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	// CountByStatus counts bills per status; an empty userID counts every user.
	CountByStatus(ctx context.Context, userID string) (map[domain.BillStatus]int64, error)
}

// TransactionRepository persists payment attempts and their bill links
type TransactionRepository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	LinkBills(ctx context.Context, transactionID string, billIDs []string) error
	SetExternalID(ctx context.Context, id, externalID string) error
	SetStatus(ctx context.Context, id string, status domain.TransactionStatus, paymentTime *time.Time) error
	// FindByReference matches the gateway id first and the order id second.
	// forUpdate locks the row until the surrounding transaction ends.
	FindByReference(ctx context.Context, ref string, forUpdate bool) (*domain.Transaction, error)
	BillIDs(ctx context.Context, transactionID string) ([]string, error)
	// PendingForBills returns pending transactions linked to any of the bills.
	PendingForBills(ctx context.Context, billIDs []string) ([]domain.Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error)
	ListAll(ctx context.Context) ([]domain.Transaction, error)
}

// SOSRepository persists emergency alerts
type SOSRepository interface {
	Create(ctx context.Context, l *domain.SOSLog) error
	ListByUser(ctx context.Context, userID string) ([]domain.SOSLog, error)
	ListAll(ctx context.Context) ([]domain.SOSLog, error)
}

// AnnouncementRepository persists announcements
type AnnouncementRepository interface {
	// List returns the newest announcements first; limit <= 0 returns all of them.
	List(ctx context.Context, limit int) ([]domain.Announcement, error)
	Get(ctx context.Context, id string) (*domain.Announcement, error)
	Create(ctx context.Context, a *domain.Announcement) error
	Update(ctx context.Context, id, title, content string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// SuggestionRepository persists resident suggestions
type SuggestionRepository interface {
	Create(ctx context.Context, s *domain.Suggestion) error
	List(ctx context.Context) ([]domain.Suggestion, error)
	MarkRead(ctx context.Context, id string) error
}

// ForumRepository persists forum categories, posts and replies
type ForumRepository interface {
	ListCategories(ctx context.Context) ([]domain.ForumCategory, error)
	CreateCategory(ctx context.Context, c *domain.ForumCategory) error
	GetCategory(ctx context.Context, id string) (*domain.ForumCategory, error)
	// ListPosts filters by category when categoryID is not empty.
	ListPosts(ctx context.Context, categoryID string) ([]domain.ForumPost, error)
	GetPost(ctx context.Context, id string) (*domain.ForumPost, error)
	CreatePost(ctx context.Context, p *domain.ForumPost) error
	ListReplies(ctx context.Context, postID string) ([]domain.ForumReply, error)
	CreateReply(ctx context.Context, r *domain.ForumReply) error
}

// PollRepository persists polls, their options and votes
type PollRepository interface {
	List(ctx context.Context) ([]domain.Poll, error)
	Get(ctx context.Context, id string) (*domain.Poll, error)
	// Create inserts the poll together with its Options.
	Create(ctx context.Context, p *domain.Poll) error
	Vote(ctx context.Context, v *domain.PollVote) error
	HasVoted(ctx context.Context, pollID, userID string) (bool, error)
	// Tally returns the vote count per option id.
	Tally(ctx context.Context, pollID string) (map[string]int64, error)
}

// ReportRepository persists report tickets
type ReportRepository interface {
	Create(ctx context.Context, r *domain.ReportTicket) error
	Get(ctx context.Context, id string) (*domain.ReportTicket, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ReportTicket, error)
	ListAll(ctx context.Context) ([]domain.ReportTicket, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReportStatus) error
	// Count counts tickets created at or after since (zero since counts all);
	// empty userID counts every user.
	Count(ctx context.Context, userID string, since time.Time) (int64, error)
}

// FacilityRepository persists bookable facilities
type FacilityRepository interface {
	List(ctx context.Context, activeOnly bool) ([]domain.Facility, error)
	Get(ctx context.Context, id string) (*domain.Facility, error)
	// GetForUpdate is Get that also locks the row until the surrounding
	// transaction ends, serialising bookings of one facility.
	GetForUpdate(ctx context.Context, id string) (*domain.Facility, error)
	Create(ctx context.Context, f *domain.Facility) error
	SetActive(ctx context.Context, id string, active bool) error
}

// BookingRepository persists facility bookings
type BookingRepository interface {
	Create(ctx context.Context, b *domain.FacilityBooking) error
	Get(ctx context.Context, id string) (*domain.FacilityBooking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.FacilityBooking, error)
	ListAll(ctx context.Context) ([]domain.FacilityBooking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
	// Overlaps reports whether a pending or approved booking of the facility
	// intersects [start, end).
	Overlaps(ctx context.Context, facilityID string, start, end time.Time) (bool, error)
}

// LetterRepository persists letter requests
type LetterRepository interface {
	Create(ctx context.Context, l *domain.UserLetter) error
	Get(ctx context.Context, id string) (*domain.UserLetter, error)
	ListByUser(ctx context.Context, userID string) ([]domain.UserLetter, error)
	ListAll(ctx context.Context) ([]domain.UserLetter, error)
	Update(ctx context.Context, id string, status domain.LetterStatus, notes string) error
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
