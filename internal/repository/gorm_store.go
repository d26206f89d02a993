package repository

import (
	"context"
	"errors"

	"cluster_kita/internal/domain"

	"github.com/go-sql-driver/mysql" // MySQL error codes
	"gorm.io/gorm"                   // GORM ORM library
	"gorm.io/gorm/clause"            // Upsert and locking clauses
)

// mysqlDuplicateEntry is ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

// GormStore implements Store on top of a *gorm.DB
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an opened gorm handle
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository                 { return &gormUsers{db: s.db} }
func (s *GormStore) Bills() BillRepository                 { return &gormBills{db: s.db} }
func (s *GormStore) Transactions() TransactionRepository   { return &gormTransactions{db: s.db} }
func (s *GormStore) SOS() SOSRepository                    { return &gormSOS{db: s.db} }
func (s *GormStore) Announcements() AnnouncementRepository { return &gormAnnouncements{db: s.db} }
func (s *GormStore) Suggestions() SuggestionRepository     { return &gormSuggestions{db: s.db} }
func (s *GormStore) Forum() ForumRepository                { return &gormForum{db: s.db} }
func (s *GormStore) Polls() PollRepository                 { return &gormPolls{db: s.db} }
func (s *GormStore) Reports() ReportRepository             { return &gormReports{db: s.db} }
func (s *GormStore) Facilities() FacilityRepository        { return &gormFacilities{db: s.db} }
func (s *GormStore) Bookings() BookingRepository           { return &gormBookings{db: s.db} }
func (s *GormStore) Letters() LetterRepository             { return &gormLetters{db: s.db} }

// Atomic runs fn inside db.Transaction; returning an error rolls back
func (s *GormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// Ping checks the database connection
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translate maps driver errors onto domain errors
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicate
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return domain.ErrDuplicate
	}
	return err
}

type gormUsers struct{ db *gorm.DB }

func (r *gormUsers) Get(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *gormUsers) Upsert(ctx context.Context, u *domain.User) error {
	// ON DUPLICATE KEY UPDATE only the identity-owned columns; a missing
	// phone keeps the one saved at onboarding
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":         gorm.Expr("VALUES(name)"),
			"email":        gorm.Expr("VALUES(email)"),
			"phone_number": gorm.Expr("COALESCE(VALUES(phone_number), phone_number)"),
			"updated_at":   gorm.Expr("VALUES(updated_at)"),
		}),
	}).Create(u).Error
	return translate(err)
}

func (r *gormUsers) UpdateContact(ctx context.Context, id string, phone, block *string) error {
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"phone_number": phone, "block_number": block}).Error
	return translate(err)
}

func (r *gormUsers) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("role", role).Error
	return translate(err)
}

func (r *gormUsers) UpdateBlock(ctx context.Context, id string, block *string) error {
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("block_number", block).Error
	return translate(err)
}

func (r *gormUsers) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&users).Error
	return users, translate(err)
}

func (r *gormUsers) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("name asc").Find(&users).Error
	return users, translate(err)
}

func (r *gormUsers) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, translate(err)
}
