package repository

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"cluster_kita/internal/domain"
)

// memState holds every table of the in-memory store
type memState struct {
	mu   sync.RWMutex
	last time.Time

	users         map[string]domain.User
	bills         map[string]domain.Bill
	transactions  map[string]domain.Transaction
	details       []domain.TransactionBillDetail
	sos           map[string]domain.SOSLog
	announcements map[string]domain.Announcement
	suggestions   map[string]domain.Suggestion
	categories    map[string]domain.ForumCategory
	posts         map[string]domain.ForumPost
	replies       map[string]domain.ForumReply
	polls         map[string]domain.Poll
	options       map[string]domain.PollOption
	votes         []domain.PollVote
	reports       map[string]domain.ReportTicket
	facilities    map[string]domain.Facility
	bookings      map[string]domain.FacilityBooking
	letters       map[string]domain.UserLetter
}

func (s *memState) clone() *memState {
	return &memState{
		last:          s.last,
		users:         maps.Clone(s.users),
		bills:         maps.Clone(s.bills),
		transactions:  maps.Clone(s.transactions),
		details:       slices.Clone(s.details),
		sos:           maps.Clone(s.sos),
		announcements: maps.Clone(s.announcements),
		suggestions:   maps.Clone(s.suggestions),
		categories:    maps.Clone(s.categories),
		posts:         maps.Clone(s.posts),
		replies:       maps.Clone(s.replies),
		polls:         maps.Clone(s.polls),
		options:       maps.Clone(s.options),
		votes:         slices.Clone(s.votes),
		reports:       maps.Clone(s.reports),
		facilities:    maps.Clone(s.facilities),
		bookings:      maps.Clone(s.bookings),
		letters:       maps.Clone(s.letters),
	}
}

// restore copies the tables of snap back into s; s.mu must be held
func (s *memState) restore(snap *memState) {
	s.last = snap.last
	s.users = snap.users
	s.bills = snap.bills
	s.transactions = snap.transactions
	s.details = snap.details
	s.sos = snap.sos
	s.announcements = snap.announcements
	s.suggestions = snap.suggestions
	s.categories = snap.categories
	s.posts = snap.posts
	s.replies = snap.replies
	s.polls = snap.polls
	s.options = snap.options
	s.votes = snap.votes
	s.reports = snap.reports
	s.facilities = snap.facilities
	s.bookings = snap.bookings
	s.letters = snap.letters
}

// now returns a strictly increasing timestamp so created_at ordering is stable
func (s *memState) now() time.Time {
	t := time.Now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *memState) userRef(id string) *domain.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return &u
}

func (s *memState) userRefPtr(id *string) *domain.User {
	if id == nil {
		return nil
	}
	return s.userRef(*id)
}

func newID(id *string) {
	if *id == "" {
		*id = domain.NewID()
	}
}

// MemoryStore is a Store kept entirely in process memory. It backs the
// service and handler tests and enforces the same unique keys as the schema.
type MemoryStore struct {
	st   *memState
	txMu *sync.Mutex
	inTx bool
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		st: &memState{
			users:         map[string]domain.User{},
			bills:         map[string]domain.Bill{},
			transactions:  map[string]domain.Transaction{},
			sos:           map[string]domain.SOSLog{},
			announcements: map[string]domain.Announcement{},
			suggestions:   map[string]domain.Suggestion{},
			categories:    map[string]domain.ForumCategory{},
			posts:         map[string]domain.ForumPost{},
			replies:       map[string]domain.ForumReply{},
			polls:         map[string]domain.Poll{},
			options:       map[string]domain.PollOption{},
			reports:       map[string]domain.ReportTicket{},
			facilities:    map[string]domain.Facility{},
			bookings:      map[string]domain.FacilityBooking{},
			letters:       map[string]domain.UserLetter{},
		},
		txMu: &sync.Mutex{},
	}
}

func (m *MemoryStore) Users() UserRepository                 { return memUsers{m.st} }
func (m *MemoryStore) Bills() BillRepository                 { return memBills{m.st} }
func (m *MemoryStore) Transactions() TransactionRepository   { return memTransactions{m.st} }
func (m *MemoryStore) SOS() SOSRepository                    { return memSOS{m.st} }
func (m *MemoryStore) Announcements() AnnouncementRepository { return memAnnouncements{m.st} }
func (m *MemoryStore) Suggestions() SuggestionRepository     { return memSuggestions{m.st} }
func (m *MemoryStore) Forum() ForumRepository                { return memForum{m.st} }
func (m *MemoryStore) Polls() PollRepository                 { return memPolls{m.st} }
func (m *MemoryStore) Reports() ReportRepository             { return memReports{m.st} }
func (m *MemoryStore) Facilities() FacilityRepository        { return memFacilities{m.st} }
func (m *MemoryStore) Bookings() BookingRepository           { return memBookings{m.st} }
func (m *MemoryStore) Letters() LetterRepository             { return memLetters{m.st} }

// Atomic serializes fn against other atomic units and restores the previous
// state when fn fails or ctx is done before it returns. Nested calls join the outer unit.
func (m *MemoryStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.st.mu.RLock()
	snap := m.st.clone()
	m.st.mu.RUnlock()

	err := fn(&MemoryStore{st: m.st, txMu: m.txMu, inTx: true})
	if err == nil {
		// a cancelled unit does not commit
		err = ctx.Err()
	}
	if err != nil {
		m.st.mu.Lock()
		m.st.restore(snap)
		m.st.mu.Unlock()
	}
	return err
}

func (m *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func sortNewest[T any](items []T, created func(T) time.Time) {
	slices.SortFunc(items, func(a, b T) int { return created(b).Compare(created(a)) })
}

type memUsers struct{ st *memState }

func (r memUsers) Get(_ context.Context, id string) (*domain.User, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	u, ok := r.st.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// conflict reports whether another user already holds one of u's unique columns
func (r memUsers) conflict(u domain.User) bool {
	for id, other := range r.st.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email && u.Email != "" {
			return true
		}
		if u.PhoneNumber != nil && other.PhoneNumber != nil && *u.PhoneNumber == *other.PhoneNumber {
			return true
		}
		if u.BlockNumber != nil && other.BlockNumber != nil && *u.BlockNumber == *other.BlockNumber {
			return true
		}
	}
	return false
}

func (r memUsers) Upsert(_ context.Context, u *domain.User) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	now := r.st.now()
	row, exists := r.st.users[u.ID]
	if exists {
		row.Name, row.Email = u.Name, u.Email
		if u.PhoneNumber != nil {
			row.PhoneNumber = u.PhoneNumber
		}
		row.UpdatedAt = now
	} else {
		row = *u
		if row.Role == "" {
			row.Role = domain.RoleResident
		}
		row.CreatedAt, row.UpdatedAt = now, now
	}
	if r.conflict(row) {
		return domain.ErrDuplicate
	}
	r.st.users[u.ID] = row
	return nil
}

func (r memUsers) update(id string, fn func(*domain.User)) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	row, ok := r.st.users[id]
	if !ok {
		return nil
	}
	fn(&row)
	if r.conflict(row) {
		return domain.ErrDuplicate
	}
	row.UpdatedAt = r.st.now()
	r.st.users[id] = row
	return nil
}

func (r memUsers) UpdateContact(_ context.Context, id string, phone, block *string) error {
	return r.update(id, func(u *domain.User) { u.PhoneNumber, u.BlockNumber = phone, block })
}

func (r memUsers) UpdateRole(_ context.Context, id string, role domain.Role) error {
	return r.update(id, func(u *domain.User) { u.Role = role })
}

func (r memUsers) UpdateBlock(_ context.Context, id string, block *string) error {
	return r.update(id, func(u *domain.User) { u.BlockNumber = block })
}

func (r memUsers) List(_ context.Context) ([]domain.User, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	users := slices.Collect(maps.Values(r.st.users))
	sortNewest(users, func(u domain.User) time.Time { return u.CreatedAt })
	return users, nil
}

func (r memUsers) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var users []domain.User
	for _, u := range r.st.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	slices.SortFunc(users, func(a, b domain.User) int { return cmp.Compare(a.Name, b.Name) })
	return users, nil
}

func (r memUsers) Count(_ context.Context) (int64, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	return int64(len(r.st.users)), nil
}

func comparePeriodDesc(a, b domain.Bill) int {
	if c := cmp.Compare(b.Year, a.Year); c != 0 {
		return c
	}
	return cmp.Compare(b.Month, a.Month)
}

type memBills struct{ st *memState }

func (r memBills) Create(_ context.Context, b *domain.Bill) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, other := range r.st.bills {
		if other.UserID == b.UserID && other.Month == b.Month && other.Year == b.Year {
			return domain.ErrDuplicate
		}
	}
	newID(&b.ID)
	b.CreatedAt = r.st.now()
	b.UpdatedAt = b.CreatedAt
	row := *b
	row.User = nil
	r.st.bills[b.ID] = row
	return nil
}

func (r memBills) Get(_ context.Context, id string) (*domain.Bill, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	b, ok := r.st.bills[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r memBills) filter(keep func(domain.Bill) bool, withUser bool) []domain.Bill {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var bills []domain.Bill
	for _, b := range r.st.bills {
		if keep(b) {
			if withUser {
				b.User = r.st.userRef(b.UserID)
			}
			bills = append(bills, b)
		}
	}
	slices.SortFunc(bills, comparePeriodDesc)
	return bills
}

func (r memBills) ListByUser(_ context.Context, userID string) ([]domain.Bill, error) {
	return r.filter(func(b domain.Bill) bool { return b.UserID == userID }, false), nil
}

func (r memBills) ListAll(_ context.Context) ([]domain.Bill, error) {
	return r.filter(func(domain.Bill) bool { return true }, true), nil
}

func (r memBills) ListByIDsForUser(_ context.Context, userID string, ids []string, _ bool) ([]domain.Bill, error) {
	bills := r.filter(func(b domain.Bill) bool {
		return b.UserID == userID && slices.Contains(ids, b.ID)
	}, false)
	slices.Reverse(bills)
	return bills, nil
}

func (r memBills) UpdateStatus(_ context.Context, id string, status domain.BillStatus) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if b, ok := r.st.bills[id]; ok {
		b.Status = status
		b.UpdatedAt = r.st.now()
		r.st.bills[id] = b
	}
	return nil
}

func (r memBills) MarkPaid(_ context.Context, ids []string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, id := range ids {
		if b, ok := r.st.bills[id]; ok {
			b.Status = domain.BillPaid
			b.UpdatedAt = r.st.now()
			r.st.bills[id] = b
		}
	}
	return nil
}

func (r memBills) MarkOverdue(_ context.Context, asOf time.Time) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var n int64
	for id, b := range r.st.bills {
		if b.Status == domain.BillPending && b.DueDate != nil && b.DueDate.Before(asOf) {
			b.Status = domain.BillOverdue
			b.UpdatedAt = r.st.now()
			r.st.bills[id] = b
			n++
		}
	}
	return n, nil
}

func (r memBills) CountByStatus(_ context.Context, userID string) (map[domain.BillStatus]int64, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	counts := map[domain.BillStatus]int64{}
	for _, b := range r.st.bills {
		if userID == "" || b.UserID == userID {
			counts[b.Status]++
		}
	}
	return counts, nil
}

type memTransactions struct{ st *memState }

func (r memTransactions) Create(_ context.Context, t *domain.Transaction) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, other := range r.st.transactions {
		if other.OrderID == t.OrderID {
			return domain.ErrDuplicate
		}
	}
	newID(&t.ID)
	t.CreatedAt = r.st.now()
	row := *t
	row.User = nil
	r.st.transactions[t.ID] = row
	return nil
}

func (r memTransactions) LinkBills(_ context.Context, transactionID string, billIDs []string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, billID := range billIDs {
		for _, d := range r.st.details {
			if d.TransactionID == transactionID && d.BillID == billID {
				return domain.ErrDuplicate
			}
		}
		r.st.details = append(r.st.details, domain.TransactionBillDetail{
			ID: domain.NewID(), TransactionID: transactionID, BillID: billID,
		})
	}
	return nil
}

func (r memTransactions) SetExternalID(_ context.Context, id, externalID string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for otherID, other := range r.st.transactions {
		if otherID != id && other.ExternalID != nil && *other.ExternalID == externalID {
			return domain.ErrDuplicate
		}
	}
	if t, ok := r.st.transactions[id]; ok {
		t.ExternalID = &externalID
		r.st.transactions[id] = t
	}
	return nil
}

func (r memTransactions) SetStatus(_ context.Context, id string, status domain.TransactionStatus, paymentTime *time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if t, ok := r.st.transactions[id]; ok {
		t.Status = status
		if paymentTime != nil {
			pt := *paymentTime
			t.PaymentTime = &pt
		}
		r.st.transactions[id] = t
	}
	return nil
}

func (r memTransactions) FindByReference(_ context.Context, ref string, _ bool) (*domain.Transaction, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	for _, t := range r.st.transactions {
		if t.ExternalID != nil && *t.ExternalID == ref {
			return &t, nil
		}
	}
	for _, t := range r.st.transactions {
		if t.OrderID == ref {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memTransactions) PendingForBills(_ context.Context, billIDs []string) ([]domain.Transaction, error) {
	r.st.mu.RLock()
	linked := map[string]bool{}
	for _, d := range r.st.details {
		if slices.Contains(billIDs, d.BillID) {
			linked[d.TransactionID] = true
		}
	}
	r.st.mu.RUnlock()
	txs := r.list(func(t domain.Transaction) bool {
		return linked[t.ID] && t.Status == domain.TransactionPending
	}, false)
	slices.Reverse(txs)
	return txs, nil
}

func (r memTransactions) BillIDs(_ context.Context, transactionID string) ([]string, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var ids []string
	for _, d := range r.st.details {
		if d.TransactionID == transactionID {
			ids = append(ids, d.BillID)
		}
	}
	return ids, nil
}

func (r memTransactions) list(keep func(domain.Transaction) bool, withUser bool) []domain.Transaction {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var txs []domain.Transaction
	for _, t := range r.st.transactions {
		if keep(t) {
			if withUser {
				t.User = r.st.userRef(t.UserID)
			}
			txs = append(txs, t)
		}
	}
	sortNewest(txs, func(t domain.Transaction) time.Time { return t.CreatedAt })
	return txs
}

func (r memTransactions) ListByUser(_ context.Context, userID string) ([]domain.Transaction, error) {
	return r.list(func(t domain.Transaction) bool { return t.UserID == userID }, false), nil
}

func (r memTransactions) ListAll(_ context.Context) ([]domain.Transaction, error) {
	return r.list(func(domain.Transaction) bool { return true }, true), nil
}
