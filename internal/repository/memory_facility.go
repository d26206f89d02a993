package repository

import (
	"cmp"
	"context"
	"slices"
	"time"

	"cluster_kita/internal/domain"
)

type memReports struct{ st *memState }

func (r memReports) Create(_ context.Context, t *domain.ReportTicket) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	newID(&t.ID)
	if t.Status == "" {
		t.Status = domain.ReportNew
	}
	t.CreatedAt = r.st.now()
	t.UpdatedAt = t.CreatedAt
	row := *t
	row.User = nil
	r.st.reports[t.ID] = row
	return nil
}

func (r memReports) Get(_ context.Context, id string) (*domain.ReportTicket, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	t, ok := r.st.reports[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t.User = r.st.userRef(t.UserID)
	return &t, nil
}

func (r memReports) list(keep func(domain.ReportTicket) bool, withUser bool) []domain.ReportTicket {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var tickets []domain.ReportTicket
	for _, t := range r.st.reports {
		if keep(t) {
			if withUser {
				t.User = r.st.userRef(t.UserID)
			}
			tickets = append(tickets, t)
		}
	}
	sortNewest(tickets, func(t domain.ReportTicket) time.Time { return t.CreatedAt })
	return tickets
}

func (r memReports) ListByUser(_ context.Context, userID string) ([]domain.ReportTicket, error) {
	return r.list(func(t domain.ReportTicket) bool { return t.UserID == userID }, false), nil
}

func (r memReports) ListAll(_ context.Context) ([]domain.ReportTicket, error) {
	return r.list(func(domain.ReportTicket) bool { return true }, true), nil
}

func (r memReports) UpdateStatus(_ context.Context, id string, status domain.ReportStatus) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if t, ok := r.st.reports[id]; ok {
		t.Status = status
		t.UpdatedAt = r.st.now()
		r.st.reports[id] = t
	}
	return nil
}

func (r memReports) Count(_ context.Context, userID string, since time.Time) (int64, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var n int64
	for _, t := range r.st.reports {
		if (userID == "" || t.UserID == userID) && !t.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type memFacilities struct{ st *memState }

func (r memFacilities) List(_ context.Context, activeOnly bool) ([]domain.Facility, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var items []domain.Facility
	for _, f := range r.st.facilities {
		if !activeOnly || f.IsActive {
			items = append(items, f)
		}
	}
	slices.SortFunc(items, func(a, b domain.Facility) int { return cmp.Compare(a.Name, b.Name) })
	return items, nil
}

func (r memFacilities) Get(_ context.Context, id string) (*domain.Facility, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	f, ok := r.st.facilities[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

// GetForUpdate needs no row lock; Atomic already serialises writers
func (r memFacilities) GetForUpdate(ctx context.Context, id string) (*domain.Facility, error) {
	return r.Get(ctx, id)
}

func (r memFacilities) Create(_ context.Context, f *domain.Facility) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	newID(&f.ID)
	r.st.facilities[f.ID] = *f
	return nil
}

func (r memFacilities) SetActive(_ context.Context, id string, active bool) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if f, ok := r.st.facilities[id]; ok {
		f.IsActive = active
		r.st.facilities[id] = f
	}
	return nil
}

type memBookings struct{ st *memState }

func (r memBookings) withRefs(b domain.FacilityBooking) domain.FacilityBooking {
	if f, ok := r.st.facilities[b.FacilityID]; ok {
		b.Facility = &f
	}
	b.User = r.st.userRef(b.UserID)
	return b
}

func (r memBookings) Create(_ context.Context, b *domain.FacilityBooking) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	newID(&b.ID)
	b.CreatedAt = r.st.now()
	row := *b
	row.Facility, row.User = nil, nil
	r.st.bookings[b.ID] = row
	return nil
}

func (r memBookings) Get(_ context.Context, id string) (*domain.FacilityBooking, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	b, ok := r.st.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b = r.withRefs(b)
	return &b, nil
}

func (r memBookings) ListByUser(_ context.Context, userID string) ([]domain.FacilityBooking, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var items []domain.FacilityBooking
	for _, b := range r.st.bookings {
		if b.UserID == userID {
			items = append(items, r.withRefs(b))
		}
	}
	slices.SortFunc(items, func(a, b domain.FacilityBooking) int { return a.StartTime.Compare(b.StartTime) })
	return items, nil
}

func (r memBookings) ListAll(_ context.Context) ([]domain.FacilityBooking, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var items []domain.FacilityBooking
	for _, b := range r.st.bookings {
		items = append(items, r.withRefs(b))
	}
	slices.SortFunc(items, func(a, b domain.FacilityBooking) int { return b.StartTime.Compare(a.StartTime) })
	return items, nil
}

func (r memBookings) UpdateStatus(_ context.Context, id string, status domain.BookingStatus) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if b, ok := r.st.bookings[id]; ok {
		b.Status = status
		r.st.bookings[id] = b
	}
	return nil
}

func (r memBookings) Overlaps(_ context.Context, facilityID string, start, end time.Time) (bool, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	for _, b := range r.st.bookings {
		if b.FacilityID == facilityID && b.Active() && b.StartTime.Before(end) && b.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

type memLetters struct{ st *memState }

func (r memLetters) Create(_ context.Context, l *domain.UserLetter) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	newID(&l.ID)
	if l.Status == "" {
		l.Status = domain.LetterPending
	}
	l.CreatedAt = r.st.now()
	l.UpdatedAt = l.CreatedAt
	row := *l
	row.User = nil
	r.st.letters[l.ID] = row
	return nil
}

func (r memLetters) Get(_ context.Context, id string) (*domain.UserLetter, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	l, ok := r.st.letters[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	l.User = r.st.userRef(l.UserID)
	return &l, nil
}

func (r memLetters) list(keep func(domain.UserLetter) bool, withUser bool) []domain.UserLetter {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var items []domain.UserLetter
	for _, l := range r.st.letters {
		if keep(l) {
			if withUser {
				l.User = r.st.userRef(l.UserID)
			}
			items = append(items, l)
		}
	}
	sortNewest(items, func(l domain.UserLetter) time.Time { return l.CreatedAt })
	return items
}

func (r memLetters) ListByUser(_ context.Context, userID string) ([]domain.UserLetter, error) {
	return r.list(func(l domain.UserLetter) bool { return l.UserID == userID }, false), nil
}

func (r memLetters) ListAll(_ context.Context) ([]domain.UserLetter, error) {
	return r.list(func(domain.UserLetter) bool { return true }, true), nil
}

func (r memLetters) Update(_ context.Context, id string, status domain.LetterStatus, notes string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if l, ok := r.st.letters[id]; ok {
		l.Status, l.AdminNotes = status, notes
		l.UpdatedAt = r.st.now()
		r.st.letters[id] = l
	}
	return nil
}
