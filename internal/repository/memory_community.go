package repository

import (
	"cmp"
	"context"
	"slices"
	"time"

	"cluster_kita/internal/domain"
)

type memSOS struct{ st *memState }

func (r memSOS) Create(_ context.Context, l *domain.SOSLog) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	newID(&l.ID)
	l.CreatedAt = r.st.now()
	row := *l
	row.User = nil
	r.st.sos[l.ID] = row
	return nil
}

func (r memSOS) list(keep func(domain.SOSLog) bool, withUser bool) []domain.SOSLog {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var logs []domain.SOSLog
	for _, l := range r.st.sos {
		if keep(l) {
			if withUser {
				l.User = r.st.userRefPtr(l.UserID)
			}
			logs = append(logs, l)
		}
	}
	sortNewest(logs, func(l domain.SOSLog) time.Time { return l.CreatedAt })
	return logs
}

func (r memSOS) ListByUser(_ context.Context, userID string) ([]domain.SOSLog, error) {
	return r.list(func(l domain.SOSLog) bool { return l.UserID != nil && *l.UserID == userID }, false), nil
}

func (r memSOS) ListAll(_ context.Context) ([]domain.SOSLog, error) {
	return r.list(func(domain.SOSLog) bool { return true }, true), nil
}

type memAnnouncements struct{ st *memState }

func (r memAnnouncements) List(_ context.Context, limit int) ([]domain.Announcement, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var items []domain.Announcement
	for _, a := range r.st.announcements {
		a.User = r.st.userRefPtr(a.UserID)
		items = append(items, a)
	}
	sortNewest(items, func(a domain.Announcement) time.Time { return a.CreatedAt })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r memAnnouncements) Get(_ context.Context, id string) (*domain.Announcement, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	a, ok := r.st.announcements[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a.User = r.st.userRefPtr(a.UserID)
	return &a, nil
}

func (r memAnnouncements) Create(_ context.Context, a *domain.Announcement) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	newID(&a.ID)
	a.CreatedAt = r.st.now()
	row := *a
	row.User = nil
	r.st.announcements[a.ID] = row
	return nil
}

func (r memAnnouncements) Update(_ context.Context, id, title, content string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if a, ok := r.st.announcements[id]; ok {
		a.Title, a.Content = title, content
		r.st.announcements[id] = a
	}
	return nil
}

func (r memAnnouncements) Delete(_ context.Context, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.announcements[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.st.announcements, id)
	return nil
}

func (r memAnnouncements) Count(_ context.Context) (int64, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	return int64(len(r.st.announcements)), nil
}

type memSuggestions struct{ st *memState }

func (r memSuggestions) Create(_ context.Context, s *domain.Suggestion) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	newID(&s.ID)
	s.CreatedAt = r.st.now()
	row := *s
	row.User = nil
	r.st.suggestions[s.ID] = row
	return nil
}

func (r memSuggestions) List(_ context.Context) ([]domain.Suggestion, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var items []domain.Suggestion
	for _, s := range r.st.suggestions {
		s.User = r.st.userRef(s.UserID)
		items = append(items, s)
	}
	sortNewest(items, func(s domain.Suggestion) time.Time { return s.CreatedAt })
	return items, nil
}

func (r memSuggestions) MarkRead(_ context.Context, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if s, ok := r.st.suggestions[id]; ok {
		s.IsRead = true
		r.st.suggestions[id] = s
	}
	return nil
}

type memForum struct{ st *memState }

func (r memForum) ListCategories(_ context.Context) ([]domain.ForumCategory, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var cats []domain.ForumCategory
	for _, c := range r.st.categories {
		cats = append(cats, c)
	}
	slices.SortFunc(cats, func(a, b domain.ForumCategory) int { return cmp.Compare(a.Name, b.Name) })
	return cats, nil
}

func (r memForum) CreateCategory(_ context.Context, c *domain.ForumCategory) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, other := range r.st.categories {
		if other.Name == c.Name {
			return domain.ErrDuplicate
		}
	}
	newID(&c.ID)
	r.st.categories[c.ID] = *c
	return nil
}

func (r memForum) GetCategory(_ context.Context, id string) (*domain.ForumCategory, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	c, ok := r.st.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r memForum) withRefs(p domain.ForumPost) domain.ForumPost {
	p.User = r.st.userRef(p.UserID)
	if c, ok := r.st.categories[p.CategoryID]; ok {
		p.Category = &c
	}
	return p
}

func (r memForum) ListPosts(_ context.Context, categoryID string) ([]domain.ForumPost, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var posts []domain.ForumPost
	for _, p := range r.st.posts {
		if categoryID == "" || p.CategoryID == categoryID {
			posts = append(posts, r.withRefs(p))
		}
	}
	sortNewest(posts, func(p domain.ForumPost) time.Time { return p.CreatedAt })
	return posts, nil
}

func (r memForum) GetPost(_ context.Context, id string) (*domain.ForumPost, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	p, ok := r.st.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = r.withRefs(p)
	return &p, nil
}

func (r memForum) CreatePost(_ context.Context, p *domain.ForumPost) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	newID(&p.ID)
	p.CreatedAt = r.st.now()
	row := *p
	row.User, row.Category = nil, nil
	r.st.posts[p.ID] = row
	return nil
}

func (r memForum) ListReplies(_ context.Context, postID string) ([]domain.ForumReply, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var replies []domain.ForumReply
	for _, reply := range r.st.replies {
		if reply.PostID == postID {
			reply.User = r.st.userRef(reply.UserID)
			replies = append(replies, reply)
		}
	}
	slices.SortFunc(replies, func(a, b domain.ForumReply) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return replies, nil
}

func (r memForum) CreateReply(_ context.Context, reply *domain.ForumReply) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	newID(&reply.ID)
	reply.CreatedAt = r.st.now()
	row := *reply
	row.User, row.Post = nil, nil
	r.st.replies[reply.ID] = row
	return nil
}

type memPolls struct{ st *memState }

func (r memPolls) withOptions(p domain.Poll) domain.Poll {
	p.Options = nil
	for _, o := range r.st.options {
		if o.PollID == p.ID {
			p.Options = append(p.Options, o)
		}
	}
	slices.SortFunc(p.Options, func(a, b domain.PollOption) int { return cmp.Compare(a.ID, b.ID) })
	return p
}

func (r memPolls) List(_ context.Context) ([]domain.Poll, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var polls []domain.Poll
	for _, p := range r.st.polls {
		polls = append(polls, r.withOptions(p))
	}
	sortNewest(polls, func(p domain.Poll) time.Time { return p.CreatedAt })
	return polls, nil
}

func (r memPolls) Get(_ context.Context, id string) (*domain.Poll, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	p, ok := r.st.polls[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = r.withOptions(p)
	return &p, nil
}

func (r memPolls) Create(_ context.Context, p *domain.Poll) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	newID(&p.ID)
	p.CreatedAt = r.st.now()
	for i := range p.Options {
		newID(&p.Options[i].ID)
		p.Options[i].PollID = p.ID
		r.st.options[p.Options[i].ID] = p.Options[i]
	}
	row := *p
	row.Options, row.User = nil, nil
	r.st.polls[p.ID] = row
	return nil
}

func (r memPolls) Vote(_ context.Context, v *domain.PollVote) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, other := range r.st.votes {
		if other.PollID == v.PollID && other.UserID == v.UserID {
			return domain.ErrDuplicate
		}
	}
	newID(&v.ID)
	v.CreatedAt = r.st.now()
	row := *v
	row.Poll, row.Option, row.User = nil, nil, nil
	r.st.votes = append(r.st.votes, row)
	return nil
}

func (r memPolls) HasVoted(_ context.Context, pollID, userID string) (bool, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	return slices.ContainsFunc(r.st.votes, func(v domain.PollVote) bool {
		return v.PollID == pollID && v.UserID == userID
	}), nil
}

func (r memPolls) Tally(_ context.Context, pollID string) (map[string]int64, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	tally := map[string]int64{}
	for _, v := range r.st.votes {
		if v.PollID == pollID {
			tally[v.PollOptionID]++
		}
	}
	return tally, nil
}
