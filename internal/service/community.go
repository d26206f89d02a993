package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cluster_kita/internal/domain"
	"cluster_kita/internal/repository"
	"cluster_kita/internal/utils"

	"github.com/sirupsen/logrus"
)

// AnnouncementInput is the admin announcement form
type AnnouncementInput struct {
	Title   string `validate:"required,max=255"`
	Content string `validate:"required"`
}

// ListAnnouncements returns every announcement, newest first. The list is
// cached in redis and dropped on every write.
func (s *Service) ListAnnouncements(ctx context.Context) ([]domain.Announcement, error) {
	var items []domain.Announcement
	if hit, err := utils.GetCache(ctx, s.rdb, utils.AnnouncementsCacheKey, &items); err == nil && hit {
		return items, nil
	} else if err != nil {
		logrus.WithError(err).Warn("Announcement cache read failed")
	}
	items, err := s.store.Announcements().List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	if err := utils.SetCache(ctx, s.rdb, utils.AnnouncementsCacheKey, items, utils.CacheTTL); err != nil {
		logrus.WithError(err).Warn("Announcement cache write failed")
	}
	return items, nil
}

// LatestAnnouncements returns at most n announcements
func (s *Service) LatestAnnouncements(ctx context.Context, n int) ([]domain.Announcement, error) {
	items, err := s.ListAnnouncements(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) > n {
		items = items[:n]
	}
	return items, nil
}

// GetAnnouncement loads one announcement
func (s *Service) GetAnnouncement(ctx context.Context, id string) (*domain.Announcement, error) {
	return s.store.Announcements().Get(ctx, id)
}

// CreateAnnouncement publishes an announcement
func (s *Service) CreateAnnouncement(ctx context.Context, actor *domain.User, in AnnouncementInput) (*domain.Announcement, error) {
	if err := authorize(actor, domain.CapManageAnnouncements); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	a := &domain.Announcement{UserID: &actor.ID, Title: strings.TrimSpace(in.Title), Content: in.Content}
	if err := s.store.Announcements().Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	s.invalidateAnnouncements(ctx)
	return a, nil
}

// UpdateAnnouncement edits an announcement
func (s *Service) UpdateAnnouncement(ctx context.Context, actor *domain.User, id string, in AnnouncementInput) error {
	if err := authorize(actor, domain.CapManageAnnouncements); err != nil {
		return err
	}
	if err := s.check(in); err != nil {
		return err
	}
	if _, err := s.store.Announcements().Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Announcements().Update(ctx, id, strings.TrimSpace(in.Title), in.Content); err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	s.invalidateAnnouncements(ctx)
	return nil
}

// DeleteAnnouncement removes an announcement
func (s *Service) DeleteAnnouncement(ctx context.Context, actor *domain.User, id string) error {
	if err := authorize(actor, domain.CapManageAnnouncements); err != nil {
		return err
	}
	if err := s.store.Announcements().Delete(ctx, id); err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	s.invalidateAnnouncements(ctx)
	return nil
}

func (s *Service) invalidateAnnouncements(ctx context.Context) {
	if err := utils.DeleteCache(ctx, s.rdb, utils.AnnouncementsCacheKey); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate announcement cache")
	}
	s.invalidateAllStats(ctx)
}

// CreateSuggestion stores a resident suggestion
func (s *Service) CreateSuggestion(ctx context.Context, user *domain.User, content string) (*domain.Suggestion, error) {
	if err := authorize(user, domain.CapSubmitSuggestion); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.Invalid("content", "wajib diisi")
	}
	sg := &domain.Suggestion{UserID: user.ID, Content: content}
	if err := s.store.Suggestions().Create(ctx, sg); err != nil {
		return nil, fmt.Errorf("create suggestion: %w", err)
	}
	return sg, nil
}

// ListSuggestions returns every suggestion with its author
func (s *Service) ListSuggestions(ctx context.Context, actor *domain.User) ([]domain.Suggestion, error) {
	if err := authorize(actor, domain.CapReadSuggestions); err != nil {
		return nil, err
	}
	return s.store.Suggestions().List(ctx)
}

// MarkSuggestionRead flags a suggestion as read
func (s *Service) MarkSuggestionRead(ctx context.Context, actor *domain.User, id string) error {
	if err := authorize(actor, domain.CapReadSuggestions); err != nil {
		return err
	}
	return s.store.Suggestions().MarkRead(ctx, id)
}

// ForumCategoryInput is the admin category form
type ForumCategoryInput struct {
	Name        string `validate:"required,max=100"`
	Description string
}

// ForumPostInput is the new thread form
type ForumPostInput struct {
	CategoryID string `validate:"required"`
	Title      string `validate:"required,max=255"`
	Content    string `validate:"required"`
}

// Thread is a post with its replies in posting order
type Thread struct {
	Post    *domain.ForumPost
	Replies []domain.ForumReply
}

// ListForumCategories returns every category by name
func (s *Service) ListForumCategories(ctx context.Context) ([]domain.ForumCategory, error) {
	return s.store.Forum().ListCategories(ctx)
}

// CreateForumCategory adds a category; names are unique
func (s *Service) CreateForumCategory(ctx context.Context, actor *domain.User, in ForumCategoryInput) (*domain.ForumCategory, error) {
	if err := authorize(actor, domain.CapManageForum); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	c := &domain.ForumCategory{Name: strings.TrimSpace(in.Name), Description: in.Description}
	if err := s.store.Forum().CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create forum category: %w", err)
	}
	return c, nil
}

// ListForumPosts returns posts, optionally of one category
func (s *Service) ListForumPosts(ctx context.Context, categoryID string) ([]domain.ForumPost, error) {
	return s.store.Forum().ListPosts(ctx, categoryID)
}

// GetForumThread loads a post and its replies
func (s *Service) GetForumThread(ctx context.Context, postID string) (*Thread, error) {
	post, err := s.store.Forum().GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	replies, err := s.store.Forum().ListReplies(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return &Thread{Post: post, Replies: replies}, nil
}

// CreateForumPost opens a thread in an existing category
func (s *Service) CreateForumPost(ctx context.Context, user *domain.User, in ForumPostInput) (*domain.ForumPost, error) {
	if err := authorize(user, domain.CapPostForum); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	if _, err := s.store.Forum().GetCategory(ctx, in.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("category_id", "kategori tidak ditemukan")
		}
		return nil, err
	}
	p := &domain.ForumPost{UserID: user.ID, CategoryID: in.CategoryID, Title: strings.TrimSpace(in.Title), Content: in.Content}
	if err := s.store.Forum().CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("create forum post: %w", err)
	}
	return p, nil
}

// CreateForumReply answers a thread
func (s *Service) CreateForumReply(ctx context.Context, user *domain.User, postID, content string) (*domain.ForumReply, error) {
	if err := authorize(user, domain.CapPostForum); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.Invalid("content", "wajib diisi")
	}
	if _, err := s.store.Forum().GetPost(ctx, postID); err != nil {
		return nil, err
	}
	r := &domain.ForumReply{PostID: postID, UserID: user.ID, Content: content}
	if err := s.store.Forum().CreateReply(ctx, r); err != nil {
		return nil, fmt.Errorf("create forum reply: %w", err)
	}
	return r, nil
}

// PollInput is the admin poll form
type PollInput struct {
	Question  string     `validate:"required"`
	Options   []string   `validate:"min=2,dive,max=255"`
	ExpiresAt *time.Time `validate:"-"`
}

// PollView is a poll with its results as seen by one user
type PollView struct {
	Poll    domain.Poll
	Votes   map[string]int64
	Total   int64
	Voted   bool
	Expired bool
}

// Percent returns the share of votes of an option
func (v PollView) Percent(optionID string) int {
	if v.Total == 0 {
		return 0
	}
	return int(v.Votes[optionID] * 100 / v.Total)
}

// ListPolls returns every poll with tallies and the caller's voting state
func (s *Service) ListPolls(ctx context.Context, user *domain.User) ([]PollView, error) {
	polls, err := s.store.Polls().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	now := s.now()
	views := make([]PollView, 0, len(polls))
	for _, p := range polls {
		tally, err := s.store.Polls().Tally(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("tally poll %s: %w", p.ID, err)
		}
		view := PollView{Poll: p, Votes: tally, Expired: p.Expired(now)}
		for _, n := range tally {
			view.Total += n
		}
		if user != nil {
			if view.Voted, err = s.store.Polls().HasVoted(ctx, p.ID, user.ID); err != nil {
				return nil, fmt.Errorf("check vote: %w", err)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// CreatePoll creates a poll and its options atomically
func (s *Service) CreatePoll(ctx context.Context, actor *domain.User, in PollInput) (*domain.Poll, error) {
	if err := authorize(actor, domain.CapManagePolls); err != nil {
		return nil, err
	}
	options := make([]string, 0, len(in.Options))
	for _, o := range in.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	in.Options = options
	in.Question = strings.TrimSpace(in.Question)
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.now()) {
		return nil, domain.Invalid("expires_at", "harus di masa depan")
	}

	poll := &domain.Poll{UserID: &actor.ID, Question: in.Question, ExpiresAt: in.ExpiresAt}
	for _, o := range options {
		poll.Options = append(poll.Options, domain.PollOption{OptionText: o})
	}
	err := s.store.Atomic(ctx, func(store repository.Store) error {
		return store.Polls().Create(ctx, poll)
	})
	if err != nil {
		return nil, fmt.Errorf("create poll: %w", err)
	}
	return poll, nil
}

// Vote records the caller's single vote in a poll
func (s *Service) Vote(ctx context.Context, user *domain.User, pollID, optionID string) error {
	if err := authorize(user, domain.CapVote); err != nil {
		return err
	}
	poll, err := s.store.Polls().Get(ctx, pollID)
	if err != nil {
		return err
	}
	if poll.Expired(s.now()) {
		return domain.Invalid("poll_id", "polling sudah ditutup")
	}
	if !poll.HasOption(optionID) {
		return domain.Invalid("option_id", "pilihan tidak valid")
	}
	// The unique (poll_id, user_id) index rejects a second vote
	err = s.store.Polls().Vote(ctx, &domain.PollVote{PollID: pollID, PollOptionID: optionID, UserID: user.ID})
	if errors.Is(err, domain.ErrDuplicate) {
		return domain.ErrAlreadyVoted
	}
	if err != nil {
		return fmt.Errorf("vote: %w", err)
	}
	return nil
}
