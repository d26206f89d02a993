package repository

import (
	"context"

	"cluster_kita/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormSOS struct{ db *gorm.DB }

func (r *gormSOS) Create(ctx context.Context, l *domain.SOSLog) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error)
}

func (r *gormSOS) ListByUser(ctx context.Context, userID string) ([]domain.SOSLog, error) {
	var logs []domain.SOSLog
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&logs).Error
	return logs, translate(err)
}

func (r *gormSOS) ListAll(ctx context.Context) ([]domain.SOSLog, error) {
	var logs []domain.SOSLog
	err := r.db.WithContext(ctx).Preload("User").Order("created_at desc").Find(&logs).Error
	return logs, translate(err)
}

type gormAnnouncements struct{ db *gorm.DB }

func (r *gormAnnouncements) List(ctx context.Context, limit int) ([]domain.Announcement, error) {
	var items []domain.Announcement
	q := r.db.WithContext(ctx).Preload("User").Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&items).Error
	return items, translate(err)
}

func (r *gormAnnouncements) Get(ctx context.Context, id string) (*domain.Announcement, error) {
	var a domain.Announcement
	if err := r.db.WithContext(ctx).Preload("User").First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *gormAnnouncements) Create(ctx context.Context, a *domain.Announcement) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error)
}

func (r *gormAnnouncements) Update(ctx context.Context, id, title, content string) error {
	err := r.db.WithContext(ctx).Model(&domain.Announcement{}).Where("id = ?", id).
		Updates(map[string]any{"title": title, "content": content}).Error
	return translate(err)
}

func (r *gormAnnouncements) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&domain.Announcement{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *gormAnnouncements) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Announcement{}).Count(&total).Error
	return total, translate(err)
}

type gormSuggestions struct{ db *gorm.DB }

func (r *gormSuggestions) Create(ctx context.Context, s *domain.Suggestion) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error)
}

func (r *gormSuggestions) List(ctx context.Context) ([]domain.Suggestion, error) {
	var items []domain.Suggestion
	err := r.db.WithContext(ctx).Preload("User").Order("created_at desc").Find(&items).Error
	return items, translate(err)
}

func (r *gormSuggestions) MarkRead(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&domain.Suggestion{}).Where("id = ?", id).Update("is_read", true).Error
	return translate(err)
}

type gormForum struct{ db *gorm.DB }

func (r *gormForum) ListCategories(ctx context.Context) ([]domain.ForumCategory, error) {
	var cats []domain.ForumCategory
	err := r.db.WithContext(ctx).Order("name asc").Find(&cats).Error
	return cats, translate(err)
}

func (r *gormForum) CreateCategory(ctx context.Context, c *domain.ForumCategory) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *gormForum) GetCategory(ctx context.Context, id string) (*domain.ForumCategory, error) {
	var c domain.ForumCategory
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *gormForum) ListPosts(ctx context.Context, categoryID string) ([]domain.ForumPost, error) {
	var posts []domain.ForumPost
	q := r.db.WithContext(ctx).Preload("User").Preload("Category").Order("created_at desc")
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	err := q.Find(&posts).Error
	return posts, translate(err)
}

func (r *gormForum) GetPost(ctx context.Context, id string) (*domain.ForumPost, error) {
	var p domain.ForumPost
	if err := r.db.WithContext(ctx).Preload("User").Preload("Category").First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *gormForum) CreatePost(ctx context.Context, p *domain.ForumPost) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error)
}

func (r *gormForum) ListReplies(ctx context.Context, postID string) ([]domain.ForumReply, error) {
	var replies []domain.ForumReply
	err := r.db.WithContext(ctx).Preload("User").Where("post_id = ?", postID).
		Order("created_at asc").Find(&replies).Error
	return replies, translate(err)
}

func (r *gormForum) CreateReply(ctx context.Context, reply *domain.ForumReply) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(reply).Error)
}

type gormPolls struct{ db *gorm.DB }

func (r *gormPolls) List(ctx context.Context) ([]domain.Poll, error) {
	var polls []domain.Poll
	err := r.db.WithContext(ctx).Preload("Options").Order("created_at desc").Find(&polls).Error
	return polls, translate(err)
}

func (r *gormPolls) Get(ctx context.Context, id string) (*domain.Poll, error) {
	var p domain.Poll
	if err := r.db.WithContext(ctx).Preload("Options").First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *gormPolls) Create(ctx context.Context, p *domain.Poll) error {
	// Options are saved through the has-many association
	return translate(r.db.WithContext(ctx).Omit("User").Create(p).Error)
}

func (r *gormPolls) Vote(ctx context.Context, v *domain.PollVote) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error)
}

func (r *gormPolls) HasVoted(ctx context.Context, pollID, userID string) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.PollVote{}).
		Where("poll_id = ? AND user_id = ?", pollID, userID).Count(&total).Error
	return total > 0, translate(err)
}

func (r *gormPolls) Tally(ctx context.Context, pollID string) (map[string]int64, error) {
	var rows []struct {
		PollOptionID string
		Total        int64
	}
	err := r.db.WithContext(ctx).Model(&domain.PollVote{}).
		Select("poll_option_id, count(*) as total").
		Where("poll_id = ?", pollID).Group("poll_option_id").Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	tally := make(map[string]int64, len(rows))
	for _, row := range rows {
		tally[row.PollOptionID] = row.Total
	}
	return tally, nil
}
