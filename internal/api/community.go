package api

import (
	"cluster_kita/internal/middleware"
	"cluster_kita/internal/service"

	"github.com/gin-gonic/gin"
)

// AnnouncementsPageHandler lists announcements, newest first
func AnnouncementsPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.ListAnnouncements(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "announcements.html", gin.H{"Title": "Pengumuman", "Announcements": items})
	}
}

// AnnouncementPageHandler shows one announcement
func AnnouncementPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := svc.GetAnnouncement(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "announcement.html", gin.H{"Title": a.Title, "Announcement": a})
	}
}

// ForumPageHandler lists threads, optionally of one category
func ForumPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		categories, err := svc.ListForumCategories(ctx)
		if err != nil {
			fail(c, err)
			return
		}
		posts, err := svc.ListForumPosts(ctx, c.Query("category"))
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "forum.html", gin.H{
			"Title":      "Forum Warga",
			"Categories": categories,
			"Posts":      posts,
			"Category":   c.Query("category"),
		})
	}
}

// ForumPostForm opens a thread
type ForumPostForm struct {
	CategoryID string `form:"category_id"`
	Title      string `form:"title"`
	Content    string `form:"content"`
}

// CreateForumPostHandler opens a thread and shows it
func CreateForumPostHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form ForumPostForm
		_ = c.ShouldBind(&form) // Fields are validated by the service
		post, err := svc.CreateForumPost(c.Request.Context(), middleware.CurrentUser(c), service.ForumPostInput(form))
		if err != nil {
			back(c, "/community/forum", err)
			return
		}
		done(c, "/community/forum/"+post.ID, "Topik dibuat")
	}
}

// ForumThreadPageHandler shows a thread with its replies
func ForumThreadPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		thread, err := svc.GetForumThread(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "forum_post.html", gin.H{"Title": thread.Post.Title, "Thread": thread})
	}
}

// CreateForumReplyHandler answers a thread
func CreateForumReplyHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := "/community/forum/" + c.Param("id")
		_, err := svc.CreateForumReply(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), c.PostForm("content"))
		if err != nil {
			back(c, path, err)
			return
		}
		done(c, path, "Balasan terkirim")
	}
}

// PollsPageHandler lists polls with results
func PollsPageHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		views, err := svc.ListPolls(c.Request.Context(), middleware.CurrentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		page(c, "polls.html", gin.H{"Title": "Polling", "Polls": views})
	}
}

// VoteHandler records the caller's vote
func VoteHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.Vote(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), c.PostForm("option_id"))
		if err != nil {
			back(c, "/community/polls", err)
			return
		}
		done(c, "/community/polls", "Terima kasih atas suara Anda")
	}
}

// SuggestionsPageHandler shows the suggestion box
func SuggestionsPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page(c, "suggestions.html", gin.H{"Title": "Kotak Saran"})
	}
}

// CreateSuggestionHandler stores a suggestion
func CreateSuggestionHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := svc.CreateSuggestion(c.Request.Context(), middleware.CurrentUser(c), c.PostForm("content")); err != nil {
			back(c, "/community/suggestions", err)
			return
		}
		done(c, "/community/suggestions", "Saran terkirim, terima kasih")
	}
}
