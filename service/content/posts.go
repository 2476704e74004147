package content

import (
	"context"
	"fmt"
	"slices"

	"github.com/InsulaLabs/sphere/db/models"
)

// CreatePost writes the post before linking it from the author, so a crash
// in between leaves an unlinked post rather than a dangling id.
func (s *Service) CreatePost(ctx context.Context, author, text string, media []models.Media) (*models.Post, error) {
	if _, err := s.requireUser(ctx, author); err != nil {
		return nil, err
	}
	if media == nil {
		media = []models.Media{}
	}
	post := &models.Post{
		ID:        s.newID(),
		Author:    author,
		Content:   text,
		Media:     media,
		Likes:     []string{},
		Comments:  []models.Comment{},
		Reposts:   []string{},
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.posts.Put(ctx, post); err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(models.WithUser(author))
	defer unlock()
	user, err := s.requireUser(ctx, author)
	if err != nil {
		return nil, err
	}
	user.Posts = append(user.Posts, post.ID)
	if err := s.accounts.Save(ctx, user); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Service) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.posts.Get(ctx, id)
}

func (s *Service) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return s.posts.List(ctx)
}

// ListUserPosts resolves the user's post ids, dropping any that no longer
// exist, and returns them newest first like ListPosts.
func (s *Service) ListUserPosts(ctx context.Context, username string) ([]*models.Post, error) {
	user, err := s.requireUser(ctx, username)
	if err != nil {
		return nil, err
	}
	posts := make([]*models.Post, 0, len(user.Posts))
	for _, id := range user.Posts {
		post, found, err := s.posts.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			posts = append(posts, post)
		}
	}
	sortNewestFirst(posts)
	return posts, nil
}

func (s *Service) LikePost(ctx context.Context, postID, username string) (*models.Post, error) {
	post, added, err := s.posts.Like(ctx, postID, username)
	if err != nil {
		return nil, err
	}
	if added && post.Author != username {
		s.notify(ctx, post.Author, models.NotificationLike, username,
			fmt.Sprintf("%s liked your post", username), post.ID)
	}
	return post, nil
}

func (s *Service) UnlikePost(ctx context.Context, postID, username string) (*models.Post, error) {
	return s.posts.Unlike(ctx, postID, username)
}

func (s *Service) AddComment(ctx context.Context, postID, author, text string, media []models.Media) (*models.Post, error) {
	if _, err := s.requireUser(ctx, author); err != nil {
		return nil, err
	}
	post, err := s.posts.Update(ctx, postID, func(p *models.Post) (bool, error) {
		p.Comments = append(p.Comments, models.Comment{
			ID:        s.newID(),
			Author:    author,
			Content:   text,
			Media:     media,
			Timestamp: s.now().UnixMilli(),
		})
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if post.Author != author {
		s.notify(ctx, post.Author, models.NotificationComment, author,
			fmt.Sprintf("%s commented on your post", author), post.ID)
	}
	return post, nil
}

// DeletePost removes the post, then unlinks it from the author. The unlink
// is best effort: a missing or unwritable author does not undo the delete.
func (s *Service) DeletePost(ctx context.Context, postID, requester string) error {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.Author != requester {
		_, err := s.accounts.RequireAdmin(ctx, requester)
		if models.IsKind(err, models.KindForbidden) {
			return models.ErrForbidden("only the author or an admin may delete this post")
		}
		if err != nil {
			return err
		}
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}

	unlock := s.locker.Lock(models.WithUser(post.Author))
	defer unlock()
	author, found, err := s.accounts.Lookup(ctx, post.Author)
	if err != nil || !found {
		if err != nil {
			s.logger.Warn("could not unlink deleted post", "post", postID, "author", post.Author, "error", err)
		}
		return nil
	}
	author.Posts = slices.DeleteFunc(author.Posts, func(id string) bool { return id == postID })
	if err := s.accounts.Save(ctx, author); err != nil {
		s.logger.Warn("could not unlink deleted post", "post", postID, "author", post.Author, "error", err)
	}
	return nil
}
