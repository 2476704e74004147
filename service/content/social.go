package content

import (
	"context"
	"fmt"

	"github.com/InsulaLabs/sphere/db/models"
)

func (s *Service) GetUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.requireUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (s *Service) UpdateOnline(ctx context.Context, username string, online bool) error {
	_, err := s.updateUser(ctx, username, func(u *models.User) {
		u.IsOnline = online
	})
	return err
}

// UpdateProfile only touches the fields ProfileUpdates carries; identity and
// privilege fields cannot be reached through it.
func (s *Service) UpdateProfile(ctx context.Context, username string, updates models.ProfileUpdates) (*models.User, error) {
	user, err := s.updateUser(ctx, username, updates.Apply)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (s *Service) updateUser(ctx context.Context, username string, fn func(*models.User)) (*models.User, error) {
	unlock := s.locker.Lock(models.WithUser(username))
	defer unlock()

	user, err := s.requireUser(ctx, username)
	if err != nil {
		return nil, err
	}
	fn(user)
	if err := s.accounts.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) loadPair(ctx context.Context, follower, target string) (*models.User, *models.User, error) {
	a, err := s.requireUser(ctx, follower)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.requireUser(ctx, target)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// Follow makes follower follow target. Both records are written in one
// batch; repeating the call changes nothing and sends no notification.
func (s *Service) Follow(ctx context.Context, follower, target string) error {
	if follower == target {
		return models.ErrInvalidInput("users cannot follow themselves")
	}

	unlock := s.locker.Lock(models.WithUser(follower), models.WithUser(target))
	a, b, err := s.loadPair(ctx, follower, target)
	if err != nil {
		unlock()
		return err
	}
	followed := addMember(&a.Following, target)
	repaired := addMember(&b.Followers, follower)
	if followed || repaired {
		err = s.accounts.SaveBoth(ctx, a, b)
	}
	unlock()
	if err != nil {
		return err
	}

	if followed {
		s.notify(ctx, target, models.NotificationFollow, follower,
			fmt.Sprintf("%s started following you", follower), "")
	}
	return nil
}

func (s *Service) Unfollow(ctx context.Context, follower, target string) error {
	unlock := s.locker.Lock(models.WithUser(follower), models.WithUser(target))
	defer unlock()

	a, b, err := s.loadPair(ctx, follower, target)
	if err != nil {
		return err
	}
	changed := removeMember(&a.Following, target)
	if removeMember(&b.Followers, follower) {
		changed = true
	}
	if !changed {
		return nil
	}
	return s.accounts.SaveBoth(ctx, a, b)
}
