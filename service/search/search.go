// Package search answers substring queries by scanning users and posts.
// There is no index; every query reads both keyspaces.
package search

import (
	"context"
	"strings"

	"github.com/InsulaLabs/sphere/db/doc"
	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv"
)

type Searcher struct {
	store tkv.TKVDataHandler
}

func New(store tkv.TKVDataHandler) *Searcher {
	return &Searcher{store: store}
}

// Search matches query case-insensitively against usernames, first and
// last names, and post bodies. An empty query matches everything.
func (s *Searcher) Search(ctx context.Context, query string) (*models.SearchResults, error) {
	q := strings.ToLower(query)

	users, err := doc.ScanAll[models.User](ctx, s.store, models.UserPrefix)
	if err != nil {
		return nil, err
	}
	posts, err := doc.ScanAll[models.Post](ctx, s.store, models.PostPrefix)
	if err != nil {
		return nil, err
	}

	res := &models.SearchResults{
		Users: []*models.User{},
		Posts: []*models.Post{},
	}
	for _, u := range users {
		if contains(u.Username, q) || contains(u.FirstName, q) || contains(u.LastName, q) {
			res.Users = append(res.Users, u.Sanitized())
		}
	}
	for _, p := range posts {
		if contains(p.Content, q) {
			res.Posts = append(res.Posts, p)
		}
	}
	return res, nil
}

func contains(field, lowered string) bool {
	return strings.Contains(strings.ToLower(field), lowered)
}
