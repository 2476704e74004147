package search

import (
	"context"
	"testing"

	"github.com/InsulaLabs/sphere/db/doc"
	"github.com/InsulaLabs/sphere/db/models"
	"github.com/InsulaLabs/sphere/db/tkv/tkvtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	ctx := context.Background()
	store := tkvtest.New(t)

	require.NoError(t, doc.PutAll(ctx, store, map[string]any{
		models.WithUser("alice"): &models.User{Username: "alice", PasswordHash: "secret"},
		models.WithUser("bob"):   &models.User{Username: "bob", FirstName: "Alistair"},
		models.WithUser("carol"): &models.User{Username: "carol", LastName: "Smith"},
		models.WithPost("p1"):    &models.Post{ID: "p1", Content: "Calibration day"},
		models.WithPost("p2"):    &models.Post{ID: "p2", Content: "nothing here"},
	}))

	s := New(store)

	tests := []struct {
		name      string
		query     string
		wantUsers []string
		wantPosts []string
	}{
		{"username and first name", "ali", []string{"alice", "bob"}, []string{"p1"}},
		{"case insensitive", "SMITH", []string{"carol"}, []string{}},
		{"post only", "nothing", []string{}, []string{"p2"}},
		{"no match", "zzz", []string{}, []string{}},
		{"whitespace is part of the query", "ali ", []string{}, []string{}},
		{"empty query matches all", "", []string{"alice", "bob", "carol"}, []string{"p1", "p2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Search(ctx, tt.query)
			require.NoError(t, err)

			users := []string{}
			for _, u := range res.Users {
				users = append(users, u.Username)
				assert.Empty(t, u.PasswordHash)
			}
			posts := []string{}
			for _, p := range res.Posts {
				posts = append(posts, p.ID)
			}
			assert.ElementsMatch(t, tt.wantUsers, users)
			assert.ElementsMatch(t, tt.wantPosts, posts)
		})
	}
}
