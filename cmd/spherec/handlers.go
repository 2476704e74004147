package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/InsulaLabs/sphere/client"
	"github.com/InsulaLabs/sphere/db/models"
	"github.com/fatih/color"
)

func handleRegister(ctx context.Context, c *client.Client, args []string) (any, error) {
	resp, err := c.Register(ctx, models.RegisterRequest{Username: args[0], Password: args[1], Email: args[2]})
	if err != nil {
		return nil, err
	}
	color.HiCyan("export %s=%s", envSessionToken, resp.SessionToken)
	return resp.User, nil
}

func handleLogin(ctx context.Context, c *client.Client, args []string) (any, error) {
	resp, err := c.Login(ctx, args[0], args[1])
	if err != nil {
		return nil, err
	}
	color.HiCyan("export %s=%s", envSessionToken, resp.SessionToken)
	return resp.User, nil
}

func handleVerify(ctx context.Context, c *client.Client, args []string) (any, error) {
	user, ok, err := c.VerifySession(ctx, c.SessionToken(), args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("session is not valid for %s", args[0])
	}
	return user, nil
}

func handleLogout(ctx context.Context, c *client.Client, _ []string) (any, error) {
	return nil, c.Logout(ctx)
}

func handleUser(ctx context.Context, c *client.Client, args []string) (any, error) {
	return c.GetUser(ctx, args[0])
}

func handleFollow(ctx context.Context, c *client.Client, args []string) (any, error) {
	return nil, c.Follow(ctx, args[0], args[1])
}

func handleUnfollow(ctx context.Context, c *client.Client, args []string) (any, error) {
	return nil, c.Unfollow(ctx, args[0], args[1])
}

func handlePost(ctx context.Context, c *client.Client, args []string) (any, error) {
	return c.CreatePost(ctx, args[0], strings.Join(args[1:], " "), nil)
}

func handleFeed(ctx context.Context, c *client.Client, _ []string) (any, error) {
	return c.GetPosts(ctx)
}

func handleUserPosts(ctx context.Context, c *client.Client, args []string) (any, error) {
	return c.GetUserPosts(ctx, args[0])
}

func handleLike(ctx context.Context, c *client.Client, args []string) (any, error) {
	return c.LikePost(ctx, args[0], args[1])
}

func handleUnlike(ctx context.Context, c *client.Client, args []string) (any, error) {
	return c.UnlikePost(ctx, args[0], args[1])
}

func handleComment(ctx context.Context, c *client.Client, args []string) (any, error) {
	return c.AddComment(ctx, args[0], args[1], strings.Join(args[2:], " "), nil)
}

func handleDeletePost(ctx context.Context, c *client.Client, args []string) (any, error) {
	return nil, c.DeletePost(ctx, args[0], args[1])
}

func handleNotifications(ctx context.Context, c *client.Client, args []string) (any, error) {
	return c.GetNotifications(ctx, args[0])
}

func handleSearch(ctx context.Context, c *client.Client, args []string) (any, error) {
	return c.Search(ctx, strings.Join(args, " "))
}

func handleUpload(ctx context.Context, c *client.Client, args []string) (any, error) {
	f, mimeType, err := readUpload(args[1])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	kind := ""
	if len(args) > 2 {
		kind = args[2]
	}
	url, err := c.Upload(ctx, args[0], kind, f.Name(), mimeType, f)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("%s (%d bytes)", url[:min(len(url), 48)]+"...", len(url)), nil
}

func handleStats(ctx context.Context, c *client.Client, args []string) (any, error) {
	return c.AdminStats(ctx, args[0])
}

func handleBroadcast(ctx context.Context, c *client.Client, args []string) (any, error) {
	n, err := c.AdminBroadcast(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("delivered to %d users", n), nil
}

func handleHealth(ctx context.Context, c *client.Client, _ []string) (any, error) {
	uptime, err := c.Health(ctx)
	if err != nil {
		return nil, err
	}
	return "up " + uptime, nil
}
