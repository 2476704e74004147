package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/InsulaLabs/sphere/client"
	"github.com/fatih/color"
)

const envSessionToken = "SPHERE_SESSION_TOKEN"

var (
	logger     *slog.Logger
	baseURL    string
	skipVerify bool
	timeout    time.Duration
)

func init() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	flag.StringVar(&baseURL, "url", "http://127.0.0.1:8080", "Base URL of the sphere server")
	flag.BoolVar(&skipVerify, "skip-verify", false, "Skip TLS certificate verification")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
}

type handler func(ctx context.Context, c *client.Client, args []string) (any, error)

type command struct {
	usage string
	nargs int // minimum number of arguments
	run   handler
}

var commands = map[string]command{
	"register":      {"register <username> <password> <email>", 3, handleRegister},
	"login":         {"login <username> <password>", 2, handleLogin},
	"verify":        {"verify <username>", 1, handleVerify},
	"logout":        {"logout", 0, handleLogout},
	"user":          {"user <username>", 1, handleUser},
	"follow":        {"follow <follower> <following>", 2, handleFollow},
	"unfollow":      {"unfollow <follower> <following>", 2, handleUnfollow},
	"post":          {"post <username> <content>", 2, handlePost},
	"feed":          {"feed", 0, handleFeed},
	"posts":         {"posts <username>", 1, handleUserPosts},
	"like":          {"like <postId> <username>", 2, handleLike},
	"unlike":        {"unlike <postId> <username>", 2, handleUnlike},
	"comment":       {"comment <postId> <username> <content>", 3, handleComment},
	"delete-post":   {"delete-post <postId> <username>", 2, handleDeletePost},
	"notifications": {"notifications <username>", 1, handleNotifications},
	"search":        {"search <query>", 1, handleSearch},
	"upload":        {"upload <username> <file> [avatar|banner]", 2, handleUpload},
	"stats":         {"stats <adminUsername>", 1, handleStats},
	"broadcast":     {"broadcast <adminUsername> <message>", 2, handleBroadcast},
	"health":        {"health", 0, handleHealth},
}

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		logger.Error("Unknown command", "command", args[0])
		printUsage()
		os.Exit(1)
	}
	cmdArgs := args[1:]
	if len(cmdArgs) < cmd.nargs {
		color.HiRed("usage: spherec %s", cmd.usage)
		os.Exit(1)
	}

	c, err := client.NewClient(&client.Config{
		BaseURL:    baseURL,
		SkipVerify: skipVerify,
		Timeout:    timeout,
		Logger:     logger.WithGroup("client"),
	})
	if err != nil {
		logger.Error("Failed to create client", "error", err)
		os.Exit(1)
	}
	c.SetSessionToken(os.Getenv(envSessionToken))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := cmd.run(ctx, c, cmdArgs)
	if err != nil {
		color.HiRed("Error: %v", err)
		os.Exit(1)
	}
	printResult(out)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: spherec [flags] <command> [args...]\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nMutating commands read the session token from %s.\n", envSessionToken)
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	for _, name := range []string{
		"register", "login", "verify", "logout", "user", "follow", "unfollow",
		"post", "feed", "posts", "like", "unlike", "comment", "delete-post",
		"notifications", "search", "upload", "stats", "broadcast", "health",
	} {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
}

func printResult(v any) {
	if v == nil {
		color.HiGreen("OK")
		return
	}
	if s, ok := v.(string); ok {
		fmt.Println(s)
		return
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", v)
		return
	}
	fmt.Println(string(raw))
}

func readUpload(path string) (*os.File, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, mime.TypeByExtension(filepath.Ext(path)), nil
}
