package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/jwebster45206/story-turns/internal/config"
	"github.com/jwebster45206/story-turns/pkg/narrative"
	"github.com/jwebster45206/story-turns/pkg/story"
)

type ConsoleConfig struct {
	StoryPath    string
	Knot         string
	LogPath      string
	MaxContinues int
}

func main() {
	_ = godotenv.Load()
	env := config.Load()

	cfg := &ConsoleConfig{}
	flag.StringVar(&cfg.StoryPath, "story", getEnv("STORY_PATH", "data/stories/mystery_grove.json"), "story document to play")
	flag.StringVar(&cfg.Knot, "knot", "", "knot to start at (defaults to the story's start knot)")
	flag.StringVar(&cfg.LogPath, "log", "", "write debug logs to this file")
	flag.Parse()
	cfg.MaxContinues = env.MaxContinues

	log, closeLog, err := openLog(cfg.LogPath, env.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	data, err := os.ReadFile(cfg.StoryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read story: %v\n", err)
		os.Exit(1)
	}

	rt, err := story.New(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load story: %v\n", err)
		os.Exit(1)
	}
	if cfg.Knot == "" {
		cfg.Knot = rt.StartKnot()
	}

	ctrl := narrative.New(data, story.Factory,
		narrative.WithLogger(log),
		narrative.WithMaxContinues(cfg.MaxContinues))

	ui, err := NewConsoleUI(cfg, ctrl, rt.Title())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start story: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// openLog keeps logs off the terminal, which the UI owns.
func openLog(path string, level slog.Level) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return log, func() { _ = f.Close() }, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
