package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"plainmail/internal/app"
	"plainmail/internal/config"
)

func main() {
	if os.Getenv("PLAINMAIL_DEBUG") != "" {
		f, err := tea.LogToFile("plainmail-debug.log", "debug")
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	configPath := config.DefaultConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(app.New(cfg, configPath), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
