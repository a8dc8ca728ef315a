package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sadopc/tomatoclock/internal/config"
	"github.com/sadopc/tomatoclock/internal/export"
	"github.com/sadopc/tomatoclock/internal/logging"
	"github.com/sadopc/tomatoclock/internal/store"
	"github.com/sadopc/tomatoclock/internal/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("tomatoclock", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config.yaml")
	dbPath := fs.String("db", "", "path to the focus session database")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	importPath := fs.String("import", "", "import sessions from a JSON export and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := store.New(cfg.DBPath, store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	if err := s.Initialize(); err != nil {
		if errors.Is(err, store.ErrSchemaTooNew) {
			return fmt.Errorf("%s was written by a newer version of tomatoclock: %w", s.Path(), err)
		}
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	if *importPath != "" {
		return importSessions(s, *importPath, logger)
	}

	p := tea.NewProgram(tui.NewApp(s, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("terminal ui", zap.Error(err))
		return err
	}
	return nil
}

// importSessions validates the whole file before writing anything.
func importSessions(s *store.Store, path string, logger *zap.Logger) error {
	sessions, err := export.FromJSON(path)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	for _, fs := range sessions {
		if err := s.SaveFocusSession(fs); err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
	}
	logger.Info("imported sessions", zap.String("path", path), zap.Int("count", len(sessions)))
	fmt.Printf("imported %d sessions into %s\n", len(sessions), s.Path())
	return nil
}
