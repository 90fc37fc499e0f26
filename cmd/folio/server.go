package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/shagowda/folio/internal/api"
	"github.com/shagowda/folio/internal/config"
	"github.com/shagowda/folio/internal/contact"
	"github.com/shagowda/folio/internal/metrics"
	"github.com/shagowda/folio/internal/responder"
	"github.com/shagowda/folio/internal/resume"
	"github.com/shagowda/folio/internal/retention"
	"github.com/shagowda/folio/internal/storage"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the folio HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running folio server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show folio server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "folio.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func setupLogging(level string) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// loadResponder builds the responder from the configured knowledge file,
// or the built-in knowledge base when none is set.
func loadResponder(cfg config.Config) (*responder.Responder, error) {
	kb, err := responder.LoadKnowledge(cfg.Knowledge.Path)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}
	return responder.New(kb, nil), nil
}

func runServer(ctx context.Context) error {
	fmt.Fprintf(os.Stderr, "folio version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	// Refuse to start twice. The health endpoint is the source of truth,
	// the PID file only names the process.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(serverURL(cfg) + "/health"); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("folio is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("folio is already running on %s", cfg.Addr())
		return fmt.Errorf("server already running on %s", cfg.Addr())
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	r, err := loadResponder(cfg)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	m := metrics.New()

	timeout, _ := cfg.ContactTimeout()
	loc, _ := cfg.Location()
	if cfg.Contact.RelayURL == "" {
		slog.Warn("contact.relay_url not set, contact submissions will be rejected")
	}
	contactSvc := contact.NewService(contact.NewRelay(cfg.Contact.RelayURL, timeout), contact.Options{
		Store:      store,
		Observer:   m,
		Location:   loc,
		OwnerEmail: r.Knowledge().Owner.Email,
	})

	var doc *resume.Document
	if cfg.Resume.Path != "" {
		doc, err = resume.Load(cfg.Resume.Path)
		if err != nil {
			return fmt.Errorf("loading resume: %w", err)
		}
		slog.Info("resume loaded", "path", doc.Path, "pages", doc.Pages)
	}

	if cfg.Admin.Token == "" {
		slog.Info("admin token not set, admin routes disabled")
	}

	handler := api.NewHandler(api.Deps{
		Responder:            r,
		Contact:              contactSvc,
		Store:                store,
		Metrics:              m,
		Resume:               doc,
		Logger:               slog.Default(),
		AdminToken:           cfg.Admin.Token,
		RecordChats:          cfg.Chat.Record,
		ContactRatePerMinute: cfg.Contact.RatePerMinute,
	})

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Addr(), err)
	}
	if cfg.Server.MaxConns > 0 {
		ln = netutil.LimitListener(ln, cfg.Server.MaxConns)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	retain, _ := cfg.ChatRetention()
	worker := retention.NewWorker(store, retain, retention.DefaultInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "folio listening on %s\n", cfg.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("folio is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop folio (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to folio (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	client := &apiClient{
		baseURL:    serverURL(cfg),
		token:      cfg.Admin.Token,
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}

	running := false
	resp, err := client.get(ctx, "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on %s", cfg.Addr())
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if cfg.Contact.RelayURL != "" {
		printStatus("Contact relay", "%s", cfg.Contact.RelayURL)
	} else {
		printStatus("Contact relay", "not configured")
	}
	if cfg.Knowledge.Path != "" {
		printStatus("Knowledge", "%s", cfg.Knowledge.Path)
	} else {
		printStatus("Knowledge", "built-in")
	}
	if cfg.Resume.Path != "" {
		printStatus("Resume", "%s", cfg.Resume.Path)
	}

	if running && client.requireToken() == nil {
		if stats, err := fetchStats(ctx, client); err == nil {
			printStatus("Submissions", "%d delivered, %d failed",
				stats.Submissions[storage.StatusDelivered], stats.Submissions[storage.StatusFailed])
			total := 0
			for _, c := range stats.Categories {
				total += c.Count
			}
			printStatus("Interactions", "%d", total)
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func fetchStats(ctx context.Context, client *apiClient) (api.Stats, error) {
	var stats api.Stats
	resp, err := client.get(ctx, "/api/stats")
	if err != nil {
		return stats, err
	}
	err = decodeJSON(resp, &stats)
	return stats, err
}
