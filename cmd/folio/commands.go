package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/shagowda/folio/internal/api"
	"github.com/shagowda/folio/internal/chat"
	"github.com/shagowda/folio/internal/config"
	"github.com/shagowda/folio/internal/contact"
	"github.com/shagowda/folio/internal/resume"
	"github.com/shagowda/folio/internal/storage"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask the assistant a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		r, err := loadResponder(cfg)
		if err != nil {
			return err
		}

		c, reply := r.Reply(strings.Join(args, " "))
		if showCategory, _ := cmd.Flags().GetBool("category"); showCategory {
			fmt.Println(colorize(colorCyan, "["+string(c)+"]"))
		}
		fmt.Println(renderReply(reply))
		return nil
	},
}

func init() {
	askCmd.Flags().Bool("category", false, "print the matched category before the reply")
}

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session in the terminal.

Before the first message the quick replies are listed; type their number
to send one. Type /quit or press Ctrl-D to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		r, err := loadResponder(cfg)
		if err != nil {
			return err
		}
		minDelay, maxDelay, _ := cfg.ChatDelays()

		opts := chat.Options{MinDelay: minDelay, MaxDelay: maxDelay, Source: "cli"}
		if cfg.Chat.Record {
			store, err := storage.Open(cfg.Storage.DataDir)
			if err != nil {
				return fmt.Errorf("opening storage: %w", err)
			}
			defer store.Close()
			opts.Recorder = store
		}

		sink := newTerminalSink(os.Stdout, !noColor)
		sink.quickReplies = r.Knowledge().QuickReplies
		session := chat.NewSession(r, sink, opts)
		defer session.Close()

		return runChat(cmd.Context(), session, sink, os.Stdin, os.Stdout)
	},
}

// runChat reads lines from in until EOF, /quit or ctx is done, waiting
// for each reply before prompting again.
func runChat(ctx context.Context, session *chat.Session, sink *terminalSink, in io.Reader, out io.Writer) error {
	quick := session.QuickReplies()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines, readErr := scanLines(ctx, in)
	started := false

	for {
		fmt.Fprint(out, colorize(colorBold, "you> "))
		var line string
		select {
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return <-readErr
			}
			line = strings.TrimSpace(l)
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		var sent bool
		if n, err := strconv.Atoi(line); err == nil && !started && n >= 1 && n <= len(quick) {
			sent = session.SendQuickReply(quick[n-1])
		} else {
			sent = session.Send(line)
		}
		if !sent {
			continue
		}
		started = true

		select {
		case <-sink.replies:
		case <-ctx.Done():
			return nil
		}
	}
}

// scanLines reads in on its own goroutine so a blocked read never keeps
// the chat loop from seeing ctx cancellation. lines is closed at EOF, after
// which readErr yields the scanner error (nil on clean EOF). A goroutine
// stuck in Read outlives ctx until in is closed or the process exits.
func scanLines(ctx context.Context, in io.Reader) (lines <-chan string, readErr <-chan error) {
	lc := make(chan string)
	ec := make(chan error, 1)
	go func() {
		defer close(lc)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lc <- scanner.Text():
			case <-ctx.Done():
				ec <- nil
				return
			}
		}
		ec <- scanner.Err()
	}()
	return lc, ec
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant over MCP (stdio transport)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		// stdout carries the protocol; logs go to stderr.
		setupLogging(cfg.Log.Level)

		r, err := loadResponder(cfg)
		if err != nil {
			return err
		}

		deps := api.MCPDeps{Responder: r, Version: version}
		if cfg.Chat.Record {
			store, err := storage.Open(cfg.Storage.DataDir)
			if err != nil {
				return fmt.Errorf("opening storage: %w", err)
			}
			defer store.Close()
			deps.Recorder = store
		}

		stdioSrv := server.NewStdioServer(api.NewMCPServer(deps))
		slog.Info("MCP server started (stdio transport)")
		if err := stdioSrv.Listen(cmd.Context(), os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP stdio server: %w", err)
		}
		return nil
	},
}

// --- contact ---

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Contact form operations",
}

var contactSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit the contact form to the running server",
	Long: `Submit the contact form to the running server.

Example:
  folio contact send --name "Jane Doe" --email jane@example.com \
    --subject job --message "We would like to talk about a role."`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var form contact.Form
		form.Name, _ = cmd.Flags().GetString("name")
		form.Email, _ = cmd.Flags().GetString("email")
		form.Subject, _ = cmd.Flags().GetString("subject")
		form.Message, _ = cmd.Flags().GetString("message")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		res, err := sendContact(cmd.Context(), client, form)
		if err != nil {
			return err
		}
		if res.Outcome == contact.OutcomeSent {
			printSuccess("%s", res.Message)
			return nil
		}
		printError("%s", res.Message)
		for _, f := range res.Fields {
			printStatus(f.Field, "%s", f.Message)
		}
		return fmt.Errorf("submission %s", res.Outcome)
	},
}

func init() {
	contactSendCmd.Flags().String("name", "", "your name")
	contactSendCmd.Flags().String("email", "", "your email address")
	contactSendCmd.Flags().String("subject", "", "subject (job, freelance, collaboration, question, other)")
	contactSendCmd.Flags().String("message", "", "message text")
	contactCmd.AddCommand(contactSendCmd)
}

// sendContact posts form and returns the server's verdict. Validation and
// relay failures come back as a Result; only transport problems and
// unexpected responses are errors.
func sendContact(ctx context.Context, client *apiClient, form contact.Form) (contact.Result, error) {
	resp, err := client.post(ctx, "/api/contact", form)
	if err != nil {
		return contact.Result{}, err
	}
	defer resp.Body.Close()

	var body struct {
		contact.Result
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return contact.Result{}, fmt.Errorf("server returned %d: %w", resp.StatusCode, err)
	}
	if body.Error != nil {
		return contact.Result{}, fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error.Message)
	}
	return body.Result, nil
}

// --- submissions ---

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "Review stored contact submissions",
}

var submissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent contact submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.requireToken(); err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/api/submissions?limit=%d&offset=%d", limit, offset))
		if err != nil {
			return err
		}
		var subs []storage.Submission
		if err := decodeJSON(resp, &subs); err != nil {
			return err
		}

		if len(subs) == 0 {
			fmt.Println("No submissions found.")
			return nil
		}
		for _, s := range subs {
			fmt.Println(formatSubmission(s))
		}
		return nil
	},
}

func formatSubmission(s storage.Submission) string {
	status := colorize(colorGreen, s.Status)
	if s.Status == storage.StatusFailed {
		status = colorize(colorRed, s.Status)
	}
	id := s.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s  %s  %-9s  %s <%s>  %s",
		colorize(colorCyan, id),
		s.CreatedAt.Local().Format("2006-01-02 15:04"),
		status,
		s.Name, s.Email, s.Subject,
	)
}

var submissionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.requireToken(); err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/submissions/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		var sub storage.Submission
		if err := decodeJSON(resp, &sub); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sub)
	},
}

var submissionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a submission",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.requireToken(); err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/api/submissions/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted submission %s", args[0])
		return nil
	},
}

func init() {
	submissionsListCmd.Flags().Int("limit", 20, "maximum number of submissions to list")
	submissionsListCmd.Flags().Int("offset", 0, "number of submissions to skip")
	submissionsCmd.AddCommand(submissionsListCmd)
	submissionsCmd.AddCommand(submissionsShowCmd)
	submissionsCmd.AddCommand(submissionsDeleteCmd)
}

// --- interactions ---

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Manage recorded chat interactions",
}

var interactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent chat interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.requireToken(); err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/api/interactions?limit=%d", limit))
		if err != nil {
			return err
		}
		var interactions []storage.Interaction
		if err := decodeJSON(resp, &interactions); err != nil {
			return err
		}

		if len(interactions) == 0 {
			fmt.Println("No interactions found.")
			return nil
		}
		for _, ix := range interactions {
			msg := ix.Message
			if len(msg) > 80 {
				msg = msg[:80] + "..."
			}
			fmt.Printf("%s  %-10s  %-4s  %s\n",
				ix.CreatedAt.Local().Format("2006-01-02 15:04"),
				colorize(colorCyan, ix.Category),
				ix.Source,
				msg,
			)
		}
		return nil
	},
}

var interactionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete interactions older than a given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		cutoff := time.Now().Add(-olderThan)
		printStep("Pruning interactions before %s...", cutoff.Format(time.RFC3339))
		n, err := store.PruneInteractions(cutoff)
		if err != nil {
			return fmt.Errorf("pruning interactions: %w", err)
		}
		printSuccess("Removed %d interactions", n)
		return nil
	},
}

func init() {
	interactionsListCmd.Flags().Int("limit", 20, "maximum number of interactions to list")
	interactionsPruneCmd.Flags().Duration("older-than", 90*24*time.Hour, "age of the oldest interaction to keep")
	interactionsCmd.AddCommand(interactionsListCmd)
	interactionsCmd.AddCommand(interactionsPruneCmd)
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show chat category and submission counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.requireToken(); err != nil {
			return err
		}

		stats, err := fetchStats(cmd.Context(), client)
		if err != nil {
			return err
		}

		fmt.Println(colorize(colorBold, "Chat categories"))
		if len(stats.Categories) == 0 {
			fmt.Println("  (none)")
		}
		for _, c := range stats.Categories {
			fmt.Printf("  %-12s %d\n", c.Category, c.Count)
		}
		fmt.Println(colorize(colorBold, "Contact submissions"))
		fmt.Printf("  %-12s %d\n", storage.StatusDelivered, stats.Submissions[storage.StatusDelivered])
		fmt.Printf("  %-12s %d\n", storage.StatusFailed, stats.Submissions[storage.StatusFailed])
		return nil
	},
}

// --- resume ---

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Print the text of the configured résumé PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		doc, err := resume.Load(cfg.Resume.Path)
		if errors.Is(err, resume.ErrNotConfigured) {
			return fmt.Errorf("%w (folio config set resume.path <file.pdf>)", err)
		}
		if err != nil {
			return err
		}

		if info, _ := cmd.Flags().GetBool("info"); info {
			printStatus("Path", "%s", doc.Path)
			printStatus("Pages", "%d", doc.Pages)
			printStatus("Size", "%d bytes", len(doc.Data))
			printStatus("Modified", "%s", doc.ModTime.Format(time.RFC3339))
			return nil
		}
		fmt.Println(doc.Text)
		return nil
	},
}

func init() {
	resumeCmd.Flags().Bool("info", false, "show file details instead of the text")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		fmt.Printf("  %s\n", colorize(colorCyan, config.Location()))
		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		if config.IsSecret(key) {
			printSuccess("Stored %s in the secret store", key)
			return nil
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
