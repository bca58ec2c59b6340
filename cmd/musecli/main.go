// Package main provides the muse command line client.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/muse/internal/api/connect"
	"github.com/osa030/muse/internal/domain/action"
)

var (
	app    = kingpin.New("musecli", "muse music command client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Host token (or set MUSE_HOST_TOKEN env)").Envar("MUSE_HOST_TOKEN").String()

	// open command
	openCmd        = app.Command("open", "Open a session")
	openName       = openCmd.Arg("display-name", "Display name").Required().String()
	openExternalID = openCmd.Flag("external-id", "External user ID").String()

	// close command
	closeCmd     = app.Command("close", "Close a session")
	closeSession = closeCmd.Arg("session-id", "Session ID").Required().String()

	// list command
	listCmd = app.Command("list", "List open sessions")

	// do command
	doCmd     = app.Command("do", "Dispatch an action").Alias("dispatch")
	doSession = doCmd.Arg("session-id", "Session ID").Required().String()
	doVerb    = doCmd.Arg("verb", "Action verb (see muse-server list-verbs)").Required().String()
	doArgs    = doCmd.Flag("arg", "Action argument as key=value").Short('a').StringMap()

	// subscribe command
	subscribeCmd     = app.Command("subscribe", "Stream notifications")
	subscribeSession = subscribeCmd.Arg("session-id", "Session ID (omit for all sessions)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *token == "" {
		fmt.Println("Error: host token is required (use --token or MUSE_HOST_TOKEN env)")
		os.Exit(1)
	}

	client := apiconnect.NewClient(http.DefaultClient, *server, *token)
	ctx := context.Background()

	switch command {
	case openCmd.FullCommand():
		openSession(ctx, client, *openName, *openExternalID)
	case closeCmd.FullCommand():
		if err := client.Close(ctx, *closeSession); err != nil {
			fail(err)
		}
		fmt.Println("Session closed.")
	case listCmd.FullCommand():
		listSessions(ctx, client)
	case doCmd.FullCommand():
		dispatch(ctx, client, *doSession, action.Request{Verb: *doVerb, Args: *doArgs})
	case subscribeCmd.FullCommand():
		subscribe(ctx, client, *subscribeSession)
	}
}

func fail(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}

func openSession(ctx context.Context, client *apiconnect.Client, name, externalID string) {
	id, err := client.Open(ctx, name, externalID)
	if err != nil {
		fail(err)
	}
	fmt.Println(id)
}

func listSessions(ctx context.Context, client *apiconnect.Client) {
	sessions, err := client.List(ctx)
	if err != nil {
		fail(err)
	}

	fmt.Printf("\n=== SESSIONS (%d) ===\n", len(sessions))
	for _, s := range sessions {
		fmt.Printf("\n%v (%v)\n", s["display_name"], s["session_id"])
		if ext, ok := s["external_user_id"].(string); ok && ext != "" {
			fmt.Printf("  External User ID: %s\n", ext)
		}
		fmt.Printf("  Opened At: %v\n", s["opened_at"])
		fmt.Printf("  Idle: %vs\n", s["idle_seconds"])
		fmt.Printf("  Actions: %v\n", s["total_actions"])
		if state, ok := s["state"].(string); ok && state != "" {
			fmt.Printf("  State: %s\n", state)
		}
		if flags, ok := s["flags"].([]any); ok && len(flags) > 0 {
			fmt.Printf("  Flags: %v\n", flags)
		}
		if c, ok := s["context"].(string); ok && c != "" {
			fmt.Printf("  Context: %s\n", c)
		}
	}
}

func dispatch(ctx context.Context, client *apiconnect.Client, sessionID string, req action.Request) {
	result, err := client.Dispatch(ctx, sessionID, req)
	if err != nil {
		fail(err)
	}
	for _, note := range result.Notes {
		fmt.Println(note)
	}
}

func subscribe(ctx context.Context, client *apiconnect.Client, sessionID string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		cancel()
	}()

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	err := client.Subscribe(ctx, sessionID, func(n map[string]any) error {
		printNotification(n)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		fmt.Printf("Stream error: %v\n", err)
	}
}

func printNotification(n map[string]any) {
	fmt.Printf("\n[Sequence: %v] ", n["sequence_no"])

	switch n["kind"] {
	case "note":
		fmt.Println("=== NOTE ===")
		fmt.Printf("  %v\n", n["note"])
	case "state":
		fmt.Println("=== STATE ===")
		fmt.Printf("  State: %v\n", n["state"])
		if c, ok := n["context"].(string); ok && c != "" {
			fmt.Printf("  Context: %s\n", c)
		}
		if flags, ok := n["flags"].([]any); ok {
			parts := make([]string, 0, len(flags))
			for _, f := range flags {
				parts = append(parts, fmt.Sprint(f))
			}
			sort.Strings(parts)
			fmt.Printf("  Flags: %s\n", strings.Join(parts, " "))
		}
	case "closed":
		fmt.Println("=== SESSION CLOSED ===")
	default:
		fmt.Printf("=== UNKNOWN EVENT (%v) ===\n", n["kind"])
	}
	fmt.Printf("  Session: %v\n", n["session_id"])
}
