// ChatX CLI - Command line client for ChatX
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/xeot403/chatx/clients/go/chatx"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := chatx.NewClient(chatx.ResolveBaseURL(os.Getenv("CHATX_URL"), ""))
	sessions := chatx.NewSessionStore()
	ctx := context.Background()
	cmd := os.Args[1]

	switch cmd {
	case "register":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: chatx register <email> <password> [display name]")
			os.Exit(1)
		}
		displayName := ""
		if len(os.Args) > 4 {
			displayName = os.Args[4]
		}
		id, err := client.Register(ctx, os.Args[2], os.Args[3], displayName)
		exitOnError(err)
		exitOnError(sessions.Persist(id))
		fmt.Printf("Registered as: %s\n", id.Email)

	case "login":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: chatx login <email> <password>")
			os.Exit(1)
		}
		id, err := client.Login(ctx, os.Args[2], os.Args[3])
		exitOnError(err)
		exitOnError(sessions.Persist(id))
		fmt.Printf("Logged in as: %s\n", id.Email)

	case "logout":
		exitOnError(sessions.Clear())
		fmt.Println("Session cleared")

	case "whoami":
		id, ok := sessions.Restore()
		if !ok {
			fmt.Println("Not logged in")
			os.Exit(1)
		}
		fmt.Printf("%s <%s>\n", id.Name, id.Email)

	case "online":
		filter := ""
		if len(os.Args) > 2 {
			filter = os.Args[2]
		}
		entries := chatx.FilterPresence(client.FetchOnline(ctx), filter)
		if len(entries) == 0 {
			fmt.Println(chatx.NoMatchPlaceholder)
			return
		}
		for _, e := range entries {
			fmt.Println("  " + chatx.FormatEntry(e))
		}

	case "health":
		resp, err := client.Health(ctx)
		exitOnError(err)
		printJSON(resp)

	case "chat":
		id, ok := sessions.Restore()
		if !ok {
			fmt.Fprintln(os.Stderr, "Not logged in; run `chatx login` or `chatx register` first")
			os.Exit(1)
		}
		runChat(client, id)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

// termView renders presence and search state to the terminal and feeds
// composer prefills back into the prompt.
type termView struct {
	composer      *chatx.Composer
	searchFocused atomic.Bool
}

func (v *termView) ShowPresence(rows []string) {
	fmt.Println("-- online --")
	for _, row := range rows {
		fmt.Println("  " + row)
	}
}

func (v *termView) SetSearchQuery(query string) {
	fmt.Printf("-- search mirrored from another member: %q --\n", query)
}

func (v *termView) PrefillComposer(token string) {
	v.composer.SetDraft(token)
	fmt.Printf("-- composer prefilled: %s --\n", token)
}

func (v *termView) SearchFocused() bool {
	return v.searchFocused.Load()
}

func runChat(client *chatx.Client, id chatx.Identity) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)

	session := chatx.NewSession(client, id, logger)
	view := &termView{}
	composer := chatx.NewComposer(session)
	view.composer = composer
	directory := chatx.NewPresenceDirectory(client, view)
	coordinator := chatx.NewSearchCoordinator(session, directory, view)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	conn, err := session.Connect(ctx, func() {
		directory.Refresh(context.Background(), "")
	})
	cancel()
	exitOnError(err)
	defer conn.Close()

	go coordinator.Run()
	defer coordinator.Stop()

	transcript := &chatx.Transcript{}
	done := make(chan struct{})

	// Single consumer of the inbound dispatch queue.
	go func() {
		defer close(done)
		for ev := range conn.Events() {
			switch e := ev.(type) {
			case chatx.MessageEvent:
				transcript.Append(e.Entry)
				marker := " "
				if e.Entry.IsSelf {
					marker = "*"
				}
				fmt.Printf("[%s]%s %s: %s\n",
					e.Entry.Timestamp.Format("15:04:05"), marker, e.Entry.SenderName, e.Entry.Text)
			case chatx.SearchEvent:
				coordinator.HandleRemote(e)
			case chatx.DisconnectEvent:
				if e.Err != nil {
					fmt.Fprintln(os.Stderr, "connection lost:", e.Err)
				} else {
					fmt.Fprintln(os.Stderr, "connection closed")
				}
			}
		}
	}()

	fmt.Printf("Connected as %s. /search <query> filters members, /quit exits.\n", id.Email)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "/quit":
			conn.Close()
			<-done
			return
		case strings.HasPrefix(line, "/search"):
			query := strings.TrimSpace(strings.TrimPrefix(line, "/search"))
			view.searchFocused.Store(true)
			coordinator.InputChanged(query)
		default:
			view.searchFocused.Store(false)
			if err := composer.Submit(line); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
		}
	}

	conn.Close()
	<-done
}

func usage() {
	fmt.Println(`ChatX CLI - realtime chat client

Usage: chatx <command> [options]

Commands:
  register <email> <password> [name]   Create an account and start a session
  login <email> <password>             Authenticate and start a session
  logout                               Clear the stored session
  whoami                               Show the stored session identity
  chat                                 Join the room interactively
  online [filter]                      List online members
  health                               Check server health

Environment:
  CHATX_URL      Server URL (default: http://localhost:8080)
  CHATX_CONFIG   Config directory (default: ~/.chatx)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
