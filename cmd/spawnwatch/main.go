package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spawnwatch/spawnwatch/pkg/client"
)

var (
	Version   = "v1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const usage = `Usage: spawnwatch <command> [args]

Commands:
  board                 show the ranked event board
  follow <event-id>     subscribe to lead-time alerts
  unfollow <event-id>   drop the subscription
  pin <event-id>        pin an event to the top of the board
  unpin <event-id>      unpin an event
  notify on|off         toggle alerts globally
  export <file>         write the catalog snapshot to a file
  import <file>         replace the catalog from a snapshot (needs SPAWNWATCH_ADMIN_SECRET)

The daemon address defaults to http://127.0.0.1:8190; override with SPAWNWATCH_URL.`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	api := client.NewClient(os.Getenv("SPAWNWATCH_URL"))
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "board":
		err = showBoard(ctx, api)
	case "follow":
		err = withEventID(func(id string) error { return api.Follow(ctx, id) }, "Following %s\n")
	case "unfollow":
		err = withEventID(func(id string) error { return api.Unfollow(ctx, id) }, "Unfollowed %s\n")
	case "pin":
		err = withEventID(func(id string) error { return api.Pin(ctx, id) }, "Pinned %s\n")
	case "unpin":
		err = withEventID(func(id string) error { return api.Unpin(ctx, id) }, "Unpinned %s\n")
	case "notify":
		err = setNotifications(ctx, api)
	case "export":
		err = exportSnapshot(ctx, api)
	case "import":
		err = importSnapshot(ctx, api)
	case "version":
		fmt.Printf("spawnwatch %s (%s, built %s)\n", Version, Commit, BuildTime)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Is spawnwatch-d running?")
		os.Exit(1)
	}
}

func withEventID(fn func(id string) error, okFormat string) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("missing event id")
	}
	id := os.Args[2]
	if err := fn(id); err != nil {
		return err
	}
	fmt.Printf(okFormat, id)
	return nil
}

func showBoard(ctx context.Context, api *client.Client) error {
	board, err := api.Board(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Catalog v%d • %d events\n\n", board.Version, len(board.Entries))
	for _, e := range board.Entries {
		countdown := e.Countdown
		if e.Active {
			countdown = "ACTIVE"
		} else if countdown == "" {
			countdown = "--"
		}

		marks := ""
		if e.Pinned {
			marks += " [pinned]"
		}
		if e.Upcoming {
			marks += " [next up]"
		}
		if e.Followed {
			marks += " [following]"
		}
		fmt.Printf("%-12s %-28s %s%s\n", countdown, e.Event.Name, e.Event.Location, marks)
	}
	return nil
}

func setNotifications(ctx context.Context, api *client.Client) error {
	if len(os.Args) < 3 || (os.Args[2] != "on" && os.Args[2] != "off") {
		return fmt.Errorf("notify requires on or off")
	}
	enabled := os.Args[2] == "on"
	if err := api.SetNotifications(ctx, enabled); err != nil {
		return err
	}
	fmt.Printf("Notifications %s\n", os.Args[2])
	return nil
}

func exportSnapshot(ctx context.Context, api *client.Client) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("missing output file")
	}
	raw, err := api.Export(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(os.Args[2], raw, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	fmt.Printf("Exported catalog to %s\n", os.Args[2])
	return nil
}

func importSnapshot(ctx context.Context, api *client.Client) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("missing snapshot file")
	}
	secret := os.Getenv("SPAWNWATCH_ADMIN_SECRET")
	if secret == "" {
		return fmt.Errorf("SPAWNWATCH_ADMIN_SECRET is required for import")
	}

	raw, err := os.ReadFile(os.Args[2])
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if _, err := api.Login(ctx, secret); err != nil {
		return err
	}
	if err := api.Import(ctx, raw); err != nil {
		return err
	}
	fmt.Printf("Imported catalog from %s\n", os.Args[2])
	return nil
}
