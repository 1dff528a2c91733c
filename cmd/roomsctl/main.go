// Command roomsctl is a small terminal client for the room booking API. It
// logs in, lists rooms and bookings, submits reservations and logs out,
// keeping only a session marker on disk; the refresh token is printed once
// at login and supplied back through ROOMSCTL_REFRESH_TOKEN.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/client"
)

const usage = `Usage: roomsctl [flags] <command> [arguments]

Commands:
  login -email <email> -password <password>   sign in and print the refresh token
  rooms                                       list rooms
  bookings -room <id> [-from t] [-until t]    list bookings for a room
  book -room <id> -start t -end t -party n    create a booking (RFC 3339 times)
  cancel -id <booking id>                     cancel a booking
  policy                                      show the booking policy values
  logout                                      revoke the session

Flags:
  -server   API base URL (default http://localhost:8080, env ROOMSCTL_SERVER)
  -session  session marker file (default ~/.config/roomsctl/session.json)
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	flags := flag.NewFlagSet("roomsctl", flag.ExitOnError)
	server := flags.String("server", defaultServer(), "API base URL")
	sessionPath := flags.String("session", defaultSessionPath(), "session marker file")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		os.Exit(2)
	}

	store, err := client.NewFileSessionStore(*sessionPath)
	if err != nil {
		fatal(err)
	}

	api, err := client.New(*server, client.WithSessionStore(store), client.WithLogger(logger))
	if err != nil {
		fatal(err)
	}
	defer api.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, commandArgs := args[0], args[1:]
	if err := run(ctx, api, command, commandArgs); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, api *client.Client, command string, args []string) error {
	switch command {
	case "login":
		return runLogin(ctx, api, args)
	case "rooms":
		if err := restore(ctx, api); err != nil {
			return err
		}
		return runRooms(ctx, api)
	case "bookings":
		if err := restore(ctx, api); err != nil {
			return err
		}
		return runBookings(ctx, api, args)
	case "book":
		if err := restore(ctx, api); err != nil {
			return err
		}
		return runBook(ctx, api, args)
	case "cancel":
		if err := restore(ctx, api); err != nil {
			return err
		}
		return runCancel(ctx, api, args)
	case "policy":
		if err := restore(ctx, api); err != nil {
			return err
		}
		return runPolicy(ctx, api)
	case "logout":
		if err := restore(ctx, api); err != nil {
			return err
		}
		api.Logout(ctx)
		fmt.Println("logged out")
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// restore resumes the session persisted by a previous login. The refresh
// credential is never written to disk, so it travels through the
// environment.
func restore(ctx context.Context, api *client.Client) error {
	refreshToken := strings.TrimSpace(os.Getenv("ROOMSCTL_REFRESH_TOKEN"))
	if _, err := api.Restore(ctx, refreshToken); err != nil {
		if errors.Is(err, client.ErrNoSession) {
			return errors.New("not logged in: run `roomsctl login` and export ROOMSCTL_REFRESH_TOKEN")
		}
		return err
	}
	return nil
}

func runLogin(ctx context.Context, api *client.Client, args []string) error {
	flags := flag.NewFlagSet("login", flag.ExitOnError)
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")
	_ = flags.Parse(args)

	if *email == "" || *password == "" {
		return errors.New("login requires -email and -password")
	}

	user, err := api.Login(ctx, *email, *password)
	if err != nil {
		return err
	}

	token, _ := api.RefreshToken()
	fmt.Printf("logged in as %s (%s)\n", user.Email, user.Role)
	fmt.Printf("export ROOMSCTL_REFRESH_TOKEN=%s\n", token)
	return nil
}

func runRooms(ctx context.Context, api *client.Client) error {
	rooms, err := api.Rooms(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBUILDING\tCAMPUS\tCAPACITY\tSTATUS")
	for _, room := range rooms {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", room.ID, room.Name, room.Building, room.Campus, room.Capacity, room.Status)
	}
	return w.Flush()
}

func runBookings(ctx context.Context, api *client.Client, args []string) error {
	flags := flag.NewFlagSet("bookings", flag.ExitOnError)
	roomID := flags.String("room", "", "room id")
	fromRaw := flags.String("from", "", "window start (RFC 3339)")
	untilRaw := flags.String("until", "", "window end (RFC 3339)")
	_ = flags.Parse(args)

	if *roomID == "" {
		return errors.New("bookings requires -room")
	}

	var from, until *time.Time
	if *fromRaw != "" {
		parsed, err := time.Parse(time.RFC3339, *fromRaw)
		if err != nil {
			return fmt.Errorf("invalid -from: %w", err)
		}
		from = &parsed
	}
	if *untilRaw != "" {
		parsed, err := time.Parse(time.RFC3339, *untilRaw)
		if err != nil {
			return fmt.Errorf("invalid -until: %w", err)
		}
		until = &parsed
	}

	bookings, err := api.RoomBookings(ctx, *roomID, from, until)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTART\tEND\tPARTY\tSTATUS")
	for _, booking := range bookings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", booking.ID, booking.Start, booking.End, booking.PartySize, booking.Status)
	}
	return w.Flush()
}

func runBook(ctx context.Context, api *client.Client, args []string) error {
	flags := flag.NewFlagSet("book", flag.ExitOnError)
	roomID := flags.String("room", "", "room id")
	startRaw := flags.String("start", "", "start time (RFC 3339)")
	endRaw := flags.String("end", "", "end time (RFC 3339)")
	party := flags.Int("party", 1, "party size")
	_ = flags.Parse(args)

	if *roomID == "" || *startRaw == "" || *endRaw == "" {
		return errors.New("book requires -room, -start and -end")
	}
	start, err := time.Parse(time.RFC3339, *startRaw)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, *endRaw)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}

	booking, err := api.CreateBooking(ctx, client.BookingRequest{
		RoomID:    *roomID,
		Start:     start,
		End:       end,
		PartySize: *party,
	})
	if err != nil {
		return err
	}

	fmt.Printf("booked %s: %s to %s (%s)\n", booking.ID, booking.Start, booking.End, booking.Status)
	return nil
}

func runCancel(ctx context.Context, api *client.Client, args []string) error {
	flags := flag.NewFlagSet("cancel", flag.ExitOnError)
	bookingID := flags.String("id", "", "booking id")
	_ = flags.Parse(args)

	if *bookingID == "" {
		return errors.New("cancel requires -id")
	}

	booking, err := api.CancelBooking(ctx, *bookingID)
	if err != nil {
		return err
	}
	fmt.Printf("cancelled %s\n", booking.ID)
	return nil
}

func runPolicy(ctx context.Context, api *client.Client) error {
	values, err := api.PolicyConfig(ctx)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%s\n", key, values[key])
	}
	return w.Flush()
}

// reportError renders server rejections with their violation details.
func reportError(err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(os.Stderr, "error: %s\n", apiErr.Message)
		for field, msg := range apiErr.FieldErrors {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
		}
		for _, violation := range apiErr.Violations {
			fmt.Fprintf(os.Stderr, "  violation: %s\n", violation)
		}
		if len(apiErr.ConflictIDs) > 0 {
			fmt.Fprintf(os.Stderr, "  conflicts with: %s\n", strings.Join(apiErr.ConflictIDs, ", "))
		}
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func defaultServer() string {
	if server := strings.TrimSpace(os.Getenv("ROOMSCTL_SERVER")); server != "" {
		return server
	}
	return "http://localhost:8080"
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "roomsctl-session.json"
	}
	return filepath.Join(home, ".config", "roomsctl", "session.json")
}
