package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const closeWait = time.Second

func newRoomCmd() *cobra.Command {
	var (
		gameType   string
		join       string
		user       string
		rating     int
		resume     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "room",
		Short: "Connect to the realtime endpoint and stream room events",
		Long: `Open a websocket to the server and print every event it sends.

With --game-type the command asks to be paired into a room of that type.
With --join it joins a known room id instead. Without either it only
listens, which is useful together with --resume.

Events include:
  - welcome: identity assigned to this connection
  - room-created: waiting in (or paired into) a room
  - play: opponent found
  - room-joined: roster after an explicit join
  - room-error: join failed
  - oppMove: opponent moved
  - oppResign: opponent resigned

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameType != "" && join != "" {
				return fmt.Errorf("--game-type and --join are mutually exclusive")
			}

			var first *outgoing
			switch {
			case gameType != "":
				first = &outgoing{Event: "create-room", Data: map[string]any{
					"user":     user,
					"rating":   rating,
					"gameType": gameType,
				}}
			case join != "":
				first = &outgoing{Event: "join-room", Data: map[string]any{"roomId": join}}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return streamRoom(ctx, resume, first, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&gameType, "game-type", "", "Game type to be paired into")
	cmd.Flags().StringVar(&join, "join", "", "Room id to join")
	cmd.Flags().StringVar(&user, "user", "guest", "Display name sent with create-room")
	cmd.Flags().IntVar(&rating, "rating", 1000, "Rating sent with create-room")
	cmd.Flags().StringVar(&resume, "resume", "", "Identity of a previous connection to resume")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

type outgoing struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type incoming struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RoomEvent is one received frame as printed in JSON mode
type RoomEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// wsURL turns the server base URL into the realtime endpoint URL
func wsURL(server, resume string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(server, "/") + "/ws")
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if resume != "" {
		q := u.Query()
		q.Set("previousSocketId", resume)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func streamRoom(ctx context.Context, resume string, first *outgoing, jsonOutput bool) error {
	target, err := wsURL(cfg.ServerURL, resume)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if first != nil {
		if err := conn.WriteJSON(first); err != nil {
			return fmt.Errorf("send %s: %w", first.Event, err)
		}
	}

	frames := make(chan incoming)
	readErr := make(chan error, 1)
	go func() {
		for {
			var frame incoming
			if err := conn.ReadJSON(&frame); err != nil {
				readErr <- err
				return
			}
			frames <- frame
		}
	}()

	for {
		select {
		case frame := <-frames:
			printEvent(frame.Event, frame.Data, jsonOutput)
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					fmt.Println("Disconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(closeWait))
			if !jsonOutput {
				fmt.Println("\nDisconnected")
			}
			return nil
		}
	}
}

func printEvent(event string, data json.RawMessage, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := RoomEvent{
			Time:  now,
			Event: event,
			Data:  data,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
	} else {
		timestamp := now.Format("2006-01-02 15:04:05")
		// Truncate data if it's too long for display
		displayData := string(data)
		if len(displayData) > 100 {
			displayData = displayData[:100] + "..."
		}
		fmt.Printf("[%s] %s: %s\n", timestamp, event, displayData)
	}
}
