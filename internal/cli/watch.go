package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// JoinRoom is the join-room command payload
type JoinRoom struct {
	RoomCode    string `json:"roomCode"`
	PlayerName  string `json:"playerName"`
	IsSpectator bool   `json:"isSpectator"`
	IsTV        bool   `json:"isTV"`
	ClaimToken  string `json:"claimToken,omitempty"`
}

// Event is an outbound server event with its payload left raw
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// WatchedEvent is a received event stamped with its arrival time
type WatchedEvent struct {
	Time    time.Time       `json:"time"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newWatchCmd() *cobra.Command {
	var join JoinRoom

	cmd := &cobra.Command{
		Use:   "watch <code>",
		Short: "Join a room and stream its events",
		Long: `Connect to the websocket endpoint, join the room and print every event
the server sends.

Use --tv to watch as a display screen or --spectator to watch without
playing. Pass the claim token from 'rooms create' to join as the host.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			join.RoomCode = strings.ToUpper(args[0])

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watchRoom(ctx, join, NewOutput(cfg.Output), os.Stdout)
		},
	}

	cmd.Flags().StringVar(&join.PlayerName, "name", "", "Display name")
	cmd.Flags().StringVar(&join.ClaimToken, "claim-token", "", "Claim token for a reserved player")
	cmd.Flags().BoolVar(&join.IsSpectator, "spectator", false, "Join as a spectator")
	cmd.Flags().BoolVar(&join.IsTV, "tv", false, "Join as a TV display")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func watchRoom(ctx context.Context, join JoinRoom, out *Output, w io.Writer) error {
	wsURL, err := cfg.WebSocketURL()
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	payload, err := json.Marshal(join)
	if err != nil {
		return fmt.Errorf("failed to marshal join: %w", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": "join-room", "payload": json.RawMessage(payload)}); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	if cfg.Verbose {
		_, _ = fmt.Fprintf(os.Stderr, "Connected to %s\n", wsURL)
	}

	for {
		var evt Event
		if err := conn.ReadJSON(&evt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("server closed connection: %s", closeErr.Text)
			}
			return fmt.Errorf("stream error: %w", err)
		}
		out.PrintEvent(w, WatchedEvent{Time: time.Now(), Type: evt.Type, Payload: evt.Payload})
	}
}
