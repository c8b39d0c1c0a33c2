package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Room:
		o.printRoom(v)
	case CreateRoomResult:
		o.printCreateRoomResult(v)
	case RoomList:
		o.printRoomList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// PrintEvent writes one received websocket event
func (o *Output) PrintEvent(w io.Writer, evt WatchedEvent) {
	if o.format == "json" {
		data, _ := json.Marshal(evt)
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	display := string(evt.Payload)
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	display = strings.ReplaceAll(display, "\n", " ")
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", evt.Time.Format("2006-01-02 15:04:05"), evt.Type, display)
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsHost      bool   `json:"isHost"`
	IsSpectator bool   `json:"isSpectator"`
	IsTV        bool   `json:"isTV"`
	IsOnline    bool   `json:"isOnline"`
}

// Room response type
type Room struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	MaxPlayers     int       `json:"maxPlayers"`
	MinigameCount  int       `json:"minigameCount"`
	IsRandomGames  bool      `json:"isRandomGames"`
	Difficulty     string    `json:"difficulty,omitempty"`
	IsActive       bool      `json:"isActive"`
	GameStarted    bool      `json:"gameStarted"`
	Players        []Player  `json:"players"`
	HostID         string    `json:"hostId"`
	CurrentPlayers int       `json:"currentPlayers"`
	TriviaState    string    `json:"triviaState"`
	CreatedAt      time.Time `json:"createdAt"`
	LastActivity   time.Time `json:"lastActivity"`
}

// CreateRoomResult combines the room and the host's claim token
type CreateRoomResult struct {
	Room       Room   `json:"room"`
	ClaimToken string `json:"claimToken"`
}

// RoomSummary is one row of a room listing
type RoomSummary struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	CurrentPlayers int    `json:"currentPlayers"`
	MaxPlayers     int    `json:"maxPlayers"`
	TriviaState    string `json:"triviaState"`
	GameStarted    bool   `json:"gameStarted"`
}

// RoomList response type
type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	Storage     string `json:"storage"`
	Connections int    `json:"connections"`
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s (%s)\n", r.Name, r.Code)
	fmt.Printf("State: %s\n", r.TriviaState)
	if r.GameStarted {
		fmt.Println("Game: started")
	}
	fmt.Printf("Questions: %d\n", r.MinigameCount)
	if r.Difficulty != "" {
		fmt.Printf("Difficulty: %s\n", r.Difficulty)
	}
	fmt.Printf("Players (%d/%d):\n", r.CurrentPlayers, r.MaxPlayers)
	for _, p := range r.Players {
		var tags []string
		if p.IsHost {
			tags = append(tags, "host")
		}
		if p.IsSpectator {
			tags = append(tags, "spectator")
		}
		if p.IsTV {
			tags = append(tags, "tv")
		}
		if !p.IsOnline {
			tags = append(tags, "offline")
		}
		if len(tags) > 0 {
			fmt.Printf("  - %s [%s]\n", p.Name, strings.Join(tags, ", "))
		} else {
			fmt.Printf("  - %s\n", p.Name)
		}
	}
}

func (o *Output) printCreateRoomResult(r CreateRoomResult) {
	o.printRoom(r.Room)
	fmt.Printf("Claim Token: %s\n", r.ClaimToken)
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Println("No active rooms")
		return
	}
	for _, r := range l.Rooms {
		fmt.Printf("%s  %-20s %d/%d  %s\n", r.Code, r.Name, r.CurrentPlayers, r.MaxPlayers, r.TriviaState)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	if h.Storage != "" {
		fmt.Printf("Storage: %s\n", h.Storage)
	}
	fmt.Printf("Connections: %d\n", h.Connections)
}
