package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRoomsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomsCreateCmd())
	cmd.AddCommand(newRoomsGetCmd())
	cmd.AddCommand(newRoomsListCmd())

	return cmd
}

// createRoomRequest mirrors the API request body
type createRoomRequest struct {
	Name          string `json:"name"`
	HostName      string `json:"hostName"`
	MaxPlayers    int    `json:"maxPlayers,omitempty"`
	MinigameCount int    `json:"minigameCount,omitempty"`
	IsRandomGames bool   `json:"isRandomGames"`
	Difficulty    string `json:"difficulty,omitempty"`
}

func newRoomsCreateCmd() *cobra.Command {
	var req createRoomRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new room",
		Long: `Create a new room. The host name is reserved for the creator, who
claims it by joining over the websocket with the returned claim token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.CreateRoom(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Room name")
	cmd.Flags().StringVar(&req.HostName, "host", "", "Host player name")
	cmd.Flags().IntVar(&req.MaxPlayers, "max-players", 0, "Maximum players (default: server default)")
	cmd.Flags().IntVar(&req.MinigameCount, "questions", 0, "Questions per trivia round (default: server default)")
	cmd.Flags().BoolVar(&req.IsRandomGames, "random", false, "Pick minigames at random")
	cmd.Flags().StringVar(&req.Difficulty, "difficulty", "", "Question difficulty: easy, medium, hard")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("host")

	return cmd
}

func newRoomsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Get room details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.GetRoom(cmd.Context(), args[0])
			if IsNotFound(err) {
				return fmt.Errorf("no room with code %s", strings.ToUpper(args[0]))
			}
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}

func newRoomsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.ListRooms(cmd.Context())
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(*result)
			return nil
		},
	}
}
