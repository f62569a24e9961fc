package cli

import (
	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGamePlayCmd())

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a live game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			if err := client.Get("/api/v1/games/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGamePlayCmd() *cobra.Command {
	var opponent, join string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play over the broker's WebSocket",
		Long: `Connect to the broker and play interactively.

With --opponent, a new game is started against that player (they must
be connected). With --join, an existing game is joined. Once connected,
type commands at the prompt:

  challenge <email>        start a game against an online player
  join <game-id>           join a game you were invited to
  move <from> <to> [promo] make a move, e.g. "move e2 e4" or "move e7 e8 q"
  quit                     disconnect (this forfeits active games)

Disconnecting ends any game you are part of.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opponent, join)
		},
	}

	cmd.Flags().StringVar(&opponent, "opponent", "", "Opponent email to challenge on connect")
	cmd.Flags().StringVar(&join, "join", "", "Game id to join on connect")

	return cmd
}
