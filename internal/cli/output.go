package cli

import (
	"encoding/json"
	"fmt"
	"os"
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
	case Account:
		o.printAccount(v)
	case AuthResult:
		o.printAuthResult(v)
	case Game:
		o.printGame(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Account response type (matches API)
type Account struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// AuthResult combines account and token
type AuthResult struct {
	Account      Account `json:"account"`
	SessionToken string  `json:"session_token"`
}

// GamePlayer is one seat in a game
type GamePlayer struct {
	Email string `json:"email"`
	Color string `json:"color"`
}

// Game response type
type Game struct {
	ID      string       `json:"id"`
	Players []GamePlayer `json:"players"`
	FEN     string       `json:"fen"`
	Status  string       `json:"status"`
	Turn    string       `json:"turn"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printAccount(a Account) {
	fmt.Printf("Account: %s (%s)\n", a.DisplayName, a.Email)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printAccount(a.Account)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printGame(g Game) {
	fmt.Printf("Game: %s\n", g.ID)
	fmt.Printf("Status: %s\n", g.Status)
	fmt.Printf("Turn: %s\n", colorName(g.Turn))
	fmt.Printf("Position: %s\n", g.FEN)
	fmt.Printf("Players (%d):\n", len(g.Players))
	for _, p := range g.Players {
		fmt.Printf("  - %s (%s)\n", p.Email, colorName(p.Color))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}

func colorName(c string) string {
	switch c {
	case "w":
		return "white"
	case "b":
		return "black"
	default:
		return c
	}
}
