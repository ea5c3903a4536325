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

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Profile:
		o.printProfile(v)
	case BestMoveResult:
		o.printBestMove(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Profile response type (decrypted register and login reply)
type Profile struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	Rating   int    `json:"rating"`
}

// BestMoveResult response type
type BestMoveResult struct {
	BestMove *string `json:"bestmove"`
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("User: %s (%s)\n", p.Username, p.UserID)
	fmt.Printf("Rating: %d\n", p.Rating)
}

func (o *Output) printBestMove(b BestMoveResult) {
	if b.BestMove == nil {
		fmt.Println("Best move: none found")
		return
	}
	fmt.Printf("Best move: %s\n", *b.BestMove)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	fmt.Printf("Open rooms: %d\n", h.Rooms)
	fmt.Printf("Connections: %d\n", h.Connections)
}
