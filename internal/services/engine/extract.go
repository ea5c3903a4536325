package engine

import "regexp"

var bestMovePattern = regexp.MustCompile(`bestmove\s+(\S+)`)

// ExtractBestMove returns the move following the first bestmove marker, or
// "" when no line carries one.
func ExtractBestMove(lines []string) string {
	for _, line := range lines {
		if m := bestMovePattern.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}
