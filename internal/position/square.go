package position

import (
	"fmt"
	"strconv"
)

const boardFiles = 9

// SquareName converts a square number to its algebraic name. Squares are
// numbered rows then columns starting at a1, so 0 is "a1" and 76 is "e9".
func SquareName(n int) string {
	if n < 0 || n >= boardSquares {
		return fmt.Sprintf("?%d", n)
	}
	return fmt.Sprintf("%c%d", 'a'+rune(n%boardFiles), n/boardFiles+1)
}

// squareNumber is the inverse of SquareName. The whole name must be a file
// letter followed by a rank digit.
func squareNumber(name string) (int, error) {
	if len(name) != 2 {
		return 0, fmt.Errorf("square %q: want a file letter and a rank digit", name)
	}
	file := name[0]
	rank, err := strconv.Atoi(name[1:])
	if err != nil {
		return 0, fmt.Errorf("square %q: %w", name, err)
	}
	if file < 'a' || file >= 'a'+boardFiles || rank < 1 || rank > boardFiles {
		return 0, fmt.Errorf("square %q: out of range", name)
	}
	return (rank-1)*boardFiles + int(file-'a'), nil
}
