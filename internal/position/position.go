// internal/position/position.go
//
// Position encoding for a Quoridor board.
// Responsibilities:
//   - Parse the query parameters of GET /theseus into a Position.
//   - Validate numeric fields (integers that fit the fixed 2-char width).
//   - Serialize a Position into the engine token (pawns, wall counts, walls, turn).
//
// Notes:
//   - wallcenters and turn are opaque; they are copied into the token verbatim.
//   - Strict mode mirrors the shape accepted by the reference engine (73 chars).
package position

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// fieldWidth is the zero-padded width of every numeric field in the token.
	fieldWidth = 2
	maxField   = 99

	// Reference engine limits (9x9 board, 8x8 wall centers, 10 walls each).
	boardSquares  = 81
	wallCells     = 64
	maxWalls      = 10
	strictTokenSz = 4*fieldWidth + wallCells + 1
)

// ErrBadRequest is wrapped by every parse/validation error.
var ErrBadRequest = errors.New("bad request")

// FieldError reports a missing or malformed query parameter.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Reason }

// Unwrap lets callers match any FieldError with errors.Is(err, ErrBadRequest).
func (e *FieldError) Unwrap() error { return ErrBadRequest }

// Position is the structured board state before token serialization.
type Position struct {
	Pawn1       int    // square number of player 1's pawn
	Pawn2       int    // square number of player 2's pawn
	WallCount1  int    // walls left for player 1
	WallCount2  int    // walls left for player 2
	WallCenters string // opaque wall placement encoding
	Turn        string // opaque side-to-move marker

	// GameID and Players are accepted from the query string but unused.
	GameID  string
	Players string
}

// FromQuery reads a Position from GET /theseus query parameters.
// Numeric fields must be integers in [0, 99]; wallcenters and turn must be present.
func FromQuery(q url.Values) (Position, error) {
	var p Position
	var err error
	if p.Pawn1, err = intField(q, "pawn1"); err != nil {
		return Position{}, err
	}
	if p.Pawn2, err = intField(q, "pawn2"); err != nil {
		return Position{}, err
	}
	if p.WallCount1, err = intField(q, "wallcount1"); err != nil {
		return Position{}, err
	}
	if p.WallCount2, err = intField(q, "wallcount2"); err != nil {
		return Position{}, err
	}
	if p.WallCenters, err = stringField(q, "wallcenters"); err != nil {
		return Position{}, err
	}
	if p.Turn, err = stringField(q, "turn"); err != nil {
		return Position{}, err
	}
	p.GameID = q.Get("id")
	p.Players = q.Get("players")
	return p, nil
}

// Token serializes p in the fixed order pawn1, pawn2, wallcount1, wallcount2,
// wallcenters, turn. Numeric fields are zero-padded to two characters.
func (p Position) Token() string {
	var b strings.Builder
	b.Grow(4*fieldWidth + len(p.WallCenters) + len(p.Turn))
	for _, n := range [...]int{p.Pawn1, p.Pawn2, p.WallCount1, p.WallCount2} {
		fmt.Fprintf(&b, "%0*d", fieldWidth, n)
	}
	b.WriteString(p.WallCenters)
	b.WriteString(p.Turn)
	return b.String()
}

// Validate checks the numeric range of every field. FromQuery already does this,
// but positions built in code go through here before Token is trusted.
func (p Position) Validate() error {
	fields := []struct {
		name string
		v    int
	}{
		{"pawn1", p.Pawn1}, {"pawn2", p.Pawn2},
		{"wallcount1", p.WallCount1}, {"wallcount2", p.WallCount2},
	}
	for _, f := range fields {
		if f.v < 0 || f.v > maxField {
			return &FieldError{Field: f.name, Reason: fmt.Sprintf("must be between 0 and %d", maxField)}
		}
	}
	return nil
}

// ValidateStrict enforces the token shape the reference engine accepts:
// pawns on the 9x9 board, at most 10 walls per side, 64 wall cells and a
// single turn character.
func (p Position) ValidateStrict() error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Pawn1 >= boardSquares {
		return &FieldError{Field: "pawn1", Reason: "off the board"}
	}
	if p.Pawn2 >= boardSquares {
		return &FieldError{Field: "pawn2", Reason: "off the board"}
	}
	if p.WallCount1 > maxWalls {
		return &FieldError{Field: "wallcount1", Reason: fmt.Sprintf("at most %d walls", maxWalls)}
	}
	if p.WallCount2 > maxWalls {
		return &FieldError{Field: "wallcount2", Reason: fmt.Sprintf("at most %d walls", maxWalls)}
	}
	if len(p.WallCenters) != wallCells {
		return &FieldError{Field: "wallcenters", Reason: fmt.Sprintf("must be %d characters", wallCells)}
	}
	if len(p.Turn) != 1 {
		return &FieldError{Field: "turn", Reason: "must be a single character"}
	}
	return nil
}

// intField parses a required non-negative integer that fits the token width.
func intField(q url.Values, name string) (int, error) {
	raw, err := stringField(q, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &FieldError{Field: name, Reason: "not an integer"}
	}
	if n < 0 || n > maxField {
		return 0, &FieldError{Field: name, Reason: fmt.Sprintf("must be between 0 and %d", maxField)}
	}
	return n, nil
}

func stringField(q url.Values, name string) (string, error) {
	if !q.Has(name) {
		return "", &FieldError{Field: name, Reason: "missing"}
	}
	v := q.Get(name)
	if v == "" {
		return "", &FieldError{Field: name, Reason: "empty"}
	}
	return v, nil
}
