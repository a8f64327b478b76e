// Package dice parses dice notation and produces reproducible roll results.
package dice

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidNotation indicates a notation string that does not match the
// `<count>d<sides>[+|-<modifier>]` grammar.
var ErrInvalidNotation = errors.New("invalid dice notation")

var notationPattern = regexp.MustCompile(`^(\d*)d(\d+)([+-]\d+)?$`)

// Spec is a parsed dice notation.
type Spec struct {
	Count    int
	Sides    int
	Modifier int
}

// Parse parses a notation string such as "1d6" or "2d8+3".
//
// The count defaults to 1 when omitted. Sides must be at least 1.
func Parse(notation string) (Spec, error) {
	trimmed := strings.ToLower(strings.TrimSpace(notation))
	match := notationPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}

	spec := Spec{Count: 1}
	if match[1] != "" {
		count, errParse := strconv.Atoi(match[1])
		if errParse != nil || count < 1 {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
		}
		spec.Count = count
	}

	sides, errParse := strconv.Atoi(match[2])
	if errParse != nil || sides < 1 {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}
	spec.Sides = sides

	if match[3] != "" {
		modifier, errMod := strconv.Atoi(match[3])
		if errMod != nil {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
		}
		spec.Modifier = modifier
	}
	return spec, nil
}

// Min returns the lowest possible total for the spec.
func (s Spec) Min() int { return s.Count + s.Modifier }

// Max returns the highest possible total for the spec.
func (s Spec) Max() int { return s.Count*s.Sides + s.Modifier }

// Average returns the expected total for the spec.
func (s Spec) Average() float64 {
	return float64(s.Count)*(float64(s.Sides)+1)/2 + float64(s.Modifier)
}

// Result captures one resolved roll of a spec.
type Result struct {
	Spec    Spec
	Rolls   []int
	Total   int
	Min     int
	Max     int
	Average float64
}

// Roll resolves the spec against the provided random source.
//
// The source is injected so tests can fix the seed; production callers seed
// from crypto/rand via NewRand.
func (s Spec) Roll(rng *rand.Rand) Result {
	rolls := make([]int, s.Count)
	total := s.Modifier
	for i := range rolls {
		face := rng.Intn(s.Sides) + 1
		rolls[i] = face
		total += face
	}
	return Result{
		Spec:    s,
		Rolls:   rolls,
		Total:   total,
		Min:     s.Min(),
		Max:     s.Max(),
		Average: s.Average(),
	}
}

// Breakdown renders the individual die faces, e.g. "[3,5]".
//
// It is derived purely from Rolls so callers can recompute it instead of
// parsing a pre-rendered string.
func (r Result) Breakdown() string {
	faces := make([]string, len(r.Rolls))
	for i, face := range r.Rolls {
		faces[i] = strconv.Itoa(face)
	}
	return "[" + strings.Join(faces, ",") + "]"
}

// MaxFace reports whether every die landed on its maximum face.
func (r Result) MaxFace() bool {
	if len(r.Rolls) == 0 {
		return false
	}
	for _, face := range r.Rolls {
		if face != r.Spec.Sides {
			return false
		}
	}
	return true
}
