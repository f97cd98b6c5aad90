// Package parser converts raw extension arguments into cutscene types.
//
// Arguments arrive as SQF-serialised strings: text is wrapped in double
// quotes, embedded quotes are doubled, and arrays are passed as "[a,b,c]".
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/OCAP2/cutscene/internal/util"
)

// ErrArgCount is returned when a command receives too few arguments.
var ErrArgCount = errors.New("wrong number of arguments")

func requireArgs(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("%w: want at least %d, got %d", ErrArgCount, n, len(args))
	}
	return nil
}

// ParseFloat parses a cleaned numeric argument.
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ParseBool accepts true/false in any case as well as 1/0, the forms SQF
// produces for booleans.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, nil
	case "false", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// ParseVec3 parses "x,y,z" or "[x,y,z]". A missing z is taken as 0.
func ParseVec3(s string) (mgl64.Vec3, error) {
	parts := strings.Split(util.TrimBrackets(s), ",")
	if len(parts) < 2 || len(parts) > 3 {
		return mgl64.Vec3{}, fmt.Errorf("invalid position %q", s)
	}
	var v mgl64.Vec3
	for i, p := range parts {
		f, err := ParseFloat(p)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("invalid position %q: %w", s, err)
		}
		v[i] = f
	}
	return v, nil
}

// parseVec3Args accepts a position either as one "x,y,z" argument or as
// three separate numeric arguments.
func parseVec3Args(args []string) (mgl64.Vec3, error) {
	if len(args) >= 3 {
		var v mgl64.Vec3
		ok := true
		for i := range 3 {
			f, err := ParseFloat(args[i])
			if err != nil {
				ok = false
				break
			}
			v[i] = f
		}
		if ok {
			return v, nil
		}
	}
	if err := requireArgs(args, 1); err != nil {
		return mgl64.Vec3{}, err
	}
	return ParseVec3(args[0])
}
