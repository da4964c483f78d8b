// Package slug derives URL-safe unique identifiers from display names.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmpty is returned when a name normalizes to an empty slug.
var ErrEmpty = errors.New("slug: name has no URL-safe characters")

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonSlugRegex    = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	hyphensRegex    = regexp.MustCompile(`-{2,}`)
)

// Checker reports whether a slug is already taken.
type Checker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, slug string) (bool, error)

func (f CheckerFunc) SlugExists(ctx context.Context, slug string) (bool, error) {
	return f(ctx, slug)
}

// Normalize turns a display name into a base slug. Whitespace runs become a
// single hyphen, accents are decomposed and dropped with every other
// character outside [A-Za-z0-9_-], hyphen runs collapse, and the result is
// trimmed of hyphens and lower-cased.
func Normalize(name string) string {
	s := whitespaceRegex.ReplaceAllString(strings.TrimSpace(name), "-")
	s = norm.NFD.String(s)
	s = nonSlugRegex.ReplaceAllString(s, "")
	s = hyphensRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return strings.ToLower(s)
}

// Allocate returns the first free candidate among base, base-1, base-2, ...
// where base is Normalize(name). When current is the slug of the entity being
// renamed, the probe stops as soon as it reaches it so a rename to the same
// name keeps its slug.
//
// The probe is not atomic: callers must serialize allocations for the same
// base and keep a uniqueness constraint as backstop.
func Allocate(ctx context.Context, checker Checker, name, current string) (string, error) {
	base := Normalize(name)
	if base == "" {
		return "", ErrEmpty
	}

	candidate := base
	for i := 1; ; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if candidate == current {
			return candidate, nil
		}

		exists, err := checker.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}

		candidate = base + "-" + strconv.Itoa(i)
	}
}
