// Package question parses poll questions and option form fields.
package question

import (
	"strconv"
	"strings"
)

// MaxLength is the longest accepted question text.
const MaxLength = 120

// Option count bounds for every poll.
const (
	MinOptions = 2
	MaxOptions = 4
)

// autoDelimiters are tried in order; the first one present in the question
// that yields a valid option count wins.
var autoDelimiters = []string{"|", ";", " vs ", " VS ", " or ", " OR "}

// AutoSplit splits a question like "Tea|Coffee" or "Cats vs Dogs" into
// options. It returns nil when no delimiter produces 2-4 non-empty trimmed
// parts.
func AutoSplit(q string) []string {
	for _, d := range autoDelimiters {
		if !strings.Contains(q, d) {
			continue
		}
		var parts []string
		for _, p := range strings.Split(q, d) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) >= MinOptions && len(parts) <= MaxOptions {
			return parts
		}
	}
	return nil
}

// ClampCount parses a num_options form value, defaulting to MinOptions on
// garbage and clamping into [MinOptions, MaxOptions].
func ClampCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = MinOptions
	}
	if n < MinOptions {
		n = MinOptions
	}
	if n > MaxOptions {
		n = MaxOptions
	}
	return n
}

// CollectOptions gathers non-empty trimmed values in order, as submitted via
// option1..optionN fields.
func CollectOptions(values []string) []string {
	var opts []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			opts = append(opts, v)
		}
	}
	return opts
}

// ValidCount reports whether an option slice is within poll bounds.
func ValidCount(opts []string) bool {
	return len(opts) >= MinOptions && len(opts) <= MaxOptions
}

// ValidText reports whether a trimmed question is within length bounds.
func ValidText(q string) bool {
	return len(q) >= 1 && len(q) <= MaxLength
}
