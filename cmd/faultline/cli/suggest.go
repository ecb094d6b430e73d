// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still offered as a
// suggestion.
const maxSuggestDistance = 3

// closest returns the candidate nearest to input, or "" when none is
// within maxSuggestDistance. Ties go to the earliest candidate.
func closest(input string, candidates []string) string {
	best := ""
	bestDistance := maxSuggestDistance + 1
	for _, candidate := range candidates {
		if distance := levenshtein(input, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

// suggestCommand returns the subcommand name closest to unknown.
func suggestCommand(unknown string, commands []*Command) string {
	names := make([]string, len(commands))
	for index, command := range commands {
		names[index] = command.Name
	}
	return closest(unknown, names)
}

// suggestFlag finds the first flag in args that flagSet does not
// define and returns the closest defined flag with its dashes, or "".
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	for _, arg := range args {
		if arg == "--" {
			return ""
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if flagSet.Lookup(name) != nil || (len(name) == 1 && flagSet.ShorthandLookup(name) != nil) {
			continue
		}

		var defined []string
		flagSet.VisitAll(func(flag *pflag.Flag) {
			defined = append(defined, flag.Name)
		})
		switch suggestion := closest(name, defined); len(suggestion) {
		case 0:
			return ""
		case 1:
			return "-" + suggestion
		default:
			return "--" + suggestion
		}
	}
	return ""
}

// levenshtein is the edit distance between a and b, computed with two
// rows of the distance matrix.
func levenshtein(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	previous := make([]int, len(a)+1)
	current := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}
	for j := 1; j <= len(b); j++ {
		current[0] = j
		for i := 1; i <= len(a); i++ {
			substitution := previous[i-1]
			if a[i-1] != b[j-1] {
				substitution++
			}
			current[i] = min(previous[i]+1, current[i-1]+1, substitution)
		}
		previous, current = current, previous
	}
	return previous[len(a)]
}
