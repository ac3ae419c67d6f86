package render

import "strings"

// Line breaking thresholds, in characters. Cards hold at most three lines
// per text block; up to two get balanced by character count.
const (
	oneLineMax   = 24
	twoLinesMax  = 48
	charWidthEm  = 0.52
	printablePad = 0.06
)

// BreakLines splits a title or artist string across card lines. The
// heuristic works on string lengths rather than real text widths, which is
// good enough for most cases: short strings stay on one line, medium ones
// split at the most even word boundary, and long ones take a third line.
func BreakLines(s string) []string {
	if len(s) < oneLineMax {
		return []string{s}
	}

	words := strings.Fields(s)
	if len(words) < 2 {
		return []string{s}
	}

	if len(s) > twoLinesMax {
		// Split the first 48 characters evenly and push the rest onto a
		// third line.
		firstTwo := ""
		rest := len(words)
		for i, word := range words {
			if len(firstTwo+word) >= twoLinesMax {
				rest = i
				break
			}
			firstTwo += word + " "
		}
		if rest == 0 || rest == len(words) {
			return balance(words)
		}
		lines := BreakLines(strings.TrimSpace(firstTwo))
		return append(lines, strings.Join(words[rest:], " "))
	}

	return balance(words)
}

// balance tries every word boundary and keeps the split with the most even
// character distribution.
func balance(words []string) []string {
	top, bot := strings.Join(words, " "), ""
	diff := len(top)

	for i := 1; i < len(words); i++ {
		t := strings.Join(words[:i], " ")
		b := strings.Join(words[i:], " ")
		if d := abs(len(t) - len(b)); d < diff {
			top, bot, diff = t, b, d
		}
	}

	if bot == "" {
		return []string{top}
	}
	return []string{top, bot}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// fitSize shrinks a base font size until the longest line fits the
// printable width. The shrink is monotonic in line length, so text never
// extends past the card bounds.
func fitSize(lines []string, base, maxWidth int) int {
	longest := 0
	for _, line := range lines {
		if n := len(line); n > longest {
			longest = n
		}
	}
	if longest == 0 {
		return base
	}

	size := base
	if w := int(float64(longest) * charWidthEm * float64(size)); w > maxWidth {
		size = int(float64(maxWidth) / (charWidthEm * float64(longest)))
	}
	if size < 1 {
		size = 1
	}
	return size
}
