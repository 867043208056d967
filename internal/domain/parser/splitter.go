package parser

import (
	"strings"

	"github.com/ledgertalk/ledgertalk/internal/domain/lang"
)

// Split divides a message into independent transaction segments.
// Conjunctions ("и", "and", "а также") always split when both sides are
// non-empty. A comma splits only when both sides carry their own numeric
// token, so "Кофе, 200" stays a single transaction while
// "Кофе 200, такси 300" becomes two. Messages without separators return
// a single segment unchanged.
func Split(n lang.Normalized, bundle *lang.Bundle) []lang.Normalized {
	boundaries := splitPoints(n, bundle)
	if len(boundaries) == 0 {
		return []lang.Normalized{n}
	}

	var segments []lang.Normalized
	start := 0
	for _, b := range boundaries {
		seg := n.Tokens[start:b.before]
		if len(seg) > 0 {
			segments = append(segments, lang.FromTokens(seg, n.Source))
		}
		start = b.after
	}
	if tail := n.Tokens[start:]; len(tail) > 0 {
		segments = append(segments, lang.FromTokens(tail, n.Source))
	}

	if len(segments) == 0 {
		return []lang.Normalized{n}
	}
	return segments
}

type boundary struct {
	before int // tokens [.. before) belong to the left segment
	after  int // tokens [after ..] start the right segment
}

func splitPoints(n lang.Normalized, bundle *lang.Bundle) []boundary {
	var points []boundary

	for i := range n.Tokens {
		if w := conjunctionAt(n, bundle, i); w > 0 {
			if i > 0 && i+w < len(n.Tokens) {
				points = append(points, boundary{before: i, after: i + w})
			}
			continue
		}
		if commaAfter(n, i) && i+1 < len(n.Tokens) {
			left := n.Tokens[:i+1]
			right := n.Tokens[i+1:]
			if hasNumeric(left) && hasNumeric(right) {
				points = append(points, boundary{before: i + 1, after: i + 1})
			}
		}
	}

	return points
}

// conjunctionAt reports how many tokens starting at i form a configured
// conjunction phrase, or 0.
func conjunctionAt(n lang.Normalized, bundle *lang.Bundle, i int) int {
	for _, conj := range bundle.Conjunctions {
		words := strings.Fields(conj)
		if len(words) == 0 || i+len(words) > len(n.Tokens) {
			continue
		}
		match := true
		for j, w := range words {
			if n.Tokens[i+j].Text != w {
				match = false
				break
			}
		}
		if match {
			return len(words)
		}
	}
	return 0
}

// commaAfter checks the source text for a comma directly following the
// token span. Tokenization trims boundary punctuation, so the comma
// itself never appears as a token.
func commaAfter(n lang.Normalized, i int) bool {
	end := n.Tokens[i].End
	return end < len(n.Source) && n.Source[end] == ','
}

func hasNumeric(tokens []lang.Token) bool {
	return len(collectNumerics(tokens)) > 0
}
