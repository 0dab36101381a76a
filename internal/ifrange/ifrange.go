// Package ifrange expands textual interface-list expressions such as
// "Ethernet4,Ethernet8,Ethernet12-20" into explicit interface sets.
package ifrange

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vshulcz/Intfstat/internal/domain"
)

// maxRangeLen bounds a single range expansion; no supported platform
// carries more ports than this.
const maxRangeLen = 4096

// Parse expands a comma-separated interface expression into a set with
// duplicates removed. An empty expression returns a nil set, meaning
// "no restriction" — callers must not read it as "match nothing".
// A malformed range fails with domain.ErrInvalidFilter naming the
// offending token. Parse has no side effects and performs no I/O.
func Parse(expr string) (domain.InterfaceSet, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	set := make(domain.InterfaceSet)
	for _, raw := range strings.Split(expr, ",") {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			return nil, fmt.Errorf("%w: empty token in %q", domain.ErrInvalidFilter, expr)
		}
		ids, err := expand(tok)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	return set, nil
}

// expand interprets one token. A token is a range only when the text
// left of its last hyphen ends in digits and the text right of it is
// all digits; hyphenated port names like "Ethernet-BP4" stay bare
// identifiers.
func expand(tok string) ([]domain.InterfaceID, error) {
	idx := strings.LastIndex(tok, "-")
	if idx < 0 {
		return []domain.InterfaceID{domain.InterfaceID(tok)}, nil
	}

	left, right := tok[:idx], tok[idx+1:]
	if left == "" || right == "" {
		return nil, fmt.Errorf("%w: malformed range %q", domain.ErrInvalidFilter, tok)
	}

	prefix, startDigits := splitTrailingDigits(left)
	if startDigits == "" {
		// No numeric start bound: a plain hyphenated name.
		return []domain.InterfaceID{domain.InterfaceID(tok)}, nil
	}

	end, err := strconv.Atoi(right)
	if err != nil {
		return nil, fmt.Errorf("%w: non-numeric range bound in %q", domain.ErrInvalidFilter, tok)
	}
	start, err := strconv.Atoi(startDigits)
	if err != nil {
		return nil, fmt.Errorf("%w: non-numeric range bound in %q", domain.ErrInvalidFilter, tok)
	}
	if end < start {
		return nil, fmt.Errorf("%w: range %q ends before it starts", domain.ErrInvalidFilter, tok)
	}
	if end-start+1 > maxRangeLen {
		return nil, fmt.Errorf("%w: range %q expands to more than %d interfaces", domain.ErrInvalidFilter, tok, maxRangeLen)
	}

	ids := make([]domain.InterfaceID, 0, end-start+1)
	for i := start; i <= end; i++ {
		ids = append(ids, domain.InterfaceID(prefix+strconv.Itoa(i)))
	}
	return ids, nil
}

// splitTrailingDigits splits "Ethernet12" into ("Ethernet", "12").
func splitTrailingDigits(s string) (prefix, digits string) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[:i], s[i:]
}
