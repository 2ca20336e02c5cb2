// Package spread parses synthetic spread leg specification strings into
// SpreadDefinition structures.
//
// The reference format is a whitespace-separated token list, one token per
// leg: "+GCJ1 -(GCJ1-GCZ1) -GCZ1". A leading sign gives the leg direction,
// optional digits scale the quantity ratio, and a parenthesized pair names a
// nested calendar-spread leg.
package spread

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"spread-sniper-lab/internal/domain"
)

// ErrInvalidDefinition is returned when a leg specification string fails to
// parse. This indicates a reference-data defect and must not be swallowed.
var ErrInvalidDefinition = errors.New("invalid spread definition")

// Parse converts a leg specification string into a SpreadDefinition.
func Parse(symbol, spec string) (domain.SpreadDefinition, error) {
	tokens := strings.Fields(spec)
	if len(tokens) == 0 {
		return domain.SpreadDefinition{}, fmt.Errorf("%w: %q has no legs", ErrInvalidDefinition, spec)
	}

	legs := make([]domain.LegDefinition, 0, len(tokens))
	for _, tok := range tokens {
		leg, err := parseLeg(tok)
		if err != nil {
			return domain.SpreadDefinition{}, fmt.Errorf("spread %q: %w", symbol, err)
		}
		legs = append(legs, leg)
	}

	return domain.SpreadDefinition{Symbol: symbol, Legs: legs}, nil
}

// parseLeg parses one token: sign, optional ratio digits, then an outright
// symbol or a parenthesized calendar pair.
func parseLeg(tok string) (domain.LegDefinition, error) {
	if len(tok) < 2 {
		return domain.LegDefinition{}, fmt.Errorf("%w: token %q too short", ErrInvalidDefinition, tok)
	}

	sign := 0
	switch tok[0] {
	case '+':
		sign = 1
	case '-':
		sign = -1
	default:
		return domain.LegDefinition{}, fmt.Errorf("%w: token %q lacks a leading sign", ErrInvalidDefinition, tok)
	}

	rest := tok[1:]
	ratio := 1
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		parsed, err := strconv.Atoi(rest[:digits])
		if err != nil || parsed == 0 {
			return domain.LegDefinition{}, fmt.Errorf("%w: token %q has ratio %q", ErrInvalidDefinition, tok, rest[:digits])
		}
		ratio = parsed
		rest = rest[digits:]
	}

	if strings.HasPrefix(rest, "(") {
		if !strings.HasSuffix(rest, ")") {
			return domain.LegDefinition{}, fmt.Errorf("%w: token %q has unbalanced parentheses", ErrInvalidDefinition, tok)
		}
		inner := rest[1 : len(rest)-1]
		front, back, found := strings.Cut(inner, "-")
		if !found || !validSymbol(front) || !validSymbol(back) {
			return domain.LegDefinition{}, fmt.Errorf("%w: token %q is not a calendar pair", ErrInvalidDefinition, tok)
		}
		return domain.LegDefinition{
			ContractSymbol: inner,
			QuantityRatio:  sign * ratio,
			IsOutright:     false,
		}, nil
	}

	if !validSymbol(rest) {
		return domain.LegDefinition{}, fmt.Errorf("%w: token %q has a malformed symbol", ErrInvalidDefinition, tok)
	}
	return domain.LegDefinition{
		ContractSymbol: rest,
		QuantityRatio:  sign * ratio,
		IsOutright:     true,
	}, nil
}

// validSymbol accepts nonempty uppercase alphanumeric contract symbols.
func validSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// Format renders a SpreadDefinition back into the reference token format.
// Parse(Format(def)) round-trips for any definition Parse produces.
func Format(def domain.SpreadDefinition) string {
	var sb strings.Builder
	for i, leg := range def.Legs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		ratio := leg.QuantityRatio
		if ratio < 0 {
			sb.WriteByte('-')
			ratio = -ratio
		} else {
			sb.WriteByte('+')
		}
		if ratio != 1 {
			sb.WriteString(strconv.Itoa(ratio))
		}
		if leg.IsOutright {
			sb.WriteString(leg.ContractSymbol)
		} else {
			sb.WriteByte('(')
			sb.WriteString(leg.ContractSymbol)
			sb.WriteByte(')')
		}
	}
	return sb.String()
}
