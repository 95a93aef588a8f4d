package timer

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	periodCode = iota
	timeCode
	numberCode
	unitCode
)

var (
	periodToken = parsly.NewToken(periodCode, "P", matcher.NewByte('P'))
	timeToken   = parsly.NewToken(timeCode, "T", matcher.NewByte('T'))
	numberToken = parsly.NewToken(numberCode, "Number", &numberMatcher{})
	unitToken   = parsly.NewToken(unitCode, "Unit", &unitMatcher{})
)

// numberMatcher matches digits with an optional fraction (1, 10, 1.5)
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	matched := 0
	fraction := false
	for i := pos; i < size; i++ {
		switch c := input[i]; {
		case isDigit(c):
			matched++
		case (c == '.' || c == ',') && !fraction && matched > 0:
			fraction = true
			matched++
		default:
			return trimSeparator(input[pos:pos+matched], matched)
		}
	}
	return trimSeparator(input[pos:pos+matched], matched)
}

func trimSeparator(text []byte, matched int) int {
	if matched > 0 && !isDigit(text[matched-1]) {
		return matched - 1
	}
	return matched
}

// unitMatcher matches a single ISO-8601 designator
type unitMatcher struct{}

func (m *unitMatcher) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize {
		return 0
	}
	switch cursor.Input[cursor.Pos] {
	case 'Y', 'W', 'D', 'H', 'M', 'S':
		return 1
	}
	return 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
