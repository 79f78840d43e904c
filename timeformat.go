package tempograph

import (
	"fmt"
	"time"
)

// DefaultTimePattern is the pattern used to parse textual timestamps when an
// ingestion call does not supply its own. Square brackets mark optional
// suffixes, so "2021-03-01" and "2021-03-01 10:15:30.500" both parse.
const DefaultTimePattern = "yyyy[-MM[-dd[ HH[:mm[:ss[.SSS]]]]]]"

// A TimeFormat parses textual timestamps against a fixed-width token pattern.
//
// The pattern grammar understands the tokens yyyy, MM, dd, HH, mm, ss and SSS
// (year down to millisecond), literal separators between them, and square
// brackets that make the remaining suffix optional. Brackets nest, so a
// pattern describes a chain of ever-finer granularities and a text is valid
// iff it matches one complete granularity with no trailing content.
//
// All parsed times are UTC. Absent month and day fields default to 1; absent
// time-of-day fields default to zero.
type TimeFormat struct {
	pattern string
	root    segment
}

// A segment is a run of mandatory elements optionally followed by a nested
// optional suffix. Matching may stop cleanly at the end of any segment.
type segment struct {
	elems  []element
	suffix *segment
}

// An element is either a literal byte sequence or a fixed-width digit field.
type element struct {
	literal string
	field   timeField
	width   int
}

type timeField uint8

const (
	literalField timeField = iota
	yearField
	monthField
	dayField
	hourField
	minuteField
	secondField
	millisField
)

var fieldLetters = map[byte]timeField{
	'y': yearField,
	'M': monthField,
	'd': dayField,
	'H': hourField,
	'm': minuteField,
	's': secondField,
	'S': millisField,
}

// ParseTimeFormat compiles the given pattern. It returns a non-nil error when
// the pattern contains unbalanced brackets, an unknown token letter, or a
// bracket group that is not the tail of its enclosing group.
func ParseTimeFormat(pattern string) (*TimeFormat, error) {
	root, rest, err := compileSegment(pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	if rest != "" {
		return nil, fmt.Errorf("pattern %q: unbalanced %q", pattern, rest[0])
	}
	return &TimeFormat{pattern: pattern, root: root}, nil
}

// MustTimeFormat is like ParseTimeFormat but panics on an invalid pattern.
// Use it for pattern constants known at compile time.
func MustTimeFormat(pattern string) *TimeFormat {
	f, err := ParseTimeFormat(pattern)
	if err != nil {
		panic("tempograph: " + err.Error())
	}
	return f
}

// compileSegment consumes pattern text up to (and including) the bracket that
// closes the current group, returning the compiled segment and the unconsumed
// remainder of its parent.
func compileSegment(pattern string) (segment, string, error) {
	var s segment
	for len(pattern) > 0 {
		c := pattern[0]
		switch {
		case c == '[':
			suffix, rest, err := compileSegment(pattern[1:])
			if err != nil {
				return s, "", err
			}
			if len(rest) == 0 || rest[0] != ']' {
				return s, "", fmt.Errorf("unclosed bracket")
			}
			// The grammar only supports optional *suffixes*: once a bracket
			// group opens, nothing may follow its closing bracket within the
			// enclosing group.
			if len(rest) > 1 && rest[1] != ']' {
				return s, "", fmt.Errorf("content after optional group: %q", rest[1:])
			}
			s.suffix = &suffix
			return s, rest[1:], nil
		case c == ']':
			return s, pattern, nil
		default:
			if field, ok := fieldLetters[c]; ok {
				width := 0
				for width < len(pattern) && pattern[width] == c {
					width++
				}
				s.elems = append(s.elems, element{field: field, width: width})
				pattern = pattern[width:]
				continue
			}
			// Any other byte is a literal separator. Group consecutive
			// literals into a single element.
			end := 0
			for end < len(pattern) {
				b := pattern[end]
				if b == '[' || b == ']' {
					break
				}
				if _, ok := fieldLetters[b]; ok {
					break
				}
				end++
			}
			s.elems = append(s.elems, element{literal: pattern[:end]})
			pattern = pattern[end:]
		}
	}
	return s, "", nil
}

// Pattern returns the textual pattern this format was compiled from.
func (f *TimeFormat) Pattern() string { return f.pattern }

// fields accumulates parsed time fields with their documented defaults.
type fields struct {
	year, month, day     int
	hour, minute, second int
	millis               int
}

// Parse parses the given text and returns its UTC epoch-millisecond
// timestamp. It returns a *TimeFormatError when the text does not match any
// valid prefix of the pattern or carries trailing unmatched content.
func (f *TimeFormat) Parse(text string) (int64, error) {
	acc := fields{month: 1, day: 1}
	rest, err := f.root.match(text, &acc)
	if err != nil {
		return 0, &TimeFormatError{Text: text, Pattern: f.pattern, Reason: err.Error()}
	}
	if rest != "" {
		return 0, &TimeFormatError{Text: text, Pattern: f.pattern, Reason: fmt.Sprintf("trailing content %q", rest)}
	}
	t := time.Date(acc.year, time.Month(acc.month), acc.day, acc.hour, acc.minute, acc.second, acc.millis*int(time.Millisecond), time.UTC)
	return t.UnixMilli(), nil
}

func (s *segment) match(text string, acc *fields) (rest string, err error) {
	for _, e := range s.elems {
		if e.field == literalField {
			if len(text) < len(e.literal) || text[:len(e.literal)] != e.literal {
				return "", fmt.Errorf("expected %q at %q", e.literal, text)
			}
			text = text[len(e.literal):]
			continue
		}
		if len(text) < e.width {
			return "", fmt.Errorf("truncated %v field at %q", e.field, text)
		}
		n := 0
		for i := range e.width {
			c := text[i]
			if c < '0' || c > '9' {
				return "", fmt.Errorf("non-digit in %v field at %q", e.field, text)
			}
			n = n*10 + int(c-'0')
		}
		acc.set(e.field, n)
		text = text[e.width:]
	}
	// A text may stop cleanly at the end of any segment; otherwise the
	// optional suffix must account for the remainder.
	if text == "" || s.suffix == nil {
		return text, nil
	}
	return s.suffix.match(text, acc)
}

func (acc *fields) set(f timeField, n int) {
	switch f {
	case yearField:
		acc.year = n
	case monthField:
		acc.month = n
	case dayField:
		acc.day = n
	case hourField:
		acc.hour = n
	case minuteField:
		acc.minute = n
	case secondField:
		acc.second = n
	case millisField:
		acc.millis = n
	}
}

func (f timeField) String() string {
	switch f {
	case yearField:
		return "year"
	case monthField:
		return "month"
	case dayField:
		return "day"
	case hourField:
		return "hour"
	case minuteField:
		return "minute"
	case secondField:
		return "second"
	case millisField:
		return "millisecond"
	}
	return "literal"
}

// FormatTime renders an epoch-millisecond timestamp at full granularity of
// the default pattern. Perspectives use it for their formatted time column.
func FormatTime(epochMillis int64) string {
	return time.UnixMilli(epochMillis).UTC().Format("2006-01-02 15:04:05.000")
}

// defaultTimeFormat is compiled once; WithTimeFormat replaces it per call.
var defaultTimeFormat = MustTimeFormat(DefaultTimePattern)
