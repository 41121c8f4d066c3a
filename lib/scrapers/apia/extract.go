package apia

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const (
	// the form fragment carrying the record fields is rendered as
	// a single line starting with this marker
	fieldMarker = `<div id="E_6648"`
	fieldDelim  = `value='`
)

// FieldLayout maps each record field to the nth occurrence of the
// field delimiter on the marker line. The indexes are coupled to
// the remote page layout, so they live in configuration rather
// than code: layout drift is a config change.
type FieldLayout struct {
	GivenNames int `json:"given_names"`
	Surnames   int `json:"surnames"`
	BirthDate  int `json:"birth_date"`
}

func DefaultLayout() FieldLayout {
	return FieldLayout{
		GivenNames: 264,
		Surnames:   265,
		BirthDate:  268,
	}
}

// Record is the structured result of one successful extraction.
type Record struct {
	CI         string
	GivenNames string
	Surnames   string
	BirthDate  string
}

// The three extraction errors are distinct so operators can tell
// layout drift (occurrence or quote errors on a present marker)
// apart from an identifier the backend simply knows nothing about
// (marker missing or fields empty).
var (
	ErrMarkerNotFound     = errors.New("apia: field marker not found in response")
	ErrOccurrenceNotFound = errors.New("apia: too few field delimiter occurrences")
	ErrUnterminatedField  = errors.New("apia: no closing quote after field delimiter")
)

// Extract scans the raw form fragment for the marker line and
// pulls the record fields out of it at the layout's positions.
func Extract(ci, raw string, layout FieldLayout) (Record, error) {
	for _, line := range strings.Split(raw, "\n") {
		if !strings.HasPrefix(line, fieldMarker) {
			continue
		}

		givenNames, err := fieldAt(line, layout.GivenNames)
		if err != nil {
			return Record{}, err
		}
		surnames, err := fieldAt(line, layout.Surnames)
		if err != nil {
			return Record{}, err
		}
		birthDate, err := fieldAt(line, layout.BirthDate)
		if err != nil {
			return Record{}, err
		}

		return Record{
			CI:         ci,
			GivenNames: decodeField(givenNames),
			Surnames:   decodeField(surnames),
			BirthDate:  decodeField(birthDate),
		}, nil
	}
	return Record{}, ErrMarkerNotFound
}

// fieldAt returns the text between the nth occurrence of the
// field delimiter and the next single quote.
func fieldAt(line string, occurrence int) (string, error) {
	index := -1
	for i := 0; i < occurrence; i++ {
		next := strings.Index(line[index+1:], fieldDelim)
		if next == -1 {
			return "", fmt.Errorf("%w: want occurrence %d of %q", ErrOccurrenceNotFound, occurrence, fieldDelim)
		}
		index += 1 + next
	}

	start := index + len(fieldDelim)
	end := strings.Index(line[start:], "'")
	if end == -1 {
		return "", fmt.Errorf("%w: occurrence %d", ErrUnterminatedField, occurrence)
	}
	return line[start : start+end], nil
}

var numericRefRegex = regexp.MustCompile(`&#(\d+);`)

// decodeField turns the attribute-encoded field value into plain
// text: named HTML entities first, then any numeric character
// references left behind.
func decodeField(v string) string {
	v = html.UnescapeString(v)
	return numericRefRegex.ReplaceAllStringFunc(v, func(ref string) string {
		n, err := strconv.Atoi(ref[2 : len(ref)-1])
		if err != nil {
			return ref
		}
		return string(rune(n))
	})
}
