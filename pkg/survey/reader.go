// Package survey reads field-book exports into an ordered point sequence.
//
// Each record is one whitespace-delimited line:
//
//	number  northing(Y)  easting(X)  elevation  code
//
// e.g. "12  5000000.54  7000000.89  135.78  KRA". Characters other than the
// ASCII digits 0-9 in the number column are ignored ("P12" reads as 12).
package survey

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"surveyline/pkg/model"
)

// minLineLength mirrors the field-book convention: shorter lines are noise.
const minLineLength = 4

// ParseError reports a malformed record.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadFile reads and sorts the points of a survey file.
func ReadFile(path string) (model.Points, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open survey file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses records from r and returns them sorted ascending by number.
func Read(r io.Reader) (model.Points, error) {
	var points []model.SurveyPoint

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(strings.Join(fields, "\t")) < minLineLength {
			continue
		}

		p, err := parseRecord(fields)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Text: scanner.Text(), Err: err}
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read survey: %w", err)
	}

	if len(points) == 0 {
		return nil, model.ErrEmptyInput
	}
	return model.SortByNumber(points), nil
}

func parseRecord(fields []string) (model.SurveyPoint, error) {
	if len(fields) < 5 {
		return model.SurveyPoint{}, fmt.Errorf("expected 5 columns, got %d", len(fields))
	}

	// Only ASCII digits survive; other scripts' digits are dropped like letters.
	digits := strings.Map(func(r rune) rune {
		if '0' <= r && r <= '9' {
			return r
		}
		return -1
	}, fields[0])
	if digits == "" {
		return model.SurveyPoint{}, fmt.Errorf("no digits in point number %q", fields[0])
	}
	nr, err := strconv.Atoi(digits)
	if err != nil {
		return model.SurveyPoint{}, fmt.Errorf("invalid point number %q: %w", fields[0], err)
	}

	var vals [3]float64
	for i, s := range fields[1:4] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.SurveyPoint{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
		vals[i] = v
	}

	return model.SurveyPoint{
		Number: nr,
		Y:      vals[0],
		X:      vals[1],
		Z:      vals[2],
		Code:   fields[4],
	}, nil
}
