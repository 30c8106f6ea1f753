// Package mrz is the boundary of the ICAO 9303 machine-readable-zone codec.
//
// Every entry point is pure: none holds state or does I/O, and all are safe to
// call concurrently from any goroutine.
package mrz

import (
	"mrzgate/internal/mrz/analyzer"
	"mrzgate/internal/mrz/encoder"
	"mrzgate/internal/mrz/models"
	"mrzgate/internal/mrz/parser"
)

// IdentityRecord is the input to encoding.
type IdentityRecord = models.IdentityRecord

// AnalysisResult is the output of analysis.
type AnalysisResult = models.AnalysisResult

// Encode renders a record as TD1 (ID card) or TD3 (passport) lines.
func Encode(rec IdentityRecord) []models.Line {
	return encoder.Encode(rec)
}

// Calculations lists the data and digit behind every check digit of lines
// encoded for kind.
func Calculations(kind models.DocumentKind, lines []models.Line) []models.Calculation {
	return encoder.Calculations(parser.LayoutFor(kind), lines)
}

// Analyze parses MRZ text, verifies every check digit and returns a corrected copy.
func Analyze(text string) AnalysisResult {
	return analyzer.Analyze(text)
}
