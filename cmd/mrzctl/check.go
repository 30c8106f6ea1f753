package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"mrzgate/internal/mrz"
	"mrzgate/internal/mrz/fingerprint"
	"mrzgate/internal/mrz/models"
)

// CheckCmd verifies every MRZ block in a file or stdin.
type CheckCmd struct {
	File string `arg:"" optional:"" type:"existingfile" help:"File with MRZ blocks separated by blank lines (default: stdin)"`
	JSON bool   `name:"json" help:"Emit JSON"`
}

type checkReport struct {
	Block        int                 `json:"block"`
	Fingerprint  string              `json:"fingerprint"`
	DocumentType models.DocumentKind `json:"document_type"`
	IsFullyValid bool                `json:"is_fully_valid"`
	CorrectedMRZ []string            `json:"corrected_mrz,omitempty"`
	Fields       []fieldRow          `json:"fields"`
	FormatError  string              `json:"format_error,omitempty"`
}

type fieldRow struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Value    string `json:"value"`
	Actual   string `json:"actual_check_digit,omitempty"`
	Expected string `json:"expected_check_digit,omitempty"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
}

func toRows(fields []models.FieldAnalysis) []fieldRow {
	rows := make([]fieldRow, len(fields))
	for i, f := range fields {
		rows[i] = fieldRow{
			Name:     f.Name,
			Position: f.Position(),
			Value:    f.RawValue,
			Actual:   f.ActualCheckDigit,
			Expected: f.ExpectedCheckDigit,
			Valid:    f.IsValid,
			Error:    f.Error,
		}
	}
	return rows
}

func (c *CheckCmd) Run(s *streams) error {
	in := s.in
	if c.File != "" {
		f, err := os.Open(c.File)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	raw, err := io.ReadAll(io.LimitReader(in, 16<<20))
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	blocks := splitBlocks(string(raw))
	reports := make([]checkReport, 0, len(blocks))
	allValid := true
	for i, block := range blocks {
		result := mrz.Analyze(block)
		r := checkReport{
			Block:        i + 1,
			Fingerprint:  fingerprint.Of(result.OriginalMRZ),
			DocumentType: result.DocumentKind,
			IsFullyValid: result.IsFullyValid,
			CorrectedMRZ: result.CorrectedMRZ,
			Fields:       toRows(result.Fields),
		}
		if result.Error != nil {
			r.FormatError = result.Error.Error()
		}
		allValid = allValid && r.IsFullyValid
		reports = append(reports, r)
	}

	if c.JSON {
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else if err := writeTable(s.out, reports); err != nil {
		return err
	}

	if !allValid {
		return errInvalidMRZ
	}
	return nil
}

// splitBlocks groups non-blank lines; one or more blank lines end a block.
func splitBlocks(text string) []string {
	var (
		blocks  []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

func writeTable(w io.Writer, reports []checkReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range reports {
		status := "VALID"
		if !r.IsFullyValid {
			status = "INVALID"
		}
		fmt.Fprintf(tw, "# block %d  %s  %s  %s\n", r.Block, r.DocumentType, status, fingerprint.Short(r.Fingerprint))
		if r.FormatError != "" {
			fmt.Fprintf(tw, "  %s\n\n", r.FormatError)
			continue
		}
		fmt.Fprintln(tw, "FIELD\tPOSITION\tVALUE\tFOUND\tEXPECTED\tOK")
		for _, f := range r.Fields {
			ok := "yes"
			if !f.Valid {
				ok = "NO"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				f.Name, f.Position, f.Value, dash(f.Actual), dash(f.Expected), ok)
		}
		if !r.IsFullyValid {
			fmt.Fprintln(tw, "corrected:")
			for _, line := range r.CorrectedMRZ {
				fmt.Fprintf(tw, "  %s\n", line)
			}
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
