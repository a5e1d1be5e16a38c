package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"confessions/backend/internal/namecheck"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

type validateRow struct {
	Name string `json:"name"`
	namecheck.Result
	PhoneticsOK *bool `json:"phonetics_ok,omitempty"`
	Flagged     bool  `json:"flagged_for_review"`
}

func (a *app) newValidateCommand() *cobra.Command {
	var namesFile string
	cmd := &cobra.Command{
		Use:   "validate [names...]",
		Short: "Validate display names and print the verdicts",
		Long: `Validate display names and print the verdicts.

Names come from the arguments, from --file (one per line, "-" for stdin),
or from stdin when no arguments are given. Exits 1 when any name is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(strings.TrimSpace(a.v.GetString("format")))
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("unsupported format %q (use table or json)", format)
			}
			names, err := a.resolveNames(args, namesFile)
			if err != nil {
				return err
			}
			validator, err := a.validator()
			if err != nil {
				return err
			}

			rows, invalid := validateNames(validator, names, a.v.GetBool("phonetics"))
			if err := renderValidate(a.stdout, rows, format); err != nil {
				return err
			}
			if invalid > 0 {
				return fmt.Errorf("%w: %d of %d", ErrInvalidNames, invalid, len(rows))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&namesFile, "file", "f", "", `read names from file, one per line ("-" for stdin)`)
	cmd.Flags().String("format", formatTable, "output format: table or json")
	cmd.Flags().Bool("phonetics", false, "also run the phonetic plausibility check")
	_ = a.v.BindPFlag("format", cmd.Flags().Lookup("format"))
	_ = a.v.BindPFlag("phonetics", cmd.Flags().Lookup("phonetics"))
	return cmd
}

func validateNames(validator *namecheck.Validator, names []string, phonetics bool) ([]validateRow, int) {
	rows := make([]validateRow, 0, len(names))
	invalid := 0
	for _, name := range names {
		result := validator.Validate(name)
		row := validateRow{
			Name:    name,
			Result:  result,
			Flagged: result.Valid && namecheck.FlaggedForReview(result),
		}
		if phonetics {
			ok := validator.CheckPhonetics(name)
			row.PhoneticsOK = &ok
		}
		if !result.Valid {
			invalid++
		}
		rows = append(rows, row)
	}
	return rows, invalid
}

func renderValidate(w io.Writer, rows []validateRow, format string) error {
	if format == formatJSON {
		payload, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}

	withPhonetics := len(rows) > 0 && rows[0].PhoneticsOK != nil

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	header := table.Row{"Name", "Valid", "Confidence", "Notes"}
	if withPhonetics {
		header = append(header, "Phonetics")
	}
	t.AppendHeader(header)

	valid := 0
	for _, row := range rows {
		if row.Valid {
			valid++
		}
		line := table.Row{row.Name, validLabel(row), row.Confidence, notes(row.Result)}
		if withPhonetics {
			line = append(line, passLabel(*row.PhoneticsOK))
		}
		t.AppendRow(line)
	}

	footer := table.Row{"", fmt.Sprintf("%d/%d valid", valid, len(rows)), "", ""}
	if withPhonetics {
		footer = append(footer, "")
	}
	t.AppendFooter(footer)
	t.Render()
	return nil
}

func validLabel(row validateRow) string {
	switch {
	case !row.Valid:
		return "no"
	case row.Flagged:
		return "review"
	default:
		return "yes"
	}
}

func passLabel(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

func notes(result namecheck.Result) string {
	parts := make([]string, 0, len(result.Errors)+len(result.Warnings))
	parts = append(parts, result.Errors...)
	parts = append(parts, result.Warnings...)
	return strings.Join(parts, "; ")
}
