package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func (a *app) newPhoneticsCommand() *cobra.Command {
	var namesFile string
	cmd := &cobra.Command{
		Use:   "phonetics [names...]",
		Short: "Report names containing letter pairs that do not occur in English names",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.resolveNames(args, namesFile)
			if err != nil {
				return err
			}
			validator, err := a.validator()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(a.stdout)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Name", "Phonetics"})
			for _, name := range names {
				t.AppendRow(table.Row{name, passLabel(validator.CheckPhonetics(name))})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&namesFile, "file", "f", "", `read names from file, one per line ("-" for stdin)`)
	return cmd
}
