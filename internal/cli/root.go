// Package cli implements the namecheck command line tool.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"confessions/backend/internal/namecheck"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrInvalidNames is returned by validate when at least one name was rejected.
var ErrInvalidNames = errors.New("one or more names are invalid")

type app struct {
	v      *viper.Viper
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRootCommand builds the command tree. Streams are injectable for tests.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	a.v.SetEnvPrefix("NAMECHECK")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	var cfgFile string
	root := &cobra.Command{
		Use:           "namecheck",
		Short:         "Check display names the way the confession service does",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile == "" {
				return nil
			}
			a.v.SetConfigFile(cfgFile)
			if err := a.v.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %s: %w", cfgFile, err)
			}
			return nil
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file")
	root.PersistentFlags().String("lists", "", "YAML file overriding blacklist, profanity and fake_patterns")
	_ = a.v.BindPFlag("lists", root.PersistentFlags().Lookup("lists"))

	root.AddCommand(a.newValidateCommand(), a.newPhoneticsCommand())
	return root
}

// Execute runs the CLI against the process streams and returns the exit code.
func Execute() int {
	root := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, ErrInvalidNames) {
			_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func (a *app) validator() (*namecheck.Validator, error) {
	path := strings.TrimSpace(a.v.GetString("lists"))
	if path == "" {
		return namecheck.Default(), nil
	}
	lists, err := namecheck.LoadLists(path)
	if err != nil {
		return nil, err
	}
	return namecheck.New(lists)
}
