package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var Version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{} // cobra falls back to os.Args on nil
	}
	cmd := newRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		rep := newReporter(stdout)
		rep.fail(err)
		var ue *usageError
		if errors.As(err, &ue) {
			_ = cmd.Usage()
		}
		return 1
	}
	return 0
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "kpsolve [flags] <keepass2.xml|database.kdbx>",
		Short: "Replace {REF:U@I:..} and {REF:P@I:..} field references with their values",
		Long: `kpsolve rewrites a KeePass 2 XML export (or a KDBX 3.1 database) so that
every username/password field reference holds the referenced entry's literal
value. The result is written next to the input as <file>.solved.`,
		Version: Version,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &usageError{msg: "No file for conversion given!"}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			s := &session{
				cfg:      cfg,
				log:      newLogger(stderr, cfg.Verbose),
				rep:      newReporter(stdout),
				password: promptPassword(stdin, stderr),
			}
			return s.solveFile(args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "YAML config file")
	f.String("suffix", DefaultSuffix, "suffix appended to the input path for the output file")
	f.String("replace", string(replaceAll), "tokens replaced per line (all|first)")
	f.String("format", formatAuto, "input format (auto|xml|kdbx)")
	f.StringP("key-file", "k", "", "key file of a kdbx database")
	f.Bool("summary", false, "print a table of referenced entries")
	f.BoolP("verbose", "v", false, "debug logging on stderr")

	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

