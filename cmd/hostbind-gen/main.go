package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/hostbind/internal/gen"
)

var (
	posStyle  = lipgloss.NewStyle().Bold(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
	nameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	tagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
)

type options struct {
	tags        map[string]string
	config      string
	dir         string
	output      string
	header      string
	patterns    []string
	dryRun      bool
	list        bool
	interactive bool
	verbose     bool
}

func main() {
	opts := options{tags: map[string]string{}}
	flag.StringVar(&opts.config, "config", "", "Path to hostbind.yaml (default: search upwards from -dir)")
	flag.StringVar(&opts.dir, "dir", ".", "Directory package patterns are resolved against")
	flag.StringVar(&opts.output, "o", "", "Generated file name (default hostbind_gen.go)")
	flag.StringVar(&opts.header, "header", "", "Extra comment placed under the generated-code banner")
	flag.BoolVar(&opts.dryRun, "n", false, "Print generated files instead of writing them")
	flag.BoolVar(&opts.list, "list", false, "List annotated types and exit")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Func("tag", "Override an identity tag: Type=Tag or import/path.Type=Tag (repeatable)", func(s string) error {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" || v == "" {
			return fmt.Errorf("want Type=Tag, got %q", s)
		}
		opts.tags[k] = v
		return nil
	})
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: hostbind-gen [flags] [packages]")
		fmt.Fprintln(os.Stderr, "       hostbind-gen -list [packages]")
		fmt.Fprintln(os.Stderr, "       hostbind-gen -i [packages]  (interactive mode)")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()
	opts.patterns = flag.Args()

	log, err := newLogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	styled := term.IsTerminal(int(os.Stderr.Fd()))
	if err := run(opts, log); err != nil {
		report(os.Stderr, err, styled)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// loadConfig resolves hostbind.yaml and applies flag overrides.
func loadConfig(opts options, log *zap.Logger) (*gen.Config, error) {
	path := opts.config
	if path == "" {
		found, err := gen.FindConfig(opts.dir)
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := gen.DefaultConfig()
	if path != "" {
		loaded, err := gen.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		log.Debug("using config", zap.String("path", path))
	}

	if len(opts.patterns) > 0 || cfg.Dir == "" {
		cfg.Dir = opts.dir
	}
	if len(opts.patterns) > 0 {
		cfg.Packages = opts.patterns
	}
	if opts.output != "" {
		cfg.Output = opts.output
	}
	if opts.header != "" {
		cfg.Header = opts.header
	}
	if len(opts.tags) > 0 && cfg.Tags == nil {
		cfg.Tags = map[string]string{}
	}
	for k, v := range opts.tags {
		cfg.Tags[k] = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(opts options, log *zap.Logger) error {
	cfg, err := loadConfig(opts, log)
	if err != nil {
		return err
	}

	if opts.interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("-i requires a terminal")
		}
		return runInteractive(cfg, log)
	}

	pkgs, err := gen.Load(cfg, log)
	if err != nil {
		return err
	}

	if opts.list {
		listTypes(os.Stdout, pkgs)
		return nil
	}

	files, err := gen.Generate(cfg, pkgs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warn("no types carry //hostbind:identity", zap.Strings("packages", cfg.Packages))
		return nil
	}

	if opts.dryRun {
		for _, f := range files {
			fmt.Printf("// %s\n%s\n", f.Path, f.Source)
		}
		return nil
	}

	if err := gen.Write(files, log); err != nil {
		return err
	}
	for _, f := range files {
		fmt.Println(okStyle.Render("wrote") + " " + f.Path)
	}
	return nil
}

func listTypes(w io.Writer, pkgs []*gen.Package) {
	for _, p := range pkgs {
		if len(p.Types) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\n", p.Path)
		for _, t := range p.Types {
			kind := "export"
			if t.Identity {
				kind = "identity"
			}
			fmt.Fprintf(w, "  %s -> %s (%s)\n", nameStyle.Render(t.Name), tagStyle.Render(t.Tag), kind)
		}
	}
}

// report prints err, one diagnostic per line when it carries positions.
func report(w io.Writer, err error, styled bool) {
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var diags gen.Diagnostics
	if !errors.As(err, &diags) {
		fmt.Fprintln(w, render(errStyle, "Error: ")+err.Error())
		return
	}
	for _, d := range diags {
		if d.Pos.IsValid() {
			fmt.Fprintf(w, "%s: %s\n", render(posStyle, d.Pos.String()), render(errStyle, d.Msg))
		} else {
			fmt.Fprintln(w, render(errStyle, d.Msg))
		}
	}
	fmt.Fprintf(w, "%d problem(s); nothing written\n", len(diags))
}
