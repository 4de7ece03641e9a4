package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/reliclang/relic/internal/boot"
	"github.com/reliclang/relic/internal/config"
	"github.com/reliclang/relic/internal/runtime"
)

// Version can be set at build time: -ldflags "-X main.Version=..."
var Version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-qnv] [-c config] [-b bootfile] [-e expression] [file]\n", os.Args[0])
	os.Exit(2)
}

func main() {
	opts, optind, err := getopt.Getopts(os.Args, "qnvc:b:e:")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
	}

	var (
		quiet      bool
		noColor    bool
		configPath string
		bootPath   string
		expression string
	)
	for _, opt := range opts {
		switch opt.Option {
		case 'q':
			quiet = true
		case 'n':
			noColor = true
		case 'v':
			fmt.Printf("relic %s\n", Version)
			return
		case 'c':
			configPath = opt.Value
		case 'b':
			bootPath = opt.Value
		case 'e':
			expression = opt.Value
		}
	}
	args := os.Args[optind:]

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if quiet {
		cfg.Quiet = true
	}
	if noColor {
		cfg.NoColor = true
	}
	if bootPath != "" {
		cfg.BootFile = bootPath
	}

	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	color.NoColor = cfg.NoColor || !interactive

	rt := runtime.New(runtime.Options{
		Output:           os.Stdout,
		CollectThreshold: cfg.CollectThreshold,
		SymbolsHint:      cfg.SymbolsHint,
	})
	if err := bootRuntime(rt, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Boot error: %s\n", err)
		os.Exit(1)
	}

	// Ctrl-C aborts the evaluation in flight, not the process.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigs {
			rt.RequestHalt()
		}
	}()

	switch {
	case expression != "":
		runSource(rt, expression, true)
	case len(args) >= 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		runSource(rt, string(data), false)
	case interactive:
		repl(rt, cfg)
	default:
		data, err := readAllStdin()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		runSource(rt, data, false)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.Discover()
}

func bootRuntime(rt *runtime.Runtime, cfg config.Config) error {
	doc := boot.Builtin()
	if cfg.BootFile != "" {
		blob, err := os.ReadFile(cfg.BootFile)
		if err != nil {
			return err
		}
		doc, err = boot.Decode(blob)
		if err != nil {
			return err
		}
	}
	return boot.Startup(rt, doc)
}

// runSource evaluates a whole script; a truthy showResult echoes the final
// value the way the REPL would.
func runSource(rt *runtime.Runtime, source string, showResult bool) {
	var out runtime.Cell
	err := runtime.Rescue(func() error {
		var err error
		out, err = rt.DoText(source)
		return err
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if showResult {
		printResult(rt, &out)
	}
}

func repl(rt *runtime.Runtime, cfg config.Config) {
	if !cfg.Quiet {
		color.Blue("relic %s", Version)
		fmt.Println(`type expressions; "quit" or Ctrl-D leaves`)
	}

	in := bufio.NewScanner(os.Stdin)
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = config.DefaultPrompt
	}

	for {
		fmt.Print(prompt)
		if !in.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}

		var out runtime.Cell
		err := runtime.Rescue(func() error {
			var err error
			out, err = rt.DoText(line)
			return err
		})
		if err != nil {
			printError(err)
			continue
		}
		printResult(rt, &out)
	}
}

func printResult(rt *runtime.Runtime, out *runtime.Cell) {
	rendered := rt.Mold(out)
	color.Cyan("== %s", rendered)
}

func printError(err error) {
	if e := runtime.AsError(err); e != nil {
		color.Red("** error (%s): %s", e.ID, e.Msg)
		return
	}
	color.Red("** %s", err)
}

func readAllStdin() (string, error) {
	var b strings.Builder
	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		b.WriteString(in.Text())
		b.WriteByte('\n')
	}
	return b.String(), in.Err()
}
