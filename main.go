package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/barscope/internal/analyser"
	"github.com/olivier-w/barscope/internal/config"
	"github.com/olivier-w/barscope/internal/media"
	"github.com/olivier-w/barscope/internal/player"
	"github.com/olivier-w/barscope/internal/ui"
	"github.com/olivier-w/barscope/internal/visualizer"
	"github.com/sirupsen/logrus"
)

var errUsage = errors.New("usage: barscope [flags] <file>")

// options holds the parsed command line. Zero values mean "not given";
// only flags the user actually set override the config file.
type options struct {
	configPath string
	fps        int
	mute       bool
	mode       string
	logLevel   string
	dump       bool
	levels     bool
	path       string

	set map[string]bool
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("barscope", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", config.DefaultPath(), "path to the YAML config file")
	fs.IntVar(&opts.fps, "fps", 0, "animation frames per second (overrides config)")
	fs.BoolVar(&opts.mute, "mute", false, "analyse without opening the audio device")
	fs.StringVar(&opts.mode, "mode", "", "renderer: "+strings.Join(visualizer.ModeNames, ", "))
	fs.StringVar(&opts.logLevel, "log-level", "", "logrus level (overrides config)")
	fs.BoolVar(&opts.dump, "dump", false, "print one JSON object of bars per frame and exit")
	fs.BoolVar(&opts.levels, "levels", false, "print per-frame RMS levels as JSON and exit")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), errUsage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		return opts, errUsage
	}
	if opts.dump && opts.levels {
		return opts, errors.New("-dump and -levels are mutually exclusive")
	}
	opts.path = fs.Arg(0)
	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// headless reports whether the run writes to stdout instead of drawing.
func (o options) headless() bool { return o.dump || o.levels }

// apply copies the flags the user set over cfg and revalidates.
func (o options) apply(cfg *config.Config) (*config.Config, error) {
	out := *cfg
	if o.set["fps"] {
		out.FPS = o.fps
	}
	if o.set["mute"] {
		out.Mute = o.mute
	}
	if o.set["mode"] {
		out.Mode = o.mode
	}
	if o.set["log-level"] {
		out.Log.Level = o.logLevel
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func checkInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !media.IsSupportedExt(ext) {
		return fmt.Errorf("unsupported format %s (supported: %s)", ext, media.SupportedExtsList())
	}
	return nil
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	hc, err := config.NewHotConfig(opts.configPath)
	if err != nil {
		return err
	}
	defer hc.Close()

	cfg, err := opts.apply(hc.Get())
	if err != nil {
		return err
	}

	logs, err := config.SetupLogging(cfg.Log, opts.headless())
	if err != nil {
		return err
	}
	defer logs.Close()

	if err := checkInput(opts.path); err != nil {
		return err
	}

	switch {
	case opts.dump:
		return runDump(os.Stdout, opts.path, cfg)
	case opts.levels:
		return runLevels(os.Stdout, opts.path, cfg)
	}
	return runTUI(opts, hc, cfg)
}

func runTUI(opts options, hc *config.HotConfig, cfg *config.Config) error {
	v, err := analyser.NewWithConfig(cfg.Analyser)
	if err != nil {
		return err
	}

	p, err := player.New(opts.path, player.Options{
		Mute:   cfg.Mute,
		Volume: cfg.Volume,
		FPS:    cfg.FPS,
	})
	if err != nil {
		return fmt.Errorf("creating player: %w", err)
	}
	defer p.Close()

	model, err := ui.New(p, player.ReadMetadata(opts.path), v, cfg)
	if err != nil {
		return err
	}
	program := tea.NewProgram(model, tea.WithAltScreen())

	hc.OnReload(func(c *config.Config) {
		next, err := opts.apply(c)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "runTUI",
			}).WithError(err).Warn("reloaded config rejected by flags")
			return
		}
		program.Send(ui.ConfigReloadedMsg{Config: next})
	})
	if err := hc.Watch(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "runTUI",
			"path":     opts.configPath,
		}).WithError(err).Warn("config hot reload disabled")
	}

	_, err = program.Run()
	return err
}
