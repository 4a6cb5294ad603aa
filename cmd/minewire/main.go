// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.astrophena.name/minewire/internal/api/eventregistry"
	"go.astrophena.name/minewire/internal/api/gemini"
	"go.astrophena.name/minewire/internal/cli"
	"go.astrophena.name/minewire/internal/config"
	"go.astrophena.name/minewire/internal/filelock"
	"go.astrophena.name/minewire/internal/logger"
	"go.astrophena.name/minewire/internal/request"
	"go.astrophena.name/minewire/internal/state"

	"github.com/mmcdole/gofeed"
)

//go:embed config.star
var defaultConfig string

// Some types of errors that can happen during minewire execution.
var (
	errAlreadyRunning     = errors.New("already running")
	errNoEventRegistryKey = errors.New("environment variable EVENT_REGISTRY_API_KEY is not defined")
	errNoGeminiKey        = errors.New("environment variable GEMINI_API_KEY is not defined")
	errUnsupportedFormat  = errors.New("unsupported output format")
)

func main() { cli.Main(new(app)) }

func (a *app) Flags(fs *flag.FlagSet) {
	fs.IntVar(&a.maxEvents, "max-events", 0, "Fetch at most `n` new events per run. Overrides MAX_EVENTS.")
	fs.DurationVar(&a.window, "window", 0, "Look for events within this time `window`. Overrides FETCH_WINDOW.")
	fs.StringVar(&a.format, "format", "json", "Output `format`: json or uris for fetch, json or text for summarize.")
	fs.BoolVar(&a.force, "force", false, "Re-fetch events even if they were already processed.")
	fs.BoolVar(&a.dryRun, "dry-run", false, "Enable dry-run mode: log actions, but don't call APIs or save state.")
	fs.IntVar(&a.count, "count", 1, "Generate articles for up to `n` queued events.")
	fs.StringVar(&a.articlesDir, "articles", "", "Save generated articles to `dir`. Overrides ARTICLES_DIRECTORY.")
	fs.IntVar(&a.maxPosts, "max-posts", 8, "Produce at most `n` posts per thread.")
	fs.StringVar(&a.output, "output", "", "Write summarize output to `file` instead of standard output.")
	fs.BoolVar(&a.jsonOut, "json", false, "Output in JSON format (honored in supported commands).")
}

func (a *app) Run(ctx context.Context, env *cli.Env) error {
	// Load configuration from environment variables.
	a.erKey = cmp.Or(a.erKey, env.Getenv("EVENT_REGISTRY_API_KEY"))
	a.geminiKey = cmp.Or(a.geminiKey, env.Getenv("GEMINI_API_KEY"))
	a.geminiModel = cmp.Or(a.geminiModel, env.Getenv("GEMINI_MODEL"), "gemini-1.5-flash")
	a.stateDir = cmp.Or(a.stateDir, env.Getenv("STATE_DIRECTORY"))
	if a.stateDir == "" {
		xdgStateHome := env.Getenv("XDG_STATE_HOME")
		if xdgStateHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			xdgStateHome = filepath.Join(home, ".local", "state")
		}
		a.stateDir = filepath.Join(xdgStateHome, "minewire")
	}
	if err := os.MkdirAll(a.stateDir, 0o700); err != nil {
		return err
	}
	a.articlesDir = cmp.Or(a.articlesDir, env.Getenv("ARTICLES_DIRECTORY"), filepath.Join(a.stateDir, "articles"))
	if a.maxEvents == 0 {
		a.maxEvents = cmp.Or(int(parseInt(env.Getenv("MAX_EVENTS"))), 5)
	}
	if a.window == 0 {
		a.window = cmp.Or(parseDuration(env.Getenv("FETCH_WINDOW")), 90*time.Minute)
	}

	// Initialize internal state.
	a.init.Do(func() {
		a.doInit(env)
	})

	if len(env.Args) == 0 {
		return fmt.Errorf("%w: command is required, see -help for usage", cli.ErrInvalidArgs)
	}
	command := env.Args[0]

	switch command {
	case "fetch":
		return a.fetch(ctx, env)
	case "generate":
		return a.generate(ctx, env)
	case "summarize":
		return a.summarize(ctx, env)
	case "status":
		return a.status(ctx, env)
	default:
		return fmt.Errorf("%w: no such command %q", cli.ErrInvalidArgs, command)
	}
}

func parseInt(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i
	}
	return 0
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d
	}
	return 0
}

type app struct {
	init sync.Once

	// configuration
	articlesDir string
	count       int
	dryRun      bool
	erKey       string
	force       bool
	format      string
	geminiKey   string
	geminiModel string
	jsonOut     bool
	maxEvents   int
	maxPosts    int
	output      string
	stateDir    string
	window      time.Duration
	// now acts as time.Now, but can be mocked for testing.
	now func() time.Time

	// initialized by doInit
	er       *eventregistry.Client
	fp       *gofeed.Parser
	gemini   *gemini.Client
	httpc    *http.Client
	logf     logger.Logf
	scrubber *strings.Replacer

	// loaded from state directory
	cfg   *config.Config
	store *state.Store
}

func (a *app) doInit(env *cli.Env) {
	a.logf = env.Logf
	if a.now == nil {
		a.now = time.Now
	}
	if a.httpc == nil {
		a.httpc = request.DefaultClient
	}

	a.fp = gofeed.NewParser()

	var secrets []string
	for _, key := range []string{a.erKey, a.geminiKey} {
		if key != "" {
			secrets = append(secrets, key, "[EXPUNGED]")
		}
	}
	if len(secrets) > 0 {
		a.scrubber = strings.NewReplacer(secrets...)
	}

	a.er = &eventregistry.Client{
		APIKey:     a.erKey,
		HTTPClient: a.httpc,
		Scrubber:   a.scrubber,
	}
	a.gemini = &gemini.Client{
		APIKey:     a.geminiKey,
		Model:      a.geminiModel,
		HTTPClient: a.httpc,
		Scrubber:   a.scrubber,
	}
}

// loadState opens the state files and parses config.star, falling back to the
// built-in default configuration when the file doesn't exist.
func (a *app) loadState() error {
	store, err := state.Open(a.stateDir)
	if err != nil {
		return fmt.Errorf("opening state: %w", err)
	}
	store.Now = a.now
	a.store = store

	src := defaultConfig
	b, err := os.ReadFile(filepath.Join(a.stateDir, "config.star"))
	switch {
	case err == nil:
		src = string(b)
	case os.IsNotExist(err):
	default:
		return err
	}
	cfg, err := config.Parse("config.star", src, a.logf)
	if err != nil {
		return fmt.Errorf("parsing config.star: %w", err)
	}
	a.cfg = cfg

	return nil
}

// lock takes the run lock, preventing two state-mutating commands from
// running concurrently in the same state directory.
func (a *app) lock() (filelock.Lock, error) {
	l, err := filelock.Acquire(filepath.Join(a.stateDir, "lock"), strconv.Itoa(os.Getpid()))
	if errors.Is(err, filelock.ErrAlreadyLocked) {
		return nil, fmt.Errorf("%w: another minewire instance holds the lock in %s", errAlreadyRunning, a.stateDir)
	}
	return l, err
}
