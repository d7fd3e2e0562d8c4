// Package main provides the entry point for the glimpse CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/glimpse/corpus"
	"github.com/dgnsrekt/glimpse/rsvp"
	"github.com/dgnsrekt/glimpse/ui"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile    string
	autoplay      bool
	engineConfig  = rsvp.DefaultConfig()
	sourceOptions corpus.Options

	rootCmd = &cobra.Command{
		Use:   "glimpse [SOURCE]",
		Short: "Speed read text in the terminal, one word at a time",
		Long: paragraph(
			fmt.Sprintf("\nSpeed read text in the terminal, %s.", keyword("one word at a time")),
		),
		Example: paragraph("glimpse book.pdf\nglimpse notes.md.gz --wpm 450\ncurl -s https://example.com/essay.txt | glimpse"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// source provides a readable text source.
type source struct {
	reader io.ReadCloser
	name   string // picks the decoder by extension
	path   string // absolute path of a local file, read lazily
}

// sourceFromArg parses an argument and creates a source for it. Local files
// are only resolved; streams are opened.
func sourceFromArg(ctx context.Context, arg string) (*source, error) {
	// from stdin
	if arg == "-" {
		return &source{reader: io.NopCloser(os.Stdin), name: "stdin"}, nil
	}

	// HTTP(S) URLs:
	if u, err := url.ParseRequestURI(arg); err == nil && strings.Contains(arg, "://") {
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("%s is not a supported protocol", u.Scheme)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("unable to create request: %w", err)
		}
		// consumer of the source is responsible for closing the ReadCloser.
		resp, err := http.DefaultClient.Do(req) //nolint:bodyclose
		if err != nil {
			return nil, fmt.Errorf("unable to get url: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
		}
		name := path.Base(u.Path)
		if name == "/" || name == "." {
			name = u.Host
		}
		return &source{reader: resp.Body, name: name}, nil
	}

	p, err := homedir.Expand(arg)
	if err != nil {
		return nil, fmt.Errorf("unable to expand path: %w", err)
	}
	st, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", arg)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}
	return &source{name: filepath.Base(abs), path: abs}, nil
}

// readSource reads a whole source into a corpus.
func readSource(ctx context.Context, src *source) (corpus.Corpus, error) {
	if src.path != "" {
		c, err := corpus.Open(ctx, src.path, sourceOptions)
		if err != nil {
			return corpus.Corpus{}, fmt.Errorf("unable to read %s: %w", src.name, err)
		}
		return c, nil
	}

	defer src.reader.Close() //nolint:errcheck
	c, err := corpus.Read(src.reader, src.name)
	if err != nil {
		return corpus.Corpus{}, fmt.Errorf("unable to read %s: %w", src.name, err)
	}
	return c, nil
}

func validateOptions(cmd *cobra.Command) error {
	// an explicit --config replaces whatever was found in the default places
	if f := cmd.Flag("config"); f != nil && f.Changed {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
	}

	// grab config values from Viper
	cfg := rsvp.DefaultConfig()
	cfg.WPM = viper.GetInt("wpm")
	cfg.MinWPM = viper.GetInt("wpm_min")
	cfg.MaxWPM = viper.GetInt("wpm_max")
	cfg.WPMStep = viper.GetInt("wpm_step")
	cfg.Pauses = rsvp.Pauses{
		Sentence: viper.GetFloat64("pauses.sentence"),
		Clause:   viper.GetFloat64("pauses.clause"),
	}

	if cfg.MinWPM < 1 || cfg.MinWPM > cfg.MaxWPM {
		return fmt.Errorf("invalid wpm bounds %d-%d", cfg.MinWPM, cfg.MaxWPM)
	}
	if cfg.WPM < cfg.MinWPM || cfg.WPM > cfg.MaxWPM {
		return fmt.Errorf("wpm must be between %d and %d, got %d", cfg.MinWPM, cfg.MaxWPM, cfg.WPM)
	}
	if cfg.WPMStep < 1 {
		return fmt.Errorf("wpm_step must be positive, got %d", cfg.WPMStep)
	}
	if cfg.Pauses.Sentence < 1 || cfg.Pauses.Clause < 1 {
		return fmt.Errorf("pause multipliers must be at least 1, got %.2f and %.2f",
			cfg.Pauses.Sentence, cfg.Pauses.Clause)
	}

	if viper.GetBool("cache.enabled") && viper.GetInt64("cache.max_size") < 1 {
		return fmt.Errorf("cache.max_size must be at least 1 MB, got %d", viper.GetInt64("cache.max_size"))
	}

	first, last, err := corpus.ParsePageRange(viper.GetString("pdf.pages"))
	if err != nil {
		return fmt.Errorf("invalid pdf.pages: %w", err)
	}

	engineConfig = cfg
	autoplay = viper.GetBool("autoplay")
	sourceOptions = corpus.Options{
		PDF: corpus.PDFOptions{
			FirstPage:             first,
			LastPage:              last,
			ExcludeHeadersFooters: viper.GetBool("pdf.exclude_headers_footers"),
		},
	}
	return nil
}

// openWordCache returns the cache for extracted PDF words, or nil when it
// is disabled or unavailable.
func openWordCache() *corpus.Cache {
	if !viper.GetBool("cache.enabled") {
		return nil
	}

	dir, err := gap.NewScope(gap.User, "glimpse").CacheDir()
	if err != nil {
		log.Warn("Could not find cache directory", "error", err)
		return nil
	}
	c, err := corpus.NewCache(filepath.Join(dir, "words"), viper.GetInt64("cache.max_size")<<20)
	if err != nil {
		log.Warn("Could not open word cache", "error", err)
		return nil
	}
	return c
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("glimpse needs a terminal to display words; use `glimpse words` to print them instead")
	}

	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	if len(args) == 0 {
		yes, err := stdinIsPipe()
		if err != nil {
			return err
		}
		if !yes {
			return runTUI("", nil)
		}
		args = []string{"-"}
	}

	src, err := sourceFromArg(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if c := openWordCache(); c != nil {
		sourceOptions.Cache = c
		defer c.Close() //nolint:errcheck
	}

	// Local files are read by the TUI so large PDFs show progress.
	if src.path != "" {
		return runTUI(src.path, nil)
	}

	c, err := readSource(cmd.Context(), src)
	if err != nil {
		return err
	}
	return runTUI("", &c)
}

func runTUI(path string, content *corpus.Corpus) error {
	// A .env file may hold UI debugging settings.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("Could not load .env file", "error", err)
	}

	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.Path = path
	cfg.Autoplay = autoplay
	cfg.Source = sourceOptions

	engine := rsvp.NewEngine(engineConfig)
	defer engine.Close() //nolint:errcheck

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, engine, content).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().IntP("wpm", "w", rsvp.DefaultWPM, "reading rate in words per minute")
	rootCmd.PersistentFlags().String("pages", "", `PDF pages to read, e.g. "3-10" (default all)`)
	rootCmd.Flags().BoolP("autoplay", "a", false, "start reading as soon as the text is loaded")

	// Config bindings
	_ = viper.BindPFlag("wpm", rootCmd.PersistentFlags().Lookup("wpm"))
	_ = viper.BindPFlag("pdf.pages", rootCmd.PersistentFlags().Lookup("pages"))
	_ = viper.BindPFlag("autoplay", rootCmd.Flags().Lookup("autoplay"))

	viper.SetDefault("wpm", rsvp.DefaultWPM)
	viper.SetDefault("wpm_min", rsvp.DefaultMinWPM)
	viper.SetDefault("wpm_max", rsvp.DefaultMaxWPM)
	viper.SetDefault("wpm_step", rsvp.DefaultWPMStep)
	viper.SetDefault("pauses.sentence", rsvp.DefaultPauses.Sentence)
	viper.SetDefault("pauses.clause", rsvp.DefaultPauses.Clause)
	viper.SetDefault("autoplay", false)
	viper.SetDefault("pdf.pages", "")
	viper.SetDefault("pdf.exclude_headers_footers", false)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size", 64)

	rootCmd.AddCommand(configCmd, manCmd, wordsCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "glimpse")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "glimpse")}, dirs...)
	}

	if c := os.Getenv("GLIMPSE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("glimpse")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("glimpse")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "glimpse.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
