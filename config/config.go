package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tstrend/models"
)

// Config holds all run configuration, merged from the environment (optionally
// a .env file) and command-line flags. Flags win.
type Config struct {
	Profile  Profile
	Catalog  []models.Category
	Query    string
	Limit    int
	Days     int
	Output   string
	Datasets bool
	Readme   bool

	GitHubToken string
	HFToken     string

	NoBrowser     bool
	CSVOutputPath string
	PDFOutputPath string
	MetricsFile   string
	ChromeBin     string

	S3Bucket string
	S3Prefix string
	S3Region string

	LogLevel      string
	MaxRetries    int
	ReadmeWorkers int

	SearchTimeout  time.Duration
	LookupTimeout  time.Duration
	SourceInterval time.Duration
	LookupInterval time.Duration

	Weights ScoreWeights
}

// ScoreWeights parameterizes the trend score.
type ScoreWeights struct {
	StarWeight     float64
	VelocityWeight float64
	SOTABoost      float64
	ArXivStars     int
	ArXivVelocity  float64
	UnknownAgeDays int
}

// DefaultWeights returns the stock trend score constants.
func DefaultWeights() ScoreWeights {
	return ScoreWeights{
		StarWeight:     0.3,
		VelocityWeight: 0.7,
		SOTABoost:      1.2,
		ArXivStars:     50,
		ArXivVelocity:  1000,
		UnknownAgeDays: 365,
	}
}

// ErrHelp is returned when -h/--help was requested.
var ErrHelp = flag.ErrHelp

// Load reads the .env file, the environment and the given arguments
// (without the program name) and returns a validated Config.
func Load(args []string, stderr io.Writer) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return parse(args, stderr)
}

func parse(args []string, stderr io.Writer) (*Config, error) {
	var (
		profileName string
		catalogPath string
		token       string
		debug       bool
		cfg         = &Config{}
	)

	fs := flag.NewFlagSet("tstrend", flag.ContinueOnError)
	fs.SetOutput(stderr)

	stringFlag(fs, &profileName, "profile", "p", getEnv("TSTREND_PROFILE", "advanced"),
		"report profile: "+strings.Join(ProfileNames(), ", "))
	stringFlag(fs, &cfg.Query, "query", "q", "", "search query (replaces the category catalog)")
	intFlag(fs, &cfg.Limit, "limit", "n", 0, "results per source and category (papers: papers to scan)")
	stringFlag(fs, &cfg.Output, "output", "o", "", "HTML report path")
	fs.StringVar(&token, "token", "", "GitHub token (overrides GITHUB_TOKEN)")
	fs.IntVar(&cfg.Days, "days", 0, "GitHub lookback window in days")
	fs.BoolVar(&cfg.NoBrowser, "no-browser", false, "do not open the report when done")
	fs.BoolVar(&cfg.Datasets, "datasets", false, "also search Hugging Face datasets")
	fs.BoolVar(&cfg.Readme, "readme", false, "fetch GitHub README text for tagging")
	fs.StringVar(&catalogPath, "catalog", "", "YAML file replacing the built-in category catalog")
	fs.StringVar(&cfg.CSVOutputPath, "csv", getEnv("CSV_OUTPUT_PATH", ""), "also export rows as CSV to this path")
	fs.StringVar(&cfg.PDFOutputPath, "pdf", "", "also print the report to PDF via headless Chrome")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", "", "write Prometheus metrics in text format to this path")
	fs.BoolVar(&debug, "debug", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	p, err := LookupProfile(profileName)
	if err != nil {
		return nil, err
	}
	cfg.Profile = p

	// Profile defaults fill only what was not given; an explicit 0 or ""
	// is left for validate to reject.
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["limit"] && !set["n"] {
		cfg.Limit = p.DefaultLimit
	}
	if !set["days"] {
		cfg.Days = p.DefaultDays
	}
	if !set["output"] && !set["o"] {
		cfg.Output = p.DefaultOutput
	}
	if cfg.Query == "" {
		cfg.Query = p.DefaultQuery
	}

	cfg.GitHubToken = getEnv("GITHUB_TOKEN", "")
	if token != "" {
		cfg.GitHubToken = token
	}
	cfg.HFToken = getEnv("HF_TOKEN", "")
	cfg.ChromeBin = getEnv("CHROME_BIN", "")
	cfg.S3Bucket = getEnv("REPORT_S3_BUCKET", "")
	cfg.S3Prefix = getEnv("REPORT_S3_PREFIX", "")
	cfg.S3Region = getEnv("AWS_REGION", "")

	cfg.LogLevel = getEnv("TSTREND_LOG_LEVEL", "info")
	if debug {
		cfg.LogLevel = "debug"
	}
	cfg.MaxRetries = getEnvInt("MAX_RETRIES", 3)
	cfg.ReadmeWorkers = getEnvInt("README_WORKERS", 3)

	cfg.SearchTimeout = time.Duration(getEnvInt("SEARCH_TIMEOUT_MS", 10000)) * time.Millisecond
	cfg.LookupTimeout = time.Duration(getEnvInt("LOOKUP_TIMEOUT_MS", 5000)) * time.Millisecond
	cfg.SourceInterval = time.Duration(getEnvInt("SOURCE_INTERVAL_MS", 1000)) * time.Millisecond
	cfg.LookupInterval = time.Duration(getEnvInt("LOOKUP_INTERVAL_MS", 500)) * time.Millisecond
	if cfg.GitHubToken != "" {
		cfg.LookupInterval = 0
	}

	cfg.Weights = DefaultWeights()

	if p.Mode == ModeCategories {
		switch {
		case catalogPath != "":
			cfg.Catalog, err = LoadCatalog(catalogPath)
			if err != nil {
				return nil, err
			}
		case cfg.Query != "":
			cfg.Catalog = QueryCatalog(cfg.Query)
		default:
			cfg.Catalog = p.Catalog()
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Limit <= 0 {
		errs = append(errs, fmt.Errorf("limit must be positive, got %d", c.Limit))
	}
	if c.Days <= 0 {
		errs = append(errs, fmt.Errorf("days must be positive, got %d", c.Days))
	}
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, errors.New("output path is empty"))
	}
	if c.Profile.Mode == ModePapers && strings.TrimSpace(c.Query) == "" {
		errs = append(errs, errors.New("papers profile needs a query"))
	}
	return errors.Join(errs...)
}

func stringFlag(fs *flag.FlagSet, p *string, long, short, value, usage string) {
	fs.StringVar(p, long, value, usage)
	fs.StringVar(p, short, value, "shorthand for --"+long)
}

func intFlag(fs *flag.FlagSet, p *int, long, short string, value int, usage string) {
	fs.IntVar(p, long, value, usage)
	fs.IntVar(p, short, value, "shorthand for --"+long)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
