package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/kozlony/internal/toc"
	"github.com/spf13/viper"
)

type Config struct {
	Port string

	// Auth for /api routes; empty disables it.
	APIKey string

	// Listing
	ListingURL         string
	ListingTitleFilter string

	// Transport
	ProxyAllowedHosts []string
	FetchTimeout      time.Duration
	FetchAttempts     int
	MaxDocumentBytes  int64

	// PDF
	PDFPreflight bool

	// Table of contents layout
	SectionHeadingHeight float64
	MastheadHeight       float64
	TocMarker            string
	ChapterMarker        string
	BulletinPhrase       string
	IgnoreIDs            []string // substrings of entry ids to drop; "" matches nothing
	NumberedHeadingLimit int
	HeightTolerance      float64

	// Summaries
	SummaryProvider  string
	AnthropicAPIKey  string
	AnthropicModel   string
	GeminiAPIKey     string
	GeminiModel      string
	SummaryMaxTokens int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Job state
	JobTTL time.Duration
}

func setDefaults(v *viper.Viper) {
	layout := toc.DefaultLayout()

	v.SetDefault("port", "8090")
	v.SetDefault("api_key", "")

	v.SetDefault("listing_url", "https://magyarkozlony.hu/")
	v.SetDefault("listing_title_filter", "Magyar Közlöny")

	v.SetDefault("proxy_allowed_hosts", []string{"magyarkozlony.hu", "www.magyarkozlony.hu"})
	v.SetDefault("fetch_timeout", 60*time.Second)
	v.SetDefault("fetch_attempts", 3)
	v.SetDefault("max_document_bytes", int64(52428800)) // 50MB

	v.SetDefault("pdf_preflight", true)

	v.SetDefault("layout.section_heading_height", layout.SectionHeadingHeight)
	v.SetDefault("layout.masthead_height", layout.MastheadHeight)
	v.SetDefault("layout.toc_marker", layout.TocMarker)
	v.SetDefault("layout.chapter_marker", layout.ChapterMarker)
	v.SetDefault("layout.bulletin_phrase", layout.BulletinPhrase)
	// Empty ignore_ids entries match nothing; they never drop every entry.
	v.SetDefault("layout.ignore_ids", layout.IgnoreIDs)
	v.SetDefault("layout.numbered_heading_limit", layout.NumberedHeadingLimit)
	v.SetDefault("layout.height_tolerance", layout.HeightTolerance)

	v.SetDefault("summary.provider", "off")
	v.SetDefault("summary.anthropic_api_key", "")
	v.SetDefault("summary.anthropic_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("summary.gemini_api_key", "")
	v.SetDefault("summary.gemini_model", "gemini-2.5-flash")
	v.SetDefault("summary.max_input_tokens", 6000)

	v.SetDefault("worker_count", 2)
	v.SetDefault("max_queue_size", 50)
	v.SetDefault("job_ttl", 1*time.Hour)
}

// Load reads defaults, an optional config file and KOZLONY_* environment
// variables (KOZLONY_LAYOUT_TOC_MARKER for layout.toc_marker).
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KOZLONY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("kozlony")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.kozlony")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Port:   v.GetString("port"),
		APIKey: v.GetString("api_key"),

		ListingURL:         v.GetString("listing_url"),
		ListingTitleFilter: v.GetString("listing_title_filter"),

		ProxyAllowedHosts: stringList(v, "proxy_allowed_hosts"),
		FetchTimeout:      v.GetDuration("fetch_timeout"),
		FetchAttempts:     v.GetInt("fetch_attempts"),
		MaxDocumentBytes:  v.GetInt64("max_document_bytes"),

		PDFPreflight: v.GetBool("pdf_preflight"),

		SectionHeadingHeight: v.GetFloat64("layout.section_heading_height"),
		MastheadHeight:       v.GetFloat64("layout.masthead_height"),
		TocMarker:            v.GetString("layout.toc_marker"),
		ChapterMarker:        v.GetString("layout.chapter_marker"),
		BulletinPhrase:       v.GetString("layout.bulletin_phrase"),
		IgnoreIDs:            stringList(v, "layout.ignore_ids"),
		NumberedHeadingLimit: v.GetInt("layout.numbered_heading_limit"),
		HeightTolerance:      v.GetFloat64("layout.height_tolerance"),

		SummaryProvider:  strings.ToLower(v.GetString("summary.provider")),
		AnthropicAPIKey:  v.GetString("summary.anthropic_api_key"),
		AnthropicModel:   v.GetString("summary.anthropic_model"),
		GeminiAPIKey:     v.GetString("summary.gemini_api_key"),
		GeminiModel:      v.GetString("summary.gemini_model"),
		SummaryMaxTokens: v.GetInt("summary.max_input_tokens"),

		WorkerCount:  v.GetInt("worker_count"),
		MaxQueueSize: v.GetInt("max_queue_size"),

		JobTTL: v.GetDuration("job_ttl"),
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 60 * time.Second
	}
	if cfg.FetchAttempts <= 0 {
		cfg.FetchAttempts = 1
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = 52428800
	}
	if cfg.HeightTolerance < 0 {
		cfg.HeightTolerance = 0
	}
	if cfg.SummaryMaxTokens <= 0 {
		cfg.SummaryMaxTokens = 6000
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.TocMarker == "" {
		return fmt.Errorf("layout.toc_marker is required")
	}
	if c.SectionHeadingHeight == c.MastheadHeight {
		return fmt.Errorf("layout.section_heading_height and layout.masthead_height must differ")
	}
	if _, err := url.ParseRequestURI(c.ListingURL); err != nil {
		return fmt.Errorf("listing_url: %w", err)
	}
	switch c.SummaryProvider {
	case "off", "":
	case "claude":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("summary.anthropic_api_key is required for the claude provider")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("summary.gemini_api_key is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unknown summary.provider %q", c.SummaryProvider)
	}
	return nil
}

// Layout builds the engine layout from the configuration.
func (c Config) Layout() toc.Layout {
	return toc.Layout{
		SectionHeadingHeight: c.SectionHeadingHeight,
		MastheadHeight:       c.MastheadHeight,
		TocMarker:            c.TocMarker,
		ChapterMarker:        c.ChapterMarker,
		BulletinPhrase:       c.BulletinPhrase,
		IgnoreIDs:            c.IgnoreIDs,
		NumberedHeadingLimit: c.NumberedHeadingLimit,
		HeightTolerance:      c.HeightTolerance,
	}
}

// stringList accepts YAML lists as well as ";"-separated strings from the
// environment.
func stringList(v *viper.Viper, key string) []string {
	raw, ok := v.Get(key).(string)
	if !ok {
		return v.GetStringSlice(key)
	}
	var out []string
	for _, s := range strings.Split(raw, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
