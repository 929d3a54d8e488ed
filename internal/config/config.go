package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "Asia/Shanghai"
	fallbackTimezone = "UTC"
	configPathEnv    = "AI_NEWS_BRIEF_CONFIG"
)

// Config holds every setting the pipeline needs. It is built once by Load.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	LLM           LLMConfig          `yaml:"llm"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Filter        FilterConfig       `yaml:"filter"`
	Scoring       ScoringConfig      `yaml:"scoring"`
	Retry         RetryConfig        `yaml:"retry"`
	History       HistoryConfig      `yaml:"history"`
	Database      DatabaseConfig     `yaml:"database"`
	Reports       ReportsConfig      `yaml:"reports"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sources       SourcesConfig      `yaml:"sources"`
	Sites         []SiteConfig       `yaml:"sites"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig defines when the pipeline runs in schedule mode and which
// timezone reports are dated in.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LLMConfig describes the analysis backend.
type LLMConfig struct {
	Provider         string  `yaml:"provider"`
	Model            string  `yaml:"model"`
	Endpoint         string  `yaml:"endpoint"`
	Temperature      float64 `yaml:"temperature"`
	MaxTokens        int     `yaml:"maxTokens"`
	TimeoutSeconds   int     `yaml:"timeoutSeconds"`
	AnthropicAPIKey  string  `yaml:"anthropicApiKey"`
	OpenAIAPIKey     string  `yaml:"openaiApiKey"`
	GoogleAPIKey     string  `yaml:"googleApiKey"`
	ZhipuAPIKey      string  `yaml:"zhipuApiKey"`
	StrictValidation bool    `yaml:"strictValidation"`
}

// Timeout returns the per-request timeout for LLM calls.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FetchConfig bounds what fetchers return.
type FetchConfig struct {
	ArticleAgeHours       int    `yaml:"articleAgeHours"`
	MaxArticlesPerSource  int    `yaml:"maxArticlesPerSource"`
	RequestTimeoutSeconds int    `yaml:"requestTimeoutSeconds"`
	UserAgent             string `yaml:"userAgent"`
	RedditUserAgent       string `yaml:"redditUserAgent"`
	GitHubToken           string `yaml:"githubToken"`
}

// MaxAge is the age window for fetched articles.
func (c FetchConfig) MaxAge() time.Duration {
	return time.Duration(c.ArticleAgeHours) * time.Hour
}

// RequestTimeout is the timeout applied to each outbound fetch.
func (c FetchConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// FilterConfig tunes the filter pipeline.
type FilterConfig struct {
	MinContentLength    int     `yaml:"minContentLength"`
	SimilarityThreshold float64 `yaml:"similarityThreshold"`
	MaxTotalArticles    int     `yaml:"maxTotalArticles"`
}

// ScoringConfig tunes scoring, admission and deep analysis.
type ScoringConfig struct {
	MinImportanceScore    int  `yaml:"minImportanceScore"`
	MinAIRelevanceScore   int  `yaml:"minAiRelevanceScore"`
	DeepAnalysisEnabled   bool `yaml:"deepAnalysisEnabled"`
	DeepAnalysisThreshold int  `yaml:"deepAnalysisThreshold"`
	BatchSize             int  `yaml:"batchSize"`
	BatchDelayMillis      int  `yaml:"batchDelayMillis"`
	ContentPreview        int  `yaml:"contentPreview"`
	DeepContentPreview    int  `yaml:"deepContentPreview"`
}

// BatchDelay is the pause between scoring batches.
func (c ScoringConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMillis) * time.Millisecond
}

// RetryConfig configures the rate-limit retry policy.
type RetryConfig struct {
	MaxAttempts       int  `yaml:"maxAttempts"`
	InitialWaitMillis int  `yaml:"initialWaitMillis"`
	MaxWaitMillis     int  `yaml:"maxWaitMillis"`
	Jitter            bool `yaml:"jitter"`
}

// HistoryConfig points at the dedup history store.
type HistoryConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Days    int    `yaml:"days"`
}

// DatabaseConfig describes Postgres connection details for the postgres history backend.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ReportsConfig controls where rendered reports are kept.
type ReportsConfig struct {
	Save bool   `yaml:"save"`
	Dir  string `yaml:"dir"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIBase  string `yaml:"apiBase"`
}

// SourcesConfig toggles whole source groups.
type SourcesConfig struct {
	RSS        bool `yaml:"rss"`
	Reddit     bool `yaml:"reddit"`
	HackerNews bool `yaml:"hackernews"`
	ArXiv      bool `yaml:"arxiv"`
	Blogs      bool `yaml:"blogs"`
	GitHub     bool `yaml:"github"`
	X          bool `yaml:"x"`
	YouTube    bool `yaml:"youtube"`
}

// Enabled reports whether the named source group is switched on. Unknown groups are enabled.
func (s SourcesConfig) Enabled(group string) bool {
	switch strings.ToLower(group) {
	case "rss":
		return s.RSS
	case "reddit":
		return s.Reddit
	case "hackernews":
		return s.HackerNews
	case "arxiv":
		return s.ArXiv
	case "blogs":
		return s.Blogs
	case "github":
		return s.GitHub
	case "x":
		return s.X
	case "youtube":
		return s.YouTube
	default:
		return true
	}
}

// SiteConfig describes a single site with its scanner strategy.
type SiteConfig struct {
	Name       string            `yaml:"name"`
	Scanner    string            `yaml:"scanner"`
	Group      string            `yaml:"group"`
	Priority   int               `yaml:"priority"`
	Limit      int               `yaml:"limit"`
	Categories []CategoryConfig  `yaml:"categories"`
	Options    map[string]string `yaml:"options"`
}

// SourceGroup returns the enable-flag group, defaulting to the scanner name.
func (s SiteConfig) SourceGroup() string {
	if s.Group != "" {
		return s.Group
	}
	return s.Scanner
}

// CategoryConfig holds one concrete endpoint to crawl (a feed, subreddit, repository).
type CategoryConfig struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Label string `yaml:"label"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit config path; an empty path means defaults plus env.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg := defaultConfig()
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyFloors()
	cfg.bindTimezone()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultSites()
	}

	return cfg
}

// APIKey returns the credential configured for the given provider name.
func (c LLMConfig) APIKey(provider string) string {
	switch strings.ToLower(provider) {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "google":
		return c.GoogleAPIKey
	case "zhipu":
		return c.ZhipuAPIKey
	default:
		return ""
	}
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
	setString(&c.Scheduler.Timezone, "TIMEZONE")
	setString(&c.Scheduler.CronExpression, "SCHEDULE_CRON")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&c.LLM.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.LLM.GoogleAPIKey, "GOOGLE_API_KEY")
	setString(&c.LLM.ZhipuAPIKey, "ZHIPU_API_KEY")
	setBool(&c.LLM.StrictValidation, "STRICT_VALIDATION")

	setInt(&c.Fetch.ArticleAgeHours, "ARTICLE_AGE_HOURS")
	setInt(&c.Fetch.MaxArticlesPerSource, "MAX_ARTICLES_PER_SOURCE")
	setString(&c.Fetch.RedditUserAgent, "REDDIT_USER_AGENT")
	setString(&c.Fetch.GitHubToken, "GITHUB_TOKEN")

	setInt(&c.Filter.MinContentLength, "MIN_CONTENT_LENGTH")
	setInt(&c.Filter.MaxTotalArticles, "MAX_TOTAL_ARTICLES")

	setInt(&c.Scoring.MinImportanceScore, "MIN_IMPORTANCE_SCORE")
	setInt(&c.Scoring.MinAIRelevanceScore, "MIN_AI_RELEVANCE_SCORE")
	setInt(&c.Scoring.DeepAnalysisThreshold, "DEEP_ANALYSIS_THRESHOLD")
	setBool(&c.Scoring.DeepAnalysisEnabled, "ENABLE_DEEP_ANALYSIS")

	setString(&c.History.Backend, "DEDUP_HISTORY_BACKEND")
	setString(&c.History.Path, "DEDUP_HISTORY_PATH")
	setInt(&c.History.Days, "DEDUP_HISTORY_DAYS")
	setString(&c.Database.DSN, "DATABASE_DSN")

	setString(&c.Notifications.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Notifications.Telegram.ChatID, "TELEGRAM_CHAT_ID")

	setBool(&c.Sources.RSS, "ENABLE_RSS")
	setBool(&c.Sources.Reddit, "ENABLE_REDDIT")
	setBool(&c.Sources.HackerNews, "ENABLE_HACKERNEWS")
	setBool(&c.Sources.ArXiv, "ENABLE_ARXIV")
	setBool(&c.Sources.Blogs, "ENABLE_BLOGS")
	setBool(&c.Sources.GitHub, "ENABLE_GITHUB")
	setBool(&c.Sources.X, "ENABLE_X")
	setBool(&c.Sources.YouTube, "ENABLE_YOUTUBE")
}

// applyFloors replaces non-positive numeric settings with their defaults.
func (c *Config) applyFloors() {
	def := defaultConfig()
	floorInt(&c.LLM.MaxTokens, def.LLM.MaxTokens)
	floorInt(&c.LLM.TimeoutSeconds, def.LLM.TimeoutSeconds)
	floorInt(&c.Fetch.ArticleAgeHours, def.Fetch.ArticleAgeHours)
	floorInt(&c.Fetch.MaxArticlesPerSource, def.Fetch.MaxArticlesPerSource)
	floorInt(&c.Fetch.RequestTimeoutSeconds, def.Fetch.RequestTimeoutSeconds)
	floorInt(&c.Filter.MaxTotalArticles, def.Filter.MaxTotalArticles)
	floorInt(&c.Scoring.BatchSize, def.Scoring.BatchSize)
	floorInt(&c.Scoring.ContentPreview, def.Scoring.ContentPreview)
	floorInt(&c.Scoring.DeepContentPreview, def.Scoring.DeepContentPreview)
	floorInt(&c.Retry.MaxAttempts, def.Retry.MaxAttempts)
	floorInt(&c.History.Days, def.History.Days)
	if c.Filter.SimilarityThreshold <= 0 || c.Filter.SimilarityThreshold > 1 {
		c.Filter.SimilarityThreshold = def.Filter.SimilarityThreshold
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, fallbackTimezone)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

func setBool(dst *bool, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		log.Printf("config: ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = b
}

func floorInt(dst *int, fallback int) {
	if *dst <= 0 {
		*dst = fallback
	}
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		Scheduler: SchedulerConfig{CronExpression: "0 8 * * *", Timezone: defaultTimezone},
		LLM: LLMConfig{
			Provider:       "anthropic",
			Model:          "claude-sonnet-4-5-20250929",
			Temperature:    0.3,
			MaxTokens:      4096,
			TimeoutSeconds: 60,
		},
		Fetch: FetchConfig{
			ArticleAgeHours:       24,
			MaxArticlesPerSource:  20,
			RequestTimeoutSeconds: 30,
			UserAgent:             "Mozilla/5.0 (compatible; AINewsBrief/1.0)",
			RedditUserAgent:       "AINewsBrief/1.0.0",
		},
		Filter: FilterConfig{
			MinContentLength:    100,
			SimilarityThreshold: 0.8,
			MaxTotalArticles:    50,
		},
		Scoring: ScoringConfig{
			MinImportanceScore:    5,
			MinAIRelevanceScore:   5,
			DeepAnalysisEnabled:   true,
			DeepAnalysisThreshold: 8,
			BatchSize:             5,
			BatchDelayMillis:      1000,
			ContentPreview:        2000,
			DeepContentPreview:    5000,
		},
		Retry: RetryConfig{
			MaxAttempts:       4,
			InitialWaitMillis: 1000,
			MaxWaitMillis:     10000,
			Jitter:            true,
		},
		History: HistoryConfig{Backend: "file", Path: "reports/seen_articles.json", Days: 30},
		Reports: ReportsConfig{Save: true, Dir: "reports"},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{APIBase: "https://api.telegram.org"},
		},
		Sources: SourcesConfig{
			RSS:        true,
			Reddit:     true,
			HackerNews: true,
			ArXiv:      true,
			Blogs:      true,
			GitHub:     true,
			X:          false,
			YouTube:    false,
		},
	}
}
