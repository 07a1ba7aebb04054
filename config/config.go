package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/al-ameen36/vcon-bubble-maps/layout"
)

type Server struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"`
}

type DynamoDB struct {
	Endpoint    string `yaml:"endpoint"`
	Region      string `yaml:"region"`
	AccessKeyID string `yaml:"access_key_id"`
	SecretKey   string `yaml:"secret_access_key"`
	VconTable   string `yaml:"vcon_table"`
	ThreadTable string `yaml:"thread_table"`
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type OpenAI struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type Dashboard struct {
	PageSize       int     `yaml:"page_size"`
	TickIntervalMS int     `yaml:"tick_interval_ms"`
	ViewportWidth  float64 `yaml:"viewport_width"`
	ViewportHeight float64 `yaml:"viewport_height"`
	LayoutSeed     int64   `yaml:"layout_seed"`
}

type Assistant struct {
	// GroundWithFilteredSet sends a digest of the bubble-visible records
	// along with the user's prompt. Off by default.
	GroundWithFilteredSet bool   `yaml:"ground_with_filtered_set"`
	Instructions          string `yaml:"instructions"`
	HistoryLimit          int    `yaml:"history_limit"`
	FallbackSeed          int64  `yaml:"fallback_seed"`
}

type Batch struct {
	IntervalMinutes int  `yaml:"interval_minutes"`
	Narratives      bool `yaml:"narratives"`
}

type Logging struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Root struct {
	Server    Server        `yaml:"server"`
	DynamoDB  DynamoDB      `yaml:"dynamodb"`
	Postgres  Postgres      `yaml:"postgres"`
	OpenAI    OpenAI        `yaml:"openai"`
	Dashboard Dashboard     `yaml:"dashboard"`
	Layout    layout.Params `yaml:"layout"`
	Assistant Assistant     `yaml:"assistant"`
	Batch     Batch         `yaml:"batch"`
	Logging   Logging       `yaml:"logging"`
}

func Default() *Root {
	return &Root{
		Server: Server{Port: "8080", Mode: "release"},
		DynamoDB: DynamoDB{
			Endpoint:    "http://localhost:8000",
			Region:      "us-east-1",
			AccessKeyID: "dummy",
			SecretKey:   "dummy",
			VconTable:   "vcons",
			ThreadTable: "Threads",
		},
		OpenAI: OpenAI{Model: "gpt-4o-mini"},
		Dashboard: Dashboard{
			PageSize:       5,
			TickIntervalMS: 16,
			ViewportWidth:  1280,
			ViewportHeight: 800,
			LayoutSeed:     1,
		},
		Layout: layout.DefaultParams(),
		Assistant: Assistant{
			Instructions: "You are a helpful assistant.",
			HistoryLimit: 20,
		},
		Batch:   Batch{IntervalMinutes: 10},
		Logging: Logging{Level: "info"},
	}
}

// GetOpenAIKey reads the key from the environment.
func GetOpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// Load reads config/<CONFIG_ENV>/config.yaml or ./config.yaml over the
// defaults, then applies environment overrides. A missing file is not an
// error.
func Load() (*Root, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	guess := []string{
		filepath.Join("config", env, "config.yaml"),
		"config.yaml",
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		guess = []string{p}
	}

	cfg := Default()
	for _, p := range guess {
		b, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", p, err)
		}
		break
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Root) applyEnvOverrides() {
	if key := GetOpenAIKey(); key != "" {
		c.OpenAI.APIKey = key
	}
	if v := os.Getenv("DYNAMODB_ENDPOINT"); v != "" {
		c.DynamoDB.Endpoint = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ASSISTANT_GROUNDING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Assistant.GroundWithFilteredSet = b
		}
	}
}

func (c *Root) Validate() error {
	var problems []string
	if c.DynamoDB.VconTable == "" {
		problems = append(problems, "dynamodb.vcon_table is empty")
	}
	if c.DynamoDB.ThreadTable == "" {
		problems = append(problems, "dynamodb.thread_table is empty")
	}
	if c.Dashboard.PageSize <= 0 {
		problems = append(problems, "dashboard.page_size must be positive")
	}
	if c.Dashboard.TickIntervalMS <= 0 {
		problems = append(problems, "dashboard.tick_interval_ms must be positive")
	}
	if c.Dashboard.ViewportWidth <= 0 || c.Dashboard.ViewportHeight <= 0 {
		problems = append(problems, "dashboard viewport must be positive")
	}
	if c.Layout.VelocityDecay < 0 || c.Layout.VelocityDecay > 1 {
		problems = append(problems, "layout.velocity_decay must be within [0,1]")
	}
	if c.Layout.AlphaDecay <= 0 || c.Layout.AlphaDecay >= 1 {
		problems = append(problems, "layout.alpha_decay must be within (0,1)")
	}
	if c.Layout.CollideIterations < 0 {
		problems = append(problems, "layout.collide_iterations must not be negative")
	}
	if c.Batch.IntervalMinutes <= 0 {
		problems = append(problems, "batch.interval_minutes must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (d Dashboard) TickInterval() time.Duration {
	return time.Duration(d.TickIntervalMS) * time.Millisecond
}

func (b Batch) Interval() time.Duration {
	return time.Duration(b.IntervalMinutes) * time.Minute
}
