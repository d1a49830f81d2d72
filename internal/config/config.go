package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the service configuration read from config.toml. Agent and tool
// definitions live in their own files, named by Orchestrator.
type Config struct {
	DefaultLLM   string                `toml:"default_llm"`
	LLMs         map[string]*LLMConfig `toml:"llm"`
	Gateway      GatewayConfig         `toml:"gateway"`
	Orchestrator OrchestratorConfig    `toml:"orchestrator"`
	Knowledge    KnowledgeConfig       `toml:"knowledge"`
	Tracing      TracingConfig         `toml:"tracing"`
	Log          LogConfig             `toml:"log"`
	Breaker      BreakerConfig         `toml:"breaker"`
}

type LLMConfig struct {
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

type GatewayConfig struct {
	Addr string `toml:"addr"`
}

type OrchestratorConfig struct {
	AgentsFile        string   `toml:"agents_file"`
	ToolsFile         string   `toml:"tools_file"`
	MaxAgentCalls     int      `toml:"max_agent_calls"`
	MaxSteps          int      `toml:"max_steps"`
	LLMTimeout        Duration `toml:"llm_timeout"`
	ToolTimeout       Duration `toml:"tool_timeout"`
	AgentTimeout      Duration `toml:"agent_timeout"`
	MasterModel       string   `toml:"master_model"`
	MasterTemperature float64  `toml:"master_temperature"`
	Watch             bool     `toml:"watch"`
	Debounce          Duration `toml:"debounce"`
}

type KnowledgeConfig struct {
	Path string `toml:"path"`
}

type TracingConfig struct {
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type BreakerConfig struct {
	MaxFailures uint32   `toml:"max_failures"`
	Timeout     Duration `toml:"timeout"`
}

// Duration decodes TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		DefaultLLM: "openai",
		LLMs: map[string]*LLMConfig{
			"openai": {
				Model: "gpt-4o-mini",
			},
		},
		Gateway: GatewayConfig{
			Addr: ":8484",
		},
		Orchestrator: OrchestratorConfig{
			AgentsFile:        filepath.Join(configDir(), "agents.yaml"),
			MaxAgentCalls:     5,
			MaxSteps:          5,
			LLMTimeout:        Duration{60 * time.Second},
			ToolTimeout:       Duration{30 * time.Second},
			AgentTimeout:      Duration{120 * time.Second},
			MasterTemperature: 0.1,
			Watch:             true,
			Debounce:          Duration{250 * time.Millisecond},
		},
		Knowledge: KnowledgeConfig{
			Path: filepath.Join(configDir(), "knowledge.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the TOML file at path over Defaults. An empty path means the
// per-user default location; a missing file there is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, &ConfigError{Source: path, Err: err}
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, &ConfigError{Source: path, Problems: []string{fmt.Sprintf("unknown keys: %v", undecoded)}}
		}
		cfg.resolvePaths(filepath.Dir(path))
	} else if explicit {
		return nil, &ConfigError{Source: path, Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LLM returns the settings of the default provider.
func (c *Config) LLM() (*LLMConfig, error) {
	l, ok := c.LLMs[c.DefaultLLM]
	if !ok || l == nil {
		return nil, fmt.Errorf("llm %q is not configured", c.DefaultLLM)
	}
	return l, nil
}

func (c *Config) Validate() error {
	var problems []string
	if _, err := c.LLM(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Orchestrator.AgentsFile == "" {
		problems = append(problems, "orchestrator.agents_file is required")
	}
	if c.Orchestrator.MaxAgentCalls < 1 {
		problems = append(problems, "orchestrator.max_agent_calls must be at least 1")
	}
	if c.Orchestrator.MaxSteps < 1 {
		problems = append(problems, "orchestrator.max_steps must be at least 1")
	}
	if t := c.Orchestrator.MasterTemperature; t < 0 || t > 2 {
		problems = append(problems, "orchestrator.master_temperature must be between 0 and 2")
	}
	if len(problems) > 0 {
		return &ConfigError{Source: "config", Problems: problems}
	}
	return nil
}

// resolvePaths makes relative file references relative to the config file.
func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.Orchestrator.AgentsFile, &c.Orchestrator.ToolsFile, &c.Knowledge.Path} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

func DefaultPath() string {
	return filepath.Join(configDir(), "config.toml")
}

func configDir() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "agentplatform")
}
