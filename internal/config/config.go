package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// This file defines the configuration structures; loading happens in
// viper_config.go.

// ServerConfig is the full configuration: HTTP settings plus the match
// regulations handed to the rules engine.
type ServerConfig struct {
	Server      ServerSettings `mapstructure:"server" yaml:"server"`
	Regulations Regulations    `mapstructure:"regulations" yaml:"regulations"`
}

// ServerSettings contains server-wide settings.
type ServerSettings struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            string        `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout     time.Duration `mapstructure:"idleTimeout" yaml:"idleTimeout"` // 0 for SSE support
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `mapstructure:"requestTimeout" yaml:"requestTimeout"`

	// Rate limiting (golang.org/x/time/rate)
	RateLimit      float64 `mapstructure:"rateLimit" yaml:"rateLimit"`
	RateLimitBurst int     `mapstructure:"rateLimitBurst" yaml:"rateLimitBurst"`

	MaxRequestSize int64 `mapstructure:"maxRequestSize" yaml:"maxRequestSize"`

	MaxPlayersPerMatch int `mapstructure:"maxPlayersPerMatch" yaml:"maxPlayersPerMatch"`
	MinPlayersPerMatch int `mapstructure:"minPlayersPerMatch" yaml:"minPlayersPerMatch"`
	MatchCodeLength    int `mapstructure:"matchCodeLength" yaml:"matchCodeLength"`
}

// Regulations are the rule-set options injected into a match: role
// distribution, phase time limits, vote visibility defaults, and the
// validation mode. The validation mode is an explicit flag, never derived
// from the runtime environment.
type Regulations struct {
	Validation    string                   `mapstructure:"validation" yaml:"validation"` // "strict" or "off"
	PhaseLimits   map[string]time.Duration `mapstructure:"phaseLimits" yaml:"phaseLimits,omitempty"`
	Distributions []Distribution           `mapstructure:"distributions" yaml:"distributions"`
	Votes         VoteRules                `mapstructure:"votes" yaml:"votes"`
}

// Distribution maps a player count to role counts. Players short of the
// role total are filled with villagers at assignment time.
type Distribution struct {
	Players int            `mapstructure:"players" yaml:"players"`
	Roles   map[string]int `mapstructure:"roles" yaml:"roles"`
}

// VoteRules are the default vote-visibility settings for new matches.
type VoteRules struct {
	ShowVoterNames    bool `mapstructure:"showVoterNames" yaml:"showVoterNames"`
	ShowVoteCount     bool `mapstructure:"showVoteCount" yaml:"showVoteCount"`
	ShowRealTimeVotes bool `mapstructure:"showRealTimeVotes" yaml:"showRealTimeVotes"`
	AnonymousUntilEnd bool `mapstructure:"anonymousUntilEnd" yaml:"anonymousUntilEnd"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Host:               "0.0.0.0",
			Port:               "8080",
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       0, // 0 for SSE support
			IdleTimeout:        0,
			ShutdownTimeout:    30 * time.Second,
			RequestTimeout:     60 * time.Second,
			RateLimit:          10,
			RateLimitBurst:     20,
			MaxRequestSize:     1 << 20,
			MaxPlayersPerMatch: 15,
			MinPlayersPerMatch: 4,
			MatchCodeLength:    5,
		},
		Regulations: Regulations{
			Validation: "strict",
			Distributions: []Distribution{
				{Players: 4, Roles: map[string]int{"werewolf": 1, "seer": 1}},
				{Players: 5, Roles: map[string]int{"werewolf": 1, "seer": 1, "knight": 1}},
				{Players: 7, Roles: map[string]int{"werewolf": 2, "seer": 1, "knight": 1, "medium": 1}},
				{Players: 9, Roles: map[string]int{"werewolf": 2, "seer": 1, "knight": 1, "medium": 1, "madman": 1}},
				{Players: 11, Roles: map[string]int{"werewolf": 3, "seer": 1, "knight": 1, "medium": 1, "madman": 1}},
			},
			Votes: VoteRules{
				ShowVoteCount:     true,
				AnonymousUntilEnd: true,
			},
		},
	}
}

// Validate checks the configuration for fatal construction-time problems.
func (c *ServerConfig) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port must be set")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server.host must be set")
	}
	if c.Server.MinPlayersPerMatch < 3 {
		return fmt.Errorf("server.minPlayersPerMatch must be at least 3, got %d", c.Server.MinPlayersPerMatch)
	}
	if c.Server.MaxPlayersPerMatch < c.Server.MinPlayersPerMatch {
		return fmt.Errorf("server.maxPlayersPerMatch %d below minimum %d",
			c.Server.MaxPlayersPerMatch, c.Server.MinPlayersPerMatch)
	}
	if c.Server.MatchCodeLength < 4 {
		return fmt.Errorf("server.matchCodeLength must be at least 4, got %d", c.Server.MatchCodeLength)
	}
	return c.Regulations.Validate()
}

// Validate checks the regulations.
func (r *Regulations) Validate() error {
	switch r.Validation {
	case "", "strict", "off":
	default:
		return fmt.Errorf("regulations.validation must be \"strict\" or \"off\", got %q", r.Validation)
	}
	if len(r.Distributions) == 0 {
		return fmt.Errorf("regulations.distributions must not be empty")
	}
	for _, d := range r.Distributions {
		if d.Players < 1 {
			return fmt.Errorf("distribution player count must be positive, got %d", d.Players)
		}
		total := 0
		for role, n := range d.Roles {
			if n < 0 {
				return fmt.Errorf("distribution for %d players: negative count for role %q", d.Players, role)
			}
			total += n
		}
		if total > d.Players {
			return fmt.Errorf("distribution for %d players assigns %d roles", d.Players, total)
		}
	}
	for phase, limit := range r.PhaseLimits {
		if limit < 0 {
			return fmt.Errorf("phase limit for %q is negative", phase)
		}
	}
	return nil
}

// DistributionFor returns the role counts for the given player count: the
// exact match if present, otherwise the largest distribution that fits.
func (r *Regulations) DistributionFor(players int) (map[string]int, error) {
	var best *Distribution
	for i := range r.Distributions {
		d := &r.Distributions[i]
		if d.Players > players {
			continue
		}
		if best == nil || d.Players > best.Players {
			best = d
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no role distribution fits %d players", players)
	}
	out := make(map[string]int, len(best.Roles))
	for role, n := range best.Roles {
		out[role] = n
	}
	return out, nil
}

// WriteDefault writes the built-in configuration as YAML, as a starting
// point for operators.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
