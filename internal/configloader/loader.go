// Package configloader resolves the effective atclint configuration. It
// discovers system, user and project files, merges them with environment
// and command-line overrides, and validates the result.
package configloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/lint"
)

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// WorkingDir is where the project search starts. Defaults to the
	// current directory.
	WorkingDir string

	// ExplicitPath is the file named by --config. It is layered above the
	// project file rather than replacing it.
	ExplicitPath string

	IgnoreSystemConfig  bool
	IgnoreUserConfig    bool
	IgnoreProjectConfig bool
	IgnoreEnv           bool

	// Registry resolves rule names in config files to rule IDs and flags
	// unknown rules. Nil keeps keys as written and skips the check.
	Registry *lint.Registry

	// CLIConfig holds values from command-line flags; highest precedence.
	CLIConfig *config.Config
}

// LoadResult contains the resolved configuration and where it came from.
type LoadResult struct {
	Config *config.Config

	Paths *ConfigPaths

	// LoadedFrom lists the files actually read, lowest precedence first.
	LoadedFrom []string

	// Warnings are non-fatal findings such as unknown rule keys.
	Warnings []string
}

// Load resolves the final configuration. Precedence, lowest first:
//  1. Defaults
//  2. System config (/etc/atclint/config.yaml)
//  3. User config ($XDG_CONFIG_HOME/atclint/config.yaml)
//  4. Project config (.atclint.yml upward search)
//  5. Explicit config (opts.ExplicitPath)
//  6. Environment variables (ATCLINT_*)
//  7. CLI flags (opts.CLIConfig)
func Load(ctx context.Context, opts LoadOptions) (*LoadResult, error) {
	workDir := opts.WorkingDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		workDir = wd
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	paths, err := DiscoverPaths(ctx, workDir)
	if err != nil {
		return nil, fmt.Errorf("discover paths: %w", err)
	}
	paths.Explicit = opts.ExplicitPath

	result := &LoadResult{Paths: paths}
	cfg := config.NewConfig()

	layers := []struct {
		name    string
		path    string
		skipped bool
	}{
		{"system", paths.System, opts.IgnoreSystemConfig},
		{"user", paths.User, opts.IgnoreUserConfig},
		{"project", paths.Project, opts.IgnoreProjectConfig},
		{"explicit", paths.Explicit, false},
	}
	for _, layer := range layers {
		if layer.skipped || layer.path == "" {
			continue
		}
		cfg, err = applyFile(cfg, layer.path, opts.Registry, result)
		if err != nil {
			return nil, fmt.Errorf("load %s config: %w", layer.name, err)
		}
		result.LoadedFrom = append(result.LoadedFrom, layer.path)
	}

	if !opts.IgnoreEnv {
		if err := LoadFromEnv(cfg); err != nil {
			return nil, fmt.Errorf("load environment: %w", err)
		}
	}

	if opts.CLIConfig != nil {
		cli := opts.CLIConfig.Clone()
		normalizeRuleKeys(cli, opts.Registry, result)
		cfg = merge(cfg, cli)
	}

	// The default file and values from the environment or flags are
	// relative to the working directory.
	if cfg.GlobalUsingsFile != "" && !filepath.IsAbs(cfg.GlobalUsingsFile) {
		cfg.GlobalUsingsFile = filepath.Join(workDir, cfg.GlobalUsingsFile)
	}

	validation := Validate(cfg, opts.Registry)
	if !validation.Valid() {
		return nil, &validation.Errors[0]
	}
	for _, w := range validation.Warnings {
		result.Warnings = append(result.Warnings, w.Error())
	}

	result.Config = cfg
	return result, nil
}

// LoadFile reads a single configuration file without layering defaults.
func LoadFile(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg, err := config.Decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	resolveGlobalUsingsFile(cfg, path)
	return cfg, nil
}

// applyFile layers the file at path over base.
func applyFile(base *config.Config, path string, registry *lint.Registry, result *LoadResult) (*config.Config, error) {
	layer, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	normalizeRuleKeys(layer, registry, result)

	merged := merge(base, layer)
	if err := applyToggles(merged, path); err != nil {
		return nil, err
	}
	return merged, nil
}

// toggles captures the section switches a file sets explicitly, so a file
// can turn off what a lower layer turned on.
type toggles struct {
	Backups struct {
		Enabled *bool `yaml:"enabled" toml:"enabled"`
	} `yaml:"backups" toml:"backups"`
	Cache struct {
		Enabled *bool `yaml:"enabled" toml:"enabled"`
	} `yaml:"cache" toml:"cache"`
}

func applyToggles(cfg *config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var set toggles
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err = toml.Decode(string(data), &set)
	} else {
		err = yaml.Unmarshal(data, &set)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if set.Backups.Enabled != nil {
		cfg.Backups.Enabled = *set.Backups.Enabled
	}
	if set.Cache.Enabled != nil {
		cfg.Cache.Enabled = *set.Cache.Enabled
	}
	return nil
}

// resolveGlobalUsingsFile anchors a relative global usings path at the
// directory of the config file that named it.
func resolveGlobalUsingsFile(cfg *config.Config, configPath string) {
	if cfg.GlobalUsingsFile == "" || filepath.IsAbs(cfg.GlobalUsingsFile) {
		return
	}
	dir := filepath.Dir(configPath)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	cfg.GlobalUsingsFile = filepath.Join(dir, cfg.GlobalUsingsFile)
}

// normalizeRuleKeys rewrites rule names ("parameter-layout") and lower-case
// IDs to canonical IDs. When two keys name the same rule the later one
// wins and a warning is recorded. Unknown keys are kept for Validate.
func normalizeRuleKeys(cfg *config.Config, registry *lint.Registry, result *LoadResult) {
	if registry == nil {
		return
	}

	if len(cfg.Rules) > 0 {
		normalized := make(map[string]config.RuleConfig, len(cfg.Rules))
		seen := make(map[string]string, len(cfg.Rules))

		for _, key := range sortedKeys(cfg.Rules) {
			ruleCfg := cfg.Rules[key]
			id, _, ok := registry.Resolve(key)
			if !ok {
				normalized[key] = ruleCfg
				continue
			}
			if original, dup := seen[id]; dup {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("duplicate rule configuration: %q and %q both refer to %s; using %q",
						original, key, id, key))
			}
			seen[id] = key
			normalized[id] = ruleCfg
		}
		cfg.Rules = normalized
	}

	cfg.EnableRules = resolveIDs(cfg.EnableRules, registry)
	cfg.DisableRules = resolveIDs(cfg.DisableRules, registry)
	cfg.FixRules = resolveIDs(cfg.FixRules, registry)
}

func resolveIDs(keys []string, registry *lint.Registry) []string {
	if keys == nil {
		return nil
	}
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = key
		if id, _, ok := registry.Resolve(key); ok {
			out[i] = id
		}
	}
	return out
}

func sortedKeys(rules map[string]config.RuleConfig) []string {
	keys := make([]string, 0, len(rules))
	for key := range rules {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
