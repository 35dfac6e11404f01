// Package config holds the settings consumed by the iSER target helpers and
// loads them from a YAML file and ISER_* environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"git.srvlab.io/whiskey/iser-target-admin/pkg/utils"
)

const (
	// HelperTgtAdm selects the tgt-admin backed helper
	HelperTgtAdm = "tgtadm"

	// HelperFake selects the in-memory helper
	HelperFake = "fake"

	// EnvPrefix is prepended to upper-cased keys to form environment variable names
	EnvPrefix = "ISER"

	// statePathVar is expanded in volumes_dir
	statePathVar = "$state_path"
)

// Configuration keys
const (
	KeyIserHelper         = "iser_helper"
	KeyStatePath          = "state_path"
	KeyVolumesDir         = "volumes_dir"
	KeyIserTargetPrefix   = "iser_target_prefix"
	KeyVolumeNameTemplate = "volume_name_template"
	KeyRootHelper         = "root_helper"
	KeyTgtAdminPath       = "tgt_admin_path"
)

// Config holds target administration settings
type Config struct {
	// IserHelper selects the backend: "tgtadm" or "fake"
	IserHelper string `mapstructure:"iser_helper"`

	// StatePath is the top-level state directory
	StatePath string `mapstructure:"state_path"`

	// VolumesDir holds one configuration record per volume; tgtd must include <VolumesDir>/*
	VolumesDir string `mapstructure:"volumes_dir"`

	// IserTargetPrefix is prepended to volume ids to form IQNs
	IserTargetPrefix string `mapstructure:"iser_target_prefix"`

	// VolumeNameTemplate maps a volume id to its record name (one %s)
	VolumeNameTemplate string `mapstructure:"volume_name_template"`

	// RootHelper is prepended to privileged commands; empty runs them directly
	RootHelper string `mapstructure:"root_helper"`

	// TgtAdminPath is the tgt-admin executable
	TgtAdminPath string `mapstructure:"tgt_admin_path"`
}

// defaults returns key/value defaults. volumes_dir is left unexpanded.
func defaults() map[string]string {
	return map[string]string{
		KeyIserHelper:         HelperTgtAdm,
		KeyStatePath:          "/var/lib/cinder",
		KeyVolumesDir:         statePathVar + "/volumes",
		KeyIserTargetPrefix:   "iqn.2010-10.org.iser.openstack:",
		KeyVolumeNameTemplate: "volume-%s",
		KeyRootHelper:         "sudo",
		KeyTgtAdminPath:       "tgt-admin",
	}
}

// Default returns the default configuration with volumes_dir expanded
func Default() Config {
	d := defaults()
	cfg := Config{
		IserHelper:         d[KeyIserHelper],
		StatePath:          d[KeyStatePath],
		VolumesDir:         d[KeyVolumesDir],
		IserTargetPrefix:   d[KeyIserTargetPrefix],
		VolumeNameTemplate: d[KeyVolumeNameTemplate],
		RootHelper:         d[KeyRootHelper],
		TgtAdminPath:       d[KeyTgtAdminPath],
	}
	cfg.expand()
	return cfg
}

// Load reads configuration from path (optional, YAML) and ISER_* environment
// variables on top of the defaults, then validates it
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		klog.V(4).Infof("Loaded configuration from %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.expand()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// expand substitutes $state_path in VolumesDir
func (c *Config) expand() {
	if c.StatePath != "" {
		c.VolumesDir = strings.ReplaceAll(c.VolumesDir, statePathVar, c.StatePath)
	}
	if c.VolumesDir != "" && !strings.Contains(c.VolumesDir, statePathVar) {
		c.VolumesDir = filepath.Clean(c.VolumesDir)
	}
}

// Validate checks that the configuration can drive a target helper
func (c Config) Validate() error {
	switch c.IserHelper {
	case HelperTgtAdm, HelperFake:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", KeyIserHelper, HelperTgtAdm, HelperFake, c.IserHelper)
	}

	// The fake helper never touches the filesystem or tgt-admin
	if c.IserHelper == HelperFake {
		return nil
	}

	if c.VolumesDir == "" {
		return fmt.Errorf("%s is required", KeyVolumesDir)
	}
	if strings.Contains(c.VolumesDir, statePathVar) {
		return fmt.Errorf("%s references %s but %s is empty", KeyVolumesDir, statePathVar, KeyStatePath)
	}
	if !filepath.IsAbs(c.VolumesDir) {
		return fmt.Errorf("%s must be an absolute path, got %q", KeyVolumesDir, c.VolumesDir)
	}
	if c.IserTargetPrefix == "" {
		return fmt.Errorf("%s is required", KeyIserTargetPrefix)
	}
	if err := utils.ValidateVolumeNameTemplate(c.VolumeNameTemplate); err != nil {
		return fmt.Errorf("%s: %w", KeyVolumeNameTemplate, err)
	}
	if c.TgtAdminPath == "" {
		return fmt.Errorf("%s is required", KeyTgtAdminPath)
	}

	return nil
}
