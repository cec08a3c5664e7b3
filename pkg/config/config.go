// Package config loads recording profiles from JSON or YAML files.
//
// The file format is:
//
//	{"configs": [{"audioSource": "MIC", "sampleRate": 48000, ...}, ...]}
//
// Missing fields take the default values of capture.DefaultAudioConfig.
package config

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
	"github.com/xaionaro-go/wavrecorder/pkg/capture"
	"gopkg.in/yaml.v3"
)

//go:embed configs.json
var defaultConfigsJSON []byte

const (
	configsKey = "configs"
	appName    = "wavrecorder"
)

type File struct {
	Configs []Record `mapstructure:"configs" yaml:"configs"`
}

// Record is the on-disk representation of capture.AudioConfig.
type Record struct {
	AudioSource      string `mapstructure:"audioSource" yaml:"audioSource"`
	SampleRate       int    `mapstructure:"sampleRate" yaml:"sampleRate"`
	ChannelCount     int    `mapstructure:"channelCount" yaml:"channelCount"`
	AudioFormat      int    `mapstructure:"audioFormat" yaml:"audioFormat"`
	BufferMultiplier int    `mapstructure:"bufferMultiplier" yaml:"bufferMultiplier"`
	AudioFilePath    string `mapstructure:"audioFilePath" yaml:"audioFilePath,omitempty"`
	MinBufferSize    int    `mapstructure:"minBufferSize" yaml:"minBufferSize"`
	Device           string `mapstructure:"device" yaml:"device,omitempty"`
	Description      string `mapstructure:"description" yaml:"description"`
}

func DefaultRecord() Record {
	return RecordFromAudioConfig(capture.DefaultAudioConfig())
}

func RecordFromAudioConfig(cfg capture.AudioConfig) Record {
	return Record{
		AudioSource:      cfg.Source.String(),
		SampleRate:       int(cfg.SampleRate),
		ChannelCount:     int(cfg.ChannelCount),
		AudioFormat:      int(cfg.BitDepth),
		BufferMultiplier: cfg.BufferMultiplier,
		AudioFilePath:    cfg.OutputPath,
		MinBufferSize:    cfg.MinBufferSize,
		Device:           cfg.Device,
		Description:      cfg.Description,
	}
}

// AudioConfig converts the record; an unknown audio source falls back to MIC
// with a warning.
func (r Record) AudioConfig(ctx context.Context) capture.AudioConfig {
	source, err := types.ParseSource(r.AudioSource)
	if err != nil {
		logger.Warnf(ctx, "%v, using %s", err, source)
	}
	return capture.AudioConfig{
		Source:           source,
		SampleRate:       uint32(max(r.SampleRate, 0)),
		ChannelCount:     uint(max(r.ChannelCount, 0)),
		BitDepth:         uint(max(r.AudioFormat, 0)),
		BufferMultiplier: r.BufferMultiplier,
		MinBufferSize:    r.MinBufferSize,
		OutputPath:       r.AudioFilePath,
		Device:           r.Device,
		Description:      r.Description,
	}
}

// Load reads the profiles from a JSON or YAML file (by extension). Records
// which fail validation are skipped with a warning.
func Load(ctx context.Context, path string) ([]capture.AudioConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file '%s': %w", path, err)
	}
	return decode(ctx, v)
}

// Defaults returns the built-in profiles.
func Defaults(ctx context.Context) ([]capture.AudioConfig, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(defaultConfigsJSON)); err != nil {
		return nil, fmt.Errorf("unable to parse the built-in configs: %w", err)
	}
	return decode(ctx, v)
}

func decode(ctx context.Context, v *viper.Viper) ([]capture.AudioConfig, error) {
	raw, ok := v.Get(configsKey).([]any)
	if !ok {
		return nil, fmt.Errorf("the '%s' list is missing", configsKey)
	}

	var result []capture.AudioConfig
	for idx, item := range raw {
		rec := DefaultRecord()
		rec.Description = ""
		if err := mapstructure.WeakDecode(item, &rec); err != nil {
			logger.Warnf(ctx, "skipping configs[%d]: unable to decode: %v", idx, err)
			continue
		}
		if rec.Description == "" {
			rec.Description = fmt.Sprintf("Custom configuration #%d", idx+1)
		}

		cfg := rec.AudioConfig(ctx)
		if err := capture.ValidateConfig(cfg); err != nil {
			logger.Warnf(ctx, "skipping configs[%d] '%s': %v", idx, rec.Description, err)
			continue
		}
		result = append(result, cfg)
	}
	logger.Debugf(ctx, "parsed %d of %d configs", len(result), len(raw))
	return result, nil
}

// SearchPaths returns the locations checked by LoadWithFallback, in order.
func SearchPaths() []string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		dir = filepath.Join(home, ".config")
	}
	dir = filepath.Join(dir, appName)
	return []string{
		filepath.Join(dir, "configs.yaml"),
		filepath.Join(dir, "configs.yml"),
		filepath.Join(dir, "configs.json"),
	}
}

// LoadWithFallback loads the explicit path if given; otherwise the first
// existing file of SearchPaths which yields at least one profile; otherwise
// the built-in profiles. It also returns where the profiles came from.
func LoadWithFallback(ctx context.Context, path string) ([]capture.AudioConfig, string, error) {
	if path != "" {
		configs, err := Load(ctx, path)
		return configs, path, err
	}

	for _, candidate := range SearchPaths() {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		configs, err := Load(ctx, candidate)
		if err != nil {
			logger.Warnf(ctx, "%v", err)
			continue
		}
		if len(configs) > 0 {
			return configs, candidate, nil
		}
	}

	configs, err := Defaults(ctx)
	return configs, "built-in", err
}

// Save writes the profiles as YAML.
func Save(path string, configs []capture.AudioConfig) error {
	var f File
	for _, cfg := range configs {
		f.Configs = append(f.Configs, RecordFromAudioConfig(cfg))
	}
	b, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("unable to serialize the configs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create the directory for '%s': %w", path, err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("unable to write '%s': %w", path, err)
	}
	return nil
}

// Find returns the profile with the given description (case-insensitive) or,
// if name is a number, the profile with that 1-based index.
func Find(configs []capture.AudioConfig, name string) (capture.AudioConfig, bool) {
	if idx, err := strconv.Atoi(name); err == nil {
		if idx >= 1 && idx <= len(configs) {
			return configs[idx-1], true
		}
		return capture.AudioConfig{}, false
	}
	for _, cfg := range configs {
		if strings.EqualFold(cfg.Description, name) {
			return cfg, true
		}
	}
	return capture.AudioConfig{}, false
}
