package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/wavrecorder/pkg/audio/types"
	"github.com/xaionaro-go/wavrecorder/pkg/capture"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadJSON(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "configs.json", `{
  "configs": [
    {"audioSource": "VOICE_CALL", "sampleRate": 8000, "channelCount": 1, "audioFormat": 8, "description": "Call"},
    {"description": "Only a name"},
    {"audioSource": "BOGUS", "sampleRate": "44100", "description": "Weakly typed"},
    {"channelCount": 17, "description": "Too many channels"},
    {"audioFormat": 12, "description": "Odd bits"}
  ]
}`)

	configs, err := Load(ctx, path)
	require.NoError(t, err)
	require.Len(t, configs, 3)

	require.Equal(t, capture.AudioConfig{
		Source:           types.SourceVoiceCall,
		SampleRate:       8000,
		ChannelCount:     1,
		BitDepth:         8,
		BufferMultiplier: capture.DefaultBufferMultiplier,
		MinBufferSize:    capture.DefaultMinBufferSize,
		Description:      "Call",
	}, configs[0])

	defaults := capture.DefaultAudioConfig()
	defaults.Description = "Only a name"
	require.Equal(t, defaults, configs[1])

	require.Equal(t, types.SourceMic, configs[2].Source)
	require.Equal(t, uint32(44100), configs[2].SampleRate)
}

func TestLoadYAML(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "configs.yaml", `
configs:
  - audioSource: unprocessed
    sampleRate: 96000
    channelCount: 6
    audioFormat: 24
    bufferMultiplier: 2
    audioFilePath: /tmp/out.wav
    device: hw:1
    description: Surround
`)

	configs, err := Load(ctx, path)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	cfg := configs[0]
	require.Equal(t, types.SourceUnprocessed, cfg.Source)
	require.Equal(t, uint32(96000), cfg.SampleRate)
	require.Equal(t, uint(6), cfg.ChannelCount)
	require.Equal(t, uint(24), cfg.BitDepth)
	require.Equal(t, 2, cfg.BufferMultiplier)
	require.Equal(t, "/tmp/out.wav", cfg.OutputPath)
	require.Equal(t, "hw:1", cfg.Device)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = Load(ctx, writeFile(t, "bad.json", `{"configs": [`))
	require.Error(t, err)

	_, err = Load(ctx, writeFile(t, "nolist.json", `{"something": 1}`))
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	configs, err := Defaults(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, configs)
	require.Equal(t, capture.DefaultAudioConfig(), configs[0])
	for _, cfg := range configs {
		require.NoError(t, capture.ValidateConfig(cfg), cfg.Description)
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	configs, err := Defaults(ctx)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "saved", "configs.yaml")
	require.NoError(t, Save(path, configs))

	loaded, err := Load(ctx, path)
	require.NoError(t, err)
	require.Equal(t, configs, loaded)
}

func TestLoadWithFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("built_in", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		configs, source, err := LoadWithFallback(ctx, "")
		require.NoError(t, err)
		require.Equal(t, "built-in", source)
		require.NotEmpty(t, configs)
	})

	t.Run("xdg", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", dir)
		path := filepath.Join(dir, "wavrecorder", "configs.json")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(`{"configs":[{"description":"mine"}]}`), 0644))

		configs, source, err := LoadWithFallback(ctx, "")
		require.NoError(t, err)
		require.Equal(t, path, source)
		require.Len(t, configs, 1)
		require.Equal(t, "mine", configs[0].Description)
	})

	t.Run("xdg_without_valid_records", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", dir)
		path := filepath.Join(dir, "wavrecorder", "configs.json")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(`{"configs":[{"channelCount":0}]}`), 0644))

		_, source, err := LoadWithFallback(ctx, "")
		require.NoError(t, err)
		require.Equal(t, "built-in", source)
	})

	t.Run("explicit_missing", func(t *testing.T) {
		_, _, err := LoadWithFallback(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestFind(t *testing.T) {
	configs, err := Defaults(context.Background())
	require.NoError(t, err)

	cfg, ok := Find(configs, "2")
	require.True(t, ok)
	require.Equal(t, configs[1], cfg)

	cfg, ok = Find(configs, "default RECORDING configuration")
	require.True(t, ok)
	require.Equal(t, configs[0], cfg)

	_, ok = Find(configs, "0")
	require.False(t, ok)
	_, ok = Find(configs, "nothing like this")
	require.False(t, ok)
}
