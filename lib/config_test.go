package lib

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 80, cfg.Detector.CandidateArea)
	assert.Equal(t, 120, cfg.Detector.ConfirmedArea)
	assert.Equal(t, 10, cfg.Direction.WindowFrames)
	assert.Equal(t, 0.007, cfg.Steering.NearThreshold)
	assert.Equal(t, 0.045, cfg.Steering.Increment)
	assert.Equal(t, 0.15, cfg.Steering.HardTurn)
	assert.Equal(t, "Group_02", cfg.Output.Group)
	assert.Len(t, cfg.Segmenter.Yellow, 2)
	assert.Len(t, cfg.Segmenter.Blue, 1)
	assert.Len(t, cfg.Segmenter.Blackout, 2)
}

func TestBox_RectIsInclusive(t *testing.T) {
	b := Box{X0: 150, Y0: 385, X1: 500, Y1: 500}
	r := b.Rect()
	assert.Equal(t, image.Rect(150, 385, 501, 501), r)
	assert.True(t, image.Pt(500, 500).In(r))
	assert.False(t, image.Pt(501, 500).In(r))
}

func TestSensorMapping_Side(t *testing.T) {
	m := DefaultSensorMapping()

	side, ok := m.Side(1)
	assert.True(t, ok)
	assert.Equal(t, SideLeft, side)

	side, ok = m.Side(3)
	assert.True(t, ok)
	assert.Equal(t, SideRight, side)

	_, ok = m.Side(2)
	assert.False(t, ok)
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "detector": {"candidate_area": 60, "confirmed_area": 150},
  "steering": {"near_threshold": 0.01},
  "output": {"group": "Group_07"}
}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Detector.CandidateArea)
	assert.Equal(t, 150, cfg.Detector.ConfirmedArea)
	assert.Equal(t, 0.01, cfg.Steering.NearThreshold)
	assert.Equal(t, 0.045, cfg.Steering.Increment, "omitted fields keep defaults")
	assert.Equal(t, "Group_07", cfg.Output.Group)
	assert.Equal(t, DefaultSegmenterConfig(), cfg.Segmenter)
}

func TestLoadConfig_RoundTrip(t *testing.T) {
	want := DefaultConfig()
	want.Segmenter.Blue = append(want.Segmenter.Blue, HSVRange{Lower: [3]float64{100, 60, 40}, Upper: [3]float64{120, 255, 255}})
	want.Sensors = SensorMapping{LeftStamp: 11, RightStamp: 13}
	want.View.SnapshotDir = "/tmp/frames"

	raw, err := json.Marshal(want)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "full.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"detector": `), 0o644))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "parse config")

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"direction": {"window_frames": 0}}`), 0o644))
	_, err = LoadConfig(invalid)
	assert.ErrorContains(t, err, "window_frames")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"no blue ranges", func(c *Config) { c.Segmenter.Blue = nil }, "at least one"},
		{"hue above 180", func(c *Config) { c.Segmenter.Yellow[0].Upper[0] = 200 }, "hue"},
		{"inverted saturation", func(c *Config) {
			c.Segmenter.Blue[0].Lower[1] = 250
			c.Segmenter.Blue[0].Upper[1] = 100
		}, "saturation"},
		{"negative candidate area", func(c *Config) { c.Detector.CandidateArea = -1 }, "candidate_area"},
		{"confirmed below candidate", func(c *Config) { c.Detector.ConfirmedArea = 10 }, "confirmed_area"},
		{"shared stamps", func(c *Config) { c.Sensors.RightStamp = 1 }, "share stamp"},
		{"empty group", func(c *Config) { c.Output.Group = "" }, "group"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.errMsg)
		})
	}
}
