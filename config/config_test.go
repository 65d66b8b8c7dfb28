package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, DefaultPacketSize, cfg.PacketSize)
	assert.EqualValues(t, 0, cfg.SendRate, "默认不限速")
	assert.EqualValues(t, 0, cfg.Duration, "默认不限时长")
	assert.EqualValues(t, 0, cfg.MaxPackets, "默认不限报文数")
	assert.False(t, cfg.EnableSend, "默认只接收")
	assert.NoError(t, cfg.Validate())
}

func TestValidatePacketSize(t *testing.T) {
	tests := []struct {
		name string
		size int
		ok   bool
	}{
		{"下限", MinPacketSize, true},
		{"上限", MaxPacketSize, true},
		{"默认值", DefaultPacketSize, true},
		{"低于下限", 16, false},
		{"高于上限", 2000, false},
		{"零", 0, false},
		{"负数", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.PacketSize = tt.size
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateNegativeDuration(t *testing.T) {
	cfg := NewConfig()
	cfg.Duration = Duration(-time.Second)
	assert.Error(t, cfg.Validate())
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	assert.Error(t, cfg.Validate())
}

func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"packet_size": 256,
		"send_rate": 115200,
		"duration": "30s",
		"max_packets": 1000,
		"enable_send": true
	}`)

	cfg, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.PacketSize)
	assert.EqualValues(t, 115200, cfg.SendRate)
	assert.Equal(t, 30*time.Second, cfg.Duration.Duration())
	assert.EqualValues(t, 1000, cfg.MaxPackets)
	assert.True(t, cfg.EnableSend)
	assert.NoError(t, cfg.Validate())
}

func TestFromJSONPartial(t *testing.T) {
	cfg, err := FromJSON([]byte(`{"enable_send": true}`))
	require.NoError(t, err)

	// 未出现的字段保持默认值
	assert.Equal(t, DefaultPacketSize, cfg.PacketSize)
	assert.True(t, cfg.EnableSend)
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration

	require.NoError(t, d.UnmarshalJSON([]byte(`"1h30m"`)))
	assert.Equal(t, 90*time.Minute, d.Duration())

	// 数字按纳秒解析
	require.NoError(t, d.UnmarshalJSON([]byte(`5000000000`)))
	assert.Equal(t, 5*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalJSON([]byte(`"not-a-duration"`)))
	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linktest.json")
	content := `{"packet_size": 512, "duration": "10s"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.PacketSize)
	assert.Equal(t, 10*time.Second, cfg.Duration.Duration())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
