package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	dir, err := ioutil.TempDir("", "grblstream")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	name := filepath.Join(dir, "config.yaml")
	require.NoError(t, ioutil.WriteFile(name, []byte(data), 0644))
	return name
}

func TestLoad(t *testing.T) {
	name := writeConfig(t, `
transport: spjs
port: COM3
spjs: ws://localhost:8989/ws
status_interval: 100ms
startup:
  - $$
  - G21
hold_on_error: true
`)
	cfg, err := Load(name)
	require.NoError(t, err)

	assert.Equal(t, "spjs", cfg.Transport)
	assert.Equal(t, "COM3", cfg.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.StatusInterval)
	assert.Equal(t, []string{"$$", "G21"}, cfg.Startup)
	assert.True(t, cfg.HoldOnError)

	// defaults remain for missing keys
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 127, cfg.Capacity)
	assert.NoError(t, cfg.Validate())

	mc := cfg.MachineConfig()
	require.Len(t, mc.Board.Startup, 2)
	assert.Equal(t, "G21", mc.Board.Startup[1].String())
	assert.True(t, mc.HoldOnError)
}

func TestLoadUnknownField(t *testing.T) {
	_, err := Load(writeConfig(t, "bogus: 1\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(os.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	check := func(name string, fn func(*Config), ok bool) {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			fn(&cfg)
			if ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}

	check("default", func(c *Config) {}, true)
	check("transport", func(c *Config) { c.Transport = "usb" }, false)
	check("port", func(c *Config) { c.Port = "" }, false)
	check("spjs-url", func(c *Config) { c.Transport = "spjs"; c.SPJS = "" }, false)
	check("baud", func(c *Config) { c.Baud = 0 }, false)
	check("capacity", func(c *Config) { c.Capacity = -1 }, false)
	check("history", func(c *Config) { c.HistoryLength = 0 }, false)
	check("startup-fits", func(c *Config) { c.Capacity = 3; c.Startup = []string{"$$"} }, true)
	check("startup-too-long", func(c *Config) { c.Capacity = 2; c.Startup = []string{"$$"} }, false)
}
