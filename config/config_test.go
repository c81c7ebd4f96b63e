package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"airdrums/synth"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := cfg.Addr(); got != "0.0.0.0:6000" {
		t.Fatalf("Addr() = %q, want 0.0.0.0:6000", got)
	}
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Listen.Port != 6000 || cfg.Audio.SampleRate != 44100 || cfg.Kit != "gm" {
		t.Fatalf("LoadFrom() = %+v, want defaults", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Listen.Port = 7001
	cfg.Audio.FadeMs = 40
	cfg.Kit = "rd8"
	cfg.Debug = true
	cfg.Lights = "Launchpad X"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if *got != *cfg {
		t.Fatalf("LoadFrom() = %+v, want %+v", got, cfg)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"listen":{"port":5005}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Listen.Port != 5005 {
		t.Fatalf("port = %d, want 5005", cfg.Listen.Port)
	}
	if cfg.Listen.Host != "0.0.0.0" {
		t.Fatalf("host = %q, want default", cfg.Listen.Host)
	}
	if cfg.Audio.MaxVoices != 32 || cfg.Kit != "gm" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", `{"listen":`},
		{"port", `{"listen":{"port":70000}}`},
		{"rate", `{"audio":{"sampleRate":100,"fadeMs":100,"maxVoices":32}}`},
		{"voices", `{"audio":{"sampleRate":44100,"fadeMs":100,"maxVoices":0}}`},
		{"fade", `{"audio":{"sampleRate":44100,"fadeMs":-1,"maxVoices":4}}`},
		{"kit", `{"kit":"tr909"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrom(path); err == nil {
				t.Fatal("LoadFrom() error = nil, want error")
			}
		})
	}
}

func TestValidateSampleRateSentinel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.SampleRate = 1
	if err := cfg.Validate(); !errors.Is(err, synth.ErrSampleRate) {
		t.Fatalf("Validate() error = %v, want ErrSampleRate", err)
	}
}
