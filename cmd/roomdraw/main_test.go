package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/derekprior/roomdraw/internal/config"
	"github.com/derekprior/roomdraw/internal/validator"
)

func TestConfigTemplateLoads(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(configTemplate))
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if len(cfg.Teams) != 6 || len(cfg.Rooms) != 2 {
		t.Errorf("template teams = %d, rooms = %d", len(cfg.Teams), len(cfg.Rooms))
	}
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomdraw.yaml")
	if err := runInit(path); err != nil {
		t.Fatalf("runInit() error: %v", err)
	}
	if _, err := config.LoadFromFile(path); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
	if err := runInit(path); err == nil {
		t.Error("expected error when the file already exists")
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		got, err := resolveConfigPath("custom.yaml")
		if err != nil || got != "custom.yaml" {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("working directory", func(t *testing.T) {
		t.Chdir(t.TempDir())
		if err := os.WriteFile(defaultConfigFile, []byte(configTemplate), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := resolveConfigPath("")
		if err != nil || got != defaultConfigFile {
			t.Errorf("got %q, %v", got, err)
		}
	})
}

func TestRunGenerateAndValidate(t *testing.T) {
	t.Setenv(config.EnvS3Bucket, "")
	dir := t.TempDir()
	configPath := filepath.Join(dir, "roomdraw.yaml")
	if err := runInit(configPath); err != nil {
		t.Fatalf("runInit() error: %v", err)
	}

	opts := generateOptions{
		output: filepath.Join(dir, "schedule.xlsx"),
		csv:    filepath.Join(dir, "schedule.csv"),
	}
	if err := runGenerate(t.Context(), configPath, opts); err != nil {
		t.Fatalf("runGenerate() error: %v", err)
	}
	if _, err := os.Stat(opts.csv); err != nil {
		t.Errorf("csv not written: %v", err)
	}

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	violations, err := validator.Validate(cfg, opts.output)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	for _, v := range violations {
		if v.Type == "error" {
			t.Errorf("generated schedule has violation: %s", v.Message)
		}
	}

	if err := runValidate(configPath, opts.output); err != nil {
		t.Errorf("runValidate() error: %v", err)
	}
}
