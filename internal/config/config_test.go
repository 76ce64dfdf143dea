package config

import (
	"os"
	"testing"
)

func TestGetDefaultRegionPrefersAWSRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("AWS_DEFAULT_REGION", "us-west-2")

	if got := GetDefaultRegion(); got != "eu-west-1" {
		t.Errorf("Expected region 'eu-west-1', got '%s'", got)
	}
}

func TestGetDefaultRegionFallsBackToDefaultRegion(t *testing.T) {
	// t.Setenv registers restoration, then the var is unset outright since
	// an empty-but-set AWS_REGION would still win the lookup.
	t.Setenv("AWS_REGION", "placeholder")
	os.Unsetenv("AWS_REGION")
	t.Setenv("AWS_DEFAULT_REGION", "ap-southeast-2")

	if got := GetDefaultRegion(); got != "ap-southeast-2" {
		t.Errorf("Expected region 'ap-southeast-2', got '%s'", got)
	}
}

func TestGetDefaultRegionFallback(t *testing.T) {
	t.Setenv("AWS_REGION", "placeholder")
	os.Unsetenv("AWS_REGION")
	t.Setenv("AWS_DEFAULT_REGION", "placeholder")
	os.Unsetenv("AWS_DEFAULT_REGION")

	if got := GetDefaultRegion(); got != "us-east-1" {
		t.Errorf("Expected region 'us-east-1', got '%s'", got)
	}
}

func TestGetDefaultProfile(t *testing.T) {
	t.Setenv("AWS_PROFILE", "uat-admin")
	if got := GetDefaultProfile(); got != "uat-admin" {
		t.Errorf("Expected profile 'uat-admin', got '%s'", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AWS_PROFILE", "staging")
	cfg := Load()

	if cfg.Profile != "staging" {
		t.Errorf("Expected profile 'staging', got '%s'", cfg.Profile)
	}
	if cfg.Command != DefaultCommand {
		t.Errorf("Expected command '%s', got '%s'", DefaultCommand, cfg.Command)
	}
	if cfg.LogLines != 50 {
		t.Errorf("Expected 50 log lines, got %d", cfg.LogLines)
	}
}
