package config

import (
	"os"
)

// DefaultCommand is the command started inside the container when none is given.
const DefaultCommand = "/bin/bash"

// Config holds the application configuration.
type Config struct {
	Profile  string
	Region   string
	Command  string
	LogLines int32
	Verbose  bool
}

// Load builds a Config from environment defaults. Flag values are applied on
// top by the command layer.
func Load() *Config {
	return &Config{
		Profile:  GetDefaultProfile(),
		Region:   GetDefaultRegion(),
		Command:  DefaultCommand,
		LogLines: 50,
	}
}

// GetDefaultProfile returns the AWS profile from the environment, or "default".
func GetDefaultProfile() string {
	if profile, ok := os.LookupEnv("AWS_PROFILE"); ok {
		return profile
	}
	return "default"
}

// GetDefaultRegion returns the default AWS region.
func GetDefaultRegion() string {
	if region, ok := os.LookupEnv("AWS_REGION"); ok {
		return region
	}
	if region, ok := os.LookupEnv("AWS_DEFAULT_REGION"); ok {
		return region
	}
	return "us-east-1"
}
