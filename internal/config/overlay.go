package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CompaniesFile is the optional side file listing ATS boards to poll.
type CompaniesFile struct {
	Lever           []Company `yaml:"lever"`
	Greenhouse      []Company `yaml:"greenhouse"`
	SmartRecruiters []Company `yaml:"smartrecruiters"`
}

// OverlayCompanies replaces the configured ATS companies with the non-empty
// lists from companiesPath. A missing file is not an error.
func OverlayCompanies(cfg *Config, companiesPath string) error {
	if companiesPath == "" {
		return nil
	}
	b, err := os.ReadFile(companiesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read companies file: %w", err)
	}

	var cf CompaniesFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return fmt.Errorf("parse companies file: %w", err)
	}

	if len(cf.Greenhouse) > 0 {
		cfg.Sources.Greenhouse.Companies = cf.Greenhouse
	}
	if len(cf.Lever) > 0 {
		cfg.Sources.Lever.Companies = cf.Lever
	}
	if len(cf.SmartRecruiters) > 0 {
		cfg.Sources.SmartRecruiters.Companies = cf.SmartRecruiters
	}
	return nil
}
