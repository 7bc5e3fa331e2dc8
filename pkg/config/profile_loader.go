package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// StewardVersion is the release version checked against profile
// compatibility constraints.
const StewardVersion = "1.4.0"

// NetworkProfile describes a deployment target: the network the engine
// operates on and the admission rules enforced there.
type NetworkProfile struct {
	Name           string   `yaml:"name" json:"name"`
	Network        string   `yaml:"network" json:"network"`
	Requires       string   `yaml:"requires,omitempty" json:"requires,omitempty"`
	EngineURL      string   `yaml:"engine_url,omitempty" json:"engine_url,omitempty"`
	AdmissionRules []string `yaml:"admission_rules,omitempty" json:"admission_rules,omitempty"`
	Labels         []string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// LoadProfile loads a network profile YAML by network name. It searches
// the profiles directory for profile_<network>.yaml and rejects profiles
// whose Requires constraint excludes the running version.
func LoadProfile(profilesDir, network string) (*NetworkProfile, error) {
	network = strings.ToLower(network)
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", network))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", network, err)
	}

	var profile NetworkProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", network, err)
	}
	if profile.Network == "" {
		profile.Network = network
	}
	if err := profile.CheckCompatible(StewardVersion); err != nil {
		return nil, err
	}
	return &profile, nil
}

// LoadAllProfiles loads all profile_*.yaml files from the profiles
// directory, keyed by network name. Incompatible profiles fail the load.
func LoadAllProfiles(profilesDir string) (map[string]*NetworkProfile, error) {
	matches, err := filepath.Glob(filepath.Join(profilesDir, "profile_*.yaml"))
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*NetworkProfile, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var profile NetworkProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if profile.Network == "" {
			base := filepath.Base(path)
			profile.Network = strings.TrimSuffix(strings.TrimPrefix(base, "profile_"), ".yaml")
		}
		if err := profile.CheckCompatible(StewardVersion); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		profiles[profile.Network] = &profile
	}
	return profiles, nil
}

// CheckCompatible verifies the profile's Requires constraint against the
// given version. Profiles without a constraint are always compatible.
func (p *NetworkProfile) CheckCompatible(version string) error {
	if p.Requires == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(p.Requires)
	if err != nil {
		return fmt.Errorf("profile %q: invalid requires constraint %q: %w", p.Network, p.Requires, err)
	}
	current, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("parse version %q: %w", version, err)
	}
	if !constraint.Check(current) {
		return fmt.Errorf("profile %q requires steward %s, running %s", p.Network, p.Requires, version)
	}
	return nil
}
