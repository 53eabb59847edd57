package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"netbilling-sim/internal/analysis"
	"netbilling-sim/internal/data"
	"netbilling-sim/internal/finance"
	"netbilling-sim/internal/model"
	"netbilling-sim/internal/simulate"
	"netbilling-sim/internal/wind"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load the installation from a preset (e.g. examples/presets/*.yaml).
	// Non-zero fields of Installation override the preset.
	InstallationFile string       `yaml:"installation_file"`
	Installation     model.Inputs `yaml:"installation"`
	Tariff           TariffConfig `yaml:"tariff"`
	Data             DataConfig   `yaml:"data"`
	Output           OutputConfig `yaml:"output"`
}

// TariffConfig overrides the programme constants. Zero means default, except
// for the payout share where only an absent key does.
type TariffConfig struct {
	Caps               finance.Caps `yaml:"caps"`
	WindReferenceYield float64      `yaml:"wind_reference_yield_kwh_per_kw"`
	BatteryEfficiency  float64      `yaml:"battery_efficiency"`
	WalletPayoutShare  *float64     `yaml:"wallet_payout_share"`
}

type DataConfig struct {
	Path      string       `yaml:"path"`
	Delimiter string       `yaml:"delimiter"`
	Columns   data.Columns `yaml:"columns"`
}

type OutputConfig struct {
	MonthlyCSV string `yaml:"monthly_csv"`
	LedgerCSV  string `yaml:"ledger_csv"`
	Chart      string `yaml:"chart"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.InstallationFile != "" {
		presetPath := resolveRelative(path, c.InstallationFile)
		p, err := LoadPreset(presetPath)
		if err != nil {
			return nil, fmt.Errorf("installation_file: %w", err)
		}
		c.Installation = MergeInstallation(p.Installation, c.Installation)
	}
	if c.Data.Path != "" {
		c.Data.Path = resolveRelative(path, c.Data.Path)
	}
	return &c, nil
}

// resolveRelative prefers a path relative to the config file directory, but
// falls back to the provided path (relative to cwd) if that doesn't exist.
func resolveRelative(configPath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(filepath.Dir(configPath), p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

// ApplyDefaults fills the wind work percentage, the data delimiter and the
// column names.
func (c *Config) ApplyDefaults() {
	if c.Installation.WindWorkPercent == 0 {
		c.Installation.WindWorkPercent = 100
	}
	if c.Data.Delimiter == "" {
		c.Data.Delimiter = string(data.DefaultDelimiter)
	}
	c.Data.Columns = c.Data.Columns.WithDefaults()
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Installation.Validate(); err != nil {
		return fmt.Errorf("installation config invalid: %w", err)
	}
	if utf8.RuneCountInString(c.Data.Delimiter) != 1 {
		return fmt.Errorf("data.delimiter must be a single character, got %q", c.Data.Delimiter)
	}
	t := c.Tariff
	if t.BatteryEfficiency < 0 || t.BatteryEfficiency > 1 {
		return errors.New("tariff.battery_efficiency must be in [0, 1], 0 selects the default")
	}
	if s := t.WalletPayoutShare; s != nil && (*s < 0 || *s > 1) {
		return errors.New("tariff.wallet_payout_share must be in [0, 1]")
	}
	if t.WindReferenceYield < 0 {
		return errors.New("tariff.wind_reference_yield_kwh_per_kw must be >= 0")
	}
	if t.Caps.SubsidyShare < 0 || t.Caps.SubsidyShare > 1 {
		return errors.New("tariff.caps.subsidy_share must be in [0, 1]")
	}
	return nil
}

// DelimiterRune returns the data delimiter as a rune.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Data.Delimiter)
	if r == utf8.RuneError {
		return data.DefaultDelimiter
	}
	return r
}

// FinanceCaps merges the cap overrides onto the defaults.
func (t TariffConfig) FinanceCaps() finance.Caps {
	return MergeCaps(finance.DefaultCaps(), t.Caps)
}

// SimulateOptions maps the tariff and data sections onto a run.
func (c *Config) SimulateOptions() simulate.Options {
	caps := c.Tariff.FinanceCaps()
	profile := wind.DefaultProfile()
	payout := analysis.DefaultWalletPayoutShare
	if c.Tariff.WalletPayoutShare != nil {
		payout = *c.Tariff.WalletPayoutShare
	}
	return simulate.Options{
		Columns:        c.Data.Columns,
		Caps:           &caps,
		Profile:        &profile,
		Efficiency:     c.Tariff.BatteryEfficiency,
		ReferenceYield: c.Tariff.WindReferenceYield,
		PayoutShare:    &payout,
	}
}

// MergeCaps overlays non-zero fields from override onto base.
func MergeCaps(base, override finance.Caps) finance.Caps {
	out := base
	if override.SubsidyShare != 0 {
		out.SubsidyShare = override.SubsidyShare
	}
	if override.WindSubsidyPerKW != 0 {
		out.WindSubsidyPerKW = override.WindSubsidyPerKW
	}
	if override.WindSubsidyMax != 0 {
		out.WindSubsidyMax = override.WindSubsidyMax
	}
	if override.BatterySubsidyPerKWh != 0 {
		out.BatterySubsidyPerKWh = override.BatterySubsidyPerKWh
	}
	if override.BatterySubsidyMax != 0 {
		out.BatterySubsidyMax = override.BatterySubsidyMax
	}
	if override.TaxReliefMax != 0 {
		out.TaxReliefMax = override.TaxReliefMax
	}
	return out
}

// MergeInstallation overlays non-zero fields from override onto base.
// This is used when loading a preset and then applying overrides from the
// config file or a request.
func MergeInstallation(base, override model.Inputs) model.Inputs {
	out := base
	if override.PVCapacityKW != 0 {
		out.PVCapacityKW = override.PVCapacityKW
	}
	if override.PVCost != 0 {
		out.PVCost = override.PVCost
	}
	if override.WindCapacityKW != 0 {
		out.WindCapacityKW = override.WindCapacityKW
	}
	if override.WindCost != 0 {
		out.WindCost = override.WindCost
	}
	if override.WindWorkPercent != 0 {
		out.WindWorkPercent = override.WindWorkPercent
	}
	if override.BatteryCapacityKWh != 0 {
		out.BatteryCapacityKWh = override.BatteryCapacityKWh
	}
	if override.BatteryCost != 0 {
		out.BatteryCost = override.BatteryCost
	}
	if override.BatteryChargePowerKW != 0 {
		out.BatteryChargePowerKW = override.BatteryChargePowerKW
	}
	if override.BatteryDischargePowerKW != 0 {
		out.BatteryDischargePowerKW = override.BatteryDischargePowerKW
	}
	// Note: a preset that opts in cannot be switched back off by an override.
	if override.UseSubsidy {
		out.UseSubsidy = true
	}
	if override.UseTaxRelief {
		out.UseTaxRelief = true
	}
	if override.TaxRatePercent != 0 {
		out.TaxRatePercent = override.TaxRatePercent
	}
	return out
}

// Preset is a named installation stored as YAML.
type Preset struct {
	ID           string       `yaml:"-"`
	Name         string       `yaml:"name"`
	Description  string       `yaml:"description"`
	Installation model.Inputs `yaml:"installation"`
}

func LoadPreset(path string) (*Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Preset
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	p.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if p.Name == "" {
		p.Name = p.ID
	}
	if p.Installation.WindWorkPercent == 0 {
		p.Installation.WindWorkPercent = 100
	}
	return &p, nil
}

// ListPresets loads every *.yaml file in dir. Files that fail to parse are
// returned in skipped, keyed by file name, instead of failing the listing.
func ListPresets(dir string) (presets []Preset, skipped map[string]error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Preset{}, nil, nil
		}
		return nil, nil, err
	}
	presets = []Preset{}
	for _, entry := range entries {
		if entry.IsDir() || !(strings.HasSuffix(entry.Name(), ".yaml") || strings.HasSuffix(entry.Name(), ".yml")) {
			continue
		}
		p, perr := LoadPreset(filepath.Join(dir, entry.Name()))
		if perr != nil {
			if skipped == nil {
				skipped = map[string]error{}
			}
			skipped[entry.Name()] = perr
			continue
		}
		presets = append(presets, *p)
	}
	return presets, skipped, nil
}

// FindPreset loads the preset with the given ID from dir.
func FindPreset(dir, id string) (*Preset, error) {
	if id == "" || id != filepath.Base(id) || strings.Contains(id, "..") {
		return nil, fmt.Errorf("invalid preset id %q", id)
	}
	for _, ext := range []string{".yaml", ".yml"} {
		p := filepath.Join(dir, id+ext)
		if _, err := os.Stat(p); err == nil {
			return LoadPreset(p)
		}
	}
	return nil, fmt.Errorf("preset %q: %w", id, os.ErrNotExist)
}
