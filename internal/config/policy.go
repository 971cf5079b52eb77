package config

import (
	"fmt"
	"os"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/shift"
	"gopkg.in/yaml.v3"
)

// LoadPolicy reads a YAML shift policy on top of shift.DefaultPolicy.
// Keys absent from the file keep their defaults; an empty path returns the defaults.
func LoadPolicy(path string) (shift.Policy, error) {
	policy := shift.DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return shift.Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}

	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return shift.Policy{}, fmt.Errorf("failed to parse policy file: %w", err)
	}

	if err := validatePolicy(policy); err != nil {
		return shift.Policy{}, fmt.Errorf("invalid policy file %s: %w", path, err)
	}

	return policy, nil
}

func validatePolicy(p shift.Policy) error {
	windows := map[string]shift.WindowPolicy{
		"morning":   p.Morning,
		"afternoon": p.Afternoon,
		"full_day":  p.FullDay,
	}
	for name, w := range windows {
		if w.End.Minutes() <= w.Start.Minutes() {
			return fmt.Errorf("%s window must end after it starts", name)
		}
	}

	lunches := map[string]shift.LunchPolicy{
		"clinician_lunch": p.ClinicianLunch,
		"staff_lunch":     p.StaffLunch,
	}
	for name, l := range lunches {
		if l.End.Minutes() <= l.Start.Minutes() {
			return fmt.Errorf("%s must end after it starts", name)
		}
		if l.DeductionMinutes < 0 {
			return fmt.Errorf("%s deduction must not be negative", name)
		}
	}

	if p.GracePeriodMinutes < 0 || p.MaxLateMinutes < 0 {
		return fmt.Errorf("grace_period_minutes and max_late_minutes must not be negative")
	}
	return nil
}
