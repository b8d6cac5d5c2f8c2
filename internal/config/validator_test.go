package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:   "empty order",
			mutate: func(c *Config) { c.Phases.Order = nil },
			fields: []string{"phases.order"},
		},
		{
			name:   "blank phase name",
			mutate: func(c *Config) { c.Phases.Order = []string{"a", " ", "b"}; c.Phases.Default = "a" },
			fields: []string{"phases.order[1]"},
		},
		{
			name:   "duplicate phase",
			mutate: func(c *Config) { c.Phases.Order = []string{"a", "b", "a"}; c.Phases.Default = "a" },
			fields: []string{"phases.order[2]"},
		},
		{
			name:   "default not in order",
			mutate: func(c *Config) { c.Phases.Default = "phase-missing" },
			fields: []string{"phases.default"},
		},
		{
			name:   "depth too small",
			mutate: func(c *Config) { c.Cycles.MaxDepth = 0 },
			fields: []string{"cycles.max_depth"},
		},
		{
			name:   "depth too large",
			mutate: func(c *Config) { c.Cycles.MaxDepth = 65 },
			fields: []string{"cycles.max_depth"},
		},
		{
			name:   "unknown late policy",
			mutate: func(c *Config) { c.Triggers.LatePolicy = "drop" },
			fields: []string{"triggers.late_policy"},
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "trace" },
			fields: []string{"logging.level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) != len(tt.fields) {
				t.Fatalf("Validate() returned %d errors, want %d: %v", len(errs), len(tt.fields), errs)
			}
			for i, field := range tt.fields {
				if errs[i].Field != field {
					t.Errorf("errs[%d].Field = %q, want %q", i, errs[i].Field, field)
				}
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	tests := []struct {
		name string
		errs ValidationErrors
		want string
	}{
		{
			name: "empty",
			errs: nil,
			want: "",
		},
		{
			name: "single",
			errs: ValidationErrors{{Field: "cycles.max_depth", Value: 0, Message: "must be at least 1"}},
			want: "cycles.max_depth: must be at least 1 (got: 0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.errs.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	multi := ValidationErrors{
		{Field: "a", Value: 1, Message: "bad"},
		{Field: "b", Value: 2, Message: "worse"},
	}
	got := multi.Error()
	if !strings.HasPrefix(got, "2 validation errors:\n") {
		t.Errorf("Error() = %q, want prefix %q", got, "2 validation errors:\n")
	}
	if !strings.Contains(got, "  2. b: worse (got: 2)") {
		t.Errorf("Error() = %q, missing second entry", got)
	}
}
