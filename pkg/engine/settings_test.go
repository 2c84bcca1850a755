package engine

import "testing"

func TestSettingsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
		ok     bool
	}{
		{"defaults", func(s *Settings) {}, true},
		{"mocus", func(s *Settings) { s.Algorithm = AlgorithmMOCUS }, true},
		{"unknown algorithm", func(s *Settings) { s.Algorithm = "newton" }, false},
		{"unknown approximation", func(s *Settings) { s.Approximation = "laplace" }, false},
		{"zero limit order", func(s *Settings) { s.LimitOrder = 0 }, false},
		{"cut-off above one", func(s *Settings) { s.CutOff = 1.5 }, false},
		{"zero sums", func(s *Settings) { s.NumSums = 0 }, false},
		{"negative mission time", func(s *Settings) { s.MissionTime = -1 }, false},
		{"prime implicants with mocus", func(s *Settings) {
			s.Algorithm = AlgorithmMOCUS
			s.PrimeImplicants = true
		}, false},
		{"safety without mission time", func(s *Settings) {
			s.Safety = true
			s.MissionTime = 0
		}, false},
		{"unknown safety metric", func(s *Settings) { s.SafetyMetric = "mtbf" }, false},
		{"time step without mission time", func(s *Settings) {
			s.TimeStep = 10
			s.MissionTime = 0
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.mutate(&s)
			err := s.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
