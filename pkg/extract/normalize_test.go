package extract

import "testing"

func TestNormalizeEntityName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases and trims",
			input: "  TechFlow  ",
			want:  "techflow",
		},
		{
			name:  "strips inc with period",
			input: "TechFlow Inc.",
			want:  "techflow",
		},
		{
			name:  "strips corp",
			input: "Acme Corp",
			want:  "acme",
		},
		{
			name:  "strips gmbh",
			input: "Müller GmbH",
			want:  "müller",
		},
		{
			name:  "collapses internal whitespace",
			input: "Global   Tech\tIndustries",
			want:  "global tech industries",
		},
		{
			name:  "compound suffix stripped in sequence",
			input: "Acme Company Inc.",
			want:  "acme",
		},
		{
			name:  "suffix mid-name untouched",
			input: "Inc Magazine",
			want:  "inc magazine",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: "   \t  ",
			want:  "",
		},
		{
			name:  "non-company name unchanged",
			input: "Singapore",
			want:  "singapore",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeEntityName(tc.input); got != tc.want {
				t.Errorf("NormalizeEntityName(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeEntityName_Idempotent(t *testing.T) {
	inputs := []string{
		"TechFlow Inc.",
		"Acme Company Ltd",
		"  Global   Logistics  PLC ",
		"singapore",
		"",
	}

	for _, input := range inputs {
		once := NormalizeEntityName(input)
		twice := NormalizeEntityName(once)
		if once != twice {
			t.Errorf("NormalizeEntityName not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
