package search

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no lang", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Here is the plan: {"a":1}. Let me know.`, `{"a":1}`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"braces in strings", `{"a":"}{"}`, `{"a":"}{"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractJSON(tc.input)
			if err != nil {
				t.Fatalf("extractJSON(%q): %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("extractJSON(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	for _, input := range []string{"", "no json here", "{unclosed"} {
		if got, err := extractJSON(input); err == nil {
			t.Errorf("extractJSON(%q) = %q, want error", input, got)
		}
	}
}
