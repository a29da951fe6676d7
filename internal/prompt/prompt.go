// Package prompt holds the instruction templates the aggregated brochure text
// is interpolated into.
package prompt

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Placeholder marks where the brochure text goes in a template.
const Placeholder = "{{BROCHURE_TEXT}}"

// Mode selects a template and the number of brochures it reads.
type Mode string

const (
	ModeAnalyze Mode = "analyze"
	ModeCompare Mode = "compare"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAnalyze, ModeCompare:
		return m, nil
	default:
		return "", eris.Errorf("prompt: unknown mode %q", s)
	}
}

// MaxDocuments is the aggregation cap for the mode.
func (m Mode) MaxDocuments() int {
	if m == ModeCompare {
		return 2
	}
	return 1
}

// Templates maps each mode to its instruction text.
type Templates struct {
	Analyze string `yaml:"analyze"`
	Compare string `yaml:"compare"`
}

// Defaults returns the built-in templates.
func Defaults() Templates {
	return Templates{Analyze: analyzeTemplate, Compare: compareTemplate}
}

// LoadFile reads overrides from a YAML file with keys analyze and compare.
// Keys that are absent keep the built-in text. An empty path returns the
// defaults.
func LoadFile(path string) (Templates, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, eris.Wrapf(err, "prompt: read %s", path)
	}
	var override Templates
	if err := yaml.Unmarshal(data, &override); err != nil {
		return t, eris.Wrapf(err, "prompt: parse %s", path)
	}
	if override.Analyze != "" {
		t.Analyze = override.Analyze
	}
	if override.Compare != "" {
		t.Compare = override.Compare
	}
	return t, nil
}

// Build interpolates text into the template for mode. Templates without a
// placeholder get the text appended after a blank line.
func (t Templates) Build(mode Mode, text string) (string, error) {
	var tmpl string
	switch mode {
	case ModeAnalyze:
		tmpl = t.Analyze
	case ModeCompare:
		tmpl = t.Compare
	default:
		return "", eris.Errorf("prompt: unknown mode %q", mode)
	}
	if strings.Contains(tmpl, Placeholder) {
		return strings.Replace(tmpl, Placeholder, text, 1), nil
	}
	return strings.TrimRight(tmpl, "\n") + "\n\n" + text, nil
}

// Build uses the built-in templates.
func Build(mode Mode, text string) (string, error) {
	return Defaults().Build(mode, text)
}

const analyzeTemplate = `Analyze the health insurance policy brochure below and extract its key features.

Report each of these fields. Quote amounts, percentages and durations exactly as the
brochure states them. If the brochure does not cover a field, write "Not mentioned".

1. Plan Name
2. Insurer
3. Sum Insured Options
4. Room Rent Limit
5. Co-payment
6. Waiting Periods (initial, pre-existing diseases, specific illnesses)
7. Pre-hospitalization Coverage
8. Post-hospitalization Coverage
9. Day-care Procedures
10. Restoration / Recharge Benefit
11. No Claim Bonus
12. Key Exclusions
13. Network Hospitals / Cashless Facility

Format the answer as a Markdown table with the columns "Feature" and "Details",
followed by a short "Things to watch out for" list of at most five bullet points.

Brochure text:
{{BROCHURE_TEXT}}
`

const compareTemplate = `Compare the two health insurance policy brochures below. Each brochure is
delimited by "--- START OF DOCUMENT n ---" and "--- END OF DOCUMENT n ---" markers.

Compare them on these fields, quoting figures exactly as written and writing
"Not mentioned" where a brochure is silent:

1. Plan Name and Insurer
2. Sum Insured Options
3. Room Rent Limit
4. Co-payment
5. Waiting Periods
6. Pre- and Post-hospitalization Coverage
7. Day-care Procedures
8. Restoration / Recharge Benefit
9. No Claim Bonus
10. Key Exclusions

Format the answer as a Markdown table with the columns "Feature", "Document 1" and
"Document 2". After the table, give a short verdict naming which plan offers better
coverage for a typical family and why, in no more than five sentences.

Brochures:
{{BROCHURE_TEXT}}
`
