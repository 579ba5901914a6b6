// Package scenario converts between the upstream scenario definition text
// and a structured step list.
//
// A definition looks like:
//
//	scenario 'Checkout' do
//	  call given 'items in cart'
//	  call when 'the user pays'
//	end
//
// The format has no escaping and is read line by line, so names and step
// texts must not contain a single quote or a line break; callers check that
// with IsLiteral before generating a definition.
package scenario

import (
	"fmt"
	"regexp"
	"strings"
)

// Step keywords understood by the upstream definition language.
const (
	Given = "given"
	When  = "when"
	Then  = "then"
	And   = "and"
)

// Keywords lists the recognized step types in canonical order.
var Keywords = []string{Given, When, Then, And}

// Step is one line of a scenario.
type Step struct {
	Type string `json:"type" yaml:"type"`
	Text string `json:"text" yaml:"text"`
}

// Scenario is the structured form of a definition.
type Scenario struct {
	Name  string `json:"name" yaml:"name"`
	Steps []Step `json:"steps" yaml:"steps"`
}

var (
	headerPattern   = regexp.MustCompile(`(?i)^\s*scenario\s+'(.*)'\s*(?:do)?\s*$`)
	stepPattern     = regexp.MustCompile(`(?i)^\s*(?:call\s+)?(given|when|then|and)\s+'(.*)'\s*$`)
	callPrefixRegex = regexp.MustCompile(`(?i)^(\s*)call\s+(given|when|then|and)\b`)
)

func isHeader(line string) bool {
	return headerPattern.MatchString(line)
}

func isEnd(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), "end")
}

// lines keeps any trailing \r so that rewriting a definition only touches
// the tokens it removes.
func lines(text string) []string {
	return strings.Split(text, "\n")
}

// NormalizeDefinition drops the "call " prefix in front of step keywords on
// every line except the header and the closing end. Other content is kept.
func NormalizeDefinition(text string) string {
	if text == "" {
		return text
	}

	out := lines(text)
	for i, line := range out {
		if isHeader(line) || isEnd(line) {
			continue
		}
		out[i] = callPrefixRegex.ReplaceAllString(line, "$1$2")
	}
	return strings.Join(out, "\n")
}

// ParseSteps extracts steps in order. Lines that are not steps are skipped.
func ParseSteps(text string) []Step {
	steps := []Step{}
	for _, line := range lines(text) {
		if isHeader(line) || isEnd(line) {
			continue
		}
		m := stepPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		steps = append(steps, Step{Type: strings.ToLower(m[1]), Text: m[2]})
	}
	return steps
}

// ParseName returns the quoted name of the first scenario header, or "".
func ParseName(text string) string {
	for _, line := range lines(text) {
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// ToStructured parses a definition into its name and steps.
func ToStructured(text string) Scenario {
	return Scenario{
		Name:  ParseName(text),
		Steps: ParseSteps(text),
	}
}

// FromStructured renders a definition. Step types are written verbatim.
func FromStructured(name string, steps []Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario '%s' do\n", name)
	for _, step := range steps {
		fmt.Fprintf(&b, "  call %s '%s'\n", step.Type, step.Text)
	}
	b.WriteString("end")
	return b.String()
}

// forbiddenInLiteral lists the characters a quoted name or step text cannot carry.
const forbiddenInLiteral = "'\r\n"

// IsLiteral reports whether s survives a round trip as a quoted name or step text.
func IsLiteral(s string) bool {
	return !strings.ContainsAny(s, forbiddenInLiteral)
}

// IsKeyword reports whether t is a recognized step type, ignoring case.
func IsKeyword(t string) bool {
	for _, k := range Keywords {
		if strings.EqualFold(k, t) {
			return true
		}
	}
	return false
}
