package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"studiomcp/internal/scenario"
)

// For mocking in tests
var writeClipboard = clipboard.WriteAll

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

func newDefinitionCmd() *cobra.Command {
	definitionCmd := &cobra.Command{
		Use:   "definition",
		Short: "Work with scenario definitions offline",
		Long: `Parse and render the scenario definition language without talking
to Cucumber Studio. Useful for checking what the server will send upstream.`,
		SilenceUsage: true,
	}
	definitionCmd.AddCommand(newDefinitionParseCmd())
	definitionCmd.AddCommand(newDefinitionRenderCmd())
	return definitionCmd
}

func newDefinitionParseCmd() *cobra.Command {
	var asJSON bool
	var maxWidth int

	parseCmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a definition into its name and steps",
		Long: `Reads a scenario definition from a file, or from stdin when no file
or "-" is given, and prints its name and steps.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			structured := scenario.ToStructured(string(data))
			if asJSON {
				out, err := json.MarshalIndent(structured, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode scenario: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			writeStepTable(cmd.OutOrStdout(), structured, maxWidth)
			return nil
		},
	}

	parseCmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	parseCmd.Flags().IntVar(&maxWidth, "max-width", 100, "Truncate step text to this many columns (0 disables)")
	return parseCmd
}

func newDefinitionRenderCmd() *cobra.Command {
	var copyToClipboard bool

	renderCmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a YAML step file into a definition",
		Long: `Reads a YAML document with a name and a list of steps and prints the
scenario definition that create_scenario would send upstream:

  name: Checkout
  steps:
    - type: given
      text: items in cart
    - type: when
      text: the user pays`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var input scenario.Scenario
			if err := yaml.Unmarshal(data, &input); err != nil {
				return fmt.Errorf("failed to parse step file: %w", err)
			}
			if err := checkRenderable(input); err != nil {
				return err
			}

			definition := scenario.FromStructured(input.Name, input.Steps)
			fmt.Fprintln(cmd.OutOrStdout(), definition)

			if copyToClipboard {
				if err := writeClipboard(definition); err != nil {
					return fmt.Errorf("failed to copy to clipboard: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Copied definition to clipboard")
			}
			return nil
		},
	}

	renderCmd.Flags().BoolVar(&copyToClipboard, "copy", false, "Also copy the definition to the clipboard")
	return renderCmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

// checkRenderable applies the same rules the create_scenario tool does.
func checkRenderable(s scenario.Scenario) error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !scenario.IsLiteral(s.Name) {
		errs = append(errs, errors.New("name must not contain a single quote or a line break"))
	}
	for i, step := range s.Steps {
		if !scenario.IsKeyword(step.Type) {
			errs = append(errs, fmt.Errorf("steps[%d].type must be one of: %s", i, strings.Join(scenario.Keywords, " ")))
		}
		if !scenario.IsLiteral(step.Text) {
			errs = append(errs, fmt.Errorf("steps[%d].text must not contain a single quote or a line break", i))
		}
	}
	return errors.Join(errs...)
}

func writeStepTable(w io.Writer, s scenario.Scenario, maxWidth int) {
	name := s.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "%s %s\n\n", headerStyle.Render("Scenario:"), name)

	if len(s.Steps) == 0 {
		fmt.Fprintln(w, "No steps")
		return
	}

	indexWidth := runewidth.StringWidth(strconv.Itoa(len(s.Steps)))
	typeWidth := runewidth.StringWidth("TYPE")
	for _, step := range s.Steps {
		typeWidth = max(typeWidth, runewidth.StringWidth(step.Type))
	}
	indexWidth = max(indexWidth, runewidth.StringWidth("#"))

	// Pad before styling so escape codes do not count towards the width.
	fmt.Fprintf(w, "%s  %s  %s\n",
		headerStyle.Render(runewidth.FillRight("#", indexWidth)),
		headerStyle.Render(runewidth.FillRight("TYPE", typeWidth)),
		headerStyle.Render("TEXT"))

	for i, step := range s.Steps {
		text := step.Text
		if maxWidth > 0 && runewidth.StringWidth(text) > maxWidth {
			text = runewidth.Truncate(text, maxWidth, "…")
		}
		fmt.Fprintf(w, "%s  %s  %s\n",
			runewidth.FillLeft(strconv.Itoa(i+1), indexWidth),
			runewidth.FillRight(step.Type, typeWidth),
			text)
	}
}
