package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yaklabco/atclint/internal/logging"
	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/lint"
	"github.com/yaklabco/atclint/pkg/lint/rules"
	"github.com/yaklabco/atclint/pkg/ruledocs"
)

type rulesFlags struct {
	ruleFormat string
	format     string
}

const formatJSON = "json"

// ruleInfo is the JSON form of a rule.
type ruleInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Enabled     bool   `json:"enabled"`
	Fixable     bool   `json:"fixable"`
	HelpURL     string `json:"helpUrl"`
	Docs        string `json:"docs,omitempty"`
}

func newRulesCommand() *cobra.Command {
	flags := &rulesFlags{}

	cmd := &cobra.Command{
		Use:   "rules [id]",
		Short: "List rules or show the documentation of one",
		Long: `Without arguments, list every rule with its category, default severity
and whether it can fix what it reports. With a rule ID or name, print that
rule's documentation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := rules.NewDefaultRegistry()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				_, rule, ok := registry.Resolve(args[0])
				if !ok {
					return usageError(fmt.Errorf("unknown rule %q; run 'atclint rules' for the list", args[0]))
				}
				return showRule(out, rule, flags.format)
			}

			if flags.format == formatJSON {
				return writeJSON(out, ruleInfos(registry.Rules(), false))
			}

			logger, err := logging.NewWithOptions(logging.Options{Level: "info", Writer: out})
			if err != nil {
				return internalError(err)
			}

			ruleFormat := config.RuleFormat(flags.ruleFormat)
			if !ruleFormat.IsValid() {
				return usageError(fmt.Errorf("invalid rule format %q (valid: name, id, combined)", flags.ruleFormat))
			}

			for _, rule := range registry.Rules() {
				fixable := "-"
				if rule.CanFix() {
					fixable = "yes"
				}
				logger.Info(config.FormatRuleID(ruleFormat, rule.ID(), rule.Name()),
					logging.FieldCategory, lint.CategoryForID(rule.ID()),
					logging.FieldSeverity, rule.DefaultSeverity(),
					logging.FieldFixable, fixable,
					logging.FieldDescription, rule.Description(),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.ruleFormat, "rule-format", "combined",
		"rule identifier format in the list: name, id, or combined")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json")

	return cmd
}

func showRule(out io.Writer, rule lint.Rule, format string) error {
	if format == formatJSON {
		infos := ruleInfos([]lint.Rule{rule}, true)
		return writeJSON(out, infos[0])
	}

	fmt.Fprintf(out, "%s %s (%s, default %s)\n",
		rule.ID(), rule.Name(), lint.CategoryForID(rule.ID()), rule.DefaultSeverity())
	if tags := rule.Tags(); len(tags) > 0 {
		fmt.Fprintf(out, "Tags: %s\n", strings.Join(tags, ", "))
	}
	fmt.Fprintln(out)

	doc, err := ruledocs.Lookup(rule.ID())
	if err != nil {
		fmt.Fprintln(out, rule.Description())
		return nil
	}
	fmt.Fprintln(out, doc.Title)
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.TrimSpace(doc.Body))
	fmt.Fprintf(out, "\nSee %s\n", lint.HelpURL(rule.ID()))
	return nil
}

func ruleInfos(list []lint.Rule, withDocs bool) []ruleInfo {
	infos := make([]ruleInfo, 0, len(list))
	for _, rule := range list {
		info := ruleInfo{
			ID:          rule.ID(),
			Name:        rule.Name(),
			Description: rule.Description(),
			Category:    string(lint.CategoryForID(rule.ID())),
			Severity:    string(rule.DefaultSeverity()),
			Enabled:     rule.DefaultEnabled(),
			Fixable:     rule.CanFix(),
			HelpURL:     lint.HelpURL(rule.ID()),
		}
		if withDocs {
			if doc, err := ruledocs.Lookup(rule.ID()); err == nil {
				info.Docs = doc.Body
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func writeJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return ioError(fmt.Errorf("encode JSON: %w", err))
	}
	return nil
}
