package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/yaklabco/atclint/pkg/analysis"
	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/fix"
	"github.com/yaklabco/atclint/pkg/lint"
	"github.com/yaklabco/atclint/pkg/ruledocs"
	"github.com/yaklabco/atclint/pkg/runner"
)

// SARIF version used by this reporter.
const sarifVersion = "2.1.0"

// SARIF schema URI.
const sarifSchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

const toolInformationURI = "https://github.com/yaklabco/atclint"

// SARIFOutput represents the root SARIF document.
type SARIFOutput struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SARIFRun `json:"runs"`
}

// SARIFRun represents a single analysis run.
type SARIFRun struct {
	Tool        SARIFTool         `json:"tool"`
	Invocations []SARIFInvocation `json:"invocations"`
	Results     []SARIFResult     `json:"results"`
}

// SARIFTool describes the analysis tool.
type SARIFTool struct {
	Driver SARIFDriver `json:"driver"`
}

// SARIFDriver contains tool metadata and rules.
type SARIFDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []SARIFRule `json:"rules"`
}

// SARIFRule describes a rule.
type SARIFRule struct {
	ID               string                `json:"id"`
	Name             string                `json:"name,omitempty"`
	ShortDescription SARIFMultiformatText  `json:"shortDescription"`
	FullDescription  *SARIFMultiformatText `json:"fullDescription,omitempty"`
	Help             *SARIFMultiformatText `json:"help,omitempty"`
	HelpURI          string                `json:"helpUri,omitempty"`
	DefaultConfig    *SARIFRuleConfig      `json:"defaultConfiguration,omitempty"`
	Properties       *SARIFProperties      `json:"properties,omitempty"`
}

// SARIFMultiformatText contains text in plain and Markdown form.
type SARIFMultiformatText struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown,omitempty"`
}

// SARIFRuleConfig contains rule configuration.
type SARIFRuleConfig struct {
	Level string `json:"level"`
}

// SARIFProperties is the property bag attached to rules.
type SARIFProperties struct {
	Tags []string `json:"tags,omitempty"`
}

// SARIFInvocation records whether the run completed and any file failures.
type SARIFInvocation struct {
	ExecutionSuccessful bool                `json:"executionSuccessful"`
	Notifications       []SARIFNotification `json:"toolExecutionNotifications,omitempty"`
}

// SARIFNotification reports a file that could not be processed.
type SARIFNotification struct {
	Level     string          `json:"level"`
	Message   SARIFMessage    `json:"message"`
	Locations []SARIFLocation `json:"locations,omitempty"`
}

// SARIFResult represents a single diagnostic result.
type SARIFResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   SARIFMessage    `json:"message"`
	Locations []SARIFLocation `json:"locations"`
	Fixes     []SARIFFix      `json:"fixes,omitempty"`
}

// SARIFMessage contains the result message.
type SARIFMessage struct {
	Text string `json:"text"`
}

// SARIFLocation describes a code location.
type SARIFLocation struct {
	PhysicalLocation SARIFPhysicalLocation `json:"physicalLocation"`
}

// SARIFPhysicalLocation contains file path and region.
type SARIFPhysicalLocation struct {
	ArtifactLocation SARIFArtifactLocation `json:"artifactLocation"`
	Region           *SARIFRegion          `json:"region,omitempty"`
}

// SARIFArtifactLocation contains the file URI.
type SARIFArtifactLocation struct {
	URI string `json:"uri"`
}

// SARIFRegion describes the affected text region. Fix regions use byte
// offsets; result regions use lines and columns.
type SARIFRegion struct {
	StartLine   int  `json:"startLine,omitempty"`
	StartColumn int  `json:"startColumn,omitempty"`
	EndLine     int  `json:"endLine,omitempty"`
	EndColumn   int  `json:"endColumn,omitempty"`
	ByteOffset  *int `json:"byteOffset,omitempty"`
	ByteLength  *int `json:"byteLength,omitempty"`
}

// SARIFFix represents a proposed fix.
type SARIFFix struct {
	Description     SARIFMessage          `json:"description"`
	ArtifactChanges []SARIFArtifactChange `json:"artifactChanges"`
}

// SARIFArtifactChange describes changes to a file.
type SARIFArtifactChange struct {
	ArtifactLocation SARIFArtifactLocation `json:"artifactLocation"`
	Replacements     []SARIFReplacement    `json:"replacements"`
}

// SARIFReplacement describes a text replacement.
type SARIFReplacement struct {
	DeletedRegion   SARIFRegion           `json:"deletedRegion"`
	InsertedContent *SARIFInsertedContent `json:"insertedContent,omitempty"`
}

// SARIFInsertedContent contains the replacement text.
type SARIFInsertedContent struct {
	Text string `json:"text"`
}

// SARIFReporter formats results as SARIF.
type SARIFReporter struct {
	opts Options
}

// NewSARIFReporter creates a new SARIF reporter.
func NewSARIFReporter(opts Options) *SARIFReporter {
	return &SARIFReporter{opts: opts}
}

// Report implements Reporter.
func (r *SARIFReporter) Report(_ context.Context, result *runner.Result) (int, error) {
	output := r.buildOutput(result)

	bw := bufio.NewWriterSize(r.opts.Writer, bufWriterSize)
	encoder := json.NewEncoder(bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(output); err != nil {
		return 0, fmt.Errorf("encode SARIF: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flush SARIF: %w", err)
	}

	return len(output.Runs[0].Results), nil
}

func (r *SARIFReporter) buildOutput(result *runner.Result) *SARIFOutput {
	run := SARIFRun{
		Tool: SARIFTool{
			Driver: SARIFDriver{
				Name:           "atclint",
				Version:        r.opts.Version,
				InformationURI: toolInformationURI,
				Rules:          make([]SARIFRule, 0),
			},
		},
		Invocations: []SARIFInvocation{{ExecutionSuccessful: true}},
		Results:     make([]SARIFResult, 0),
	}

	if result != nil {
		ruleIndex := make(map[string]int)
		invocation := &run.Invocations[0]

		for _, file := range result.Files {
			if file.Error != nil {
				invocation.ExecutionSuccessful = false
				invocation.Notifications = append(invocation.Notifications, SARIFNotification{
					Level:     "error",
					Message:   SARIFMessage{Text: file.Error.Error()},
					Locations: []SARIFLocation{{PhysicalLocation: SARIFPhysicalLocation{ArtifactLocation: r.artifact(file.Path)}}},
				})
				continue
			}
			if file.Result == nil || file.Result.FileResult == nil {
				continue
			}

			for idx := range file.Result.Diagnostics {
				diag := &file.Result.Diagnostics[idx]

				index, seen := ruleIndex[diag.RuleID]
				if !seen {
					index = len(run.Tool.Driver.Rules)
					ruleIndex[diag.RuleID] = index
					run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, newSARIFRule(diag))
				}

				run.Results = append(run.Results, r.newResult(file.Path, index, diag))
			}
		}
	}

	return &SARIFOutput{
		Schema:  sarifSchemaURI,
		Version: sarifVersion,
		Runs:    []SARIFRun{run},
	}
}

// newSARIFRule describes the rule behind diag, taking its help text from
// the embedded rule documentation when present.
func newSARIFRule(diag *lint.Diagnostic) SARIFRule {
	category := diag.Category
	if category == "" {
		category = lint.CategoryForID(diag.RuleID)
	}
	helpURI := diag.HelpURL
	if helpURI == "" {
		helpURI = lint.HelpURL(diag.RuleID)
	}

	rule := SARIFRule{
		ID:               diag.RuleID,
		Name:             diag.RuleName,
		ShortDescription: SARIFMultiformatText{Text: diag.Message},
		HelpURI:          helpURI,
		DefaultConfig:    &SARIFRuleConfig{Level: severityToSARIFLevel(diag.Severity)},
		Properties:       &SARIFProperties{Tags: []string{string(category)}},
	}

	if doc, err := ruledocs.Lookup(diag.RuleID); err == nil {
		rule.ShortDescription = SARIFMultiformatText{Text: doc.Summary}
		rule.FullDescription = &SARIFMultiformatText{Text: doc.Summary}
		rule.Help = &SARIFMultiformatText{Text: doc.Summary, Markdown: doc.Body}
	}
	return rule
}

func (r *SARIFReporter) newResult(path string, ruleIndex int, diag *lint.Diagnostic) SARIFResult {
	res := SARIFResult{
		RuleID:    diag.RuleID,
		RuleIndex: ruleIndex,
		Level:     severityToSARIFLevel(diag.Severity),
		Message:   SARIFMessage{Text: diag.Message},
		Locations: []SARIFLocation{{
			PhysicalLocation: SARIFPhysicalLocation{
				ArtifactLocation: r.artifact(path),
				Region: &SARIFRegion{
					StartLine:   diag.StartLine,
					StartColumn: diag.StartColumn,
					EndLine:     diag.EndLine,
					EndColumn:   diag.EndColumn,
				},
			},
		}},
	}

	if diag.Fix == nil || diag.Fix.IsEmpty() {
		return res
	}

	description := diag.Suggestion
	if description == "" {
		description = diag.Message
	}
	sarifFix := SARIFFix{Description: SARIFMessage{Text: description}}
	if len(diag.Fix.Primary) > 0 {
		sarifFix.ArtifactChanges = append(sarifFix.ArtifactChanges, r.artifactChange(path, diag.Fix.Primary))
	}
	for _, external := range diag.Fix.External {
		sarifFix.ArtifactChanges = append(sarifFix.ArtifactChanges, r.artifactChange(external.Path, external.Edits))
	}
	res.Fixes = []SARIFFix{sarifFix}
	return res
}

func (r *SARIFReporter) artifactChange(path string, edits []fix.TextEdit) SARIFArtifactChange {
	change := SARIFArtifactChange{
		ArtifactLocation: r.artifact(path),
		Replacements:     make([]SARIFReplacement, 0, len(edits)),
	}
	for _, edit := range edits {
		offset := edit.StartOffset
		length := edit.EndOffset - edit.StartOffset
		replacement := SARIFReplacement{
			DeletedRegion: SARIFRegion{ByteOffset: &offset, ByteLength: &length},
		}
		if edit.NewText != "" {
			replacement.InsertedContent = &SARIFInsertedContent{Text: edit.NewText}
		}
		change.Replacements = append(change.Replacements, replacement)
	}
	return change
}

func (r *SARIFReporter) artifact(path string) SARIFArtifactLocation {
	return SARIFArtifactLocation{URI: filepath.ToSlash(analysis.RelativePath(path, r.opts.WorkingDir))}
}

// severityToSARIFLevel converts a diagnostic severity to a SARIF level.
func severityToSARIFLevel(severity config.Severity) string {
	switch severity {
	case config.SeverityError:
		return "error"
	case config.SeverityInfo:
		return "note"
	default:
		return "warning"
	}
}
