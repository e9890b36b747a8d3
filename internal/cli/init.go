package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/atclint/internal/logging"
	"github.com/yaklabco/atclint/pkg/config"
	"github.com/yaklabco/atclint/pkg/lint"
	"github.com/yaklabco/atclint/pkg/lint/rules"
)

// configFilePermissions is the file mode for configuration files (world-readable).
const configFilePermissions = 0o644

type initFlags struct {
	force  bool
	full   bool
	format string
	output string
}

func newInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an atclint configuration file",
		Long: `Create a .atclint.yml configuration file in the current directory with
the default settings and comments explaining each of them.

Examples:
  atclint init                       Create a minimal .atclint.yml
  atclint init --full                Document every rule in the file
  atclint init --format toml         Create .atclint.toml instead
  atclint init --output ci.yml       Write to a custom path`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "overwrite an existing configuration file")
	cmd.Flags().BoolVar(&flags.full, "full", false, "document every rule in the template")
	cmd.Flags().StringVar(&flags.format, "format", "yaml", "file format: yaml or toml")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output path (default .atclint.yml or .atclint.toml)")

	return cmd
}

func runInit(cmd *cobra.Command, flags *initFlags) error {
	logger := logging.FromContext(cmd.Context())

	if flags.format != "yaml" && flags.format != "toml" {
		return usageError(fmt.Errorf("invalid format %q: must be yaml or toml", flags.format))
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = ".atclint.yml"
		if flags.format == "toml" {
			outputPath = ".atclint.toml"
		}
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return ioError(fmt.Errorf("resolve path: %w", err))
	}

	if _, err := os.Stat(absPath); err == nil && !flags.force {
		if !isInteractive() {
			return usageError(fmt.Errorf("file %q already exists; use --force to overwrite", outputPath))
		}
		overwrite, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), outputPath+" already exists. Overwrite? [y/N] ")
		if err != nil {
			return ioError(err)
		}
		if !overwrite {
			return nil
		}
	}

	content, err := config.GenerateTemplate(config.TemplateOptions{
		Full:   flags.full,
		Format: flags.format,
		Rules:  templateRules(rules.NewDefaultRegistry()),
	})
	if err != nil {
		return internalError(fmt.Errorf("generate template: %w", err))
	}

	if err := os.WriteFile(absPath, content, configFilePermissions); err != nil {
		return ioError(fmt.Errorf("write file: %w", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", outputPath)
	logger.Debug("wrote configuration template", logging.FieldPath, absPath, logging.FieldFormat, flags.format)
	return nil
}

func templateRules(registry *lint.Registry) []config.RuleInfo {
	list := registry.Rules()
	infos := make([]config.RuleInfo, 0, len(list))
	for _, rule := range list {
		infos = append(infos, config.RuleInfo{
			ID:          rule.ID(),
			Name:        rule.Name(),
			Description: rule.Description(),
			Enabled:     rule.DefaultEnabled(),
			Severity:    rule.DefaultSeverity(),
			Tags:        rule.Tags(),
			CanFix:      rule.CanFix(),
		})
	}
	return infos
}

// isInteractive reports whether stdin is a terminal.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question; anything but "y" or "yes" is no.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := io.WriteString(out, prompt); err != nil {
		return false, fmt.Errorf("write prompt: %w", err)
	}

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read response: %w", err)
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
