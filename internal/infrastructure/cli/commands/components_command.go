package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/doeshing/socprobe/internal/domain"
)

// NewComponentsCommand lists the declared components and their hints.
func NewComponentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List checked components and their remediation hints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderComponents(cmd.OutOrStdout())
			return nil
		},
	}
}

func renderComponents(out io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleDefault)
	t.AppendHeader(table.Row{"#", "Component", "Name", "Remediation"})
	for i, c := range domain.DeclaredComponents() {
		t.AppendRow(table.Row{i + 1, string(c), c.DisplayName(), strings.Join(domain.Hints(c), "; ")})
	}
	t.Render()
	fmt.Fprintf(out, "Verdict thresholds: healthy >= %.0f%%, degraded >= %.0f%%\n",
		domain.HealthyThreshold, domain.DegradedThreshold)
}
