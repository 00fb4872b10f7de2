package cli

import (
	"fmt"
	"image/color"

	"github.com/spf13/cobra"

	"github.com/matzehuels/codexrender/pkg/render/template"
)

func (c *CLI) templatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range template.Names() {
				t, err := template.Lookup(name)
				if err != nil {
					return err
				}
				marker := " "
				if name == c.cfg.Render.Template {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-12s %s\n", marker, name, describeTemplate(t))
			}
			return nil
		},
	}
}

// describeTemplate summarizes the palette of t on one line.
func describeTemplate(t template.Template) string {
	return fmt.Sprintf("title %s, emphasis %s, %d gradient stops",
		hexColor(t.TitleColor), hexColor(t.EmphasisColor), len(t.Background))
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
