package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"go.withmatt.com/crmmail/internal/config"
)

var previewThemeName string

var themePreviewCmd = &cobra.Command{
	Use:   "theme-preview",
	Short: "Preview resolved theme colors",
	Args:  cobra.NoArgs,
	RunE:  runThemePreview,
}

func init() {
	themePreviewCmd.Flags().StringVar(&previewThemeName, "name", "", "theme name to preview")
	rootCmd.AddCommand(themePreviewCmd)
}

func runThemePreview(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	theme := cfg.Theme
	if previewThemeName != "" {
		theme.Name = previewThemeName
	}
	resolved, err := config.ResolveTheme(theme)
	if err != nil {
		return fmt.Errorf("unable to resolve theme: %w", err)
	}
	palette, err := config.Palette(theme.Name)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	label := resolved.Name
	if label == "" {
		label = "default"
	}
	fmt.Fprintf(w, "Theme preview: %s\n", label)

	printThemeSection(w, "Palette", []themeColor{
		{"background", palette.Background},
		{"foreground", palette.Foreground},
		{"red", palette.Red},
		{"green", palette.Green},
		{"yellow", palette.Yellow},
		{"blue", palette.Blue},
		{"magenta", palette.Magenta},
		{"cyan", palette.Cyan},
	})
	printThemeSection(w, "Status", []themeColor{
		{"bg", resolved.Status.Bg},
		{"fg", resolved.Status.Fg},
		{"dim", resolved.Status.Dim},
		{"mode_bg", resolved.Status.ModeBg},
		{"mode_fg", resolved.Status.ModeFg},
		{"tab_bg", resolved.Status.TabBg},
		{"tab_fg", resolved.Status.TabFg},
	})
	printThemeSection(w, "List", []themeColor{
		{"unread_fg", resolved.List.UnreadFg},
		{"starred_fg", resolved.List.StarredFg},
		{"selected_fg", resolved.List.SelectedFg},
		{"read_fg", resolved.List.ReadFg},
		{"selected_bg", resolved.List.SelectedBg},
	})
	printThemeSection(w, "Detail", []themeColor{
		{"border_normal", resolved.Detail.BorderNormal},
		{"header_label_fg", resolved.Detail.HeaderLabelFg},
		{"header_value_fg", resolved.Detail.HeaderValueFg},
		{"link_fg", resolved.Detail.LinkFg},
	})
	printThemeSection(w, "Modal", []themeColor{
		{"footer_fg", resolved.Modal.FooterFg},
		{"error_fg", resolved.Modal.ErrorFg},
	})
	return nil
}

type themeColor struct {
	label string
	value string
}

func printThemeSection(w io.Writer, title string, colors []themeColor) {
	fmt.Fprintf(w, "\n%s\n", title)
	for _, item := range colors {
		fmt.Fprintf(w, "  %-16s %s %s\n", item.label, renderSwatch(item.value), item.value)
	}
}

func renderSwatch(color string) string {
	if color == "" {
		return "  "
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Render("  ")
}
