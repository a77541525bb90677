package config

import (
	"fmt"
	"strings"

	"go.withmatt.com/themes"
)

const defaultThemeName = "Nord"

type Theme struct {
	Name   string      `toml:"name"`
	Status ThemeStatus `toml:"status"`
	List   ThemeList   `toml:"list"`
	Detail ThemeDetail `toml:"detail"`
	Modal  ThemeModal  `toml:"modal"`
}

type ThemeStatus struct {
	Bg     string `toml:"bg"`
	Fg     string `toml:"fg"`
	Dim    string `toml:"dim"`
	ModeBg string `toml:"mode_bg"`
	ModeFg string `toml:"mode_fg"`
	TabBg  string `toml:"tab_bg"`
	TabFg  string `toml:"tab_fg"`
}

type ThemeList struct {
	UnreadFg   string `toml:"unread_fg"`
	StarredFg  string `toml:"starred_fg"`
	SelectedFg string `toml:"selected_fg"`
	ReadFg     string `toml:"read_fg"`
	SelectedBg string `toml:"selected_bg"`
}

type ThemeDetail struct {
	BorderNormal  string `toml:"border_normal"`
	HeaderLabelFg string `toml:"header_label_fg"`
	HeaderValueFg string `toml:"header_value_fg"`
	LinkFg        string `toml:"link_fg"`
}

type ThemeModal struct {
	FooterFg string `toml:"footer_fg"`
	ErrorFg  string `toml:"error_fg"`
}

// ResolveTheme fills every unset color from the named palette and resolves
// palette names such as "bright_magenta" to hex values.
func ResolveTheme(theme Theme) (Theme, error) {
	palette, err := paletteForTheme(theme.Name)
	if err != nil {
		return Theme{}, err
	}
	merged := mergeTheme(themeFromPalette(palette), theme)
	merged = resolveThemeColorNames(merged, palette)
	merged.Name = theme.Name
	return merged, nil
}

func themeFromPalette(palette *themes.Theme) Theme {
	accent := firstNonEmpty(palette.Magenta, palette.Foreground)
	return Theme{
		Status: ThemeStatus{
			Bg:     palette.Background,
			Fg:     palette.Foreground,
			Dim:    palette.Foreground,
			ModeBg: accent,
			ModeFg: palette.Background,
			TabBg:  accent,
			TabFg:  palette.Background,
		},
		List: ThemeList{
			UnreadFg:   firstNonEmpty(palette.BrightMagenta, palette.Magenta, palette.Foreground),
			StarredFg:  firstNonEmpty(palette.Yellow, palette.BrightYellow, palette.Foreground),
			SelectedFg: firstNonEmpty(palette.BrightGreen, palette.Green, palette.Foreground),
			ReadFg:     palette.Foreground,
			SelectedBg: palette.Background,
		},
		Detail: ThemeDetail{
			BorderNormal:  palette.Background,
			HeaderLabelFg: palette.Foreground,
			HeaderValueFg: palette.Foreground,
			LinkFg:        firstNonEmpty(palette.Cyan, palette.BrightCyan, palette.Blue, palette.Foreground),
		},
		Modal: ThemeModal{
			FooterFg: palette.Foreground,
			ErrorFg:  firstNonEmpty(palette.Red, palette.Foreground),
		},
	}
}

func mergeTheme(base, override Theme) Theme {
	out := override
	fillIfEmpty(&out.Status.Bg, base.Status.Bg)
	fillIfEmpty(&out.Status.Fg, base.Status.Fg)
	fillIfEmpty(&out.Status.Dim, base.Status.Dim)
	fillIfEmpty(&out.Status.ModeBg, base.Status.ModeBg)
	fillIfEmpty(&out.Status.ModeFg, base.Status.ModeFg)
	fillIfEmpty(&out.Status.TabBg, base.Status.TabBg)
	fillIfEmpty(&out.Status.TabFg, base.Status.TabFg)

	fillIfEmpty(&out.List.UnreadFg, base.List.UnreadFg)
	fillIfEmpty(&out.List.StarredFg, base.List.StarredFg)
	fillIfEmpty(&out.List.SelectedFg, base.List.SelectedFg)
	fillIfEmpty(&out.List.ReadFg, base.List.ReadFg)
	fillIfEmpty(&out.List.SelectedBg, base.List.SelectedBg)

	fillIfEmpty(&out.Detail.BorderNormal, base.Detail.BorderNormal)
	fillIfEmpty(&out.Detail.HeaderLabelFg, base.Detail.HeaderLabelFg)
	fillIfEmpty(&out.Detail.HeaderValueFg, base.Detail.HeaderValueFg)
	fillIfEmpty(&out.Detail.LinkFg, base.Detail.LinkFg)

	fillIfEmpty(&out.Modal.FooterFg, base.Modal.FooterFg)
	fillIfEmpty(&out.Modal.ErrorFg, base.Modal.ErrorFg)
	return out
}

func fillIfEmpty(target *string, value string) {
	if *target == "" {
		*target = value
	}
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// Palette returns the named base palette, "Nord" when name is empty.
func Palette(name string) (*themes.Theme, error) {
	return paletteForTheme(name)
}

func paletteForTheme(name string) (*themes.Theme, error) {
	themeName := strings.TrimSpace(name)
	if themeName == "" {
		themeName = defaultThemeName
	}
	palette, err := themes.GetTheme(themeName)
	if err != nil {
		return nil, fmt.Errorf("theme %q: %w", themeName, err)
	}
	return palette, nil
}

func resolveThemeColorNames(theme Theme, palette *themes.Theme) Theme {
	for _, c := range []*string{
		&theme.Status.Bg, &theme.Status.Fg, &theme.Status.Dim,
		&theme.Status.ModeBg, &theme.Status.ModeFg, &theme.Status.TabBg, &theme.Status.TabFg,
		&theme.List.UnreadFg, &theme.List.StarredFg, &theme.List.SelectedFg,
		&theme.List.ReadFg, &theme.List.SelectedBg,
		&theme.Detail.BorderNormal, &theme.Detail.HeaderLabelFg,
		&theme.Detail.HeaderValueFg, &theme.Detail.LinkFg,
		&theme.Modal.FooterFg, &theme.Modal.ErrorFg,
	} {
		*c = resolveColorName(*c, palette)
	}
	return theme
}

func resolveColorName(value string, palette *themes.Theme) string {
	if palette == nil {
		return value
	}
	switch normalizeColorName(value) {
	case "":
		return value
	case "foreground":
		return palette.Foreground
	case "background":
		return palette.Background
	case "cursor":
		return palette.Cursor
	case "black":
		return palette.Black
	case "red":
		return palette.Red
	case "green":
		return palette.Green
	case "yellow":
		return palette.Yellow
	case "blue":
		return palette.Blue
	case "magenta":
		return palette.Magenta
	case "cyan":
		return palette.Cyan
	case "white":
		return palette.White
	case "brightblack":
		return palette.BrightBlack
	case "brightred":
		return palette.BrightRed
	case "brightgreen":
		return palette.BrightGreen
	case "brightyellow":
		return palette.BrightYellow
	case "brightblue":
		return palette.BrightBlue
	case "brightmagenta":
		return palette.BrightMagenta
	case "brightcyan":
		return palette.BrightCyan
	case "brightwhite":
		return palette.BrightWhite
	default:
		return value
	}
}

func normalizeColorName(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
}
