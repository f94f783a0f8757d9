package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/imprint/internal/fonts"
)

var (
	fontsFormat   string
	fontsVariants bool
)

var fontsCmd = &cobra.Command{
	Use:   "fonts",
	Short: "List the fonts available to documents",
	Long: `List the font families the compiler can use: system fonts plus any
--font-path directories. Fonts that cannot be parsed are reported as warnings.

Examples:
  imprint fonts
  imprint fonts --variants
  imprint fonts --ignore-system-fonts --font-path ./fonts --format json`,
	Args: cobra.NoArgs,
	RunE: runFontsCommand,
}

func init() {
	rootCmd.AddCommand(fontsCmd)

	addFontFlags(fontsCmd)
	fontsCmd.Flags().BoolVar(&fontsVariants, "variants", false, "Also list the faces of each family")
	addFormatFlag(fontsCmd, &fontsFormat)
}

// fontFace is the listing form of one face.
type fontFace struct {
	Family  string  `json:"family" yaml:"family"`
	Style   string  `json:"style" yaml:"style"`
	Weight  int     `json:"weight" yaml:"weight"`
	Stretch float64 `json:"stretch" yaml:"stretch"`
	Path    string  `json:"path" yaml:"path"`
	Index   int     `json:"index" yaml:"index"`
}

func runFontsCommand(cmd *cobra.Command, args []string) error {
	if err := validateFormat(fontsFormat); err != nil {
		return err
	}
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	registry := newFontRegistry(ctx, cfg, newLogger(cfg))
	printDiagnostics(cmd.ErrOrStderr(), registry.Warnings())

	return listFonts(cmd, registry.Book())
}

func listFonts(cmd *cobra.Command, book *fonts.Book) error {
	out := cmd.OutOrStdout()

	if fontsFormat != "text" {
		faces := make([]fontFace, 0, book.Len())
		for _, info := range book.Infos() {
			faces = append(faces, fontFace{
				Family:  info.Family,
				Style:   info.Variant.Style.String(),
				Weight:  info.Variant.Weight,
				Stretch: info.Variant.Stretch,
				Path:    info.Path,
				Index:   info.Index,
			})
		}
		return writeStructured(out, fontsFormat, faces)
	}

	byFamily := make(map[string][]fonts.Info)
	for _, info := range book.Infos() {
		byFamily[info.Family] = append(byFamily[info.Family], info)
	}

	for _, family := range book.Families() {
		fmt.Fprintln(out, family)
		if !fontsVariants {
			continue
		}
		for _, info := range byFamily[family] {
			fmt.Fprintf(out, "- Style: %s, Weight: %d, Stretch: %.3g\n",
				info.Variant.Style, info.Variant.Weight, info.Variant.Stretch)
		}
	}
	return nil
}
