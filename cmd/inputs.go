package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/imprint/internal/value"
	"github.com/conneroisu/imprint/internal/world"
)

var (
	inputsFlags  *HostFlags
	inputsFormat string
)

var inputsCmd = &cobra.Command{
	Use:   "inputs",
	Short: "Show the globals a document will see",
	Long: `Load the data file and --input pairs exactly as a compilation would and
print the resulting "data" and "inputs" globals together with the
fingerprint of the input scope.

Values the document cannot represent are replaced by none and reported.

Examples:
  imprint inputs --data data.yaml
  imprint inputs --input name=Ada --format json`,
	Args: cobra.NoArgs,
	RunE: runInputsCommand,
}

func init() {
	rootCmd.AddCommand(inputsCmd)

	inputsFlags = addInputFlags(inputsCmd)
	addFormatFlag(inputsCmd, &inputsFormat)
}

// inputsReport is the structured form of the input scope.
type inputsReport struct {
	Data        interface{}       `json:"data" yaml:"data"`
	Inputs      map[string]string `json:"inputs" yaml:"inputs"`
	Fingerprint string            `json:"fingerprint" yaml:"fingerprint"`
}

func runInputsCommand(cmd *cobra.Command, args []string) error {
	if err := validateFormat(inputsFormat); err != nil {
		return err
	}
	cfg, err := loadConfig(inputsFlags)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	data, inputs, err := inputScope(ctx, cfg, logger)
	if err != nil {
		return err
	}

	globals := make(map[string]value.Value, len(inputs))
	for k, v := range inputs {
		globals[k] = value.Str(v)
	}
	library, err := world.NewLibrary(map[string]value.Value{
		world.GlobalData:   data,
		world.GlobalInputs: value.Dict(globals),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if inputsFormat != "text" {
		return writeStructured(out, inputsFormat, inputsReport{
			Data:        data.Native(),
			Inputs:      inputs,
			Fingerprint: library.FingerprintHex(),
		})
	}

	for _, name := range []string{world.GlobalData, world.GlobalInputs} {
		v, _ := library.Global(name)
		fmt.Fprintf(out, "%s = %s\n", name, v)
	}
	fmt.Fprintf(out, "fingerprint: %s\n", library.FingerprintHex())
	return nil
}
