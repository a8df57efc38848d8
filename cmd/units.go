package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vecu-cosim/cosim-host/sim/fmu"
)

// unitsCmd prints resolved unit descriptors
var unitsCmd = &cobra.Command{
	Use:   "units [<id>...]",
	Short: "Print the descriptors of the configured (or given) units",
	Run: func(cmd *cobra.Command, args []string) {
		setupCommandLogging()
		ids := args
		if len(ids) == 0 {
			ids = []string{
				viper.GetString("units.zonal"),
				viper.GetString("units.airbag"),
				viper.GetString("units.cockpit"),
			}
		}
		loader := fmu.NewLoader(viper.GetString("units.cache_dir"))
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		for _, id := range ids {
			d, err := loader.Load(id)
			if err != nil {
				logrus.Fatal(err)
			}
			if err := enc.Encode(d); err != nil {
				logrus.Fatalf("Encoding descriptor %s: %v", id, err)
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "registered models: %v\n", fmu.RegisteredModels())
	},
}
