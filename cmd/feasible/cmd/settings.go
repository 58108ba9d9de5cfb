package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FEASIBLE"

// applyEnv fills every flag that was not given on the command line from its
// FEASIBLE_<FLAG> environment variable. Dashes in flag names become
// underscores.
func applyEnv(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	var errs []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		if err := v.BindEnv(f.Name); err != nil {
			errs = append(errs, err.Error())
			return
		}
		if !v.IsSet(f.Name) {
			return
		}
		values := []string{v.GetString(f.Name)}
		if f.Value.Type() == "stringArray" {
			values = v.GetStringSlice(f.Name)
		}
		for _, val := range values {
			if err := f.Value.Set(val); err != nil {
				errs = append(errs, fmt.Sprintf("%s_%s: %v", envPrefix, envName(f.Name), err))
				return
			}
		}
		f.Changed = true
	})
	if len(errs) > 0 {
		return fmt.Errorf("invalid environment settings:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func envName(flag string) string {
	return strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}
