package cmd

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/vidroute/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  `Commands for managing vidroute configuration.`,
}

var configDumpEffective bool

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the default configuration",
	Long: `Dump the configuration values in YAML format.

By default this shows all available configuration options with their default
values. You can redirect this output to a file to create a configuration
template:

  vidroute config dump > config.yaml

With --effective the loaded configuration (file and environment applied) is
printed instead. Secrets are always redacted.

Environment variables use the VIDROUTE_ prefix and underscores for nesting.
Example: pipeline.max_retries -> VIDROUTE_PIPELINE_MAX_RETRIES`,
	RunE: runConfigDump,
}

func init() {
	configDumpCmd.Flags().BoolVar(&configDumpEffective, "effective", false, "dump the loaded configuration instead of defaults")
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

// toMap converts a struct to a map, formatting durations for human readability
// and redacting secrets.
func toMap(v any) map[string]any {
	result := make(map[string]any)
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		key := fieldType.Tag.Get("yaml")
		if key == "" {
			key = strings.ToLower(fieldType.Name)
		}

		switch v := field.Interface().(type) {
		case time.Duration:
			result[key] = v.String()
		case config.Secret:
			result[key] = v.String()
		default:
			if field.Kind() == reflect.Struct {
				result[key] = toMap(field.Interface())
			} else {
				result[key] = field.Interface()
			}
		}
	}
	return result
}

func runConfigDump(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if configDumpEffective {
		cfg = appConfig
	}

	yamlData, err := yaml.Marshal(toMap(cfg))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "# vidroute Configuration File")
	fmt.Fprintln(out, "# ============================")
	fmt.Fprintln(out, "#")
	if configDumpEffective {
		fmt.Fprintln(out, "# Effective values (file and environment applied).")
	} else {
		fmt.Fprintln(out, "# All values shown below are defaults.")
	}
	fmt.Fprintln(out, "# Duration format: 500ms, 30s, 5m")
	fmt.Fprintln(out, "#")
	fmt.Fprintln(out, "# Environment variable overrides:")
	fmt.Fprintln(out, "#   VIDROUTE_LOGGING_LEVEL, VIDROUTE_LOGGING_FORMAT")
	fmt.Fprintln(out, "#   VIDROUTE_PIPELINE_MAX_RETRIES, VIDROUTE_PIPELINE_RETRY_DELAY")
	fmt.Fprintln(out, "#   VIDROUTE_REPORTING_ENDPOINT, VIDROUTE_REPORTING_API_KEY")
	fmt.Fprintln(out, "#   etc.")
	fmt.Fprintln(out, "#")
	fmt.Fprintln(out)
	fmt.Fprint(out, string(yamlData))

	return nil
}
