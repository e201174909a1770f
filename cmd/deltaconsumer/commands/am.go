package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/teranos/deltaconsumer/am"
	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: short("am"),
	Long: sym.AM + ` am - Show and validate configuration

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/deltaconsumer/config.toml)
3. User config (~/.deltaconsumer/config.toml)
4. Project config (./deltaconsumer.toml, searched up from the working directory)
5. File named by --config
6. Environment variables (DELTA_* prefix; SYNC_BASE_URL, BATCH_SIZE,
   PUBLIC_GRAPH, TMP_INGEST_GRAPH, MU_SPARQL_ENDPOINT are also read)

Examples:
  deltaconsumer am show                    # Show current configuration
  deltaconsumer am show --format json      # Show configuration in JSON format
  deltaconsumer am show --sources          # Show where each setting comes from
  deltaconsumer am validate                # Validate current configuration
  deltaconsumer am init                    # Write the defaults to ~/.deltaconsumer/config.toml`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Long: `Write the built-in defaults as TOML, to ~/.deltaconsumer/config.toml unless
a path is given. An existing file is kept as .back1 (up to three backups).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAmInit,
}

var (
	configFormat string
	showSources  bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amShowCmd.Flags().BoolVar(&showSources, "sources", false, "Show the source of every setting")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amInitCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if showSources {
		return printSources()
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Println(string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Printf("# deltaconsumer configuration\n%s", string(data))

	case "toml":
		data, err := am.Render(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("# deltaconsumer configuration\n%s", string(data))

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

func printSources() error {
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	data := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range am.Settings() {
		data = append(data, []string{s.Key, truncate(fmt.Sprint(s.Value), 60), string(s.Source), s.SourcePath})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	for _, src := range am.LoadedFiles() {
		unknown, err := am.UnknownKeys(src.Path)
		if err != nil {
			return err
		}
		for _, key := range unknown {
			pterm.Warning.Printfln("%s: unknown setting %q (ignored)", src.Path, key)
		}
	}

	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.UserConfigPath()
	if len(args) == 1 {
		path = args[0]
	}

	// defaults only: environment variables and existing files are ignored
	v := viper.New()
	am.SetDefaults(v)
	cfg, err := am.LoadWithViper(v)
	if err != nil {
		return err
	}

	existed := fileExists(path)
	if err := am.WriteConfig(cfg, path); err != nil {
		return err
	}
	if existed {
		pterm.Info.Printfln("Previous %s kept as %s.back1", path, path)
	}
	pterm.Success.Printfln("%s Wrote default configuration to %s", sym.AM, path)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
