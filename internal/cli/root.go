// Package cli contains all commands of the beautyscan tool.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables read through viper.
const envPrefix = "BEAUTYSCAN"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "beautyscan",
	Short: "AI beauty score from a photo",
	Long: `beautyscan takes a photo, sends it to an AI image-analysis service and
shows a beauty score together with what looks great and tips to improve,
rendered progressively while the analysis streams in.

Commands:
  scan      interactive camera session in the terminal
  analyze   analyze one image file and print the result
  serve     run the HTTP backend that holds the provider API key

Configuration is read from flags, BEAUTYSCAN_* environment variables, a
.env file in the working directory and an optional --config file. The
provider key may also be given as API_KEY or GEMINI_API_KEY.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose output")
	rootCmd.PersistentFlags().String("backend", "", "URL of a beautyscan server to analyze with instead of calling Gemini directly")
	rootCmd.PersistentFlags().String("model", "", "Gemini model name (default from the prompts file)")
	rootCmd.PersistentFlags().String("prompts", "", "path to a prompts YAML file overriding the built-in prompts")

	for _, name := range []string{"verbose", "backend", "model", "prompts"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	rootCmd.AddCommand(scanCmd, analyzeCmd, serveCmd, versionCmd)
}

// initConfig reads in .env, the config file and ENV variables if set.
func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
			os.Exit(1)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	viper.BindEnv("api_key", envPrefix+"_API_KEY", "API_KEY", "GEMINI_API_KEY")
}

// quietLogs discards log output unless --verbose is set, so it does not
// interleave with the command's own output.
func quietLogs() {
	if !viper.GetBool("verbose") {
		log.SetOutput(io.Discard)
	}
}
