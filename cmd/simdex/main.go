// simdex serves GLPI ticket similarity over HTTP and MCP, and ranks JSON files offline.
//
// Usage:
//
//	simdex serve   [--config=<path>]
//	simdex mcp     [--config=<path>]
//	simdex rank    --file=<docs.json> [--threshold=0.3] [--max-results=10] [--matrix]
//	simdex version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/simdex/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "simdex",
	Short: "Lexical similarity ranking for GLPI tickets",
	Long: "simdex scores help desk tickets against each other with sequence, cosine and keyword\n" +
		"metrics and serves the ranking over HTTP, MCP or the command line.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a YAML config file (default: config/<ENV>.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version.Version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
