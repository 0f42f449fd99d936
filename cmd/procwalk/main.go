package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"procwalk/config"
	"procwalk/process_handle"
	"procwalk/snapshot"
	"procwalk/winapi"
)

var (
	cfgFile    string
	outputFlag string

	cfg    *config.Config
	sys    winapi.System
	finder *snapshot.Finder
	helper *process_handle.Helper
)

var rootCmd = &cobra.Command{
	Use:           "procwalk",
	Short:         "Windows process, thread and module inspector",
	Long:          `procwalk - enumerate processes, threads and modules, resolve symbols and patch process memory`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if outputFlag != "" {
			cfg.Output = outputFlag
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		sys = winapi.NewSystem()
		finder = snapshot.NewProcessFinder(sys)
		helper = process_handle.NewHelper(sys)
		helper.Finder = finder
		helper.SymbolPath = cfg.SymbolPath
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./procwalk.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "output format: text or json")

	rootCmd.AddCommand(psCmd)
	rootCmd.AddCommand(threadsCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(symbolCmd)
	rootCmd.AddCommand(patchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
