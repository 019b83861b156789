package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] program_file",
	Short: "run a program until it halts.",
	Long: `Run a program until it halts or faults. Files ending in .s or .asm
	are assembled first; anything else is loaded as a raw program image.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(EXIT_USAGE)
		}

		_, code := runFile(cmd, args[0])
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
