package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garagon/tatu/internal/update"
	"github.com/garagon/tatu/internal/version"
)

var flagCheck bool

// checkLatest is swapped out in tests.
var checkLatest = update.CheckLatest

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "tatu %s (commit: %s)\n", version.Version, version.Commit)
		if !flagCheck {
			return
		}
		defer showPathHint(cmd.ErrOrStderr())
		res := checkLatest(context.Background(), version.Version)
		switch {
		case res == nil:
			fmt.Fprintln(w, "Could not check for updates.")
		case res.NeedsUpdate():
			fmt.Fprintf(w, "A newer version is available: %s\n  %s\n", res.Latest, res.UpdateURL)
		default:
			fmt.Fprintln(w, "You are running the latest version.")
		}
	},
}

func init() {
	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "Check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}
