package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ourovoros-io/dyno/internal/buildinfo"
	"github.com/ourovoros-io/dyno/internal/hyperfine"
	"github.com/ourovoros-io/dyno/internal/persistence"
	"github.com/ourovoros-io/dyno/internal/stacksampler"
)

var versionJSON bool

// capabilities reports which optional parts of the harness this host can
// actually exercise: the platform stack sampler behind --flamegraph, the
// hyperfine benchmarker behind --hyperfine, and the database credentials
// behind -d/--database. All three degrade at run time; surfacing them
// here lets a user check a host before starting a long run.
type capabilities struct {
	Flamegraph bool `json:"flamegraph"`
	Hyperfine  bool `json:"hyperfine"`
	Database   bool `json:"database"`
}

func probeCapabilities() capabilities {
	_, credsErr := persistence.LoadCredentials()
	return capabilities{
		Flamegraph: stacksampler.Available(),
		Hyperfine:  hyperfine.Available(),
		Database:   credsErr == nil,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show dyno version, build information, and host capabilities",
	Long: `Display the version, git commit, and build date of this dyno binary,
plus which optional tools this host can drive: the platform stack
sampler (--flamegraph), hyperfine (--hyperfine), and the database
mirror credentials (-d/--database).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildinfo.GetInfo()
		caps := probeCapabilities()

		if versionJSON {
			payload := struct {
				buildinfo.Info
				Capabilities capabilities `json:"capabilities"`
			}{Info: info, Capabilities: caps}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		}

		fmt.Println(info.String())
		fmt.Printf("capabilities: flamegraph=%t hyperfine=%t database=%t\n",
			caps.Flamegraph, caps.Hyperfine, caps.Database)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output version info as JSON")
	rootCmd.AddCommand(versionCmd)
}
