package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

// BuildCmd builds rtcreg natively, or inside the gobuild image when the
// target differs from the host. cgo stays on for the HID adapter.
func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the rtcreg binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			targetOS, _ := cmd.Flags().GetString("os")
			targetArch, _ := cmd.Flags().GetString("arch")
			version, _ := cmd.Flags().GetString("version")
			crossOS, _ := cmd.Flags().GetString("cross-os")
			crossArch, _ := cmd.Flags().GetString("cross-arch")

			if targetOS == runtime.GOOS && targetArch == runtime.GOARCH {
				if crossOS != "" && crossArch != "" {
					targetOS = crossOS
					targetArch = crossArch
				}
				slog.Info("building rtcreg", "os", targetOS, "arch", targetArch, "version", version)
				return build.GoBuild("dist/rtcreg", "./cmd/rtcreg", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "github.com/mklimuk/rtcbus/config",
					EnableCgo:     true,
					Arch:          targetArch,
					OS:            targetOS,
				})
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", targetOS, targetArch),
				[]string{"build", "--version", version, "--cross-os", crossOS, "--cross-arch", crossArch},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   "gophertribe/gobuild:1.25-bookworm",
				})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")
	return cmd
}
