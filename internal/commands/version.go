package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/movelearn/tutor/pkg/api/handler"
)

// Version can be overridden at build time with -ldflags "-X ...".
var Version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			title := styleTitle.Render("movelearn tutor")
			ver := styleVersion.Render(fmt.Sprintf("v%s", Version))
			info := styleSubtitle.Render(fmt.Sprintf("(api %s, %s/%s)", handler.Version, runtime.GOOS, runtime.GOARCH))
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", title, ver, info)
		},
	}
}
