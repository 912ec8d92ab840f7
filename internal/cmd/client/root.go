package client

import (
	"github.com/spf13/cobra"

	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// NewRoot constructs a root Cobra command for the DreamCanvas client.
// It registers the dream, journal and health command groups.
func NewRoot(baseURL BaseURLFunc, loadConfig ConfigFunc, logger logpkg.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "dreamcanvas",
		Short: "DreamCanvas client commands",
	}
	tr := HTTPTransportFunc(baseURL)
	root.AddCommand(NewDreamCommand(tr))
	root.AddCommand(NewHealthCommand(tr))
	root.AddCommand(NewJournalCommand(loadConfig, logger))
	return root
}
