package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	transports "github.com/MFAIZAN20/dreamcanvas/internal/cmd/client/transports"
)

// NewHealthCommand checks the gateway over HTTP, or any process over gRPC
// when --grpc is given.
func NewHealthCommand(tr TransportFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check gateway or process health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			grpcAddr, _ := cmd.Flags().GetString("grpc")
			if grpcAddr != "" {
				service, _ := cmd.Flags().GetString("service")
				ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
				defer cancel()
				st, err := transports.NewGrpcHealth(dialGRPC(grpcAddr)).Check(ctx, service)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), st)
				return nil
			}
			deep, _ := cmd.Flags().GetBool("deep")
			return runRaw(cmd, func(ctx context.Context) (json.RawMessage, error) {
				return tr().Health(ctx, deep)
			})
		},
	}
	cmd.Flags().Bool("deep", false, "Probe every backend through the gateway")
	cmd.Flags().String("grpc", "", "Check a process's gRPC health endpoint instead (e.g. "+grpcAddrFromEnv()+")")
	cmd.Flags().String("service", "", "gRPC health service name (empty = whole process)")
	return cmd
}
