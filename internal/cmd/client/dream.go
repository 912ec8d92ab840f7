package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	transports "github.com/MFAIZAN20/dreamcanvas/internal/cmd/client/transports"
)

// BaseURLFunc provides the gateway base URL (e.g., from env or flag).
type BaseURLFunc func() string

// TransportFunc builds the transport used by a command invocation.
type TransportFunc func() transports.DreamsTransport

// HTTPTransportFunc returns a TransportFunc over the gateway at baseURL.
func HTTPTransportFunc(baseURL BaseURLFunc) TransportFunc {
	return func() transports.DreamsTransport {
		return transports.NewHTTPTransport(baseURL(), nil)
	}
}

const requestTimeout = 30 * time.Second

// NewDreamCommand constructs the `dream` command group and subcommands.
func NewDreamCommand(tr TransportFunc) *cobra.Command {
	dreamCmd := &cobra.Command{Use: "dream", Short: "Dream operations"}
	dreamCmd.AddCommand(
		newDreamSubmitCommand(tr),
		newDreamGetCommand(tr),
		newDreamListCommand(tr),
		newDreamLikeCommand(tr),
		newDreamGalleryCommand(tr),
		newDreamPortfolioCommand(tr),
	)
	return dreamCmd
}

// runRaw executes call with a timeout and prints the JSON answer. Error
// envelopes are printed too before the error is returned.
func runRaw(cmd *cobra.Command, call func(ctx context.Context) (json.RawMessage, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()
	raw, err := call(ctx)
	var se *transports.StatusError
	if errors.As(err, &se) && len(raw) > 0 {
		printJSON(cmd.ErrOrStderr(), raw)
	}
	if err != nil {
		return err
	}
	printJSON(cmd.OutOrStdout(), raw)
	return nil
}

func parseIDArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func newDreamSubmitCommand(tr TransportFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new dream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			title, _ := cmd.Flags().GetString("title")
			desc, _ := cmd.Flags().GetString("description")
			tags, _ := cmd.Flags().GetString("tags")
			user, _ := cmd.Flags().GetInt64("user")
			req := transports.SubmitRequest{Title: title, Description: desc, Tags: tags, UserID: user}
			return runRaw(cmd, func(ctx context.Context) (json.RawMessage, error) {
				return tr().Submit(ctx, req)
			})
		},
	}
	cmd.Flags().String("title", "", "Dream title (required)")
	cmd.Flags().String("description", "", "Dream description (required)")
	cmd.Flags().String("tags", "", "Comma-separated tags")
	cmd.Flags().Int64("user", 0, "Owner user id (default 1)")
	return cmd
}

func newDreamGetCommand(tr TransportFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch one dream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return runRaw(cmd, func(ctx context.Context) (json.RawMessage, error) {
				return tr().Get(ctx, id)
			})
		},
	}
}

func newDreamListCommand(tr TransportFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the most recent dreams",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRaw(cmd, func(ctx context.Context) (json.RawMessage, error) {
				return tr().List(ctx)
			})
		},
	}
}

func newDreamLikeCommand(tr TransportFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Like a dream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return runRaw(cmd, func(ctx context.Context) (json.RawMessage, error) {
				return tr().Like(ctx, id)
			})
		},
	}
}

func newDreamGalleryCommand(tr TransportFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Show the gallery, optionally filtered by a CEL expression",
		Example: `  dreamcanvas dream gallery --filter 'likes > 3 && tags.contains("sky")'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			return runRaw(cmd, func(ctx context.Context) (json.RawMessage, error) {
				return tr().Gallery(ctx, filter)
			})
		},
	}
	cmd.Flags().String("filter", "", "CEL filter over id, title, description, tags, likes, created_ms")
	return cmd
}

func newDreamPortfolioCommand(tr TransportFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio <user-id>",
		Short: "List one user's dreams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return runRaw(cmd, func(ctx context.Context) (json.RawMessage, error) {
				return tr().Portfolio(ctx, id)
			})
		},
	}
}
