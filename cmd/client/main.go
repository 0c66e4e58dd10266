package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/PaulBabatuyi/FileIngest-gRPC/internal/server"
)

type clientOptions struct {
	addr    string
	apiKey  string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &clientOptions{}

	root := &cobra.Command{
		Use:          "fileingest-client",
		Short:        "Send Telegram messages to a fileingest server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", "localhost:50051", "server address")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", os.Getenv("FILEINGEST_API_KEY"), "api key sent as api-key metadata")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-call timeout")

	root.AddCommand(
		newProcessCmd(opts, "document", func(ctx context.Context, c *server.Client, msg *tgbotapi.Message) (*server.RecordResponse, error) {
			return c.ProcessDocument(ctx, msg)
		}),
		newProcessCmd(opts, "photo", func(ctx context.Context, c *server.Client, msg *tgbotapi.Message) (*server.RecordResponse, error) {
			return c.ProcessPhoto(ctx, msg)
		}),
		newGetCmd(opts),
	)
	return root
}

type processFunc func(context.Context, *server.Client, *tgbotapi.Message) (*server.RecordResponse, error)

func newProcessCmd(opts *clientOptions, kind string, call processFunc) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <message.json>",
		Short: "Ingest the " + kind + " of a Bot API message (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := readMessage(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), opts, func(ctx context.Context, c *server.Client) error {
				resp, err := call(ctx, c, msg)
				if err != nil {
					return err
				}
				return writeJSON(cmd, resp)
			})
		},
	}
}

func newGetCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <record-id>",
		Short: "Show a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), opts, func(ctx context.Context, c *server.Client) error {
				resp, err := c.GetRecord(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, resp)
			})
		},
	}
}

func withClient(ctx context.Context, opts *clientOptions, fn func(context.Context, *server.Client) error) error {
	conn, err := server.Dial(opts.addr, opts.apiKey)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	return fn(ctx, server.NewClient(conn))
}

// readMessage accepts either a bare Message or a full Update with a
// message field.
func readMessage(path string) (*tgbotapi.Message, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(data, &update); err == nil && update.Message != nil {
		return update.Message, nil
	}
	var msg tgbotapi.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
