package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/your-org/fileflow/internal/ingestion"
	"github.com/your-org/fileflow/internal/source"
)

type serviceFactory func(ctx context.Context, verbose bool) (*ingestion.Service, error)

type cli struct {
	factory serviceFactory
	verbose bool
	service *ingestion.Service
}

func (c *cli) svc(cmd *cobra.Command) (*ingestion.Service, error) {
	if c.service != nil {
		return c.service, nil
	}
	s, err := c.factory(cmd.Context(), c.verbose)
	if err != nil {
		return nil, err
	}
	c.service = s
	return s, nil
}

func newRootCommand(factory serviceFactory) *cobra.Command {
	c := &cli{factory: factory}

	root := &cobra.Command{
		Use:           "fileflowctl",
		Short:         "Upload and inspect files in fileflow storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log pipeline activity to stdout")

	root.AddCommand(newUploadCommand(c))
	root.AddCommand(newDeleteCommand(c))
	root.AddCommand(newURLCommand(c))
	root.AddCommand(newStatCommand(c))
	root.AddCommand(newExistsCommand(c))
	return root
}

func newUploadCommand(c *cli) *cobra.Command {
	var (
		dest    string
		naming  string
		scan    bool
		signed  bool
		rawOpts string
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Run a local file through the upload pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts ingestion.Options
			if rawOpts != "" {
				if err := json.Unmarshal([]byte(rawOpts), &opts); err != nil {
					return fmt.Errorf("parse --options: %w", err)
				}
			}
			if naming != "" {
				opts.Naming = naming
			}
			if cmd.Flags().Changed("scan") {
				opts.Scan = ingestion.Bool(scan)
			}
			if cmd.Flags().Changed("signed") {
				opts.URL.Signed = ingestion.Bool(signed)
			}

			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			res, err := s.Upload(cmd.Context(), source.Path(args[0]), dest, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&dest, "dest", "", "Destination directory or file path (default <category>/<yyyy>/<mm>/<dd>)")
	cmd.Flags().StringVar(&naming, "naming", "", "Naming strategy: hash, slug, original or uuid")
	cmd.Flags().BoolVar(&scan, "scan", true, "Scan content for threats")
	cmd.Flags().BoolVar(&signed, "signed", false, "Return signed URLs")
	cmd.Flags().StringVar(&rawOpts, "options", "", "Upload options as a JSON object")
	return cmd
}

func newDeleteCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			if !s.Delete(cmd.Context(), args[0]) {
				return fmt.Errorf("delete %s failed", args[0])
			}
			return printJSON(cmd, map[string]any{"path": args[0], "deleted": true})
		},
	}
}

func newURLCommand(c *cli) *cobra.Command {
	var (
		signed     bool
		expiration time.Duration
		check      bool
		bucket     string
	)
	cmd := &cobra.Command{
		Use:   "url <path>",
		Short: "Print a public or signed URL for a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			var url string
			if signed {
				url, err = s.GetURL(cmd.Context(), args[0], expiration, ingestion.Bool(true))
			} else {
				url, err = s.GetURLPublic(cmd.Context(), args[0], check, bucket)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
			return err
		},
	}
	cmd.Flags().BoolVar(&signed, "signed", false, "Generate a time-limited signed URL")
	cmd.Flags().DurationVar(&expiration, "expiration", 0, "Signed URL lifetime (default from URL_DEFAULT_EXPIRATION)")
	cmd.Flags().BoolVar(&check, "check", true, "Fail when the object does not exist")
	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket to build the public URL for")
	return cmd
}

func newStatCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show metadata of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			md, err := s.GetMetadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, md)
		},
	}
}

func newExistsCommand(c *cli) *cobra.Command {
	var bucket string
	cmd := &cobra.Command{
		Use:   "exists <path>",
		Short: "Report whether an object exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			found, err := s.FileExists(cmd.Context(), args[0], bucket)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"path": args[0], "exists": found})
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket to probe instead of the configured one")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
