package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/bitrise-io/go-mediaupload/media"
	"github.com/bitrise-io/go-mediaupload/node"
	"github.com/bitrise-io/go-mediaupload/output"
	"github.com/bitrise-io/go-mediaupload/upload"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/spf13/cobra"
)

type cli struct {
	logger         log.Logger
	files          fileSource
	debug          bool
	continueOnFail bool
	outputFile     string
}

type sourceFlags struct {
	files     []string
	urls      []string
	binaryIDs []string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.files, "file", nil, "Local file or glob pattern to upload (repeatable)")
	cmd.Flags().StringArrayVar(&f.urls, "url", nil, "Remote media URL to upload (repeatable)")
	cmd.Flags().StringArrayVar(&f.binaryIDs, "binary-id", nil, "Id of a binary in the configured bucket (repeatable)")
}

func (f *sourceFlags) binary() bool {
	return len(f.files) > 0 || len(f.binaryIDs) > 0
}

// items builds one item per source. URL sources and binary sources cannot be
// mixed in one run.
func (c *cli) items(f sourceFlags) ([]node.Item, error) {
	if f.binary() && len(f.urls) > 0 {
		return nil, errors.New("--url cannot be combined with binary sources")
	}
	if !f.binary() && len(f.urls) == 0 {
		return nil, errors.New("no media source given")
	}

	var items []node.Item
	for _, u := range f.urls {
		items = append(items, node.Item{JSON: map[string]interface{}{node.MediaURLKey: u}})
	}

	if len(f.files) > 0 {
		paths, err := c.files.expand(f.files)
		if err != nil {
			return nil, err
		}
		fileItems, err := c.files.items(paths)
		if err != nil {
			return nil, err
		}
		items = append(items, fileItems...)
	}

	for _, id := range f.binaryIDs {
		items = append(items, node.Item{Binary: map[string]*media.BinaryRef{binaryProperty: {ID: id}}})
	}

	if len(items) == 0 {
		return nil, errors.New("no files matched")
	}
	return items, nil
}

func newRootCommand(logger log.Logger) *cobra.Command {
	c := &cli{logger: logger, files: newFileSource(logger)}

	rootCmd := &cobra.Command{
		Use:           "mediaupload",
		Short:         "Upload media to Media Kit components and the Twitter media endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.logger.EnableDebugLog(c.debug)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&c.continueOnFail, "continue-on-fail", false, "Report failed items as error objects instead of aborting")
	rootCmd.PersistentFlags().StringVar(&c.outputFile, "output-file", "", "Write the results to this file instead of stdout")

	rootCmd.AddCommand(newMediaCommand(c))
	rootCmd.AddCommand(newListCommand(c))
	rootCmd.AddCommand(newTwitterCommand(c))
	rootCmd.AddCommand(newRandomIDCommand(c))

	return rootCmd
}

func newMediaCommand(c *cli) *cobra.Command {
	var (
		sources   sourceFlags
		operation string
		pageSize  int
		page      int
	)

	cmd := &cobra.Command{
		Use:   "media",
		Short: "Upload to or list the uploads of a Media Kit component",
		Long: `Upload to or list the uploads of a Media Kit component.

The blocklet is configured with BLOCKLET_URL, BLOCKLET_ACCESS_KEY and
BLOCKLET_COMPONENT_DID. Binaries referenced by --binary-id are read from the
bucket set in MEDIA_S3_BUCKET.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := node.MediaKitParams{Operation: node.Operation(operation), PageSize: pageSize, Page: page}
			items := []node.Item{{}}
			if params.Operation == node.OperationUploadMedia {
				var err error
				if items, err = c.items(sources); err != nil {
					return err
				}
				if sources.binary() {
					params.BinaryProperty = binaryProperty
				}
			}
			return c.runMediaKit(cmd, items, params)
		},
	}

	sources.register(cmd)
	cmd.Flags().StringVar(&operation, "operation", string(node.OperationUploadMedia), "uploadMedia or listMedia")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Page size of listMedia, clamped to 10..1000")
	cmd.Flags().IntVar(&page, "page", 1, "Page of listMedia")

	return cmd
}

func newListCommand(c *cli) *cobra.Command {
	params := node.MediaKitParams{Operation: node.OperationListMedia}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the uploads of a Media Kit component",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMediaKit(cmd, []node.Item{{}}, params)
		},
	}

	cmd.Flags().IntVar(&params.PageSize, "page-size", 0, "Page size, clamped to 10..1000")
	cmd.Flags().IntVar(&params.Page, "page", 1, "Page")

	return cmd
}

func (c *cli) runMediaKit(cmd *cobra.Command, items []node.Item, params node.MediaKitParams) error {
	ctx := cmd.Context()

	credentials, err := parseComponentCredentials()
	if err != nil {
		return err
	}
	uploadConfig, err := parseUploadEnv(c.debug)
	if err != nil {
		return err
	}
	store, err := parseStoreEnv(ctx, c.debug, c.logger)
	if err != nil {
		return err
	}

	mediaKit := node.NewMediaKit(credentials, node.MediaKitOptions{Store: store, Upload: uploadConfig}, c.logger)
	outputs, err := mediaKit.Execute(ctx, items, params, c.continueOnFail)
	if err != nil {
		return err
	}
	return c.write(cmd.OutOrStdout(), outputs)
}

func newTwitterCommand(c *cli) *cobra.Command {
	var (
		sources  sourceFlags
		endpoint string
		params   node.TwitterParams
		category string
	)

	cmd := &cobra.Command{
		Use:   "twitter",
		Short: "Upload media to the Twitter media endpoint",
		Long: `Upload media to the Twitter media endpoint with the chunked media upload
protocol.

The session is configured with TWITTER_SESSION_TOKEN and TWITTER_CSRF_TOKEN.
Binaries referenced by --binary-id are read from the bucket set in
MEDIA_S3_BUCKET.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			credentials, err := parseTwitterCredentials()
			if err != nil {
				return err
			}
			uploadConfig, err := parseUploadEnv(c.debug)
			if err != nil {
				return err
			}
			if params.Category, err = upload.ParseCategory(category); err != nil {
				return err
			}
			store, err := parseStoreEnv(ctx, c.debug, c.logger)
			if err != nil {
				return err
			}

			items, err := c.items(sources)
			if err != nil {
				return err
			}
			params.InputType = node.InputTypeURL
			if sources.binary() {
				params.InputType = node.InputTypeBinary
				params.BinaryProperty = binaryProperty
			}

			twitter := node.NewTwitter(credentials, endpoint, node.TwitterOptions{Store: store, Upload: uploadConfig}, c.logger)
			outputs, err := twitter.Execute(ctx, items, params, c.continueOnFail)
			if err != nil {
				return err
			}
			return c.write(cmd.OutOrStdout(), outputs)
		},
	}

	sources.register(cmd)
	cmd.Flags().StringVar(&endpoint, "endpoint", upload.DefaultSegmentedEndpoint, "Media upload endpoint")
	cmd.Flags().StringVar(&params.AltText, "alt-text", "", "Alt text attached to the media")
	cmd.Flags().StringVar(&category, "category", string(upload.CategoryAuto), "auto, tweet_image, tweet_gif or tweet_video")
	cmd.Flags().StringVar(&params.HTTPProxy, "proxy", "", "HTTP proxy for the download and the upload")

	return cmd
}

func newRandomIDCommand(c *cli) *cobra.Command {
	var (
		params node.RandomIDParams
		count  int
	)

	cmd := &cobra.Command{
		Use:   "random-id",
		Short: "Generate UUIDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("invalid count: %d", count)
			}
			outputs, err := node.RandomID(cmd.Context(), make([]node.Item, count), params, c.continueOnFail, c.logger)
			if err != nil {
				return err
			}
			return c.write(cmd.OutOrStdout(), outputs)
		},
	}

	cmd.Flags().IntVar(&params.Version, "version", 4, "UUID version: 1, 3, 4, 5, 6 or 7")
	cmd.Flags().StringVar(&params.Name, "name", "", "Name of version 3 and 5 UUIDs")
	cmd.Flags().IntVar(&count, "count", 1, "Number of UUIDs")

	return cmd
}

// write prints the outputs as JSON lines, or exports them to --output-file.
func (c *cli) write(w io.Writer, outputs []node.Output) error {
	if c.outputFile == "" {
		return output.WriteJSONLines(w, outputs)
	}

	pth, err := output.ExportFile(c.outputFile, outputs)
	if err != nil {
		return fmt.Errorf("export outputs: %w", err)
	}
	c.logger.Donef("%d results exported to %s", len(outputs), pth)
	return nil
}
