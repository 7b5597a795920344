package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/janhq/cms-media/internal/domain/media"
)

func newUploadCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <directory> <file>...",
		Short: "Upload files into a directory",
		Long: `Upload one or more files into a directory with a public-read ACL.
Files are uploaded in order and the first failure stops the batch. Use "/" for the root.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads := make([]media.UploadRequest, 0, len(args)-1)
			for _, path := range args[1:] {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				uploads = append(uploads, media.UploadRequest{
					Directory: args[0],
					Name:      filepath.Base(path),
					Content:   content,
				})
			}

			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}

			saved, err := store.Persist(cmd.Context(), uploads)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c.cfg.Output, saved)
		},
	}
}

func newListCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [directory]",
		Short: "List a directory, directories first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &media.ListOptions{}
			if len(args) == 1 {
				opts.Directory = args[0]
			}
			opts.Offset, _ = cmd.Flags().GetInt("offset")
			opts.Limit, _ = cmd.Flags().GetInt("limit")

			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}

			page, err := store.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c.cfg.Output, page)
		},
	}
	cmd.Flags().Int("offset", 0, "Window offset")
	cmd.Flags().Int("limit", 0, "Window size (default 1000)")
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a file by its media id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), media.Media{ID: args[0]}); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c.cfg.Output, map[string]string{"deleted": args[0]})
		},
	}
}

func newPreviewCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <filename>",
		Short: "Print the public URL of a stored file",
		Long:  "Print the public URL of a stored file. No credentials are requested.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := media.NewStore(c.storeOptions(), nil, nil, c.log)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c.cfg.Output, map[string]string{"url": store.PreviewSrc(args[0])})
		},
	}
}
