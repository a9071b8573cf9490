package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <share-url> [file-id...]",
		Short: "Download files from a shared album",
		Long: `Download the whole album, or just the given file IDs (see "view"
for the IDs). Files land in the configured download directory under a
folder named after the album. Individual failures are logged and the
rest of the batch continues.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDownload,
	}

	cmd.Flags().String("password", "", "album password, if protected")
	cmd.Flags().String("out", "", "destination directory (default from config)")

	return cmd
}

func runDownload(cmd *cobra.Command, args []string) error {
	password, err := cmd.Flags().GetString("password")
	if err != nil {
		return err
	}

	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	fileIDs := make([]int64, 0, len(args)-1)

	for _, arg := range args[1:] {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid file ID %q", arg)
		}

		fileIDs = append(fileIDs, id)
	}

	s, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()

	if err := s.pullWithPassword(ctx, password); err != nil {
		return err
	}

	collection := s.engine.Collection()
	if collection == nil {
		return fmt.Errorf("album not found")
	}

	if !collection.DownloadEnabled() {
		return fmt.Errorf("the album owner has disabled downloads for this link")
	}

	destDir := out
	if destDir == "" {
		destDir = filepath.Join(s.cfg.DownloadDir, collection.Name)
	}

	coordinator := s.newCoordinator()

	var entryID string

	if len(fileIDs) > 0 {
		coordinator.Select(collection.ID, fileIDs...)
		entryID = coordinator.DownloadSelected(ctx, destDir)
	} else {
		entryID = coordinator.DownloadAll(ctx, destDir)
	}

	if entryID == "" {
		fmt.Println("nothing to download")
		return nil
	}

	entry, _ := s.progress.Get(entryID)
	fmt.Printf("downloaded %d of %d files to %s", entry.Success, entry.Total, destDir)

	if entry.Failed > 0 {
		fmt.Printf(" (%d failed)", entry.Failed)
	}

	fmt.Println()

	return nil
}
