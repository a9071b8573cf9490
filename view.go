package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/album-go/internal/album"
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <share-url>",
		Short: "Pull and list a shared album",
		Long: `Pull the album behind a share link and print its file listing.

Password-protected albums prompt for the password; pass --password to
skip the prompt. Pulled state is cached locally, so a repeat view works
offline and only fetches changes.`,
		Args: cobra.ExactArgs(1),
		RunE: runView,
	}

	cmd.Flags().String("password", "", "album password, if protected")

	return cmd
}

func runView(cmd *cobra.Command, args []string) error {
	password, err := cmd.Flags().GetString("password")
	if err != nil {
		return err
	}

	s, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()

	if err := s.pullWithPassword(ctx, password); err != nil {
		// A transient failure with cached data still prints the album below.
		if s.engine.State() != album.StateTransientFailure || len(s.engine.Files()) == 0 {
			return err
		}

		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	collection := s.engine.Collection()
	files := s.engine.Files()

	if collection == nil {
		return fmt.Errorf("album not found")
	}

	fmt.Printf("%s — %d files\n", collection.Name, len(files))

	if code := s.engine.ReferralCode(); code != "" {
		s.logger.Debug("referral code", "code", code)
	}

	if !collection.DownloadEnabled() {
		fmt.Println("(downloads disabled by the album owner)")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	for _, f := range files {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			f.ID,
			f.Name,
			formatSize(f.Size),
			formatTime(time.UnixMicro(f.SortTime())),
		)
	}

	return w.Flush()
}
