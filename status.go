package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <share-url>",
		Short: "Show locally cached state for a share link",
		Long: `Inspect what is cached locally for a share link: the album
snapshot, how many files are in the cached listing, and whether a
password authorization token is stored. Purely local — nothing is
fetched.`,
		Args: cobra.ExactArgs(1),
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	collection, ok, err := s.store.Collection(ctx, s.link.KeyID())
	if err != nil {
		return err
	}

	if !ok {
		fmt.Fprintln(out, "no cached state for this link")

		return nil
	}

	files, _, err := s.store.Files(ctx, s.link.AccessToken)
	if err != nil {
		return err
	}

	_, haveToken, err := s.store.AuthToken(ctx, s.link.AccessToken)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "album\t%s\n", collection.Name)
	fmt.Fprintf(w, "files cached\t%d\n", len(files))
	fmt.Fprintf(w, "password protected\t%t\n", collection.IsPasswordProtected())
	fmt.Fprintf(w, "auth token cached\t%t\n", haveToken)
	fmt.Fprintf(w, "downloads enabled\t%t\n", collection.DownloadEnabled())

	return w.Flush()
}
