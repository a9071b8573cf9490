package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <share-url>",
		Short: "Drop all locally cached state for a share link",
		Long: `Remove the cached collection, file listing, and any stored
authorization token for the given share link. The next view starts from
scratch.`,
		Args: cobra.ExactArgs(1),
		RunE: runForget,
	}
}

func runForget(cmd *cobra.Command, args []string) error {
	s, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.ClearAll(cmd.Context(), s.link.AccessToken, s.link.KeyID()); err != nil {
		return err
	}

	fmt.Println("forgotten")

	return nil
}
