package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFeedCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Load the feed and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeSession(cmd, session)

			newRenderer(cmd).Feed(session.Feed.Snapshot())
			return nil
		},
	}
}

func newLikeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like POST_ID",
		Short: "Like a post and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePostID(args[0])
			if err != nil {
				return err
			}
			session, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeSession(cmd, session)

			view, ok := session.Feed.View(id)
			if !ok {
				return fmt.Errorf("post %d not found", id)
			}
			view.ToggleLike()
			newRenderer(cmd).Post(view.State())
			return nil
		},
	}
}
