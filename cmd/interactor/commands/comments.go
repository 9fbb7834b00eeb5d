package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCommentsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comments POST_ID",
		Short: "Open a post's comments and print the post",
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
			view.ToggleComments(cmd.Context())
			newRenderer(cmd).Post(view.State())
			return nil
		},
	}
}

func newCommentCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comment POST_ID TEXT...",
		Short: "Reply to a post as the current user",
		Long: `Reply to a post as the current user. The comment shows up right away;
it is also sent to the source in the background, and a failure there does
not remove it.`,
		Args: cobra.MinimumNArgs(2),
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
			view.ToggleComments(cmd.Context())
			if _, ok := view.SubmitComment(cmd.Context(), strings.Join(args[1:], " ")); !ok {
				return fmt.Errorf("comment text is empty")
			}
			newRenderer(cmd).Post(view.State())
			return nil
		},
	}
}
