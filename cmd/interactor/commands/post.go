package commands

import (
	"errors"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/UkralStul/interactor/internal/composer"
)

func newPostCmd(opts *globalOptions) *cobra.Command {
	var (
		content  string
		imageURL string
		probe    bool
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a post as the current user",
		Long: `Publish a post as the current user and print the feed.

The content must be at least 5 characters after trimming. The optional
image must be an absolute URL; with --probe it is also fetched, and a
URL that does not serve an image is rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer closeSession(cmd, session)

			c := session.Composer
			c.SetContent(content)
			c.SetImageURL(imageURL)
			if probe {
				_ = c.PreviewImage(cmd.Context())
			}

			if _, err := c.Submit(); err != nil {
				var ve *composer.ValidationError
				if errors.As(err, &ve) {
					printFieldErrors(cmd, c.State().Errors)
				}
				return err
			}

			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Posted")
			newRenderer(cmd).Feed(session.Feed.Snapshot())
			return nil
		},
	}

	cmd.Flags().StringVarP(&content, "content", "c", "", "Post text")
	cmd.Flags().StringVarP(&imageURL, "image", "i", "", "Image URL")
	cmd.Flags().BoolVar(&probe, "probe", false, "Fetch the image URL before posting")
	return cmd
}

func printFieldErrors(cmd *cobra.Command, fields map[string]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	yellow := color.New(color.FgYellow)
	for _, name := range names {
		yellow.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", name, fields[name])
	}
}
