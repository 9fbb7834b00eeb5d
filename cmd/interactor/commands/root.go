package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/UkralStul/interactor/internal/app"
	"github.com/UkralStul/interactor/internal/config"
	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/logger"
	"github.com/UkralStul/interactor/internal/render"
)

var versionInfo = "dev"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	source    string
	configDir string
	verbose   bool
}

// NewRootCmd builds the command tree. Each call returns a fresh tree, so
// tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "interactor",
		Short: "Browse and interact with a social feed from the terminal",
		Long: `interactor loads a feed of posts from DummyJSON (or a local
in-memory or PostgreSQL source), and lets you read comments, like posts,
publish new posts and reply, all rendered in the terminal.

Examples:
  # Print the feed
  interactor feed

  # Expand the comments of post 3
  interactor comments 3

  # Publish a post with an image
  interactor post --content "Hello world" --image https://picsum.photos/200`,
		Version: versionInfo,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVarP(&opts.source, "source", "s", "", "Post source: dummyjson, in-memory or postgres (overrides SOURCE)")
	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", ".", "Directory searched for config.yml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stdout at debug level")

	root.AddCommand(
		newFeedCmd(opts),
		newCommentsCmd(opts),
		newPostCmd(opts),
		newCommentCmd(opts),
		newLikeCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// openSession loads configuration, applies flag overrides and returns a
// session whose feed is already loaded. A failed load is not an error here:
// the renderer shows the load error banner.
func openSession(ctx context.Context, opts *globalOptions) (*app.Session, error) {
	cfg, err := config.Load(opts.configDir)
	if err != nil {
		return nil, err
	}
	if opts.source != "" {
		cfg.Source = opts.source
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log := zap.NewNop()
	if opts.verbose {
		log = logger.New(logger.Options{Level: "debug", Path: cfg.LogPath})
	}

	session, err := app.NewSession(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := session.Feed.Load(ctx); err != nil {
		log.Warn("feed load failed", zap.Error(err))
	}
	return session, nil
}

func newRenderer(cmd *cobra.Command) *render.Renderer {
	return render.New(cmd.OutOrStdout(), nil)
}

func parsePostID(s string) (domain.PostID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid post id %q", s)
	}
	return domain.PostID(id), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "interactor", versionInfo)
		},
	}
}

func closeSession(cmd *cobra.Command, s *app.Session) {
	if err := s.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
}
