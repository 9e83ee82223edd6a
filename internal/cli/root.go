// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/SamuelBurac/rye/internal/config"
	"github.com/SamuelBurac/rye/internal/logging"
	"github.com/SamuelBurac/rye/internal/provider"
	"github.com/SamuelBurac/rye/internal/render"
	"github.com/SamuelBurac/rye/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions holds flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	verbose    bool
	noMarkdown bool
}

// chatOptions holds the chat-only flags.
type chatOptions struct {
	continueRef string
	provider    string
	model       string
}

// Execute runs the rye command line.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}
	c := &chatOptions{}

	root := &cobra.Command{
		Use:   "rye",
		Short: "Chat with a language model from the terminal",
		Long: `rye is a conversational client. Each conversation is kept as a markdown
document in ~/.rye (or $RYE_CONVERSATIONS) and named after its title once the
first exchange is done.`,
		Example: `  rye                         Start a new conversation
  rye -c go-generics          Continue a conversation by name fragment
  rye -p ollama -m llama3.2   Chat with a local model`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), g, c, cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default <user config dir>/rye/config.toml)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, disabled")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "mirror debug logs to stderr")
	pf.BoolVar(&g.noMarkdown, "no-markdown", false, "print responses as raw text")

	f := root.Flags()
	f.StringVarP(&c.continueRef, "continue", "c", "", "continue the conversation matching ID or name fragment")
	f.StringVarP(&c.provider, "provider", "p", "", "provider: anthropic, openai, ollama, echo")
	f.StringVarP(&c.model, "model", "m", "", "model name (overrides config)")

	root.AddCommand(
		newListCommand(g),
		newShowCommand(g),
		newDeleteCommand(g),
		newConfigCommand(g),
		newVersionCommand(),
	)
	return root
}

// =============================================================================
// STARTUP
// =============================================================================

// app is the state every command starts from.
type app struct {
	cfg    *config.Config
	store  *storage.ConversationStore
	closer io.Closer
}

// setup loads the configuration, applies flag overrides, starts logging and
// resolves the conversation directory.
func setup(g *globalOptions, mutate func(*config.Config)) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.noMarkdown {
		cfg.UI.Markdown = false
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	closer, err := logging.Init(cfg.Log, logging.Options{Verbose: g.verbose})
	if err != nil {
		return nil, err
	}

	dir, err := storage.ResolveDir(cfg.Storage.Dir, os.UserHomeDir)
	if err != nil {
		closer.Close()
		return nil, err
	}
	log.Debug().Str("dir", dir).Str("provider", cfg.Provider.Name).Msg("rye starting")

	return &app{cfg: cfg, store: storage.NewConversationStore(dir), closer: closer}, nil
}

func (a *app) Close() {
	if a.closer != nil {
		a.closer.Close()
	}
}

// newSink chooses markdown rendering for terminals and raw text otherwise.
func newSink(cfg *config.Config, w io.Writer, tty bool) render.Sink {
	if !cfg.UI.Markdown || !tty {
		return render.NewPlainSink(w)
	}

	style := cfg.UI.Theme
	if !ColorsEnabled() {
		style = "notty"
	}
	wrap := cfg.UI.WordWrap
	if wrap == 0 {
		wrap = GetTerminalWidth() - 2
	}

	sink, err := render.NewGlamourSink(w, render.GlamourOptions{
		Style:    style,
		WordWrap: wrap,
		Profile:  GetColorProfile(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("markdown rendering unavailable, using plain text")
		return render.NewPlainSink(w)
	}
	return sink
}

// =============================================================================
// CHAT
// =============================================================================

func runChat(ctx context.Context, g *globalOptions, c *chatOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := setup(g, func(cfg *config.Config) {
		if c.provider != "" {
			cfg.Provider.Name = c.provider
		}
		if c.model != "" {
			cfg.Provider.Model = c.model
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := provider.New(a.cfg)
	if err != nil {
		return err
	}

	input := NewChatCLI()
	defer input.Close()

	var pick promptFunc
	if IsTTY() {
		pick = input.Prompt
	}
	conv, err := openConversation(a.store, c.continueRef, pick, out)
	if err != nil {
		return err
	}

	sess := &Session{
		Store:     a.store,
		Provider:  p,
		Conv:      conv,
		Sink:      newSink(a.cfg, out, IsStdoutTTY()),
		Err:       os.Stderr,
		AutoTitle: true,
	}

	loop := newChatLoop(sess, input, out)
	loop.printWelcome()
	loop.run(ctx)

	if sess.Finish(a.cfg.Storage.RemoveEmpty) {
		return nil
	}
	fmt.Fprintf(out, "Conversation saved to: %s\n", sess.Conv.Path)
	return nil
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rye %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
