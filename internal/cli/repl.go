// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/SamuelBurac/rye/internal/config"
	"github.com/SamuelBurac/rye/internal/util"
)

// historyFileName is the line-editor history kept in the config directory.
const historyFileName = "history"

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader supplies user input one line at a time.
type lineReader interface {
	ReadInput(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for interactive chat.
// USABILITY: Supports arrow keys for history navigation and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor and loads its history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		// Fallback to temp directory if config dir unavailable
		dir = os.TempDir()
	}

	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, historyFileName)}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input, adding non-blank lines to the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Prompt reads a line without recording it in the history.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	return c.line.Prompt(prompt)
}

// SaveHistory persists command history to file with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0755); err != nil {
		return
	}

	// Create file with secure permissions (0600 - owner read/write only)
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		log.Debug().Err(err).Str("path", c.historyFile).Msg("could not save input history")
		return
	}
	defer f.Close()

	_, _ = c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT LOOP
// =============================================================================

// chatLoop runs the read-respond cycle for one session.
type chatLoop struct {
	sess *Session
	in   lineReader
	out  io.Writer

	// copyText places text on the system clipboard.
	copyText func(string) error

	// interruptible derives the context for one response; the response is
	// cancelled by Ctrl+C.
	interruptible func(context.Context) (context.Context, context.CancelFunc)
}

func newChatLoop(sess *Session, in lineReader, out io.Writer) *chatLoop {
	return &chatLoop{
		sess:     sess,
		in:       in,
		out:      out,
		copyText: clipboard.WriteAll,
		interruptible: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt)
		},
	}
}

// run reads input until the user quits or input ends.
func (c *chatLoop) run(ctx context.Context) {
	for {
		input, err := c.in.ReadInput(PromptStyle.Render("You> "))
		if err != nil {
			// Ctrl+C, Ctrl+D or end of piped input
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				log.Debug().Err(err).Msg("input ended")
			}
			fmt.Fprintln(c.out)
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if handled, quit := c.command(input); quit {
			return
		} else if handled {
			continue
		}

		c.exchange(ctx, input)
	}
}

// exchange sends one message and reports how the response ended.
func (c *chatLoop) exchange(ctx context.Context, input string) {
	ctx, stop := c.interruptible(ctx)
	defer stop()

	fmt.Fprintln(c.out, Separator(GetTerminalWidth()))
	_, err := c.sess.Exchange(ctx, input)
	fmt.Fprintln(c.out, Separator(GetTerminalWidth()))

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(c.out, WarningStyle.Render("[Cancelled] partial response saved"))
	default:
		fmt.Fprintln(c.out, ErrorStyle.Render("[Error]"), err)
	}
}

// =============================================================================
// CHAT COMMANDS
// =============================================================================

// command handles a chat command. handled is false for ordinary messages.
func (c *chatLoop) command(input string) (handled, quit bool) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "exit", "quit", "/exit", "/quit", "/q":
		if arg == "" {
			return true, true
		}
		return false, false
	case "help", "/help", "/h", "/?":
		if arg == "" {
			c.printHelp()
			return true, false
		}
		return false, false
	case "/title":
		c.setTitle(arg)
	case "/copy":
		c.copyLast()
	case "/history":
		c.printHistory()
	case "/info":
		c.printInfo()
	default:
		if strings.HasPrefix(name, "/") && !strings.Contains(name[1:], "/") {
			fmt.Fprintf(c.out, "Unknown command %s. Type %s for a list.\n", name, CommandStyle.Render("help"))
			return true, false
		}
		return false, false
	}
	return true, false
}

func (c *chatLoop) printHelp() {
	cmds := []struct{ name, desc string }{
		{"help", "Show this help"},
		{"/title TEXT", "Rename the conversation"},
		{"/copy", "Copy the last response to the clipboard"},
		{"/history", "List the turns so far"},
		{"/info", "Show conversation details"},
		{"exit, quit", "Leave the chat (Ctrl+D also works)"},
		{"Ctrl+C", "Stop the current response"},
	}

	fmt.Fprintln(c.out, "Commands:")
	for _, cmd := range cmds {
		fmt.Fprintf(c.out, "  %s %s\n", CommandStyle.Render(util.PadRight(cmd.name, 14)), cmd.desc)
	}
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "Conversation ID: %s\n", c.sess.Conv.ID)
	fmt.Fprintf(c.out, "Conversation file: %s\n", c.sess.Conv.Path)
}

func (c *chatLoop) setTitle(title string) {
	if title == "" {
		fmt.Fprintln(c.out, "Usage: /title TEXT")
		return
	}
	if err := c.sess.AssignTitle(title); err != nil {
		fmt.Fprintln(c.out, ErrorStyle.Render("[Error]"), err)
		return
	}
	fmt.Fprintln(c.out, SuccessStyle.Render("Renamed to "+c.sess.Conv.Title))
}

func (c *chatLoop) copyLast() {
	text, ok := c.sess.LastResponse()
	if !ok {
		fmt.Fprintln(c.out, "Nothing to copy yet.")
		return
	}
	if err := c.copyText(text); err != nil {
		fmt.Fprintln(c.out, ErrorStyle.Render("[Error]"), "clipboard unavailable:", err)
		return
	}
	fmt.Fprintln(c.out, SuccessStyle.Render("Copied last response to the clipboard"))
}

func (c *chatLoop) printHistory() {
	if c.sess.Conv.IsEmpty() {
		fmt.Fprintln(c.out, "No messages yet.")
		return
	}
	width := GetTerminalWidth() - 16
	for i, t := range c.sess.Conv.Turns {
		fmt.Fprintf(c.out, "%3d  %s %s\n", i+1,
			util.PadRight(t.Role.DisplayName(), 10),
			util.TruncateWidth(util.FirstLine(t.Content), width))
	}
}

func (c *chatLoop) printInfo() {
	conv := c.sess.Conv
	title := conv.Title
	if title == "" {
		title = DimStyle.Render("(untitled)")
	}
	rows := [][2]string{
		{"ID", conv.ID},
		{"Title", title},
		{"File", conv.Path},
		{"Turns", fmt.Sprint(conv.TurnCount())},
		{"Provider", c.sess.Provider.Name()},
		{"Model", c.sess.Provider.Model()},
	}
	for _, r := range rows {
		fmt.Fprintf(c.out, "%s %s\n", LabelStyle.Render(r[0]+":"), r[1])
	}
}

func (c *chatLoop) printWelcome() {
	fmt.Fprintln(c.out, WelcomeStyle.Render("Welcome to rye"))
	fmt.Fprintln(c.out, InfoStyle.Render(fmt.Sprintf("Chatting with %s (%s). Type help for commands, exit to quit.",
		c.sess.Provider.Name(), c.sess.Provider.Model())))
	if c.sess.Conv.HasTitle() || !c.sess.Conv.IsEmpty() {
		fmt.Fprintf(c.out, "%s %s (%d turns)\n", InfoStyle.Render("Continuing:"), c.sess.Conv.DisplayTitle(), c.sess.Conv.TurnCount())
	}
	fmt.Fprintln(c.out)
}
