package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"travel-wallet/internal/bot"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// palette colors replies by outcome.
type palette struct {
	ok, warn, fail, ask *color.Color
}

func newPalette(colored bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed),
		ask:  color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{p.ok, p.warn, p.fail, p.ask} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) paint(kind bot.Kind, text string) string {
	switch kind {
	case bot.KindTripCreated, bot.KindExpenseRecorded, bot.KindDescriptionSaved, bot.KindRateUpdated, bot.KindTripSwitched:
		return p.ok.Sprint(text)
	case bot.KindRateFallback, bot.KindStale, bot.KindSessionReset, bot.KindCancelled:
		return p.warn.Sprint(text)
	case bot.KindNotUnderstood, bot.KindUnknownCountry, bot.KindSameCurrency, bot.KindInvalidRate,
		bot.KindInvalidAmount, bot.KindNotPositive, bot.KindNoActiveTrip, bot.KindRateUnavailable,
		bot.KindOriginNotQuotable, bot.KindDestinationNotQuotable, bot.KindTripNotFound, bot.KindUnknownCommand:
		return p.fail.Sprint(text)
	}
	return text
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// answer reports whether line answers a pending yes/no question.
func answer(line string) (accept, ok bool) {
	switch strings.ToLower(line) {
	case "y", "yes", "да":
		return true, true
	case "n", "no", "нет":
		return false, true
	}
	return false, false
}

func (a *app) repl(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	interactive := isTerminal(stdin)
	colors := newPalette(isTerminal(stdout))
	prompt := func() {
		if interactive {
			fmt.Fprint(stdout, "> ")
		}
	}

	if err := a.router.Register(ctx, a.user, a.name); err != nil {
		return err
	}

	var pending bot.Purpose
	scanner := bufio.NewScanner(stdin)
	prompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			prompt()
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		var (
			replies []bot.Reply
			err     error
		)
		if accept, ok := answer(line); ok && pending != "" {
			replies, err = a.router.HandleConfirmation(ctx, a.user, pending, accept)
		} else if cmd, ok := bot.ParseCommand(line); ok && !strings.EqualFold(line, bot.SkipToken) {
			replies, err = a.router.HandleCommand(ctx, a.user, a.name, cmd)
		} else {
			replies, err = a.router.HandleText(ctx, a.user, line)
		}
		if err != nil {
			fmt.Fprintln(stdout, colors.fail.Sprintf("Error: %v", err))
			pending = ""
			prompt()
			continue
		}

		if len(replies) > 0 {
			pending = ""
		}
		for _, reply := range replies {
			text := colors.paint(reply.Kind, a.renderer.Text(reply))
			if reply.Confirm != "" {
				pending = reply.Confirm
				text += " " + colors.ask.Sprint("[y/n]")
			}
			fmt.Fprintln(stdout, text)
			fmt.Fprintln(stdout)
		}
		prompt()
	}
	return scanner.Err()
}
