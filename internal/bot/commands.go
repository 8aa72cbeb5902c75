package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"travel-wallet/internal/models"

	"github.com/go-kit/log/level"
)

// Command names understood by HandleCommand.
const (
	CmdStart   = "start"
	CmdHelp    = "help"
	CmdNewTrip = "newtrip"
	CmdSwitch  = "switch"
	CmdBalance = "balance"
	CmdHistory = "history"
	CmdSetRate = "setrate"
	CmdCancel  = "cancel"
)

// Command is a parsed slash command such as "/switch 3".
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits text of the form "/name arg..." into a Command.
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	// Telegram-style "/start@botname"
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return Command{}, false
	}
	return Command{Name: name, Args: fields[1:]}, true
}

// HandleCommand runs a command on behalf of user. displayName is recorded
// when the user is registered by the start command.
func (r *Router) HandleCommand(ctx context.Context, user models.UserID, displayName string, cmd Command) ([]Reply, error) {
	defer r.lock(user)()
	logger := r.eventLogger(user, "command")
	level.Debug(logger).Log("msg", "command received", "command", cmd.Name, "args", strings.Join(cmd.Args, " "))

	var (
		replies []Reply
		err     error
	)
	switch cmd.Name {
	case CmdStart:
		replies, err = r.start(ctx, user, displayName)
	case CmdHelp:
		replies = []Reply{{Kind: KindHelp}}
	case CmdNewTrip:
		replies = r.startSetup(user)
	case CmdSwitch:
		replies, err = r.switchTrip(ctx, user, cmd.Args)
	case CmdBalance:
		replies, err = r.balance(ctx, user)
	case CmdHistory:
		replies, err = r.history(ctx, user)
	case CmdSetRate:
		replies, err = r.startRateChange(ctx, user)
	case CmdCancel:
		replies = r.cancel(user)
	default:
		replies = []Reply{{Kind: KindUnknownCommand, Text: cmd.Name}}
	}
	if err != nil {
		level.Error(logger).Log("msg", "command failed", "command", cmd.Name, "err", err)
	}
	return replies, err
}

func (r *Router) start(ctx context.Context, user models.UserID, displayName string) ([]Reply, error) {
	if err := r.ledger.RegisterUser(ctx, user, strings.TrimSpace(displayName)); err != nil {
		return nil, err
	}
	r.sessions.Clear(user)

	// greet by the name given on first contact
	u, err := r.ledger.User(ctx, user)
	if err != nil {
		return nil, err
	}
	name := u.Name
	if name == "" {
		name = strings.TrimSpace(displayName)
	}
	return []Reply{{Kind: KindWelcome, Text: name}}, nil
}

func (r *Router) cancel(user models.UserID) []Reply {
	if _, ok := r.sessions.Load(user); !ok {
		return []Reply{{Kind: KindNothingToCancel}}
	}
	r.sessions.Clear(user)
	return []Reply{{Kind: KindCancelled}}
}

// switchTrip lists the user's trips, or activates the one named by args[0].
// Any in-flight flow refers to the previous trip and is dropped.
func (r *Router) switchTrip(ctx context.Context, user models.UserID, args []string) ([]Reply, error) {
	if len(args) == 0 {
		trips, err := r.ledger.Trips(ctx, user)
		if err != nil {
			return nil, err
		}
		return []Reply{{Kind: KindTripList, Trips: trips}}, nil
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return []Reply{{Kind: KindTripNotFound, Text: args[0]}}, nil
	}
	if err := r.ledger.Activate(ctx, user, id); err != nil {
		if errors.Is(err, models.ErrTripNotFound) {
			return []Reply{{Kind: KindTripNotFound, Text: args[0]}}, nil
		}
		return nil, err
	}
	r.sessions.Clear(user)

	trip, err := r.ledger.Trip(ctx, id)
	if err != nil {
		return nil, err
	}
	return []Reply{{Kind: KindTripSwitched, Trip: trip}}, nil
}

func (r *Router) balance(ctx context.Context, user models.UserID) ([]Reply, error) {
	trip, err := r.ledger.ActiveTrip(ctx, user)
	if errors.Is(err, models.ErrNoActiveTrip) {
		return []Reply{{Kind: KindNoActiveTrip}}, nil
	}
	if err != nil {
		return nil, err
	}
	return []Reply{{Kind: KindBalance, Trip: trip}}, nil
}

func (r *Router) history(ctx context.Context, user models.UserID) ([]Reply, error) {
	trip, err := r.ledger.ActiveTrip(ctx, user)
	if errors.Is(err, models.ErrNoActiveTrip) {
		return []Reply{{Kind: KindNoActiveTrip}}, nil
	}
	if err != nil {
		return nil, err
	}

	expenses, err := r.ledger.Expenses(ctx, trip.ID, r.opts.HistoryLimit)
	if err != nil {
		return nil, err
	}
	summary, err := r.ledger.Summary(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	return []Reply{{Kind: KindHistory, Trip: trip, Expenses: expenses, Summary: &summary}}, nil
}
