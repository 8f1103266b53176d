package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kylemclaren/devcoach/internal/checkin"
	"github.com/kylemclaren/devcoach/internal/config"
	"github.com/kylemclaren/devcoach/internal/errs"
	"github.com/kylemclaren/devcoach/internal/history"
	"github.com/kylemclaren/devcoach/internal/notify"
	"github.com/kylemclaren/devcoach/internal/scheduler"
	"github.com/kylemclaren/devcoach/internal/task"
)

// App bundles everything the shell operates on.
type App struct {
	Cfg      *config.Manager
	Tasks    *task.Store
	Registry *checkin.Registry
	Daily    *checkin.Log
	Sched    *scheduler.Scheduler
	Notifier notify.Notifier
	History  *history.History
	Log      *log.Logger

	// NewCoach builds the AI client for free-text conversation.
	NewCoach func(apiKey string) scheduler.Coach

	DataPath   string
	MemoryOnly bool
}

// Execute runs one slash command and returns its output. quit is true
// for /exit. Free-text AI conversation and /config test are handled
// asynchronously by the model, not here.
func (a *App) Execute(line string) (out string, quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/todo":
		out, err = a.runTodo(args)
	case "/checkin":
		out, err = a.runCheckin(args)
	case "/config":
		out, err = a.runConfig(args)
	case "/help":
		out = helpText
	case "/exit", "/quit":
		return "Goodbye. Keep shipping.", true, nil
	default:
		err = errs.Newf(errs.KindValidation, "unknown command %s (try /help)", cmd)
	}
	return out, false, err
}

func (a *App) runTodo(args []string) (string, error) {
	if len(args) == 0 {
		return "", errs.New(errs.KindValidation, "usage: /todo add|list|start|complete|remove|backup")
	}

	switch args[0] {
	case "add":
		t, err := a.Tasks.Add(strings.Join(args[1:], " "))
		if err != nil {
			return "", err
		}
		return successMsgStyle.Render("Added: ") + t.Description, nil

	case "list":
		return renderTasks(a.Tasks.List()), nil

	case "start":
		index, err := parseIndex(args[1:])
		if err != nil {
			return "", err
		}
		started, displaced, err := a.Tasks.Start(index)
		if err != nil {
			return "", err
		}
		out := successMsgStyle.Render("Started: ") + started.Description
		if displaced != nil {
			out += "\n" + dimStyle.Render("Put on hold: "+displaced.Description)
		}
		return out, nil

	case "complete":
		index, err := parseIndex(args[1:])
		if err != nil {
			return "", err
		}
		t, err := a.Tasks.Complete(index)
		if err != nil {
			return "", err
		}
		return successMsgStyle.Render("Completed: ") + t.Description, nil

	case "remove":
		index, err := parseIndex(args[1:])
		if err != nil {
			return "", err
		}
		t, err := a.Tasks.Remove(index)
		if err != nil {
			return "", err
		}
		return "Removed: " + t.Description, nil

	case "backup":
		name, err := a.Tasks.Backup()
		if err != nil {
			return "", err
		}
		return "Backup written to " + name, nil

	default:
		return "", errs.Newf(errs.KindValidation, "unknown /todo subcommand %q", args[0])
	}
}

func (a *App) runCheckin(args []string) (string, error) {
	if len(args) == 0 {
		return "", errs.New(errs.KindValidation, "usage: /checkin add|list|remove|status|test")
	}

	switch args[0] {
	case "add":
		if len(args) < 2 {
			return "", errs.New(errs.KindValidation, "usage: /checkin add <HH:MM or interval like 2h30m>")
		}
		entry, err := a.Registry.Add(strings.Join(args[1:], " "))
		if errors.Is(err, checkin.ErrDuplicateTime) {
			return dimStyle.Render("A check-in for that time already exists."), nil
		}
		if err != nil {
			return "", err
		}
		return successMsgStyle.Render("Check-in scheduled for ") + entry.Time, nil

	case "list":
		return renderCheckins(a.Registry.List()), nil

	case "remove":
		index, err := parseIndex(args[1:])
		if err != nil {
			return "", err
		}
		removed, err := a.Registry.Remove(index)
		if err != nil {
			return "", err
		}
		return "Removed check-in at " + removed.Time, nil

	case "status":
		return a.renderCheckinStatus(), nil

	case "test":
		a.Notifier.Notify("Dev Coach", "Test notification. If you can read this, delivery works.", notify.Options{Sound: true})
		return "Test notification sent.", nil

	default:
		return "", errs.Newf(errs.KindValidation, "unknown /checkin subcommand %q", args[0])
	}
}

func (a *App) runConfig(args []string) (string, error) {
	if len(args) == 0 {
		return "", errs.New(errs.KindValidation, "usage: /config set|get|list|reset|status|test")
	}

	switch args[0] {
	case "set":
		if len(args) < 3 {
			return "", errs.New(errs.KindValidation, "usage: /config set <key> <value>")
		}
		if err := a.Cfg.Set(args[1], strings.Join(args[2:], " ")); err != nil {
			return "", err
		}
		return successMsgStyle.Render("Set ") + args[1], nil

	case "get":
		if len(args) < 2 {
			return "", errs.New(errs.KindValidation, "usage: /config get <key>")
		}
		v, err := a.Cfg.GetKey(args[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", args[1], v), nil

	case "list":
		return strings.Join(a.Cfg.ListKeys(), "\n"), nil

	case "reset":
		if err := a.Cfg.Reset(); err != nil {
			return "", err
		}
		if err := a.Registry.Rebuild(); err != nil {
			return "", err
		}
		return "Configuration reset to defaults.", nil

	case "status":
		return a.renderConfigStatus(), nil

	default:
		return "", errs.Newf(errs.KindValidation, "unknown /config subcommand %q", args[0])
	}
}

func (a *App) renderCheckinStatus() string {
	jobs := a.Sched.Jobs()
	if len(jobs) == 0 {
		return dimStyle.Render("No check-ins scheduled. Add one with /checkin add <time>.")
	}

	var b strings.Builder
	b.WriteString("Active check-ins:\n")
	for _, j := range jobs {
		next := "not yet scheduled"
		if !j.Next.IsZero() {
			next = j.Next.Format("Mon 15:04")
		}
		fmt.Fprintf(&b, "  %s  next run %s\n", j.Time, dimStyle.Render(next))
	}
	if last := a.Cfg.Get().LastSuccessfulCheckin; last != nil {
		fmt.Fprintf(&b, "Last successful check-in: %s\n", last.Format("2006-01-02 15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) renderConfigStatus() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Data directory: %s\n", a.DataPath)
	if a.MemoryOnly {
		b.WriteString(errorMsgStyle.Render("Running in memory-only mode, nothing will be saved.") + "\n")
	}
	if a.Cfg.APIKey() != "" {
		b.WriteString("AI API key: " + successMsgStyle.Render("configured") + "\n")
	} else {
		b.WriteString("AI API key: " + errorMsgStyle.Render("not set") + " (set with /config set ai_api_key <key>)\n")
	}
	fmt.Fprintf(&b, "Tasks: %d   Check-ins: %d", a.Tasks.Len(), len(a.Registry.List()))
	return b.String()
}

func renderTasks(tasks []task.Task) string {
	if len(tasks) == 0 {
		return dimStyle.Render("No tasks yet. Add one with /todo add <description>.")
	}

	var b strings.Builder
	for i, t := range tasks {
		fmt.Fprintf(&b, "%2d. %s %s\n", i+1, renderStatus(t.Status), t.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStatus(s task.Status) string {
	switch s {
	case task.StatusInProgress:
		return statusActive.Render("[in-progress]")
	case task.StatusOnHold:
		return statusHold.Render("[on-hold]")
	case task.StatusCompleted:
		return statusDone.Render("[completed]")
	default:
		return "[pending]"
	}
}

func renderCheckins(entries []config.Checkin) string {
	if len(entries) == 0 {
		return dimStyle.Render("No check-ins configured. Add one with /checkin add <time>.")
	}

	var b strings.Builder
	for i, c := range entries {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, c.Time)
	}
	return strings.TrimRight(b.String(), "\n")
}

func parseIndex(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errs.New(errs.KindValidation, "missing task number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errs.Newf(errs.KindValidation, "%q is not a number", args[0])
	}
	return n, nil
}

const helpText = `Commands:
  /todo add <description>     Add a task
  /todo list                  List tasks
  /todo start <n>             Start task n (puts the current one on hold)
  /todo complete <n>          Mark task n completed
  /todo remove <n>            Delete task n
  /todo backup                Write a timestamped backup of the task list

  /checkin add <time>         Schedule a daily check-in (14:30, or 2h, 1h30m from now)
  /checkin list               List scheduled check-ins
  /checkin remove <n>         Remove check-in n
  /checkin status             Show active triggers and next run times
  /checkin test               Send a test notification

  /config set <key> <value>   Change a setting (ai_api_key, theme, notify_webhook, ...)
  /config get <key>           Show one setting
  /config list                Show all settings
  /config status              Show where data lives and what is configured
  /config test                Verify the AI connection
  /config reset               Restore defaults

  /help                       This message
  /exit                       Save and quit

Anything that is not a command is sent to your AI coach.`
