package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oshokin/alarm-orchestrator/internal/config"
	"github.com/oshokin/alarm-orchestrator/internal/logger"
)

// Options configures the operator client commands.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Token is the bearer credential presented to the orchestrator.
	Token string
}

// build loads settings and constructs a client for the orchestrator.
func build(opts *Options) (*Client, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	if !strings.Contains(serverAddress, "://") {
		serverAddress = "http://" + serverAddress
	}

	return New(serverAddress, opts.Token, WithCallTimeout(cfg.Timeout))
}

// RunArm arms the alarm and reports the resulting state.
func RunArm(ctx context.Context, opts *Options, alarmID string) error {
	ctx = logger.WithName(ctx, "alarm-ctl")

	api, err := build(opts)
	if err != nil {
		return err
	}

	state, err := api.Arm(ctx, alarmID)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Alarm %s is now %s", state.AlarmID, state.Status)

	return nil
}

// RunDisarm disarms the alarm and reports the resulting state.
func RunDisarm(ctx context.Context, opts *Options, alarmID string) error {
	ctx = logger.WithName(ctx, "alarm-ctl")

	api, err := build(opts)
	if err != nil {
		return err
	}

	state, err := api.Disarm(ctx, alarmID)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Alarm %s is now %s", state.AlarmID, state.Status)

	return nil
}

// RunStatus reports the arming state of one alarm, or of every alarm
// when alarmID is empty.
func RunStatus(ctx context.Context, opts *Options, alarmID string) error {
	ctx = logger.WithName(ctx, "alarm-ctl")

	api, err := build(opts)
	if err != nil {
		return err
	}

	if alarmID == "" {
		summary, summaryErr := api.Statuses(ctx)
		if summaryErr != nil {
			return summaryErr
		}

		if len(summary.Statuses) == 0 {
			logger.Info(ctx, "No alarms have been armed yet")

			return nil
		}

		for id, status := range summary.Statuses {
			logger.Infof(ctx, "Alarm %s: %s", id, status)
		}

		return nil
	}

	state, err := api.Status(ctx, alarmID)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Alarm %s is %s", state.AlarmID, state.Status)
	if state.Timestamp != "" {
		message += " since " + state.Timestamp
	}

	logger.Info(ctx, message)

	return nil
}

// RunTrigger records a trigger event against the alarm.
func RunTrigger(ctx context.Context, opts *Options, input TriggerInput) error {
	ctx = logger.WithName(ctx, "alarm-ctl")

	api, err := build(opts)
	if err != nil {
		return err
	}

	event, err := api.Trigger(ctx, input)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Trigger recorded",
		"event_id", event.ID,
		"alarm_id", event.AlarmID,
		"kind", event.Kind)

	return nil
}

// RunResolve marks the trigger event as handled.
func RunResolve(ctx context.Context, opts *Options, eventID int64) error {
	ctx = logger.WithName(ctx, "alarm-ctl")

	api, err := build(opts)
	if err != nil {
		return err
	}

	event, err := api.Resolve(ctx, eventID)
	if err != nil {
		return err
	}

	resolvedAt := "<unknown>"
	if event.ResolvedAt != nil {
		resolvedAt = event.ResolvedAt.Format(time.RFC3339)
	}

	logger.Infof(ctx, "Trigger event %d resolved at %s", event.ID, resolvedAt)

	return nil
}

// RunList prints the alarm's recent trigger events, or a cross-alarm page
// when alarmID is empty. With activeOnly set it prints unresolved events.
func RunList(ctx context.Context, opts *Options, alarmID string, activeOnly bool, limit, offset int) error {
	ctx = logger.WithName(ctx, "alarm-ctl")

	api, err := build(opts)
	if err != nil {
		return err
	}

	if alarmID == "" {
		page, pageErr := api.AllTriggers(ctx, limit, offset)
		if pageErr != nil {
			return pageErr
		}

		logger.Infof(ctx, "Showing %d of %d trigger events (offset %d)",
			len(page.Triggers), page.Total, page.Offset)

		for _, event := range page.Triggers {
			printEvent(ctx, event.AlarmID, event.ID, event.Kind, event.Resolved, event.CreatedAt)
		}

		return nil
	}

	var list *TriggerList

	if activeOnly {
		list, err = api.ActiveTriggers(ctx, alarmID)
	} else {
		list, err = api.Triggers(ctx, alarmID, limit)
	}

	if err != nil {
		return err
	}

	logger.Infof(ctx, "Alarm %s has %d trigger events", list.AlarmID, list.Count)

	for _, event := range list.Triggers {
		printEvent(ctx, event.AlarmID, event.ID, event.Kind, event.Resolved, event.CreatedAt)
	}

	return nil
}

// RunStats prints trigger statistics for the alarm over a day window.
func RunStats(ctx context.Context, opts *Options, alarmID string, periodDays int) error {
	ctx = logger.WithName(ctx, "alarm-ctl")

	api, err := build(opts)
	if err != nil {
		return err
	}

	stats, err := api.Stats(ctx, alarmID, periodDays)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Trigger statistics",
		"alarm_id", stats.AlarmID,
		"period_days", stats.PeriodDays,
		"total", stats.Total,
		"period_count", stats.PeriodCount,
		"active", stats.ActiveCount,
		"resolved", stats.ResolvedCount)

	return nil
}

// printEvent logs one trigger event in a compact single-line form.
func printEvent(ctx context.Context, alarmID string, id int64, kind string, resolved bool, createdAt time.Time) {
	status := "active"
	if resolved {
		status = "resolved"
	}

	logger.Infof(ctx, "#%d alarm=%s kind=%s status=%s at=%s",
		id, alarmID, kind, status, createdAt.Format(time.RFC3339))
}
