package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/pflag"

	"taskboard/internal/config"
	"taskboard/internal/events"
	"taskboard/internal/exitcode"
	"taskboard/internal/output"
	"taskboard/internal/service"
)

func init() {
	Register(&EventsCmd{})
}

// EventSource delivers change events. *events.Reader implements it.
type EventSource interface {
	Each(ctx context.Context, fn func(events.Event) error, skip func(kafka.Message, error)) error
	Close() error
}

// EventsCmd implements the events command: it follows the change event
// topic until interrupted.
type EventsCmd struct {
	group  string
	format string

	newSource func(brokers []string, topic, group string) EventSource
}

// SetSource replaces the Kafka consumer (for testing).
func (c *EventsCmd) SetSource(fn func(brokers []string, topic, group string) EventSource) {
	c.newSource = fn
}

func (c *EventsCmd) Name() string       { return "events" }
func (c *EventsCmd) Aliases() []string  { return []string{"tail"} }
func (c *EventsCmd) Synopsis() string   { return "Follow task change events" }
func (c *EventsCmd) Usage() string      { return "taskboard events [--group <id>] [--format text|json]" }
func (c *EventsCmd) NeedsService() bool { return false }
func (c *EventsCmd) NeedsAuth() bool    { return false }

func (c *EventsCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.group, "group", "taskboard-cli", "consumer group id")
	fs.StringVarP(&c.format, "format", "o", "text", "output format: text or json")
}

func (c *EventsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(cfg.Kafka.Brokers) == 0 {
		fmt.Fprintln(errOut, "error: kafka.brokers is not configured")
		return exitcode.AuthError
	}
	format, err := output.ParseFormat(c.format)
	if err != nil || format == output.FormatYAML {
		fmt.Fprintf(errOut, "error: unknown format: %s\n", c.format)
		return exitcode.UserError
	}

	newSource := c.newSource
	if newSource == nil {
		newSource = func(brokers []string, topic, group string) EventSource {
			return events.NewReader(brokers, topic, group)
		}
	}
	src := newSource(cfg.Kafka.Brokers, cfg.Kafka.Topic, c.group)
	defer src.Close()

	logger := cfg.Logger()
	enc := json.NewEncoder(out)
	err = src.Each(ctx, func(ev events.Event) error {
		if format == output.FormatJSON {
			return enc.Encode(ev)
		}
		subject := ev.Title
		if ev.Action == events.ActionUploaded {
			subject = ev.Path
		}
		output.FormatEvent(out, ev.At, ev.Action, ev.TaskID, subject)
		return nil
	}, func(m kafka.Message, err error) {
		logger.Printf("skipping message at offset %d: %v", m.Offset, err)
	})
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
