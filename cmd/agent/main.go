// agent replays a notification click against the visitor action endpoint.
// The click event is read as JSON from --event (or stdin) and the resulting
// confirmation or open-app intent is printed as JSON on stdout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/visitsafe-api/internal/agent"
	"github.com/visitsafe-api/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	_ = godotenv.Load()
	cfg := config.Load()

	var eventPath, endpoint string
	var timeout time.Duration
	flagSet := pflag.NewFlagSet("agent", pflag.ContinueOnError)
	flagSet.StringVarP(&eventPath, "event", "e", "-", "click event JSON file, - for stdin")
	flagSet.StringVar(&endpoint, "endpoint", cfg.AgentEndpointURL, "visitor action endpoint URL (default: derived from the action link)")
	flagSet.DurationVar(&timeout, "timeout", 15*time.Second, "endpoint call timeout")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	ev, err := readEvent(eventPath, stdin)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	a := agent.New(&stdoutPresenter{enc: enc}, agent.WithEndpoint(endpoint), agent.WithTimeout(timeout))

	out, err := a.HandleClick(context.Background(), ev)
	if err != nil {
		return err
	}
	if out.Kind == agent.OutcomeFailed {
		return out.Err
	}
	return nil
}

func readEvent(path string, stdin io.Reader) (agent.ClickEvent, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return agent.ClickEvent{}, fmt.Errorf("open event: %w", err)
		}
		defer f.Close()
		r = f
	}
	var ev agent.ClickEvent
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return agent.ClickEvent{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

// stdoutPresenter prints what a device would display.
type stdoutPresenter struct {
	enc *json.Encoder
}

func (p *stdoutPresenter) ShowNotification(_ context.Context, n agent.Notification) error {
	return p.enc.Encode(map[string]any{"show": n})
}

func (p *stdoutPresenter) OpenApp(_ context.Context, url string) error {
	return p.enc.Encode(map[string]any{"open": url})
}
