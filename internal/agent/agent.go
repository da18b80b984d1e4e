// Package agent interprets clicks on delivered visitor notifications. Action
// buttons are forwarded to the visitor action endpoint without opening the
// app; the outcome is shown as a terminal confirmation notification.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/visitsafe-api/internal/domain"
)

const defaultTimeout = 15 * time.Second

// ClickEvent is a user activation on a delivered notification. Action is
// empty for a click on the notification body.
type ClickEvent struct {
	Action string            `json:"action"`
	Data   map[string]string `json:"data"`
}

// Notification is a terminal confirmation. It carries no action buttons and
// is tagged so that clicking it does nothing.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// Presenter is the host environment that displays notifications and opens
// the application.
type Presenter interface {
	ShowNotification(ctx context.Context, n Notification) error
	OpenApp(ctx context.Context, url string) error
}

type OutcomeKind string

const (
	OutcomeIgnored   OutcomeKind = "ignored"
	OutcomeOpenedApp OutcomeKind = "opened_app"
	OutcomeConfirmed OutcomeKind = "confirmed"
	OutcomeFailed    OutcomeKind = "failed"
)

// Outcome describes what the agent did for one click.
type Outcome struct {
	Kind         OutcomeKind          `json:"kind"`
	URL          string               `json:"url,omitempty"`
	Notification *Notification        `json:"notification,omitempty"`
	Result       *domain.ActionResult `json:"result,omitempty"`
	Err          error                `json:"-"`
}

// Agent forwards notification action clicks to the action endpoint.
type Agent struct {
	client    *resty.Client
	endpoint  string
	presenter Presenter
}

type Option func(*Agent)

// WithEndpoint fixes the action endpoint URL. Without it the endpoint is
// derived from the action link embedded in the notification.
func WithEndpoint(endpoint string) Option {
	return func(a *Agent) { a.endpoint = endpoint }
}

func WithTimeout(d time.Duration) Option {
	return func(a *Agent) { a.client.SetTimeout(d) }
}

func New(presenter Presenter, opts ...Option) *Agent {
	a := &Agent{
		client: resty.New().
			SetTimeout(defaultTimeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
		presenter: presenter,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// HandleClick processes one click and blocks until the endpoint call and the
// resulting notification have settled. The returned error is only set when
// the presenter itself fails; endpoint failures end up in Outcome.Err and are
// shown to the user.
func (a *Agent) HandleClick(ctx context.Context, ev ClickEvent) (*Outcome, error) {
	if ev.Data[domain.DataType] == domain.NotificationTypeActionConfirmation {
		return &Outcome{Kind: OutcomeIgnored}, nil
	}

	action, err := domain.ParseAction(ev.Action)
	if strings.TrimSpace(ev.Action) == "" || err != nil {
		target := ev.Data[domain.DataClickAction]
		if target == "" {
			target = "/"
		}
		return &Outcome{Kind: OutcomeOpenedApp, URL: target}, a.presenter.OpenApp(ctx, target)
	}

	params := extractParams(ev.Data, action)
	res, callErr := a.call(ctx, params)
	out := &Outcome{Result: res, Err: callErr}
	var n Notification
	if callErr != nil {
		slog.Warn("visitor action failed", "request_id", params.RequestID, "err", callErr)
		out.Kind = OutcomeFailed
		n = failureNotification(callErr)
	} else {
		out.Kind = OutcomeConfirmed
		n = confirmationNotification(res)
	}
	out.Notification = &n
	return out, a.presenter.ShowNotification(ctx, n)
}

type actionParams struct {
	Action      domain.Action `json:"action"`
	RequestID   string        `json:"requestId"`
	ResidencyID string        `json:"residencyId"`
	ResidentID  string        `json:"residentId,omitempty"`
	Token       string        `json:"token,omitempty"`
	// link is the embedded action link, used to locate the endpoint.
	link string
}

// extractParams reads identifiers from the structured data and fills any gap
// from the action links' query strings, preferring the link of the clicked
// action.
func extractParams(data map[string]string, action domain.Action) actionParams {
	p := actionParams{
		Action:      action,
		RequestID:   data[domain.DataRequestID],
		ResidencyID: data[domain.DataResidencyID],
		ResidentID:  data[domain.DataResidentID],
		Token:       data[domain.DataApprovalToken],
	}
	links := []string{data[domain.DataApproveURL], data[domain.DataRejectURL]}
	if action == domain.ActionReject {
		links[0], links[1] = links[1], links[0]
	}
	for _, raw := range links {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if p.link == "" {
			p.link = raw
		}
		q := u.Query()
		fill(&p.RequestID, q.Get("requestId"))
		fill(&p.ResidencyID, q.Get("residencyId"))
		fill(&p.ResidentID, q.Get("residentId"))
		fill(&p.Token, firstNonEmpty(q.Get("token"), q.Get("approvalToken")))
	}
	return p
}

func (a *Agent) call(ctx context.Context, p actionParams) (*domain.ActionResult, error) {
	endpoint, err := a.resolveEndpoint(p.link)
	if err != nil {
		return nil, err
	}
	if p.RequestID == "" || p.ResidencyID == "" {
		return nil, errors.New("notification is missing requestId or residencyId")
	}

	query := map[string]string{
		"action":      string(p.Action),
		"requestId":   p.RequestID,
		"residencyId": p.ResidencyID,
	}
	if p.ResidentID != "" {
		query["residentId"] = p.ResidentID
	}
	if p.Token != "" {
		query["token"] = p.Token
	}

	var result domain.ActionResult
	var apiErr struct {
		Error string `json:"error"`
	}
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetBody(p).
		SetResult(&result).
		SetError(&apiErr).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("call action endpoint: %w", err)
	}
	if resp.IsError() {
		detail := apiErr.Error
		if detail == "" {
			detail = strings.TrimSpace(resp.String())
		}
		return nil, fmt.Errorf("action endpoint returned %d: %s", resp.StatusCode(), detail)
	}
	if !result.Success {
		return nil, fmt.Errorf("action endpoint reported failure: %s", result.Message)
	}
	return &result, nil
}

// resolveEndpoint returns the configured endpoint, or the action link without
// its query string.
func (a *Agent) resolveEndpoint(link string) (string, error) {
	if a.endpoint != "" {
		return a.endpoint, nil
	}
	if link == "" {
		return "", errors.New("no action endpoint configured and no action link in notification")
	}
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid action link %q", link)
	}
	u.RawQuery, u.Fragment = "", ""
	return u.String(), nil
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
