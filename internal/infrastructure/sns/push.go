package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/visitsafe-api/internal/domain"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentPublishes bounds in-flight Publish calls per multicast.
const maxConcurrentPublishes = 16

// Pusher delivers push notifications to device tokens through an SNS
// platform application backed by FCM.
type Pusher struct {
	api         API
	platformARN string

	// endpoints caches device token -> endpoint ARN.
	endpoints sync.Map
}

func NewPusher(api API, platformApplicationARN string) *Pusher {
	return &Pusher{api: api, platformARN: platformApplicationARN}
}

// Configured reports whether raw device tokens can be registered.
func (p *Pusher) Configured() bool {
	return p != nil && p.platformARN != ""
}

// Send delivers msg to a single device token.
func (p *Pusher) Send(ctx context.Context, token string, msg domain.PushMessage) error {
	if token == "" {
		return fmt.Errorf("empty device token: %w", domain.ErrBadRequest)
	}
	arn, err := p.endpointARN(ctx, token)
	if err != nil {
		return err
	}
	payload, err := encodeMessage(msg)
	if err != nil {
		return err
	}
	_, err = p.api.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(arn),
		Message:          aws.String(payload),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		var disabled *types.EndpointDisabledException
		if errors.As(err, &disabled) {
			p.endpoints.Delete(token)
			return fmt.Errorf("sns publish: %v: %w", err, domain.ErrStaleToken)
		}
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// SendMulticast delivers msg to every token and returns one result per token,
// in input order. It waits for all deliveries to settle.
func (p *Pusher) SendMulticast(ctx context.Context, tokens []string, msg domain.PushMessage) []domain.PushResult {
	results := make([]domain.PushResult, len(tokens))
	var g errgroup.Group
	g.SetLimit(maxConcurrentPublishes)
	for i, tok := range tokens {
		g.Go(func() error {
			results[i] = domain.PushResult{Token: tok, Err: p.Send(ctx, tok, msg)}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pusher) endpointARN(ctx context.Context, token string) (string, error) {
	if strings.HasPrefix(token, "arn:") {
		return token, nil
	}
	if v, ok := p.endpoints.Load(token); ok {
		return v.(string), nil
	}
	if p.platformARN == "" {
		return "", fmt.Errorf("push platform application not configured: %w", domain.ErrUnavailable)
	}
	out, err := p.api.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(p.platformARN),
		Token:                  aws.String(token),
	})
	if err != nil {
		if invalidToken(err) {
			return "", fmt.Errorf("sns create endpoint: %v: %w", err, domain.ErrStaleToken)
		}
		return "", fmt.Errorf("sns create endpoint: %w", err)
	}
	arn := aws.ToString(out.EndpointArn)
	p.endpoints.Store(token, arn)
	return arn, nil
}

// invalidToken reports SNS rejecting the device token itself. An endpoint
// that already exists with other attributes is a registration conflict, not
// a bad token.
func invalidToken(err error) bool {
	var invalid *types.InvalidParameterException
	if !errors.As(err, &invalid) {
		return false
	}
	msg := invalid.ErrorMessage()
	return strings.Contains(msg, "Token") && !strings.Contains(msg, "already exists")
}

type fcmNotification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	Image string `json:"image,omitempty"`
}

type fcmAndroid struct {
	Priority string `json:"priority,omitempty"`
}

type fcmWebpush struct {
	Headers map[string]string `json:"headers,omitempty"`
}

type fcmMessage struct {
	Notification *fcmNotification `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *fcmAndroid       `json:"android,omitempty"`
	Webpush      *fcmWebpush       `json:"webpush,omitempty"`
}

// encodeMessage renders msg as an SNS JSON message structure with an FCM
// HTTP v1 payload under the GCM key.
func encodeMessage(msg domain.PushMessage) (string, error) {
	m := fcmMessage{Data: msg.Data}
	if msg.Title != "" || msg.Body != "" {
		m.Notification = &fcmNotification{Title: msg.Title, Body: msg.Body, Image: msg.ImageURL}
	}
	if msg.HighPriority {
		m.Android = &fcmAndroid{Priority: "high"}
		m.Webpush = &fcmWebpush{Headers: map[string]string{"Urgency": "high"}}
	}
	gcm, err := json.Marshal(map[string]any{
		"fcmV1Message": map[string]any{"message": m},
	})
	if err != nil {
		return "", fmt.Errorf("encode fcm message: %w", err)
	}
	envelope, err := json.Marshal(map[string]string{
		"default": msg.Body,
		"GCM":     string(gcm),
	})
	if err != nil {
		return "", fmt.Errorf("encode sns message: %w", err)
	}
	return string(envelope), nil
}
