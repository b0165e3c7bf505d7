package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lendhub/backend/domain"
	"github.com/lendhub/backend/internal/config"
	"github.com/lendhub/backend/usecase"
)

// EmailGateway delivers one-time codes through an HTTP email gateway. The
// request carries a hard timeout; a timeout or non-2xx response surfaces as
// a delivery failure, never retried here.
type EmailGateway struct {
	client *fasthttp.Client
	cfg    config.NotifierConfig
	logger *zap.Logger
}

func NewEmailGateway(cfg config.NotifierConfig, logger *zap.Logger) *EmailGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailGateway{
		client: &fasthttp.Client{
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		},
		cfg:    cfg,
		logger: logger,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Name    string `json:"name,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (g *EmailGateway) SendOTP(ctx context.Context, email, code, displayName string) error {
	payload, err := json.Marshal(sendRequest{
		From:    g.cfg.Sender,
		To:      email,
		Name:    displayName,
		Subject: "Your verification code",
		Body:    fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in 5 minutes.", displayName, code),
	})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(g.cfg.URL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}
	req.SetBody(payload)

	timeout := g.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	if err := g.client.DoTimeout(req, resp, timeout); err != nil {
		g.logger.Warn("otp delivery failed", zap.Error(err))
		return domain.WrapError(domain.ErrCodeUnavailable, "notifier delivery failed", err)
	}

	if status := resp.StatusCode(); status < http.StatusOK || status >= http.StatusMultipleChoices {
		g.logger.Warn("otp delivery rejected", zap.Int("status", status))
		return domain.WrapError(domain.ErrCodeUnavailable, "notifier delivery failed",
			fmt.Errorf("gateway returned status %d", status))
	}

	return nil
}

var _ usecase.Notifier = (*EmailGateway)(nil)
