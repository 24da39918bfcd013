// Package upload delivers file bytes to the remote endpoint.
//
// The client performs exactly one transmission attempt per call and reports
// a classified outcome; the retry loop lives in Uploader.Upload, which
// consumes the retry policy as a strategy and the clock seam for backoff
// waits.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"

	"github.com/sirupsen/logrus"

	"fileferry/internal/clock"
	"fileferry/internal/config"
	"fileferry/internal/errors"
	"fileferry/internal/retry"
)

// Mode is the wire encoding for the payload.
type Mode int

const (
	Multipart Mode = iota
	JSONBase64
)

// ParseMode maps the config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "multipart":
		return Multipart, nil
	case "json_base64":
		return JSONBase64, nil
	default:
		return 0, errors.New(errors.EConfigInvalid, "unknown upload mode: "+s)
	}
}

// maxEchoedBody bounds how much of an error response body lands in logs.
const maxEchoedBody = 2048

// Client performs single upload attempts.
type Client struct {
	http *http.Client
	api  config.APIConfig
	mode Mode
	log  *logrus.Logger
}

// NewClient builds a Client. The request timeout bounds each individual
// attempt.
func NewClient(api config.APIConfig, log *logrus.Logger) (*Client, error) {
	mode, err := ParseMode(api.Mode)
	if err != nil {
		return nil, err
	}
	return &Client{
		http: &http.Client{Timeout: api.Timeout()},
		api:  api,
		mode: mode,
		log:  log,
	}, nil
}

// Attempt performs one transmission of payload under filename and returns
// the classified outcome. Classification happens exactly once, here.
func (c *Client) Attempt(ctx context.Context, payload []byte, filename string) retry.Outcome {
	if err := config.ValidateCredentials(c.api); err != nil {
		// Never sent: a missing credential is a local fatal, not a
		// network failure.
		return retry.Outcome{Class: retry.Fatal, Reason: "auth", Err: err}
	}

	req, err := c.buildRequest(ctx, payload, filename)
	if err != nil {
		return retry.Outcome{Class: retry.Fatal, Reason: "request", Err: err}
	}
	c.log.WithFields(logrus.Fields{
		"endpoint": c.api.Endpoint,
		"mode":     c.api.Mode,
		"bytes":    len(payload),
	}).Debug("sending upload request")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxEchoedBody))
	return classifyStatus(resp.StatusCode, body)
}

func (c *Client) buildRequest(ctx context.Context, payload []byte, filename string) (*http.Request, error) {
	switch c.mode {
	case Multipart:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile(c.api.FieldName, filename)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(payload); err != nil {
			return nil, err
		}
		for k, v := range c.api.ExtraFields {
			if err := w.WriteField(k, v); err != nil {
				return nil, err
			}
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.api.Endpoint, &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		c.addAuth(req)
		return req, nil

	case JSONBase64:
		doc := make(map[string]string, 2+len(c.api.ExtraFields))
		doc[c.api.FilenameKey] = filename
		doc[c.api.DataKey] = base64.StdEncoding.EncodeToString(payload)
		for k, v := range c.api.ExtraFields {
			doc[k] = v
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.api.Endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		c.addAuth(req)
		return req, nil
	}
	return nil, fmt.Errorf("unhandled mode %d", c.mode)
}

func (c *Client) addAuth(req *http.Request) {
	switch c.api.Auth {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+c.api.BearerToken)
	case "basic":
		req.SetBasicAuth(c.api.BasicUser, c.api.BasicPassword)
	}
}

func classifyTransport(err error) retry.Outcome {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return retry.Outcome{Class: retry.Retryable, Reason: "timeout", Err: err}
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return retry.Outcome{Class: retry.Retryable, Reason: "timeout", Err: err}
	}
	if stderrors.Is(err, context.Canceled) {
		// Shutdown in flight; treat as retryable so the caller's context
		// check ends the loop without a fatal verdict.
		return retry.Outcome{Class: retry.Retryable, Reason: "cancelled", Err: err}
	}
	// Connection refused/reset, DNS failure, and friends.
	return retry.Outcome{Class: retry.Retryable, Reason: "network", Err: err}
}

func classifyStatus(status int, body []byte) retry.Outcome {
	switch {
	case status >= 200 && status < 300:
		return retry.Outcome{Class: retry.Success, Status: status}
	case status >= 500:
		return retry.Outcome{
			Class: retry.Retryable, Reason: "http_5xx", Status: status,
			Err: fmt.Errorf("server error %d: %s", status, body),
		}
	case status >= 400:
		return retry.Outcome{
			Class: retry.Fatal, Reason: "http_4xx", Status: status,
			Err: fmt.Errorf("client error %d: %s", status, body),
		}
	default:
		return retry.Outcome{
			Class: retry.Fatal, Reason: "http_unexpected", Status: status,
			Err: fmt.Errorf("unexpected status %d: %s", status, body),
		}
	}
}

// Uploader drives Attempt under the retry policy.
type Uploader struct {
	client  *Client
	policy  retry.Policy
	sleeper clock.Sleeper
	log     *logrus.Logger
}

// New builds an Uploader.
func New(client *Client, policy retry.Policy, sleeper clock.Sleeper, log *logrus.Logger) *Uploader {
	return &Uploader{client: client, policy: policy, sleeper: sleeper, log: log}
}

// Upload transmits payload with bounded retries. Returns nil on success,
// E_UPLOAD_FATAL for non-retryable failures, and E_UPLOAD_EXHAUSTED when the
// attempt budget is spent on retryable ones.
func (u *Uploader) Upload(ctx context.Context, payload []byte, filename string) error {
	for attempt := 1; ; attempt++ {
		outcome := u.client.Attempt(ctx, payload, filename)
		decision := u.policy.Decide(attempt, outcome)

		fields := logrus.Fields{
			"attempt": attempt,
			"class":   outcome.Class.String(),
			"file":    filename,
		}
		if outcome.Status != 0 {
			fields["status"] = outcome.Status
		}

		switch decision.Action {
		case retry.StopSuccess:
			u.log.WithFields(fields).Info("upload succeeded")
			return nil
		case retry.StopFatal:
			u.log.WithFields(fields).WithError(outcome.Err).Error("upload failed permanently")
			if code := errors.GetCode(outcome.Err); code == errors.EAuthInvalid {
				return outcome.Err
			}
			return errors.WrapWithDetails(errors.EUploadFatal, "upload rejected", outcome.Err,
				map[string]string{"reason": outcome.Reason, "file": filename})
		case retry.StopExhausted:
			u.log.WithFields(fields).WithError(outcome.Err).Error("upload retry budget exhausted")
			return errors.WrapWithDetails(errors.EUploadExhausted,
				fmt.Sprintf("upload failed after %d attempts", attempt), outcome.Err,
				map[string]string{"reason": outcome.Reason, "file": filename})
		case retry.Wait:
			u.log.WithFields(fields).WithField("backoff", decision.Delay.String()).
				WithError(outcome.Err).Warn("upload attempt failed, retrying")
			if err := u.sleeper.Sleep(ctx, decision.Delay); err != nil {
				return err
			}
		}
	}
}
