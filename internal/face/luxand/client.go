// Package luxand resolves faces with the Luxand.cloud person API.
package luxand

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"facepay/internal/face"
	dErrors "facepay/pkg/domain-errors"
	"facepay/pkg/platform/circuit"
	"facepay/pkg/platform/tracer"
	"facepay/pkg/platform/upstream"
)

const serviceName = "luxand"

const (
	searchPath = "/photo/search/v2"
	personPath = "/v2/person"
)

// Config configures the Luxand client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type candidate struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	UUID        string  `json:"uuid"`
}

type personResponse struct {
	UUID string `json:"uuid"`
}

// Client implements face.Resolver.
type Client struct {
	baseURL string
	token   string
	caller  *upstream.Caller
	tracer  tracer.Tracer
	now     func() time.Time
}

type options struct {
	httpClient upstream.HTTPDoer
	observer   upstream.Observer
	breaker    *circuit.Breaker
	tracer     tracer.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*options)

func WithHTTPClient(c upstream.HTTPDoer) Option {
	return func(o *options) { o.httpClient = c }
}

func WithObserver(obs upstream.Observer) Option {
	return func(o *options) { o.observer = obs }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(o *options) { o.breaker = b }
}

func WithTracer(t tracer.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds a Luxand client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	o := options{tracer: tracer.NewNoop(), logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		tracer:  o.tracer,
		now:     o.now,
		caller: upstream.NewCaller(serviceName, o.httpClient, cfg.Timeout,
			upstream.WithBreaker(o.breaker),
			upstream.WithObserver(o.observer),
			upstream.WithLogger(o.logger),
		),
	}
}

// Resolve searches all collections for the best matching person. The person
// name is the enrolled identity key.
func (c *Client) Resolve(ctx context.Context, photo face.Photo) (claim *face.IdentityClaim, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanFaceResolve, tracer.String(tracer.AttrUpstream, serviceName))
	defer func() {
		if claim != nil {
			span.SetAttributes(
				tracer.Bool(tracer.AttrRecognized, claim.Recognized),
				tracer.Float64(tracer.AttrConfidence, claim.Confidence),
			)
		}
		span.End(err)
	}()

	req, err := c.multipartRequest(ctx, searchPath, []field{{name: "collections"}}, "photo", "recognition", photo)
	if err != nil {
		return nil, err
	}
	resp, err := c.caller.Do(ctx, "search", req)
	if err != nil {
		return nil, upstream.AsDomain(err, dErrors.CodeUpstream, "face recognition failed")
	}

	var candidates []candidate
	if err := json.Unmarshal(resp.Body, &candidates); err != nil {
		return nil, upstream.AsDomain(
			upstream.New(upstream.BadData, serviceName, "search response is not a candidate list", err),
			dErrors.CodeUpstream, "face recognition failed",
		)
	}

	claim = &face.IdentityClaim{ResolvedAt: c.now().UTC()}
	if len(candidates) == 0 {
		return claim, nil
	}
	best := candidates[0]
	if strings.TrimSpace(best.Name) == "" {
		return nil, upstream.AsDomain(
			upstream.New(upstream.BadData, serviceName, "matched candidate has no name", nil),
			dErrors.CodeUpstream, "face recognition failed",
		)
	}
	claim.Recognized = true
	claim.ClaimedIdentityKey = best.Name
	claim.Confidence = scaleProbability(best.Probability)
	claim.TemplateRef = best.UUID
	return claim, nil
}

// EnrollTemplate stores a new person named identityKey with one photo and
// returns the person UUID.
func (c *Client) EnrollTemplate(ctx context.Context, identityKey string, photo face.Photo) (ref string, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanFaceEnroll, tracer.String(tracer.AttrUpstream, serviceName))
	defer func() { span.End(err) }()

	fields := []field{
		{name: "name", value: identityKey},
		{name: "store", value: "1"},
		{name: "collections"},
		{name: "unique", value: "0"},
	}
	req, err := c.multipartRequest(ctx, personPath, fields, "photos", "enrollment", photo)
	if err != nil {
		return "", err
	}
	resp, err := c.caller.Do(ctx, "enroll", req)
	if err != nil {
		return "", upstream.AsDomain(err, dErrors.CodeUpstream, "face enrollment failed")
	}

	var person personResponse
	if err := json.Unmarshal(resp.Body, &person); err != nil || person.UUID == "" {
		return "", upstream.AsDomain(
			upstream.New(upstream.BadData, serviceName, "enrollment response has no uuid", err),
			dErrors.CodeUpstream, "face enrollment failed",
		)
	}
	return person.UUID, nil
}

type field struct {
	name  string
	value string
}

func (c *Client) multipartRequest(ctx context.Context, path string, fields []field, fileField, fileName string, photo face.Photo) (*http.Request, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
		}
	}

	mimeType := photo.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, fileName+extension(mimeType)))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	if _, err := part.Write(photo.Data); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	if err := w.Close(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("token", c.token)
	return req, nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

// scaleProbability maps Luxand's 0..1 probability onto 0..100.
func scaleProbability(p float64) float64 {
	if p <= 1 {
		p *= 100
	}
	return face.ClampConfidence(p)
}

var _ face.Resolver = (*Client)(nil)
