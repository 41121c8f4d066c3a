// Package apia scrapes personal record fields out of an Apia
// form engine, one identifier at a time, reusing sessions
// captured by the acquisition service.
package apia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cedulero-backend/lib/sessionstore"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/apia")

const (
	DefaultBaseUrl = "https://www.tramitesenlinea.mef.gub.uy"

	formAction = "/Apia/apia.execution.FormAction.run"

	// form coordinates of the identifier field on the lookup form
	attId = "8461"
	frmId = "6648"
	fldId = "2"
	evtId = "1"
)

var (
	ErrSubmitFailed = errors.New("apia: field submit rejected")
	ErrFetchFailed  = errors.New("apia: form fetch rejected")
)

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	BaseUrl string
	Timeout time.Duration
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", "Mozilla/5.0 (Linux; Android 6.0; Nexus 5 Build/MRA58N) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Mobile Safari/537.36")
	client.SetHeader("origin", opts.BaseUrl)

	return &Client{http: client}
}

// Probe runs the two-step form interaction for one identifier:
// submit the identifier into the form field, then fetch the form
// fragment the engine populated from it. Both steps must carry the
// same session correlation parameters or the fetch returns stale
// data. The raw fragment text is returned for extraction.
func (c *Client) Probe(ctx context.Context, ci string, session sessionstore.Session) (string, error) {
	ctx, span := tracer.Start(ctx, "client:Probe")
	defer span.End()
	span.SetAttributes(attribute.String("ci", ci))

	err := c.submit(ctx, ci, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "field submit failed")
		return "", err
	}

	raw, err := c.fetch(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "form fetch failed")
		return "", err
	}
	return raw, nil
}

func (c *Client) submit(ctx context.Context, ci string, session sessionstore.Session) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action":    "processFieldSubmit",
			"isAjax":    "true",
			"react":     "true",
			"tabId":     session.TabID,
			"tokenId":   session.TokenID,
			"timestamp": session.Timestamp1,
			"attId":     attId,
			"frmId":     frmId,
			"index":     "0",
			"frmParent": "E",
		}).
		SetFormData(map[string]string{
			"action":    "processFieldSubmit",
			"isAjax":    "true",
			"react":     "true",
			"tabId":     session.TabID,
			"tokenId":   session.TokenID,
			"timestamp": session.Timestamp2,
			"attId":     attId,
			"frmId":     frmId,
			"index":     "0",
			"frmParent": "E",
			"value":     ci,
		}).
		SetHeader("cookie", session.Cookie).
		SetHeader("referer", c.fetchUrl(session)).
		Post(formAction)
	if err != nil {
		return err
	}
	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrSubmitFailed, res.StatusCode())
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, session sessionstore.Session) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action":     "fireFieldEvent",
			"currentTab": "forms~0",
			"tabId":      session.TabID,
			"tokenId":    session.TokenID,
			"fldId":      fldId,
			"frmId":      frmId,
			"frmParent":  "E",
			"index":      "0",
			"evtId":      evtId,
			"attId":      attId,
			"react":      "true",
		}).
		SetHeader("cookie", session.Cookie).
		Post(formAction)
	if err != nil {
		return "", err
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrFetchFailed, res.StatusCode())
	}
	return string(res.Body()), nil
}

func (c *Client) fetchUrl(session sessionstore.Session) string {
	return fmt.Sprintf(
		"%s%s?action=fireFieldEvent&currentTab=forms~0&tabId=%s&tokenId=%s&fldId=%s&frmId=%s&frmParent=E&index=0&evtId=%s&attId=%s&react=true",
		c.http.BaseURL, formAction,
		session.TabID, session.TokenID,
		fldId, frmId, evtId, attId,
	)
}
