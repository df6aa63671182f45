package gnews

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Google News RSS links point at news.google.com redirect pages instead of
// the publisher. Decoder recovers the publisher URL from the article token.
// Legacy tokens embed the URL in the base64 payload; newer tokens have to
// be resolved through the DotsSplashUi batchexecute endpoint using a
// signature and timestamp scraped from the redirect page.
type Decoder struct {
	http    *http.Client
	baseURL string
	log     *slog.Logger
}

// NewDecoder creates a decoder with the given per-request timeout.
func NewDecoder(timeout time.Duration, log *slog.Logger) *Decoder {
	return &Decoder{
		http:    &http.Client{Timeout: timeout},
		baseURL: defaultBaseURL,
		log:     log,
	}
}

// NewDecoderWithBaseURL points the decoder at an alternative host, used by
// tests.
func NewDecoderWithBaseURL(baseURL string, timeout time.Duration, log *slog.Logger) *Decoder {
	d := NewDecoder(timeout, log)
	d.baseURL = strings.TrimRight(baseURL, "/")
	return d
}

var (
	tokenPrefix = []byte{0x08, 0x13, 0x22}
	tokenSuffix = []byte{0xd2, 0x01, 0x00}
)

// IsGoogleNewsLink reports whether raw is a news.google.com article link
// the decoder can handle.
func IsGoogleNewsLink(raw string) bool {
	_, err := articleToken(raw)
	return err == nil
}

// Decode resolves a news.google.com article link to the publisher URL.
func (d *Decoder) Decode(ctx context.Context, raw string) (string, error) {
	token, err := articleToken(raw)
	if err != nil {
		return "", err
	}

	if target, ok := decodeToken(token); ok {
		return target, nil
	}

	return d.decodeViaBatch(ctx, token)
}

func articleToken(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	host := u.Hostname()
	if host != "news.google.com" && !strings.HasSuffix(host, ".news.google.com") {
		return "", fmt.Errorf("not a google news url: %s", host)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if (part == "articles" || part == "read") && i+1 < len(parts) {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("no article token in path %q", u.Path)
}

// decodeToken handles legacy tokens: a base64url protobuf whose
// length-delimited field holds the publisher URL.
func decodeToken(token string) (string, bool) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return "", false
	}

	if !bytes.HasPrefix(data, tokenPrefix) {
		return "", false
	}
	data = data[len(tokenPrefix):]
	data = bytes.TrimSuffix(data, tokenSuffix)

	length, n := binary.Uvarint(data)
	if n <= 0 || int(length) > len(data)-n {
		return "", false
	}

	target := string(data[n : n+int(length)])
	if strings.HasPrefix(target, "AU_yqL") {
		// New-style payload: the URL is not embedded, resolve remotely.
		return "", false
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return "", false
	}
	return target, true
}

// decodeViaBatch resolves new-style tokens through the batchexecute RPC.
func (d *Decoder) decodeViaBatch(ctx context.Context, token string) (string, error) {
	ts, sg, err := d.fetchDecodingParams(ctx, token)
	if err != nil {
		return "", err
	}

	body, err := batchRequestBody(token, ts, sg)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/_/DotsSplashUi/data/batchexecute", strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("batch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("batch endpoint returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read batch response: %w", err)
	}

	target, err := parseBatchResponse(raw)
	if err != nil {
		return "", err
	}

	d.log.Debug("decoded google news link", slog.String("url", target))
	return target, nil
}

// fetchDecodingParams scrapes the signature and timestamp attributes from
// the article redirect page.
func (d *Decoder) fetchDecodingParams(ctx context.Context, token string) (ts, sg string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.baseURL+"/rss/articles/"+token, nil)
	if err != nil {
		return "", "", fmt.Errorf("create params request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch article page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("article page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("parse article page: %w", err)
	}

	div := doc.Find("c-wiz > div[jscontroller]").First()
	ts, tsOK := div.Attr("data-n-a-ts")
	sg, sgOK := div.Attr("data-n-a-sg")
	if !tsOK || !sgOK {
		return "", "", fmt.Errorf("article page missing decoding attributes")
	}

	return ts, sg, nil
}

func batchRequestBody(token, ts, sg string) (string, error) {
	inner, err := json.Marshal([]any{
		"garturlreq",
		[]any{
			[]any{"X", "X", []any{"X", "X"}, nil, nil, 1, 1, "US:en", nil, 1,
				nil, nil, nil, nil, nil, 0, 1},
			"X", "X", 1, []any{1, 1, 1}, 1, 1, nil, 0, 0, nil, 0,
		},
		token,
		json.Number(ts),
		sg,
	})
	if err != nil {
		return "", fmt.Errorf("marshal inner payload: %w", err)
	}

	envelope, err := json.Marshal([][][]any{{{"Fbv4je", string(inner), nil, "generic"}}})
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	return "f.req=" + url.QueryEscape(string(envelope)), nil
}

// parseBatchResponse walks the chunked anti-XSSI reply and pulls the
// decoded URL out of the Fbv4je envelope.
func parseBatchResponse(raw []byte) (string, error) {
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if !bytes.HasPrefix(line, []byte("[[")) || !bytes.Contains(line, []byte("Fbv4je")) {
			continue
		}

		var envelopes [][]json.RawMessage
		if err := json.Unmarshal(line, &envelopes); err != nil {
			continue
		}

		for _, env := range envelopes {
			if len(env) < 3 {
				continue
			}
			var rpc string
			if err := json.Unmarshal(env[1], &rpc); err != nil || rpc != "Fbv4je" {
				continue
			}
			var payload string
			if err := json.Unmarshal(env[2], &payload); err != nil {
				continue
			}
			var fields []any
			if err := json.Unmarshal([]byte(payload), &fields); err != nil || len(fields) < 2 {
				continue
			}
			if target, ok := fields[1].(string); ok && target != "" {
				return target, nil
			}
		}
	}

	return "", fmt.Errorf("no decoded url in batch response")
}
