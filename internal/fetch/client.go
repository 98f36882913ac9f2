package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/unkn0wn-root/create-rena-cleanarch/internal/errdef"
)

var (
	ErrRedirectLoop     = errors.New("redirect loop")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrMissingLocation  = errors.New("redirect without location")
)

const (
	DefaultMaxRedirects = 10
	userAgent           = "create-rena-cleanarch"
	filePerm            = 0o644
)

// StatusError reports a response that was neither a redirect nor a success.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d when downloading %s", e.Code, e.URL)
}

type Client struct {
	http    *http.Client
	maxHops int
	ua      string
}

// NewClient returns a Client that follows redirects itself, up to maxRedirects
// hops. The supplied http.Client is copied and never mutated.
func NewClient(h *http.Client, maxRedirects int) Client {
	var cp http.Client
	if h != nil {
		cp = *h
	}
	cp.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	return Client{http: &cp, maxHops: maxRedirects, ua: userAgent}
}

func (c Client) WithUserAgent(v string) Client {
	if v != "" {
		c.ua = v
	}
	return c
}

type Result struct {
	URL   string
	Hops  int
	Bytes int64
}

// Download fetches rawURL into dst. dst is only created once a 2xx response
// arrives; a partially written file is removed on failure.
func (c Client) Download(ctx context.Context, rawURL, dst string) (Result, error) {
	seen := make(map[string]struct{})
	cur := rawURL
	for hops := 0; ; hops++ {
		if _, ok := seen[cur]; ok {
			return Result{}, errdef.Wrap(errdef.CodeDownload, ErrRedirectLoop, "revisited %s", cur)
		}
		seen[cur] = struct{}{}

		step, err := c.get(ctx, cur, dst)
		if err != nil {
			return Result{}, err
		}
		if step.next == "" {
			return Result{URL: cur, Hops: hops, Bytes: step.n}, nil
		}
		if hops+1 > c.maxHops {
			return Result{}, errdef.Wrap(
				errdef.CodeDownload,
				ErrTooManyRedirects,
				"stopped after %d hops at %s",
				c.maxHops,
				cur,
			)
		}
		if err := discardPartial(dst); err != nil {
			return Result{}, errdef.Wrap(errdef.CodeDownload, err, "remove partial %s", dst)
		}
		cur = step.next
	}
}

type step struct {
	next string
	n    int64
}

func (c Client) get(ctx context.Context, url, dst string) (step, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return step{}, errdef.Wrap(errdef.CodeDownload, err, "build request")
	}
	req.Header.Set("User-Agent", c.ua)

	res, err := c.http.Do(req)
	if err != nil {
		return step{}, errdef.Wrap(errdef.CodeDownload, err, "fetch %s", url)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	switch code := res.StatusCode; {
	case code >= 200 && code < 300:
		n, err := writeFile(dst, res.Body)
		if err != nil {
			return step{}, errdef.Wrap(errdef.CodeDownload, err, "write %s", dst)
		}
		return step{n: n}, nil
	case code >= 300 && code < 400:
		loc := res.Header.Get("Location")
		if loc == "" {
			return step{}, errdef.Wrap(
				errdef.CodeDownload,
				&StatusError{Code: code, Status: res.Status, URL: url},
				"%v",
				ErrMissingLocation,
			)
		}
		next, err := req.URL.Parse(loc)
		if err != nil {
			return step{}, errdef.Wrap(errdef.CodeDownload, err, "parse location %q", loc)
		}
		return step{next: next.String()}, nil
	default:
		return step{}, errdef.Wrap(
			errdef.CodeDownload,
			&StatusError{Code: code, Status: res.Status, URL: url},
			"",
		)
	}
}

func writeFile(dst string, r io.Reader) (n int64, err error) {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(dst)
		}
	}()
	if n, err = io.Copy(f, r); err != nil {
		return n, err
	}
	if err = f.Close(); err != nil {
		return n, err
	}
	return n, nil
}

func discardPartial(p string) error {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
