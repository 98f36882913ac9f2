package fetch

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

type stubTransport struct {
	res map[string]stubResponse

	mu   sync.Mutex
	seen []*http.Request
}

type stubResponse struct {
	status int
	body   string
	header http.Header
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	s.seen = append(s.seen, req)
	s.mu.Unlock()

	r, ok := s.res[req.URL.String()]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     http.StatusText(http.StatusNotFound),
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	hdr := r.header
	if hdr == nil {
		hdr = make(http.Header)
	}
	body := io.NopCloser(strings.NewReader(r.body))
	return &http.Response{
		StatusCode:    status,
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Body:          body,
		Header:        hdr,
		Request:       req,
		ContentLength: int64(len(r.body)),
	}, nil
}

func redirectTo(status int, loc string) stubResponse {
	h := make(http.Header)
	h.Set("Location", loc)
	return stubResponse{status: status, header: h}
}

type failingReader struct{ after int }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, io.ErrUnexpectedEOF
	}
	n := min(len(p), f.after)
	for i := range n {
		p[i] = 'x'
	}
	f.after -= n
	return n, nil
}
