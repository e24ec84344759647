package restyutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Capture writes every exchange made by a client into a directory, one file
// per response. The files are the raw material for new extraction fixtures.
type Capture struct {
	directory string
	counter   *uint64
}

func NewCapture(dir string) (Capture, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return Capture{}, err
	}
	var counter uint64
	return Capture{directory: dir, counter: &counter}, nil
}

func (c Capture) filename(rawURL string) string {
	id := atomic.AddUint64(c.counter, 1)
	name := rawURL
	parsed, err := url.Parse(rawURL)
	if err == nil {
		name = parsed.Host + parsed.Path
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	return fmt.Sprintf("%03d-%s.txt", id, name)
}

// Write stores the exchange of res, failures are logged and otherwise ignored.
func (c Capture) Write(res *resty.Response) {
	path := filepath.Join(c.directory, c.filename(res.Request.URL))
	err := os.WriteFile(path, []byte(FormatExchange(res)), 0o600)
	if err != nil {
		slog.Warn("failed to write captured exchange", "path", path, "err", err)
	}
}

// Attach makes client write each of its responses to the capture.
func (c Capture) Attach(client *resty.Client) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		c.Write(res)
		return nil
	})
}
