package rasterio

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/samlevin11/TopographicPositionIndex/internal/raster"
)

// OpenOptions configures Open.
type OpenOptions struct {
	// Timeout bounds the FTP dial. Zero means 30 seconds.
	Timeout time.Duration
	// Retry governs FTP download retries. The zero value uses
	// DefaultRetryPolicy.
	Retry RetryPolicy
}

// Open loads the grid named by locator: a local .asc file, a .zip archive
// holding one grid, or an ftp:// URL to either.
func Open(ctx context.Context, locator string, opts OpenOptions) (*raster.Grid, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	if !strings.HasPrefix(strings.ToLower(locator), "ftp://") {
		if isZIP(locator) {
			return readZIPFile(locator)
		}
		return ReadASCIIFile(locator)
	}

	data, err := retry(ctx, opts.Retry, "ftp "+locator, func(ctx context.Context) ([]byte, error) {
		return fetchFTP(ctx, locator, opts.Timeout)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "rasterio: download %s", locator)
	}

	if isZIP(locator) {
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, eris.Wrapf(err, "rasterio: open zip %s", locator)
		}
		return readZIP(zr, locator)
	}

	g, err := ReadASCII(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrapf(err, "rasterio: %s", locator)
	}
	return g, nil
}

// fetchFTP downloads the whole file at rawURL.
func fetchFTP(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	rc, err := downloadFTP(ctx, rawURL, timeout)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	closeErr := rc.Close()
	if err != nil {
		return nil, eris.Wrap(err, "ftp read")
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return data, nil
}

func isZIP(locator string) bool {
	return strings.EqualFold(path.Ext(locator), ".zip")
}

func readZIPFile(name string) (*raster.Grid, error) {
	zr, err := zip.OpenReader(name)
	if err != nil {
		return nil, eris.Wrapf(err, "rasterio: open zip %s", name)
	}
	defer zr.Close() //nolint:errcheck
	return readZIP(&zr.Reader, name)
}

// readZIP reads the single ASCII grid (.asc or .txt) stored in the archive.
func readZIP(zr *zip.Reader, name string) (*raster.Grid, error) {
	var grids []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".asc", ".txt":
			grids = append(grids, f)
		}
	}
	if len(grids) != 1 {
		return nil, eris.Errorf("rasterio: %s: expected exactly 1 grid in archive, got %d", name, len(grids))
	}

	rc, err := grids[0].Open()
	if err != nil {
		return nil, eris.Wrapf(err, "rasterio: %s: open %s", name, grids[0].Name)
	}
	defer rc.Close() //nolint:errcheck

	g, err := ReadASCII(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "rasterio: %s: %s", name, grids[0].Name)
	}
	return g, nil
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, filePath string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "parse ftp url")
	}
	if !strings.EqualFold(u.Scheme, "ftp") {
		return "", "", eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	filePath = u.Path
	if filePath == "" || filePath == "/" {
		return "", "", eris.New("empty path in ftp url")
	}
	return host, filePath, nil
}

// ftpConnReader closes the FTP response and the connection together.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "quit ftp connection")
	}
	return nil
}

// downloadFTP logs in anonymously and streams the file at rawURL. The caller
// must close the reader to release the connection.
func downloadFTP(ctx context.Context, rawURL string, timeout time.Duration) (io.ReadCloser, error) {
	host, p, err := parseFTPURL(rawURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", p))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "ftp dial")
	}
	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrap(err, "ftp login")
	}
	resp, err := conn.Retr(p)
	if err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrap(err, "ftp retrieve")
	}
	return &ftpConnReader{resp: resp, conn: conn}, nil
}
