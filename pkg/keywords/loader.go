package keywords

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"trends-go/pkg/logger"
)

// LoadOptions controls keyword list parsing
type LoadOptions struct {
	// Limit keeps only the first n keywords; 0 keeps all
	Limit int
}

// Loader reads seed keywords, one per line
type Loader struct {
	opts LoadOptions
	log  *logger.Logger
}

func NewLoader(opts LoadOptions) *Loader {
	return &Loader{
		opts: opts,
		log:  logger.GetLogger().WithField("component", "keyword_loader"),
	}
}

// LoadFile reads keywords from path
func (l *Loader) LoadFile(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyword file: %w", err)
	}
	defer f.Close()

	kws, err := l.Load(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	l.log.WithFields(map[string]interface{}{
		"path":  path,
		"count": len(kws),
	}).Info("Keywords loaded")
	return kws, nil
}

// Load parses a keyword list. A UTF-8 or UTF-16 byte order mark is honored;
// blank lines, '#' comments and a leading "keyword" header are skipped;
// surrounding quotes are stripped and exact duplicates dropped.
func (l *Loader) Load(ctx context.Context, r io.Reader) ([]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	scanner := bufio.NewScanner(decoded)

	seen := make(map[string]struct{})
	var out []string
	first := true

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kw := normalizeLine(scanner.Text())
		if kw == "" || strings.HasPrefix(kw, "#") {
			continue
		}
		if first {
			first = false
			if isHeader(kw) {
				continue
			}
		}
		if _, dup := seen[kw]; dup {
			l.log.WithField("keyword", kw).Debug("Duplicate keyword dropped")
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
		if l.opts.Limit > 0 && len(out) >= l.opts.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimRight(line, ",;")
	return strings.TrimSpace(strings.Trim(line, `"'`))
}

func isHeader(s string) bool {
	switch strings.ToLower(s) {
	case "keyword", "keywords":
		return true
	}
	return false
}
