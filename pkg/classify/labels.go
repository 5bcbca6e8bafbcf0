package classify

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var synsetPrefix = regexp.MustCompile(`^n\d{8}\s+`)

// LoadLabels reads a labels file, one class per line.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()
	return ParseLabels(f)
}

// ParseLabels reads one class per line. ImageNet synset ids are stripped
// and only the first comma-separated name is kept, so
// "n07745940 strawberry" and "strawberry, fraise" both become "strawberry".
// Blank lines are kept as empty labels to preserve class indices, but
// trailing blank lines are dropped.
func ParseLabels(r io.Reader) ([]string, error) {
	var labels []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		labels = append(labels, NormalizeLabel(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	return labels, nil
}

// NormalizeLabel lower-cases a raw label and strips synset ids and
// alternative names.
func NormalizeLabel(raw string) string {
	s := strings.TrimSpace(raw)
	s = synsetPrefix.ReplaceAllString(s, "")
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
