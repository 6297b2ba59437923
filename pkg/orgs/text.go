package orgs

import (
	"fmt"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

// minConfidence is the detection confidence floor, on chardet's 0-100
// scale, below which a field's encoding is considered undeterminable.
const minConfidence = 50

// detector abstracts chardet so the decision logic can be exercised
// with fixed detection outcomes in tests.
type detector interface {
	DetectBest(b []byte) (*chardet.Result, error)
}

var detect detector = chardet.NewTextDetector()

// resolveText repairs a field that may carry bytes in an unknown
// encoding. Valid UTF-8 passes through untouched. Anything else goes
// through statistical detection and is re-decoded only when the
// detector's confidence reaches the floor.
func resolveText(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if utf8.ValidString(s) {
		return s, nil
	}

	best, err := detect.DetectBest([]byte(s))
	if err != nil {
		return "", fmt.Errorf("encoding detection failed: %w", err)
	}
	if best.Confidence < minConfidence {
		return "", fmt.Errorf("encoding %s detected at confidence %d, below floor %d",
			best.Charset, best.Confidence, minConfidence)
	}

	enc, err := htmlindex.Get(best.Charset)
	if err != nil {
		return "", fmt.Errorf("no decoder for detected encoding %s: %w", best.Charset, err)
	}
	decoded, err := enc.NewDecoder().String(s)
	if err != nil {
		return "", fmt.Errorf("decoding as %s: %w", best.Charset, err)
	}
	return decoded, nil
}
