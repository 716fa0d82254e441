package engine

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfimages/internal/geometry"
)

// PageImage is one embedded image object lifted from a page: its placement
// box in page points and the encoded bytes as the engine exported them.
type PageImage struct {
	Box    geometry.Box
	Data   []byte
	Format string
}

// MuPDF's structured-text HTML export places each image as an absolutely
// positioned <img> with a data URI. The base64 payload is line-wrapped.
var stextImageRe = regexp.MustCompile(`(?s)<img\s+style="([^"]*)"[^>]*\ssrc="data:image/(png|jpeg);base64,([^"]*)"`)

func parseStextImages(html string) ([]PageImage, error) {
	matches := stextImageRe.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		return nil, nil
	}
	images := make([]PageImage, 0, len(matches))
	for _, m := range matches {
		box, err := parseStextBox(m[1])
		if err != nil {
			log.Debug().Err(err).Msg("skipping image with unreadable placement")
			continue
		}
		data, err := base64.StdEncoding.DecodeString(stripWhitespace(m[3]))
		if err != nil {
			log.Debug().Err(err).Msg("skipping image with corrupt payload")
			continue
		}
		format := m[2]
		if format == "jpeg" {
			format = "jpg"
		}
		images = append(images, PageImage{Box: box, Data: data, Format: format})
	}
	return images, nil
}

// countStextImages counts image tags without decoding their payloads.
func countStextImages(html string) int {
	return len(stextImageRe.FindAllStringIndex(html, -1))
}

// parseStextBox reads top/left/width/height out of an inline style like
// "position:absolute;top:72.0pt;left:36.0pt;width:120.5pt;height:80.2pt".
func parseStextBox(style string) (geometry.Box, error) {
	top, err := styleDim(style, "top")
	if err != nil {
		return geometry.Box{}, err
	}
	left, err := styleDim(style, "left")
	if err != nil {
		return geometry.Box{}, err
	}
	width, err := styleDim(style, "width")
	if err != nil {
		return geometry.Box{}, err
	}
	height, err := styleDim(style, "height")
	if err != nil {
		return geometry.Box{}, err
	}
	return geometry.Box{X0: left, Y0: top, X1: left + width, Y1: top + height}, nil
}

func styleDim(style, key string) (float64, error) {
	i := strings.Index(style, key+":")
	if i < 0 {
		return 0, fmt.Errorf("style has no %q", key)
	}
	v := style[i+len(key)+1:]
	if j := strings.IndexByte(v, ';'); j >= 0 {
		v = v[:j]
	}
	v = strings.TrimSuffix(strings.TrimSpace(v), "pt")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("style %s is not a length: %w", key, err)
	}
	return f, nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
