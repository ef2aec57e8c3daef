package adgen

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
)

// Image is an opaque binary image payload. MIME defaults to image/png, which
// is what gpt-image-1 returns.
type Image struct {
	MIME string `json:"mime"`
	Data []byte `json:"data"`
}

const defaultImageMIME = "image/png"

func (img Image) IsZero() bool { return len(img.Data) == 0 }

// DataURL encodes the image as a base64 data URL for inline transport.
func (img Image) DataURL() string {
	mime := img.MIME
	if mime == "" {
		mime = defaultImageMIME
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

var dataURLRegex = regexp.MustCompile(`^data:([^;,]+);base64,`)

// ParseDataURL decodes a base64 data URL back into an Image. Decoding then
// re-encoding yields byte-identical content.
func ParseDataURL(dataURL string) (Image, error) {
	dataURL = strings.TrimSpace(dataURL)
	if dataURL == "" {
		return Image{}, errors.New("empty data URL")
	}

	mime := defaultImageMIME
	if matches := dataURLRegex.FindStringSubmatch(dataURL); len(matches) == 2 {
		mime = matches[1]
	}

	payload := dataURL
	if idx := strings.IndexByte(dataURL, ','); idx >= 0 {
		payload = dataURL[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, errors.New("data URL payload is not valid base64")
	}
	if len(data) == 0 {
		return Image{}, errors.New("data URL payload is empty")
	}

	return Image{MIME: mime, Data: data}, nil
}
