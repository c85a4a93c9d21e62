package llm

import (
	"context"
	"encoding/base64"
	"net/http"
)

// Image is the binary payload handed to a multimodal model
type Image struct {
	Data     []byte
	MIMEType string
}

// Base64 returns the standard base64 encoding of the image bytes
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURL returns the image as a data: URL
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Base64()
}

// NewImage sniffs the MIME type of data, falling back to image/jpeg
func NewImage(data []byte) Image {
	mimeType := http.DetectContentType(data)
	switch mimeType {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
	default:
		mimeType = "image/jpeg"
	}
	return Image{Data: data, MIMEType: mimeType}
}

// LLMClient answers a natural-language prompt about an image with free text.
// An empty answer is not an error; transport and provider failures are.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, image Image) (string, error)
}
