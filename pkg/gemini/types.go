package gemini

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ImageInput is the reference photo sent with the prompt.
type ImageInput struct {
	Data     []byte
	MimeType string
}

// Outcome is either *ImagePayload or *RefusalText.
type Outcome interface {
	outcome()
}

// ImagePayload is a generated image. Text carries any accompanying model text.
type ImagePayload struct {
	Data     []byte
	MimeType string
	Text     string
}

// RefusalText is a response without an image: a safety block, a finish
// reason other than STOP, or plain text instead of pixels.
type RefusalText struct {
	Text         string
	FinishReason string
	BlockReason  string
}

func (*ImagePayload) outcome() {}
func (*RefusalText) outcome()  {}

// Reason is the most specific explanation available.
func (r *RefusalText) Reason() string {
	switch {
	case r.BlockReason != "":
		return r.BlockReason
	case r.FinishReason != "" && r.FinishReason != "STOP":
		return r.FinishReason
	default:
		return "NO_IMAGE"
	}
}

// ---- request wire types ----

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string       `json:"text,omitempty"`
	InlineData *requestBlob `json:"inlineData,omitempty"`
}

type requestBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ---- response wire types ----

type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback"`
}

type promptFeedback struct {
	BlockReason        string `json:"blockReason"`
	BlockReasonMessage string `json:"blockReasonMessage"`
}

type candidate struct {
	Content      *responseContent `json:"content"`
	FinishReason string           `json:"finishReason"`
}

type responseContent struct {
	Parts []responsePart `json:"parts"`
}

type responsePart struct {
	Text            string `json:"text"`
	Thought         bool   `json:"thought"`
	InlineData      *Blob  `json:"inlineData"`
	InlineDataSnake *Blob  `json:"inline_data"`
}

func (p responsePart) blob() *Blob {
	if p.InlineData != nil {
		return p.InlineData
	}
	return p.InlineDataSnake
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Blob is inline binary data. The payload may arrive as a base64 string
// (standard or URL alphabet, padded or not, optionally a data URL) or as
// a JSON array of byte values.
type Blob struct {
	MimeType string
	Data     []byte
}

func (b *Blob) UnmarshalJSON(raw []byte) error {
	var wire struct {
		MimeType      string          `json:"mimeType"`
		MimeTypeSnake string          `json:"mime_type"`
		Data          json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("%w: inline data: %v", ErrMalformedResponse, err)
	}

	b.MimeType = wire.MimeType
	if b.MimeType == "" {
		b.MimeType = wire.MimeTypeSnake
	}

	data := bytes.TrimSpace(wire.Data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		b.Data = nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: inline data string: %v", ErrMalformedResponse, err)
		}
		decoded, err := decodeBase64(s)
		if err != nil {
			return fmt.Errorf("%w: inline data is not base64: %v", ErrMalformedResponse, err)
		}
		b.Data = decoded
	case data[0] == '[':
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("%w: inline data array: %v", ErrMalformedResponse, err)
		}
		out := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return fmt.Errorf("%w: inline data byte %d out of range", ErrMalformedResponse, v)
			}
			out[i] = byte(v)
		}
		b.Data = out
	default:
		return fmt.Errorf("%w: unexpected inline data shape", ErrMalformedResponse)
	}
	return nil
}

func decodeBase64(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if idx := strings.IndexByte(s, ','); idx >= 0 {
			s = s[idx+1:]
		}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, nil
	}

	var lastErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		out, err := enc.DecodeString(s)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
