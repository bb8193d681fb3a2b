// Package api holds the wire types of the engine's HTTP surface.
package api

import "gifswap/internal/apperror"

// Error is the shared error body `{error, details, errorType}` returned by
// every endpoint. The same shape is what the classifier parses on responses.
type Error struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	ErrorType string `json:"errorType"`
}

// ErrorBody builds the wire error for any classified (or classifiable) error.
func ErrorBody(err error) Error {
	e := apperror.Classify(err)
	d := apperror.Describe(e.Kind)
	return Error{Error: d.Title, Details: e.Detail, ErrorType: string(e.Kind)}
}

type SwapCreateRequest struct {
	SourceImageData string `json:"sourceImageData"`
	TargetGifUrl    string `json:"targetGifUrl"`
}

type SwapCreateResponse struct {
	Success      bool   `json:"success"`
	PredictionID string `json:"predictionId"`
	Status       string `json:"status"`
}

type SwapStatusResponse struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Output *string `json:"output,omitempty"`
	Error  *string `json:"error,omitempty"`
}

// BatchPair is one (face, GIF) unit of work in individual mode.
type BatchPair struct {
	TargetGifUrl    string `json:"targetGifUrl"`
	SourceImageData string `json:"sourceImageData"`
}

// BatchCreateRequest supports both modes: a shared face applied to every
// targetGifUrl, or an explicit per-pair mapping. Pairs wins when present.
type BatchCreateRequest struct {
	SourceImageData string      `json:"sourceImageData,omitempty"`
	TargetGifUrls   []string    `json:"targetGifUrls,omitempty"`
	Pairs           []BatchPair `json:"pairs,omitempty"`
}

type BatchCreateResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"jobId"`
}

type SlotError struct {
	ErrorType string `json:"errorType"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Action    string `json:"action"`
}

type BatchSlot struct {
	Index    int        `json:"index"`
	State    string     `json:"state"`
	MediaURL string     `json:"mediaUrl,omitempty"`
	Error    *SlotError `json:"error,omitempty"`
}

type BatchStatusResponse struct {
	Success        bool        `json:"success"`
	JobID          string      `json:"jobId"`
	Status         string      `json:"status"`
	CompletedCount int         `json:"completedCount"`
	Total          int         `json:"total"`
	StatusText     string      `json:"statusText,omitempty"`
	Summary        string      `json:"summary,omitempty"`
	Slots          []BatchSlot `json:"slots"`
}

type OptimizeRequest struct {
	GifUrl string `json:"gifUrl"`
}

type OptimizeResponse struct {
	Success       bool   `json:"success"`
	OptimizedGif  string `json:"optimizedGif"`
	Format        string `json:"format"`
	OriginalSize  int    `json:"originalSize"`
	OptimizedSize int    `json:"optimizedSize"`
	Warning       string `json:"warning,omitempty"`
	PublicURL     string `json:"publicUrl,omitempty"`
}

type StickerRequest struct {
	GifUrl   string `json:"gifUrl"`
	PackName string `json:"packName,omitempty"`
	Author   string `json:"author,omitempty"`
}

type StickerMetadata struct {
	PackName string `json:"packName"`
	Author   string `json:"author"`
}

type StickerResponse struct {
	Success     bool            `json:"success"`
	Sticker     string          `json:"sticker"`
	Format      string          `json:"format"`
	StickerSize int             `json:"stickerSize"`
	Animated    bool            `json:"animated"`
	Metadata    StickerMetadata `json:"metadata"`
	Warning     string          `json:"warning,omitempty"`
	PublicURL   string          `json:"publicUrl,omitempty"`
}

type AdaptRequest struct {
	GifUrl  string `json:"gifUrl"`
	Context string `json:"context"`
}

type AdaptResponse struct {
	Success      bool   `json:"success"`
	Data         string `json:"data,omitempty"`
	Mime         string `json:"mime,omitempty"`
	Filename     string `json:"filename,omitempty"`
	Warning      string `json:"warning,omitempty"`
	FallbackURL  string `json:"fallbackUrl,omitempty"`
	FallbackText string `json:"fallbackText,omitempty"`
}
