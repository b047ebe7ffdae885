package model

import (
	"net/http"
	"unicode/utf8"

	"github.com/h2non/filetype"
)

// Asset subtypes.
const (
	AssetFolder   = "folder"
	AssetImage    = "image"
	AssetVideo    = "video"
	AssetAudio    = "audio"
	AssetDocument = "document"
	AssetArchive  = "archive"
	AssetText     = "text"
	AssetUnknown  = "unknown"
)

// DetectMimeType guesses asset mime type and subtype from its content.
func DetectMimeType(data []byte) (mime, subtype string) {
	if len(data) == 0 {
		return "application/octet-stream", AssetUnknown
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		if utf8.Valid(data) {
			return http.DetectContentType(data), AssetText
		}
		return "application/octet-stream", AssetUnknown
	}

	mime = kind.MIME.Value
	switch {
	case filetype.IsImage(data):
		subtype = AssetImage
	case filetype.IsVideo(data):
		subtype = AssetVideo
	case filetype.IsAudio(data):
		subtype = AssetAudio
	case filetype.IsDocument(data):
		subtype = AssetDocument
	case filetype.IsArchive(data):
		subtype = AssetArchive
	default:
		subtype = AssetUnknown
	}
	return mime, subtype
}

// SetData replaces asset content and updates its mime type and subtype.
func (a *Asset) SetData(data []byte) {
	a.Data = data
	a.MimeType, a.Subtype = DetectMimeType(data)
}
