package tag

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"relink/element"
)

// ImageData is stored state of image editable, ID is an asset id.
type ImageData struct {
	ID  int64  `json:"id,omitempty"`
	Alt string `json:"alt,omitempty"`
}

type Image struct {
	base
	Data ImageData
}

func (i *Image) Type() string {
	return TypeImage
}

func (i *Image) IsEmpty() bool {
	return i.Data.ID <= 0
}

func (i *Image) Unmarshal(raw json.RawMessage) error {
	i.Data = ImageData{}
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, &i.Data)
}

func (i *Image) Marshal() (json.RawMessage, error) {
	return json.Marshal(i.Data)
}

func (i *Image) ref() element.Ref {
	return element.NewRef(element.TypeAsset, i.Data.ID)
}

func (i *Image) RewriteIDs(m element.Mapping) {
	i.Data.ID, _ = m.Lookup(element.TypeAsset, i.Data.ID)
}

func (i *Image) ResolveDependencies() element.Dependencies {
	return element.NewDependencies(i.ref())
}

func (i *Image) CheckValidity(ctx context.Context, f element.Finder, log *zap.Logger) (bool, error) {
	if i.IsEmpty() {
		return true, nil
	}
	gone, err := missing(ctx, f, i.ref())
	if err != nil || !gone {
		return true, err
	}
	logInvalid(log, i, i.ref())
	i.Data.ID = 0
	return false, nil
}

// SnippetData is stored state of snippet editable, ID is a document id.
type SnippetData struct {
	ID int64 `json:"id,omitempty"`
}

type Snippet struct {
	base
	Data SnippetData
}

func (s *Snippet) Type() string {
	return TypeSnippet
}

func (s *Snippet) IsEmpty() bool {
	return s.Data.ID <= 0
}

func (s *Snippet) Unmarshal(raw json.RawMessage) error {
	s.Data = SnippetData{}
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, &s.Data)
}

func (s *Snippet) Marshal() (json.RawMessage, error) {
	return json.Marshal(s.Data)
}

func (s *Snippet) ref() element.Ref {
	return element.NewRef(element.TypeDocument, s.Data.ID)
}

func (s *Snippet) RewriteIDs(m element.Mapping) {
	s.Data.ID, _ = m.Lookup(element.TypeDocument, s.Data.ID)
}

func (s *Snippet) ResolveDependencies() element.Dependencies {
	return element.NewDependencies(s.ref())
}

func (s *Snippet) CheckValidity(ctx context.Context, f element.Finder, log *zap.Logger) (bool, error) {
	if s.IsEmpty() {
		return true, nil
	}
	gone, err := missing(ctx, f, s.ref())
	if err != nil || !gone {
		return true, err
	}
	logInvalid(log, s, s.ref())
	s.Data.ID = 0
	return false, nil
}

const VideoAsset = "asset"

// VideoData is stored state of video editable. For asset videos ID keeps
// asset id, for other types (youtube, vimeo, url) it is an external id.
type VideoData struct {
	Type        string `json:"type,omitempty"`
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Poster      int64  `json:"poster,omitempty"`
}

type Video struct {
	base
	Data VideoData
}

func (v *Video) Type() string {
	return TypeVideo
}

func (v *Video) IsEmpty() bool {
	return len(v.Data.ID) == 0
}

func (v *Video) Unmarshal(raw json.RawMessage) error {
	v.Data = VideoData{}
	if isNull(raw) {
		return nil
	}
	return json.Unmarshal(raw, &v.Data)
}

func (v *Video) Marshal() (json.RawMessage, error) {
	return json.Marshal(v.Data)
}

// assetID returns id of video asset if video is an asset.
func (v *Video) assetID() (int64, bool) {
	if v.Data.Type != VideoAsset {
		return 0, false
	}
	return element.ToID(v.Data.ID)
}

func (v *Video) RewriteIDs(m element.Mapping) {
	if id, ok := v.assetID(); ok {
		if to, ok := m.Lookup(element.TypeAsset, id); ok {
			v.Data.ID = strconv.FormatInt(to, 10)
		}
	}
	v.Data.Poster, _ = m.Lookup(element.TypeAsset, v.Data.Poster)
}

func (v *Video) ResolveDependencies() element.Dependencies {
	deps := element.NewDependencies(element.NewRef(element.TypeAsset, v.Data.Poster))
	if id, ok := v.assetID(); ok {
		deps.Add(element.NewRef(element.TypeAsset, id))
	}
	return deps
}

func (v *Video) CheckValidity(ctx context.Context, f element.Finder, log *zap.Logger) (bool, error) {
	sane := true
	if id, ok := v.assetID(); ok {
		ref := element.NewRef(element.TypeAsset, id)
		gone, err := missing(ctx, f, ref)
		if err != nil {
			return true, err
		}
		if gone {
			logInvalid(log, v, ref)
			v.Data.ID = ""
			sane = false
		}
	}
	if v.Data.Poster > 0 {
		ref := element.NewRef(element.TypeAsset, v.Data.Poster)
		gone, err := missing(ctx, f, ref)
		if err != nil {
			return true, err
		}
		if gone {
			logInvalid(log, v, ref)
			v.Data.Poster = 0
			sane = false
		}
	}
	return sane, nil
}
