package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLayerNotExists    = errors.New("layer does not exists")
	ErrStyleNotExists    = errors.New("style does not exists")
	ErrRevisionNotExists = errors.New("style revision does not exists")
	ErrPreviewNotExists  = errors.New("style preview does not exists")
)

// LayerStyle is the default style of a layer as stored by the map server.
type LayerStyle struct {
	StyleName string `json:"styleName"`
	SldBody   string `json:"sldBody"`
	// IsLayerSpecificStyle is false when the layer falls back to a shared
	// (global) style which must not be edited in place.
	IsLayerSpecificStyle bool `json:"isLayerSpecificStyle"`
}

type LayerInfo struct {
	Name         string   `json:"name"`
	GeometryType string   `json:"geometryType"`
	Attributes   []string `json:"attributes"`
}

type StyleStore interface {
	GetStyle(ctx context.Context, layer string) (LayerStyle, error)
	SaveStyle(ctx context.Context, layer, styleName, sldBody string) error
	SetDefaultStyle(ctx context.Context, layer, styleName string) error
}

// AttributeSource supplies label attribute candidates of a layer.
type AttributeSource interface {
	GetLayerInfo(ctx context.Context, layer string) (LayerInfo, error)
}

type StyleRevision struct {
	ID        string    `json:"id"`
	Layer     string    `json:"layer"`
	StyleName string    `json:"styleName"`
	SldBody   string    `json:"sldBody,omitempty"`
	Author    string    `json:"author,omitempty"`
	Created   time.Time `json:"created"`
}

type RevisionsRepository interface {
	Create(ctx context.Context, rev StyleRevision) error
	Get(ctx context.Context, id string) (StyleRevision, error)
	List(ctx context.Context, layer string, limit int) ([]StyleRevision, error)
}

// PreviewStore keeps transient, unsaved style overrides used for rendering.
type PreviewStore interface {
	SetPreview(ctx context.Context, layer, sldBody string) error
	GetPreview(ctx context.Context, layer string) (string, error)
	ClearPreview(ctx context.Context, layer string) error
}

type StyleArchive interface {
	Store(ctx context.Context, rev StyleRevision) error
}
