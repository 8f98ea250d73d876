package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/sld"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	ErrInvalidProperties = errors.New("invalid style properties")
)

const revisionsLimit = 50

var validate = validator.New()

var styleOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "gisweb_style_operations_total",
	Help: "Counts style editor operations.",
}, []string{"operation"})

// RegisterMetrics exposes the service counters through reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(styleOperations)
}

// StyleEditor is the state of a style editor session: the document and its
// decoded property model.
type StyleEditor struct {
	Layer string `json:"layer"`
	domain.LayerStyle
	sld.Decoded
}

type SaveRequest struct {
	StyleName  string
	SldBody    string
	Properties jsoniter.RawMessage
	Author     string
}

type StyleService interface {
	Open(ctx context.Context, layer string) (StyleEditor, error)
	LayerInfo(ctx context.Context, layer string) (domain.LayerInfo, error)
	Bootstrap(ctx context.Context, layer, geometryType string) (string, error)

	Decode(body string) sld.Decoded
	Encode(body string, patch jsoniter.RawMessage) (string, error)

	Preview(ctx context.Context, layer, body string, patch jsoniter.RawMessage) (string, error)
	GetPreview(ctx context.Context, layer string) (string, error)
	ClearPreview(ctx context.Context, layer string) error

	Save(ctx context.Context, layer string, req SaveRequest) (domain.LayerStyle, error)
	Revisions(ctx context.Context, layer string) ([]domain.StyleRevision, error)
	Restore(ctx context.Context, layer, revisionID, author string) (domain.LayerStyle, error)
}

type styleService struct {
	log       *zap.SugaredLogger
	store     domain.StyleStore
	attrs     domain.AttributeSource
	previews  domain.PreviewStore
	revisions domain.RevisionsRepository
	archive   domain.StyleArchive
}

// NewStyleService creates the style editor service. The revisions repository
// and the archive are optional.
func NewStyleService(log *zap.SugaredLogger, store domain.StyleStore, attrs domain.AttributeSource, previews domain.PreviewStore, revisions domain.RevisionsRepository, archive domain.StyleArchive) *styleService {
	return &styleService{
		log:       log,
		store:     store,
		attrs:     attrs,
		previews:  previews,
		revisions: revisions,
		archive:   archive,
	}
}

func (s *styleService) Open(ctx context.Context, layer string) (StyleEditor, error) {
	style, err := s.store.GetStyle(ctx, layer)
	if err != nil && !errors.Is(err, domain.ErrStyleNotExists) {
		return StyleEditor{}, fmt.Errorf("getting layer style: %w", err)
	}
	if err != nil || !style.IsLayerSpecificStyle || style.SldBody == "" {
		// shared styles are never edited in place, start from a fresh document
		body, err := s.Bootstrap(ctx, layer, "")
		if err != nil {
			return StyleEditor{}, err
		}
		style = domain.LayerStyle{
			StyleName:            sld.DefaultStyleName(layer),
			SldBody:              body,
			IsLayerSpecificStyle: false,
		}
	}
	return StyleEditor{Layer: layer, LayerStyle: style, Decoded: s.Decode(style.SldBody)}, nil
}

func (s *styleService) LayerInfo(ctx context.Context, layer string) (domain.LayerInfo, error) {
	info, err := s.attrs.GetLayerInfo(ctx, layer)
	if err != nil {
		return domain.LayerInfo{}, fmt.Errorf("getting layer info: %w", err)
	}
	return info, nil
}

func (s *styleService) Bootstrap(ctx context.Context, layer, geometryType string) (string, error) {
	if geometryType == "" && s.attrs != nil {
		info, err := s.attrs.GetLayerInfo(ctx, layer)
		if errors.Is(err, domain.ErrLayerNotExists) {
			return "", err
		}
		if err != nil {
			s.log.Warnw("reading layer geometry type", "layer", layer, zap.Error(err))
		}
		geometryType = info.GeometryType
	}
	styleOperations.WithLabelValues("bootstrap").Inc()
	return sld.Bootstrap(layer, geometryType), nil
}

func (s *styleService) Decode(body string) sld.Decoded {
	styleOperations.WithLabelValues("decode").Inc()
	return sld.Decode(body)
}

// MergeProperties overlays a partial JSON properties patch on the model
// decoded from body and validates the result.
func MergeProperties(body string, patch jsoniter.RawMessage) (sld.StyleProperties, error) {
	props := sld.Decode(body).Properties
	if len(patch) > 0 && string(patch) != "null" {
		if err := jsoniter.Unmarshal(patch, &props); err != nil {
			return props, fmt.Errorf("%w: %v", ErrInvalidProperties, err)
		}
		// choosing a mark replaces the icon decoded from the document
		var keys map[string]jsoniter.RawMessage
		if err := jsoniter.Unmarshal(patch, &keys); err == nil {
			_, mark := keys["wellKnownName"]
			_, icon := keys["externalGraphicUrl"]
			if mark && !icon {
				props.ExternalGraphicURL = ""
			}
		}
	}
	if err := validate.Struct(props); err != nil {
		return props, fmt.Errorf("%w: %v", ErrInvalidProperties, err)
	}
	return props, nil
}

func (s *styleService) Encode(body string, patch jsoniter.RawMessage) (string, error) {
	props, err := MergeProperties(body, patch)
	if err != nil {
		return "", err
	}
	styleOperations.WithLabelValues("encode").Inc()
	return sld.Encode(body, props), nil
}

func (s *styleService) Preview(ctx context.Context, layer, body string, patch jsoniter.RawMessage) (string, error) {
	encoded, err := s.Encode(body, patch)
	if err != nil {
		return "", err
	}
	if err := s.previews.SetPreview(ctx, layer, encoded); err != nil {
		return "", fmt.Errorf("storing style preview: %w", err)
	}
	styleOperations.WithLabelValues("preview").Inc()
	return encoded, nil
}

func (s *styleService) GetPreview(ctx context.Context, layer string) (string, error) {
	return s.previews.GetPreview(ctx, layer)
}

func (s *styleService) ClearPreview(ctx context.Context, layer string) error {
	return s.previews.ClearPreview(ctx, layer)
}

func (s *styleService) Save(ctx context.Context, layer string, req SaveRequest) (domain.LayerStyle, error) {
	body := req.SldBody
	styleName := req.StyleName
	if body == "" {
		editor, err := s.Open(ctx, layer)
		if err != nil {
			return domain.LayerStyle{}, err
		}
		body = editor.SldBody
		if styleName == "" && editor.IsLayerSpecificStyle {
			styleName = editor.StyleName
		}
	}
	encoded, err := s.Encode(body, req.Properties)
	if err != nil {
		return domain.LayerStyle{}, err
	}
	return s.saveBody(ctx, layer, styleName, encoded, req.Author)
}

func (s *styleService) saveBody(ctx context.Context, layer, styleName, body, author string) (domain.LayerStyle, error) {
	if styleName == "" {
		styleName = sld.DefaultStyleName(layer)
	}
	if err := s.store.SaveStyle(ctx, layer, styleName, body); err != nil {
		return domain.LayerStyle{}, fmt.Errorf("saving style: %w", err)
	}
	if err := s.store.SetDefaultStyle(ctx, layer, styleName); err != nil {
		return domain.LayerStyle{}, fmt.Errorf("setting default style: %w", err)
	}
	styleOperations.WithLabelValues("save").Inc()
	s.log.Infow("style saved", "layer", layer, "style", styleName, "author", author)

	if err := s.previews.ClearPreview(ctx, layer); err != nil {
		s.log.Warnw("clearing style preview", "layer", layer, zap.Error(err))
	}
	s.recordRevision(ctx, layer, styleName, body, author)
	return domain.LayerStyle{StyleName: styleName, SldBody: body, IsLayerSpecificStyle: true}, nil
}

// recordRevision keeps the style history. The style itself is already saved
// at this point, so failures are only logged.
func (s *styleService) recordRevision(ctx context.Context, layer, styleName, body, author string) {
	id, err := uuid.NewV4()
	if err != nil {
		s.log.Errorw("generating revision id", zap.Error(err))
		return
	}
	rev := domain.StyleRevision{
		ID:        id.String(),
		Layer:     layer,
		StyleName: styleName,
		SldBody:   body,
		Author:    author,
		Created:   time.Now().UTC(),
	}
	if s.revisions != nil {
		if err := s.revisions.Create(ctx, rev); err != nil {
			s.log.Errorw("storing style revision", "layer", layer, zap.Error(err))
		}
	}
	if s.archive != nil {
		if err := s.archive.Store(ctx, rev); err != nil {
			s.log.Errorw("archiving style", "layer", layer, zap.Error(err))
		}
	}
}

func (s *styleService) Revisions(ctx context.Context, layer string) ([]domain.StyleRevision, error) {
	if s.revisions == nil {
		return []domain.StyleRevision{}, nil
	}
	revs, err := s.revisions.List(ctx, layer, revisionsLimit)
	if err != nil {
		return nil, fmt.Errorf("listing style revisions: %w", err)
	}
	return revs, nil
}

func (s *styleService) Restore(ctx context.Context, layer, revisionID, author string) (domain.LayerStyle, error) {
	if s.revisions == nil {
		return domain.LayerStyle{}, domain.ErrRevisionNotExists
	}
	rev, err := s.revisions.Get(ctx, revisionID)
	if err != nil {
		return domain.LayerStyle{}, err
	}
	if rev.Layer != layer {
		return domain.LayerStyle{}, domain.ErrRevisionNotExists
	}
	return s.saveBody(ctx, layer, rev.StyleName, rev.SldBody, author)
}
