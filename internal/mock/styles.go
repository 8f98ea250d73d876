package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
)

type layerStyles struct {
	defaultStyle string
	styles       map[string]string
}

// StyleStore is an in-memory map server style catalog. Layers registered
// with a shared style report IsLayerSpecificStyle=false until a style is saved.
type StyleStore struct {
	sync.Mutex
	layers map[string]*layerStyles
	shared map[string]string
	Calls  []string
	Err    error
}

func NewStyleStore() *StyleStore {
	return &StyleStore{layers: make(map[string]*layerStyles), shared: make(map[string]string)}
}

// AddLayer registers a layer using a shared style named styleName.
func (s *StyleStore) AddLayer(layer, styleName, sldBody string) {
	s.Lock()
	defer s.Unlock()
	s.shared[styleName] = sldBody
	s.layers[layer] = &layerStyles{defaultStyle: styleName, styles: make(map[string]string)}
}

func (s *StyleStore) GetStyle(ctx context.Context, layer string) (domain.LayerStyle, error) {
	s.Lock()
	defer s.Unlock()
	s.Calls = append(s.Calls, "GetStyle")
	if s.Err != nil {
		return domain.LayerStyle{}, s.Err
	}
	l, ok := s.layers[layer]
	if !ok {
		return domain.LayerStyle{}, domain.ErrLayerNotExists
	}
	if body, ok := l.styles[l.defaultStyle]; ok {
		return domain.LayerStyle{StyleName: l.defaultStyle, SldBody: body, IsLayerSpecificStyle: true}, nil
	}
	body, ok := s.shared[l.defaultStyle]
	if !ok {
		return domain.LayerStyle{}, domain.ErrStyleNotExists
	}
	return domain.LayerStyle{StyleName: l.defaultStyle, SldBody: body}, nil
}

func (s *StyleStore) SaveStyle(ctx context.Context, layer, styleName, sldBody string) error {
	s.Lock()
	defer s.Unlock()
	s.Calls = append(s.Calls, "SaveStyle")
	if s.Err != nil {
		return s.Err
	}
	l, ok := s.layers[layer]
	if !ok {
		return domain.ErrLayerNotExists
	}
	l.styles[styleName] = sldBody
	return nil
}

func (s *StyleStore) SetDefaultStyle(ctx context.Context, layer, styleName string) error {
	s.Lock()
	defer s.Unlock()
	s.Calls = append(s.Calls, "SetDefaultStyle")
	if s.Err != nil {
		return s.Err
	}
	l, ok := s.layers[layer]
	if !ok {
		return domain.ErrLayerNotExists
	}
	if _, ok := l.styles[styleName]; !ok {
		return domain.ErrStyleNotExists
	}
	l.defaultStyle = styleName
	return nil
}

type AttributeSource map[string]domain.LayerInfo

func (a AttributeSource) GetLayerInfo(ctx context.Context, layer string) (domain.LayerInfo, error) {
	info, ok := a[layer]
	if !ok {
		return domain.LayerInfo{}, domain.ErrLayerNotExists
	}
	return info, nil
}

type PreviewStore struct {
	sync.RWMutex
	previews map[string]string
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{previews: make(map[string]string)}
}

func (p *PreviewStore) SetPreview(ctx context.Context, layer, sldBody string) error {
	p.Lock()
	defer p.Unlock()
	p.previews[layer] = sldBody
	return nil
}

func (p *PreviewStore) GetPreview(ctx context.Context, layer string) (string, error) {
	p.RLock()
	defer p.RUnlock()
	body, ok := p.previews[layer]
	if !ok {
		return "", domain.ErrPreviewNotExists
	}
	return body, nil
}

func (p *PreviewStore) ClearPreview(ctx context.Context, layer string) error {
	p.Lock()
	defer p.Unlock()
	delete(p.previews, layer)
	return nil
}

type RevisionsRepository struct {
	sync.Mutex
	revisions []domain.StyleRevision
}

func (r *RevisionsRepository) Create(ctx context.Context, rev domain.StyleRevision) error {
	r.Lock()
	defer r.Unlock()
	r.revisions = append(r.revisions, rev)
	return nil
}

func (r *RevisionsRepository) Get(ctx context.Context, id string) (domain.StyleRevision, error) {
	r.Lock()
	defer r.Unlock()
	for _, rev := range r.revisions {
		if rev.ID == id {
			return rev, nil
		}
	}
	return domain.StyleRevision{}, domain.ErrRevisionNotExists
}

func (r *RevisionsRepository) List(ctx context.Context, layer string, limit int) ([]domain.StyleRevision, error) {
	r.Lock()
	defer r.Unlock()
	res := []domain.StyleRevision{}
	for i := len(r.revisions) - 1; i >= 0; i-- {
		rev := r.revisions[i]
		if rev.Layer == layer {
			rev.SldBody = ""
			res = append(res, rev)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Created.After(res[j].Created)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

type StyleArchive struct {
	sync.Mutex
	Stored []domain.StyleRevision
}

func (a *StyleArchive) Store(ctx context.Context, rev domain.StyleRevision) error {
	a.Lock()
	defer a.Unlock()
	a.Stored = append(a.Stored, rev)
	return nil
}
