package geoserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var (
	ErrGeoServer = errors.New("geoserver error")
)

const sldContentType = "application/vnd.ogc.sld+xml"

// Client talks to the GeoServer REST API. It implements domain.StyleStore
// and domain.AttributeSource.
type Client struct {
	log      *zap.SugaredLogger
	baseURL  *url.URL
	user     string
	password string
	client   *http.Client
}

func NewClient(log *zap.SugaredLogger, baseURL, user, password string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid geoserver url: %w", err)
	}
	return &Client{
		log:      log,
		baseURL:  u,
		user:     user,
		password: password,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// OWSURL is the endpoint of the GeoServer OGC services.
func (c *Client) OWSURL() string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, "ows")
	return u.String()
}

// splitName splits "workspace:layer" names. Names without a workspace
// return an empty workspace.
func splitName(name string) (string, string) {
	if i := strings.Index(name, ":"); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func stylePath(workspace, name string) string {
	if workspace == "" {
		return "/rest/styles/" + name
	}
	return "/rest/workspaces/" + workspace + "/styles/" + name
}

func (c *Client) request(ctx context.Context, method, p string, query url.Values, contentType string, body []byte) ([]byte, int, error) {
	u := *c.baseURL
	u.Path = u.Path + p
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, 0, err
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrGeoServer, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading response: %v", ErrGeoServer, err)
	}
	return data, resp.StatusCode, nil
}

func statusError(method, p string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return fmt.Errorf("%w: %s %s: %d %s", ErrGeoServer, method, p, status, msg)
}

func (c *Client) getJSON(ctx context.Context, p string, notFound error, v interface{}) error {
	data, status, err := c.request(ctx, http.MethodGet, p, nil, "", nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return notFound
	}
	if status != http.StatusOK {
		return statusError(http.MethodGet, p, status, data)
	}
	if err := jsoniter.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrGeoServer, p, err)
	}
	return nil
}

type styleRef struct {
	Name      string `json:"name"`
	Workspace string `json:"workspace,omitempty"`
}

type layerResponse struct {
	Layer struct {
		Name         string   `json:"name"`
		Type         string   `json:"type"`
		DefaultStyle styleRef `json:"defaultStyle"`
		Resource     struct {
			Class string `json:"@class"`
			Name  string `json:"name"`
		} `json:"resource"`
	} `json:"layer"`
}

func (c *Client) getLayer(ctx context.Context, layer string) (layerResponse, error) {
	var res layerResponse
	err := c.getJSON(ctx, "/rest/layers/"+layer+".json", domain.ErrLayerNotExists, &res)
	return res, err
}

// styleWorkspace resolves the workspace of a layer default style reference.
func styleWorkspace(ref styleRef) (string, string) {
	ws, name := splitName(ref.Name)
	if ws == "" {
		ws = ref.Workspace
	}
	return ws, name
}

func (c *Client) GetStyle(ctx context.Context, layer string) (domain.LayerStyle, error) {
	info, err := c.getLayer(ctx, layer)
	if err != nil {
		return domain.LayerStyle{}, err
	}
	layerWorkspace, _ := splitName(layer)
	styleWs, styleName := styleWorkspace(info.Layer.DefaultStyle)
	if styleName == "" {
		return domain.LayerStyle{}, domain.ErrStyleNotExists
	}

	p := stylePath(styleWs, styleName) + ".sld"
	data, status, err := c.request(ctx, http.MethodGet, p, nil, "", nil)
	if err != nil {
		return domain.LayerStyle{}, err
	}
	if status == http.StatusNotFound {
		return domain.LayerStyle{}, domain.ErrStyleNotExists
	}
	if status != http.StatusOK {
		return domain.LayerStyle{}, statusError(http.MethodGet, p, status, data)
	}
	return domain.LayerStyle{
		StyleName:            styleName,
		SldBody:              string(data),
		IsLayerSpecificStyle: styleWs != "" && styleWs == layerWorkspace,
	}, nil
}

func (c *Client) styleExists(ctx context.Context, workspace, name string) (bool, error) {
	p := stylePath(workspace, name) + ".json"
	data, status, err := c.request(ctx, http.MethodGet, p, nil, "", nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, statusError(http.MethodGet, p, status, data)
}

// SaveStyle creates or replaces the style in the layer workspace.
func (c *Client) SaveStyle(ctx context.Context, layer, styleName, sldBody string) error {
	workspace, _ := splitName(layer)
	exists, err := c.styleExists(ctx, workspace, styleName)
	if err != nil {
		return err
	}
	method, p, query := http.MethodPut, stylePath(workspace, styleName), url.Values{}
	if !exists {
		method = http.MethodPost
		p = strings.TrimSuffix(stylePath(workspace, ""), "/")
		query.Set("name", styleName)
	}
	data, status, err := c.request(ctx, method, p, query, sldContentType, []byte(sldBody))
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return statusError(method, p, status, data)
	}
	c.log.Debugw("geoserver style saved", "layer", layer, "style", styleName, "created", !exists)
	return nil
}

func (c *Client) SetDefaultStyle(ctx context.Context, layer, styleName string) error {
	workspace, _ := splitName(layer)
	payload := map[string]interface{}{
		"layer": map[string]interface{}{
			"defaultStyle": styleRef{Name: styleName, Workspace: workspace},
		},
	}
	body, err := jsoniter.Marshal(payload)
	if err != nil {
		return err
	}
	p := "/rest/layers/" + layer
	data, status, err := c.request(ctx, http.MethodPut, p, nil, "application/json", body)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return domain.ErrLayerNotExists
	}
	if status != http.StatusOK {
		return statusError(http.MethodPut, p, status, data)
	}
	return nil
}

type featureTypeAttribute struct {
	Name    string `json:"name"`
	Binding string `json:"binding"`
}

type featureTypeResponse struct {
	FeatureType struct {
		Attributes struct {
			// a single attribute is serialized as an object instead of a list
			Attribute jsoniter.RawMessage `json:"attribute"`
		} `json:"attributes"`
	} `json:"featureType"`
}

func (r featureTypeResponse) attributes() ([]featureTypeAttribute, error) {
	raw := bytes.TrimSpace(r.FeatureType.Attributes.Attribute)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '{' {
		var attr featureTypeAttribute
		err := jsoniter.Unmarshal(raw, &attr)
		return []featureTypeAttribute{attr}, err
	}
	var attrs []featureTypeAttribute
	err := jsoniter.Unmarshal(raw, &attrs)
	return attrs, err
}

func isGeometryBinding(binding string) bool {
	return strings.Contains(binding, ".jts.geom.")
}

func (c *Client) GetLayerInfo(ctx context.Context, layer string) (domain.LayerInfo, error) {
	info, err := c.getLayer(ctx, layer)
	if err != nil {
		return domain.LayerInfo{}, err
	}
	res := domain.LayerInfo{Name: layer, Attributes: []string{}}
	if info.Layer.Resource.Class != "" && info.Layer.Resource.Class != "featureType" {
		// coverages have no attributes
		res.GeometryType = "Raster"
		return res, nil
	}
	workspace, name := splitName(layer)
	if _, resName := splitName(info.Layer.Resource.Name); resName != "" {
		name = resName
	}
	p := "/rest/workspaces/" + workspace + "/featuretypes/" + name + ".json"
	var ft featureTypeResponse
	if err := c.getJSON(ctx, p, domain.ErrLayerNotExists, &ft); err != nil {
		return domain.LayerInfo{}, err
	}
	attrs, err := ft.attributes()
	if err != nil {
		return domain.LayerInfo{}, fmt.Errorf("%w: decoding attributes: %v", ErrGeoServer, err)
	}
	for _, a := range attrs {
		if isGeometryBinding(a.Binding) {
			if res.GeometryType == "" {
				res.GeometryType = a.Binding[strings.LastIndex(a.Binding, ".")+1:]
			}
			continue
		}
		res.Attributes = append(res.Attributes, a.Name)
	}
	return res, nil
}
