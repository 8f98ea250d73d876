package geoserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const parcelsLayer = `{"layer":{"name":"parcels","type":"VECTOR",
"defaultStyle":{"name":"polygon","href":"http://localhost/geoserver/rest/styles/polygon.json"},
"resource":{"@class":"featureType","name":"gisweb:parcels"}}}`

const parcelsFeatureType = `{"featureType":{"name":"parcels","attributes":{"attribute":[
{"name":"the_geom","binding":"org.locationtech.jts.geom.MultiPolygon"},
{"name":"NAME","binding":"java.lang.String"},
{"name":"AREA","binding":"java.lang.Double"}]}}}`

const roadsFeatureType = `{"featureType":{"name":"roads","attributes":{"attribute":
{"name":"geom","binding":"org.locationtech.jts.geom.MultiLineString"}}}}`

type fakeGeoServer struct {
	sync.Mutex
	styles       map[string]string
	defaultStyle map[string]string
	requests     []string
}

func (f *fakeGeoServer) style(name string) string {
	f.Lock()
	defer f.Unlock()
	return f.styles[name]
}

func (f *fakeGeoServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/geoserver/rest/layers/gisweb:parcels.json", func(w http.ResponseWriter, r *http.Request) {
		f.Lock()
		defer f.Unlock()
		if name, ok := f.defaultStyle["gisweb:parcels"]; ok {
			w.Write([]byte(`{"layer":{"name":"parcels","defaultStyle":{"name":"` + name + `"},"resource":{"@class":"featureType","name":"gisweb:parcels"}}}`))
			return
		}
		w.Write([]byte(parcelsLayer))
	})
	mux.HandleFunc("/geoserver/rest/layers/gisweb:roads.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"layer":{"name":"roads","defaultStyle":{"name":"roads_style","workspace":"gisweb"},"resource":{"@class":"featureType","name":"gisweb:roads"}}}`))
	})
	mux.HandleFunc("/geoserver/rest/layers/gisweb:parcels", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var payload struct {
			Layer struct {
				DefaultStyle styleRef `json:"defaultStyle"`
			} `json:"layer"`
		}
		assert.NoError(t, jsoniter.NewDecoder(r.Body).Decode(&payload))
		f.Lock()
		f.defaultStyle["gisweb:parcels"] = payload.Layer.DefaultStyle.Workspace + ":" + payload.Layer.DefaultStyle.Name
		f.Unlock()
	})
	mux.HandleFunc("/geoserver/rest/styles/polygon.sld", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<StyledLayerDescriptor/>"))
	})
	mux.HandleFunc("/geoserver/rest/workspaces/gisweb/styles", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, sldContentType, r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		f.Lock()
		f.styles[r.URL.Query().Get("name")] = string(body)
		f.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/geoserver/rest/workspaces/gisweb/styles/", func(w http.ResponseWriter, r *http.Request) {
		f.Lock()
		defer f.Unlock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		name := r.URL.Path[len("/geoserver/rest/workspaces/gisweb/styles/"):]
		switch r.Method {
		case http.MethodGet:
			body, ok := f.styles[strings.TrimSuffix(name, path.Ext(name))]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte(body))
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.styles[name] = string(body)
		}
	})
	mux.HandleFunc("/geoserver/rest/workspaces/gisweb/featuretypes/parcels.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(parcelsFeatureType))
	})
	mux.HandleFunc("/geoserver/rest/workspaces/gisweb/featuretypes/roads.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(roadsFeatureType))
	})
	mux.HandleFunc("/geoserver/rest/layers/gisweb:broken.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal failure", http.StatusInternalServerError)
	})
	return mux
}

func setupClient(t *testing.T) (*Client, *fakeGeoServer) {
	fake := &fakeGeoServer{styles: make(map[string]string), defaultStyle: make(map[string]string)}
	ts := httptest.NewServer(fake.handler(t))
	t.Cleanup(ts.Close)
	client, err := NewClient(zap.NewNop().Sugar(), ts.URL+"/geoserver/", "admin", "geoserver", 5*time.Second)
	require.NoError(t, err)
	return client, fake
}

func TestGetStyleShared(t *testing.T) {
	client, _ := setupClient(t)
	style, err := client.GetStyle(context.Background(), "gisweb:parcels")
	require.NoError(t, err)
	assert.Equal(t, "polygon", style.StyleName)
	assert.Equal(t, "<StyledLayerDescriptor/>", style.SldBody)
	assert.False(t, style.IsLayerSpecificStyle)
}

func TestGetStyleLayerSpecific(t *testing.T) {
	client, fake := setupClient(t)
	fake.styles["roads_style"] = "<StyledLayerDescriptor><NamedLayer/></StyledLayerDescriptor>"
	style, err := client.GetStyle(context.Background(), "gisweb:roads")
	require.NoError(t, err)
	assert.Equal(t, "roads_style", style.StyleName)
	assert.True(t, style.IsLayerSpecificStyle)
}

func TestGetStyleErrors(t *testing.T) {
	client, _ := setupClient(t)
	_, err := client.GetStyle(context.Background(), "gisweb:missing")
	assert.True(t, errors.Is(err, domain.ErrLayerNotExists))

	_, err = client.GetStyle(context.Background(), "gisweb:broken")
	assert.True(t, errors.Is(err, ErrGeoServer))
	assert.Contains(t, err.Error(), "500")
}

func TestSaveStyleCreatesThenUpdates(t *testing.T) {
	client, fake := setupClient(t)
	ctx := context.Background()

	require.NoError(t, client.SaveStyle(ctx, "gisweb:parcels", "parcels_style", "<v1/>"))
	assert.Equal(t, "<v1/>", fake.style("parcels_style"))

	require.NoError(t, client.SaveStyle(ctx, "gisweb:parcels", "parcels_style", "<v2/>"))
	assert.Equal(t, "<v2/>", fake.style("parcels_style"))
	fake.Lock()
	defer fake.Unlock()
	assert.Contains(t, fake.requests, "PUT /geoserver/rest/workspaces/gisweb/styles/parcels_style")
}

func TestSetDefaultStyle(t *testing.T) {
	client, fake := setupClient(t)
	ctx := context.Background()
	fake.styles["parcels_style"] = "<v2/>"

	require.NoError(t, client.SetDefaultStyle(ctx, "gisweb:parcels", "parcels_style"))
	style, err := client.GetStyle(ctx, "gisweb:parcels")
	require.NoError(t, err)
	assert.Equal(t, "parcels_style", style.StyleName)
	assert.Equal(t, "<v2/>", style.SldBody)
	assert.True(t, style.IsLayerSpecificStyle)
}

func TestGetLayerInfo(t *testing.T) {
	client, _ := setupClient(t)
	info, err := client.GetLayerInfo(context.Background(), "gisweb:parcels")
	require.NoError(t, err)
	assert.Equal(t, "MultiPolygon", info.GeometryType)
	assert.Equal(t, []string{"NAME", "AREA"}, info.Attributes)

	info, err = client.GetLayerInfo(context.Background(), "gisweb:roads")
	require.NoError(t, err)
	assert.Equal(t, "MultiLineString", info.GeometryType)
	assert.Empty(t, info.Attributes)
}

func TestOWSURL(t *testing.T) {
	client, err := NewClient(zap.NewNop().Sugar(), "http://geoserver:8080/geoserver", "", "", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "http://geoserver:8080/geoserver/ows", client.OWSURL())
}
