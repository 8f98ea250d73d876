package application

import (
	"context"
	"errors"
	"testing"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/mock"
	"github.com/SeconGokulakannan/giswebapp-sub001/internal/sld"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceFixture struct {
	service   *styleService
	store     *mock.StyleStore
	previews  *mock.PreviewStore
	revisions *mock.RevisionsRepository
	archive   *mock.StyleArchive
}

func newFixture() serviceFixture {
	store := mock.NewStyleStore()
	store.AddLayer("gisweb:parcels", "polygon", sld.Bootstrap("polygon", "Polygon"))
	attrs := mock.AttributeSource{
		"gisweb:parcels": {Name: "gisweb:parcels", GeometryType: "MultiPolygon", Attributes: []string{"NAME", "AREA"}},
		"gisweb:roads":   {Name: "gisweb:roads", GeometryType: "MultiLineString"},
	}
	f := serviceFixture{
		store:     store,
		previews:  mock.NewPreviewStore(),
		revisions: &mock.RevisionsRepository{},
		archive:   &mock.StyleArchive{},
	}
	f.service = NewStyleService(zap.NewNop().Sugar(), store, attrs, f.previews, f.revisions, f.archive)
	return f
}

func TestOpenSharedStyleBootstraps(t *testing.T) {
	f := newFixture()
	editor, err := f.service.Open(context.Background(), "gisweb:parcels")
	require.NoError(t, err)

	assert.False(t, editor.IsLayerSpecificStyle)
	assert.Equal(t, "parcels_style", editor.StyleName)
	assert.Contains(t, editor.SldBody, "<Name>gisweb:parcels</Name>")
	assert.Equal(t, "#1e40af", editor.Properties.Stroke)
	assert.True(t, editor.Available[sld.PropFill])
}

func TestOpenUnknownLayer(t *testing.T) {
	f := newFixture()
	_, err := f.service.Open(context.Background(), "gisweb:missing")
	assert.True(t, errors.Is(err, domain.ErrLayerNotExists))
}

func TestSaveThenOpenLayerSpecificStyle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	saved, err := f.service.Save(ctx, "gisweb:parcels", SaveRequest{
		Properties: jsoniter.RawMessage(`{"fillOpacity":0.5,"strokeWidth":3}`),
		Author:     "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "parcels_style", saved.StyleName)
	assert.True(t, saved.IsLayerSpecificStyle)
	assert.Equal(t, []string{"GetStyle", "SaveStyle", "SetDefaultStyle"}, f.store.Calls)

	editor, err := f.service.Open(ctx, "gisweb:parcels")
	require.NoError(t, err)
	assert.True(t, editor.IsLayerSpecificStyle)
	assert.Equal(t, "parcels_style", editor.StyleName)
	assert.Equal(t, 0.5, editor.Properties.FillOpacity)
	assert.Equal(t, 3.0, editor.Properties.StrokeWidth)
	assert.Equal(t, "#1e40af", editor.Properties.Stroke)

	revs, err := f.service.Revisions(ctx, "gisweb:parcels")
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "admin", revs[0].Author)
	assert.Len(t, f.archive.Stored, 1)
}

func TestSaveFailureIsSurfaced(t *testing.T) {
	f := newFixture()
	f.store.Err = errors.New("connection refused")
	_, err := f.service.Save(context.Background(), "gisweb:parcels", SaveRequest{
		SldBody: sld.Bootstrap("gisweb:parcels", "Polygon"),
	})
	assert.Error(t, err)
	assert.Empty(t, f.archive.Stored)
}

func TestEncodeRejectsInvalidProperties(t *testing.T) {
	f := newFixture()
	body := sld.Bootstrap("gisweb:parcels", "Polygon")

	_, err := f.service.Encode(body, jsoniter.RawMessage(`{"fillOpacity":2}`))
	assert.True(t, errors.Is(err, ErrInvalidProperties))

	_, err = f.service.Encode(body, jsoniter.RawMessage(`{"strokeLinecap":"pointy"}`))
	assert.True(t, errors.Is(err, ErrInvalidProperties))

	_, err = f.service.Encode(body, jsoniter.RawMessage(`{"strokeWidth":"wide"}`))
	assert.True(t, errors.Is(err, ErrInvalidProperties))

	out, err := f.service.Encode(body, nil)
	require.NoError(t, err)
	assert.Equal(t, sld.Decode(body).Properties, sld.Decode(out).Properties)
}

func TestMergeProperties(t *testing.T) {
	body := sld.Bootstrap("gisweb:parcels", "Polygon")
	props, err := MergeProperties(body, jsoniter.RawMessage(`{"labelAttribute":"NAME","staticLabel":false}`))
	require.NoError(t, err)
	assert.Equal(t, "NAME", props.LabelAttribute)
	assert.False(t, props.StaticLabel)
	assert.Equal(t, 0.6, props.FillOpacity, "values missing from the patch come from the document")
	assert.Equal(t, sld.Defaults().MinZoom, props.MinZoom)
}

func TestMergePropertiesMarkReplacesIcon(t *testing.T) {
	f := newFixture()
	body := sld.Bootstrap("gisweb:trees", "Point")

	withIcon, err := f.service.Encode(body, jsoniter.RawMessage(`{"externalGraphicUrl":"icons/tree.svg"}`))
	require.NoError(t, err)
	require.Equal(t, "icons/tree.svg", sld.Decode(withIcon).Properties.ExternalGraphicURL)

	props, err := MergeProperties(withIcon, jsoniter.RawMessage(`{"wellKnownName":"square"}`))
	require.NoError(t, err)
	assert.Empty(t, props.ExternalGraphicURL)

	out, err := f.service.Encode(withIcon, jsoniter.RawMessage(`{"wellKnownName":"square"}`))
	require.NoError(t, err)
	assert.NotContains(t, out, "ExternalGraphic")
	assert.Contains(t, out, "Mark>")
	decoded := sld.Decode(out).Properties
	assert.Equal(t, "square", decoded.WellKnownName)
	assert.Empty(t, decoded.ExternalGraphicURL)

	// an icon sent along with the mark still wins
	props, err = MergeProperties(withIcon, jsoniter.RawMessage(`{"wellKnownName":"square","externalGraphicUrl":"icons/oak.png"}`))
	require.NoError(t, err)
	assert.Equal(t, "icons/oak.png", props.ExternalGraphicURL)
}

func TestPreviewLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	body := sld.Bootstrap("gisweb:parcels", "Polygon")

	encoded, err := f.service.Preview(ctx, "gisweb:parcels", body, jsoniter.RawMessage(`{"fill":"#FF0000"}`))
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", sld.Decode(encoded).Properties.Fill)

	stored, err := f.service.GetPreview(ctx, "gisweb:parcels")
	require.NoError(t, err)
	assert.Equal(t, encoded, stored)

	require.NoError(t, f.service.ClearPreview(ctx, "gisweb:parcels"))
	_, err = f.service.GetPreview(ctx, "gisweb:parcels")
	assert.True(t, errors.Is(err, domain.ErrPreviewNotExists))
}

func TestSaveClearsPreview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	body := sld.Bootstrap("gisweb:parcels", "Polygon")

	_, err := f.service.Preview(ctx, "gisweb:parcels", body, nil)
	require.NoError(t, err)
	_, err = f.service.Save(ctx, "gisweb:parcels", SaveRequest{SldBody: body})
	require.NoError(t, err)

	_, err = f.service.GetPreview(ctx, "gisweb:parcels")
	assert.True(t, errors.Is(err, domain.ErrPreviewNotExists))
}

func TestRestoreRevision(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.service.Save(ctx, "gisweb:parcels", SaveRequest{Properties: jsoniter.RawMessage(`{"strokeWidth":3}`)})
	require.NoError(t, err)
	_, err = f.service.Save(ctx, "gisweb:parcels", SaveRequest{Properties: jsoniter.RawMessage(`{"strokeWidth":7}`)})
	require.NoError(t, err)

	revs, err := f.service.Revisions(ctx, "gisweb:parcels")
	require.NoError(t, err)
	require.Len(t, revs, 2)
	first := revs[1]

	restored, err := f.service.Restore(ctx, "gisweb:parcels", first.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, 3.0, sld.Decode(restored.SldBody).Properties.StrokeWidth)

	editor, err := f.service.Open(ctx, "gisweb:parcels")
	require.NoError(t, err)
	assert.Equal(t, 3.0, editor.Properties.StrokeWidth)

	_, err = f.service.Restore(ctx, "gisweb:roads", first.ID, "admin")
	assert.True(t, errors.Is(err, domain.ErrRevisionNotExists))
	_, err = f.service.Restore(ctx, "gisweb:parcels", "missing", "admin")
	assert.True(t, errors.Is(err, domain.ErrRevisionNotExists))
}

func TestBootstrapUsesLayerGeometry(t *testing.T) {
	f := newFixture()
	body, err := f.service.Bootstrap(context.Background(), "gisweb:roads", "")
	require.NoError(t, err)
	assert.Contains(t, body, sld.SymbolizerLine)

	body, err = f.service.Bootstrap(context.Background(), "gisweb:roads", "Point")
	require.NoError(t, err)
	assert.Contains(t, body, sld.SymbolizerPoint)
}
