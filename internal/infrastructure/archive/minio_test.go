package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestObjectName(t *testing.T) {
	rev := domain.StyleRevision{
		ID:      "0b5d0a44-7d8f-4bd4-9a7a-6d8b1f0a2a10",
		Layer:   "gisweb:parcels",
		Created: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, "styles/gisweb/parcels/20240301T123000Z_0b5d0a44-7d8f-4bd4-9a7a-6d8b1f0a2a10.sld", ObjectName(rev))
}

func TestStorePutsObject(t *testing.T) {
	var (
		mu      sync.Mutex
		objects = map[string]string{}
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusOK)
			return
		}
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		objects[r.URL.Path] = string(body)
		mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	archive, err := NewMinioArchive(zap.NewNop().Sugar(), Config{
		Endpoint:  ts.Listener.Addr().String(),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "styles",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	rev := domain.StyleRevision{
		ID:      "rev1",
		Layer:   "gisweb:parcels",
		SldBody: "<StyledLayerDescriptor/>",
		Created: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	}
	require.NoError(t, archive.Store(context.Background(), rev))

	mu.Lock()
	defer mu.Unlock()
	body, ok := objects["/styles/styles/gisweb/parcels/20240301T123000Z_rev1.sld"]
	require.True(t, ok)
	assert.Contains(t, body, "<StyledLayerDescriptor/>")
}
