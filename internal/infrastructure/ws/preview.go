package ws

import (
	"bytes"
	"context"
	"net/http"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

type message struct {
	Type   string      `json:"type"`
	Status int         `json:"status,omitempty"`
	Data   interface{} `json:"data"`
}

type incomingMessage struct {
	Type string `json:"type"`
	Data struct {
		SldBody    string              `json:"sldBody"`
		Properties jsoniter.RawMessage `json:"properties"`
	} `json:"data"`
}

type client struct {
	sync.Mutex
	conn  *websocket.Conn
	layer string
}

func (c *client) send(msg message) error {
	c.Lock()
	defer c.Unlock()
	return c.conn.WriteJSON(msg)
}

/* Structure for managing websocket connections for concurrent access */
type websocketsMap struct {
	sync.RWMutex
	connections map[string]*client
}

func (w *websocketsMap) Set(key string, c *client) {
	w.Lock()
	defer w.Unlock()
	if c == nil {
		delete(w.connections, key)
	} else {
		w.connections[key] = c
	}
}

func (w *websocketsMap) Get(key string) *client {
	w.RLock()
	defer w.RUnlock()
	return w.connections[key]
}

// layerClients returns connections editing or watching layer, except skip.
func (w *websocketsMap) layerClients(layer, skip string) []*client {
	w.RLock()
	defer w.RUnlock()
	var res []*client
	for key, c := range w.connections {
		if key != skip && c.layer == layer {
			res = append(res, c)
		}
	}
	return res
}

// PreviewFunc encodes a properties patch into body and publishes the result
// as the layer preview.
type PreviewFunc func(ctx context.Context, layer, body string, patch jsoniter.RawMessage) (string, error)

// PreviewWS is the live preview channel of the style editor. Every "Encode"
// message is answered with a "Preview" message carrying the new document,
// other connections of the same layer receive "PreviewChanged".
type PreviewWS struct {
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader
	clients  *websocketsMap
	preview  PreviewFunc
}

func NewPreviewWS(log *zap.SugaredLogger, preview PreviewFunc) *PreviewWS {
	return &PreviewWS{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: &websocketsMap{connections: make(map[string]*client)},
		preview: preview,
	}
}

func (s *PreviewWS) Handler(layer string, w http.ResponseWriter, r *http.Request) (err error) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	uid, err := uuid.NewV4()
	if err != nil {
		return
	}
	id := uid.String()
	c := &client{conn: conn, layer: layer}
	s.clients.Set(id, c)
	s.log.Infow("websocket connection started", "id", id, "layer", layer)

	for {
		msgType, msg, rerr := conn.ReadMessage()
		if rerr != nil {
			if !websocket.IsCloseError(rerr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = rerr
				s.log.Errorw("websocket error", "id", id, "layer", layer, zap.Error(rerr))
			}
			break
		}
		if bytes.Equal(msg, []byte("Ping")) {
			continue
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if err = s.handleMessage(r.Context(), id, c, msg); err != nil {
			break
		}
	}
	s.clients.Set(id, nil)
	s.log.Infow("websocket connection closed", "id", id, "layer", layer)
	return
}

// handleMessage returns only connection errors, request failures are
// reported back to the client.
func (s *PreviewWS) handleMessage(ctx context.Context, id string, c *client, msg []byte) error {
	var in incomingMessage
	if err := jsoniter.Unmarshal(msg, &in); err != nil {
		return c.send(message{Type: "Error", Status: http.StatusBadRequest, Data: "invalid message"})
	}
	if in.Type != "Encode" {
		return c.send(message{Type: "Error", Status: http.StatusBadRequest, Data: "unknown message type: " + in.Type})
	}
	body, err := s.preview(ctx, c.layer, in.Data.SldBody, in.Data.Properties)
	if err != nil {
		s.log.Warnw("websocket preview", "layer", c.layer, zap.Error(err))
		return c.send(message{Type: "Preview", Status: http.StatusBadRequest, Data: err.Error()})
	}
	if err := c.send(message{Type: "Preview", Status: http.StatusOK, Data: map[string]string{"sldBody": body}}); err != nil {
		return err
	}
	s.Broadcast(c.layer, id)
	return nil
}

// Broadcast notifies connections of layer (except the one with id skip)
// that its preview changed.
func (s *PreviewWS) Broadcast(layer, skip string) {
	for _, other := range s.clients.layerClients(layer, skip) {
		if err := other.send(message{Type: "PreviewChanged", Status: http.StatusOK, Data: map[string]string{"layer": layer}}); err != nil {
			s.log.Warnw("websocket broadcast", "layer", layer, zap.Error(err))
		}
	}
}
