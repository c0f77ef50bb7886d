package update

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mtckit/mtckit/internal/logging"
)

const (
	// writeWait bounds each frame write
	writeWait = 10 * time.Second

	// readWait bounds how long the module may sit silent between acks;
	// the updater on real hardware acks within milliseconds
	readWait = 60 * time.Second
)

// runSession drives one update delivery end to end. The module opens
// with hello, the server answers with the offer, and image bytes flow
// only after the module's explicit ready, one acknowledged chunk at a
// time.
func (s *Server) runSession(conn *websocket.Conn, remoteAddr string) error {
	var hello HelloMessage
	if err := readControl(conn, msgHello, &hello); err != nil {
		return fmt.Errorf("waiting for hello: %w", err)
	}
	logging.Info("Module connected",
		zap.String("remote_addr", remoteAddr),
		zap.String("model", hello.Model),
		zap.String("serial", hello.Serial),
		zap.String("running_version", hello.Version),
	)

	offer := OfferMessage{
		Type:      msgOffer,
		Name:      s.staged.Name,
		Version:   s.staged.Version,
		Size:      s.staged.Size(),
		SHA256:    s.staged.SHA256,
		ChunkSize: s.config.ChunkSize,
	}
	if err := writeControl(conn, offer); err != nil {
		return fmt.Errorf("sending offer: %w", err)
	}

	var ready ReadyMessage
	if err := readControl(conn, msgReady, &ready); err != nil {
		return fmt.Errorf("waiting for ready: %w", err)
	}

	if err := s.streamImage(conn, remoteAddr); err != nil {
		// Best effort: the transport may already be gone.
		_ = writeControl(conn, StatusMessage{Type: msgStatus, OK: false, Detail: err.Error()})
		return err
	}

	if err := writeControl(conn, StatusMessage{Type: msgStatus, OK: true}); err != nil {
		return fmt.Errorf("sending final status: %w", err)
	}
	logging.Info("Image delivered",
		zap.String("remote_addr", remoteAddr),
		zap.String("serial", hello.Serial),
		zap.Int("bytes", s.staged.Size()),
	)
	return nil
}

// streamImage sends the image as acknowledged binary chunks.
func (s *Server) streamImage(conn *websocket.Conn, remoteAddr string) error {
	data := s.staged.data
	chunk := s.config.ChunkSize

	for seq, off := 0, 0; off < len(data); seq, off = seq+1, off+chunk {
		end := off + chunk
		if end > len(data) {
			end = len(data)
		}

		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, data[off:end]); err != nil {
			return fmt.Errorf("writing chunk %d: %w", seq, err)
		}

		var ack AckMessage
		if err := readControl(conn, msgAck, &ack); err != nil {
			return fmt.Errorf("waiting for ack of chunk %d: %w", seq, err)
		}
		if ack.Seq != seq {
			return fmt.Errorf("module acked chunk %d while %d was in flight", ack.Seq, seq)
		}

		logging.Debug("Chunk delivered",
			zap.String("remote_addr", remoteAddr),
			zap.Int("seq", seq),
			zap.Int("bytes", end-off),
		)
	}
	return nil
}

// readControl reads one JSON text frame and checks its type tag.
func readControl(conn *websocket.Conn, wantType string, v any) error {
	if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
		return err
	}
	kind, payload, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	logging.LogWebSocketMessage(conn.RemoteAddr().String(), "recv", kind, payload)
	if kind != websocket.TextMessage {
		return fmt.Errorf("expected a %s control frame, got frame type %d", wantType, kind)
	}

	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &tag); err != nil {
		return fmt.Errorf("malformed control frame: %w", err)
	}
	if tag.Type != wantType {
		return fmt.Errorf("expected %q, module sent %q", wantType, tag.Type)
	}
	return json.Unmarshal(payload, v)
}

func writeControl(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	logging.LogWebSocketMessage(conn.RemoteAddr().String(), "send", websocket.TextMessage, payload)
	return conn.WriteMessage(websocket.TextMessage, payload)
}
