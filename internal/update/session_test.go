package update

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, data []byte, chunkSize int) (*Server, *websocket.Conn) {
	t.Helper()

	srv, err := New(&Config{ChunkSize: chunkSize}, Stage("test.mtc", data, nil))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + UpdatePath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return srv, conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	kind, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("frame type = %d, want text", kind)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		t.Fatalf("unmarshal %s: %v", payload, err)
	}
}

func TestFullDeliverySession(t *testing.T) {
	image := make([]byte, 100)
	for i := range image {
		image[i] = byte(i)
	}
	_, conn := newTestServer(t, image, 32)

	sendJSON(t, conn, HelloMessage{Type: msgHello, Model: "HSM-2000", Serial: "315009", Version: "2.1.0.7"})

	var offer OfferMessage
	readJSON(t, conn, &offer)
	if offer.Type != msgOffer || offer.Size != len(image) || offer.ChunkSize != 32 {
		t.Fatalf("offer = %+v, want size %d chunk 32", offer, len(image))
	}
	wantSum := sha256.Sum256(image)
	if offer.SHA256 != hex.EncodeToString(wantSum[:]) {
		t.Errorf("offer digest = %s, want %s", offer.SHA256, hex.EncodeToString(wantSum[:]))
	}

	sendJSON(t, conn, ReadyMessage{Type: msgReady})

	// 100 bytes in 32-byte chunks: 32+32+32+4.
	var received bytes.Buffer
	for seq := 0; received.Len() < len(image); seq++ {
		kind, chunk, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("reading chunk %d: %v", seq, err)
		}
		if kind != websocket.BinaryMessage {
			t.Fatalf("chunk %d frame type = %d, want binary", seq, kind)
		}
		received.Write(chunk)
		sendJSON(t, conn, AckMessage{Type: msgAck, Seq: seq})
	}

	var status StatusMessage
	readJSON(t, conn, &status)
	if !status.OK {
		t.Fatalf("final status = %+v, want ok", status)
	}
	if !bytes.Equal(received.Bytes(), image) {
		t.Error("reassembled image differs from the staged one")
	}
}

func TestOutOfOrderAckAbortsSession(t *testing.T) {
	_, conn := newTestServer(t, make([]byte, 64), 16)

	sendJSON(t, conn, HelloMessage{Type: msgHello, Serial: "315009"})
	var offer OfferMessage
	readJSON(t, conn, &offer)
	sendJSON(t, conn, ReadyMessage{Type: msgReady})

	if kind, _, err := conn.ReadMessage(); err != nil || kind != websocket.BinaryMessage {
		t.Fatalf("first chunk read = type %d, err %v", kind, err)
	}
	sendJSON(t, conn, AckMessage{Type: msgAck, Seq: 7})

	var status StatusMessage
	readJSON(t, conn, &status)
	if status.OK {
		t.Error("session reported success after a mismatched ack")
	}
}

func TestSessionRequiresHelloFirst(t *testing.T) {
	_, conn := newTestServer(t, make([]byte, 16), 16)

	// Jumping straight to ready violates the session order; the server
	// drops the connection without streaming anything.
	sendJSON(t, conn, ReadyMessage{Type: msgReady})

	if kind, payload, err := conn.ReadMessage(); err == nil {
		t.Fatalf("read after bad opening succeeded: type %d payload %s", kind, payload)
	}
}

func TestServerRefusesEmptyImage(t *testing.T) {
	if _, err := New(&Config{}, Stage("empty", nil, nil)); err == nil {
		t.Error("New accepted an empty staged image")
	}
	if _, err := New(&Config{}, nil); err == nil {
		t.Error("New accepted a nil staged image")
	}
}
