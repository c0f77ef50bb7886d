package update

// Wire messages of the update session. Control messages are JSON text
// frames; image data travels in binary frames between "ready" and
// "status".

// HelloMessage is the module's opening frame.
type HelloMessage struct {
	Type    string `json:"type"` // "hello"
	Model   string `json:"model"`
	Serial  string `json:"serial"`
	Version string `json:"version"` // running firmware version
}

// OfferMessage describes the staged image.
type OfferMessage struct {
	Type      string `json:"type"` // "offer"
	Name      string `json:"name"`
	Version   string `json:"version"`
	Size      int    `json:"size"`
	SHA256    string `json:"sha256"`
	ChunkSize int    `json:"chunk_size"`
}

// ReadyMessage is the module's go-ahead after the offer.
type ReadyMessage struct {
	Type string `json:"type"` // "ready"
}

// AckMessage acknowledges one received chunk.
type AckMessage struct {
	Type string `json:"type"` // "ack"
	Seq  int    `json:"seq"`
}

// StatusMessage closes the session.
type StatusMessage struct {
	Type   string `json:"type"` // "status"
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

const (
	msgHello  = "hello"
	msgOffer  = "offer"
	msgReady  = "ready"
	msgAck    = "ack"
	msgStatus = "status"
)
