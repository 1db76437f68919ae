package events

// Kind tags a room event on the wire. Channel names are chat:{roomId}; the
// envelope is {"event": "<kind>", "data": {...}} to stay compatible with the
// web client's realtime schema.
type Kind string

const (
	KindJoin        Kind = "chat.join"
	KindLeave       Kind = "chat.leave"
	KindDestroy     Kind = "chat.destroy"
	KindTyping      Kind = "chat.typing"
	KindKeyExchange Kind = "chat.keyExchange"
	KindMessage     Kind = "chat.message"
)

// Event is the closed set of room event variants. Each variant carries its
// own payload; consumers switch on the concrete type.
type Event interface {
	Kind() Kind
}

type Join struct {
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

func (Join) Kind() Kind { return KindJoin }

type Leave struct {
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

func (Leave) Kind() Kind { return KindLeave }

// Destroy signals explicit destruction. Passive TTL expiry emits nothing:
// clients run a local countdown from the TTL returned at join/extend time.
type Destroy struct {
	IsDestroyed bool `json:"isDestroyed"`
}

func (Destroy) Kind() Kind { return KindDestroy }

type Typing struct {
	Sender   string `json:"sender"`
	IsTyping bool   `json:"isTyping"`
}

func (Typing) Kind() Kind { return KindTyping }

type KeyExchange struct {
	PublicKey string `json:"publicKey"`
	Username  string `json:"username"`
}

func (KeyExchange) Kind() Kind { return KindKeyExchange }

type Message struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timeStamp"`
	RoomID    string `json:"roomId"`
}

func (Message) Kind() Kind { return KindMessage }
