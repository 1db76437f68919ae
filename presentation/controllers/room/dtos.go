package room

type CreateRoomRequest struct {
	Type      string `json:"type" binding:"omitempty,oneof=private group"`
	PublicKey string `json:"publicKey" binding:"omitempty,max=2048"`
	TTL       int64  `json:"ttl" binding:"omitempty,min=1"` // seconds, must be an allowed choice
}

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
	Type   string `json:"type"`
	E2EE   bool   `json:"e2ee"`
	TTL    int64  `json:"ttl"`
}

type EnterRoomResponse struct {
	RoomID   string `json:"roomId"`
	Type     string `json:"type"`
	E2EE     bool   `json:"e2ee"`
	MaxUsers int    `json:"maxUsers"`
	TTL      int64  `json:"ttl"`
}

type LeaveRoomRequest struct {
	Username string `json:"username" binding:"omitempty,max=50"`
}

type TypingRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	IsTyping bool   `json:"isTyping"`
}

type PutKeyRequest struct {
	PublicKey string `json:"publicKey" binding:"required,max=2048"`
	Username  string `json:"username" binding:"omitempty,max=50"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}
