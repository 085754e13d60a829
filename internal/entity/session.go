package entity

// Session is the saved state of one browser session's game.
type Session struct {
	ID      string      `json:"id"`
	Turns   []Move      `json:"turns"`
	Players PlayerNames `json:"players"`
	Mode    GameMode    `json:"mode"`
}
