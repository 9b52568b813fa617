package model

type Review struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Rating int    `json:"rating"`
	Body   string `json:"body"`
	Ctime  int64  `json:"ctime"`
}
