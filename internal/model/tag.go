package model

type Tag struct {
	ID     int    `json:"id"`
	UserID int    `json:"-"`
	Title  string `json:"title"`
}
