package model

type Category struct {
	ID     int    `json:"id"`
	UserID int    `json:"-"`
	Title  string `json:"title"`
}
