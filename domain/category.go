package domain

import "time"

// Category is a named list of words players can draw from.
// Icon and Color are display tags only.
type Category struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Icon    string   `json:"icon"`
	Color   string   `json:"color"`
	Words   []string `json:"words"`
	Premium bool     `json:"premium,omitempty"`
}

type CustomCategory struct {
	Id        int64     `json:"id"`
	Name      string    `json:"name"`
	Words     []string  `json:"words"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	DeviceId  string    `json:"deviceId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CustomCategoryPatch holds the fields of a custom category to change. Nil
// fields are left alone.
type CustomCategoryPatch struct {
	Name  *string   `json:"name"`
	Words *[]string `json:"words"`
	Icon  *string   `json:"icon"`
	Color *string   `json:"color"`
}
