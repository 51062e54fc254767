package models

type Viewer struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Anonymous   bool   `json:"anonymous,omitempty"`
}
