package models

type Room struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	TotalMemberCount int    `json:"total_member_count"`
}

type RoomWithUnread struct {
	Room
	UnreadCount int `json:"unread_count"`
}
