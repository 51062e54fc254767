package database

import (
	"context"
	"database/sql"

	"github.com/umar/horizon-chat/internal/models"
)

// Store binds the query functions to one connection pool.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) RecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	return GetRecentMessages(ctx, s.DB, roomID, limit)
}

func (s *Store) Message(ctx context.Context, id string) (*models.Message, error) {
	return GetMessage(ctx, s.DB, id)
}

func (s *Store) InsertMessage(ctx context.Context, m models.Message) (*models.Message, error) {
	return CreateMessage(ctx, s.DB, m)
}

func (s *Store) AppendReader(ctx context.Context, messageID, userID string) (*models.Message, error) {
	return AppendReader(ctx, s.DB, messageID, userID)
}

func (s *Store) RemoveMessage(ctx context.Context, id string) (*models.Message, error) {
	return DeleteMessage(ctx, s.DB, id)
}

func (s *Store) RoomsFor(ctx context.Context, userID string) ([]models.Room, error) {
	return GetRoomsForUser(ctx, s.DB, userID)
}

func (s *Store) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	return IsRoomMember(ctx, s.DB, roomID, userID)
}
