package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/umar/horizon-chat/internal/models"
)

func InitDB(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// --- Rooms ---

func CreateRoom(ctx context.Context, db *sql.DB, id, name string) (*models.Room, error) {
	var r models.Room
	err := db.QueryRowContext(ctx,
		`INSERT INTO rooms (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name`,
		id, name,
	).Scan(&r.ID, &r.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return &r, nil
}

func GetRoomsForUser(ctx context.Context, db *sql.DB, userID string) ([]models.Room, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT r.id, r.name,
		       (SELECT COUNT(*) FROM room_members all_m WHERE all_m.room_id = r.id)
		FROM rooms r
		JOIN room_members rm ON r.id = rm.room_id
		WHERE rm.user_id = $1
		ORDER BY r.name, r.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.TotalMemberCount); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}

func AddRoomMember(ctx context.Context, db *sql.DB, roomID, userID string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO room_members (room_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		roomID, userID,
	)
	return err
}

func RemoveRoomMember(ctx context.Context, db *sql.DB, roomID, userID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM room_members WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	return err
}

func IsRoomMember(ctx context.Context, db *sql.DB, roomID, userID string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2)`,
		roomID, userID,
	).Scan(&exists)
	return exists, err
}

// --- Messages ---

const messageColumns = `id, room_id, sender_id, sender_display_name, body, attachment_id, read_by, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(s scanner) (*models.Message, error) {
	var m models.Message
	var readBy []string
	if err := s.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.SenderDisplayName,
		&m.Body, &m.AttachmentID, pq.Array(&readBy), &m.CreatedAt); err != nil {
		return nil, err
	}
	if readBy == nil {
		readBy = []string{}
	}
	m.ReadBy = readBy
	return &m, nil
}

func CreateMessage(ctx context.Context, db *sql.DB, m models.Message) (*models.Message, error) {
	created, err := scanMessage(db.QueryRowContext(ctx, `
		INSERT INTO messages (id, room_id, sender_id, sender_display_name, body, attachment_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+messageColumns,
		m.ID, m.RoomID, m.SenderID, m.SenderDisplayName, m.Body, m.AttachmentID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return created, nil
}

// GetMessage returns nil, nil when the message does not exist.
func GetMessage(ctx context.Context, db *sql.DB, id string) (*models.Message, error) {
	m, err := scanMessage(db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

// GetRecentMessages returns up to limit of the newest messages in a room,
// oldest first.
func GetRecentMessages(ctx context.Context, db *sql.DB, roomID string, limit int) ([]models.Message, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE room_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2
	`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// AppendReader adds userID to a message's read-set. It returns nil, nil
// when the message is gone or already lists the reader.
func AppendReader(ctx context.Context, db *sql.DB, messageID, userID string) (*models.Message, error) {
	m, err := scanMessage(db.QueryRowContext(ctx, `
		UPDATE messages SET read_by = array_append(read_by, $2)
		WHERE id = $1 AND NOT ($2 = ANY(read_by))
		RETURNING `+messageColumns,
		messageID, userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update read receipt: %w", err)
	}
	return m, nil
}

func DeleteMessage(ctx context.Context, db *sql.DB, id string) (*models.Message, error) {
	m, err := scanMessage(db.QueryRowContext(ctx,
		`DELETE FROM messages WHERE id = $1 RETURNING `+messageColumns, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete message: %w", err)
	}
	return m, nil
}
