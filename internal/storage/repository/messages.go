package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/discern-api/internal/models"
)

// CreateConversation создаёт новый диалог пользователя и возвращает его uid.
func (s *Storage) CreateConversation(ctx context.Context, userUID, topic string) (string, error) {
	const op = "storage.CreateConversation"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO conversations (uid, user_uid, topic, created_at)
			  VALUES (gen_random_uuid(), $1, $2, now())
			  RETURNING uid`
	var uid string
	if err := s.DB.QueryRowContext(ctx, query, userUID, topic).Scan(&uid); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetConversation возвращает диалог по uid.
func (s *Storage) GetConversation(ctx context.Context, conversationUID string) (*models.Conversation, error) {
	const op = "storage.GetConversation"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, user_uid, topic, created_at
			  FROM conversations
			  WHERE uid = $1`
	var c models.Conversation
	err := s.DB.QueryRowContext(ctx, query, conversationUID).Scan(
		&c.UUID, &c.UserUID, &c.Topic, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// SaveMessage сохраняет реплику диалога и возвращает её идентификатор.
func (s *Storage) SaveMessage(ctx context.Context, msg models.Message) (int64, error) {
	const op = "storage.SaveMessage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO messages (conversation_uid, user_uid, sender_role, content, created_at)
			  VALUES ($1, $2, $3, $4, now())
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		msg.ConversationUID, msg.UserUID, msg.SenderRole, msg.Content).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListRecentMessages возвращает последние limit реплик диалога
// в хронологическом порядке.
func (s *Storage) ListRecentMessages(ctx context.Context, conversationUID string, limit int) ([]models.Message, error) {
	const op = "storage.ListRecentMessages"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, conversation_uid, user_uid, sender_role, content, created_at
			  FROM (
			      SELECT id, conversation_uid, user_uid, sender_role, content, created_at
			      FROM messages
			      WHERE conversation_uid = $1
			      ORDER BY created_at DESC, id DESC
			      LIMIT $2
			  ) AS recent
			  ORDER BY created_at ASC, id ASC`
	rows, err := s.DB.QueryContext(ctx, query, conversationUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationUID, &m.UserUID,
			&m.SenderRole, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return messages, nil
}

// CountRecentUserMessages считает реплики пользователя, отправленные
// начиная с момента since включительно. Граница окна входит в счёт.
func (s *Storage) CountRecentUserMessages(ctx context.Context, userUID string, since time.Time) (int, error) {
	const op = "storage.CountRecentUserMessages"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*)
			  FROM messages
			  WHERE user_uid = $1 AND sender_role = 'user' AND created_at >= $2`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, userUID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListMemories возвращает последние limit заметок памяти пользователя.
func (s *Storage) ListMemories(ctx context.Context, userUID string, limit int) ([]models.Memory, error) {
	const op = "storage.ListMemories"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, content, created_at
			  FROM memories
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var memories []models.Memory
	for rows.Next() {
		var m models.Memory
		if err := rows.Scan(&m.ID, &m.UserUID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return memories, nil
}
