// Package models содержит структуры диалога пользователя с агентом:
// беседы, сообщения и долговременные заметки о пользователе.
package models

import "time"

// Conversation — беседа пользователя с агентом.
type Conversation struct {
	UUID      string    // Уникальный идентификатор беседы
	UserUID   string    // Владелец беседы
	Topic     string    // Тема беседы
	CreatedAt time.Time
}

// Роли отправителей сообщений внутри беседы.
const (
	// SenderUser — сообщение от пользователя. Только такие сообщения
	// учитываются квотой допуска.
	SenderUser = "user"
	// SenderAgent — ответ конвейера агентов.
	SenderAgent = "system"
)

// Message — одно сообщение в беседе.
type Message struct {
	ID              int
	ConversationUID string // Беседа, к которой относится сообщение
	UserUID         string // Пользователь-владелец
	SenderRole      string // user или system
	Content         string // Текст сообщения
	CreatedAt       time.Time
}

// Memory — долговременная заметка о пользователе, передаваемая
// конвейеру агентов как контекст.
type Memory struct {
	ID        int
	UserUID   string
	Content   string
	CreatedAt time.Time
}

// SendMessageRequest используется для приёма данных из JSON-запроса
// на отправку сообщения агенту.
type SendMessageRequest struct {
	Content         string `json:"content" validate:"required"`         // Текст сообщения
	ConversationUID string `json:"conversation_id" validate:"omitempty,uuid"` // Существующая беседа (опционально)
}
