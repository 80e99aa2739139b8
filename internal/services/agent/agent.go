package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/discern-api/internal/agentrunner"
	"github.com/magabrotheeeer/discern-api/internal/models"
)

// Глубина контекста, передаваемого конвейеру агентов.
const (
	historyLimit  = 10
	memoriesLimit = 20
)

// AdmissionDeniedError возвращается, когда допуск к агенту закрыт.
// Причина отказа лежит в Decision.
type AdmissionDeniedError struct {
	Decision Decision
}

func (e *AdmissionDeniedError) Error() string {
	return "admission denied: " + e.Decision.Reason
}

// ConversationRepository описывает операции хранилища диалога.
type ConversationRepository interface {
	MessageCounter

	GetUser(ctx context.Context, userUID string) (*models.User, error)
	CreateConversation(ctx context.Context, userUID, topic string) (string, error)
	GetConversation(ctx context.Context, conversationUID string) (*models.Conversation, error)
	SaveMessage(ctx context.Context, msg models.Message) (int64, error)
	ListRecentMessages(ctx context.Context, conversationUID string, limit int) ([]models.Message, error)
	ListMemories(ctx context.Context, userUID string, limit int) ([]models.Memory, error)
}

// Runner описывает клиента конвейера агентов.
type Runner interface {
	Run(ctx context.Context, reqParams agentrunner.RunRequest) (string, error)
}

// SendMessageResult — ответ агента вместе с идентификатором беседы.
type SendMessageResult struct {
	ConversationUID string `json:"conversation_id"`
	Response        string `json:"response"`
}

// Service оркестрирует диалог: проверяет допуск, собирает контекст,
// вызывает конвейер агентов и сохраняет обе реплики.
type Service struct {
	repo   ConversationRepository
	runner Runner
	log    *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo ConversationRepository, runner Runner, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		runner: runner,
		log:    log,
	}
}

// SendMessage принимает сообщение пользователя и возвращает ответ агента.
// Порядок фиксирован: сначала решение о допуске по уже сохранённым
// сообщениям, затем запись новой реплики. Само отправляемое сообщение
// в квоте текущей проверки не участвует.
func (s *Service) SendMessage(ctx context.Context, user *models.User,
	req models.SendMessageRequest) (*SendMessageResult, error) {
	const op = "agent.SendMessage"

	// Роль в токене живёт до его истечения и могла устареть:
	// допуск проверяется по текущей роли из хранилища, которую
	// меняет сверка событий биллинга.
	stored, err := s.repo.GetUser(ctx, user.UUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	decision, err := Admit(ctx, s.repo, user.UUID, stored.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !decision.Allowed {
		return nil, &AdmissionDeniedError{Decision: decision}
	}

	var history []models.Message
	conversationUID := req.ConversationUID
	if conversationUID == "" {
		conversationUID, err = s.repo.CreateConversation(ctx, user.UUID, "New conversation")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		conv, err := s.repo.GetConversation(ctx, conversationUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if conv.UserUID != user.UUID {
			return nil, fmt.Errorf("%s: %w", op, ErrForeignConversation)
		}
		history, err = s.repo.ListRecentMessages(ctx, conversationUID, historyLimit)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	memories, err := s.repo.ListMemories(ctx, user.UUID, memoriesLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.repo.SaveMessage(ctx, models.Message{
		ConversationUID: conversationUID,
		UserUID:         user.UUID,
		SenderRole:      models.SenderUser,
		Content:         req.Content,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reply, err := s.runner.Run(ctx, agentrunner.RunRequest{
		UserInput:    req.Content,
		Username:     stored.Username,
		Role:         string(stored.Role),
		Conversation: history,
		Memories:     memories,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.repo.SaveMessage(ctx, models.Message{
		ConversationUID: conversationUID,
		UserUID:         user.UUID,
		SenderRole:      models.SenderAgent,
		Content:         reply,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &SendMessageResult{
		ConversationUID: conversationUID,
		Response:        reply,
	}, nil
}
