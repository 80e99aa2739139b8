package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"
)

// maxInflight ограничивает число сообщений, обрабатываемых одновременно
// одним потребителем.
const maxInflight = 10

// Consume подписывается на очередь и передаёт тело каждого сообщения
// обработчику. Сообщение подтверждается только после успешной обработки,
// при ошибке возвращается в очередь для повторной доставки. Возвращает
// управление сразу, цикл потребления живёт до отмены контекста.
func Consume(ctx context.Context, ch *amqp.Channel, queueName string,
	log *slog.Logger, handler func([]byte) error) error {
	const op = "rabbitmq.Consume"

	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	slots := make(chan struct{}, maxInflight)
	go func() {
		for {
			select {
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				slots <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-slots }()
					if err := handler(d.Body); err != nil {
						if nackErr := d.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message",
								slog.String("queue", queueName), slog.Any("err", nackErr))
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message",
							slog.String("queue", queueName), slog.Any("err", ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
