package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Имя обмена и очереди уведомлений о скором окончании пробного периода.
const (
	NotificationsExchange = "notifications"
	// TrialEndingQueue — очередь уведомлений о событии trial_will_end.
	TrialEndingQueue = "notifications.trial_ending"
	// TrialEndingRoutingKey — ключ маршрутизации для таких уведомлений.
	TrialEndingRoutingKey = "trial_ending"
)

// SetupChannel открывает канал, объявляет обмен и очередь уведомлений
// и привязывает очередь к обмену.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}
	err = ch.ExchangeDeclare(
		NotificationsExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_, err = ch.QueueDeclare(
		TrialEndingQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.QueueBind(TrialEndingQueue, TrialEndingRoutingKey, NotificationsExchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}
