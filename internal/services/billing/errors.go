package billing

import "errors"

// ErrNoSubscription возвращается, когда у пользователя нет действующей подписки.
var ErrNoSubscription = errors.New("no active subscription")
