package agent

import "errors"

// ErrForeignConversation возвращается при попытке писать в чужую беседу.
var ErrForeignConversation = errors.New("conversation belongs to another user")
