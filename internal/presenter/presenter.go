package presenter

import (
	"context"
	"strings"
)

// SendFunc delivers one text message to a room.
type SendFunc func(ctx context.Context, room, message string) error

// Presenter delivers formatted replies without coupling handlers to the transport.
type Presenter struct {
	send SendFunc
}

func NewPresenter(send SendFunc) *Presenter {
	return &Presenter{send: send}
}

// Reply sends each non-blank message in order and stops at the first failure.
func (p *Presenter) Reply(ctx context.Context, room string, messages ...string) error {
	if p == nil || p.send == nil {
		return nil
	}
	for _, m := range messages {
		if strings.TrimSpace(m) == "" {
			continue
		}
		if err := p.send(ctx, room, m); err != nil {
			return err
		}
	}
	return nil
}
