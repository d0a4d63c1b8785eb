// Package bot turns prefixed KakaoTalk messages into coplay lookups and replies.
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/cbtoken"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/coplay"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/iris"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/linkstore"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/presenter"
)

const defaultCommandTimeout = 90 * time.Second

type Deps struct {
	Engine    *coplay.Engine
	Matches   coplay.MatchSource
	Links     linkstore.Store
	Formatter *presenter.Formatter
	Presenter *presenter.Presenter
	// 허용 방 필터. nil 이면 모든 방 허용.
	RoomAllowed func(room string) bool
	Timeout     time.Duration
	Logger      *zap.Logger
}

type Handler struct {
	d Deps
}

func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Timeout <= 0 {
		d.Timeout = defaultCommandTimeout
	}
	return &Handler{d: d}
}

type command struct {
	reqID string
	room  string
	user  string
	args  []string
	log   *zap.Logger
}

// Handle processes one inbound message. Messages without the prefix or from
// rooms outside the allow-list are ignored.
func (h *Handler) Handle(ctx context.Context, msg *iris.Message) {
	if msg == nil || strings.TrimSpace(msg.Msg) == "" {
		return
	}
	if h.d.RoomAllowed != nil && !h.d.RoomAllowed(msg.Room) {
		h.d.Logger.Debug("room_ignored", zap.String("room", msg.Room))
		return
	}
	prefix := h.d.Formatter.Prefix()
	text := strings.TrimSpace(msg.Msg)
	if !strings.HasPrefix(text, prefix) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.d.Timeout)
	defer cancel()

	// 접두사 뒤 공백 유무와 관계없이 "!도타확인 1" 과 "!도타 확인 1" 모두 허용.
	parts := strings.Fields(strings.TrimPrefix(text, prefix))
	c := &command{
		reqID: uuid.NewString(),
		room:  msg.Room,
		user:  msg.UserID(),
	}
	name := ""
	if len(parts) > 0 {
		name = strings.ToLower(parts[0])
		c.args = parts[1:]
	}
	c.log = h.d.Logger.With(zap.String("req_id", c.reqID), zap.String("room", c.room), zap.String("cmd", name))
	c.log.Info("command")

	switch name {
	case "등록", "setid":
		h.register(ctx, c)
	case "확인", "check":
		h.check(ctx, c)
	case "매치", "match":
		h.match(ctx, c)
	default:
		h.reply(ctx, c, h.d.Formatter.Help())
	}
}

func (h *Handler) register(ctx context.Context, c *command) {
	f := h.d.Formatter
	if len(c.args) != 1 {
		h.reply(ctx, c, f.Text("register.usage"))
		return
	}
	id, ok := domain.ParseAccountID(c.args[0])
	if !ok {
		h.reply(ctx, c, f.Text("register.invalid"))
		return
	}
	if err := h.d.Links.Set(ctx, c.user, id); err != nil {
		c.log.Warn("link_save_error", zap.Error(err))
		h.reply(ctx, c, f.Text("register.failed"))
		return
	}
	c.log.Info("account_linked", zap.Stringer("account_id", id))
	h.reply(ctx, c, f.Registered(id))
}

func (h *Handler) check(ctx context.Context, c *command) {
	f := h.d.Formatter
	if len(c.args) != 1 {
		h.reply(ctx, c, f.Text("check.usage"))
		return
	}
	target, ok := domain.ParseAccountID(c.args[0])
	if !ok {
		h.reply(ctx, c, f.Text("check.invalid"))
		return
	}
	subject, ok := h.subject(ctx, c, "check.not_linked")
	if !ok {
		return
	}

	// 상세 조회가 길어질 수 있어 먼저 대기 안내를 보낸다.
	h.reply(ctx, c, f.Text("check.wait"))
	start := time.Now()
	res := h.d.Engine.Scan(ctx, subject, target)
	c.log.Info("check_done",
		zap.Stringer("subject", subject),
		zap.Stringer("target", target),
		zap.Int("shared", len(res.Matches)),
		zap.Int("skipped", res.Skipped),
		zap.Duration("elapsed", time.Since(start)),
	)
	h.reply(ctx, c, f.SharedMatches(target, res.Matches)...)
}

func (h *Handler) match(ctx context.Context, c *command) {
	f := h.d.Formatter
	if len(c.args) != 1 {
		h.reply(ctx, c, f.Text("match.usage"))
		return
	}
	tok, err := cbtoken.Parse(c.args[0])
	switch {
	case errors.Is(err, cbtoken.ErrUnsupportedVersion):
		h.reply(ctx, c, f.Text("match.unsupported"))
		return
	case err != nil:
		c.log.Info("token_rejected", zap.String("token", c.args[0]))
		h.reply(ctx, c, f.Text("match.malformed"))
		return
	}
	subject, ok := h.subject(ctx, c, "match.not_linked")
	if !ok {
		return
	}

	detail, err := h.d.Matches.Match(ctx, tok.MatchID)
	if err != nil {
		c.log.Warn("match_load_error", zap.Stringer("match_id", tok.MatchID), zap.Error(err))
		h.reply(ctx, c, f.Text("match.load_failed"))
		return
	}
	cmp, ok := h.d.Engine.Compare(ctx, detail, subject, tok.TargetID)
	if !ok {
		h.reply(ctx, c, f.Text("match.player_missing"))
		return
	}
	h.reply(ctx, c, f.Report(cmp))
}

// 호출자의 등록된 계정을 읽는다. 없으면 notLinkedKey 메시지로 답하고 false.
func (h *Handler) subject(ctx context.Context, c *command, notLinkedKey string) (domain.AccountID, bool) {
	id, err := h.d.Links.Get(ctx, c.user)
	switch {
	case err == nil:
		return id, true
	case errors.Is(err, linkstore.ErrNotLinked), errors.Is(err, linkstore.ErrInvalidUser):
		h.reply(ctx, c, h.d.Formatter.Text(notLinkedKey))
	default:
		c.log.Error("link_load_error", zap.Error(err))
		h.reply(ctx, c, h.d.Formatter.Text("error.internal"))
	}
	return 0, false
}

func (h *Handler) reply(ctx context.Context, c *command, messages ...string) {
	if err := h.d.Presenter.Reply(ctx, c.room, messages...); err != nil {
		c.log.Warn("reply_error", zap.Error(err))
	}
}
