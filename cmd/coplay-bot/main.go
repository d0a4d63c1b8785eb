package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/bot"
	appcfg "github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/config"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/coplay"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/dotaconst"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/iris"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/linkstore"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/msgcat"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/obslog"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/opendota"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/presenter"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	links, closeLinks, err := openLinkStore(cfg)
	if err != nil {
		logger.Fatal("link_store_init_error", zap.Error(err))
	}
	defer func() { _ = closeLinks() }()

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("messages_init_error", zap.Error(err))
	}

	od := opendota.NewClient(cfg.OpenDotaBaseURL,
		opendota.WithTimeout(cfg.OpenDotaTimeout),
		opendota.WithAPIKey(cfg.OpenDotaAPIKey),
		opendota.WithMaxConnsPerHost(cfg.DetailFetchConcurrency*2),
		opendota.WithLogger(logger.Named("opendota")),
	)
	names := dotaconst.NewResolver(od, logger.Named("constants"))
	engine := coplay.NewEngine(od, names, coplay.Config{
		RecentLimit: cfg.RecentMatchLimit,
		Concurrency: cfg.DetailFetchConcurrency,
	}, logger.Named("coplay"))

	client := iris.NewClient(cfg.IrisBaseURL, iris.WithHeaderProvider(cfg.IrisHeaders))
	ws := iris.NewWebSocket(cfg.IrisWSURL, 5, logger.Named("ws"))
	ws.SetHeaderProvider(cfg.IrisHeaders)
	ws.OnStateChange(func(state iris.WebSocketState) {
		logger.Info("ws_state", zap.Stringer("state", state))
	})
	egress := iris.NewEgress(cfg.EgressMode, client, ws, logger.Named("egress"))

	handler := bot.NewHandler(bot.Deps{
		Engine:      engine,
		Matches:     od,
		Links:       links,
		Formatter:   presenter.NewFormatter(cat, cfg.BotPrefix, engine.RecentLimit()),
		Presenter:   presenter.NewPresenter(egress.SendText),
		RoomAllowed: cfg.RoomAllowed,
		Logger:      logger.Named("bot"),
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// WS 수신 루프를 막지 않도록 명령마다 고루틴에서 처리.
	ws.OnMessage(func(msg *iris.Message) {
		go handler.Handle(rootCtx, msg)
	})

	cctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	err = ws.Connect(cctx)
	cancel()
	if err != nil {
		logger.Fatal("ws_connect_error", zap.Error(err))
	}
	logger.Info("bot_started",
		zap.String("prefix", cfg.BotPrefix),
		zap.String("egress", cfg.EgressMode),
		zap.String("link_store", string(cfg.LinkStore)),
		zap.Int("recent_limit", engine.RecentLimit()),
	)

	<-rootCtx.Done()
	logger.Info("bot_stopping")
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	_ = ws.Close(sctx)
}

func openLinkStore(cfg *appcfg.AppConfig) (linkstore.Store, func() error, error) {
	switch cfg.LinkStore {
	case appcfg.LinkStoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err := linkstore.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		s := linkstore.NewRedisStore(rdb)
		return s, s.Close, nil
	case appcfg.LinkStorePostgres:
		s, err := linkstore.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	case appcfg.LinkStoreMemory:
		obslog.L().Warn("link_store_memory", zap.String("note", "links are lost on restart"))
		return linkstore.NewMemoryStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown link store %q", cfg.LinkStore)
	}
}
