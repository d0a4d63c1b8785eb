// coplaycheck runs one correlation against OpenDota from the terminal, without Iris.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/cbtoken"
	appcfg "github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/config"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/coplay"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/domain"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/dotaconst"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/msgcat"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/obslog"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/opendota"
	"github.com/park285/Dota-Coplay-KakaoTalk-bot/internal/presenter"
)

func main() {
	odCfg, err := appcfg.LoadOpenDota()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	subjectArg := flag.String("subject", "", "subject account id (required)")
	targetArg := flag.String("target", "", "target account id (required)")
	matchArg := flag.String("match", "", "match id or v1 token; prints the comparison report")
	limit := flag.Int("limit", odCfg.RecentMatchLimit, "recent matches to scan")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	subject, ok := domain.ParseAccountID(strings.TrimSpace(*subjectArg))
	if !ok {
		log.Fatal("-subject must be a numeric account id")
	}
	target, ok := domain.ParseAccountID(strings.TrimSpace(*targetArg))
	if !ok {
		log.Fatal("-target must be a numeric account id")
	}

	od := opendota.NewClient(odCfg.OpenDotaBaseURL,
		opendota.WithTimeout(odCfg.OpenDotaTimeout),
		opendota.WithAPIKey(odCfg.OpenDotaAPIKey),
		opendota.WithMaxConnsPerHost(odCfg.DetailFetchConcurrency*2),
		opendota.WithLogger(logger.Named("opendota")),
	)
	engine := coplay.NewEngine(od, dotaconst.NewResolver(od, logger.Named("constants")), coplay.Config{
		RecentLimit: *limit,
		Concurrency: odCfg.DetailFetchConcurrency,
	}, logger.Named("coplay"))

	cat, err := msgcat.New(strings.TrimSpace(os.Getenv("MESSAGES_DIR")))
	if err != nil {
		log.Fatalf("messages: %v", err)
	}
	f := presenter.NewFormatter(cat, "", engine.RecentLimit())

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if m := strings.TrimSpace(*matchArg); m != "" {
		matchID, err := parseMatchArg(m)
		if err != nil {
			log.Fatalf("-match: %v", err)
		}
		d, err := od.Match(ctx, matchID)
		if err != nil {
			log.Fatalf("match %s: %v (kind=%s)", matchID, err, opendota.KindOf(err))
		}
		cmp, ok := engine.Compare(ctx, d, subject, target)
		if !ok {
			log.Fatalf("match %s: subject or target not found among players", matchID)
		}
		fmt.Println(f.Report(cmp))
		return
	}

	res := engine.Scan(ctx, subject, target)
	if res.ListErr != nil {
		logger.Warn("recent_matches_failed", zap.Error(res.ListErr))
	}
	fmt.Printf("scanned=%d skipped=%d shared=%d\n", res.Scanned, res.Skipped, len(res.Matches))
	for _, m := range res.Matches {
		fmt.Printf("%s\t%s\t%s\n", m.MatchID, m.Relation, cbtoken.New(m.MatchID, target))
	}
}

// parseMatchArg accepts a bare match id or a callback token.
func parseMatchArg(s string) (domain.MatchID, error) {
	if strings.HasPrefix(s, "v") {
		tok, err := cbtoken.Parse(s)
		if err != nil {
			return 0, err
		}
		return tok.MatchID, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid match id %q", s)
	}
	return domain.MatchID(id), nil
}
