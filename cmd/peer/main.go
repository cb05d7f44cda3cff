package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/client"
	"github.com/iamasit07/duelsync/internal/config"
	"github.com/iamasit07/duelsync/internal/peer"
	"github.com/iamasit07/duelsync/internal/service/bot"
	"github.com/iamasit07/duelsync/internal/transport/debughttp"
)

func main() {
	boot := zap.NewExample()
	config.LoadEnv(boot)
	cfg := config.LoadPeerConfig()

	relayURL := flag.String("relay", cfg.RelayURL, "Relay HTTP base URL")
	wsURL := flag.String("ws", cfg.RelayWSURL, "Relay websocket URL")
	roomCode := flag.String("room", cfg.RoomCode, "Room code to join; empty creates a room and plays host")
	passcode := flag.String("passcode", cfg.RoomPasscode, "Room passcode")
	difficulty := flag.String("bot", cfg.BotDifficulty, "Bot difficulty: idle, easy, medium or hard")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Bot random seed")
	rematchPolicy := flag.String("rematch", "same", "After a match: same, new or none")
	debugAddr := flag.String("debug", cfg.DebugAddr, "Debug HTTP listen address, e.g. :9090")
	flag.Parse()

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		boot.Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Room ticket
	rooms := client.NewRoomsClient(*relayURL)
	var ticket client.RoomTicket
	if *roomCode == "" {
		ticket, err = rooms.CreateRoom(ctx, *passcode)
	} else {
		ticket, err = rooms.JoinRoom(ctx, *roomCode, *passcode)
	}
	if err != nil {
		logger.Fatal("could not get a room ticket", zap.String("room", *roomCode), zap.Error(err))
	}
	logger.Info("room ticket acquired", zap.String("room", ticket.RoomCode))

	// 2. Session
	sess, err := client.Join(ctx, client.NewConn(*wsURL, logger), ticket.Ticket, logger)
	if err != nil {
		logger.Fatal("relay handshake failed", zap.Error(err))
	}
	logger.Info("joined room", zap.String("room", sess.RoomCode()), zap.String("role", string(sess.Role())))

	// 3. Runtime
	rtCfg := peer.DefaultConfig()
	rtCfg.TickRate = cfg.TickRate
	rtCfg.Match.MatchDuration = cfg.MatchDuration
	rtCfg.Match.SnapshotEveryTicks = cfg.SnapshotEveryTicks

	pilot, err := newAutopilot(ctx, sess.Role(), *rematchPolicy, logger)
	if err != nil {
		logger.Fatal("bad -rematch value", zap.Error(err))
	}
	rt := peer.New(rtCfg, sess, bot.New(*difficulty, *seed), pilot.callbacks(), logger)
	pilot.attach(rt)

	if *debugAddr != "" {
		srv := &http.Server{Addr: *debugAddr, Handler: debughttp.SetupRoutes(rt)}
		go func() {
			logger.Info("debug endpoint listening", zap.String("addr", *debugAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("debug endpoint stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	err = rt.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("peer stopped")
	case err != nil:
		logger.Info("session ended", zap.Error(err))
	}
}
