package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/fightcard/fightcard-api/internal/config"
	"github.com/fightcard/fightcard-api/internal/database"
	"github.com/fightcard/fightcard-api/internal/handler"
	"github.com/fightcard/fightcard-api/internal/queue"
	"github.com/fightcard/fightcard-api/internal/repository"
	"github.com/fightcard/fightcard-api/internal/router"
	"github.com/fightcard/fightcard-api/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and permission caching disabled")
	}

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	fighters := repository.NewFighterRepo(db)
	matchups := repository.NewMatchUpRepo(db)
	orders := repository.NewOrderRepo(db)
	files := storage.NewFileStore(cfg.FilesDir)

	go queue.StartAuthConsumer()

	e := echo.New()
	router.Register(e, router.Deps{
		Cfg:     cfg,
		RateCfg: config.LoadRateLimitConfig(),
		RDB:     rdb,
		Users:   users,
		Perms:   roles,
		Auth:    handler.NewAuthHandler(cfg, users, queue.PublishAuthEvent),
		User:    handler.NewUserHandler(cfg, users, files),
		Role:    handler.NewRoleHandler(roles),
		Perm:    handler.NewPermissionHandler(roles),
		Fighter: handler.NewFighterHandler(fighters, files),
		MatchUp: handler.NewMatchUpHandler(matchups),
		Order:   handler.NewOrderHandler(orders),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
