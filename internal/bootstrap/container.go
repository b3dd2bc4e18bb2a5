package bootstrap

import (
	"context"
	"time"

	"notesync-be/internal/cache"
	"notesync-be/internal/config"
	"notesync-be/internal/controller"
	"notesync-be/internal/handler"
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/pkg/serverutils"
	"notesync-be/internal/repository/unitofwork"
	"notesync-be/internal/service"
	"notesync-be/internal/websocket"

	pktNats "notesync-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	NoteController controller.INoteController
	SyncHandler    *handler.SyncHandler

	// Background services, started by main.go
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	syncLogger := logger.NewIsolatedLogger(cfg.App.SyncLogFilePath)
	c := &Container{Logger: sysLogger}

	uowFactory := unitofwork.NewRepositoryFactory(db)

	// In-process bus between committed writes and their fan-out.
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	rdb := connectRedis(cfg.Cache.RedisURL, sysLogger)
	var listCache cache.NoteListCache = cache.NoopNoteListCache{}
	if rdb != nil {
		listCache = cache.NewRedisNoteListCache(rdb, cfg.Cache.NoteListTTL, sysLogger)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// NATS is optional; keep the interface nil rather than wrapping a nil pointer.
	var eventPublisher service.EventPublisher
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS publisher", map[string]interface{}{"error": err})
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	c.WebSocketHub = websocket.NewHub(rdb, syncLogger)

	publisherService := service.NewPublisherService(cfg.Events.NoteChangedTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.Events.NoteChangedTopic,
		c.WebSocketHub,
		eventPublisher,
		sysLogger,
	)

	noteService := service.NewNoteService(uowFactory, listCache, publisherService, sysLogger)
	reorderService := service.NewReorderService(uowFactory, listCache, publisherService, sysLogger)

	auth := serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret)
	c.NoteController = controller.NewNoteController(noteService, reorderService, auth)
	c.SyncHandler = handler.NewSyncHandler(c.WebSocketHub, cfg.Auth.JwtSecret, syncLogger)

	return c
}

// connectRedis returns nil when Redis is not configured or not reachable; callers fall
// back to uncached reads and single-instance delivery.
func connectRedis(url string, log logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using it as an address", map[string]interface{}{"error": err})
		opt = &redis.Options{Addr: url}
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Bootstrap", "Redis unreachable, list cache disabled", map[string]interface{}{"error": err})
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
