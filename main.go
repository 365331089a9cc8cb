package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/adaptivemaze/amaze-api/api"
	gameapi "github.com/adaptivemaze/amaze-api/api/game"
	api_i "github.com/adaptivemaze/amaze-api/api/i"
	"github.com/adaptivemaze/amaze-api/api/identity"
	"github.com/adaptivemaze/amaze-api/config"
	"github.com/adaptivemaze/amaze-api/infrastruture/modelstore"
	"github.com/adaptivemaze/amaze-api/infrastruture/repo"
	"github.com/adaptivemaze/amaze-api/infrastruture/sortedstorage"
	"github.com/adaptivemaze/amaze-api/infrastruture/token"
	"github.com/adaptivemaze/amaze-api/logging"
	"github.com/adaptivemaze/amaze-api/service"
	"github.com/adaptivemaze/amaze-api/service/i"
	"github.com/adaptivemaze/amaze-api/transport/realtime"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Global variables for dependencies
var (
	mongoClient           *mongo.Client
	redisClient           *redis.Client
	tableStore            *modelstore.Store
	userRepo              i.UserRepo
	sortedStorage         i.SortedStorage
	leaderboard           *service.Leaderboard
	raceManager           i.RaceManager
	hub                   *realtime.Hub
	jwtTokenizer          i.Tokenizer
	authService           i.Authenticator
	authController        api_i.Controller
	raceController        api_i.Controller
	leaderboardController api_i.Controller
	router                *api.Router
	appLogger             *logging.Logger
)

func initMongo(ctx context.Context) {
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%v", config.Envs.DBUser, config.Envs.DBPassword, config.Envs.DBHost, config.Envs.DBPort)

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	mongoClient, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Failed to connect to MongoDB: %v", err))
		os.Exit(1)
	}
	if err = mongoClient.Ping(ctx, nil); err != nil {
		appLogger.Error(fmt.Sprintf("MongoDB ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to MongoDB")
}

func initRedis(ctx context.Context) {
	redisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Envs.RedisHost, config.Envs.RedisPort),
		Password: config.Envs.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to Redis")
}

func initUserRepo(client *mongo.Client) {
	userRepo = repo.NewUserRepo(client, config.Envs.DBName, "users")
	appLogger.Info("User repository initialized")
}

func initModelStore() {
	var err error
	tableStore, err = modelstore.New(config.Envs.ModelDir)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Opening model store: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Model store initialized")
}

func initLeaderboard() {
	var err error
	sortedStorage, err = sortedstorage.NewRedisSortedStorage(redisClient)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating sorted storage: %v", err))
		os.Exit(1)
	}

	lbLogger, err := logging.New("LEADERBOARD", logging.ColorMagenta, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating leaderboard logger: %v", err))
		os.Exit(1)
	}

	leaderboard, err = service.NewLeaderboard(sortedStorage, lbLogger)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating leaderboard: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Leaderboard initialized")
}

func initHub() {
	hubLogger, err := logging.New("HUB", logging.ColorCyan, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating hub logger: %v", err))
		os.Exit(1)
	}

	hub = realtime.NewHub(hubLogger)
	go hub.Run()
	appLogger.Info("Realtime hub initialized")
}

func initRaceManager() {
	raceLogger, err := logging.New("RACE-MANAGER", logging.ColorBlue, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating race manager logger: %v", err))
		os.Exit(1)
	}

	raceManager, err = service.NewRaceManager(&service.RaceManagerConfig{
		Broadcaster: hub,
		Store:       tableStore,
		Leaderboard: leaderboard,
		UserRepo:    userRepo,
		Logger:      raceLogger,
		Worker:      fmt.Sprintf("api-%s", uuid.NewString()[:8]),
		BotTick:     time.Duration(config.Envs.BotTickMillis) * time.Millisecond,
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating race manager: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Race manager initialized")
}

func initJWTTokenizer() {
	jwtTokenizer = token.NewJwtService(config.Envs.JWTSecret, config.Envs.JWTIssuer)
	appLogger.Info("JWT Tokenizer initialized")
}

func initAuthService() {
	authLogger, err := logging.New("AUTH", logging.ColorGreen, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating auth logger: %v", err))
		os.Exit(1)
	}

	authService, err = service.NewAuthService(userRepo, jwtTokenizer, leaderboard, authLogger)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating auth service: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Auth service initialized")
}

func initControllers() {
	var err error
	authController = identity.NewIdentityServer(authService)

	raceController, err = gameapi.NewRaceController(raceManager, hub)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating race controller: %v", err))
		os.Exit(1)
	}

	leaderboardController, err = gameapi.NewLeaderboardController(leaderboard)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating leaderboard controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Controllers initialized")
}

func initRouter(t i.Tokenizer) {
	router = api.NewRouter(api.Config{
		Addr:                    fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.RESTPort),
		BaseURL:                 "/api",
		Controllers:             []api_i.Controller{authController, raceController, leaderboardController},
		AuthorizationMiddleware: identity.Authoriz(t),
	})
	appLogger.Info("Router initialized")
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel() // Ensure the context is always canceled

	// Initialize dependencies
	appLogger, _ = logging.New("APP", logging.ColorGreen, os.Stdout)

	initMongo(ctx)
	defer func() {
		_ = mongoClient.Disconnect(ctx)
	}()

	initRedis(ctx)
	defer func() {
		_ = redisClient.Close()
	}()

	initUserRepo(mongoClient)
	initModelStore()
	defer func() {
		_ = tableStore.Close()
	}()

	initLeaderboard()
	initHub()
	initRaceManager()
	initJWTTokenizer()
	initAuthService()
	initControllers()
	initRouter(jwtTokenizer)

	defer raceManager.StopAll()

	// Run HTTP server
	if err := router.Run(); err != nil {
		appLogger.Error(fmt.Sprintf("Starting server: %v", err))
		os.Exit(1)
	}
}
