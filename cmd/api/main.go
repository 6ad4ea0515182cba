// Package main (in api-subfolder) provides launch of the whole application except worker
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alexkarev/imagevault/internal/auth"
	"github.com/alexkarev/imagevault/internal/kafka"
	"github.com/alexkarev/imagevault/internal/mwlogger"
	"github.com/alexkarev/imagevault/internal/repository"
	"github.com/alexkarev/imagevault/internal/service"
	"github.com/alexkarev/imagevault/internal/storage"
	"github.com/alexkarev/imagevault/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	err := zlog.SetLevel("info")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключиться к базе и накатить миграции
	dbConn := repository.ConnectWithRetries(appConfig, 5, 10*time.Second)
	repository.MigrateWithRetries(dbConn.Master, "./migrations", 10, 15*time.Second)

	// подключиться к хранилищу
	strg := storage.NewBlobStorage(appConfig, 10*time.Second)
	// создаем экземпляр репо
	repo := repository.NewPostgresAssetRepo(dbConn)

	// ждем пока кафка раздуплится
	broker := appConfig.GetString("KAFKA_BROKER")
	kafka.WaitKafkaReady(broker)
	// топик для событий об осиротевших блобах
	topic := appConfig.GetString("KAFKA_ORPHAN_TOPIC")
	kafka.InitKafkaTopics(ctx, broker, 10*time.Second, topic)
	pub := wbfkafka.NewProducer([]string{broker}, topic)

	// создаем экземпляр сервиса
	fetcher := storage.NewHTTPFetcher(30 * time.Second)
	workers, _ := strconv.Atoi(appConfig.GetString("TRANSFORM_WORKERS"))
	var svc ImageAPIService = service.NewImageService(repo, strg, fetcher, pub, workers)

	// auth-слой: пользователи + токены
	secret := appConfig.GetString("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required to sign tokens. Exiting app...")
	}
	authSvc := auth.NewService(auth.NewPostgresUserRepo(dbConn), secret)

	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewImageHandler(svc, authSvc)
	// сетапим сервер
	mode := appConfig.GetString("GIN_MODE")
	engine := ginext.New(mode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/register", handlers.Register)
	engine.POST("/login", handlers.Login)
	engine.POST("/images", auth.Require(secret, handlers.Ingest))                 // загрузка нового изображения
	engine.GET("/images", auth.Require(secret, handlers.List))                    // список с пагинацией
	engine.GET("/images/:id", auth.Require(secret, handlers.GetAsset))            // метаданные одного изображения
	engine.POST("/images/:id/transform", auth.Require(secret, handlers.Transform)) // трансформация

	srv := &http.Server{
		Addr:    ":" + appConfig.GetString("APP_PORT"),
		Handler: mwlogger.NewMWLogger(engine),
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// ждем отмены контекста для запуска грейсфул закрытия соединений бд и кафки
	<-ctx.Done()

	shutdown(pub, dbConn)
	log.Println("Exiting app...")
}

func shutdown(pub *wbfkafka.Producer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// Closing Kafka connection:
	if err := pub.Close(); err != nil {
		log.Println("Failed to close Kafka-producer:", err)
	}
	log.Println("Kafka-producer connection closed.")

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
