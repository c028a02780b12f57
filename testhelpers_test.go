//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/roomdesk/service-booking/internal/application"
	bookingEvents "github.com/roomdesk/service-booking/internal/events"
	"github.com/roomdesk/service-booking/internal/pkg/clock"
	"github.com/roomdesk/service-booking/internal/pkg/database"
	"github.com/roomdesk/service-booking/internal/pkg/kafka"
	"github.com/roomdesk/service-booking/internal/proto/events"
	"github.com/roomdesk/service-booking/internal/repository"
)

// bookingStack holds wired-up service components over a real database.
type bookingStack struct {
	DB       *gorm.DB
	UoW      *repository.GormUnitOfWork
	Rooms    *application.RoomService
	Bookings *application.BookingService
}

// setupPostgres starts a PostgreSQL container, applies the SQL migrations and
// returns a connected GORM DB.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_booking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:         pgHost,
		Port:         pgPort.Port(),
		User:         "test",
		Password:     "test",
		DBName:       "test_booking",
		SSLMode:      "disable",
		MaxOpenConns: 20,
		MaxIdleConns: 5,
	}

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = database.Connect(cfg, logger)
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(cfg.DatabaseURL(), logger))
	return db
}

// setupBookingStack wires the services over db with the given publisher.
func setupBookingStack(t *testing.T, db *gorm.DB, publisher application.EventPublisher) *bookingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	if publisher == nil {
		publisher = bookingEvents.NewNoopPublisher(logger)
	}

	clk := clock.NewRealClock()
	uow := repository.NewGormUnitOfWork(db, logger)
	return &bookingStack{
		DB:    db,
		UoW:   uow,
		Rooms: application.NewRoomService(uow, nil, logger),
		Bookings: application.NewBookingService(
			uow,
			application.NewLedger(clk),
			application.NewHistoryRecorder(clk),
			publisher,
			events.TopicBookingEvents,
			clk,
			logger,
		),
	}
}

// seedRoom creates an active room with a unique name.
func seedRoom(t *testing.T, stack *bookingStack) uuid.UUID {
	t.Helper()
	rm, err := stack.Rooms.CreateRoom(context.Background(), application.CreateRoomRequest{
		Name:     "Room " + uuid.NewString()[:8],
		Capacity: 8,
	})
	require.NoError(t, err)
	return rm.ID
}

// setupKafka starts a Kafka container and pre-creates topics.
func setupKafka(t *testing.T, topics ...string) []string {
	t.Helper()
	ctx := context.Background()

	// confluent-local supports KRaft natively.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, brokers, topics...)
	return brokers
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data any) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := events.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) events.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := events.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
