package config

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
	mongoMu     sync.RWMutex
)

// GetMongoDB returns the statement database, or nil when Mongo is not configured/connected.
func GetMongoDB() *mongo.Database {
	mongoMu.RLock()
	defer mongoMu.RUnlock()
	return mongoDB
}

func MongoConfigured() bool {
	return strings.TrimSpace(os.Getenv("MONGO_URI")) != ""
}

// ConnectMongoWithRetry connects to MONGO_URI / MONGO_DB (default "mca_statements").
// It is a no-op when MONGO_URI is empty.
func ConnectMongoWithRetry(ctx context.Context) {
	uri := strings.TrimSpace(os.Getenv("MONGO_URI"))
	if uri == "" {
		log.Printf("MONGO_URI not set; funding statements will be computed on demand")
		return
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "mca_statements"
	}
	safeURI := redactMongoURI(uri)

	connectTimeout := time.Duration(intFromEnv("MONGO_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout * 2).
		SetHeartbeatInterval(10 * time.Second).
		SetMaxConnIdleTime(5 * time.Minute).
		SetMaxPoolSize(uint64(intFromEnv("MONGO_MAX_POOL_SIZE", 50))).
		SetMinPoolSize(uint64(intFromEnv("MONGO_MIN_POOL_SIZE", 0)))

	var attempt int
	for {
		attempt++
		client, err := mongo.Connect(ctx, clientOpts)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
			err = client.Ping(pingCtx, nil)
			cancel()
			if err == nil {
				mongoMu.Lock()
				mongoClient = client
				mongoDB = client.Database(dbName)
				mongoMu.Unlock()
				log.Printf("connected to mongo (attempt=%d uri=%s db=%s)", attempt, safeURI, dbName)
				return
			}
			_ = client.Disconnect(context.Background())
		}
		if ctx.Err() != nil {
			return
		}
		sleep := backoffSleep(attempt)
		log.Printf("failed to connect mongo (attempt=%d uri=%s): %v; retrying in %s", attempt, safeURI, err, sleep)
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

func DisconnectMongo(ctx context.Context) error {
	mongoMu.Lock()
	defer mongoMu.Unlock()
	if mongoClient == nil {
		return nil
	}
	err := mongoClient.Disconnect(ctx)
	mongoClient = nil
	mongoDB = nil
	return err
}

// redactMongoURI hides credentials for logging.
func redactMongoURI(uri string) string {
	parts := strings.SplitN(uri, "@", 2)
	if len(parts) != 2 {
		return uri
	}
	scheme := "mongodb://"
	if strings.HasPrefix(uri, "mongodb+srv://") {
		scheme = "mongodb+srv://"
	}
	return scheme + "***:***@" + parts[1]
}
