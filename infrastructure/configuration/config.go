package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"omnicast/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Storage     Storage     `json:"storage"`
	Database    Database    `json:"database"`
	Upload      Upload      `json:"upload"`
	Simulator   Simulator   `json:"simulator"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Port          int      `json:"port"`
	SecretKey     string   `json:"secretKey"`
	DefaultUserID int64    `json:"defaultUserId"`
	AllowOrigins  []string `json:"allowOrigins"`
}

// Storage selects the record store backend: memory, postgres or mysql.
type Storage struct {
	Driver string `json:"driver"`
	Seed   bool   `json:"seed"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
	Mongo Db `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type Upload struct {
	Dir         string `json:"dir"`
	MaxFileSize int64  `json:"maxFileSize"`
}

type Simulator struct {
	UploadTickMs  int `json:"uploadTickMs"`
	ProcessTickMs int `json:"processTickMs"`
}

func (s Simulator) UploadTick() time.Duration {
	return time.Duration(s.UploadTickMs) * time.Millisecond
}

func (s Simulator) ProcessTick() time.Duration {
	return time.Duration(s.ProcessTickMs) * time.Millisecond
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Level string `json:"level"`
}

var C Config

func init() {
	LoadEnvFromFile("config.env", ".env")
	LoadConfig()
	initApp(&C)
	initStorage(&C)
	initDatabase(&C)
	initUpload(&C)
	initIntegrations(&C)
	if C.Logger.Level != "" {
		logger.SetLevel(C.Logger.Level)
	}
}

func setDefaults() {
	viper.SetDefault("app.port", 5000)
	viper.SetDefault("app.defaultUserId", 1)
	viper.SetDefault("app.allowOrigins", []string{"http://localhost:5000", "http://localhost:5173", "http://localhost:3000"})
	viper.SetDefault("storage.driver", "memory")
	viper.SetDefault("storage.seed", true)
	viper.SetDefault("upload.dir", "uploads")
	viper.SetDefault("upload.maxFileSize", int64(2)<<30)
	viper.SetDefault("simulator.uploadTickMs", 500)
	viper.SetDefault("simulator.processTickMs", 800)
	viper.SetDefault("pubsub.topic", "omnicast-deliveries")
	viper.SetDefault("serviceBus.queue", "omnicast-deliveries")
	viper.SetDefault("database.psql.port", "5432")
	viper.SetDefault("database.psql.sslMode", "disable")
	viper.SetDefault("database.mysql.port", "3306")
	viper.SetDefault("database.mongo.name", "omnicast")
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().WithField("config", name).Warn("Config file not found, using defaults")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	if v := os.Getenv("AUTH_SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// APP_PORT -> PORT -> config -> default
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 5000
	}
	if v := os.Getenv("DEFAULT_USER_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			C.App.DefaultUserID = id
		}
	}
	if C.App.DefaultUserID <= 0 {
		C.App.DefaultUserID = 1
	}
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		C.App.AllowOrigins = splitList(v)
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Info("App.SecretKey not set; bearer tokens are ignored and the default user is used")
	}
}

func initStorage(C *Config) {
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		C.Storage.Driver = v
	}
	C.Storage.Driver = strings.ToLower(strings.TrimSpace(C.Storage.Driver))
	if C.Storage.Driver == "" {
		C.Storage.Driver = "memory"
	}
	if v := os.Getenv("STORAGE_SEED"); v != "" {
		C.Storage.Seed = v == "true" || v == "1"
	}
}

func initDatabase(C *Config) {
	envOr(&C.Database.Psql.Name, "DB_NAME")
	envOr(&C.Database.Psql.Host, "DB_HOST")
	envOr(&C.Database.Psql.Port, "DB_PORT")
	envOr(&C.Database.Psql.User, "DB_USER")
	envOr(&C.Database.Psql.Password, "DB_PASSWORD")
	envOr(&C.Database.Psql.SSLMode, "DB_SSLMODE")

	envOr(&C.Database.MySql.Name, "MYSQL_DB_NAME")
	envOr(&C.Database.MySql.Host, "MYSQL_HOST")
	envOr(&C.Database.MySql.Port, "MYSQL_PORT")
	envOr(&C.Database.MySql.User, "MYSQL_USER")
	envOr(&C.Database.MySql.Password, "MYSQL_PASSWORD")

	envOr(&C.Database.Mongo.Name, "MONGO_DB_NAME")
	envOr(&C.Database.Mongo.Host, "MONGO_HOST")
	envOr(&C.Database.Mongo.Port, "MONGO_PORT")
	envOr(&C.Database.Mongo.User, "MONGO_USER")
	envOr(&C.Database.Mongo.Password, "MONGO_PASSWORD")

	logger.GetLogger().WithFields(map[string]interface{}{
		"driver": C.Storage.Driver,
		"psql":   C.Database.Psql.Host,
		"mysql":  C.Database.MySql.Host,
	}).Info("Database configuration")
}

func initUpload(C *Config) {
	envOr(&C.Upload.Dir, "UPLOAD_DIR")
	if C.Upload.Dir == "" {
		C.Upload.Dir = "uploads"
	}
	if v := os.Getenv("UPLOAD_MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			C.Upload.MaxFileSize = n
		}
	}
	if C.Upload.MaxFileSize <= 0 {
		C.Upload.MaxFileSize = int64(2) << 30
	}
	if v := os.Getenv("SIMULATOR_UPLOAD_TICK_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			C.Simulator.UploadTickMs = n
		}
	}
	if v := os.Getenv("SIMULATOR_PROCESS_TICK_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			C.Simulator.ProcessTickMs = n
		}
	}
}

func initIntegrations(C *Config) {
	envOr(&C.Pubsub.ProjectID, "PUBSUB_PROJECT_ID")
	envOr(&C.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE")
	envOr(&C.RedisClient.Host, "REDIS_HOST")
	envOr(&C.RedisClient.Port, "REDIS_PORT")
	envOr(&C.RedisClient.Username, "REDIS_USERNAME")
	envOr(&C.RedisClient.Password, "REDIS_PASSWORD")
	if C.RedisClient.Host != "" && C.RedisClient.Port == "" {
		C.RedisClient.Port = "6379"
	}
	envOr(&C.Logger.Level, "LOG_LEVEL")
}

// envOr fills *dst from the environment when it is still empty.
func envOr(dst *string, key string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
