package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxBodyMB         int64
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxInFlight       int64
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Log struct {
	Level  string
	JSON   bool
	Rotate LogRotate
}

type LogRotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Storage 广告数据的持久化槽位
type Storage struct {
	Backend  string // file | redis | db
	FilePath string
	SlotKey  string
}

type MinIO struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Upload struct {
	Backend         string // mock | minio
	LatencyMs       int
	PlaceholderBase string
	MaxFileMB       int64
	MinIO           MinIO `mapstructure:"minio"`
}

type Events struct {
	Enabled       bool
	NATSURL       string
	SubjectPrefix string
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	DB      DB
	Redis   Redis `mapstructure:"redis"`
	Storage Storage
	Upload  Upload
	Events  Events
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "car-classifieds")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 30)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.requesttimeoutsec", 15)
	v.SetDefault("app.http.maxbodymb", 16)
	v.SetDefault("app.http.ratelimitrps", 200)
	v.SetDefault("app.http.ratelimitburst", 400)
	v.SetDefault("app.http.maxinflight", 300)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.filename", "logs/app.log")
	v.SetDefault("log.rotate.maxsizemb", 100)
	v.SetDefault("log.rotate.maxbackups", 7)
	v.SetDefault("log.rotate.maxagedays", 30)

	// 空默认值也要登记，否则 AutomaticEnv 在 Unmarshal 时取不到
	for _, k := range []string{
		"jwt.secret", "db.dsn", "db.username", "db.password", "redis.password",
		"upload.minio.endpoint", "upload.minio.accesskey", "upload.minio.secretkey",
	} {
		v.SetDefault(k, "")
	}
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.compress", false)
	v.SetDefault("upload.minio.usessl", false)

	v.SetDefault("jwt.issuer", "car-classifieds")
	v.SetDefault("jwt.accesstokenttlmin", 120)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxopenconns", 10)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.addr", "127.0.0.1:6379")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.filepath", "data/cars.json")
	v.SetDefault("storage.slotkey", "cars")

	v.SetDefault("upload.backend", "mock")
	v.SetDefault("upload.latencyms", 1000)
	v.SetDefault("upload.placeholderbase", "https://via.placeholder.com/800x600.png")
	v.SetDefault("upload.maxfilemb", 10)
	v.SetDefault("upload.minio.bucket", "listings-photos")

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.natsurl", "nats://127.0.0.1:4222")
	v.SetDefault("events.subjectprefix", "listings")
}

// Read 读取配置；文件不存在时只用默认值 + 环境变量
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "file", "redis", "db":
	default:
		return fmt.Errorf("storage.backend %q: want file, redis or db", c.Storage.Backend)
	}
	switch c.Upload.Backend {
	case "mock", "minio":
	default:
		return fmt.Errorf("upload.backend %q: want mock or minio", c.Upload.Backend)
	}
	if c.Storage.SlotKey == "" {
		return errors.New("storage.slotkey must not be empty")
	}
	return nil
}

func Load(path string) *Config {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	c, err := Read(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return c
}
