package main

import "time"

type Config struct {
	StoreDriver          string        `env:"STORE_DRIVER,default=badger"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,default=./data/badger"`
	DatabaseURL          string        `env:"DATABASE_URL"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH"`
	ObjectStoreDir       string        `env:"OBJECT_STORE_DIR,default=./data/objects"`
	PublicBaseURL        string        `env:"PUBLIC_BASE_URL,default=http://localhost:8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	GRPCPort             int           `env:"GRPC_PORT,default=9090"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	JWTIssuer            string        `env:"JWT_ISSUER,default=cryptochat"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	CORSAllowedOrigins   string        `env:"CORS_ALLOWED_ORIGINS,default=*"`
	MessageReward        int64         `env:"MESSAGE_REWARD,default=5"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	MaxAvatarBytes       int           `env:"MAX_AVATAR_BYTES,default=2097152"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES"`
	CensoredWords        string        `env:"CENSORED_WORDS"`
	CharacterReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	IndexBufferSize      int           `env:"INDEX_BUFFER_SIZE,default=256"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=15s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}
