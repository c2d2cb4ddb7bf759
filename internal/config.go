package internal

import "time"

// Config is read from the environment by the binaries (go-env tags).
type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=8080"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	BlobRoot       string `env:"BLOB_ROOT,default=./blobs"`

	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	AuthSecret string `env:"AUTH_SECRET,required=true"`

	PageSize          int `env:"PAGE_SIZE,default=20"`
	NotificationLimit int `env:"NOTIFICATION_LIMIT,default=50"`

	// Live connection tuning, enforced by the websocket pumps.
	WriteWait      time.Duration `env:"WS_WRITE_WAIT,default=10s"`
	PongWait       time.Duration `env:"WS_PONG_WAIT,default=60s"`
	PingInterval   time.Duration `env:"WS_PING_INTERVAL,default=54s"`
	MaxMessageSize int64         `env:"WS_MAX_MESSAGE_SIZE,default=4096"`
	SendBufferSize int           `env:"WS_SEND_BUFFER_SIZE,default=64"`

	// Notification burst suppression window; 0 disables throttling.
	ThrottleTTL      time.Duration `env:"NOTIFICATION_THROTTLE_TTL,default=0s"`
	ThrottleCapacity int64         `env:"NOTIFICATION_THROTTLE_CAPACITY,default=10000"`

	// Badger value-log GC cadence.
	GCInterval time.Duration `env:"GC_INTERVAL,default=5m"`
}
