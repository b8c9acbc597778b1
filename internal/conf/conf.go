package conf

import "time"

// Bootstrap is the top-level configuration tree loaded from configs/config.yaml.
type Bootstrap struct {
	Server     *Server     `json:"server"`
	Data       *Data       `json:"data"`
	Moderation *Moderation `json:"moderation"`
	Upload     *Upload     `json:"upload"`
}

// Server holds HTTP server settings.
type Server struct {
	HTTP HTTPServer `json:"http"`
}

type HTTPServer struct {
	Network string `json:"network"`
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

// Data holds storage and cache backend settings.
type Data struct {
	Storage Storage `json:"storage"`
	Cache   Cache   `json:"cache"`
}

// Storage selects the object store backend.
type Storage struct {
	// Driver is one of "postgres", "s3" or "memory".
	Driver   string   `json:"driver"`
	Database Database `json:"database"`
	S3       S3       `json:"s3"`
}

type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
	Pool   Pool   `json:"pool"`
}

type Pool struct {
	MaxOpenConns    int32 `json:"max_open_conns"`
	MinIdleConns    int32 `json:"min_idle_conns"`
	MaxConnLifetime int32 `json:"max_conn_lifetime"` // minutes
	MaxConnIdleTime int32 `json:"max_conn_idle_time"` // minutes
}

type S3 struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
}

// Cache selects the coalescer outcome cache backend.
type Cache struct {
	// Driver is "memory" or "redis".
	Driver string `json:"driver"`
	Redis  Redis  `json:"redis"`
}

type Redis struct {
	Addr         string `json:"addr"`
	Network      string `json:"network"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
}

// Moderation holds moderation service and policy settings.
type Moderation struct {
	APIURL    string `json:"api_url"`
	APIUser   string `json:"api_user"`
	APISecret string `json:"api_secret"`
	Timeout   string `json:"timeout"`

	// VideoStrategy picks how long videos are moderated: "segmented"
	// submits independently decodable windows, "async" submits the whole
	// file once and polls. The two are never mixed within one request.
	VideoStrategy string `json:"video_strategy"`
}

// Upload holds request handling limits.
type Upload struct {
	MaxVideoBytes    int64  `json:"max_video_bytes"`
	CoalesceRetention string `json:"coalesce_retention"`
}

// ParseDuration parses a config duration string, returning def on
// empty or malformed input.
func ParseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
