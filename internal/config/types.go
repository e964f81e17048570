package config

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config is the top-level collabview configuration, corresponding to
// .collabview.yml.
type Config struct {
	Server      ServerConfig      `yaml:"server" koanf:"server"`
	DataDir     string            `yaml:"data_dir" koanf:"data_dir"`
	Log         LogConfig         `yaml:"log" koanf:"log"`
	Viewer      ViewerConfig      `yaml:"viewer" koanf:"viewer"`
	Eligibility EligibilityConfig `yaml:"eligibility" koanf:"eligibility"`
	Collabview  CollabviewConfig  `yaml:"collabview" koanf:"collabview"`
	Import      ImportConfig      `yaml:"import" koanf:"import"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string    `yaml:"level" koanf:"level"`
	Format LogFormat `yaml:"format" koanf:"format"`
}

// ViewerConfig controls URL resolution and the viewer panel.
type ViewerConfig struct {
	// Endpoint is the viewer-redirect URL. Empty means this server's own.
	Endpoint       string `yaml:"endpoint" koanf:"endpoint"`
	Authority      string `yaml:"authority" koanf:"authority"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	SlotID         string `yaml:"slot_id" koanf:"slot_id"`
	PanelTitle     string `yaml:"panel_title" koanf:"panel_title"`
	EmptyMessage   string `yaml:"empty_message" koanf:"empty_message"`
	// UseNotifier routes open requests through the websocket hub instead of
	// the panel controller.
	UseNotifier bool `yaml:"use_notifier" koanf:"use_notifier"`
}

// EligibilityConfig lists the file types the viewer handles.
type EligibilityConfig struct {
	Extensions []string `yaml:"extensions" koanf:"extensions"`
	Deny       []string `yaml:"deny" koanf:"deny"`
}

// CollabviewConfig locates the external viewer server.
type CollabviewConfig struct {
	URL           string `yaml:"url" koanf:"url"`
	DisposableKey string `yaml:"disposable_key" koanf:"disposable_key"`
	FileDir       string `yaml:"file_dir" koanf:"file_dir"`
}

// ImportConfig holds defaults for `collabview files import`.
type ImportConfig struct {
	Include       []string `yaml:"include" koanf:"include"`
	Exclude       []string `yaml:"exclude" koanf:"exclude"`
	MaxFileSizeMB int      `yaml:"max_file_size_mb" koanf:"max_file_size_mb"`
}
