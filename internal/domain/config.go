package domain

type Config struct {
	Version          string
	ConfigPath       string
	APIURL           string `mapstructure:"apiURL"`
	APIToken         string `mapstructure:"apiToken"`
	Language         string `mapstructure:"language"`
	ChapterEndpoint  string `mapstructure:"chapterEndpoint"`
	PageLimit        int    `mapstructure:"pageLimit"`
	DownloadLocation string `mapstructure:"downloadLocation"`
	NamingTemplate   string `mapstructure:"namingTemplate"`
	LowResolution    bool   `mapstructure:"lowResolution"`
	Overwrite        bool   `mapstructure:"overwrite"`
	RetryAttempts    uint   `mapstructure:"retryAttempts"`
	RequestTimeout   int    `mapstructure:"requestTimeout"` // in seconds
	LogPath          string `mapstructure:"logPath"`
	LogLevel         string `mapstructure:"logLevel"`
	LogMaxSize       int    `mapstructure:"logMaxSize"` // in megabytes
	LogMaxBackups    int    `mapstructure:"logMaxBackups"`
}
