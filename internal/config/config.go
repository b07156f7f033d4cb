package config

import (
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"mangapdf/internal/catalog"
	"mangapdf/internal/domain"
	"mangapdf/internal/logger"
	"mangapdf/internal/sharedhttp"
	"mangapdf/internal/templater"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "MANGAPDF__"

var configTemplate = `# config.yaml

# Catalog API
# Base URL of the MangaDex compatible API
#
# Default: "https://api.mangadex.org"
#
apiURL: "https://api.mangadex.org"

# API Token
# Personal client token sent as "Authorization: Bearer <token>"
# Can also be provided with MANGAPDF__API_TOKEN or a .env file
#
# Optional
#
#apiToken: ""

# Language
# Only chapters translated to this language are listed
#
# Default: "en"
#
language: "en"

# Chapter Endpoint
# Which endpoint is used to list chapters
#
# Default: "feed"
#
# Options: "feed", "chapter"
#
chapterEndpoint: "feed"

# Download Location
# Every manga gets its own directory in here
#
# Default: "."
#
downloadLocation: "."

# Naming Template
# This can be used to change how the downloaded chapter will be named
# Variables: {manga}, {num}, {num:3}, {index}, {title: - <.>}
#
# Default: Chapter_{num}
#
namingTemplate: "Chapter_{num}"

# Low Resolution
# Halve width and height of every page
#
# Default: false
#
lowResolution: false

# Overwrite
# Download chapters again even if the document already exists
#
# Default: false
#
overwrite: false

# Retry Attempts
# How often a failed request is tried before giving up
#
# Default: 3
#
retryAttempts: 3

# Request Timeout in seconds
#
# Default: 60
#
requestTimeout: 60

# mangapdf logs file
# If not defined, logs to stderr
# Make sure to use forward slashes and include the filename with extension. e.g. "logs/mangapdf.log", "C:/mangapdf/logs/mangapdf.log"
#
# Optional
#
#logPath: ""

# Log level
#
# Default: "INFO"
#
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
#
logLevel: "INFO"

# Log Max Size
#
# Default: 50
#
# Max log size in megabytes
#
#logMaxSize: 50

# Log Max Backups
#
# Default: 3
#
# Max amount of old log files
#
#logMaxBackups: 3
`

func (c *AppConfig) writeConfig(configPath string, configFile string) error {
	cfgPath := filepath.Join(configPath, configFile)

	// check if configPath exists, if not create it
	if _, err := os.Stat(configPath); err != nil {
		if err := os.MkdirAll(configPath, os.ModePerm); err != nil {
			return errors.Wrapf(err, "could not create config directory %s", configPath)
		}
	}

	// check if config exists, if not create it
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {

		f, err := os.Create(cfgPath)
		if err != nil { // perm 0666
			return errors.Wrapf(err, "could not create config file %s", cfgPath)
		}
		defer f.Close()

		if _, err = f.WriteString(configTemplate); err != nil {
			return errors.Wrapf(err, "could not write config file %s", cfgPath)
		}

		return f.Sync()
	}

	return nil
}

type AppConfig struct {
	Config *domain.Config
	v      *viper.Viper
	m      *sync.Mutex
}

func New(configPath string, version string) (*AppConfig, error) {
	c := &AppConfig{
		v: viper.New(),
		m: new(sync.Mutex),
	}
	c.defaults()
	c.Config = &domain.Config{
		Version:    version,
		ConfigPath: configPath,
	}

	if err := c.load(configPath); err != nil {
		return nil, err
	}
	c.loadFromEnv()

	if c.Config.DownloadLocation == "" {
		return nil, errors.New("downloadLocation can't be empty, please provide a valid path to the directory you want your downloads to go to")
	}

	switch catalog.ChapterEndpoint(c.Config.ChapterEndpoint) {
	case catalog.EndpointFeed, catalog.EndpointChapter:
	default:
		return nil, errors.Errorf("invalid chapterEndpoint %q, use \"feed\" or \"chapter\"", c.Config.ChapterEndpoint)
	}

	return c, nil
}

func (c *AppConfig) defaults() {
	c.v.SetDefault("apiURL", catalog.DefaultURL)
	c.v.SetDefault("apiToken", "")
	c.v.SetDefault("language", catalog.DefaultLanguage)
	c.v.SetDefault("chapterEndpoint", string(catalog.EndpointFeed))
	c.v.SetDefault("pageLimit", catalog.DefaultLimit)
	c.v.SetDefault("downloadLocation", ".")
	c.v.SetDefault("namingTemplate", templater.DefaultTemplate)
	c.v.SetDefault("lowResolution", false)
	c.v.SetDefault("overwrite", false)
	c.v.SetDefault("retryAttempts", 3)
	c.v.SetDefault("requestTimeout", 60)
	c.v.SetDefault("logPath", "")
	c.v.SetDefault("logLevel", "INFO")
	c.v.SetDefault("logMaxSize", 50)
	c.v.SetDefault("logMaxBackups", 3)
}

func (c *AppConfig) loadFromEnv() {
	envs := os.Environ()
	for _, env := range envs {
		if strings.HasPrefix(env, envPrefix) {
			envPair := strings.SplitN(env, "=", 2)

			if envPair[1] != "" {
				switch envPair[0] {
				case envPrefix + "API_URL":
					c.Config.APIURL = envPair[1]
				case envPrefix + "API_TOKEN":
					c.Config.APIToken = envPair[1]
				case envPrefix + "LANGUAGE":
					c.Config.Language = envPair[1]
				case envPrefix + "CHAPTER_ENDPOINT":
					c.Config.ChapterEndpoint = envPair[1]
				case envPrefix + "DOWNLOAD_LOCATION":
					c.Config.DownloadLocation = envPair[1]
				case envPrefix + "NAMING_TEMPLATE":
					c.Config.NamingTemplate = envPair[1]
				case envPrefix + "LOW_RESOLUTION":
					if b, err := strconv.ParseBool(envPair[1]); err == nil {
						c.Config.LowResolution = b
					}
				case envPrefix + "OVERWRITE":
					if b, err := strconv.ParseBool(envPair[1]); err == nil {
						c.Config.Overwrite = b
					}
				case envPrefix + "RETRY_ATTEMPTS":
					if i, _ := strconv.ParseInt(envPair[1], 10, 32); i > 0 {
						c.Config.RetryAttempts = uint(i)
					}
				case envPrefix + "REQUEST_TIMEOUT":
					if i, _ := strconv.ParseInt(envPair[1], 10, 32); i > 0 {
						c.Config.RequestTimeout = int(i)
					}
				case envPrefix + "LOG_LEVEL":
					c.Config.LogLevel = envPair[1]
				case envPrefix + "LOG_PATH":
					c.Config.LogPath = envPair[1]
				case envPrefix + "LOG_MAX_SIZE":
					if i, _ := strconv.ParseInt(envPair[1], 10, 32); i > 0 {
						c.Config.LogMaxSize = int(i)
					}
				case envPrefix + "LOG_MAX_BACKUPS":
					if i, _ := strconv.ParseInt(envPair[1], 10, 32); i > 0 {
						c.Config.LogMaxBackups = int(i)
					}
				}
			}
		}
	}
}

func (c *AppConfig) load(configPath string) error {
	c.v.SetConfigType("yaml")

	if configPath != "" {
		// clean trailing slash from configPath
		configPath = path.Clean(configPath)

		// check if path and file exists
		// if not, create path and file
		if err := c.writeConfig(configPath, "config.yaml"); err != nil {
			return err
		}

		c.v.SetConfigFile(path.Join(configPath, "config.yaml"))
	} else {
		c.v.SetConfigName("config")

		// Search config in directories
		c.v.AddConfigPath(".")
		c.v.AddConfigPath("$HOME/.config/mangapdf")
		c.v.AddConfigPath("$HOME/.mangapdf")
	}

	// running without a config file is fine, defaults and env apply
	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrapf(err, "could not read config file %s", c.v.ConfigFileUsed())
		}
	}

	if err := c.v.Unmarshal(c.Config); err != nil {
		return errors.Wrapf(err, "could not unmarshal config file %s", c.v.ConfigFileUsed())
	}

	return nil
}

// DynamicReload applies log level changes made to the config file while running.
func (c *AppConfig) DynamicReload(log logger.Logger) {
	if c.v.ConfigFileUsed() == "" {
		return
	}

	c.v.OnConfigChange(func(_ fsnotify.Event) {
		c.m.Lock()
		defer c.m.Unlock()

		logLevel := c.v.GetString("logLevel")
		c.Config.LogLevel = logLevel
		log.SetLogLevel(c.Config.LogLevel)

		log.Debug().Msg("config file reloaded!")
	})
	c.v.WatchConfig()
}

// CatalogConfig returns the catalog client settings.
func (c *AppConfig) CatalogConfig() catalog.Config {
	return catalog.Config{
		BaseURL:   c.Config.APIURL,
		Token:     c.Config.APIToken,
		Language:  c.Config.Language,
		Endpoint:  catalog.ChapterEndpoint(c.Config.ChapterEndpoint),
		PageLimit: c.Config.PageLimit,
		Client:    sharedhttp.NewClient(c.RequestTimeout()),
		Retry:     c.RetryPolicy(),
	}
}

func (c *AppConfig) RetryPolicy() sharedhttp.Policy {
	policy := sharedhttp.DefaultPolicy
	if c.Config.RetryAttempts > 0 {
		policy.Attempts = c.Config.RetryAttempts
	}
	return policy
}

func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Config.RequestTimeout) * time.Second
}
