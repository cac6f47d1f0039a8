package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const defaultConfigDir = "~/.config/pona"

// rcPaths are searched in order for a file of commands to run at start-up.
var rcPaths = []string{"~/.config/pona/login", "~/.config/.pona", "~/.pona"}

// Config holds runtime settings for the CLI app.
type Config struct {
	Account   string
	Password  string
	Pager     string
	Editor    string
	NotesDir  string
	HistoryDB string
	LogFile   string
	LogLevel  string
	Shortcuts map[string]string

	// File is the config file that was read, empty when none was found.
	File string
}

// Load reads settings from the config file and PONA_* environment variables,
// the latter taking precedence. An empty configFile means the default
// location; a missing default file is not an error.
func Load(configFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PONA")
	v.AutomaticEnv()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	v.SetDefault("account", "")
	v.SetDefault("password", "")
	v.SetDefault("pager", os.Getenv("PAGER"))
	v.SetDefault("editor", editor)
	v.SetDefault("notes_dir", defaultConfigDir+"/notes")
	v.SetDefault("history_db", defaultConfigDir+"/history.db")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")

	if configFile != "" {
		path, err := homedir.Expand(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("expand config path: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		dir, err := homedir.Expand(defaultConfigDir)
		if err != nil {
			return Config{}, fmt.Errorf("expand config dir: %w", err)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Account:   strings.TrimSpace(v.GetString("account")),
		Password:  v.GetString("password"),
		Pager:     strings.TrimSpace(v.GetString("pager")),
		Editor:    strings.TrimSpace(v.GetString("editor")),
		NotesDir:  v.GetString("notes_dir"),
		HistoryDB: v.GetString("history_db"),
		LogFile:   v.GetString("log_file"),
		LogLevel:  v.GetString("log_level"),
		Shortcuts: v.GetStringMapString("shortcuts"),
		File:      v.ConfigFileUsed(),
	}

	var err error
	if cfg.NotesDir, err = expand(cfg.NotesDir); err != nil {
		return Config{}, err
	}
	if cfg.HistoryDB, err = expand(cfg.HistoryDB); err != nil {
		return Config{}, err
	}
	if cfg.LogFile, err = expand(cfg.LogFile); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Account != "" {
		username, pod, ok := strings.Cut(c.Account, "@")
		if !ok || username == "" || pod == "" || strings.Contains(pod, "@") {
			return fmt.Errorf("account must look like username@pod: %s", c.Account)
		}
	}
	if c.NotesDir == "" {
		return errors.New("notes_dir is required")
	}
	if c.HistoryDB == "" {
		return errors.New("history_db is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error: %s", c.LogLevel)
	}
	for token, expansion := range c.Shortcuts {
		if strings.ContainsAny(token, " \t") || token == "" {
			return fmt.Errorf("shortcut must be a single word: %q", token)
		}
		if strings.TrimSpace(expansion) == "" {
			return fmt.Errorf("shortcut %s has no expansion", token)
		}
	}
	return nil
}

// FindRCFile returns the first existing start-up command file.
func FindRCFile() (string, bool) {
	for _, p := range rcPaths {
		path, err := homedir.Expand(p)
		if err != nil {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// ReadRCFile returns the command lines of an rc file, skipping blank lines
// and # comments.
func ReadRCFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rc file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rc file: %w", err)
	}
	return lines, nil
}

func expand(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	out, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return out, nil
}
