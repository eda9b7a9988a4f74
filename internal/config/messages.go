package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MessageConfig user-facing message catalog
type MessageConfig struct {
	Language string                      `yaml:"language"`
	Messages map[string]LanguageMessages `yaml:"messages"`
}

// LanguageMessages messages for a specific language
type LanguageMessages struct {
	Unreachable  string `yaml:"unreachable"`
	NetworkError string `yaml:"network_error"`
	LoadFailed   string `yaml:"load_failed"`
	SearchFailed string `yaml:"search_failed"`
	CreateFailed string `yaml:"create_failed"`
	UpdateFailed string `yaml:"update_failed"`
	DeleteFailed string `yaml:"delete_failed"`
}

// DefaultMessageConfig returns default message configuration
func DefaultMessageConfig() *MessageConfig {
	return &MessageConfig{
		Language: "en",
		Messages: map[string]LanguageMessages{
			"zh": {
				Unreachable:  "无法连接到服务器，请检查后端服务是否启动",
				NetworkError: "网络错误",
				LoadFailed:   "加载失败",
				SearchFailed: "搜索失败",
				CreateFailed: "创建失败",
				UpdateFailed: "更新失败",
				DeleteFailed: "删除失败",
			},
			"en": {
				Unreachable:  "Cannot reach the server, please check that the backend service is running",
				NetworkError: "Network error",
				LoadFailed:   "Failed to load memories",
				SearchFailed: "Search failed",
				CreateFailed: "Failed to create memory",
				UpdateFailed: "Failed to update memory",
				DeleteFailed: "Failed to delete memory",
			},
		},
	}
}

// MessagesPath returns the message catalog file path
func MessagesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "messages.yaml"), nil
}

// LoadMessageConfig loads the message catalog, falling back to the built-in one
func LoadMessageConfig() (*MessageConfig, error) {
	path, err := MessagesPath()
	if err != nil {
		return DefaultMessageConfig(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultMessageConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read message catalog: %w", err)
	}

	cfg := DefaultMessageConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog: %w", err)
	}

	return cfg, nil
}

// Get returns messages for the configured language.
// Missing entries are filled from the built-in catalog of that language, then from English.
func (m *MessageConfig) Get() LanguageMessages {
	defaults := DefaultMessageConfig().Messages
	msgs, ok := m.Messages[m.Language]
	if !ok {
		return defaults["en"]
	}
	for _, lang := range []string{m.Language, "en"} {
		msgs.fillFrom(defaults[lang])
	}
	return msgs
}

func (l *LanguageMessages) fillFrom(def LanguageMessages) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&l.Unreachable, def.Unreachable)
	fill(&l.NetworkError, def.NetworkError)
	fill(&l.LoadFailed, def.LoadFailed)
	fill(&l.SearchFailed, def.SearchFailed)
	fill(&l.CreateFailed, def.CreateFailed)
	fill(&l.UpdateFailed, def.UpdateFailed)
	fill(&l.DeleteFailed, def.DeleteFailed)
}
