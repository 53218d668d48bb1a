package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config uses the same keys as the dw.json files of the platform tooling.
type Config struct {
	Hostname      string `json:"hostname"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Bearer        string `json:"bearer"`
	Folder        string `json:"folder"`
	Version       string `json:"version"`
	CodeVersion   string `json:"code-version"`
	Root          string `json:"root"`
	P12           string `json:"p12"`
	Passphrase    string `json:"passphrase"`
	RootCA        string `json:"ca"`
	SelfSigned    bool   `json:"self-signed"`
	StrictSSL     bool   `json:"strict-ssl"`
	LogLevel      string `json:"log_level"`
	Thread        int    `json:"thread"`
	Retry         bool   `json:"retry"`
	RetryInterval int64  `json:"retry_interval"`
	Timeout       int64  `json:"timeout"`
}

func Parse(f string) (*Config, error) {
	raw, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("read file:%w", err)
	}
	c := &Config{
		Folder:        "Cartridges",
		Root:          ".",
		LogLevel:      "info",
		Thread:        4,
		RetryInterval: 2,
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("unmarshal file:%w", err)
	}
	if len(c.Version) == 0 {
		c.Version = c.CodeVersion
	}
	return c, nil
}
