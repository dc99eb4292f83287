package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
)

const DefaultDirPerm = 0o700

//go:embed config.toml.tpl
var configTemplateText string

// Keys and sections in the template must match the mapstructure tags in config.go.
var configTemplate = template.Must(template.New("config.toml").Funcs(template.FuncMap{
	"quoteList": quoteList,
}).Parse(configTemplateText))

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// WriteConfigFile renders cfg into a toml file at path, creating its directory.
func WriteConfigFile(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, cfg); err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerm); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
