package config

import (
	"reflect"
	"strings"
	"sync"
)

// TagMapping links a struct tag value (an env var or a flag name) to the
// dotted koanf path of the field carrying it.
type TagMapping struct {
	Name       string
	ConfigPath string
}

var (
	envMappings  []TagMapping
	flagMappings []TagMapping
	mappingsOnce sync.Once
)

func buildMappings() {
	t := reflect.TypeOf(Config{})
	envMappings = extractMappings(t, "", "env")
	flagMappings = extractMappings(t, "", "flag")
}

// GenerateEnvMappings lists every env var declared on the Config struct.
func GenerateEnvMappings() []TagMapping {
	mappingsOnce.Do(buildMappings)
	return envMappings
}

// GenerateFlagMappings lists every CLI flag declared on the Config struct.
func GenerateFlagMappings() []TagMapping {
	mappingsOnce.Do(buildMappings)
	return flagMappings
}

func extractMappings(t reflect.Type, prefix, tag string) []TagMapping {
	var mappings []TagMapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" || koanfTag == "-" {
			continue
		}
		path := koanfTag
		if prefix != "" {
			path = prefix + "." + koanfTag
		}
		if name := field.Tag.Get(tag); name != "" && name != "-" {
			mappings = append(mappings, TagMapping{Name: name, ConfigPath: path})
		}
		if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
			mappings = append(mappings, extractMappings(field.Type, path, tag)...)
		}
	}
	return mappings
}

// GenerateEnvToConfigMap maps env var names to config paths.
func GenerateEnvToConfigMap() map[string]string {
	return toMap(GenerateEnvMappings())
}

// GenerateFlagToConfigMap maps flag names to config paths.
func GenerateFlagToConfigMap() map[string]string {
	return toMap(GenerateFlagMappings())
}

func toMap(mappings []TagMapping) map[string]string {
	result := make(map[string]string, len(mappings))
	for _, m := range mappings {
		result[m.Name] = m.ConfigPath
	}
	return result
}

// GetEnvVarForConfigPath returns the environment variable for a given config path
func GetEnvVarForConfigPath(configPath string) string {
	for _, m := range GenerateEnvMappings() {
		if m.ConfigPath == configPath {
			return m.Name
		}
	}
	return ""
}

// IsSensitiveConfigPath reports whether the field at configPath holds a secret.
func IsSensitiveConfigPath(configPath string) bool {
	return checkSensitiveField(reflect.TypeOf(Config{}), strings.Split(configPath, "."))
}

func checkSensitiveField(t reflect.Type, pathParts []string) bool {
	if len(pathParts) == 0 {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("koanf") != pathParts[0] {
			continue
		}
		if len(pathParts) == 1 {
			return field.Type == reflect.TypeOf(SensitiveString("")) || field.Tag.Get("sensitive") == "true"
		}
		if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
			return checkSensitiveField(field.Type, pathParts[1:])
		}
	}
	return false
}
