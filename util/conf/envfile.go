package conf

import (
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ParseEnvFiles loads one or more dotenv files into a flat map of
// environment variables. Later files win over earlier ones on
// duplicate keys.
func ParseEnvFiles(paths ...string) (map[string]string, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if err := k.Load(file.Provider(path), dotenv.Parser()); err != nil {
			return nil, err
		}
	}

	keys := k.Keys()

	vars := make(map[string]string, len(keys))
	for _, key := range keys {
		vars[key] = k.String(key)
	}

	return vars, nil
}
