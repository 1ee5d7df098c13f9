package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "BENCHLINE"

// readConfig locates and reads a configuration file using Viper. It searches
// for a file named "{name}.{ext}" in each of the given directories in order;
// the first found file is read. The returned Viper instance contains the
// parsed config and can be used for further unmarshaling or env binding.
//
// Parameters:
//   - logger: Logger for config load messages (success and failure).
//   - name: Config file base name without extension (e.g., "benchline").
//   - ext: Config file extension/type (e.g., "yaml"); used by Viper as config type.
//   - dirs: One or more directories to search for the file; first match wins.
//
// Returns:
//   - *viper.Viper: Viper instance with the config loaded, or a new Viper if no file was read.
//   - error: Non-nil if no config file was found in any dir or if reading failed.
func readConfig(logger *slog.Logger, name string, ext string, dirs ...string) (*viper.Viper, error) {
	logger.Info("Reading the configuration file", "file", fmt.Sprintf("%s.%s", name, ext), "dirs", fmt.Sprintf("%v", dirs))

	configValues := viper.New()

	configValues.SetConfigName(name) // name of config file (without extension)
	configValues.SetConfigType(ext)  // REQUIRED if the config file does not have the extension in the name
	for _, dir := range dirs {
		configValues.AddConfigPath(dir)
	}
	err := configValues.ReadInConfig() // Find and read the config file

	if err != nil {
		logger.Error("Failed to read the configuration file", "file", fmt.Sprintf("%s.%s", name, ext), "dirs", fmt.Sprintf("%v", dirs), "error", err.Error())
	} else {
		logger.Info("Read the configuration file", "file", configValues.ConfigFileUsed())
	}

	return configValues, err
}

// LoadSettings loads the SDK settings with Viper.
//
// Loading order (later sources override earlier ones):
//  1. benchline.yaml found in the given dirs (defaults to "." and "./config")
//  2. Environment variables with the BENCHLINE_ prefix
//     (BENCHLINE_BASE_URL, BENCHLINE_API_KEY, BENCHLINE_WORKSPACE_ID, BENCHLINE_DEBUG)
//
// A missing config file is not an error as long as the required values are
// present in the environment; a file that exists but cannot be parsed is.
func LoadSettings(logger *slog.Logger, dirs ...string) (*Settings, error) {
	if len(dirs) == 0 {
		dirs = []string{".", "./config"}
	}
	configValues, err := readConfig(logger, "benchline", "yaml", dirs...)
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	configValues.SetEnvPrefix(envPrefix)
	configValues.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configValues.AutomaticEnv()
	// AutomaticEnv does not register keys absent from the file, bind them explicitly
	for _, key := range []string{"base_url", "api_key", "workspace_id", "debug"} {
		if err := configValues.BindEnv(key); err != nil {
			return nil, err
		}
	}

	settings := Settings{}
	if err := configValues.Unmarshal(&settings); err != nil {
		return nil, err
	}

	if settings.BaseURL == "" {
		return nil, fmt.Errorf("the SDK setting base_url is required (file or %s_BASE_URL)", envPrefix)
	}
	if settings.APIKey == "" {
		return nil, fmt.Errorf("the SDK setting api_key is required (file or %s_API_KEY)", envPrefix)
	}

	logger.Info("SDK settings loaded", "base_url", settings.BaseURL, "workspace_id", settings.WorkspaceID)
	return &settings, nil
}
