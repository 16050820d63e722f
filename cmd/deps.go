package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/viper"
	"gorm.io/gorm"

	"evalviewer/src/core/browser"
	"evalviewer/src/core/completion"
	"evalviewer/src/fsutil"
	"evalviewer/src/infrastructure/integrations/ollama"
	"evalviewer/src/infrastructure/integrations/openai"
	"evalviewer/src/storage/postgres"
)

func newBrowserService(completer completion.Completer) *browser.Service {
	return browser.NewService(browser.Config{
		DataRoot:        viper.GetString("data.root"),
		DefinitionsRoot: viper.GetString("data.definitions_root"),
		SamplesFilename: viper.GetString("data.samples_filename"),
		SampleCap:       viper.GetInt("data.sample_cap"),
	}, fsutil.NewLocalFileStore(), completer)
}

// newCompleter builds the configured chat-completion provider, wrapped with
// per-attempt timeouts, retries and a circuit breaker.
func newCompleter() (completion.Completer, error) {
	var next completion.Completer

	switch provider := viper.GetString("completion.provider"); provider {
	case "openai":
		c, err := openai.NewClient(openai.Config{
			APIKey:  viper.GetString("openai.api_key"),
			BaseURL: viper.GetString("openai.base_url"),
			Model:   viper.GetString("completion.model"),
		})
		if err != nil {
			return nil, err
		}
		next = c
	case "ollama":
		next = ollama.NewClient(viper.GetString("ollama.url"), viper.GetString("ollama.model"), &http.Client{})
	case "none", "":
		return completion.Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", provider)
	}

	return completion.NewResilient(next,
		completion.WithTimeout(viper.GetDuration("completion.timeout")),
		completion.WithMaxRetries(uint64(viper.GetInt("completion.max_retries"))),
	), nil
}

func openDB() (*gorm.DB, error) {
	return postgres.Open(postgres.Config{
		Host:     viper.GetString("postgres.host"),
		Port:     viper.GetString("postgres.port"),
		User:     viper.GetString("postgres.user"),
		Password: viper.GetString("postgres.password"),
		DB:       viper.GetString("postgres.db"),
	})
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
