package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
	geminix "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/gemini"
	openrouterx "github.com/tanpawarit/Chative-Travel-Booking-Agent/pkg/openrouter"
)

// Purpose names the caller of a model so each can get its own model and
// temperature.
type Purpose string

const (
	PurposeFlight     Purpose = "flight"
	PurposeHotel      Purpose = "hotel"
	PurposeClassifier Purpose = "classifier"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

type Config struct {
	Provider           string        `envconfig:"PROVIDER" split_words:"true" default:"openrouter"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	FlightModel           string  `envconfig:"FLIGHT_MODEL" split_words:"true"`
	HotelModel            string  `envconfig:"HOTEL_MODEL" split_words:"true"`
	ClassifierModel       string  `envconfig:"CLASSIFIER_MODEL" split_words:"true"`
	FlightTemperature     float32 `envconfig:"FLIGHT_TEMPERATURE" split_words:"true" default:"-1"`
	HotelTemperature      float32 `envconfig:"HOTEL_TEMPERATURE" split_words:"true" default:"-1"`
	ClassifierTemperature float32 `envconfig:"CLASSIFIER_TEMPERATURE" split_words:"true" default:"0"`
}

func (c Config) Validate() error {
	switch c.provider() {
	case ProviderOpenRouter:
		if strings.TrimSpace(c.APIKey) == "" {
			return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
		}
		if strings.TrimSpace(c.Model) == "" {
			return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
		}
	case ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown llm provider %q", contractx.ErrValidation, c.Provider)
	}
	return nil
}

func (c Config) provider() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return ProviderOpenRouter
	}
	return p
}

func (c Config) modelAndTemperature(purpose Purpose) (string, float32) {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch purpose {
	case PurposeFlight:
		if v := strings.TrimSpace(c.FlightModel); v != "" {
			modelName = v
		}
		if c.FlightTemperature >= 0 {
			temp = c.FlightTemperature
		}
	case PurposeHotel:
		if v := strings.TrimSpace(c.HotelModel); v != "" {
			modelName = v
		}
		if c.HotelTemperature >= 0 {
			temp = c.HotelTemperature
		}
	case PurposeClassifier:
		if v := strings.TrimSpace(c.ClassifierModel); v != "" {
			modelName = v
		}
		if c.ClassifierTemperature >= 0 {
			temp = c.ClassifierTemperature
		}
	}
	return modelName, temp
}

func (c Config) OpenRouterFor(purpose Purpose) openrouterx.Config {
	modelName, temp := c.modelAndTemperature(purpose)
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// GeminiFor overrides the Gemini model and temperature with the per-purpose
// settings when they are set.
func (c Config) GeminiFor(base geminix.Config, purpose Purpose) geminix.Config {
	out := base
	switch purpose {
	case PurposeFlight:
		if v := strings.TrimSpace(c.FlightModel); v != "" {
			out.Model = v
		}
		if c.FlightTemperature >= 0 {
			out.Temperature = c.FlightTemperature
		}
	case PurposeHotel:
		if v := strings.TrimSpace(c.HotelModel); v != "" {
			out.Model = v
		}
		if c.HotelTemperature >= 0 {
			out.Temperature = c.HotelTemperature
		}
	case PurposeClassifier:
		if v := strings.TrimSpace(c.ClassifierModel); v != "" {
			out.Model = v
		}
		if c.ClassifierTemperature >= 0 {
			out.Temperature = c.ClassifierTemperature
		}
	}
	if c.MaxCompletionToken > 0 {
		out.MaxTokens = int32(c.MaxCompletionToken)
	}
	return out
}

// PurposeFor maps a domain to the purpose of its agent.
func PurposeFor(domain contractx.Domain) Purpose {
	if domain == contractx.DomainFlight {
		return PurposeFlight
	}
	return PurposeHotel
}
